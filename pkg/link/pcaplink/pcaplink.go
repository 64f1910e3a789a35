// Package pcaplink is a link.Transport over libpcap.
package pcaplink

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket/pcap"
	"github.com/projectdiscovery/arpx/pkg/arp"
	"github.com/projectdiscovery/arpx/pkg/link"
	errorutil "github.com/projectdiscovery/utils/errors"
)

const (
	// DefaultSnapLen is the snapshot length of the capture
	DefaultSnapLen = 1600
	// DefaultPromisc enables promiscuous mode so replies to other hosts are seen
	DefaultPromisc = true
	// DefaultTimeout bounds each read so a cancelled context is noticed
	DefaultTimeout = 100 * time.Millisecond
	// Filter keeps only resolution traffic
	Filter = "arp"
)

// Link captures and injects frames on one interface.
type Link struct {
	iface  *net.Interface
	hw     arp.EthernetAddr
	handle *pcap.Handle

	mu     sync.RWMutex
	closed bool
}

var _ link.Transport = (*Link)(nil)

// Open starts a live capture on iface restricted to ARP frames.
func Open(iface *net.Interface) (*Link, error) {
	hw, err := arp.EthernetAddrFrom(iface.HardwareAddr)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("interface %s has no ethernet address", iface.Name)
	}

	handle, err := pcap.OpenLive(iface.Name, DefaultSnapLen, DefaultPromisc, DefaultTimeout)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not open capture on %s", iface.Name)
	}
	if err := handle.SetBPFFilter(Filter); err != nil {
		handle.Close()
		return nil, errorutil.NewWithErr(err).Msgf("could not set filter %q on %s", Filter, iface.Name)
	}

	return &Link{iface: iface, hw: hw, handle: handle}, nil
}

func (l *Link) HardwareAddr() arp.EthernetAddr {
	return l.hw
}

func (l *Link) ReadFrame(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := l.read()
		switch {
		case err == nil:
			return data, nil
		case errors.Is(err, pcap.NextErrorTimeoutExpired):
			continue
		case errors.Is(err, link.ErrClosed):
			return nil, err
		default:
			return nil, errorutil.NewWithErr(err).Msgf("could not read from %s", l.iface.Name)
		}
	}
}

// read holds the read lock for at most one capture timeout. Close waits for
// it before releasing the handle.
func (l *Link) read() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, link.ErrClosed
	}
	data, _, err := l.handle.ReadPacketData()
	return data, err
}

func (l *Link) WriteFrame(frame []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return link.ErrClosed
	}
	if err := l.handle.WritePacketData(frame); err != nil {
		return errorutil.NewWithErr(err).Msgf("could not write to %s", l.iface.Name)
	}
	return nil
}

func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.handle.Close()
	return nil
}
