//go:build linux

package afpacket

import (
	"context"
	"net"
	"sync"

	"github.com/projectdiscovery/arpx/pkg/arp"
	"github.com/projectdiscovery/arpx/pkg/link"
	errorutil "github.com/projectdiscovery/utils/errors"
	"golang.org/x/sys/unix"
)

// Link is a raw AF_PACKET socket bound to one interface and ETH_P_ARP.
type Link struct {
	iface *net.Interface
	hw    arp.EthernetAddr

	// readers hold mu shared while they use fd; Close takes it exclusively
	mu     sync.RWMutex
	fd     int
	closed bool
}

var _ link.Transport = (*Link)(nil)

// Open binds a raw packet socket to iface. It needs CAP_NET_RAW.
func Open(iface *net.Interface) (*Link, error) {
	hw, err := arp.EthernetAddrFrom(iface.HardwareAddr)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("interface %s has no ethernet address", iface.Name)
	}

	proto := htons(unix.ETH_P_ARP)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, int(proto))
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not open packet socket")
	}
	if err := unix.Bind(fd, &unix.SockaddrLinklayer{Protocol: proto, Ifindex: iface.Index}); err != nil {
		_ = unix.Close(fd)
		return nil, errorutil.NewWithErr(err).Msgf("could not bind packet socket to %s", iface.Name)
	}

	return &Link{iface: iface, hw: hw, fd: fd}, nil
}

func (l *Link) HardwareAddr() arp.EthernetAddr {
	return l.hw
}

func (l *Link) ReadFrame(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 1600)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, ok, err := l.readOnce(buf)
		if err != nil {
			return nil, err
		}
		if ok {
			return buf[:n], nil
		}
	}
}

// readOnce waits up to pollTimeout for a frame.
func (l *Link) readOnce(buf []byte) (int, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, false, link.ErrClosed
	}

	fds := []unix.PollFd{{Fd: int32(l.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, pollTimeout)
	if err == unix.EINTR || n == 0 {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errorutil.NewWithErr(err).Msgf("could not poll %s", l.iface.Name)
	}

	n, _, err = unix.Recvfrom(l.fd, buf, 0)
	if err == unix.EAGAIN || err == unix.EINTR {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errorutil.NewWithErr(err).Msgf("could not read from %s", l.iface.Name)
	}
	return n, true, nil
}

func (l *Link) WriteFrame(frame []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return link.ErrClosed
	}
	if len(frame) < 14 {
		return link.ErrShortFrame
	}

	to := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ARP),
		Ifindex:  l.iface.Index,
		Halen:    arp.EthernetAddrLen,
	}
	copy(to.Addr[:], frame[:6])
	if err := unix.Sendto(l.fd, frame, 0, to); err != nil {
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
	return unix.Close(l.fd)
}

// htons converts to network byte order for the sockaddr protocol field.
func htons(v uint16) uint16 {
	return v<<8 | v>>8
}
