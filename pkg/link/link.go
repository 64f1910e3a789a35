// Package link moves raw Ethernet frames between an arp.Dispatcher and a
// network interface.
package link

import (
	"context"
	"errors"

	"github.com/projectdiscovery/arpx/pkg/arp"
)

var (
	ErrClosed      = errors.New("link: transport closed")
	ErrShortFrame  = errors.New("link: frame shorter than an ethernet header")
	ErrUnsupported = errors.New("link: transport not supported on this platform")
)

// Transport is a raw Ethernet port.
type Transport interface {
	// HardwareAddr is the Ethernet address frames are sent from.
	HardwareAddr() arp.EthernetAddr
	// ReadFrame blocks until a frame arrives, ctx is done or the transport
	// is closed.
	ReadFrame(ctx context.Context) ([]byte, error)
	// WriteFrame sends one complete Ethernet frame.
	WriteFrame(frame []byte) error
	Close() error
}
