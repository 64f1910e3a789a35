//go:build !linux

package afpacket

import (
	"context"
	"net"

	"github.com/projectdiscovery/arpx/pkg/arp"
	"github.com/projectdiscovery/arpx/pkg/link"
)

// Link is unavailable outside Linux.
type Link struct{}

var _ link.Transport = (*Link)(nil)

func Open(*net.Interface) (*Link, error) {
	return nil, link.ErrUnsupported
}

func (*Link) HardwareAddr() arp.EthernetAddr { return arp.EthernetAddr{} }

func (*Link) ReadFrame(context.Context) ([]byte, error) { return nil, link.ErrUnsupported }

func (*Link) WriteFrame([]byte) error { return link.ErrUnsupported }

func (*Link) Close() error { return nil }
