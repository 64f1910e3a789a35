package link

import (
	"context"
	"sync"

	"github.com/projectdiscovery/arpx/pkg/arp"
)

const pipeBuffer = 1024

// Pipe is one end of an in-memory point-to-point Ethernet link.
type Pipe struct {
	hw   arp.EthernetAddr
	in   chan []byte
	peer *Pipe

	once sync.Once
	done chan struct{}
}

// NewPipe returns two connected transports with the given hardware
// addresses. A frame written to one end is read from the other.
func NewPipe(a, b arp.EthernetAddr) (*Pipe, *Pipe) {
	pa := &Pipe{hw: a, in: make(chan []byte, pipeBuffer), done: make(chan struct{})}
	pb := &Pipe{hw: b, in: make(chan []byte, pipeBuffer), done: make(chan struct{})}
	pa.peer, pb.peer = pb, pa
	return pa, pb
}

func (p *Pipe) HardwareAddr() arp.EthernetAddr {
	return p.hw
}

func (p *Pipe) ReadFrame(ctx context.Context) ([]byte, error) {
	if p.closed() {
		return nil, ErrClosed
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrClosed
	case frame := <-p.in:
		return frame, nil
	}
}

// WriteFrame copies frame to the peer. It blocks while the peer's buffer is
// full and fails once either end is closed.
func (p *Pipe) WriteFrame(frame []byte) error {
	if p.closed() || p.peer.closed() {
		return ErrClosed
	}
	buf := append([]byte(nil), frame...)
	select {
	case <-p.done:
		return ErrClosed
	case <-p.peer.done:
		return ErrClosed
	case p.peer.in <- buf:
		return nil
	}
}

func (p *Pipe) closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Pipe) Close() error {
	p.once.Do(func() {
		close(p.done)
	})
	return nil
}
