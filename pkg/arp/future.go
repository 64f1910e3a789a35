package arp

import (
	"context"
	"sync/atomic"
)

// Future is the handle returned by Engine.Lookup. It settles exactly once,
// either with the resolved link address or with an error (ErrTimeout,
// ErrQueueFull or ErrClosed). Abandoning a Future is fine; it has no cancel
// operation of its own.
type Future struct {
	settled atomic.Bool
	done    chan struct{}

	// written once before done is closed
	addr EthernetAddr
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture(addr EthernetAddr) *Future {
	f := newFuture()
	f.resolve(addr)
	return f
}

func failedFuture(err error) *Future {
	f := newFuture()
	f.fail(err)
	return f
}

// resolve and fail return false when the future was already settled.
func (f *Future) resolve(addr EthernetAddr) bool {
	if !f.settled.CompareAndSwap(false, true) {
		return false
	}
	f.addr = addr
	close(f.done)
	return true
}

func (f *Future) fail(err error) bool {
	if !f.settled.CompareAndSwap(false, true) {
		return false
	}
	f.err = err
	close(f.done)
	return true
}

// Done is closed once the future is settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the future is settled.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome without blocking. It returns ErrNotReady while
// the future is pending.
func (f *Future) Result() (EthernetAddr, error) {
	select {
	case <-f.done:
		return f.addr, f.err
	default:
		return EthernetAddr{}, ErrNotReady
	}
}

// Wait blocks until the future settles or ctx is done. Giving up on ctx does
// not settle the future.
func (f *Future) Wait(ctx context.Context) (EthernetAddr, error) {
	select {
	case <-f.done:
		return f.addr, f.err
	case <-ctx.Done():
		return EthernetAddr{}, ctx.Err()
	}
}
