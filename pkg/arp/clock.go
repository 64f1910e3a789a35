package arp

import (
	"sync"
	"time"
)

// Ticker is a periodic timer created by a Clock.
type Ticker interface {
	// Stop prevents any further call to the tick function. It does not wait
	// for a call already in progress.
	Stop()
}

// Clock arms the periodic retry timers of pending resolutions.
type Clock interface {
	// Tick calls fn every period until the returned Ticker is stopped.
	Tick(period time.Duration, fn func()) Ticker
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

func (SystemClock) Tick(period time.Duration, fn func()) Ticker {
	t := &systemTicker{
		ticker: time.NewTicker(period),
		stop:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

type systemTicker struct {
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

func (t *systemTicker) run(fn func()) {
	defer t.ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C:
			select {
			case <-t.stop:
				return
			default:
			}
			fn()
		}
	}
}

func (t *systemTicker) Stop() {
	t.once.Do(func() {
		close(t.stop)
	})
}
