package arp

// resolution is the in-flight state of one unresolved address. It is owned
// by its Engine and only touched under the engine lock.
type resolution struct {
	waiters []*Future
	ticker  Ticker
}

func (r *resolution) resolveAll(addr EthernetAddr) {
	for _, w := range r.waiters {
		w.resolve(addr)
	}
	r.waiters = nil
}

// failAll fails every current waiter and returns how many there were.
func (r *resolution) failAll(err error) int {
	n := len(r.waiters)
	for _, w := range r.waiters {
		w.fail(err)
	}
	r.waiters = nil
	return n
}

func (r *resolution) stop() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}
