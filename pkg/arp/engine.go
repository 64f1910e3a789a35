package arp

import (
	"sync"
)

var _ Handler = (*Engine[struct{}])(nil)

// Engine resolves addresses of family A to Ethernet addresses.
//
// All engine state sits behind one lock; futures are settled by closing a
// channel and learn hooks run after the lock is released, so no caller code
// ever runs while the lock is held. Lookup and Learn may therefore be called
// from any goroutine, including from code woken by an earlier resolution.
type Engine[A comparable] struct {
	cfg    *config
	d      *Dispatcher
	family Family[A]

	lk         sync.Mutex
	closed     bool
	self       A
	table      map[A]EthernetAddr
	inProgress map[A]*resolution
	hooks      []func(EthernetAddr, A)
}

// NewEngine creates an engine for family f and registers it on d under the
// family's protocol type.
func NewEngine[A comparable](d *Dispatcher, f Family[A], opts ...Option) (*Engine[A], error) {
	e := &Engine[A]{
		cfg:        newConfig(append(sharedOptions(d), opts...)),
		d:          d,
		family:     f,
		self:       f.Broadcast(),
		table:      make(map[A]EthernetAddr),
		inProgress: make(map[A]*resolution),
	}
	e.table[f.Broadcast()] = BroadcastEthernet

	if err := d.Add(f.ProtocolType(), e); err != nil {
		return nil, err
	}
	return e, nil
}

// sharedOptions makes an engine inherit the dispatcher's logger and metrics
// unless overridden.
func sharedOptions(d *Dispatcher) []Option {
	return []Option{
		WithLogger(d.cfg.logger),
		WithMetricSink(d.cfg.msink),
		WithMetricLabels(d.cfg.metricLabels),
	}
}

// Family returns the address family served by e.
func (e *Engine[A]) Family() Family[A] {
	return e.family
}

// OnLearn registers fn to be called after every Learn, including entries
// learned from inbound replies.
func (e *Engine[A]) OnLearn(fn func(hw EthernetAddr, addr A)) {
	if fn == nil {
		return
	}
	e.lk.Lock()
	defer e.lk.Unlock()
	e.hooks = append(e.hooks, fn)
}

// Lookup returns a future for the link address of addr.
//
// A cached address resolves immediately. The first miss for an address
// broadcasts a query, arms the retry ticker and queues a waiter; later misses
// queue behind it. Once MaxWaiters futures are queued, further lookups fail
// immediately with ErrQueueFull and leave the queued ones untouched. An
// address the family cannot encode fails with ErrInvalidAddr.
func (e *Engine[A]) Lookup(addr A) *Future {
	addr, ok := e.family.Canonical(addr)
	if !ok {
		e.cfg.incr(MetricArpDropCount, LabelReason.M("invalid_addr"))
		return failedFuture(ErrInvalidAddr)
	}

	e.lk.Lock()
	defer e.lk.Unlock()

	if e.closed {
		return failedFuture(ErrClosed)
	}
	if hw, ok := e.table[addr]; ok {
		return resolvedFuture(hw)
	}

	res, ok := e.inProgress[addr]
	if !ok {
		res = &resolution{}
		e.inProgress[addr] = res
		res.ticker = e.cfg.clock.Tick(e.cfg.retryPeriod, func() {
			e.retry(addr, res)
		})
		e.sendQueryLocked(addr)
	}

	if len(res.waiters) >= e.cfg.maxWaiters {
		e.cfg.incr(MetricArpQueueFullCount)
		e.cfg.logger.Debug().Msgf("arp: waiter queue full for %v (%d waiters)", addr, len(res.waiters))
		return failedFuture(ErrQueueFull)
	}

	w := newFuture()
	res.waiters = append(res.waiters, w)
	return w
}

// retry is the tick of one pending resolution: query again and fail every
// current waiter with ErrTimeout. The resolution stays armed.
func (e *Engine[A]) retry(addr A, res *resolution) {
	e.lk.Lock()
	defer e.lk.Unlock()

	// the tick raced with Learn or Close
	if e.closed || e.inProgress[addr] != res {
		return
	}

	e.sendQueryLocked(addr)
	if n := res.failAll(ErrTimeout); n > 0 {
		e.cfg.msink.IncrCounterWithLabels(MetricArpTimeoutCount, float32(n), e.cfg.metricLabels)
		e.cfg.logger.Debug().Msgf("arp: no answer for %v, failed %d waiters", addr, n)
	}
}

// Learn records that addr is at hw, overwriting any previous entry, and
// resolves every waiter of a pending lookup for addr. Addresses outside the
// family are ignored.
func (e *Engine[A]) Learn(hw EthernetAddr, addr A) {
	canon, ok := e.family.Canonical(addr)
	if !ok {
		e.cfg.logger.Debug().Msgf("arp: not learning %v, not in family", addr)
		return
	}
	addr = canon

	e.lk.Lock()
	n := e.learnLocked(hw, addr)
	hooks := e.hooks
	e.lk.Unlock()

	e.cfg.incr(MetricArpLearnCount)
	if n > 0 {
		e.cfg.logger.Debug().Msgf("arp: %v is at %s, resolved %d waiters", addr, hw, n)
	}
	for _, hook := range hooks {
		hook(hw, addr)
	}
}

func (e *Engine[A]) learnLocked(hw EthernetAddr, addr A) int {
	e.table[addr] = hw
	res, ok := e.inProgress[addr]
	if !ok {
		return 0
	}
	res.stop()
	n := len(res.waiters)
	res.resolveAll(hw)
	delete(e.inProgress, addr)
	return n
}

// Receive handles an inbound ARP payload. Requests for the configured self
// address are answered, replies are learned, everything else is dropped.
func (e *Engine[A]) Receive(frame []byte) {
	h, err := DecodeHeader(frame, e.family)
	if err != nil {
		e.cfg.incr(MetricArpDropCount, LabelReason.M("malformed"))
		e.cfg.logger.Debug().Msgf("arp: dropping malformed %d byte frame", len(frame))
		return
	}

	switch h.Operation {
	case OpRequest:
		e.cfg.incr(MetricArpRequestInCount)
		e.handleRequest(h)
	case OpReply:
		e.cfg.incr(MetricArpReplyInCount)
		e.Learn(h.SenderHardware, h.SenderProtocol)
	}
}

// Forward declines: resolution frames are not hashed to a shard.
func (e *Engine[A]) Forward(*ForwardHash, []byte, int) bool {
	return false
}

func (e *Engine[A]) handleRequest(h Header[A]) {
	e.lk.Lock()
	defer e.lk.Unlock()

	if h.TargetProtocol != e.self || e.self == e.family.Broadcast() {
		return
	}

	h.Operation = OpReply
	h.TargetHardware = h.SenderHardware
	h.TargetProtocol = h.SenderProtocol
	h.SenderHardware = e.d.L2Self()
	h.SenderProtocol = e.self

	e.send(h.TargetHardware, h.Encode(e.family))
	e.cfg.incr(MetricArpReplyOutCount)
	e.cfg.logger.Debug().Msgf("arp: answering %v at %s", h.TargetProtocol, h.TargetHardware)
}

// SendQuery broadcasts a request for addr.
func (e *Engine[A]) SendQuery(addr A) error {
	addr, ok := e.family.Canonical(addr)
	if !ok {
		return ErrInvalidAddr
	}
	e.lk.Lock()
	defer e.lk.Unlock()
	e.sendQueryLocked(addr)
	return nil
}

func (e *Engine[A]) sendQueryLocked(addr A) {
	e.send(BroadcastEthernet, e.makeQuery(addr).Encode(e.family))
	e.cfg.incr(MetricArpQueryOutCount)
	e.cfg.logger.Debug().Msgf("arp: who-has %v tell %v", addr, e.self)
}

func (e *Engine[A]) makeQuery(addr A) Header[A] {
	return Header[A]{
		HardwareType:   HardwareTypeEthernet,
		ProtocolType:   e.family.ProtocolType(),
		HardwareLen:    EthernetAddrLen,
		ProtocolLen:    uint8(e.family.Width()),
		Operation:      OpRequest,
		SenderHardware: e.d.L2Self(),
		SenderProtocol: e.self,
		TargetHardware: BroadcastEthernet,
		TargetProtocol: addr,
	}
}

func (e *Engine[A]) send(to EthernetAddr, payload []byte) {
	e.d.enqueue(Packet{EtherType: EtherTypeARP, To: to, Payload: payload})
}

// SetSelfAddr makes addr the address this engine answers requests for. The
// previous self entry is removed from the cache and addr is mapped to the
// interface's own hardware address. Passing the family's broadcast address
// unconfigures the engine. Addresses outside the family are rejected with
// ErrInvalidAddr and leave the current binding in place.
func (e *Engine[A]) SetSelfAddr(addr A) error {
	addr, ok := e.family.Canonical(addr)
	if !ok {
		return ErrInvalidAddr
	}

	e.lk.Lock()
	defer e.lk.Unlock()

	bcast := e.family.Broadcast()
	if e.self != bcast {
		delete(e.table, e.self)
	}
	e.self = addr
	if addr != bcast {
		e.learnLocked(e.d.L2Self(), addr)
	}
	return nil
}

// SelfAddr returns the configured self address, or the family's broadcast
// address when unconfigured.
func (e *Engine[A]) SelfAddr() A {
	e.lk.Lock()
	defer e.lk.Unlock()
	return e.self
}

// Entries returns a copy of the cache.
func (e *Engine[A]) Entries() map[A]EthernetAddr {
	e.lk.Lock()
	defer e.lk.Unlock()
	out := make(map[A]EthernetAddr, len(e.table))
	for k, v := range e.table {
		out[k] = v
	}
	return out
}

// PendingCount returns the number of addresses with a resolution in flight.
func (e *Engine[A]) PendingCount() int {
	e.lk.Lock()
	defer e.lk.Unlock()
	return len(e.inProgress)
}

// Waiters returns how many futures are queued on addr.
func (e *Engine[A]) Waiters(addr A) int {
	addr, _ = e.family.Canonical(addr)
	e.lk.Lock()
	defer e.lk.Unlock()
	if res, ok := e.inProgress[addr]; ok {
		return len(res.waiters)
	}
	return 0
}

// Close unregisters the engine from its dispatcher, stops every retry ticker
// and fails the outstanding waiters with ErrClosed. Later lookups fail with
// ErrClosed.
func (e *Engine[A]) Close() error {
	e.lk.Lock()
	if e.closed {
		e.lk.Unlock()
		return nil
	}
	e.closed = true
	for addr, res := range e.inProgress {
		res.stop()
		res.failAll(ErrClosed)
		delete(e.inProgress, addr)
	}
	e.lk.Unlock()

	e.d.Del(e.family.ProtocolType())
	return nil
}
