package arp

import (
	"container/list"
	"strconv"
	"sync"

	"github.com/projectdiscovery/gologger"
	mapsutil "github.com/projectdiscovery/utils/maps"
)

// Interface is the network interface collaborator of a Dispatcher.
type Interface interface {
	// HardwareAddr is the Ethernet address of the interface.
	HardwareAddr() EthernetAddr
}

// Packet is an outbound resolution frame waiting for the link layer.
type Packet struct {
	EtherType uint16
	To        EthernetAddr
	Payload   []byte
}

// Dispatcher routes the resolution traffic of one interface to the engines
// registered for each protocol type and collects their outbound frames in a
// single unbounded FIFO.
type Dispatcher struct {
	cfg   *config
	netif Interface

	regLk    sync.Mutex
	handlers *mapsutil.SyncLockMap[uint16, Handler]

	queueLk sync.Mutex
	queue   *list.List
	ready   chan struct{}
}

// NewDispatcher creates the dispatcher of netif.
func NewDispatcher(netif Interface, opts ...Option) *Dispatcher {
	return &Dispatcher{
		cfg:      newConfig(opts),
		netif:    netif,
		handlers: mapsutil.NewSyncLockMap[uint16, Handler](),
		queue:    list.New(),
		ready:    make(chan struct{}, 1),
	}
}

// Add registers h for proto. A second registration for the same protocol
// type is rejected with ErrHandlerExists.
func (d *Dispatcher) Add(proto uint16, h Handler) error {
	d.regLk.Lock()
	defer d.regLk.Unlock()
	if d.handlers.Has(proto) {
		return ErrHandlerExists
	}
	return d.handlers.Set(proto, h)
}

// Del removes the handler of proto, if any.
func (d *Dispatcher) Del(proto uint16) {
	d.regLk.Lock()
	defer d.regLk.Unlock()
	d.handlers.Delete(proto)
}

// L2Self returns the hardware address of the interface.
func (d *Dispatcher) L2Self() EthernetAddr {
	return d.netif.HardwareAddr()
}

// Logger returns the logger the dispatcher was configured with.
func (d *Dispatcher) Logger() *gologger.Logger {
	return d.cfg.logger
}

// ProcessPacket hands an inbound ARP payload, received from the link
// address from, to the handler of its protocol type. Frames too short for
// the dispatch header or without a handler are dropped.
func (d *Dispatcher) ProcessPacket(frame []byte, from EthernetAddr) {
	dh, err := DecodeDispatchHeader(frame)
	if err != nil {
		d.cfg.incr(MetricArpDropCount, LabelReason.M("short"))
		d.cfg.logger.Debug().Msgf("arp: dropping %d byte frame from %s: %v", len(frame), from, err)
		return
	}
	h, ok := d.handlers.Get(dh.ProtocolType)
	if !ok || h == nil {
		d.cfg.incr(MetricArpDropCount, LabelReason.M("no_handler"), LabelProtocol.M(protoLabel(dh.ProtocolType)))
		d.cfg.logger.Debug().Msgf("arp: no handler for protocol 0x%04x, dropping frame from %s", dh.ProtocolType, from)
		return
	}
	h.Receive(frame)
}

// Forward asks the handler registered for the frame's protocol type to fill
// hash. It returns false when the frame is too short, no handler matches or
// the handler declines.
func (d *Dispatcher) Forward(hash *ForwardHash, frame []byte, off int) bool {
	if off < 0 || off > len(frame) {
		return false
	}
	dh, err := DecodeDispatchHeader(frame[off:])
	if err != nil {
		return false
	}
	h, ok := d.handlers.Get(dh.ProtocolType)
	if !ok || h == nil {
		return false
	}
	return h.Forward(hash, frame, off)
}

// GetPacket pops the oldest queued outbound frame. It never blocks.
func (d *Dispatcher) GetPacket() (Packet, bool) {
	d.queueLk.Lock()
	defer d.queueLk.Unlock()
	e := d.queue.Front()
	if e == nil {
		return Packet{}, false
	}
	d.queue.Remove(e)
	d.cfg.gauge(MetricArpOutboundQueueSize, d.queue.Len())
	return e.Value.(Packet), true
}

// Ready receives a value after the queue goes from empty to non-empty. A
// transmit loop waits on it, then drains GetPacket until it reports false.
func (d *Dispatcher) Ready() <-chan struct{} {
	return d.ready
}

// Len returns the number of queued outbound frames.
func (d *Dispatcher) Len() int {
	d.queueLk.Lock()
	defer d.queueLk.Unlock()
	return d.queue.Len()
}

func (d *Dispatcher) enqueue(p Packet) {
	d.queueLk.Lock()
	d.queue.PushBack(p)
	n := d.queue.Len()
	d.queueLk.Unlock()

	d.cfg.gauge(MetricArpOutboundQueueSize, n)
	select {
	case d.ready <- struct{}{}:
	default:
	}
}

func protoLabel(proto uint16) string {
	return "0x" + strconv.FormatUint(uint64(proto), 16)
}
