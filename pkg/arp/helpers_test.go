package arp

import (
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/stretchr/testify/require"
)

var (
	localMAC  = EthernetAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	remoteMAC = EthernetAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
)

type staticIface EthernetAddr

func (s staticIface) HardwareAddr() EthernetAddr { return EthernetAddr(s) }

// manualClock only ticks when told to.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	mu      sync.Mutex
	period  time.Duration
	fn      func()
	stopped bool
}

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped
}

func (c *manualClock) Tick(period time.Duration, fn func()) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{period: period, fn: fn}
	c.tickers = append(c.tickers, t)
	return t
}

// fire runs one period of every active ticker.
func (c *manualClock) fire() {
	c.mu.Lock()
	tickers := append([]*manualTicker(nil), c.tickers...)
	c.mu.Unlock()
	for _, t := range tickers {
		if t.active() {
			t.fn()
		}
	}
}

func (c *manualClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if t.active() {
			n++
		}
	}
	return n
}

// countingSink counts IncrCounterWithLabels calls by flattened key.
type countingSink struct {
	metrics.BlackholeSink
	mu     sync.Mutex
	counts map[string]float32
}

func newCountingSink() *countingSink {
	return &countingSink{counts: make(map[string]float32)}
}

func (s *countingSink) IncrCounterWithLabels(key []string, val float32, _ []metrics.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := ""
	for i, part := range key {
		if i > 0 {
			k += "."
		}
		k += part
	}
	s.counts[k] += val
}

func (s *countingSink) get(key []string) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := ""
	for i, part := range key {
		if i > 0 {
			k += "."
		}
		k += part
	}
	return s.counts[k]
}

type fixture struct {
	clock  *manualClock
	sink   *countingSink
	d      *Dispatcher
	engine *Engine[netip.Addr]
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	fx := &fixture{clock: &manualClock{}, sink: newCountingSink()}
	base := []Option{WithClock(fx.clock), WithMetricSink(fx.sink)}
	fx.d = NewDispatcher(staticIface(localMAC), base...)
	e, err := NewEngine(fx.d, IPv4, append(base, opts...)...)
	require.NoError(t, err)
	fx.engine = e
	t.Cleanup(func() { _ = e.Close() })
	return fx
}

// drain pops every queued frame and decodes it.
func (fx *fixture) drain(t *testing.T) []sent {
	t.Helper()
	var out []sent
	for {
		p, ok := fx.d.GetPacket()
		if !ok {
			return out
		}
		require.Equal(t, EtherTypeARP, p.EtherType)
		h, err := DecodeHeader(p.Payload, IPv4)
		require.NoError(t, err)
		out = append(out, sent{to: p.To, hdr: h})
	}
}

type sent struct {
	to  EthernetAddr
	hdr Header[netip.Addr]
}

func replyFrame(senderHW EthernetAddr, sender, target netip.Addr) []byte {
	return Header[netip.Addr]{
		HardwareType:   HardwareTypeEthernet,
		ProtocolType:   ProtocolTypeIPv4,
		HardwareLen:    EthernetAddrLen,
		ProtocolLen:    4,
		Operation:      OpReply,
		SenderHardware: senderHW,
		SenderProtocol: sender,
		TargetHardware: localMAC,
		TargetProtocol: target,
	}.Encode(IPv4)
}

func requestFrame(senderHW EthernetAddr, sender, target netip.Addr) []byte {
	return Header[netip.Addr]{
		HardwareType:   HardwareTypeEthernet,
		ProtocolType:   ProtocolTypeIPv4,
		HardwareLen:    EthernetAddrLen,
		ProtocolLen:    4,
		Operation:      OpRequest,
		SenderHardware: senderHW,
		SenderProtocol: sender,
		TargetHardware: EthernetAddr{},
		TargetProtocol: target,
	}.Encode(IPv4)
}
