// Package stack runs one resolution shard on top of a link.Transport: a
// Dispatcher, its IPv4 engine and the receive and transmit loops feeding
// them.
package stack

import (
	"context"
	"errors"
	"net/netip"
	"slices"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/projectdiscovery/arpx/pkg/arp"
	"github.com/projectdiscovery/arpx/pkg/link"
	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
	mapsutil "github.com/projectdiscovery/utils/maps"
	syncutil "github.com/projectdiscovery/utils/sync"
	"github.com/rs/xid"
)

// DefaultConcurrency bounds the resolutions ResolveAll runs at once.
const DefaultConcurrency = 32

// Neighbor is a resolved cache entry.
type Neighbor struct {
	IP  netip.Addr       `json:"ip"`
	MAC arp.EthernetAddr `json:"mac"`
}

// Stack is one shard bound to one transport.
type Stack struct {
	id     string
	tr     link.Transport
	d      *arp.Dispatcher
	engine *arp.Engine[netip.Addr]
	logger *gologger.Logger
}

// New creates the dispatcher and IPv4 engine of tr. Every metric the shard
// emits carries its ID as the shard label unless opts override the labels.
func New(tr link.Transport, opts ...arp.Option) (*Stack, error) {
	id := xid.New().String()
	opts = append([]arp.Option{arp.WithMetricLabels([]metrics.Label{arp.LabelShard.M(id)})}, opts...)

	d := arp.NewDispatcher(tr, opts...)
	engine, err := arp.NewEngine(d, arp.IPv4, opts...)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not register ipv4 engine")
	}
	return &Stack{
		id:     id,
		tr:     tr,
		d:      d,
		engine: engine,
		logger: d.Logger(),
	}, nil
}

// ID identifies the shard in logs and metrics.
func (s *Stack) ID() string {
	return s.id
}

func (s *Stack) Engine() *arp.Engine[netip.Addr] {
	return s.engine
}

func (s *Stack) Dispatcher() *arp.Dispatcher {
	return s.d
}

func (s *Stack) HardwareAddr() arp.EthernetAddr {
	return s.tr.HardwareAddr()
}

// SetSelfAddr configures the address the shard answers requests for.
func (s *Stack) SetSelfAddr(addr netip.Addr) error {
	return s.engine.SetSelfAddr(addr)
}

// Learn seeds the cache.
func (s *Stack) Learn(hw arp.EthernetAddr, addr netip.Addr) {
	s.engine.Learn(hw, addr)
}

// OnLearn forwards to the engine.
func (s *Stack) OnLearn(fn func(arp.EthernetAddr, netip.Addr)) {
	s.engine.OnLearn(fn)
}

// Run pumps frames between the transport and the dispatcher until ctx is
// done or the transport fails. Closing the transport is a clean shutdown.
func (s *Stack) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	go func() { errc <- s.receiveLoop(ctx) }()
	go func() { errc <- s.transmitLoop(ctx) }()

	err := <-errc
	cancel()
	<-errc

	if errors.Is(err, context.Canceled) || errors.Is(err, link.ErrClosed) {
		return nil
	}
	return err
}

func (s *Stack) receiveLoop(ctx context.Context) error {
	self := s.tr.HardwareAddr()
	for {
		raw, err := s.tr.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		frame, err := link.DecodeFrame(raw)
		if err != nil {
			s.logger.Debug().Msgf("[%s] dropping frame: %v", s.id, err)
			continue
		}
		// captures also see what we sent
		if frame.EtherType != arp.EtherTypeARP || frame.Src == self {
			continue
		}
		s.d.ProcessPacket(frame.Payload, frame.Src)
	}
}

func (s *Stack) transmitLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.d.Ready():
		}

		for {
			p, ok := s.d.GetPacket()
			if !ok {
				break
			}
			raw, err := link.EncodeFrame(p.To, s.tr.HardwareAddr(), p.EtherType, p.Payload)
			if err != nil {
				s.logger.Warning().Msgf("[%s] %s", s.id, err)
				continue
			}
			if err := s.tr.WriteFrame(raw); err != nil {
				if errors.Is(err, link.ErrClosed) {
					return err
				}
				s.logger.Warning().Msgf("[%s] %s", s.id, err)
			}
		}
	}
}

// Resolve waits for the link address of addr. A lookup that times out is
// issued again, so Resolve only gives up when ctx is done, the engine is
// closed or the waiter queue of addr is full.
func (s *Stack) Resolve(ctx context.Context, addr netip.Addr) (arp.EthernetAddr, error) {
	for {
		hw, err := s.engine.Lookup(addr).Wait(ctx)
		if errors.Is(err, arp.ErrTimeout) {
			s.logger.Verbose().Msgf("[%s] no answer from %s yet", s.id, addr)
			continue
		}
		return hw, err
	}
}

// ResolveAll resolves addrs with at most concurrency lookups in flight,
// giving each address up to timeout (no limit when zero). Addresses that
// did not answer are left out of the result, which is sorted by IP.
func (s *Stack) ResolveAll(ctx context.Context, addrs []netip.Addr, concurrency int, timeout time.Duration) ([]Neighbor, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	awg, err := syncutil.New(syncutil.WithSize(concurrency))
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not create adaptive waitgroup")
	}

	results := mapsutil.NewSyncLockMap[netip.Addr, arp.EthernetAddr]()
	for _, addr := range addrs {
		if ctx.Err() != nil {
			break
		}

		awg.Add()
		go func(addr netip.Addr) {
			defer awg.Done()

			rctx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				rctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			hw, err := s.Resolve(rctx, addr)
			if err != nil {
				s.logger.Debug().Msgf("[%s] could not resolve %s: %v", s.id, addr, err)
				return
			}
			_ = results.Set(addr, hw)
		}(addr)
	}
	awg.Wait()

	var out []Neighbor
	_ = results.Iterate(func(addr netip.Addr, hw arp.EthernetAddr) error {
		out = append(out, Neighbor{IP: addr, MAC: hw})
		return nil
	})
	sortNeighbors(out)
	return out, nil
}

// Neighbors is a sorted snapshot of the cache without the broadcast and
// self entries.
func (s *Stack) Neighbors() []Neighbor {
	self := s.engine.SelfAddr()
	bcast := arp.IPv4.Broadcast()

	var out []Neighbor
	for addr, hw := range s.engine.Entries() {
		if addr == bcast || addr == self {
			continue
		}
		out = append(out, Neighbor{IP: addr, MAC: hw})
	}
	sortNeighbors(out)
	return out
}

// Close tears the engine down, failing pending lookups, then closes the
// transport.
func (s *Stack) Close() error {
	_ = s.engine.Close()
	return s.tr.Close()
}

func sortNeighbors(n []Neighbor) {
	slices.SortFunc(n, func(a, b Neighbor) int {
		return a.IP.Compare(b.IP)
	})
}
