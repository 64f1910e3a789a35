package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/projectdiscovery/arpx/pkg/arp"
	"github.com/projectdiscovery/arpx/pkg/link"
	"github.com/projectdiscovery/arpx/pkg/link/afpacket"
	"github.com/projectdiscovery/arpx/pkg/link/pcaplink"
	"github.com/projectdiscovery/arpx/pkg/neighbor"
	"github.com/projectdiscovery/arpx/pkg/stack"
	"github.com/projectdiscovery/gcache"
	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
)

// seenCacheSize bounds the neighbors remembered for deduplication.
const seenCacheSize = 4096

// Runner contains the internal logic of the program
type Runner struct {
	options *Options
	iface   *neighbor.Interface
	stack   *stack.Stack
	stats   *metrics.InmemSink

	outputLk sync.Mutex
	output   io.Writer
	seen     gcache.Cache[string, struct{}]
}

// NewRunner opens the configured interface and seeds the cache.
func NewRunner(options *Options) (*Runner, error) {
	iface, err := neighbor.LocalInterface(options.Interface)
	if err != nil {
		return nil, err
	}
	netif, err := iface.NetInterface()
	if err != nil {
		return nil, err
	}
	tr, err := openTransport(options.Transport, netif)
	if err != nil {
		return nil, err
	}
	return newRunner(options, iface, tr)
}

func openTransport(name string, iface *net.Interface) (link.Transport, error) {
	switch name {
	case TransportPcap:
		l, err := pcaplink.Open(iface)
		if err != nil {
			return nil, err
		}
		return l, nil
	case TransportAFPacket:
		l, err := afpacket.Open(iface)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	return nil, fmt.Errorf("unknown transport %q", name)
}

func newRunner(options *Options, iface *neighbor.Interface, tr link.Transport) (*Runner, error) {
	r := &Runner{
		options: options,
		iface:   iface,
		output:  os.Stdout,
	}

	window := options.WatchWindow
	if window <= 0 {
		window = DefaultWatchWindow
	}
	r.seen = gcache.New[string, struct{}](seenCacheSize).LRU().Expiration(window).Build()

	opts := []arp.Option{
		arp.WithLogger(gologger.DefaultLogger),
		arp.WithRetryPeriod(options.RetryPeriod),
	}
	if options.Stats {
		r.stats = metrics.NewInmemSink(time.Minute, time.Hour)
		opts = append(opts, arp.WithMetricSink(r.stats))
	}

	s, err := stack.New(tr, opts...)
	if err != nil {
		_ = tr.Close()
		return nil, err
	}
	r.stack = s

	self := iface.Addr
	if options.Self != "" {
		if self, err = netip.ParseAddr(options.Self); err != nil {
			_ = s.Close()
			return nil, errorutil.NewWithErr(err).Msgf("invalid self address %s", options.Self)
		}
	}
	if self.IsValid() {
		if err := s.SetSelfAddr(self); err != nil {
			_ = s.Close()
			return nil, errorutil.NewWithErr(err).Msgf("cannot answer for %s", self)
		}
		gologger.Verbose().Msgf("answering requests for %s at %s on %s", self, s.HardwareAddr(), iface.Name)
	}

	if err := r.seed(); err != nil {
		_ = s.Close()
		return nil, err
	}
	if options.Serve {
		s.OnLearn(func(hw arp.EthernetAddr, addr netip.Addr) {
			r.emit(stack.Neighbor{IP: addr, MAC: hw})
		})
	}
	return r, nil
}

// seed loads static and operating system entries into the cache.
func (r *Runner) seed() error {
	if r.options.StaticFile != "" {
		entries, err := neighbor.LoadStatic(r.options.StaticFile)
		if err != nil {
			return err
		}
		for _, e := range entries {
			r.stack.Learn(e.MAC, e.IP)
		}
		gologger.Verbose().Msgf("loaded %d static neighbors from %s", len(entries), r.options.StaticFile)
	}

	if r.options.OSTable {
		entries, err := neighbor.ReadOSTable()
		if err != nil {
			gologger.Warning().Msgf("could not read the neighbor table: %s", err)
			return nil
		}
		for _, e := range entries {
			r.stack.Learn(e.MAC, e.IP)
		}
		gologger.Verbose().Msgf("imported %d neighbors from the operating system", len(entries))
	}
	return nil
}

// Run the instance
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- r.stack.Run(ctx) }()

	targets, err := r.targets()
	if err != nil {
		return err
	}
	if len(targets) > 0 {
		gologger.Info().Msgf("Resolving %d addresses on %s", len(targets), r.iface.Name)
		neighbors, err := r.stack.ResolveAll(ctx, targets, r.options.Concurrency, r.options.Timeout)
		if err != nil {
			return err
		}
		for _, n := range neighbors {
			r.emit(n)
		}
		gologger.Info().Msgf("%d of %d addresses answered", len(neighbors), len(targets))
	}

	if r.options.Serve {
		gologger.Info().Msgf("Serving on %s, press Ctrl+C to stop", r.iface.Name)
		select {
		case <-ctx.Done():
		case err := <-errc:
			return err
		}
	}

	cancel()
	return <-errc
}

// targets expands the target flags and local networks, leaving out the
// self address.
func (r *Runner) targets() ([]netip.Addr, error) {
	inputs := append([]string(nil), r.options.Targets...)
	if r.options.LocalNetworks {
		networks, err := neighbor.LocalNetworks24()
		if err != nil {
			return nil, err
		}
		for _, network := range networks {
			inputs = append(inputs, network.String())
		}
	}

	addrs, err := neighbor.ParseTargets(inputs)
	if err != nil {
		return nil, err
	}
	self := r.stack.Engine().SelfAddr()
	out := addrs[:0]
	for _, addr := range addrs {
		if addr != self {
			out = append(out, addr)
		}
	}
	return out, nil
}

// emit writes n unless the same neighbor was written within the watch
// window.
func (r *Runner) emit(n stack.Neighbor) {
	key := n.IP.String() + "|" + n.MAC.String()

	r.outputLk.Lock()
	defer r.outputLk.Unlock()

	if r.seen.Has(key) {
		return
	}
	_ = r.seen.Set(key, struct{}{})

	if r.options.JSON {
		data, err := json.Marshal(n)
		if err != nil {
			gologger.Warning().Msgf("could not marshal %s: %s", n.IP, err)
			return
		}
		fmt.Fprintln(r.output, string(data))
		return
	}
	fmt.Fprintf(r.output, "%s [%s]\n", n.IP, au.Cyan(n.MAC.String()))
}

// Close the runner instance
func (r *Runner) Close() {
	if r.stats != nil {
		r.printStats()
	}
	if err := r.stack.Close(); err != nil {
		gologger.Warning().Msgf("could not close %s: %s", r.iface.Name, err)
	}
}

func (r *Runner) printStats() {
	totals := make(map[string]float64)
	for _, interval := range r.stats.Data() {
		for name, counter := range interval.Counters {
			totals[name] += counter.Sum
		}
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		gologger.Info().Msgf("%s: %v", name, totals[name])
	}
}
