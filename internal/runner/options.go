package runner

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"runtime"
	"time"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/arpx/pkg/arp"
	"github.com/projectdiscovery/arpx/pkg/stack"
	"github.com/projectdiscovery/arpx/pkg/version"
	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	envutil "github.com/projectdiscovery/utils/env"
)

var au = aurora.New(aurora.WithColors(true))

const (
	TransportPcap     = "pcap"
	TransportAFPacket = "afpacket"

	DefaultTimeout     = 5 * time.Second
	DefaultWatchWindow = 10 * time.Minute
)

var (
	InterfaceEnv = envutil.GetEnvOrDefault("ARPX_INTERFACE", "")
	TransportEnv = envutil.GetEnvOrDefault("ARPX_TRANSPORT", defaultTransport())
	SelfEnv      = envutil.GetEnvOrDefault("ARPX_SELF", "")
)

// Options contains the configuration options for the resolver.
type Options struct {
	ConfigFile string

	Interface string
	Transport string
	Self      string

	Targets       goflags.StringSlice
	LocalNetworks bool
	Concurrency   int
	Timeout       time.Duration
	RetryPeriod   time.Duration

	StaticFile string
	OSTable    bool

	Serve       bool
	WatchWindow time.Duration

	JSON    bool
	NoColor bool
	Verbose bool
	Debug   bool
	Silent  bool
	Stats   bool
	Version bool
}

func defaultTransport() string {
	if runtime.GOOS == "linux" {
		return TransportAFPacket
	}
	return TransportPcap
}

// ParseOptions parses the command line flags provided by a user
func ParseOptions() *Options {
	options := &Options{}
	flagSet := goflags.NewFlagSet()

	flagSet.SetDescription(`arpx resolves IPv4 neighbors with ARP and answers ARP requests for a local address`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringSliceVarP(&options.Targets, "target", "t", nil, "addresses or CIDR ranges to resolve (comma separated)", goflags.NormalizedStringSliceOptions),
		flagSet.BoolVarP(&options.LocalNetworks, "local-networks", "ln", false, "resolve every private /24 of the local interfaces"),
		flagSet.StringVarP(&options.StaticFile, "static", "sf", "", "seed the cache from a static neighbor file (toml or json)"),
		flagSet.BoolVarP(&options.OSTable, "os-table", "ot", false, "seed the cache from the operating system neighbor table"),
	)

	flagSet.CreateGroup("network", "Network",
		flagSet.StringVarP(&options.Interface, "interface", "i", InterfaceEnv, "network interface to use"),
		flagSet.StringVar(&options.Transport, "transport", TransportEnv, "link transport (pcap, afpacket)"),
		flagSet.StringVarP(&options.Self, "self", "s", SelfEnv, "ipv4 address to answer requests for (default: interface address)"),
		flagSet.BoolVar(&options.Serve, "serve", false, "keep answering requests and report learned neighbors until interrupted"),
		flagSet.DurationVarP(&options.WatchWindow, "watch-window", "ww", DefaultWatchWindow, "report the same neighbor at most once per window in serve mode"),
	)

	flagSet.CreateGroup("optimization", "Optimization",
		flagSet.IntVarP(&options.Concurrency, "concurrency", "c", stack.DefaultConcurrency, "number of addresses resolved at once"),
		flagSet.DurationVar(&options.Timeout, "timeout", DefaultTimeout, "time to wait for each address"),
		flagSet.DurationVarP(&options.RetryPeriod, "retry-period", "rp", arp.DefaultRetryPeriod, "time between queries for an unanswered address"),
	)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVar(&options.ConfigFile, "config", "", "toml configuration file"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.BoolVarP(&options.JSON, "json", "j", false, "write neighbors as json lines"),
		flagSet.BoolVarP(&options.NoColor, "no-color", "nc", false, "disable output content coloring (ANSI escape codes)"),
		flagSet.BoolVar(&options.Silent, "silent", false, "show only neighbors in output"),
	)

	flagSet.CreateGroup("debug", "Debug",
		flagSet.BoolVar(&options.Version, "version", false, "show version of the project"),
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Debug, "debug", false, "show every frame sent and received"),
		flagSet.BoolVar(&options.Stats, "stats", false, "print protocol counters on exit"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	options.configureOutput()

	showBanner()

	if options.Version {
		gologger.Info().Msgf("Current Version: %s\n", version.GetVersion())
		os.Exit(0)
	}

	if options.ConfigFile != "" {
		if err := options.loadConfigFrom(options.ConfigFile); err != nil {
			gologger.Fatal().Msgf("%s\n", err)
		}
	}

	if err := options.validateOptions(); err != nil {
		gologger.Fatal().Msgf("Program exiting: %s\n", err)
	}

	return options
}

// configureOutput configures the output on the screen
func (options *Options) configureOutput() {
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.Debug {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	}
	if options.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
		au = aurora.New(aurora.WithColors(false))
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
}

func (options *Options) validateOptions() error {
	switch options.Transport {
	case TransportPcap, TransportAFPacket:
	default:
		return fmt.Errorf("unknown transport %q (valid: %s, %s)", options.Transport, TransportPcap, TransportAFPacket)
	}
	if options.Self != "" {
		addr, err := netip.ParseAddr(options.Self)
		if err != nil || !addr.Is4() {
			return fmt.Errorf("invalid self address %q", options.Self)
		}
	}
	if options.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	if options.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if options.RetryPeriod <= 0 {
		return errors.New("retry period must be positive")
	}
	if options.Serve && options.WatchWindow <= 0 {
		return errors.New("watch window must be positive")
	}
	if len(options.Targets) == 0 && !options.LocalNetworks && !options.Serve {
		return errors.New("no input provided: use -target, -local-networks or -serve")
	}
	return nil
}
