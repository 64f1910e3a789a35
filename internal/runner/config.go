package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/projectdiscovery/arpx/pkg/arp"
	"github.com/projectdiscovery/arpx/pkg/stack"
	errorutil "github.com/projectdiscovery/utils/errors"
)

// fileConfig mirrors the command line flags. Flags and environment
// variables win over the file: a key is only applied while its option still
// holds the default.
type fileConfig struct {
	Interface     string   `toml:"interface"`
	Transport     string   `toml:"transport"`
	Self          string   `toml:"self"`
	Targets       []string `toml:"targets"`
	LocalNetworks bool     `toml:"local_networks"`
	Concurrency   int      `toml:"concurrency"`
	Timeout       string   `toml:"timeout"`
	RetryPeriod   string   `toml:"retry_period"`
	Static        string   `toml:"static"`
	OSTable       bool     `toml:"os_table"`
	Serve         bool     `toml:"serve"`
	WatchWindow   string   `toml:"watch_window"`
	JSON          bool     `toml:"json"`
}

func (options *Options) loadConfigFrom(location string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(location, &raw)
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("could not load config %s", location)
	}

	if meta.IsDefined("interface") && options.Interface == InterfaceEnv {
		options.Interface = strings.TrimSpace(raw.Interface)
	}
	if meta.IsDefined("transport") && options.Transport == TransportEnv {
		options.Transport = strings.TrimSpace(raw.Transport)
	}
	if meta.IsDefined("self") && options.Self == SelfEnv {
		options.Self = strings.TrimSpace(raw.Self)
	}
	if meta.IsDefined("targets") && len(options.Targets) == 0 {
		for _, target := range raw.Targets {
			if v := strings.TrimSpace(target); v != "" {
				options.Targets = append(options.Targets, v)
			}
		}
	}
	if meta.IsDefined("local_networks") && !options.LocalNetworks {
		options.LocalNetworks = raw.LocalNetworks
	}
	if meta.IsDefined("concurrency") && options.Concurrency == stack.DefaultConcurrency {
		options.Concurrency = raw.Concurrency
	}
	if meta.IsDefined("timeout") && options.Timeout == DefaultTimeout {
		if options.Timeout, err = parseDuration("timeout", raw.Timeout); err != nil {
			return err
		}
	}
	if meta.IsDefined("retry_period") && options.RetryPeriod == arp.DefaultRetryPeriod {
		if options.RetryPeriod, err = parseDuration("retry_period", raw.RetryPeriod); err != nil {
			return err
		}
	}
	if meta.IsDefined("static") && options.StaticFile == "" {
		options.StaticFile = strings.TrimSpace(raw.Static)
	}
	if meta.IsDefined("os_table") && !options.OSTable {
		options.OSTable = raw.OSTable
	}
	if meta.IsDefined("serve") && !options.Serve {
		options.Serve = raw.Serve
	}
	if meta.IsDefined("watch_window") && options.WatchWindow == DefaultWatchWindow {
		if options.WatchWindow, err = parseDuration("watch_window", raw.WatchWindow); err != nil {
			return err
		}
	}
	if meta.IsDefined("json") && !options.JSON {
		options.JSON = raw.JSON
	}
	return nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
