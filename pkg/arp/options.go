package arp

import (
	"time"

	"github.com/hashicorp/go-metrics"
	"github.com/projectdiscovery/gologger"
)

const (
	// DefaultMaxWaiters bounds the futures queued behind one pending address.
	DefaultMaxWaiters = 512

	// DefaultRetryPeriod is how often an unanswered query is re-sent.
	DefaultRetryPeriod = time.Second
)

type config struct {
	logger       *gologger.Logger
	msink        metrics.MetricSink
	metricLabels []metrics.Label
	clock        Clock
	retryPeriod  time.Duration
	maxWaiters   int
}

// Option configures a Dispatcher or an Engine.
type Option func(*config)

func newConfig(opts []Option) *config {
	c := &config{
		logger:      gologger.DefaultLogger,
		msink:       &metrics.BlackholeSink{},
		clock:       SystemClock{},
		retryPeriod: DefaultRetryPeriod,
		maxWaiters:  DefaultMaxWaiters,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLogger specifies which gologger.Logger protocol events go to.
func WithLogger(logger *gologger.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetricSink allows you to chose how to collect the metrics emitted by
// the dispatcher and engines.
func WithMetricSink(ms metrics.MetricSink) Option {
	return func(c *config) {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		c.msink = ms
	}
}

// WithMetricLabels adds static labels to all metrics.
func WithMetricLabels(labels []metrics.Label) Option {
	return func(c *config) {
		c.metricLabels = labels
	}
}

// WithClock replaces the wall clock driving retry tickers.
func WithClock(clock Clock) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRetryPeriod controls how often a pending query is re-broadcast and its
// waiters failed with ErrTimeout.
func WithRetryPeriod(period time.Duration) Option {
	return func(c *config) {
		if period <= 0 {
			period = DefaultRetryPeriod
		}
		c.retryPeriod = period
	}
}

// WithMaxWaiters bounds the number of futures queued on one address.
func WithMaxWaiters(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = DefaultMaxWaiters
		}
		c.maxWaiters = n
	}
}
