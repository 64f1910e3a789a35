package arp

import (
	"github.com/hashicorp/go-metrics"
)

var (
	MetricArpQueryOutCount     = []string{"arp", "query", "out", "count"}
	MetricArpReplyOutCount     = []string{"arp", "reply", "out", "count"}
	MetricArpRequestInCount    = []string{"arp", "request", "in", "count"}
	MetricArpReplyInCount      = []string{"arp", "reply", "in", "count"}
	MetricArpLearnCount        = []string{"arp", "learn", "count"}
	MetricArpTimeoutCount      = []string{"arp", "timeout", "count"}
	MetricArpQueueFullCount    = []string{"arp", "queue", "full", "count"}
	MetricArpDropCount         = []string{"arp", "drop", "count"}
	MetricArpOutboundQueueSize = []string{"arp", "outbound", "queue", "size"}
)

type TelemetryLabel string

var (
	LabelReason   TelemetryLabel = "reason"
	LabelProtocol TelemetryLabel = "protocol"
	LabelShard    TelemetryLabel = "shard"
)

func (lab TelemetryLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

// incr bumps key by one with the static labels and any extra ones.
func (c *config) incr(key []string, extra ...metrics.Label) {
	labels := c.metricLabels
	if len(extra) > 0 {
		labels = append(append(make([]metrics.Label, 0, len(labels)+len(extra)), labels...), extra...)
	}
	c.msink.IncrCounterWithLabels(key, 1.0, labels)
}

func (c *config) gauge(key []string, val int) {
	c.msink.SetGaugeWithLabels(key, float32(val), c.metricLabels)
}
