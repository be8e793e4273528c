// Package metrics exports board activity to prometheus.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

const namespace = "dino"

// StatsSource provides board counters, e.g. *board.Board.
type StatsSource interface {
	Stats() board.Stats
}

type statDesc struct {
	desc  *prometheus.Desc
	value func(board.Stats) uint64
}

func newStatDesc(name, help string, value func(board.Stats) uint64) statDesc {
	return statDesc{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "board", name), help, []string{"board"}, nil),
		value: value,
	}
}

var statDescs = []statDesc{
	newStatDesc("frames_total", "Frames received.", func(s board.Stats) uint64 { return s.Frames }),
	newStatDesc("events_total", "Events decoded.", func(s board.Stats) uint64 { return s.Events }),
	newStatDesc("corrupt_frames_total", "Frames dropped by the decoder.", func(s board.Stats) uint64 { return s.Corrupt }),
	newStatDesc("skipped_bytes_total", "Garbage bytes outside frames.", func(s board.Stats) uint64 { return s.Skipped }),
	newStatDesc("unhandled_events_total", "Events on unclaimed pins.", func(s board.Stats) uint64 { return s.Unhandled }),
	newStatDesc("commands_total", "Commands sent.", func(s board.Stats) uint64 { return s.Commands }),
	newStatDesc("listener_errors_total", "Failed listeners.", func(s board.Stats) uint64 { return s.ListenerErrors }),
	newStatDesc("component_errors_total", "Events rejected by components.", func(s board.Stats) uint64 { return s.ComponentErrors }),
}

var connectedDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "board", "connected"),
	"Whether the board transport is usable.",
	[]string{"board"}, nil)

// Collector exports board counters, plus per-kind event and diagnostic
// counts when installed as observer and diagnostic handler.
type Collector struct {
	id     string
	source StatsSource

	events *prometheus.CounterVec
	diags  *prometheus.CounterVec
}

// NewCollector creates a Collector for a board.
func NewCollector(id string, source StatsSource) *Collector {
	labels := prometheus.Labels{"board": id}
	return &Collector{
		id:     id,
		source: source,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "board",
			Name:        "events_by_kind_total",
			Help:        "Decoded events by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		diags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "board",
			Name:        "diagnostics_total",
			Help:        "Diagnostics by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range statDescs {
		ch <- d.desc
	}
	ch <- connectedDesc
	c.events.Describe(ch)
	c.diags.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	for _, d := range statDescs {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.CounterValue, float64(d.value(stats)), c.id)
	}
	if conn, ok := c.source.(interface{ Connected() bool }); ok {
		var v float64
		if conn.Connected() {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(connectedDesc, prometheus.GaugeValue, v, c.id)
	}
	c.events.Collect(ch)
	c.diags.Collect(ch)
}

// HandleEvent implements board.Listener.
func (c *Collector) HandleEvent(_ context.Context, _ board.Component, ev *wire.Event) error {
	c.events.WithLabelValues(ev.Kind.String()).Inc()
	return nil
}

// HandleDiagnostic implements board.DiagnosticHandler.
func (c *Collector) HandleDiagnostic(_ context.Context, d board.Diagnostic) {
	c.diags.WithLabelValues(d.Kind.String()).Inc()
}
