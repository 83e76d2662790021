// Package metrics exports engine counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/coreman2200/funtimes-charlieplex/matrix"
)

const namespace = "charlieplex"

var (
	ticksDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "refresh", "ticks_total"),
		"Refresh handler ticks serviced.", nil, nil)
	litDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "refresh", "lit_ticks_total"),
		"Ticks that energized an LED.", nil, nil)
	faultsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "refresh", "pin_faults_total"),
		"Pin errors seen by the refresh handler.", nil, nil)
	advancesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "playback", "advances_total"),
		"Frames published by the player.", nil, nil)
	completionsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "playback", "completions_total"),
		"Completed passes through the loaded sequence.", nil, nil)
	framesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "playback", "frames"),
		"Frames in the loaded sequence.", nil, nil)
	intervalDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "playback", "interval_seconds"),
		"Auto-advance interval, 0 when stopped.", nil, nil)
	startedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "started"),
		"1 while the refresh timer is armed.", nil, nil)
)

// Source supplies a snapshot of engine counters.
type Source interface {
	Stats() matrix.Stats
}

// Collector reads the engine on every scrape; nothing is cached.
type Collector struct {
	src Source
}

func NewCollector(src Source) *Collector {
	return &Collector{src: src}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- ticksDesc
	ch <- litDesc
	ch <- faultsDesc
	ch <- advancesDesc
	ch <- completionsDesc
	ch <- framesDesc
	ch <- intervalDesc
	ch <- startedDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter(ticksDesc, st.Ticks)
	counter(litDesc, st.Lit)
	counter(faultsDesc, st.Faults)
	counter(advancesDesc, st.Advances)
	counter(completionsDesc, st.Completions)
	gauge(framesDesc, float64(st.Frames))
	gauge(intervalDesc, st.Interval.Seconds())
	started := 0.0
	if st.Started {
		started = 1
	}
	gauge(startedDesc, started)
}
