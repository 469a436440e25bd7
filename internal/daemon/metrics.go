package daemon

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/scheduler"
)

const namespace = "waketime"

// Metrics holds the delivery loop counters.
type Metrics struct {
	registry *prometheus.Registry

	ticks        prometheus.Counter
	tickErrors   prometheus.Counter
	deliveries   *prometheus.CounterVec
	tickDuration prometheus.Histogram
	lastTick     prometheus.Gauge

	Alarms *AlarmCollector
}

// NewMetrics registers the daemon metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Delivery polls run.",
		}),
		tickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Delivery polls that failed before delivering.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Trigger deliveries by outcome.",
		}, []string{"outcome"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time spent in one delivery poll.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		lastTick: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_poll_timestamp_seconds",
			Help:      "Unix time of the last completed poll.",
		}),
		Alarms: NewAlarmCollector(),
	}
	m.registry.MustRegister(m.ticks, m.tickErrors, m.deliveries, m.tickDuration, m.lastTick, m.Alarms)
	for _, outcome := range []string{"delivered", "dropped", "failed"} {
		m.deliveries.WithLabelValues(outcome)
	}
	return m
}

// ObserveTick records one poll.
func (m *Metrics) ObserveTick(res scheduler.TickResult, took time.Duration, err error) {
	m.ticks.Inc()
	m.tickDuration.Observe(took.Seconds())
	if err != nil {
		m.tickErrors.Inc()
		return
	}
	m.deliveries.WithLabelValues("delivered").Add(float64(res.Delivered))
	m.deliveries.WithLabelValues("dropped").Add(float64(res.Dropped))
	m.deliveries.WithLabelValues("failed").Add(float64(res.Failed))
	m.lastTick.Set(float64(res.Now.Unix()))
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var (
	alarmsDesc = prometheus.NewDesc(
		namespace+"_alarms", "Alarms grouped by state.", []string{"state"}, nil,
	)
	registrationsDesc = prometheus.NewDesc(
		namespace+"_registrations", "Registered triggers grouped by kind.", []string{"kind"}, nil,
	)
	ringingDesc = prometheus.NewDesc(
		namespace+"_ringing_alarms", "Alarms with an unresolved trigger event.", nil, nil,
	)
	snoozesDesc = prometheus.NewDesc(
		namespace+"_history_snoozes", "Snoozes recorded in retained history.", []string{"alarm_id", "label"}, nil,
	)
)

// AlarmCollector reports gauges from the snapshot taken on the last poll.
type AlarmCollector struct {
	mu      sync.Mutex
	alarms  []*model.Alarm
	regs    []*model.Registration
	updated bool
}

// NewAlarmCollector creates an empty collector.
func NewAlarmCollector() *AlarmCollector {
	return &AlarmCollector{}
}

// Update replaces the snapshot.
func (c *AlarmCollector) Update(alarms []*model.Alarm, regs []*model.Registration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alarms = alarms
	c.regs = regs
	c.updated = true
}

// Describe implements prometheus.Collector.
func (c *AlarmCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- alarmsDesc
	ch <- registrationsDesc
	ch <- ringingDesc
	ch <- snoozesDesc
}

// Collect implements prometheus.Collector.
func (c *AlarmCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.updated {
		return
	}

	var enabled, disabled, ringing float64
	for _, a := range c.alarms {
		if a.Enabled {
			enabled++
		} else {
			disabled++
		}
		if _, ok := a.PendingEvent(); ok {
			ringing++
		}
		snoozes := 0
		for _, e := range a.History {
			snoozes += e.SnoozeCount
		}
		ch <- prometheus.MustNewConstMetric(snoozesDesc, prometheus.GaugeValue, float64(snoozes), a.ID, a.Label)
	}
	ch <- prometheus.MustNewConstMetric(alarmsDesc, prometheus.GaugeValue, enabled, "enabled")
	ch <- prometheus.MustNewConstMetric(alarmsDesc, prometheus.GaugeValue, disabled, "disabled")
	ch <- prometheus.MustNewConstMetric(ringingDesc, prometheus.GaugeValue, ringing)

	kinds := map[model.TriggerKind]float64{model.TriggerRecurring: 0, model.TriggerOnce: 0}
	for _, r := range c.regs {
		kinds[r.Kind]++
	}
	for kind, n := range kinds {
		ch <- prometheus.MustNewConstMetric(registrationsDesc, prometheus.GaugeValue, n, string(kind))
	}
}
