package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports the diagnostic stream as Prometheus series
type Metrics struct {
	lines      *prometheus.CounterVec
	violations prometheus.Counter
	ledOn      prometheus.Gauge
	buttonLvl  prometheus.Gauge
	lastEvent  prometheus.Gauge
}

// NewMetrics creates and registers the monitor's metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "picoblink",
			Name:      "diagnostic_lines_total",
			Help:      "Diagnostic lines received from the firmware, by kind",
		}, []string{"kind"}),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "picoblink",
			Name:      "led_sequence_violations_total",
			Help:      "LED state reports that repeated instead of alternating",
		}),
		ledOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "picoblink",
			Name:      "led_on",
			Help:      "Last reported LED state (1 = on)",
		}),
		buttonLvl: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "picoblink",
			Name:      "button_level",
			Help:      "Last sampled button line level",
		}),
		lastEvent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "picoblink",
			Name:      "last_line_timestamp_seconds",
			Help:      "Unix time of the last diagnostic line",
		}),
	}

	reg.MustRegister(m.lines, m.violations, m.ledOn, m.buttonLvl, m.lastEvent)
	return m
}

func (m *Metrics) observe(evt Event) {
	m.lines.WithLabelValues(string(evt.Kind)).Inc()
	m.lastEvent.Set(float64(evt.Time.UnixNano()) / 1e9)

	switch evt.Kind {
	case KindLEDOn:
		m.ledOn.Set(1)
	case KindLEDOff, KindInit:
		m.ledOn.Set(0)
	case KindLevel:
		m.buttonLvl.Set(float64(evt.Level))
	}
	if evt.Violation {
		m.violations.Inc()
	}
}
