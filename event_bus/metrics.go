package event_bus

import "github.com/prometheus/client_golang/prometheus"

const (
	triggerResultFired         = "fired"
	triggerResultFailed        = "failed"
	triggerResultEmpty         = "empty"
	triggerResultSkippedDone   = "skipped_done"
	triggerResultSkippedFiring = "skipped_firing"
)

// Metrics holds the registry counters. A nil *Metrics records nothing.
type Metrics struct {
	RegistrationsTotal *prometheus.CounterVec
	TriggersTotal      *prometheus.CounterVec
	InvocationsTotal   *prometheus.CounterVec
	DoneTags           prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gevents_registrations_total",
				Help: "Total number of listener registrations by result",
			},
			[]string{"result"},
		),
		TriggersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gevents_triggers_total",
				Help: "Total number of trigger calls by result",
			},
			[]string{"result"},
		),
		InvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gevents_listener_invocations_total",
				Help: "Total number of listener invocations by status",
			},
			[]string{"status"},
		),
		DoneTags: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gevents_done_tags",
				Help: "Number of tags that already completed a trigger",
			},
		),
	}

	reg.MustRegister(m.RegistrationsTotal)
	reg.MustRegister(m.TriggersTotal)
	reg.MustRegister(m.InvocationsTotal)
	reg.MustRegister(m.DoneTags)

	return m
}

func (m *Metrics) registration(accepted bool) {
	if nil == m {
		return
	}

	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	m.RegistrationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) trigger(result string) {
	if nil == m {
		return
	}

	m.TriggersTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) invocation(invokeError error) {
	if nil == m {
		return
	}

	status := "ok"
	if nil != invokeError {
		status = "error"
	}
	m.InvocationsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) doneTags(count int) {
	if nil == m {
		return
	}

	m.DoneTags.Set(float64(count))
}
