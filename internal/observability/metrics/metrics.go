package metrics

import "github.com/prometheus/client_golang/prometheus"

// FormMetrics exposes counters/histograms for the form relay.
type FormMetrics struct {
	submissionsTotal *prometheus.CounterVec
	relayLatency     *prometheus.HistogramVec
	fallbackTotal    *prometheus.CounterVec
	rejectedTotal    *prometheus.CounterVec
}

func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nominee",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Form relay attempts by outcome",
		}, []string{"form", "outcome"}),
		relayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nominee",
			Subsystem: "forms",
			Name:      "relay_latency_seconds",
			Help:      "Latency of FormSubmit relay calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nominee",
			Subsystem: "forms",
			Name:      "fallback_total",
			Help:      "Email fallback links handed out",
		}, []string{"form"}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nominee",
			Subsystem: "forms",
			Name:      "rejected_total",
			Help:      "Submissions rejected before relay",
		}, []string{"form", "reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.relayLatency, m.fallbackTotal, m.rejectedTotal)
	return m
}

// ObserveSubmission records a relay outcome: "success", "remote_failure", or an error kind.
func (m *FormMetrics) ObserveSubmission(form, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(form, outcome).Inc()
	m.relayLatency.WithLabelValues(form).Observe(seconds)
}

func (m *FormMetrics) ObserveFallback(form string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(form).Inc()
}

// ObserveRejected counts submissions stopped before relay (validation, spam).
func (m *FormMetrics) ObserveRejected(form, reason string) {
	if m == nil {
		return
	}
	m.rejectedTotal.WithLabelValues(form, reason).Inc()
}
