package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for chat turns and bookings.
type ConversationMetrics struct {
	turnsTotal    *prometheus.CounterVec
	bookingsTotal *prometheus.CounterVec
	turnLatency   *prometheus.HistogramVec
	sideEffects   *prometheus.CounterVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalpoint",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total chat turns by booking step and outcome",
		}, []string{"step", "outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalpoint",
			Subsystem: "conversation",
			Name:      "bookings_total",
			Help:      "Confirmed appointments by doctor",
		}, []string{"doctor"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vitalpoint",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of a chat turn including state load and save",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
		sideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalpoint",
			Subsystem: "conversation",
			Name:      "booking_side_effects_total",
			Help:      "Confirmation emails and booking events by result",
		}, []string{"kind", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.turnLatency, m.sideEffects)
	return m
}

func (m *ConversationMetrics) ObserveTurn(step, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(step, outcome).Inc()
}

func (m *ConversationMetrics) ObserveBooking(doctor string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(doctor).Inc()
}

func (m *ConversationMetrics) ObserveLatency(channel string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(channel).Observe(seconds)
}

func (m *ConversationMetrics) ObserveSideEffect(kind string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.sideEffects.WithLabelValues(kind, status).Inc()
}
