package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) []*dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()
		}
	}
	return nil
}

func TestConversationMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)

	m.ObserveTurn("select_time", "booked")
	m.ObserveTurn("select_time", "booked")
	m.ObserveBooking("Dr. Jane Doe")
	m.ObserveLatency("http", 0.02)
	m.ObserveSideEffect("email", false)

	turns := gather(t, reg, "vitalpoint_conversation_turns_total")
	require.Len(t, turns, 1)
	assert.Equal(t, 2.0, turns[0].GetCounter().GetValue())

	bookings := gather(t, reg, "vitalpoint_conversation_bookings_total")
	require.Len(t, bookings, 1)
	assert.Equal(t, "Dr. Jane Doe", bookings[0].GetLabel()[0].GetValue())

	latency := gather(t, reg, "vitalpoint_conversation_turn_latency_seconds")
	require.Len(t, latency, 1)
	assert.Equal(t, uint64(1), latency[0].GetHistogram().GetSampleCount())

	effects := gather(t, reg, "vitalpoint_conversation_booking_side_effects_total")
	require.Len(t, effects, 1)
	labels := map[string]string{}
	for _, l := range effects[0].GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	assert.Equal(t, map[string]string{"kind": "email", "status": "failed"}, labels)
}

func TestConversationMetricsDefaultRegistry(t *testing.T) {
	m := NewConversationMetrics(nil)
	m.ObserveTurn("none", "fallback")
	prometheus.DefaultRegisterer.Unregister(m.turnsTotal)
	prometheus.DefaultRegisterer.Unregister(m.bookingsTotal)
	prometheus.DefaultRegisterer.Unregister(m.turnLatency)
	prometheus.DefaultRegisterer.Unregister(m.sideEffects)
}

func TestConversationMetricsNilSafe(t *testing.T) {
	var m *ConversationMetrics
	m.ObserveTurn("none", "fallback")
	m.ObserveBooking("Dr. Jane Doe")
	m.ObserveLatency("http", 0.1)
	m.ObserveSideEffect("event", true)
}
