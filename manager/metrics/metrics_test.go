package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveQuery(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test")

	m.ObserveQuery("events", StatusOk, 10*time.Millisecond)
	m.ObserveQuery("events", StatusOk, 20*time.Millisecond)
	m.ObserveQuery("events", StatusPartial, time.Second)

	require.Equal(t, float64(2), testutil.ToFloat64(m.Queries.WithLabelValues("events", StatusOk)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Queries.WithLabelValues("events", StatusPartial)))
}

func TestObserveStrategies(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test")

	m.ObserveStrategies(map[string]int{"packed-integer-key": 2, "dynamic-id-map": 1})
	m.ObserveStrategies(map[string]int{"packed-integer-key": 1})

	require.Equal(t, float64(3), testutil.ToFloat64(m.GroupByStrategy.WithLabelValues("packed-integer-key")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.GroupByStrategy.WithLabelValues("dynamic-id-map")))
}

func TestRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	m.ObserveSegment(StatusOk, time.Millisecond)
	m.RegisteredSegments.Set(3)

	count, err := testutil.GatherAndCount(reg, "test_segment_outcomes_total", "test_registered_segments")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
