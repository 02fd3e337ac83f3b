package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordResolve("local", 0.001)
	m.RecordResolve("local", 0.002)
	m.RecordResolve("miss", 0.01)
	m.RecordWrite("created")
	m.RecordCacheError("distributed", "get")
	m.RecordTask("populate", "dropped")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResolveTotal.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolveTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriteTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheErrorsTotal.WithLabelValues("distributed", "get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MaintenanceTasksTotal.WithLabelValues("populate", "dropped")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordResolve("local", 0)
		m.RecordWrite("created")
		m.RecordCacheError("local", "set")
		m.RecordTask("invalidate", "ok")
	})
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
