package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveAnalysis("local", "success", 20*time.Millisecond)
	m.ObserveAnalysis("local", "success", 30*time.Millisecond)
	m.ObserveAnalysis("remote", "UpstreamError", time.Second)
	m.ObserveSavings("local", 0.01)
	m.ObserveTableBuild(nil)
	m.ObserveTableBuild(errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analysesTotal.WithLabelValues("local", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analysesTotal.WithLabelValues("remote", "UpstreamError")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tableBuilds.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.energySavings))
	assert.Equal(t, 2, testutil.CollectAndCount(m.analysisDuration))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnalysis("local", "success", time.Second)
		m.ObserveSavings("local", 1)
		m.ObserveTableBuild(nil)
	})
}
