package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RunStarted()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.activeRuns))

	m.Day("fancy", "upper-bound")
	m.Day("fancy", "upper-bound")
	m.Day("fancy", "flash")
	m.RunEnded("fancy", "finished", true, 3)

	assert.Equal(t, float64(0), testutil.ToFloat64(m.activeRuns))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.days.WithLabelValues("fancy")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.phaseDays.WithLabelValues("upper-bound")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("fancy", "finished")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.daysToAnswer))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestServeListener(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.Day("simple", "coin-flip")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeListener(ctx, ln, reg) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `headcount_phase_days_total{phase="coin-flip"} 1`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
