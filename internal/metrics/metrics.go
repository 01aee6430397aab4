// Package metrics exposes simulation counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "headcount"

// Metrics groups the collectors for simulation runs.
type Metrics struct {
	runs         *prometheus.CounterVec
	days         *prometheus.CounterVec
	phaseDays    *prometheus.CounterVec
	activeRuns   prometheus.Gauge
	daysToAnswer *prometheus.HistogramVec
}

// New creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of simulation runs by strategy and final status",
		}, []string{"strategy", "status"}),
		days: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_total",
			Help:      "Number of simulated days by strategy",
		}, []string{"strategy"}),
		phaseDays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_days_total",
			Help:      "Number of simulated days spent in each phase",
		}, []string{"phase"}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Number of runs currently being simulated",
		}),
		daysToAnswer: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "days_to_answer",
			Help:      "Days taken until every agent knew the population size",
			Buckets:   prometheus.ExponentialBuckets(4, 4, 10),
		}, []string{"strategy"}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.days, m.phaseDays, m.activeRuns, m.daysToAnswer} {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return m, nil
}

// RunStarted marks a run as in progress.
func (m *Metrics) RunStarted() {
	m.activeRuns.Inc()
}

// RunEnded records a run's outcome. days is only observed for finished runs.
func (m *Metrics) RunEnded(strategy, status string, finished bool, days int) {
	m.activeRuns.Dec()
	m.runs.WithLabelValues(strategy, status).Inc()
	if finished {
		m.daysToAnswer.WithLabelValues(strategy).Observe(float64(days))
	}
}

// Day records one simulated day spent in phase.
func (m *Metrics) Day(strategy, phase string) {
	m.days.WithLabelValues(strategy).Inc()
	m.phaseDays.WithLabelValues(phase).Inc()
}

// Serve exposes gatherer on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ServeListener(ctx, ln, gatherer)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, ln net.Listener, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop metrics server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	}
}
