// Copyright 2025 Embedos Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the supervisor's prometheus metrics. The
// endpoint is only served while a child is being monitored, which can last
// hours; during that window fleet tooling can observe the attempt.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	namespace = "updater"
	subsystem = "recovery"

	outcomeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outcome_total",
			Help:      "Terminal outcomes of recovery runs by outcome identifier",
		},
		[]string{"outcome"},
	)

	retryCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "network_retry_count",
			Help:      "Persisted count of consecutive network-failure attempts",
		},
	)

	childRSSBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "child_rss_bytes",
			Help:      "Resident set size of the supervised updater process",
		},
	)

	childCPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "child_cpu_percent",
			Help:      "CPU usage of the supervised updater process",
		},
	)

	monitorElapsedSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "monitor_elapsed_seconds",
			Help:      "Wall-clock seconds since the supervised updater was launched",
		},
	)

	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component"},
	)
)

// RecordOutcome counts a terminal outcome.
func RecordOutcome(outcome string) {
	outcomeTotal.WithLabelValues(outcome).Inc()
}

// SetRetryCount publishes the persisted retry counter.
func SetRetryCount(count int) {
	retryCount.Set(float64(count))
}

// SetChildResources publishes the child's sampled resource usage.
func SetChildResources(rssBytes uint64, cpuPercent float64) {
	childRSSBytes.Set(float64(rssBytes))
	childCPUPercent.Set(cpuPercent)
}

// SetMonitorElapsed publishes the elapsed monitoring time.
func SetMonitorElapsed(elapsed time.Duration) {
	monitorElapsedSeconds.Set(elapsed.Seconds())
}

// IncErrorCount counts an error for a component.
func IncErrorCount(component string) {
	errorCounter.WithLabelValues(component).Inc()
}

// SetupMetricsEndpoint starts an HTTP server serving /metrics and /health
// on the given address. The caller owns shutdown.
func SetupMetricsEndpoint(addr string, log *zap.SugaredLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warnf("Metrics server stopped: %s", err)
		}
	}()

	return server
}
