// Package metrics provides Prometheus metrics for dynv6sync.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names use the dynv6sync_ prefix.
const (
	Namespace = "dynv6sync"
)

var (
	// BuildInfo exposes version information as labels on a constant gauge.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information for dynv6sync.",
	}, []string{"version", "go_version"})

	// RunsTotal counts reconcile runs by outcome (success, partial, error).
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "runs_total",
		Help:      "Total number of reconcile runs by outcome.",
	}, []string{"status"})

	// RunDuration observes the wall time of each run.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of reconcile runs in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// RecordActionsTotal counts per-family actions by type and status.
	RecordActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "record_actions_total",
		Help:      "Total number of record actions by family, action and status.",
	}, []string{"family", "action", "status"})

	// ProviderErrorsTotal counts failed provider calls by operation.
	ProviderErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "provider_errors_total",
		Help:      "Total number of failed provider calls by operation.",
	}, []string{"operation"})

	// CurrentAddress is 1 for the address last observed per family.
	CurrentAddress = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "current_address_info",
		Help:      "Address last discovered for each family.",
	}, []string{"family", "address"})

	// LastSuccessTimestamp is the unix time of the last run without errors.
	LastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last run that completed without errors.",
	})
)

// SetBuildInfo records the running version.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetCurrentAddress replaces the address reported for a family.
func SetCurrentAddress(family, address string) {
	CurrentAddress.DeletePartialMatch(prometheus.Labels{"family": family})
	if address != "" {
		CurrentAddress.WithLabelValues(family, address).Set(1)
	}
}

// WriteTextfile writes all registered metrics in the node_exporter
// textfile collector format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
