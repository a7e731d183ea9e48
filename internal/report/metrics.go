package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AndreyAkinshin/measuretests/internal/runner"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "measuretests"

var targetLabels = []string{"package", "kind", "name"}

// Registry builds a Prometheus registry describing r. It is a fresh
// registry per call so repeated exports never share state.
func Registry(r *runner.Result) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_info",
		Help:      "Identifies the test run; always 1.",
	}, []string{"run_id", "mode"})
	started := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_started_timestamp_seconds",
		Help:      "Unix time the test run started.",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the whole test run.",
	})
	failed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "target_failed",
		Help:      "Whether the target failed (1) or passed (0).",
	}, targetLabels)
	runs := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "target_runs",
		Help:      "Number of executions of the target, including warmup runs.",
	}, targetLabels)
	seconds := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "target_duration_seconds",
		Help:      "Timing statistics of measured runs.",
	}, append(append([]string(nil), targetLabels...), "stat"))

	reg.MustRegister(info, started, duration, failed, runs, seconds)

	info.WithLabelValues(r.RunID.String(), r.Mode().String()).Set(1)
	started.Set(float64(r.Started.UnixNano()) / 1e9)
	duration.Set(r.Finished.Sub(r.Started).Seconds())

	for _, a := range r.Attempted {
		labels := []string{a.Target.Package, a.Target.Kind.String(), a.Target.Name}
		runs.WithLabelValues(labels...).Set(float64(a.Runs))
		if a.Failed {
			failed.WithLabelValues(labels...).Set(1)
		} else {
			failed.WithLabelValues(labels...).Set(0)
		}

		s, ok := r.Timings[a.Target.Identity]
		if !ok || s.Count == 0 {
			continue
		}
		for stat, v := range map[string]float64{
			"mean":   s.Mean.Seconds(),
			"median": s.Median.Seconds(),
			"min":    s.Min.Seconds(),
			"max":    s.Max.Seconds(),
		} {
			seconds.WithLabelValues(append(labels, stat)...).Set(v)
		}
	}
	return reg
}

// WriteMetrics writes r to path in the Prometheus textfile format.
func WriteMetrics(path string, r *runner.Result) error {
	return prometheus.WriteToTextfile(path, Registry(r))
}
