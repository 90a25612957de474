// Package metrics records sync run counters and writes them in the
// node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hexo_algoliasearch"

// Recorder holds the sync metrics on a dedicated registry.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	recordsFetched   *prometheus.CounterVec
	documentsIndexed prometheus.Counter
	chunksUploaded   prometheus.Counter
	chunksFailed     prometheus.Counter
	runDuration      prometheus.Histogram
	lastSuccess      prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total sync runs by outcome",
		}, []string{"status"}),

		recordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Total published records fetched from the content store",
		}, []string{"model"}),

		documentsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_indexed_total",
			Help:      "Total documents uploaded to the search index",
		}),

		chunksUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_uploaded_total",
			Help:      "Total chunks uploaded successfully",
		}),

		chunksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_failed_total",
			Help:      "Total chunks whose upload failed",
		}),

		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Sync run duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),

		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sync run",
		}),
	}

	r.registry.MustRegister(
		r.runsTotal,
		r.recordsFetched,
		r.documentsIndexed,
		r.chunksUploaded,
		r.chunksFailed,
		r.runDuration,
		r.lastSuccess,
	)
	return r
}

func (r *Recorder) RecordsFetched(model string, n int) {
	r.recordsFetched.WithLabelValues(model).Add(float64(n))
}

func (r *Recorder) ChunkUploaded(documents int) {
	r.chunksUploaded.Inc()
	r.documentsIndexed.Add(float64(documents))
}

func (r *Recorder) ChunkFailed() {
	r.chunksFailed.Inc()
}

// RunFinished records a run's outcome and duration.
func (r *Recorder) RunFinished(status string, started time.Time) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(time.Since(started).Seconds())
	if status == "succeeded" {
		r.lastSuccess.SetToCurrentTime()
	}
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
