package retouch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderPassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retouch_render_passes_total",
		Help: "Render passes by caller and result",
	}, []string{"caller", "result"})

	renderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retouch_render_duration_seconds",
		Help:    "Render pass latency by caller",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms .. ~8s
	}, []string{"caller"})

	previewCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retouch_preview_cache_total",
		Help: "Preview cache lookups by result (hit, miss)",
	}, []string{"result"})

	historySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "retouch_history_size",
		Help: "Applied operations in the most recently updated session",
	})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retouch_exports_total",
		Help: "Exports by format and result",
	}, []string{"format", "result"})

	exportBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "retouch_export_bytes",
		Help:    "Size of exported files",
		Buckets: prometheus.ExponentialBuckets(16<<10, 4, 8), // 16KiB .. 256MiB
	})
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func renderTimer(caller string) *prometheus.Timer {
	return prometheus.NewTimer(renderDuration.WithLabelValues(caller))
}
