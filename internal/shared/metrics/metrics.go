package metrics

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "incident"

var (
	once sync.Once

	ReportsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reports",
		Name:      "created_total",
		Help:      "Total reports created.",
	})

	// ReportsDeletedTotal counts removed reports, labeled by reason (delete, discard).
	ReportsDeletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reports",
		Name:      "deleted_total",
		Help:      "Total reports removed, labeled by reason.",
	}, []string{"reason"})

	AttachmentsUploadedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "attachments",
		Name:      "uploaded_total",
		Help:      "Total attachment binaries uploaded, labeled by media type.",
	}, []string{"media_type"})

	UploadFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "attachments",
		Name:      "upload_failures_total",
		Help:      "Total attachment binary uploads rejected by the blob store.",
	})

	BlobDeleteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "attachments",
		Name:      "blob_delete_failures_total",
		Help:      "Total best-effort blob deletions that failed.",
	})

	// ExportsTotal counts export runs labeled by result (ok, partial, failed).
	ExportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "export",
		Name:      "runs_total",
		Help:      "Total report exports, labeled by result.",
	}, []string{"result"})

	MediaFetchFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "export",
		Name:      "media_fetch_failures_total",
		Help:      "Total attachment binaries that could not be fetched during export.",
	})

	ExportDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "export",
		Name:      "duration_seconds",
		Help:      "Time to assemble an export archive.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	WorkerMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "messages_total",
		Help:      "Blob cleanup queue messages handled, labeled by result.",
	}, []string{"result"})
)

// Register registers metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ReportsCreatedTotal,
			ReportsDeletedTotal,
			AttachmentsUploadedTotal,
			UploadFailuresTotal,
			BlobDeleteFailuresTotal,
			ExportsTotal,
			MediaFetchFailuresTotal,
			ExportDurationSeconds,
			WorkerMessagesTotal,
		)
	})
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	Register()
	return gin.WrapH(promhttp.Handler())
}

// ObserveExport records an export outcome and its duration.
func ObserveExport(result string, started time.Time) {
	ExportsTotal.WithLabelValues(result).Inc()
	ExportDurationSeconds.Observe(time.Since(started).Seconds())
}
