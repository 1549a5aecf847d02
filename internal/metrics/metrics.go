// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Total number of learner submissions by attached audio kind",
		},
		[]string{"kind"},
	)

	BlobUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blob_uploads_total",
			Help: "Total number of blob uploads",
		},
		[]string{"purpose", "result"},
	)

	SubmissionReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_reviews_total",
			Help: "Total number of moderator reviews by resulting status",
		},
		[]string{"status"},
	)

	ImportItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_items_total",
			Help: "Items processed by the content importer",
		},
		[]string{"stage", "result"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

// SubmissionKind labels a submission by which audio it carries.
func SubmissionKind(recitation, explanation bool) string {
	switch {
	case recitation && explanation:
		return "both"
	case recitation:
		return "recitation"
	case explanation:
		return "explanation"
	default:
		return "none"
	}
}

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
