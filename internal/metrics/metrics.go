package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	PollCount          prometheus.Counter
	SubmissionsQueued  prometheus.Counter
	QueueDepth         prometheus.Gauge
	ClaimsCompleted    prometheus.Counter
	ClaimsPending      prometheus.Counter
	ClaimsRejected     prometheus.Counter
	DuplicatesSkipped  prometheus.Counter
	UploadFailures     prometheus.Counter
	AssessmentFailures prometheus.Counter
	FollowupsSent      prometheus.Counter
	ProcessingTime     prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PollCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claim_intake_poll_count",
			Help: "Total number of mailbox poll cycles",
		}),
		SubmissionsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claim_intake_submissions_queued",
			Help: "Total number of claim submissions enqueued",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "claim_intake_queue_depth",
			Help: "Current number of submissions waiting in the ingestion queue",
		}),
		ClaimsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claim_intake_claims_completed",
			Help: "Total number of claims finalized as completed",
		}),
		ClaimsPending: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claim_intake_claims_pending",
			Help: "Total number of claim assessments that ended pending",
		}),
		ClaimsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claim_intake_claims_rejected",
			Help: "Total number of submissions from unregistered senders",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claim_intake_duplicates_skipped",
			Help: "Total number of submissions skipped because the claim was already completed",
		}),
		UploadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claim_intake_upload_failures",
			Help: "Total number of failed archival uploads",
		}),
		AssessmentFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claim_intake_assessment_failures",
			Help: "Total number of assessment calls that failed or timed out",
		}),
		FollowupsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claim_intake_followups_sent",
			Help: "Total number of follow-up emails sent for pending claims",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "claim_intake_processing_duration_seconds",
			Help:    "Time spent processing one claim submission",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
