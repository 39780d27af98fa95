package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"nietladen/internal/models"
)

var (
	guidesByStatusDesc = prometheus.NewDesc(
		"nietladen_guides",
		"Number of guides by moderation status",
		[]string{"status"},
		nil,
	)

	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nietladen_guide_submissions_total",
		Help: "Guide submissions by outcome",
	}, []string{"outcome"})

	transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nietladen_guide_transitions_total",
		Help: "Moderation transitions by target status",
	}, []string{"status"})

	feedbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nietladen_guide_feedback_total",
		Help: "Feedback votes by kind",
	}, []string{"vote"})

	importedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nietladen_catalog_imported_total",
		Help: "Catalog rows created by bulk import",
	}, []string{"kind"})

	notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nietladen_notifications_total",
		Help: "Notification attempts by template and outcome",
	}, []string{"template", "outcome"})
)

// GuideCounter is the read the status collector needs.
type GuideCounter interface {
	CountGuidesByStatus(ctx context.Context) (map[models.Status]int, error)
}

// GuideStatusCollector reads guide counts from the store on each scrape.
type GuideStatusCollector struct {
	counter GuideCounter
	logger  *zap.Logger
}

// Describe sends the metric descriptor to the channel.
func (c *GuideStatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- guidesByStatusDesc
}

// Collect emits one gauge per guide status, zero included.
func (c *GuideStatusCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.counter.CountGuidesByStatus(ctx)
	if err != nil {
		c.logger.Error("failed to collect guide status metrics", zap.Error(err))
		return
	}
	for _, status := range []models.Status{models.StatusPending, models.StatusApproved, models.StatusRejected, models.StatusOffline} {
		ch <- prometheus.MustNewConstMetric(
			guidesByStatusDesc,
			prometheus.GaugeValue,
			float64(counts[status]),
			string(status),
		)
	}
}

var initOnce sync.Once

// Init registers the collectors on the default registry.
// Must be called once at startup.
func Init(counter GuideCounter, logger *zap.Logger) {
	initOnce.Do(func() {
		prometheus.MustRegister(
			&GuideStatusCollector{counter: counter, logger: logger.Named("metrics")},
			submissionsTotal,
			transitionsTotal,
			feedbackTotal,
			importedTotal,
			notificationsTotal,
		)
	})
}

// RecordSubmission counts a submission attempt; outcome is "accepted",
// "invalid" or "failed".
func RecordSubmission(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordTransition counts a moderation status change.
func RecordTransition(status models.Status) {
	transitionsTotal.WithLabelValues(string(status)).Inc()
}

// RecordFeedback counts one feedback vote.
func RecordFeedback(helpful bool) {
	vote := "not_helpful"
	if helpful {
		vote = "helpful"
	}
	feedbackTotal.WithLabelValues(vote).Inc()
}

// RecordImport counts brands and models created by an import batch.
func RecordImport(brands, vehicleModels int) {
	importedTotal.WithLabelValues("brand").Add(float64(brands))
	importedTotal.WithLabelValues("model").Add(float64(vehicleModels))
}

// RecordNotification counts a notification attempt.
func RecordNotification(template string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	notificationsTotal.WithLabelValues(template, outcome).Inc()
}
