// Package metrics provides Prometheus metric collection and exposure.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckInRecorder is the metrics interface used by the check-in flow.
type CheckInRecorder interface {
	RecordDecision(outcome string)
	RecordCheckInLatency(duration time.Duration)
	RecordAlertEnqueue(success bool)
}

// DeliveryRecorder is the metrics interface used by the alert delivery worker.
type DeliveryRecorder interface {
	RecordAlertDelivery(status string)
}

// Collector implements metric recording on a Prometheus registry.
type Collector struct {
	decisions      *prometheus.CounterVec
	checkinLatency prometheus.Histogram
	alertEnqueue   *prometheus.CounterVec
	alertDelivery  *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siteward_checkin_decisions_total",
			Help: "Check-in decisions by outcome.",
		}, []string{"outcome"}),
		checkinLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "siteward_checkin_duration_seconds",
			Help:    "Latency of the check-in decision pipeline in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		alertEnqueue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siteward_alert_enqueue_total",
			Help: "Compliance-alert enqueue attempts by status.",
		}, []string{"status"}),
		alertDelivery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siteward_alert_delivery_total",
			Help: "Compliance-alert delivery attempts by status.",
		}, []string{"status"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siteward_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.decisions,
		c.checkinLatency,
		c.alertEnqueue,
		c.alertDelivery,
		c.httpStatus,
	)

	return c
}

// RecordDecision counts one check-in decision by outcome label.
func (c *Collector) RecordDecision(outcome string) {
	c.decisions.WithLabelValues(outcome).Inc()
}

// RecordCheckInLatency observes the duration of one check-in decision.
func (c *Collector) RecordCheckInLatency(duration time.Duration) {
	c.checkinLatency.Observe(duration.Seconds())
}

// RecordAlertEnqueue counts one alert enqueue attempt.
func (c *Collector) RecordAlertEnqueue(success bool) {
	status := "ok"
	if !success {
		status = "error"
	}
	c.alertEnqueue.WithLabelValues(status).Inc()
}

// RecordAlertDelivery counts one alert delivery attempt by status
// (delivered, skipped, retried, dropped).
func (c *Collector) RecordAlertDelivery(status string) {
	c.alertDelivery.WithLabelValues(status).Inc()
}

// RecordHTTPStatus counts one HTTP response by status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the Prometheus scrape handler for the gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface checks
var (
	_ CheckInRecorder  = (*Collector)(nil)
	_ DeliveryRecorder = (*Collector)(nil)
)
