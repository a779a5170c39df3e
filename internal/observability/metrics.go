package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	orderCreatedCounter   prometheus.Counter
	notificationCounter   *prometheus.CounterVec
	editCounter           *prometheus.CounterVec
	adminActionCounter    *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		orderCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders accepted at intake",
		})

		notificationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_notifications_total",
			Help: "Admin notification send outcomes",
		}, []string{"outcome"})

		editCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_edits_total",
			Help: "Notification copy edit outcomes",
		}, []string{"outcome"})

		adminActionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_actions_total",
			Help: "Order status transitions by outcome",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpDurationHistogram,
			orderCreatedCounter,
			notificationCounter,
			editCounter,
			adminActionCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementOrderCreated() {
	if orderCreatedCounter == nil {
		return
	}
	orderCreatedCounter.Inc()
}

func IncrementNotification(outcome string) {
	if notificationCounter == nil {
		return
	}
	notificationCounter.WithLabelValues(outcome).Inc()
}

func IncrementEdit(outcome string) {
	if editCounter == nil {
		return
	}
	editCounter.WithLabelValues(outcome).Inc()
}

func IncrementAdminAction(outcome string) {
	if adminActionCounter == nil {
		return
	}
	adminActionCounter.WithLabelValues(outcome).Inc()
}
