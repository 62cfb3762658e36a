// Package observability holds the Prometheus collectors shared by the service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sleep_app",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, labeled by route and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sleep_app",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"method", "route"})

	recordsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sleep_app",
		Subsystem: "records",
		Name:      "created_total",
		Help:      "Sleep records stored.",
	})

	recordsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sleep_app",
		Subsystem: "records",
		Name:      "deleted_total",
		Help:      "Sleep records deleted.",
	})

	sleepHours = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sleep_app",
		Subsystem: "records",
		Name:      "sleep_hours",
		Help:      "Distribution of recorded sleep durations in hours.",
		Buckets:   prometheus.LinearBuckets(2, 1, 12),
	})

	feedSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sleep_app",
		Subsystem: "feed",
		Name:      "subscribers",
		Help:      "Active change-feed subscriptions.",
	})

	feedDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sleep_app",
		Subsystem: "feed",
		Name:      "events_dropped_total",
		Help:      "Change events dropped because a subscriber was not keeping up.",
	})

	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sleep_app",
		Subsystem: "feed",
		Name:      "events_published_total",
		Help:      "Change events handed to a publisher, labeled by sink and outcome.",
	}, []string{"sink", "outcome"})

	authAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sleep_app",
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Account operations, labeled by operation and outcome.",
	}, []string{"op", "outcome"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, recordsCreated, recordsDeleted,
		sleepHours, feedSubscribers, feedDropped, eventsPublished, authAttempts)
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route string, status string, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordCreated counts a stored record and its duration.
func RecordCreated(hours float64) {
	recordsCreated.Inc()
	sleepHours.Observe(hours)
}

func RecordDeleted() { recordsDeleted.Inc() }

func SubscriberAdded()   { feedSubscribers.Inc() }
func SubscriberRemoved() { feedSubscribers.Dec() }
func EventDropped()      { feedDropped.Inc() }

// EventPublished counts an event handed to sink; err decides the outcome label.
func EventPublished(sink string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	eventsPublished.WithLabelValues(sink, outcome).Inc()
}

// AuthAttempt counts an account operation.
func AuthAttempt(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	authAttempts.WithLabelValues(op, outcome).Inc()
}
