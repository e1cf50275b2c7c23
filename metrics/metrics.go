// Package metrics exposes friendship events and service operations to
// Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"friendsd/models"
)

type Collector struct {
	gatherer prometheus.Gatherer

	// events counts committed friendship events by kind
	events *prometheus.CounterVec

	// operations counts service operations by operation and result
	operations *prometheus.CounterVec

	// duration tracks operation latency including the transaction
	duration *prometheus.HistogramVec
}

// NewCollector registers the friendship metrics on reg.
func NewCollector(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		gatherer: reg,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "friends_events_total",
			Help: "Total friendship events by kind",
		}, []string{"kind"}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "friends_operations_total",
			Help: "Total friendship operations by operation and result",
		}, []string{"operation", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "friends_operation_duration_seconds",
			Help:    "Friendship operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}, []string{"operation"}),
	}
}

// Notify implements friends.Observer.
func (c *Collector) Notify(_ context.Context, event models.Event) {
	c.events.WithLabelValues(string(event.Kind)).Inc()
}

// ObserveOperation matches friends.OperationFunc.
func (c *Collector) ObserveOperation(op string, elapsed time.Duration, err error) {
	c.operations.WithLabelValues(op, Result(err)).Inc()
	c.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Result maps an operation error to a low-cardinality label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrSelfReference):
		return "self_reference"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrDuplicateRequest):
		return "duplicate"
	case errors.Is(err, models.ErrAlreadyFriends):
		return "already_friends"
	case errors.Is(err, models.ErrUnknownUser):
		return "unknown_user"
	default:
		return "error"
	}
}
