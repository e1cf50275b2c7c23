package friends

import (
	"context"

	"github.com/sirupsen/logrus"

	"friendsd/logger"
	"friendsd/models"
)

// Observer receives friendship events after they have been committed. Notify
// runs synchronously on the caller's goroutine and has no way to fail the
// operation that produced the event.
type Observer interface {
	Notify(ctx context.Context, event models.Event)
}

type ObserverFunc func(ctx context.Context, event models.Event)

func (f ObserverFunc) Notify(ctx context.Context, event models.Event) {
	f(ctx, event)
}

// Observers fans an event out to each observer in order. A panicking observer
// is logged and skipped.
type Observers []Observer

func (o Observers) Notify(ctx context.Context, event models.Event) {
	for _, obs := range o {
		notifyOne(ctx, obs, event)
	}
}

func notifyOne(ctx context.Context, obs Observer, event models.Event) {
	defer func() {
		if p := recover(); p != nil {
			logger.Log.WithFields(logrus.Fields{
				"event": event.Kind,
				"panic": p,
			}).Error("friendship observer panicked")
		}
	}()
	obs.Notify(ctx, event)
}

// LogObserver writes one structured log entry per event.
type LogObserver struct{}

func (LogObserver) Notify(_ context.Context, event models.Event) {
	logger.Log.WithFields(logrus.Fields{
		"event":      event.Kind,
		"request_id": event.Request.ID,
		"from_user":  event.Request.FromUserID,
		"to_user":    event.Request.ToUserID,
		"actor":      event.ActorID,
	}).Info("friendship event")
}
