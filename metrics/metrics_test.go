package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendsd/models"
)

func TestCollectorCountsEvents(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.Notify(context.Background(), models.Event{Kind: models.EventFriendshipAccepted})
	c.Notify(context.Background(), models.Event{Kind: models.EventFriendshipAccepted})
	c.Notify(context.Background(), models.Event{Kind: models.EventFriendshipDeclined})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.events.WithLabelValues("friendship_accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("friendship_declined")))
	assert.Zero(t, testutil.ToFloat64(c.events.WithLabelValues("friendship_cancelled")))
}

func TestCollectorOperations(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveOperation("request", time.Millisecond, nil)
	c.ObserveOperation("request", time.Millisecond, fmt.Errorf("wrapped: %w", models.ErrDuplicateRequest))
	c.ObserveOperation("accept", time.Millisecond, errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("request", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("request", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("accept", "error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.Notify(context.Background(), models.Event{Kind: models.EventFriendshipCancelled})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `friends_events_total{kind="friendship_cancelled"} 1`))
}

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "self_reference", Result(models.ErrSelfReference))
	assert.Equal(t, "not_found", Result(models.ErrNotFound))
	assert.Equal(t, "already_friends", Result(models.ErrAlreadyFriends))
	assert.Equal(t, "unknown_user", Result(fmt.Errorf("%w: ghost", models.ErrUnknownUser)))
}
