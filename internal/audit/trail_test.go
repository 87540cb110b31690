package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Mani87-nq/yardbooks-pos/internal/events"
)

func newTrail(t *testing.T) *Trail {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Trail{R: client, Stream: "audit:test", MaxLen: 100}
}

func TestTrailRecordAndList(t *testing.T) {
	t.Parallel()
	trail := newTrail(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	require.NoError(t, trail.Record(ctx, "order.voided", now, map[string]any{"reason": "wrong ring-up"}))
	require.NoError(t, trail.Record(ctx, "order.completed", now.Add(time.Minute), nil))

	entries, err := trail.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	require.Equal(t, "order.completed", entries[0].Topic)
	require.Equal(t, "order.voided", entries[1].Topic)
	require.Equal(t, "wrong ring-up", entries[1].Payload["reason"])
	require.True(t, entries[1].OccurredAt.Equal(now))
}

func TestTrailViaEventBus(t *testing.T) {
	t.Parallel()
	trail := newTrail(t)
	bus := &events.Bus{Notifiers: []events.Notifier{trail.Notifier()}}

	require.NoError(t, bus.Emit(context.Background(), "order.held", map[string]any{"orderId": "ord-1"}))

	entries, err := trail.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "order.held", entries[0].Topic)
	require.Equal(t, "ord-1", entries[0].Payload["orderId"])
}

func TestHandlerList(t *testing.T) {
	t.Parallel()
	trail := newTrail(t)
	require.NoError(t, trail.Record(context.Background(), "session.opened", time.Now(), nil))

	h := Handler{Trail: trail}
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/audit?limit=25", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "session.opened")
}

func TestTrailNotConfigured(t *testing.T) {
	t.Parallel()
	var trail *Trail
	require.Error(t, trail.Record(context.Background(), "x", time.Now(), nil))
	_, err := trail.List(context.Background(), 1)
	require.Error(t, err)
}
