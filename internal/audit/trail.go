// Package audit keeps a tamper-evident trail of register activity. Voids,
// holds and completed sales land in a capped Redis stream that outlives the
// terminal process.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mani87-nq/yardbooks-pos/internal/events"
)

// DefaultStream is the Redis stream key used when none is configured.
const DefaultStream = "audit:register"

// Entry is one recorded register action.
type Entry struct {
	ID         string         `json:"id"`
	Topic      string         `json:"topic"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Trail records entries in a Redis stream, trimmed to MaxLen entries.
type Trail struct {
	R      *redis.Client
	Stream string
	MaxLen int64
}

func (t *Trail) stream() string {
	if t == nil || t.Stream == "" {
		return DefaultStream
	}
	return t.Stream
}

// Record appends one entry to the stream.
func (t *Trail) Record(ctx context.Context, topic string, occurredAt time.Time, payload map[string]any) error {
	if t == nil || t.R == nil {
		return errors.New("audit trail not configured")
	}
	values := map[string]any{
		"topic": topic,
		"at":    occurredAt.UTC().Format(time.RFC3339Nano),
	}
	if len(payload) > 0 {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		values["payload"] = string(encoded)
	}
	maxLen := t.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return t.R.XAdd(ctx, &redis.XAddArgs{
		Stream: t.stream(),
		MaxLen: maxLen,
		Approx: true,
		Values: values,
	}).Err()
}

// List returns the most recent entries, newest first.
func (t *Trail) List(ctx context.Context, limit int64) ([]Entry, error) {
	if t == nil || t.R == nil {
		return nil, errors.New("audit trail not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	messages, err := t.R.XRevRangeN(ctx, t.stream(), "+", "-", limit).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(messages))
	for _, msg := range messages {
		entry := Entry{ID: msg.ID}
		if topic, ok := msg.Values["topic"].(string); ok {
			entry.Topic = topic
		}
		if at, ok := msg.Values["at"].(string); ok {
			if parsed, err := time.Parse(time.RFC3339Nano, at); err == nil {
				entry.OccurredAt = parsed
			}
		}
		if raw, ok := msg.Values["payload"].(string); ok && raw != "" {
			_ = json.Unmarshal([]byte(raw), &entry.Payload)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Notifier adapts the trail to the event bus.
func (t *Trail) Notifier() events.Notifier {
	return events.NotifierFunc(func(ctx context.Context, event events.Event) error {
		return t.Record(ctx, event.Topic, event.OccurredAt, event.Payload)
	})
}
