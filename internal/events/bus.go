// Package events fans checkout lifecycle events out to in-process listeners
// (receipt dispatch, drawer pulse, metrics, audit logging).
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Event is one emitted domain event. Payload keys are event-specific.
type Event struct {
	Topic      string
	OccurredAt time.Time
	Payload    map[string]any
}

// Notifier reacts to emitted events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus dispatches events to every configured notifier. Notifier failures are
// joined and reported but never abort the emitting operation.
type Bus struct {
	Notifiers []Notifier
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Emit delivers the event to all notifiers.
func (b *Bus) Emit(ctx context.Context, topic string, payload map[string]any) error {
	if b == nil {
		return nil
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("events: topic is required")
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	event := Event{Topic: topic, OccurredAt: now(), Payload: payload}

	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier for %s: %w", topic, err))
		}
	}
	if joined != nil {
		b.Logger.Warn().Err(joined).Str("topic", topic).Msg("event notifier failure")
	}
	return joined
}
