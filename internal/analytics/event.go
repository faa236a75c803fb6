// Package analytics carries unlock and rollout events to live subscribers and
// to Kafka.
package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeUnlockEvaluated = "unlock.evaluated"
	TypeFeatureExposure = "feature.exposure"
	TypeItemChanged     = "item.changed"
)

// Event is one analytics record. Subject names the thing the event is about
// (an item id or feature key); Outcome is type specific.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	UserID  string    `json:"userId,omitempty"`
	Subject string    `json:"subject"`
	Outcome string    `json:"outcome"`
	At      time.Time `json:"at"`
}

// NewEvent stamps a fresh id and the current UTC time.
func NewEvent(typ, userID, subject, outcome string) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    typ,
		UserID:  userID,
		Subject: subject,
		Outcome: outcome,
		At:      time.Now().UTC(),
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use
// and must not block request handling for long.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// MultiPublisher publishes to each publisher in order and joins their errors.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
