// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"time"
)

const (
	TypeUserCreated    = "user.created"
	TypeExerciseLogged = "exercise.logged"
)

// UserCreated is emitted after a user is stored.
type UserCreated struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExerciseLogged is emitted after an entry is committed to a user's log.
type ExerciseLogged struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	Date        time.Time `json:"date"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher hands events to a broker.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType string, payload any) error { return nil }

func (NopPublisher) Close() error { return nil }
