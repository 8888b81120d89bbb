package events

import (
	"context"
	"time"
)

type Type string

const (
	UserRegistered Type = "user.registered"
	UserLoggedIn   Type = "user.logged_in"
	UserLoggedOut  Type = "user.logged_out"
	TokenRefreshed Type = "token.refreshed"
)

// Event is an auth lifecycle notification. It never carries credentials or
// token values.
type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events to interested consumers. Callers treat a publish
// failure as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
