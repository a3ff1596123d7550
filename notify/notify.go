// Package notify fans content activity out to live listeners and web push.
package notify

import (
	"context"
	"time"
)

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Event describes a change to a stored resource.
type Event struct {
	Type     string    `json:"type"`
	Resource string    `json:"resource"`
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Slug     string    `json:"slug,omitempty"`
	Status   string    `json:"status,omitempty"`
	// Previous is the status before an update.
	Previous string    `json:"previousStatus,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher receives events. Implementations must not block the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Multi publishes every event to each of its publishers.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) {
	for _, p := range m {
		p.Publish(ctx, e)
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.Events = append(r.Events, e)
}
