// Package events publishes booking and report lifecycle events to RabbitMQ.
// Publishing is best effort: failures are logged and never fail the request.
package events

import (
	"context"
	"time"
)

const (
	BookingCreated = "booking.created"
	ReportAdded    = "report.added"
	ReportRemoved  = "report.removed"
)

// Event is the JSON body of every message.
type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id,omitempty"`
	ReportID   string    `json:"report_id,omitempty"`
	Date       string    `json:"date,omitempty"`
	RoomID     string    `json:"room_id,omitempty"`
	TotalPrice float64   `json:"total_price"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.Events = append(r.Events, ev)
	return nil
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []string {
	out := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Type)
	}
	return out
}
