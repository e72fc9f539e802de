package domain

import (
	"context"
	"time"
)

// EventState is the publication lifecycle state of an event. Only PUBLISHED
// events accept participation requests.
type EventState string

// Event lifecycle states.
const (
	EventStatePending   EventState = "PENDING"
	EventStatePublished EventState = "PUBLISHED"
	EventStateCanceled  EventState = "CANCELED"
)

// Event is the read-side view of an event as the admission core sees it.
// Event CRUD belongs to a separate subsystem; this core reads the fields that
// drive admission decisions and bumps Revision through the guarded writes in
// the request repository. It never changes any other event field.
// swagger:model Event
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	OrganizerID string     `json:"organizer_id"`
	// ParticipantLimit is the maximum number of confirmed participants.
	// Zero means unlimited.
	ParticipantLimit int `json:"participant_limit"`
	// RequestModeration controls whether new requests wait for the
	// organizer. When false, requests confirm automatically on submission.
	RequestModeration bool       `json:"request_moderation"`
	State             EventState `json:"state"`
	// Revision increments on every capacity-relevant write and backs the
	// optimistic concurrency check.
	Revision  int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Unlimited reports whether the event has no participant limit.
func (e *Event) Unlimited() bool {
	return e.ParticipantLimit == 0
}

// EventRepository defines the read path into event storage.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
}
