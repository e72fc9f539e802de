package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a participation request.
// Serialized as its name.
type RequestStatus string

// Participation request statuses. PENDING is the only non-terminal status:
// the organizer resolves it to CONFIRMED or REJECTED through batch
// processing, and the requester may cancel a PENDING or CONFIRMED request.
const (
	StatusPending   RequestStatus = "PENDING"
	StatusConfirmed RequestStatus = "CONFIRMED"
	StatusRejected  RequestStatus = "REJECTED"
	StatusCanceled  RequestStatus = "CANCELED"
)

// Valid reports whether s is one of the four request statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// Active reports whether the request still holds or may come to hold a
// participant slot. A user may have at most one active request per event.
func (s RequestStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Cancelable reports whether the requester may cancel a request in this
// status. Canceling only ever frees capacity, so no capacity check applies.
func (s RequestStatus) Cancelable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// InitialStatus resolves the status a newly created request starts in.
// Requests confirm automatically when the event has no participant limit or
// does not moderate requests; otherwise they wait for the organizer.
func InitialStatus(e *Event) RequestStatus {
	if e.Unlimited() || !e.RequestModeration {
		return StatusConfirmed
	}
	return StatusPending
}

// CreatedAtLayout is the fixed textual format of a request's creation
// timestamp on the wire.
const CreatedAtLayout = "2006-01-02 15:04:05"

// Request is a user's participation request for an event. CreatedAt is set
// once at creation and never mutated; Status is the only mutable field.
// swagger:model Request
type Request struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event_id"`
	RequesterID string        `json:"requester_id"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"-"`
}

// NewRequest returns a new Request with a generated ID and the given initial
// status.
func NewRequest(eventID, requesterID string, status RequestStatus, createdAt time.Time) *Request {
	return &Request{
		ID:          uuid.NewString(),
		EventID:     eventID,
		RequesterID: requesterID,
		Status:      status,
		CreatedAt:   createdAt,
	}
}

// MarshalJSON serializes the request with its creation timestamp in
// CreatedAtLayout under the "created" key.
func (r Request) MarshalJSON() ([]byte, error) {
	type alias Request
	return json.Marshal(struct {
		alias
		Created string `json:"created"`
	}{
		alias:   alias(r),
		Created: r.CreatedAt.Format(CreatedAtLayout),
	})
}

// BatchDecision is the organizer's decision applied to a batch of pending
// requests. Exactly two decisions exist; there is no third outcome.
type BatchDecision string

// Batch decisions, serialized as the target status name.
const (
	DecisionConfirm BatchDecision = "CONFIRMED"
	DecisionReject  BatchDecision = "REJECTED"
)

// Valid reports whether d is a known batch decision.
func (d BatchDecision) Valid() bool {
	return d == DecisionConfirm || d == DecisionReject
}

// BatchResult reports the outcome of a batch decision. Exactly one of the two
// lists is non-empty per successful call.
// swagger:model BatchResult
type BatchResult struct {
	Confirmed []*Request `json:"confirmed_requests"`
	Rejected  []*Request `json:"rejected_requests"`
}

// RequestRepository defines storage operations for participation requests.
//
// The two guarded writes carry the optimistic concurrency check: inside one
// transaction they bump the event's revision only if it still equals
// expectedRevision, and fail with ErrContention otherwise. Every
// capacity-relevant commit therefore invalidates any decision computed
// against an older read of the event.
type RequestRepository interface {
	// CreateGuarded inserts the request after bumping the event's revision.
	// Returns ErrContention if the event's revision no longer equals
	// expectedRevision.
	CreateGuarded(ctx context.Context, req *Request, expectedRevision int64) error
	GetByID(ctx context.Context, id string) (*Request, error)
	// GetActiveByEventAndRequester returns the requester's PENDING or
	// CONFIRMED request for the event, or ErrNotFound.
	GetActiveByEventAndRequester(ctx context.Context, eventID, requesterID string) (*Request, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Request, error)
	ListByRequesterID(ctx context.Context, requesterID string) ([]*Request, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Request, error)
	// CountConfirmedByEventID returns the event's confirmed participant
	// count as a live aggregate over request rows.
	CountConfirmedByEventID(ctx context.Context, eventID string) (int, error)
	UpdateStatus(ctx context.Context, id string, status RequestStatus) (*Request, error)
	// UpdateStatusBatchGuarded moves every listed request of the event from
	// PENDING to status in one transaction, after bumping the event's
	// revision. Returns ErrContention if the revision moved or if any listed
	// request is no longer PENDING; nothing is persisted in that case.
	UpdateStatusBatchGuarded(ctx context.Context, eventID string, expectedRevision int64, ids []string, status RequestStatus) error
	DeleteByEventID(ctx context.Context, eventID string) error
	DeleteByRequesterID(ctx context.Context, requesterID string) error
}

// AdmissionService is the admission-control core: it owns every participation
// request transition and the capacity decisions behind them.
type AdmissionService interface {
	// Submit creates a participation request for the user on the event,
	// auto-resolving it to CONFIRMED when the event does not gate admission.
	Submit(ctx context.Context, userID, eventID string) (*Request, error)
	// Cancel transitions the caller's own request to CANCELED.
	Cancel(ctx context.Context, userID, requestID string) (*Request, error)
	ListForUser(ctx context.Context, userID string) ([]*Request, error)
	ListForOrganizer(ctx context.Context, organizerID, eventID string) ([]*Request, error)
	// ProcessBatch confirms or rejects the named pending requests as a
	// whole: either every request transitions or none does.
	ProcessBatch(ctx context.Context, organizerID, eventID string, requestIDs []string, decision BatchDecision) (*BatchResult, error)
	// PurgeForEvent removes all requests for a deleted event. Called by the
	// event CRUD subsystem.
	PurgeForEvent(ctx context.Context, eventID string) error
	// PurgeForUser removes all requests of a deleted user. Called by the
	// user CRUD subsystem.
	PurgeForUser(ctx context.Context, userID string) error
}
