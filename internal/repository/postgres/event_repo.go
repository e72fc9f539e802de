package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventticketing/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns the admission core's read path into event
// storage. The event rows themselves belong to the event CRUD subsystem;
// this repository never writes them (the revision bump happens inside the
// request repository's guarded transactions).
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, title, organizer_id, participant_limit, request_moderation, state, revision, created_at
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.OrganizerID, &e.ParticipantLimit,
		&e.RequestModeration, &e.State, &e.Revision, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}
