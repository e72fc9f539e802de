package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventticketing/internal/domain"
)

type requestRepository struct {
	DB *sql.DB
}

func NewRequestRepository(db *sql.DB) domain.RequestRepository {
	return &requestRepository{
		DB: db,
	}
}

// bumpRevision performs the optimistic concurrency check inside tx: the
// event's revision advances only if it still equals expectedRevision.
// Returns domain.ErrContention when another transaction committed first.
func bumpRevision(ctx context.Context, tx *sql.Tx, eventID string, expectedRevision int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE events
		SET revision = revision + 1
		WHERE id = $1 AND revision = $2
	`, eventID, expectedRevision)
	if err != nil {
		return fmt.Errorf("bump event revision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrContention
	}
	return nil
}

func (r *requestRepository) CreateGuarded(ctx context.Context, req *domain.Request, expectedRevision int64) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = bumpRevision(ctx, tx, req.EventID, expectedRevision); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO requests (id, event_id, requester_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, req.ID, req.EventID, req.RequesterID, string(req.Status), req.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := `
		SELECT id, event_id, requester_id, status, created_at
		FROM requests
		WHERE id = $1
	`
	req := &domain.Request{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&req.ID, &req.EventID, &req.RequesterID, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) GetActiveByEventAndRequester(ctx context.Context, eventID, requesterID string) (*domain.Request, error) {
	query := `
		SELECT id, event_id, requester_id, status, created_at
		FROM requests
		WHERE event_id = $1 AND requester_id = $2 AND status = ANY($3)
	`
	active := pq.Array([]string{string(domain.StatusPending), string(domain.StatusConfirmed)})
	req := &domain.Request{}
	err := r.DB.QueryRowContext(ctx, query, eventID, requesterID, active).
		Scan(&req.ID, &req.EventID, &req.RequesterID, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Request, error) {
	query := `
		SELECT id, event_id, requester_id, status, created_at
		FROM requests
		WHERE id = ANY($1)
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

func (r *requestRepository) ListByRequesterID(ctx context.Context, requesterID string) ([]*domain.Request, error) {
	query := `
		SELECT id, event_id, requester_id, status, created_at
		FROM requests
		WHERE requester_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

func (r *requestRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Request, error) {
	query := `
		SELECT id, event_id, requester_id, status, created_at
		FROM requests
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

func (r *requestRepository) CountConfirmedByEventID(ctx context.Context, eventID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM requests
		WHERE event_id = $1 AND status = $2
	`
	var count int
	err := r.DB.QueryRowContext(ctx, query, eventID, string(domain.StatusConfirmed)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.Request, error) {
	query := `
		UPDATE requests
		SET status = $2
		WHERE id = $1
		RETURNING id, event_id, requester_id, status, created_at
	`
	req := &domain.Request{}
	err := r.DB.QueryRowContext(ctx, query, id, string(status)).
		Scan(&req.ID, &req.EventID, &req.RequesterID, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) UpdateStatusBatchGuarded(ctx context.Context, eventID string, expectedRevision int64, ids []string, status domain.RequestStatus) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = bumpRevision(ctx, tx, eventID, expectedRevision); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE requests
		SET status = $1
		WHERE event_id = $2 AND id = ANY($3) AND status = $4
	`, string(status), eventID, pq.Array(ids), string(domain.StatusPending))
	if err != nil {
		return fmt.Errorf("update request statuses: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	// A cancel does not bump the event revision, so a request that slipped
	// out of PENDING between the read and this write shows up here instead:
	// the batch is all-or-nothing, so roll everything back.
	if affected != int64(len(ids)) {
		err = domain.ErrContention
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *requestRepository) DeleteByEventID(ctx context.Context, eventID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM requests WHERE event_id = $1`, eventID)
	return err
}

func (r *requestRepository) DeleteByRequesterID(ctx context.Context, requesterID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM requests WHERE requester_id = $1`, requesterID)
	return err
}

func scanRequests(rows *sql.Rows) ([]*domain.Request, error) {
	defer rows.Close()

	var requests []*domain.Request
	for rows.Next() {
		req := &domain.Request{}
		if err := rows.Scan(&req.ID, &req.EventID, &req.RequesterID, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*domain.Request{}
	}
	return requests, nil
}
