package services

import (
	"context"
	"errors"
	"fmt"

	"eventticketing/internal/domain"
)

// ProcessBatch applies one organizer decision to a set of pending requests.
// The batch is all-or-nothing: a single request that cannot legally
// transition, or a confirm that would exceed the participant limit, fails the
// whole batch with nothing persisted. It never partially fills.
func (s *admissionService) ProcessBatch(ctx context.Context, organizerID, eventID string, requestIDs []string, decision domain.BatchDecision) (*domain.BatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !decision.Valid() {
		return nil, fmt.Errorf("unknown decision %q: %w", decision, domain.ErrInvalidInput)
	}

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		// Same error as a missing event so non-owners cannot probe existence.
		if event.OrganizerID != organizerID {
			return nil, domain.ErrNotFound
		}

		result := &domain.BatchResult{
			Confirmed: []*domain.Request{},
			Rejected:  []*domain.Request{},
		}
		// Nothing to gate: no requests named, unlimited capacity, or every
		// request already auto-confirmed at submission time.
		if len(requestIDs) == 0 || event.Unlimited() || !event.RequestModeration {
			return result, nil
		}

		requests, err := s.requestRepo.ListByIDs(ctx, requestIDs)
		if err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		if len(requests) != len(requestIDs) {
			return nil, fmt.Errorf("not all requests were found: %w", domain.ErrNotFound)
		}
		for _, req := range requests {
			if req.EventID != event.ID {
				return nil, fmt.Errorf("request does not belong to this event: %w", domain.ErrForbidden)
			}
			if req.Status != domain.StatusPending {
				return nil, fmt.Errorf("cannot modify a resolved request: %w", domain.ErrForbidden)
			}
		}

		target := domain.StatusRejected
		if decision == domain.DecisionConfirm {
			target = domain.StatusConfirmed
			confirmed, err := s.requestRepo.CountConfirmedByEventID(ctx, eventID)
			if err != nil {
				return nil, fmt.Errorf("count confirmed requests: %w", err)
			}
			if confirmed+len(requestIDs) > event.ParticipantLimit {
				return nil, fmt.Errorf("exceeded participant limit: %w", domain.ErrForbidden)
			}
		}

		err = s.requestRepo.UpdateStatusBatchGuarded(ctx, eventID, event.Revision, requestIDs, target)
		if err != nil {
			if errors.Is(err, domain.ErrContention) {
				// A concurrent admission or cancel moved the event or one of
				// the requests under us. Re-read and revalidate.
				continue
			}
			return nil, fmt.Errorf("update request statuses: %w", err)
		}

		for _, req := range requests {
			req.Status = target
		}
		if target == domain.StatusConfirmed {
			result.Confirmed = requests
		} else {
			result.Rejected = requests
		}
		return result, nil
	}
	return nil, domain.ErrContention
}
