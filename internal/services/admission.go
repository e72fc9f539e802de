package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventticketing/internal/domain"
)

// maxCommitAttempts bounds the retry loop around the optimistic guard. A
// detected conflict re-reads the event and re-runs every check before the
// next attempt; once the attempts are exhausted the contention surfaces to
// the caller, who may retry the whole operation.
const maxCommitAttempts = 3

type admissionService struct {
	userRepo       domain.UserRepository
	eventRepo      domain.EventRepository
	requestRepo    domain.RequestRepository
	contextTimeout time.Duration
}

// NewAdmissionService creates an AdmissionService with the given repositories.
func NewAdmissionService(
	userRepo domain.UserRepository,
	eventRepo domain.EventRepository,
	requestRepo domain.RequestRepository,
	timeout time.Duration,
) domain.AdmissionService {
	return &admissionService{
		userRepo:       userRepo,
		eventRepo:      eventRepo,
		requestRepo:    requestRepo,
		contextTimeout: timeout,
	}
}

func (s *admissionService) Submit(ctx context.Context, userID, eventID string) (*domain.Request, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		if event.State != domain.EventStatePublished {
			return nil, fmt.Errorf("cannot request an unpublished event: %w", domain.ErrForbidden)
		}
		if event.OrganizerID == userID {
			return nil, fmt.Errorf("organizer cannot request own event: %w", domain.ErrForbidden)
		}

		if _, err := s.requestRepo.GetActiveByEventAndRequester(ctx, eventID, userID); err == nil {
			return nil, fmt.Errorf("duplicate request: %w", domain.ErrForbidden)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get active request: %w", err)
		}

		if !event.Unlimited() {
			confirmed, err := s.requestRepo.CountConfirmedByEventID(ctx, eventID)
			if err != nil {
				return nil, fmt.Errorf("count confirmed requests: %w", err)
			}
			if confirmed+1 > event.ParticipantLimit {
				return nil, fmt.Errorf("participant limit reached: %w", domain.ErrForbidden)
			}
		}

		req := domain.NewRequest(eventID, userID, domain.InitialStatus(event), time.Now())
		err = s.requestRepo.CreateGuarded(ctx, req, event.Revision)
		if err == nil {
			return req, nil
		}
		if errors.Is(err, domain.ErrContention) {
			// Another admission committed against this event between our
			// read and write. Re-read and recompute the decision.
			continue
		}
		return nil, fmt.Errorf("create request: %w", err)
	}
	return nil, domain.ErrContention
}

func (s *admissionService) Cancel(ctx context.Context, userID, requestID string) (*domain.Request, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req.RequesterID != userID {
		return nil, fmt.Errorf("only the requester may cancel: %w", domain.ErrForbidden)
	}
	if !req.Status.Cancelable() {
		return nil, fmt.Errorf("cannot cancel a resolved request: %w", domain.ErrForbidden)
	}

	// Canceling only frees capacity, so this write needs no guard and does
	// not bump the event's revision.
	updated, err := s.requestRepo.UpdateStatus(ctx, requestID, domain.StatusCanceled)
	if err != nil {
		return nil, fmt.Errorf("update request status: %w", err)
	}
	return updated, nil
}

func (s *admissionService) ListForUser(ctx context.Context, userID string) ([]*domain.Request, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	requests, err := s.requestRepo.ListByRequesterID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if requests == nil {
		requests = []*domain.Request{}
	}
	return requests, nil
}

func (s *admissionService) ListForOrganizer(ctx context.Context, organizerID, eventID string) ([]*domain.Request, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

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
	requests, err := s.requestRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if requests == nil {
		requests = []*domain.Request{}
	}
	return requests, nil
}

func (s *admissionService) PurgeForEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requestRepo.DeleteByEventID(ctx, eventID); err != nil {
		return fmt.Errorf("delete requests by event: %w", err)
	}
	return nil
}

func (s *admissionService) PurgeForUser(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requestRepo.DeleteByRequesterID(ctx, userID); err != nil {
		return fmt.Errorf("delete requests by requester: %w", err)
	}
	return nil
}
