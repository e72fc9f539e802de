package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

const (
	testEventID   = "11111111-1111-1111-1111-111111111111"
	testRequestID = "22222222-2222-2222-2222-222222222222"
)

type mockAdmissionService struct {
	request *domain.Request
	result  *domain.BatchResult
	err     error
}

func (m *mockAdmissionService) Submit(ctx context.Context, userID, eventID string) (*domain.Request, error) {
	return m.request, m.err
}

func (m *mockAdmissionService) Cancel(ctx context.Context, userID, requestID string) (*domain.Request, error) {
	return m.request, m.err
}

func (m *mockAdmissionService) ListForUser(ctx context.Context, userID string) ([]*domain.Request, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.Request{m.request}, nil
}

func (m *mockAdmissionService) ListForOrganizer(ctx context.Context, organizerID, eventID string) ([]*domain.Request, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.Request{m.request}, nil
}

func (m *mockAdmissionService) ProcessBatch(ctx context.Context, organizerID, eventID string, requestIDs []string, decision domain.BatchDecision) (*domain.BatchResult, error) {
	return m.result, m.err
}

func (m *mockAdmissionService) PurgeForEvent(ctx context.Context, eventID string) error { return nil }
func (m *mockAdmissionService) PurgeForUser(ctx context.Context, userID string) error   { return nil }

func testController(svc domain.AdmissionService) *RequestController {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRequestController(logger, svc)
}

func authedRequest(method, target, userID, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

func TestRequestController_Submit(t *testing.T) {
	tests := []struct {
		name       string
		eventID    string
		userID     string
		svc        *mockAdmissionService
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid event id",
			eventID:    "not-a-uuid",
			userID:     "u1",
			svc:        &mockAdmissionService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "unauthorized",
			eventID:    testEventID,
			userID:     "",
			svc:        &mockAdmissionService{},
			wantStatus: http.StatusUnauthorized,
			wantCode:   helpers.ErrCodeUnauthorized,
		},
		{
			name:    "success",
			eventID: testEventID,
			userID:  "u1",
			svc: &mockAdmissionService{
				request: &domain.Request{ID: testRequestID, EventID: testEventID, RequesterID: "u1", Status: domain.StatusPending},
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "event not found",
			eventID:    testEventID,
			userID:     "u1",
			svc:        &mockAdmissionService{err: domain.ErrNotFound},
			wantStatus: http.StatusNotFound,
			wantCode:   helpers.ErrCodeNotFound,
		},
		{
			name:       "business rule violation",
			eventID:    testEventID,
			userID:     "u1",
			svc:        &mockAdmissionService{err: fmt.Errorf("participant limit reached: %w", domain.ErrForbidden)},
			wantStatus: http.StatusForbidden,
			wantCode:   helpers.ErrCodeForbidden,
		},
		{
			name:       "contention maps to conflict",
			eventID:    testEventID,
			userID:     "u1",
			svc:        &mockAdmissionService{err: domain.ErrContention},
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := testController(tt.svc)
			req := authedRequest(http.MethodPost, "/events/"+tt.eventID+"/requests", tt.userID, "")
			req.SetPathValue("eventID", tt.eventID)
			w := httptest.NewRecorder()

			ctrl.Submit(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var resp helpers.APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if tt.wantCode != "" {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Fatalf("expected error code %q, got %+v", tt.wantCode, resp.Error)
				}
				return
			}
			if resp.Error != nil {
				t.Fatalf("expected no error, got %+v", resp.Error)
			}
		})
	}
}

func TestRequestController_Submit_SerializesCreatedAt(t *testing.T) {
	svc := &mockAdmissionService{
		request: domain.NewRequest(testEventID, "u1", domain.StatusPending, mustParseCreated(t, "2025-06-01 12:30:00")),
	}
	ctrl := testController(svc)
	req := authedRequest(http.MethodPost, "/events/"+testEventID+"/requests", "u1", "")
	req.SetPathValue("eventID", testEventID)
	w := httptest.NewRecorder()

	ctrl.Submit(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"created":"2025-06-01 12:30:00"`) {
		t.Fatalf("expected fixed-format created timestamp, got %s", body)
	}
	if !strings.Contains(body, `"status":"PENDING"`) {
		t.Fatalf("expected status serialized by name, got %s", body)
	}
}

func mustParseCreated(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(domain.CreatedAtLayout, s)
	if err != nil {
		t.Fatalf("parse created: %v", err)
	}
	return v
}

func TestRequestController_Cancel(t *testing.T) {
	tests := []struct {
		name       string
		requestID  string
		userID     string
		svc        *mockAdmissionService
		wantStatus int
	}{
		{
			name:       "invalid request id",
			requestID:  "nope",
			userID:     "u1",
			svc:        &mockAdmissionService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unauthorized",
			requestID:  testRequestID,
			userID:     "",
			svc:        &mockAdmissionService{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:      "success",
			requestID: testRequestID,
			userID:    "u1",
			svc: &mockAdmissionService{
				request: &domain.Request{ID: testRequestID, RequesterID: "u1", Status: domain.StatusCanceled},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not the requester",
			requestID:  testRequestID,
			userID:     "u2",
			svc:        &mockAdmissionService{err: fmt.Errorf("only the requester may cancel: %w", domain.ErrForbidden)},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := testController(tt.svc)
			req := authedRequest(http.MethodPatch, "/requests/"+tt.requestID+"/cancel", tt.userID, "")
			req.SetPathValue("requestID", tt.requestID)
			w := httptest.NewRecorder()

			ctrl.Cancel(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRequestController_ProcessBatch(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *mockAdmissionService
		wantStatus int
	}{
		{
			name:       "malformed body",
			body:       `{"request_ids": "oops"}`,
			svc:        &mockAdmissionService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown status",
			body:       `{"request_ids": ["` + testRequestID + `"], "status": "MAYBE"}`,
			svc:        &mockAdmissionService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-uuid request id",
			body:       `{"request_ids": ["abc"], "status": "CONFIRMED"}`,
			svc:        &mockAdmissionService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "confirm success",
			body: `{"request_ids": ["` + testRequestID + `"], "status": "CONFIRMED"}`,
			svc: &mockAdmissionService{
				result: &domain.BatchResult{
					Confirmed: []*domain.Request{{ID: testRequestID, Status: domain.StatusConfirmed}},
					Rejected:  []*domain.Request{},
				},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "limit exceeded",
			body:       `{"request_ids": ["` + testRequestID + `"], "status": "CONFIRMED"}`,
			svc:        &mockAdmissionService{err: fmt.Errorf("exceeded participant limit: %w", domain.ErrForbidden)},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "not the organizer",
			body:       `{"request_ids": ["` + testRequestID + `"], "status": "REJECTED"}`,
			svc:        &mockAdmissionService{err: domain.ErrNotFound},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := testController(tt.svc)
			req := authedRequest(http.MethodPatch, "/events/"+testEventID+"/requests", "org", tt.body)
			req.SetPathValue("eventID", testEventID)
			w := httptest.NewRecorder()

			ctrl.ProcessBatch(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRequestController_ListMine(t *testing.T) {
	svc := &mockAdmissionService{
		request: &domain.Request{ID: testRequestID, RequesterID: "u1", Status: domain.StatusPending},
	}
	ctrl := testController(svc)

	req := authedRequest(http.MethodGet, "/users/me/requests", "u1", "")
	w := httptest.NewRecorder()
	ctrl.ListMine(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req = authedRequest(http.MethodGet, "/users/me/requests", "", "")
	w = httptest.NewRecorder()
	ctrl.ListMine(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequestController_ListForEvent(t *testing.T) {
	svc := &mockAdmissionService{
		request: &domain.Request{ID: testRequestID, EventID: testEventID, Status: domain.StatusPending},
	}
	ctrl := testController(svc)

	req := authedRequest(http.MethodGet, "/events/"+testEventID+"/requests", "org", "")
	req.SetPathValue("eventID", testEventID)
	w := httptest.NewRecorder()
	ctrl.ListForEvent(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	svc.err = domain.ErrNotFound
	req = authedRequest(http.MethodGet, "/events/"+testEventID+"/requests", "intruder", "")
	req.SetPathValue("eventID", testEventID)
	w = httptest.NewRecorder()
	ctrl.ListForEvent(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
