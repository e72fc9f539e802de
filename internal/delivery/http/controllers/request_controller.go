package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// RequestController handles participation-request endpoints.
type RequestController struct {
	Logger  *slog.Logger
	Service domain.AdmissionService
}

func NewRequestController(logger *slog.Logger, svc domain.AdmissionService) *RequestController {
	return &RequestController{
		Logger:  logger,
		Service: svc,
	}
}

// writeAdmissionError maps admission-core errors onto HTTP statuses with the
// standardized envelope. Business-rule violations map to 403, contention to
// 409 so clients know a retry may succeed.
func (c *RequestController) writeAdmissionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrContention):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "concurrent update, retry the request")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}

// SubmitSuccessResponse is the success envelope for POST /events/{eventID}/requests.
type SubmitSuccessResponse struct {
	Data  *domain.Request   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Submit godoc
// @Summary Submit a participation request for an event
// @Description Creates a participation request for the authenticated user. The request auto-confirms when the event has no participant limit or does not moderate requests.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} controllers.SubmitSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/requests [post]
func (c *RequestController) Submit(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	req, err := c.Service.Submit(r.Context(), userID, eventID)
	if err != nil {
		c.writeAdmissionError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, req)
}

// Cancel godoc
// @Summary Cancel the caller's own participation request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param requestID path string true "Request ID (UUID)"
// @Success 200 {object} controllers.SubmitSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /requests/{requestID}/cancel [patch]
func (c *RequestController) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("requestID")
	if !uuidRegex.MatchString(requestID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid requestID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	req, err := c.Service.Cancel(r.Context(), userID, requestID)
	if err != nil {
		c.writeAdmissionError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, req)
}

// ListRequestsSuccessResponse is the success envelope for the request list endpoints.
type ListRequestsSuccessResponse struct {
	Data  []*domain.Request `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListMine godoc
// @Summary List the caller's participation requests
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListRequestsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/me/requests [get]
func (c *RequestController) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	requests, err := c.Service.ListForUser(r.Context(), userID)
	if err != nil {
		c.writeAdmissionError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, requests)
}

// ListForEvent godoc
// @Summary List participation requests for an event the caller organizes
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListRequestsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/requests [get]
func (c *RequestController) ListForEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	requests, err := c.Service.ListForOrganizer(r.Context(), userID, eventID)
	if err != nil {
		c.writeAdmissionError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, requests)
}

// ProcessBatchRequest is the request body for PATCH /events/{eventID}/requests.
type ProcessBatchRequest struct {
	RequestIDs []string `json:"request_ids"`
	Status     string   `json:"status"`
}

// Validate implements helpers.Validator.
func (r *ProcessBatchRequest) Validate() []string {
	var errs []string
	if !domain.BatchDecision(r.Status).Valid() {
		errs = append(errs, "status must be CONFIRMED or REJECTED")
	}
	for _, id := range r.RequestIDs {
		if !uuidRegex.MatchString(id) {
			errs = append(errs, "request_ids must contain only UUIDs")
			break
		}
	}
	return errs
}

// ProcessBatchSuccessResponse is the success envelope for PATCH /events/{eventID}/requests.
type ProcessBatchSuccessResponse struct {
	Data  *domain.BatchResult `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// ProcessBatch godoc
// @Summary Confirm or reject a batch of pending requests
// @Description Applies one decision to every named request, all-or-nothing: if any request cannot transition or a confirm would exceed the participant limit, nothing changes.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.ProcessBatchRequest true "Decision and request IDs"
// @Success 200 {object} controllers.ProcessBatchSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/requests [patch]
func (c *RequestController) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var body ProcessBatchRequest
	if !helpers.DecodeAndValidate(w, r, &body) {
		return
	}

	result, err := c.Service.ProcessBatch(r.Context(), userID, eventID, body.RequestIDs, domain.BatchDecision(body.Status))
	if err != nil {
		c.writeAdmissionError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
