package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Every admission endpoint requires a valid bearer token.
func NewRouter(requestController *controllers.RequestController, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Participation requests
	mux.HandleFunc("POST /events/{eventID}/requests", auth(requestController.Submit))
	mux.HandleFunc("GET /events/{eventID}/requests", auth(requestController.ListForEvent))
	mux.HandleFunc("PATCH /events/{eventID}/requests", auth(requestController.ProcessBatch))
	mux.HandleFunc("PATCH /requests/{requestID}/cancel", auth(requestController.Cancel))
	mux.HandleFunc("GET /users/me/requests", auth(requestController.ListMine))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
