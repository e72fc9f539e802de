package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventticketing/config"
	"eventticketing/internal/adapters/auth"
	delivery "eventticketing/internal/delivery/http"
	"eventticketing/internal/delivery/http/controllers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/repository/postgres"
	"eventticketing/internal/services"
)

const serviceTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	requestRepo := postgres.NewRequestRepository(db)

	admissionService := services.NewAdmissionService(userRepo, eventRepo, requestRepo, serviceTimeout)
	requestController := controllers.NewRequestController(logger, admissionService)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	mux := delivery.NewRouter(requestController, verifier, logger)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.CORS(cfg.AllowedOrigins, handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("server stopped")
}
