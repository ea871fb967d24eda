package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	database "github.com/sebuszqo/ExpenseTracker/db"
	"github.com/sebuszqo/ExpenseTracker/internal/auth"
	"github.com/sebuszqo/ExpenseTracker/internal/config"
	"github.com/sebuszqo/ExpenseTracker/internal/events"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/application"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/domain"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/infrastructure"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/interfaces"
	"github.com/sebuszqo/ExpenseTracker/internal/health"
	"github.com/sebuszqo/ExpenseTracker/internal/logger"
	"github.com/sebuszqo/ExpenseTracker/internal/user"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}

	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}

	respondJSON(w, status, payload)
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, "Path not found")
}

type Server struct {
	router         *http.ServeMux
	authHandler    *auth.Handler
	userHandler    *user.Handler
	authService    auth.Service
	expenseHandler *interfaces.ExpenseHandler
	healthChecker  *health.Checker
}

func NewServer(authHandler *auth.Handler, authService auth.Service, userHandler *user.Handler, expenseHandler *interfaces.ExpenseHandler, healthChecker *health.Checker) *Server {
	return &Server{
		authHandler:    authHandler,
		authService:    authService,
		userHandler:    userHandler,
		expenseHandler: expenseHandler,
		healthChecker:  healthChecker,
		router:         http.NewServeMux(),
	}
}

func (s *Server) RegisterRoutes() {
	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("POST /api/auth/register", http.HandlerFunc(s.userHandler.HandleRegister))
	publicRoutes.Handle("POST /api/auth/login", http.HandlerFunc(s.authHandler.HandleLogin))
	publicRoutes.Handle("POST /api/auth/logout", http.HandlerFunc(s.authHandler.HandleLogout))
	publicRoutes.Handle("GET /api/health", http.HandlerFunc(health.HandleHealth))
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.healthChecker.HandleReady))

	// Protected routes, the access token middleware puts the owner id in the context
	protectedRoutes := http.NewServeMux()
	protect := s.authService.JWTAccessTokenMiddleware()
	protectedRoutes.Handle("GET /api/protected/me", protect(http.HandlerFunc(s.authHandler.HandleMe)))
	s.expenseHandler.RegisterRoutes(protectedRoutes, protect)

	// Refresh token routes
	refreshTokenRoutes := http.NewServeMux()
	refreshTokenRoutes.Handle("PUT /api/refresh/token", s.authService.JWTRefreshTokenMiddleware()(http.HandlerFunc(s.authHandler.RefreshAccessToken)))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/api/refresh/", refreshTokenRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

func newPublisher(cfg *config.Config, log zerolog.Logger) (domain.EventPublisher, func(), error) {
	if cfg.AMQPURL == "" {
		log.Info().Msg("AMQP_URL not set, expense notifications disabled")
		return events.NoopPublisher{}, func() {}, nil
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	if err != nil {
		return nil, nil, err
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close AMQP publisher")
		}
	}, nil
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	if !cfg.EnvFileLoaded {
		log.Info().Msg("no .env file loaded, continuing with system environment variables")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("missing configuration, update to start server")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbService, err := database.NewDBService(ctx, database.Options{
		ConnectionString: cfg.DBConnectionString,
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetime:  cfg.DBConnMaxLifetime,
	}, log)
	if err != nil {
		return err
	}
	defer dbService.Close()

	if err := database.RunMigrations(dbService.DB); err != nil {
		return err
	}
	log.Info().Msg("database migrations applied")

	publisher, closePublisher, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	userRepo := user.NewUserRepository(dbService.DB)
	userService := user.NewUserService(userRepo)
	userHandler := user.NewHandler(userService, respondJSON, respondError)
	authService := auth.NewAuthService(userService, jwtManager)
	authHandler := auth.NewHandler(authService, userService, cfg.SecureCookies, respondJSON, respondError)

	expenseRepo := infrastructure.NewExpenseRepository(dbService.DB)
	resolver := domain.NewFilterResolver(cfg.DefaultPageSize, cfg.MaxPageSize)
	expenseService := application.NewExpenseService(expenseRepo, resolver, publisher)
	expenseHandler := interfaces.NewExpenseHandler(expenseService, respondJSON, respondError)

	healthChecker := health.NewChecker(dbService, log)
	if err := healthChecker.Start(cfg.HealthCheckSchedule); err != nil {
		return err
	}
	defer healthChecker.Stop()

	server := NewServer(authHandler, authService, userHandler, expenseHandler, healthChecker)
	server.RegisterRoutes()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           logger.Middleware(log)(server.router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
