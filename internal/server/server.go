package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coursekit/apiserver/config"
	"github.com/coursekit/apiserver/internal/db"
	"github.com/coursekit/apiserver/internal/handlers"
	"github.com/coursekit/apiserver/internal/mq"
	"github.com/coursekit/apiserver/internal/services"
	"github.com/coursekit/apiserver/internal/storage"
	"github.com/coursekit/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sqlx.DB
	mq         *mq.MQ
	logger     *zap.Logger
}

// New opens the database, runs idempotent schema setup, and wires stores,
// services, and routes.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, dbConn); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	objectStore, err := storage.New(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if objectStore != nil {
		if err := objectStore.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	broker, err := mq.New(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	sessionRepo := store.NewSessionRepository(dbConn)
	lessonRepo := store.NewLessonRepository(dbConn)
	courseRepo := store.NewCourseRepository(dbConn)

	authService := services.NewAuthService(userRepo, sessionRepo)
	uploadService := services.NewUploadService(objectStore, cfg.PublicURL)

	var remover services.ObjectRemover
	if uploadService.Enabled() {
		remover = uploadService
	}
	contentService := services.NewContentService(lessonRepo, courseRepo, remover)
	events := services.NewEventPublisher(broker, logger)

	authHandler := handlers.NewAuthHandler(authService, events, cfg.Auth.AdminEmails, cfg.IsProduction())
	lessonHandler := handlers.NewLessonHandler(contentService, events)
	uploadHandler := handlers.NewUploadHandler(uploadService, contentService)
	adminHandler := handlers.NewAdminHandler(authService)

	requireSession := authHandler.RequireSession
	requireAdmin := authHandler.RequireAdmin

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Route("/courses", func(r chi.Router) {
		handlers.LessonRouter(r, lessonHandler, requireSession, requireAdmin)
		r.With(requireSession, requireAdmin).Post("/{courseID}/thumbnail", uploadHandler.UploadThumbnail)
	})
	router.Route("/uploads", func(r chi.Router) {
		handlers.UploadRouter(r, uploadHandler, requireSession, requireAdmin)
	})
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminRouter(r, adminHandler, requireSession, requireAdmin)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server configured",
		zap.Int("port", port),
		zap.String("db_driver", dbConn.DriverName()),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("mq_backend", cfg.MQ.Backend),
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mq:         broker,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown closes the server and its resources.
func (s *Server) Shutdown() error {
	if s.mq != nil {
		_ = s.mq.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
