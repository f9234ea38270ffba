package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tunevault/config"
	"tunevault/core/auth"
	"tunevault/core/media"
	"tunevault/db"
	"tunevault/logger"
	"tunevault/model"
	"tunevault/repository"
	"tunevault/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until SIGINT or
// SIGTERM.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET environment variable is required")
	}
	auth.Configure(cfg.JWTSecret, time.Duration(cfg.JWTExpiresMinutes)*time.Minute)

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	// GORM owns the schema; the repositories keep running raw SQL on db.DB.
	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(&model.User{}, &model.Song{}); err != nil {
		logger.Fatal("failed to migrate schema", logger.ErrorField(err))
	}

	mediaRoot := cfg.MediaRoot()
	ensureDirExists(mediaRoot)
	logger.Info("media root resolved",
		logger.String("mediaRoot", mediaRoot),
		logger.String("backendRoot", cfg.BackendRoot))

	watcher, err := media.WatchMediaRoot(mediaRoot)
	if err != nil {
		// Diagnostics only; the server works without it.
		logger.Warn("media watcher unavailable", logger.ErrorField(err))
	} else {
		defer watcher.Close()
	}

	var covers *storage.CoverStore
	if cfg.MinioEnabled() {
		covers, err = storage.NewCoverStore(cfg)
		if err != nil {
			logger.Fatal("failed to initialize cover storage", logger.ErrorField(err))
		}
	} else {
		logger.Info("cover storage disabled, MINIO_ENDPOINT not set")
	}

	songRepo := repository.NewMySQLSongRepository(db.DB)
	userRepo := repository.NewMySQLUserRepository(db.DB)
	resolver := media.NewResolver(mediaRoot, cfg.BackendRoot)

	apiHandler := NewAPIHandler(songRepo, userRepo, resolver, covers, cfg)
	router := NewRouter(apiHandler, cfg)

	server := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: a range stream of a large file legitimately
		// outlives any fixed deadline; slow clients are bounded by
		// IdleTimeout between requests instead.
		IdleTimeout: 120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}

// NewRouter wires all routes and middleware. Split out from Start so tests
// can exercise the full routing table.
func NewRouter(apiHandler *APIHandler, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware(cfg.CORSAllowOrigins))

	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/songs", apiHandler.ListSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/upload", apiHandler.UploadSongHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}", apiHandler.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteSongHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/songs/{id}/stream", apiHandler.StreamSongHandler).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/api/songs/{id}/cover", apiHandler.AuthMiddleware(apiHandler.UploadCoverHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/covers/{key:.+}", apiHandler.ServeCoverHandler).Methods(http.MethodGet)

	return router
}

func corsMiddleware(allowOrigins string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("creating directory", logger.String("path", path))
		if err := os.MkdirAll(path, 0755); err != nil {
			logger.Fatal("failed to create directory", logger.String("path", path), logger.ErrorField(err))
		}
	} else if err != nil {
		logger.Fatal("failed to check directory", logger.String("path", path), logger.ErrorField(err))
	}
}
