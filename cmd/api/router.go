package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crumley/taskdeck/internal/config"
	"github.com/crumley/taskdeck/internal/handlers"
	"github.com/crumley/taskdeck/internal/middleware"
	"github.com/crumley/taskdeck/internal/repo"
	"github.com/crumley/taskdeck/internal/upload"
)

// newRouter wires repos, handlers, and the middleware chain into the API router.
func newRouter(db *sql.DB, uploads *upload.Store, cfg config.Config) http.Handler {
	userRepo := repo.NewUserRepo(db)
	taskRepo := repo.NewTaskRepo(db)

	authHandler := &handlers.AuthHandler{
		UserRepo: userRepo,
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: time.Duration(cfg.JWTExpireMinutes) * time.Minute,
	}
	taskHandler := &handlers.TaskHandler{
		Repo:    taskRepo,
		Uploads: uploads,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.Prometheus)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("taskdeck API is running"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			handlers.JSONError(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Uploaded images are public read-only files.
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploads.Dir())))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	// Auth routes: rate limited per IP, small bodies only.
	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Task routes: bearer token required.
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth([]byte(cfg.JWTSecret)))
		r.With(middleware.MaxBytes(cfg.MaxUploadBytes)).Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Put("/tasks/{id}", taskHandler.ToggleTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
	})

	return r
}
