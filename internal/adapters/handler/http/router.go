package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

type RouterConfig struct {
	Auth           *Authenticator
	Users          *UserHandler
	Voting         *VotingHandler
	Stream         *StreamHandler
	AllowedOrigins []string
	Log            *slog.Logger
}

func NewHandler(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&accessLogFormatter{log: log}))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{noticeHeader},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(cfg.Auth.RequireRole("")).Get("/me", cfg.Users.GetMe)

		r.Route("/student", func(r chi.Router) {
			r.Use(cfg.Auth.RequireRole(domain.RoleStudent))
			r.Get("/dashboard", cfg.Voting.GetDashboard)
			r.Post("/topics/{id}/votes", cfg.Voting.CastVote)
			if cfg.Stream != nil {
				r.Get("/ws", cfg.Stream.Serve)
			}
		})

		r.Route("/coordinator", func(r chi.Router) {
			r.Use(cfg.Auth.RequireRole(domain.RoleCoordinator))
			r.Get("/dashboard", cfg.Voting.GetDashboard)
			r.Post("/bus-requests", cfg.Voting.RequestNewBus)
			r.Post("/topics/{id}/approve", cfg.Voting.ApproveRequest)
			r.Post("/topics/{id}/reject", cfg.Voting.RejectRequest)
		})

		r.Route("/driver", func(r chi.Router) {
			r.Use(cfg.Auth.RequireRole(domain.RoleDriver))
			r.Get("/dashboard", cfg.Voting.GetDashboard)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(cfg.Auth.RequireRole(domain.RoleAdmin))
			r.Get("/dashboard", cfg.Voting.GetDashboard)
		})
	})

	return r
}
