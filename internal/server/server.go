// Package server exposes the metered HTTP API over the parliamentary data
// store: open data endpoints behind tiered rate limiting, authenticated
// account and billing endpoints, and the provider webhook.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/auth"
	"github.com/BradleyExton/canpoli-api/internal/billing"
	"github.com/BradleyExton/canpoli-api/internal/config"
	"github.com/BradleyExton/canpoli-api/internal/counter"
	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Config captures the dependencies required to construct the server.
type Config struct {
	DB       *gorm.DB
	Store    counter.Store
	Cfg      *config.Config
	Verifier *auth.Verifier
	Provider billing.Provider
	Log      *slog.Logger
	Now      func() time.Time
}

// Server encapsulates dependencies for the HTTP API.
type Server struct {
	DB         *gorm.DB
	Store      counter.Store
	Cfg        *config.Config
	Verifier   *auth.Verifier
	Provider   billing.Provider
	Reconciler *billing.Reconciler
	Log        *slog.Logger
	Now        func() time.Time

	router http.Handler
}

// New constructs a configured HTTP router.
func New(cfg Config) *Server {
	srv := &Server{
		DB:       cfg.DB,
		Store:    cfg.Store,
		Cfg:      cfg.Cfg,
		Verifier: cfg.Verifier,
		Provider: cfg.Provider,
		Log:      cfg.Log,
		Now:      cfg.Now,
	}
	if srv.Log == nil {
		srv.Log = slog.Default()
	}
	if srv.Now == nil {
		srv.Now = time.Now
	}
	if srv.Provider != nil {
		srv.Reconciler = billing.NewReconciler(srv.DB, srv.Store, srv.Provider, srv.Cfg.APIKeyHMACSecret, srv.Log)
	}
	srv.router = srv.buildRouter()
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.cors)
	r.Use(s.requestMetrics)

	// Outside access control: health, metrics, and the billing webhook.
	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/billing/webhook", s.BillingWebhook)
	r.Post("/v1/billing/webhook", s.BillingWebhook)

	// Account and billing endpoints require a bearer token.
	r.Group(func(account chi.Router) {
		account.Use(s.requireUser)
		account.Get("/v1/account/api-key", s.GetApiKey)
		account.Post("/v1/account/api-key/rotate", s.RotateApiKey)
		account.Get("/v1/account/usage", s.GetUsage)
		account.Post("/v1/billing/checkout", s.CreateCheckout)
		account.Post("/v1/billing/portal", s.CreatePortal)
	})

	// Data endpoints sit behind the tier gate and the usage meter.
	r.Group(func(data chi.Router) {
		data.Use(s.accessControl)
		data.Use(s.usageMetering)

		data.Get("/representatives", s.ListRepresentatives)
		data.Get("/representatives/lookup", s.LookupRepresentative)
		data.Get("/representatives/{hocID}", s.GetRepresentative)
		data.Get("/representatives/{hocID}/roles", s.ListRoles)
		data.Get("/ridings", s.ListRidings)
		data.Get("/ridings/{id}", s.GetRiding)
		data.Get("/parties", s.ListParties)
		data.Get("/party-standings", s.ListStandings)
		data.Get("/bills", s.ListBills)
		data.Get("/votes", s.ListVotes)
		data.Get("/votes/{id}", s.GetVote)
		data.Get("/petitions", s.ListPetitions)
		data.Get("/debates", s.ListDebates)
		data.Get("/debates/{id}", s.GetDebate)
		data.Get("/expenditures/members", s.ListMemberExpenditures)
		data.Get("/expenditures/house-officers", s.ListOfficerExpenditures)
	})

	return r
}

const contextKeyUser contextKey = "user"

// requireUser verifies the bearer token and attaches the resolved user.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Verifier == nil {
			respondDetail(w, http.StatusInternalServerError, "Authentication is not configured")
			return
		}
		header := r.Header.Get("Authorization")
		if header == "" || !hasBearer(header) {
			respondDetail(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		claims, err := s.Verifier.Verify(bearerToken(header))
		if err != nil {
			respondDetail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		user, err := auth.ResolveUser(r.Context(), s.DB, claims)
		if err != nil {
			s.Log.Error("failed to resolve user", "error", err.Error())
			respondDetail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func hasBearer(header string) bool {
	return len(header) > 7 && header[:7] == "Bearer " && header[7:] != ""
}

func bearerToken(header string) string {
	return header[7:]
}

func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(contextKeyUser).(*models.User)
	return user
}

// Health probes the database without leaking internal error detail.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if err := s.DB.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
		s.Log.Error("health check database error", "error", err.Error())
		dbStatus = "error"
	}
	status := "ok"
	if dbStatus != "ok" {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": status, "database": dbStatus})
}
