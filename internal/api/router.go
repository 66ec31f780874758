package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/autotopup-backend/internal/api/handlers"
	"github.com/baharkarakas/autotopup-backend/internal/api/httpx"
	"github.com/baharkarakas/autotopup-backend/internal/auth"
	"github.com/baharkarakas/autotopup-backend/internal/metrics"
	"github.com/baharkarakas/autotopup-backend/internal/middleware"
	"github.com/baharkarakas/autotopup-backend/internal/services"
)

type RouterDeps struct {
	RateRPS int
	Svc     *services.Services
	Tokens  *auth.TokenManager
	Log     *slog.Logger
	// KafkaMetrics, when set, is served at /metrics/kafka.
	KafkaMetrics http.Handler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.Logger(d.Log), middleware.RateLimit(d.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "api"})
	})
	r.Handle("/metrics", metrics.Handler())
	if d.KafkaMetrics != nil {
		r.Handle("/metrics/kafka", d.KafkaMetrics)
	}

	accounts := &handlers.AccountHandler{Svc: d.Svc.Accounts}
	txns := &handlers.TransactionHandler{Svc: d.Svc.Transactions}
	topups := &handlers.TopUpHandler{Svc: d.Svc.TopUps}
	authH := &handlers.AuthHandler{Users: d.Svc.Users, Accounts: d.Svc.Accounts}

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", accounts.List)
		r.Post("/", accounts.Create)
		r.Get("/{id}", accounts.Get)
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", txns.List)
		r.Post("/", txns.Create)
		r.Get("/{id}", txns.Get)
	})

	r.Route("/topup-rules", func(r chi.Router) {
		r.Get("/", topups.ListRules)
		r.Post("/", topups.CreateRule)
		r.Patch("/{id}", topups.PatchRule)
	})
	r.Get("/topup-events", topups.ListEvents)
	r.Post("/trigger-topup", topups.Trigger)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authH.Signup)
		r.Post("/login", authH.Login)
		r.Post("/refresh", authH.Refresh)
	})
	r.With(middleware.NewAuthMiddleware(d.Tokens).Auth).Get("/me/accounts", authH.MyAccounts)

	return r
}
