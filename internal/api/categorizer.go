package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/baharkarakas/autotopup-backend/internal/api/httpx"
	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
	"github.com/baharkarakas/autotopup-backend/internal/categorizer"
	"github.com/baharkarakas/autotopup-backend/internal/metrics"
	"github.com/baharkarakas/autotopup-backend/internal/middleware"
	"github.com/baharkarakas/autotopup-backend/internal/models"
)

// NewCategorizerRouter serves the rule engine over HTTP for the categorizer binary.
func NewCategorizerRouter(engine *categorizer.Engine, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "categorizer"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Post("/categorize", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var req categorizer.Request
		if !httpx.Decode(w, r, &req) {
			metrics.CategorizationRequests.WithLabelValues("", "bad_request").Inc()
			return
		}
		if err := validate.Collect(
			validate.Required("merchant", req.Merchant),
			validate.Required("transaction_type", req.TransactionType),
		); err != nil {
			metrics.CategorizationRequests.WithLabelValues("", "bad_request").Inc()
			log.Warn("bad categorize request", zap.Error(err))
			httpx.Fail(w, r, err)
			return
		}

		category, rule := engine.Classify(categorizer.Input{
			Merchant:    req.Merchant,
			Description: req.Description,
			Amount:      req.Amount,
			Type:        models.TransactionType(req.TransactionType),
		})
		elapsed := time.Since(start)
		metrics.CategorizationRequests.WithLabelValues(category, "ok").Inc()
		metrics.CategorizationDuration.WithLabelValues(category).Observe(elapsed.Seconds())
		log.Info("categorized",
			zap.String("merchant", req.Merchant),
			zap.String("amount", req.Amount.String()),
			zap.String("transaction_type", req.TransactionType),
			zap.String("category", category),
			zap.String("rule", rule),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
		)
		httpx.WriteJSON(w, http.StatusOK, categorizer.Response{Category: category})
	})

	return r
}
