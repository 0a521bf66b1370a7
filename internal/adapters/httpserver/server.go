// Package httpserver exposes the entitlement service over a small JSON API.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bnema/syntrafit-entitlements/internal/adapters/render/status"
	"github.com/bnema/syntrafit-entitlements/internal/application"
	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

// Service is the part of application.Service the API calls.
type Service interface {
	Status() domain.Status
	Validate(ctx context.Context) domain.Status
	CheckAccess(ctx context.Context, feature string) bool
	Purchase(ctx context.Context, plan domain.PlanID) (domain.PurchaseOutcome, error)
	Restore(ctx context.Context) (domain.RestoreOutcome, error)
	Price(ctx context.Context, plan domain.PlanID) string
	Policy() application.AccessPolicy
}

var _ Service = (*application.Service)(nil)

type Options struct {
	Gatherer prometheus.Gatherer
	Clock    ports.Clock
	Logger   zerolog.Logger
}

type handler struct {
	service Service
	clock   ports.Clock
	logger  zerolog.Logger
}

func NewRouter(service Service, opts Options) chi.Router {
	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	h := &handler{
		service: service,
		clock:   clock,
		logger:  opts.Logger.With().Str("component", "http").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Get("/access/{feature}", h.access)
		r.Post("/purchase/{plan}", h.purchase)
		r.Post("/restore", h.restore)
		r.Get("/price/{plan}", h.price)
	})

	return r
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	current := h.service.Status()
	if r.URL.Query().Get("refresh") == "true" {
		current = h.service.Validate(r.Context())
	}

	writeJSON(w, http.StatusOK, h.statusJSON(current))
}

func (h *handler) access(w http.ResponseWriter, r *http.Request) {
	feature := chi.URLParam(r, "feature")
	allowed := h.service.CheckAccess(r.Context(), feature)

	writeJSON(w, http.StatusOK, map[string]any{
		"feature": feature,
		"premium": h.service.Policy().Premium(feature),
		"allowed": allowed,
	})
}

func (h *handler) purchase(w http.ResponseWriter, r *http.Request) {
	plan, err := domain.ParsePlan(chi.URLParam(r, "plan"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	outcome, err := h.service.Purchase(r.Context(), plan)
	switch {
	case errors.Is(err, domain.ErrAlreadyInFlight):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, domain.ErrPackageUnavailable):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, domain.ErrProviderUnavailable):
		writeError(w, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		writeError(w, http.StatusPaymentRequired, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plan":      outcome.Plan,
		"success":   outcome.Success,
		"cancelled": outcome.Cancelled,
		"state":     outcome.State,
		"status":    h.statusJSON(outcome.Status),
	})
}

func (h *handler) restore(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.Restore(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": outcome.Success,
		"status":  h.statusJSON(outcome.Status),
	})
}

func (h *handler) price(w http.ResponseWriter, r *http.Request) {
	plan, err := domain.ParsePlan(chi.URLParam(r, "plan"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"plan":  string(plan),
		"price": h.service.Price(r.Context(), plan),
	})
}

func (h *handler) statusJSON(current domain.Status) status.StatusJSON {
	return status.NewStatusJSON(current, h.clock.Now(), h.service.Policy().RevalidationInterval)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
