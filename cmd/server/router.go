package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	customizationhandler "paycustom/internal/customization/handler"
	"paycustom/internal/decision"
	decisionhandler "paycustom/internal/decision/handler"
	platformmetrics "paycustom/internal/platform/metrics"
	auditmemory "paycustom/pkg/platform/audit/store/memory"
	"paycustom/pkg/platform/httputil"
	"paycustom/pkg/platform/middleware/request"
	"paycustom/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	decisions      *decision.Service
	customizations customizationhandler.Service
	auditEvents    *auditmemory.InMemoryStore
	registry       *prometheus.Registry
	health         func(ctx context.Context) error
	logger         *slog.Logger
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(platformmetrics.New(deps.registry).Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.health(ctx); err != nil {
			deps.logger.WarnContext(ctx, "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", platformmetrics.Handler(deps.registry))

	decisionhandler.New(deps.decisions, deps.logger).Register(r)
	customizationhandler.New(deps.customizations, deps.logger).Register(r)
	if deps.auditEvents != nil {
		r.Get("/admin/audit-events", handleAuditEvents(deps.auditEvents, deps.logger))
	}
	return r
}
