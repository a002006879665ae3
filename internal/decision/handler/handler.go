package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"paycustom/internal/decision"
	dErrors "paycustom/pkg/domain-errors"
	"paycustom/pkg/platform/httputil"
	"paycustom/pkg/requestcontext"
)

// Service defines the interface for decision operations.
type Service interface {
	Run(ctx context.Context, input decision.RunInput) decision.RunResult
	RunForCustomization(ctx context.Context, customizationID uuid.UUID, cart *decision.Cart, paymentMethods []decision.PaymentMethod) (decision.RunResult, error)
}

// Handler wires function-run endpoints to the decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a decision handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts decision endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/functions/payment-customization/run", h.HandleRun)
	r.Post("/payment-customizations/{id}/run", h.HandleRunStored)
}

// HandleRun handles POST /functions/payment-customization/run requests, where
// the host supplies the configuration blob with the cart.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[RunRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := h.service.Run(ctx, req.Input())

	h.logger.InfoContext(ctx, "payment customization run",
		"request_id", requestID,
		"operations", len(result.Operations),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleRunStored handles POST /payment-customizations/{id}/run requests.
func (h *Handler) HandleRunStored(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	customizationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid payment customization id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[StoredRunRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.RunForCustomization(ctx, customizationID, req.Cart, req.PaymentMethods)
	if err != nil {
		h.logger.WarnContext(ctx, "stored payment customization run failed",
			"request_id", requestID,
			"customization_id", customizationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "stored payment customization run",
		"request_id", requestID,
		"customization_id", customizationID,
		"operations", len(result.Operations),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}
