package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"paycustom/internal/customization/models"
	dErrors "paycustom/pkg/domain-errors"
	"paycustom/pkg/platform/httputil"
	"paycustom/pkg/requestcontext"
)

// Service defines the interface for customization management.
type Service interface {
	Create(ctx context.Context, functionID string, settings models.Settings) (*models.PaymentCustomization, error)
	Update(ctx context.Context, id uuid.UUID, settings models.Settings) (*models.PaymentCustomization, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PaymentCustomization, error)
	Settings(ctx context.Context, id uuid.UUID) (models.Settings, error)
	List(ctx context.Context) ([]*models.PaymentCustomization, error)
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*models.PaymentCustomization, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler exposes payment customization management to the merchant admin.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a customization handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/payment-customizations", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Post("/{id}/enable", h.HandleSetEnabled(true))
		r.Post("/{id}/disable", h.HandleSetEnabled(false))
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleCreate handles POST /admin/payment-customizations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Create(ctx, req.FunctionID, req.Settings())
	if err != nil {
		h.logFailure(ctx, "failed to create payment customization", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCustomizationResponse(c))
}

// HandleList handles GET /admin/payment-customizations.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.service.List(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list payment customizations", err)
		httputil.WriteError(w, err)
		return
	}
	resp := ListResponse{PaymentCustomizations: make([]CustomizationResponse, 0, len(list))}
	for _, c := range list {
		resp.PaymentCustomizations = append(resp.PaymentCustomizations, toCustomizationResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /admin/payment-customizations/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	settings, err := h.service.Settings(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CustomizationDetailsResponse{
		CustomizationResponse: toCustomizationResponse(c),
		Settings:              toSettingsResponse(settings),
	})
}

// HandleUpdate handles PUT /admin/payment-customizations/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Update(ctx, id, req.Settings())
	if err != nil {
		h.logFailure(ctx, "failed to update payment customization", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomizationResponse(c))
}

// HandleSetEnabled returns the handler for the enable and disable routes.
func (h *Handler) HandleSetEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := parseID(w, r)
		if !ok {
			return
		}

		c, err := h.service.SetEnabled(ctx, id, enabled)
		if err != nil {
			h.logFailure(ctx, "failed to change payment customization state", err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toCustomizationResponse(c))
	}
}

// HandleDelete handles DELETE /admin/payment-customizations/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.logFailure(ctx, "failed to delete payment customization", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid payment customization id"))
		return uuid.Nil, false
	}
	return id, true
}

// logFailure logs server-side failures; user errors are only returned.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if de, ok := dErrors.As(err); ok && httputil.StatusFor(de.Code) < http.StatusInternalServerError {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
