package main

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	dErrors "paycustom/pkg/domain-errors"
	auditmemory "paycustom/pkg/platform/audit/store/memory"
	"paycustom/pkg/platform/httputil"
	"paycustom/pkg/requestcontext"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type auditEventResponse struct {
	ID              string    `json:"id"`
	Category        string    `json:"category"`
	Timestamp       time.Time `json:"timestamp"`
	Action          string    `json:"action"`
	Subject         string    `json:"subject,omitempty"`
	Decision        string    `json:"decision,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	PaymentMethodID string    `json:"payment_method_id,omitempty"`
	ShopDomain      string    `json:"shop_domain,omitempty"`
	RequestID       string    `json:"request_id,omitempty"`
}

type auditEventsResponse struct {
	Events  []auditEventResponse `json:"events"`
	Evicted int64                `json:"evicted"`
}

// handleAuditEvents lists the most recent audit events retained in memory.
// GET /admin/audit-events?limit=N
func handleAuditEvents(store *auditmemory.InMemoryStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit := defaultAuditLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
				return
			}
			limit = min(n, maxAuditLimit)
		}

		events, err := store.ListRecent(ctx, limit)
		if err != nil {
			logger.ErrorContext(ctx, "failed to list audit events",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
			return
		}

		res := auditEventsResponse{Events: make([]auditEventResponse, 0, len(events)), Evicted: store.Evicted()}
		for _, e := range events {
			res.Events = append(res.Events, auditEventResponse{
				ID:              e.ID.String(),
				Category:        string(e.Category),
				Timestamp:       e.Timestamp,
				Action:          e.Action,
				Subject:         e.Subject,
				Decision:        e.Decision,
				Reason:          e.Reason,
				PaymentMethodID: e.PaymentMethodID,
				ShopDomain:      e.ShopDomain,
				RequestID:       e.RequestID,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}
