package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention.
type EventCategory string

const (
	// CategoryConfiguration covers merchant changes to payment customizations.
	CategoryConfiguration EventCategory = "configuration"

	// CategoryOperations covers checkout-time decisions. High volume; sinks
	// may sample or aggregate.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Subject is the payment customization id, or "inline" for host payloads that
// carry their own configuration.
type Event struct {
	ID              uuid.UUID
	Category        EventCategory
	Timestamp       time.Time
	Action          string
	Subject         string
	Decision        string
	Reason          string
	PaymentMethodID string
	ShopDomain      string
	RequestID       string
	ClientIP        string
}

type AuditEvent string

const (
	EventPaymentMethodHidden   AuditEvent = "payment_method_hidden"
	EventCustomizationCreated  AuditEvent = "customization_created"
	EventCustomizationUpdated  AuditEvent = "customization_updated"
	EventCustomizationEnabled  AuditEvent = "customization_enabled"
	EventCustomizationDisabled AuditEvent = "customization_disabled"
	EventCustomizationDeleted  AuditEvent = "customization_deleted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventPaymentMethodHidden:   CategoryOperations,
	EventCustomizationCreated:  CategoryConfiguration,
	EventCustomizationUpdated:  CategoryConfiguration,
	EventCustomizationEnabled:  CategoryConfiguration,
	EventCustomizationDisabled: CategoryConfiguration,
	EventCustomizationDeleted:  CategoryConfiguration,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Normalize fills the id, category and timestamp when the emitter left them empty.
func (e Event) Normalize(now time.Time) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Category == "" {
		e.Category = AuditEvent(e.Action).Category()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	return e
}

// Sink receives events drained by the worker.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a Sink that can be read back.
type Store interface {
	Sink
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
