// Package ports declares what the decision service needs from the rest of the
// system. Adapters live with their owning modules.
package ports

import (
	"context"

	"github.com/google/uuid"

	"paycustom/pkg/platform/audit"
)

// ConfigRecord is the stored configuration of one payment customization.
type ConfigRecord struct {
	CustomizationID uuid.UUID
	Enabled         bool
	// Value is the raw metafield blob; nil when the customization has none.
	Value *string
}

// ConfigSource loads stored configuration. Unknown ids return a
// domain error with CodeNotFound.
type ConfigSource interface {
	ConfigurationFor(ctx context.Context, customizationID uuid.UUID) (*ConfigRecord, error)
}

// AuditPort defines the interface for emitting audit events.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}
