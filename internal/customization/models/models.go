// Package models holds the payment customization aggregate and the merchant
// settings it stores as a metafield.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Metafield coordinates for the function configuration. The decision engine
// reads the value of exactly this metafield.
const (
	MetafieldNamespace = "$app:payment-customization"
	MetafieldKey       = "function-configuration"
	MetafieldType      = "json"
)

// Metafield is a typed value attached to a payment customization.
type Metafield struct {
	Namespace string
	Key       string
	Type      string
	Value     string
}

// NewConfigurationMetafield wraps an encoded configuration blob.
func NewConfigurationMetafield(value string) Metafield {
	return Metafield{
		Namespace: MetafieldNamespace,
		Key:       MetafieldKey,
		Type:      MetafieldType,
		Value:     value,
	}
}

// PaymentCustomization binds a payment customization function to its
// configuration.
type PaymentCustomization struct {
	ID         uuid.UUID
	FunctionID string
	Title      string
	Enabled    bool
	Metafield  Metafield
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ConfigurationValue returns the stored blob, or nil when none was written.
func (c *PaymentCustomization) ConfigurationValue() *string {
	if c.Metafield.Value == "" {
		return nil
	}
	value := c.Metafield.Value
	return &value
}
