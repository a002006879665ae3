package handler

import (
	"fmt"
	"strings"

	"paycustom/internal/customization/models"
	"paycustom/internal/decision"
	dErrors "paycustom/pkg/domain-errors"
)

const maxProducts = 250

// ProductRequest is a product picked in the admin and its variants.
type ProductRequest struct {
	ID       string           `json:"id"`
	Variants []VariantRequest `json:"variants"`
}

// VariantRequest identifies one product variant.
type VariantRequest struct {
	ID string `json:"id"`
}

// SettingsRequest carries the editable fields shared by create and update.
type SettingsRequest struct {
	PaymentMethodName string           `json:"payment_method_name"`
	Products          []ProductRequest `json:"products"`
}

// Validate bounds the selection size. Field rules live in models.Settings so
// the seed file and the API reject the same input.
func (r *SettingsRequest) Validate() error {
	if len(r.Products) > maxProducts {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("products must have at most %d entries", maxProducts))
	}
	return nil
}

// Settings converts the request to merchant settings.
func (r *SettingsRequest) Settings() models.Settings {
	s := models.Settings{
		PaymentMethodName: r.PaymentMethodName,
		Products:          make([]decision.ProductRef, 0, len(r.Products)),
	}
	for _, p := range r.Products {
		ref := decision.ProductRef{ID: p.ID, Variants: make([]*decision.VariantRef, 0, len(p.Variants))}
		for _, v := range p.Variants {
			ref.Variants = append(ref.Variants, &decision.VariantRef{ID: v.ID})
		}
		s.Products = append(s.Products, ref)
	}
	return s
}

// CreateRequest is the body of POST /admin/payment-customizations.
type CreateRequest struct {
	FunctionID string `json:"function_id"`
	SettingsRequest
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.FunctionID) == "" {
		return dErrors.New(dErrors.CodeValidation, "function_id is required")
	}
	return r.SettingsRequest.Validate()
}

// UpdateRequest is the body of PUT /admin/payment-customizations/{id}.
type UpdateRequest struct {
	SettingsRequest
}
