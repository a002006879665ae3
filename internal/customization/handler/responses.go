package handler

import (
	"time"

	"github.com/google/uuid"

	"paycustom/internal/customization/models"
)

// MetafieldResponse is the stored configuration metafield.
type MetafieldResponse struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// CustomizationResponse is a payment customization as returned by the admin API.
type CustomizationResponse struct {
	ID         uuid.UUID         `json:"id"`
	FunctionID string            `json:"function_id"`
	Title      string            `json:"title"`
	Enabled    bool              `json:"enabled"`
	Metafield  MetafieldResponse `json:"metafield"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// SettingsResponse is the decoded edit form.
type SettingsResponse struct {
	PaymentMethodName string            `json:"payment_method_name"`
	Products          []ProductResponse `json:"products"`
	// VariantCount is the number of distinct variants that trigger hiding.
	VariantCount int `json:"variant_count"`
}

// ProductResponse mirrors ProductRequest.
type ProductResponse struct {
	ID       string            `json:"id"`
	Variants []VariantResponse `json:"variants"`
}

// VariantResponse mirrors VariantRequest.
type VariantResponse struct {
	ID string `json:"id"`
}

// CustomizationDetailsResponse adds the decoded settings to a customization.
type CustomizationDetailsResponse struct {
	CustomizationResponse
	Settings SettingsResponse `json:"settings"`
}

// ListResponse wraps the customization list.
type ListResponse struct {
	PaymentCustomizations []CustomizationResponse `json:"payment_customizations"`
}

func toCustomizationResponse(c *models.PaymentCustomization) CustomizationResponse {
	return CustomizationResponse{
		ID:         c.ID,
		FunctionID: c.FunctionID,
		Title:      c.Title,
		Enabled:    c.Enabled,
		Metafield: MetafieldResponse{
			Namespace: c.Metafield.Namespace,
			Key:       c.Metafield.Key,
			Type:      c.Metafield.Type,
			Value:     c.Metafield.Value,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toSettingsResponse(s models.Settings) SettingsResponse {
	resp := SettingsResponse{
		PaymentMethodName: s.PaymentMethodName,
		Products:          make([]ProductResponse, 0, len(s.Products)),
		VariantCount:      s.VariantCount(),
	}
	for _, p := range s.Products {
		product := ProductResponse{ID: p.ID, Variants: make([]VariantResponse, 0, len(p.Variants))}
		for _, v := range p.Variants {
			if v == nil {
				continue
			}
			product.Variants = append(product.Variants, VariantResponse{ID: v.ID})
		}
		resp.Products = append(resp.Products, product)
	}
	return resp
}
