package handler

import (
	"fmt"

	"paycustom/internal/decision"
	dErrors "paycustom/pkg/domain-errors"
)

const (
	maxCartLines      = 1000
	maxPaymentMethods = 100
)

// RunRequest is the host payload for POST /functions/payment-customization/run.
type RunRequest struct {
	PaymentCustomization *decision.PaymentCustomizationInput `json:"paymentCustomization"`
	Cart                 *decision.Cart                      `json:"cart"`
	PaymentMethods       []decision.PaymentMethod            `json:"paymentMethods"`
}

// Validate only bounds the payload size. Missing or malformed configuration
// is the engine's concern and never rejected here.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RunRequest) Validate() error {
	return validateSizes(r.Cart, r.PaymentMethods)
}

// Input converts the request to the engine input.
func (r *RunRequest) Input() decision.RunInput {
	return decision.RunInput{
		PaymentCustomization: r.PaymentCustomization,
		Cart:                 r.Cart,
		PaymentMethods:       r.PaymentMethods,
	}
}

// StoredRunRequest is the body for POST /payment-customizations/{id}/run; the
// configuration comes from the stored customization.
type StoredRunRequest struct {
	Cart           *decision.Cart           `json:"cart"`
	PaymentMethods []decision.PaymentMethod `json:"paymentMethods"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *StoredRunRequest) Validate() error {
	return validateSizes(r.Cart, r.PaymentMethods)
}

func validateSizes(cart *decision.Cart, methods []decision.PaymentMethod) error {
	if cart != nil && len(cart.Lines) > maxCartLines {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("cart.lines must have at most %d entries", maxCartLines))
	}
	if len(methods) > maxPaymentMethods {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("paymentMethods must have at most %d entries", maxPaymentMethods))
	}
	return nil
}
