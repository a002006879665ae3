package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"paycustom/internal/decision"
	dErrors "paycustom/pkg/domain-errors"
	pkgstrings "paycustom/pkg/platform/strings"
)

// Settings is the merchant-editable form of a payment customization.
type Settings struct {
	PaymentMethodName string                `json:"paymentMethodName"`
	Products          []decision.ProductRef `json:"products"`
}

// Title is the customization title shown in the admin.
func Title(paymentMethodName string) string {
	return fmt.Sprintf("Hide %s if selected products are in the cart", paymentMethodName)
}

// Normalize trims names and ids, merges products selected twice, and drops
// empty variant ids. Products with an empty id are kept so Validate can
// reject them.
func (s *Settings) Normalize() {
	s.PaymentMethodName = strings.TrimSpace(s.PaymentMethodName)

	ids := make([]string, 0, len(s.Products))
	variants := make(map[string][]string, len(s.Products))
	var anonymous []decision.ProductRef
	for _, p := range s.Products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			anonymous = append(anonymous, decision.ProductRef{})
			continue
		}
		ids = append(ids, id)
		for _, v := range p.Variants {
			if v != nil {
				variants[id] = append(variants[id], v.ID)
			}
		}
	}

	products := make([]decision.ProductRef, 0, len(s.Products))
	for _, id := range pkgstrings.DedupeAndTrim(ids) {
		ref := decision.ProductRef{ID: id, Variants: []*decision.VariantRef{}}
		for _, vid := range pkgstrings.DedupeAndTrim(variants[id]) {
			ref.Variants = append(ref.Variants, &decision.VariantRef{ID: vid})
		}
		products = append(products, ref)
	}
	s.Products = append(products, anonymous...)
}

// Validate reports merchant input errors as validation domain errors.
func (s *Settings) Validate() error {
	if s.PaymentMethodName == "" {
		return dErrors.New(dErrors.CodeValidation, "payment method name is required")
	}
	if len(s.Products) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one product is required")
	}
	for i, p := range s.Products {
		if strings.TrimSpace(p.ID) == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("products[%d].id is required", i))
		}
	}
	return nil
}

// VariantCount returns the number of restricted variants across all products.
func (s *Settings) VariantCount() int {
	return len(decision.RestrictedVariants(s.Products))
}

// EncodeConfiguration renders settings as the metafield blob the decision
// engine reads. The products list is JSON-encoded into a string inside the
// outer object.
func EncodeConfiguration(s Settings) (string, error) {
	products := s.Products
	if products == nil {
		products = []decision.ProductRef{}
	}
	inner, err := json.Marshal(products)
	if err != nil {
		return "", fmt.Errorf("encode products: %w", err)
	}
	outer, err := json.Marshal(struct {
		PaymentMethodName string `json:"paymentMethodName"`
		Products          string `json:"products"`
	}{
		PaymentMethodName: s.PaymentMethodName,
		Products:          string(inner),
	})
	if err != nil {
		return "", fmt.Errorf("encode configuration: %w", err)
	}
	return string(outer), nil
}

// DecodeSettings parses a metafield blob back into the edit form. An empty
// value yields empty settings; partially filled blobs keep what they have.
func DecodeSettings(value string) (Settings, error) {
	env, err := decision.DecodeEnvelope(&value)
	switch {
	case errors.Is(err, decision.ErrConfigAbsent):
		return Settings{Products: []decision.ProductRef{}}, nil
	case err != nil && !errors.Is(err, decision.ErrConfigIncomplete):
		return Settings{}, err
	}

	settings := Settings{PaymentMethodName: env.PaymentMethodName, Products: []decision.ProductRef{}}
	if len(env.Products) == 0 {
		return settings, nil
	}
	products, err := env.DecodeProducts()
	if err != nil {
		return Settings{}, err
	}
	if products != nil {
		settings.Products = products
	}
	return settings, nil
}
