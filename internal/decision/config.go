package decision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// The configuration blob is encoded twice: an outer JSON object whose
// "products" field is itself a JSON-encoded array. Each stage fails on its own.
var (
	ErrConfigAbsent      = errors.New("configuration absent")
	ErrConfigMalformed   = errors.New("configuration malformed")
	ErrConfigIncomplete  = errors.New("configuration incomplete")
	ErrProductsMalformed = errors.New("configuration products malformed")
)

// Envelope is the outer stage of the configuration blob. Products still holds
// the nested payload, undecoded.
type Envelope struct {
	PaymentMethodName string
	Products          []byte
}

// DecodeEnvelope decodes the outer stage. A nil or empty blob yields
// ErrConfigAbsent; a blob missing either field yields ErrConfigIncomplete.
func DecodeEnvelope(raw *string) (Envelope, error) {
	if raw == nil || *raw == "" {
		return Envelope{}, ErrConfigAbsent
	}

	fields, err := objectFields([]byte(*raw))
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
	}
	var name string
	if err := decodeField(fields, "paymentMethodName", &name); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
	}

	products, err := nestedPayload(fields["products"])
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{PaymentMethodName: name, Products: products}
	if env.PaymentMethodName == "" || len(env.Products) == 0 {
		return env, ErrConfigIncomplete
	}
	return env, nil
}

// nestedPayload unwraps the products field. The admin stores it as a JSON
// string; a bare array is accepted as well.
func nestedPayload(field json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(field)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '"' {
		return trimmed, nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigMalformed, err)
	}
	return []byte(s), nil
}

// objectFields splits a JSON object into its members keyed by exact name.
// encoding/json folds case when filling structs; the blob's keys are
// case-sensitive, so lookups go through this map instead. A repeated key keeps
// its last value. JSON null yields a nil map.
func objectFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// decodeField decodes fields[key] into dst. A missing key leaves dst untouched.
func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// UnmarshalJSON reads "id" and "variants" by exact key.
func (p *ProductRef) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	var ref ProductRef
	if err := decodeField(fields, "id", &ref.ID); err != nil {
		return err
	}
	if err := decodeField(fields, "variants", &ref.Variants); err != nil {
		return err
	}
	*p = ref
	return nil
}

// UnmarshalJSON reads "id" by exact key.
func (v *VariantRef) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	var ref VariantRef
	if err := decodeField(fields, "id", &ref.ID); err != nil {
		return err
	}
	*v = ref
	return nil
}

// DecodeProducts decodes the nested stage into product references.
func (e Envelope) DecodeProducts() ([]ProductRef, error) {
	var products []ProductRef
	if err := json.Unmarshal(e.Products, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProductsMalformed, err)
	}
	return products, nil
}

// ParseConfiguration runs both decode stages.
func ParseConfiguration(raw *string) (Configuration, error) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return Configuration{}, err
	}
	products, err := env.DecodeProducts()
	if err != nil {
		return Configuration{}, err
	}
	return Configuration{PaymentMethodName: env.PaymentMethodName, Products: products}, nil
}

// RestrictedVariants flattens every product's variant ids into a set. Null
// variants and empty ids are skipped since no cart line can match them.
func RestrictedVariants(products []ProductRef) map[string]struct{} {
	set := make(map[string]struct{})
	for _, product := range products {
		for _, variant := range product.Variants {
			if variant == nil || variant.ID == "" {
				continue
			}
			set[variant.ID] = struct{}{}
		}
	}
	return set
}
