package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"paycustom/internal/customization/models"
	"paycustom/internal/decision"
	"paycustom/pkg/platform/sentinel"
)

// SeedFile is the YAML document loaded at startup:
//
//	customizations:
//	  - id: 0b6c6e8e-6f55-4a53-9f0c-2f4fd9a3c0d1
//	    function_id: 01HZXK6Q6V0Y
//	    payment_method_name: Cash on Delivery
//	    products:
//	      - id: gid://shopify/Product/1
//	        variants: [gid://shopify/ProductVariant/1]
type SeedFile struct {
	Customizations []SeedCustomization `yaml:"customizations"`
}

// SeedCustomization is one seeded customization. Enabled defaults to true.
type SeedCustomization struct {
	ID                uuid.UUID     `yaml:"id"`
	FunctionID        string        `yaml:"function_id"`
	Enabled           *bool         `yaml:"enabled"`
	PaymentMethodName string        `yaml:"payment_method_name"`
	Products          []SeedProduct `yaml:"products"`
}

// SeedProduct is a product and the variant ids it restricts.
type SeedProduct struct {
	ID       string   `yaml:"id"`
	Variants []string `yaml:"variants"`
}

// SeedTarget is the store surface the seed needs.
type SeedTarget interface {
	Create(ctx context.Context, c *models.PaymentCustomization) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LoadSeedFile reads and parses a YAML seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed parses a YAML seed document.
func ParseSeed(raw []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Settings converts a seeded entry to merchant settings.
func (c SeedCustomization) Settings() models.Settings {
	s := models.Settings{PaymentMethodName: c.PaymentMethodName}
	for _, p := range c.Products {
		ref := decision.ProductRef{ID: p.ID}
		for _, v := range p.Variants {
			ref.Variants = append(ref.Variants, &decision.VariantRef{ID: v})
		}
		s.Products = append(s.Products, ref)
	}
	return s
}

// Apply writes every entry in one transaction. Entries whose id already
// exists are skipped so restarts are idempotent. Returns the number created.
func (f *SeedFile) Apply(ctx context.Context, target SeedTarget, now time.Time) (int, error) {
	created := 0
	err := target.RunInTx(ctx, func(ctx context.Context) error {
		for i, entry := range f.Customizations {
			c, err := entry.build(now)
			if err != nil {
				return fmt.Errorf("seed customization %d: %w", i, err)
			}
			if err := target.Create(ctx, c); err != nil {
				if errors.Is(err, sentinel.ErrAlreadyUsed) {
					continue
				}
				return fmt.Errorf("seed customization %d: %w", i, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (c SeedCustomization) build(now time.Time) (*models.PaymentCustomization, error) {
	if c.FunctionID == "" {
		return nil, errors.New("function_id is required")
	}
	settings := c.Settings()
	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	value, err := models.EncodeConfiguration(settings)
	if err != nil {
		return nil, err
	}

	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	enabled := true
	if c.Enabled != nil {
		enabled = *c.Enabled
	}
	return &models.PaymentCustomization{
		ID:         id,
		FunctionID: c.FunctionID,
		Title:      models.Title(settings.PaymentMethodName),
		Enabled:    enabled,
		Metafield:  models.NewConfigurationMetafield(value),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
