// Package service manages payment customizations and serves their stored
// configuration to the decision service.
package service

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks Store,AuditPublisher,CacheInvalidator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"paycustom/internal/customization/metrics"
	"paycustom/internal/customization/models"
	"paycustom/internal/decision/ports"
	"paycustom/pkg/attrs"
	dErrors "paycustom/pkg/domain-errors"
	"paycustom/pkg/platform/audit"
	"paycustom/pkg/platform/sentinel"
	"paycustom/pkg/requestcontext"
)

// Store persists payment customizations.
type Store interface {
	Create(ctx context.Context, c *models.PaymentCustomization) error
	Update(ctx context.Context, c *models.PaymentCustomization) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentCustomization, error)
	List(ctx context.Context) ([]*models.PaymentCustomization, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditPublisher emits audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CacheInvalidator drops cached configuration after a change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, customizationID uuid.UUID) error
}

// Service orchestrates payment customization management.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	invalidator    CacheInvalidator
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCacheInvalidator drops cached configuration on every change.
func WithCacheInvalidator(inv CacheInvalidator) Option {
	return func(s *Service) {
		s.invalidator = inv
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new enabled customization for functionID.
func (s *Service) Create(ctx context.Context, functionID string, settings models.Settings) (*models.PaymentCustomization, error) {
	functionID = strings.TrimSpace(functionID)
	if functionID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "function id is required")
	}
	value, err := prepare(&settings)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	c := &models.PaymentCustomization{
		ID:         uuid.New(),
		FunctionID: functionID,
		Title:      models.Title(settings.PaymentMethodName),
		Enabled:    true,
		Metafield:  models.NewConfigurationMetafield(value),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	start := time.Now()
	err = s.store.Create(ctx, c)
	s.metrics.ObserveStore("create", start)
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "payment customization already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create payment customization")
	}

	s.metrics.IncrementMutation("create")
	s.logAudit(ctx, string(audit.EventCustomizationCreated),
		"customization_id", c.ID,
		"function_id", c.FunctionID,
		"payment_method_name", settings.PaymentMethodName,
	)
	return c, nil
}

// Update replaces the settings of an existing customization. The enabled
// flag is left as it was.
func (s *Service) Update(ctx context.Context, id uuid.UUID, settings models.Settings) (*models.PaymentCustomization, error) {
	value, err := prepare(&settings)
	if err != nil {
		return nil, err
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Title = models.Title(settings.PaymentMethodName)
	c.Metafield = models.NewConfigurationMetafield(value)
	c.UpdatedAt = requestcontext.Now(ctx)

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	s.metrics.IncrementMutation("update")
	s.logAudit(ctx, string(audit.EventCustomizationUpdated),
		"customization_id", c.ID,
		"payment_method_name", settings.PaymentMethodName,
	)
	return c, nil
}

// Get returns a customization by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.PaymentCustomization, error) {
	return s.load(ctx, id)
}

// Settings returns the edit form of a customization. A stored blob that no
// longer decodes yields empty settings so the merchant can overwrite it.
func (s *Service) Settings(ctx context.Context, id uuid.UUID) (models.Settings, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return models.Settings{}, err
	}
	settings, err := models.DecodeSettings(c.Metafield.Value)
	if err != nil {
		s.logger.WarnContext(ctx, "stored configuration does not decode, returning empty settings",
			"request_id", requestcontext.RequestID(ctx),
			"customization_id", id,
			"error", err,
		)
		empty, _ := models.DecodeSettings("")
		return empty, nil
	}
	return settings, nil
}

// List returns every customization, oldest first.
func (s *Service) List(ctx context.Context) ([]*models.PaymentCustomization, error) {
	start := time.Now()
	list, err := s.store.List(ctx)
	s.metrics.ObserveStore("list", start)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payment customizations")
	}
	return list, nil
}

// SetEnabled turns a customization on or off. Setting the current value is a no-op.
func (s *Service) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*models.PaymentCustomization, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Enabled == enabled {
		return c, nil
	}
	c.Enabled = enabled
	c.UpdatedAt = requestcontext.Now(ctx)

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	event, action := audit.EventCustomizationDisabled, "disable"
	if enabled {
		event, action = audit.EventCustomizationEnabled, "enable"
	}
	s.metrics.IncrementMutation(action)
	s.logAudit(ctx, string(event), "customization_id", c.ID)
	return c, nil
}

// Delete removes a customization.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.store.Delete(ctx, id)
	s.metrics.ObserveStore("delete", start)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "payment customization not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete payment customization")
	}
	s.invalidate(ctx, id)

	s.metrics.IncrementMutation("delete")
	s.logAudit(ctx, string(audit.EventCustomizationDeleted), "customization_id", id)
	return nil
}

// ConfigurationFor implements the decision service's configuration source.
func (s *Service) ConfigurationFor(ctx context.Context, customizationID uuid.UUID) (*ports.ConfigRecord, error) {
	c, err := s.load(ctx, customizationID)
	if err != nil {
		return nil, err
	}
	return &ports.ConfigRecord{
		CustomizationID: c.ID,
		Enabled:         c.Enabled,
		Value:           c.ConfigurationValue(),
	}, nil
}

func prepare(settings *models.Settings) (string, error) {
	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return "", err
	}
	value, err := models.EncodeConfiguration(*settings)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode configuration")
	}
	return value, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.PaymentCustomization, error) {
	start := time.Now()
	c, err := s.store.FindByID(ctx, id)
	s.metrics.ObserveStore("find", start)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "payment customization not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment customization")
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *models.PaymentCustomization) error {
	start := time.Now()
	err := s.store.Update(ctx, c)
	s.metrics.ObserveStore("update", start)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "payment customization not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update payment customization")
	}
	s.invalidate(ctx, c.ID)
	return nil
}

// invalidate failures leave a stale entry until its TTL runs out.
func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate cached configuration",
			"request_id", requestcontext.RequestID(ctx),
			"customization_id", id,
			"error", err,
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:     event,
		Timestamp:  requestcontext.Now(ctx),
		Subject:    attrs.ExtractString(attributes, "customization_id"),
		ShopDomain: requestcontext.ShopDomain(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event", event,
			"error", err,
		)
	}
}
