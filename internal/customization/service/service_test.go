package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"paycustom/internal/customization/metrics"
	"paycustom/internal/customization/mocks"
	"paycustom/internal/customization/models"
	"paycustom/internal/customization/service"
	"paycustom/internal/decision"
	dErrors "paycustom/pkg/domain-errors"
	"paycustom/pkg/platform/audit"
	"paycustom/pkg/platform/sentinel"
	"paycustom/pkg/requestcontext"
)

// =============================================================================
// Customization Service Test Suite
// =============================================================================
// Store, audit and cache collaborators are mocked; the suite checks input
// normalization, error translation and the side effects of each change.

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	auditor *mocks.MockAuditPublisher
	cache   *mocks.MockCacheInvalidator
	metrics *metrics.Metrics
	service *service.Service
	ctx     context.Context
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.cache = mocks.NewMockCacheInvalidator(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = service.New(s.store,
		service.WithAuditPublisher(s.auditor),
		service.WithCacheInvalidator(s.cache),
		service.WithMetrics(s.metrics),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	s.now = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithRequestID(s.ctx, "req-1")
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func codSettings() models.Settings {
	return models.Settings{
		PaymentMethodName: "Cash on Delivery",
		Products: []decision.ProductRef{
			{ID: " P1 ", Variants: []*decision.VariantRef{{ID: "V1"}}},
			{ID: "P1", Variants: []*decision.VariantRef{{ID: "V2"}}},
		},
	}
}

func (s *ServiceSuite) existing(enabled bool) *models.PaymentCustomization {
	value, err := models.EncodeConfiguration(codSettings())
	s.Require().NoError(err)
	return &models.PaymentCustomization{
		ID:         uuid.New(),
		FunctionID: "fn-1",
		Title:      models.Title("Cash on Delivery"),
		Enabled:    enabled,
		Metafield:  models.NewConfigurationMetafield(value),
		CreatedAt:  s.now.Add(-time.Hour),
		UpdatedAt:  s.now.Add(-time.Hour),
	}
}

// =============================================================================
// Create
// =============================================================================

func (s *ServiceSuite) TestCreate() {
	s.Run("stores an enabled customization with encoded settings", func() {
		var stored *models.PaymentCustomization
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, c *models.PaymentCustomization) error {
				stored = c
				return nil
			})
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, event audit.Event) error {
				s.Equal(string(audit.EventCustomizationCreated), event.Action)
				s.Equal(stored.ID.String(), event.Subject)
				s.Equal("req-1", event.RequestID)
				return nil
			})

		c, err := s.service.Create(s.ctx, " fn-1 ", codSettings())
		s.Require().NoError(err)
		s.Equal("fn-1", c.FunctionID)
		s.True(c.Enabled)
		s.Equal("Hide Cash on Delivery if selected products are in the cart", c.Title)
		s.Equal(s.now, c.CreatedAt)
		s.Equal(models.MetafieldNamespace, c.Metafield.Namespace)
		s.Equal(models.MetafieldKey, c.Metafield.Key)
		s.Equal(models.MetafieldType, c.Metafield.Type)

		settings, err := models.DecodeSettings(c.Metafield.Value)
		s.Require().NoError(err)
		s.Require().Len(settings.Products, 1, "duplicate products are merged")
		s.Len(settings.Products[0].Variants, 2)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Mutations.WithLabelValues("create")))
	})

	s.Run("rejects missing function id", func() {
		_, err := s.service.Create(s.ctx, "  ", codSettings())
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects settings without products", func() {
		_, err := s.service.Create(s.ctx, "fn-1", models.Settings{PaymentMethodName: "COD"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects settings without payment method name", func() {
		settings := codSettings()
		settings.PaymentMethodName = " "
		_, err := s.service.Create(s.ctx, "fn-1", settings)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("translates store conflict", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)
		_, err := s.service.Create(s.ctx, "fn-1", codSettings())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("wraps store failure as internal", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
		_, err := s.service.Create(s.ctx, "fn-1", codSettings())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("audit failure does not fail the request", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("buffer full"))
		_, err := s.service.Create(s.ctx, "fn-1", codSettings())
		s.NoError(err)
	})
}

// =============================================================================
// Update / SetEnabled / Delete
// =============================================================================

func (s *ServiceSuite) TestUpdate() {
	s.Run("replaces settings and invalidates the cache", func() {
		current := s.existing(false)
		s.store.EXPECT().FindByID(gomock.Any(), current.ID).Return(current, nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), current.ID).Return(nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		settings := models.Settings{
			PaymentMethodName: "Bank Deposit",
			Products:          []decision.ProductRef{{ID: "P9", Variants: []*decision.VariantRef{{ID: "V9"}}}},
		}
		c, err := s.service.Update(s.ctx, current.ID, settings)
		s.Require().NoError(err)
		s.Equal("Hide Bank Deposit if selected products are in the cart", c.Title)
		s.False(c.Enabled, "update keeps the enabled flag")
		s.Equal(s.now, c.UpdatedAt)
		s.Contains(c.Metafield.Value, "Bank Deposit")
	})

	s.Run("unknown id", func() {
		id := uuid.New()
		s.store.EXPECT().FindByID(gomock.Any(), id).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Update(s.ctx, id, codSettings())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("invalid settings are rejected before loading", func() {
		_, err := s.service.Update(s.ctx, uuid.New(), models.Settings{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("cache invalidation failure is tolerated", func() {
		current := s.existing(true)
		s.store.EXPECT().FindByID(gomock.Any(), current.ID).Return(current, nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), current.ID).Return(errors.New("redis down"))
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.Update(s.ctx, current.ID, codSettings())
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestSetEnabled() {
	s.Run("disables", func() {
		current := s.existing(true)
		s.store.EXPECT().FindByID(gomock.Any(), current.ID).Return(current, nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), current.ID).Return(nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, event audit.Event) error {
				s.Equal(string(audit.EventCustomizationDisabled), event.Action)
				return nil
			})

		c, err := s.service.SetEnabled(s.ctx, current.ID, false)
		s.Require().NoError(err)
		s.False(c.Enabled)
	})

	s.Run("setting the current value writes nothing", func() {
		current := s.existing(true)
		s.store.EXPECT().FindByID(gomock.Any(), current.ID).Return(current, nil)

		c, err := s.service.SetEnabled(s.ctx, current.ID, true)
		s.Require().NoError(err)
		s.True(c.Enabled)
	})

	s.Run("update reports not found", func() {
		current := s.existing(false)
		s.store.EXPECT().FindByID(gomock.Any(), current.ID).Return(current, nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(sentinel.ErrNotFound)

		_, err := s.service.SetEnabled(s.ctx, current.ID, true)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDelete() {
	s.Run("deletes and invalidates", func() {
		id := uuid.New()
		s.store.EXPECT().Delete(gomock.Any(), id).Return(nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), id).Return(nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		s.NoError(s.service.Delete(s.ctx, id))
	})

	s.Run("unknown id", func() {
		id := uuid.New()
		s.store.EXPECT().Delete(gomock.Any(), id).Return(sentinel.ErrNotFound)
		s.True(dErrors.HasCode(s.service.Delete(s.ctx, id), dErrors.CodeNotFound))
	})
}

// =============================================================================
// Reads
// =============================================================================

func (s *ServiceSuite) TestReads() {
	s.Run("settings decode the stored blob", func() {
		current := s.existing(true)
		s.store.EXPECT().FindByID(gomock.Any(), current.ID).Return(current, nil)

		settings, err := s.service.Settings(s.ctx, current.ID)
		s.Require().NoError(err)
		s.Equal("Cash on Delivery", settings.PaymentMethodName)
	})

	s.Run("undecodable blob yields empty settings", func() {
		current := s.existing(true)
		current.Metafield.Value = "{broken"
		s.store.EXPECT().FindByID(gomock.Any(), current.ID).Return(current, nil)

		settings, err := s.service.Settings(s.ctx, current.ID)
		s.Require().NoError(err)
		s.Empty(settings.PaymentMethodName)
		s.Empty(settings.Products)
	})

	s.Run("list wraps store failure", func() {
		s.store.EXPECT().List(gomock.Any()).Return(nil, errors.New("db down"))
		_, err := s.service.List(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("get reports not found", func() {
		id := uuid.New()
		s.store.EXPECT().FindByID(gomock.Any(), id).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Get(s.ctx, id)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestConfigurationFor verifies the record handed to the decision service.
func (s *ServiceSuite) TestConfigurationFor() {
	s.Run("returns enabled flag and blob", func() {
		current := s.existing(false)
		s.store.EXPECT().FindByID(gomock.Any(), current.ID).Return(current, nil)

		record, err := s.service.ConfigurationFor(s.ctx, current.ID)
		s.Require().NoError(err)
		s.Equal(current.ID, record.CustomizationID)
		s.False(record.Enabled)
		s.Require().NotNil(record.Value)
		s.Equal(current.Metafield.Value, *record.Value)
	})

	s.Run("empty metafield is absent", func() {
		current := s.existing(true)
		current.Metafield.Value = ""
		s.store.EXPECT().FindByID(gomock.Any(), current.ID).Return(current, nil)

		record, err := s.service.ConfigurationFor(s.ctx, current.ID)
		s.Require().NoError(err)
		s.Nil(record.Value)
	})

	s.Run("unknown id is not found", func() {
		id := uuid.New()
		s.store.EXPECT().FindByID(gomock.Any(), id).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.ConfigurationFor(s.ctx, id)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
