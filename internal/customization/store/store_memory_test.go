package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"paycustom/internal/customization/models"
	"paycustom/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func newCustomization(createdAt time.Time) *models.PaymentCustomization {
	return &models.PaymentCustomization{
		ID:         uuid.New(),
		FunctionID: "fn-1",
		Title:      models.Title("Cash on Delivery"),
		Enabled:    true,
		Metafield:  models.NewConfigurationMetafield(`{"paymentMethodName":"Cash on Delivery","products":"[]"}`),
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

// TestCreationAndLookups verifies the store creates and retrieves customizations.
func (s *InMemoryStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds by ID", func() {
		c := newCustomization(time.Now())
		s.Require().NoError(s.store.Create(s.ctx, c))

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(c.Title, found.Title)
		s.Equal(models.MetafieldNamespace, found.Metafield.Namespace)
	})

	s.Run("rejects duplicate id", func() {
		c := newCustomization(time.Now())
		s.Require().NoError(s.store.Create(s.ctx, c))
		s.Require().ErrorIs(s.store.Create(s.ctx, c), sentinel.ErrAlreadyUsed)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned values are copies", func() {
		c := newCustomization(time.Now())
		s.Require().NoError(s.store.Create(s.ctx, c))

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		found.Enabled = false

		again, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.True(again.Enabled)
	})
}

func (s *InMemoryStoreSuite) TestUpdateAndDelete() {
	c := newCustomization(time.Now())
	s.Require().NoError(s.store.Create(s.ctx, c))

	s.Run("updates existing", func() {
		c.Enabled = false
		s.Require().NoError(s.store.Update(s.ctx, c))

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.False(found.Enabled)
	})

	s.Run("update of unknown id", func() {
		s.Require().ErrorIs(s.store.Update(s.ctx, newCustomization(time.Now())), sentinel.ErrNotFound)
	})

	s.Run("deletes", func() {
		s.Require().NoError(s.store.Delete(s.ctx, c.ID))
		_, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Require().ErrorIs(s.store.Delete(s.ctx, c.ID), sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestListOrdersByCreation() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := newCustomization(base.Add(time.Hour))
	older := newCustomization(base)
	s.Require().NoError(s.store.Create(s.ctx, newer))
	s.Require().NoError(s.store.Create(s.ctx, older))

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(older.ID, list[0].ID)
	s.Equal(newer.ID, list[1].ID)
}
