//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"paycustom/internal/customization/models"
	"paycustom/internal/customization/store"
	"paycustom/pkg/platform/sentinel"
	"paycustom/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "payment_customizations"))
}

func newTestCustomization(createdAt time.Time) *models.PaymentCustomization {
	return &models.PaymentCustomization{
		ID:         uuid.New(),
		FunctionID: "fn-1",
		Title:      models.Title("Cash on Delivery"),
		Enabled:    true,
		Metafield:  models.NewConfigurationMetafield(`{"paymentMethodName":"Cash on Delivery","products":"[]"}`),
		CreatedAt:  createdAt.UTC().Truncate(time.Microsecond),
		UpdatedAt:  createdAt.UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestEnsureSchemaIsIdempotent() {
	s.NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) TestCreateFindUpdateDelete() {
	c := newTestCustomization(time.Now())
	s.Require().NoError(s.store.Create(s.ctx, c))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Title, found.Title)
	s.Equal(c.Metafield, found.Metafield)
	s.True(found.CreatedAt.Equal(c.CreatedAt))

	s.Require().ErrorIs(s.store.Create(s.ctx, c), sentinel.ErrAlreadyUsed)

	c.Enabled = false
	c.UpdatedAt = c.UpdatedAt.Add(time.Minute)
	s.Require().NoError(s.store.Update(s.ctx, c))
	found, err = s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.False(found.Enabled)

	s.Require().NoError(s.store.Delete(s.ctx, c.ID))
	_, err = s.store.FindByID(s.ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, c.ID), sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(s.ctx, c), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOrdersByCreation() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := newTestCustomization(base.Add(time.Hour))
	older := newTestCustomization(base)
	s.Require().NoError(s.store.Create(s.ctx, newer))
	s.Require().NoError(s.store.Create(s.ctx, older))

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(older.ID, list[0].ID)
	s.Equal(newer.ID, list[1].ID)
}

// TestRunInTxRollsBack verifies writes inside a failed transaction are discarded.
func (s *PostgresStoreSuite) TestRunInTxRollsBack() {
	c := newTestCustomization(time.Now())
	boom := errors.New("boom")

	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, c); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	_, err = s.store.FindByID(s.ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSeedApply() {
	f, err := store.ParseSeed([]byte(`
customizations:
  - function_id: fn-1
    payment_method_name: Cash on Delivery
    products:
      - id: gid://shopify/Product/1
        variants: [gid://shopify/ProductVariant/1]
`))
	s.Require().NoError(err)

	created, err := f.Apply(s.ctx, s.store, time.Now().UTC())
	s.Require().NoError(err)
	s.Equal(1, created)

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}
