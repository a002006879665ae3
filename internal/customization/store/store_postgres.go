package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"paycustom/internal/customization/models"
	"paycustom/pkg/platform/sentinel"
	"paycustom/pkg/platform/tx"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS payment_customizations (
	id                  UUID PRIMARY KEY,
	function_id         TEXT NOT NULL,
	title               TEXT NOT NULL,
	enabled             BOOLEAN NOT NULL DEFAULT TRUE,
	metafield_namespace TEXT NOT NULL,
	metafield_key       TEXT NOT NULL,
	metafield_type      TEXT NOT NULL,
	metafield_value     TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
)`

const selectColumns = `id, function_id, title, enabled, metafield_namespace, metafield_key,
	metafield_type, metafield_value, created_at, updated_at`

// PostgresStore persists customizations in PostgreSQL. Methods join a
// transaction carried in ctx by pkg/platform/tx.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed customization store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure payment_customizations schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, c *models.PaymentCustomization) error {
	if c == nil {
		return fmt.Errorf("payment customization is required")
	}
	query := `
		INSERT INTO payment_customizations (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		c.ID, c.FunctionID, c.Title, c.Enabled,
		c.Metafield.Namespace, c.Metafield.Key, c.Metafield.Type, c.Metafield.Value,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("payment customization %s: %w", c.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create payment customization: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *models.PaymentCustomization) error {
	if c == nil {
		return fmt.Errorf("payment customization is required")
	}
	query := `
		UPDATE payment_customizations
		SET function_id = $2, title = $3, enabled = $4,
			metafield_namespace = $5, metafield_key = $6, metafield_type = $7, metafield_value = $8,
			updated_at = $9
		WHERE id = $1
	`
	res, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		c.ID, c.FunctionID, c.Title, c.Enabled,
		c.Metafield.Namespace, c.Metafield.Key, c.Metafield.Type, c.Metafield.Value,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update payment customization: %w", err)
	}
	return expectOneRow(res, c.ID)
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentCustomization, error) {
	row := tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM payment_customizations WHERE id = $1`, id)
	c, err := scanCustomization(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment customization %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find payment customization: %w", err)
	}
	return c, nil
}

// List returns customizations oldest first.
func (s *PostgresStore) List(ctx context.Context) ([]*models.PaymentCustomization, error) {
	rows, err := tx.QuerierFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+selectColumns+` FROM payment_customizations ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list payment customizations: %w", err)
	}
	defer rows.Close()

	var out []*models.PaymentCustomization
	for rows.Next() {
		c, err := scanCustomization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment customization: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payment customizations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM payment_customizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment customization: %w", err)
	}
	return expectOneRow(res, id)
}

// RunInTx runs fn in a single transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, s.db, fn)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomization(row rowScanner) (*models.PaymentCustomization, error) {
	var c models.PaymentCustomization
	err := row.Scan(
		&c.ID, &c.FunctionID, &c.Title, &c.Enabled,
		&c.Metafield.Namespace, &c.Metafield.Key, &c.Metafield.Type, &c.Metafield.Value,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func expectOneRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("payment customization %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}
