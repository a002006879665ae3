// Package store persists payment customizations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"paycustom/internal/customization/models"
	"paycustom/pkg/platform/sentinel"
)

// InMemory keeps customizations in a map. Used for local development and
// tests; values are copied in and out so callers never share state.
type InMemory struct {
	mu    sync.RWMutex
	items map[uuid.UUID]models.PaymentCustomization
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{items: make(map[uuid.UUID]models.PaymentCustomization)}
}

func (s *InMemory) Create(_ context.Context, c *models.PaymentCustomization) error {
	if c == nil {
		return fmt.Errorf("payment customization is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[c.ID]; exists {
		return fmt.Errorf("payment customization %s: %w", c.ID, sentinel.ErrAlreadyUsed)
	}
	s.items[c.ID] = *c
	return nil
}

func (s *InMemory) Update(_ context.Context, c *models.PaymentCustomization) error {
	if c == nil {
		return fmt.Errorf("payment customization is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[c.ID]; !exists {
		return fmt.Errorf("payment customization %s: %w", c.ID, sentinel.ErrNotFound)
	}
	s.items[c.ID] = *c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.PaymentCustomization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("payment customization %s: %w", id, sentinel.ErrNotFound)
	}
	return &c, nil
}

// List returns customizations oldest first.
func (s *InMemory) List(_ context.Context) ([]*models.PaymentCustomization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PaymentCustomization, 0, len(s.items))
	for _, c := range s.items {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("payment customization %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

// RunInTx runs fn directly; the in-memory store has no rollback.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
