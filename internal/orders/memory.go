package orders

import (
	"context"
	"sync"
	"time"

	"foodcourt/pkg/errors"
	"foodcourt/pkg/models"
)

// MemoryStore keeps orders in process memory. It stands in for the relational
// store collaborator so the service runs end to end without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*Order),
	}
}

func (s *MemoryStore) Create(ctx context.Context, order *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return errors.ErrValidation.WithDetail("message", "order already exists")
	}

	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = models.StatusPending
	}

	stored := *order
	s.orders[order.ID] = &stored
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, errors.ErrNotFound.WithDetail("message", "order not found")
	}
	copied := *order
	return &copied, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, notes string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, errors.ErrNotFound.WithDetail("message", "order not found")
	}

	order.Status = status
	if notes != "" {
		order.Notes = notes
	}
	order.UpdatedAt = time.Now().UTC()

	copied := *order
	return &copied, nil
}

func (s *MemoryStore) FindPendingByProduct(ctx context.Context, productID string) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Order
	for _, order := range s.orders {
		if order.Status != models.StatusPending {
			continue
		}
		for _, item := range order.Items {
			if item.ProductID == productID {
				copied := *order
				result = append(result, &copied)
				break
			}
		}
	}
	return result, nil
}
