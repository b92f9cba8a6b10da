package products

import (
	"context"
	"sync"
	"time"

	"foodcourt/pkg/errors"
)

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Category      string
	OnlyAvailable bool
}

type Store interface {
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, product *Product) error
	UpdateStock(ctx context.Context, id string, stock int) (*Product, error)
}

// MemoryStore keeps the catalog in process. It ships with a small seed so
// the service is usable out of the box.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*Product
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{products: make(map[string]*Product)}
	now := time.Now().UTC()
	for _, p := range []*Product{
		{ID: "prod-001", Name: "Margherita Pizza", Category: "pizza", Price: 12.50, Stock: 25, Available: true},
		{ID: "prod-002", Name: "Pepperoni Pizza", Category: "pizza", Price: 14.00, Stock: 18, Available: true},
		{ID: "prod-003", Name: "Caesar Salad", Category: "salad", Price: 8.75, Stock: 30, Available: true},
		{ID: "prod-004", Name: "Classic Burger", Category: "burger", Price: 10.90, Stock: 12, Available: true},
		{ID: "prod-005", Name: "Lemonade", Category: "drink", Price: 3.25, Stock: 50, Available: true},
	} {
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
	}
	return s
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.OnlyAvailable && !p.Available {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errors.ErrNotFound.WithDetail("productId", id)
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Create(ctx context.Context, product *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return errors.ErrValidation.WithDetail("message", "product already exists").WithDetail("productId", product.ID)
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateStock(ctx context.Context, id string, stock int) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errors.ErrNotFound.WithDetail("productId", id)
	}
	p.Stock = stock
	p.Available = stock > 0
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}
