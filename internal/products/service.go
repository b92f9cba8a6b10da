package products

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
)

// Service fronts the catalog with a redis read-through cache and raises
// inventory alerts on stock mutations.
type Service struct {
	store     Store
	cache     *Cache
	inventory *InventoryPublisher
	log       logger.Logger
}

func NewService(store Store, cache *Cache, inventory *InventoryPublisher, log logger.Logger) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		inventory: inventory,
		log:       log,
	}
}

func (s *Service) ListProducts(ctx context.Context, filter ListFilter) ([]*Product, error) {
	key := GenerateKey(constants.CacheKeyPrefixProducts, map[string]string{
		"category":  filter.Category,
		"available": strconv.FormatBool(filter.OnlyAvailable),
	})

	var cached []*Product
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	list, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, list, constants.CacheDefaultTTL)
	return list, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	key := fmt.Sprintf("%s:%s", constants.CacheKeyPrefixProduct, id)

	var cached Product
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, product, constants.CacheLongTTL)
	return product, nil
}

type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category" binding:"required"`
	Price       float64 `json:"price" binding:"required"`
	Stock       int     `json:"stock"`
}

func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if req.Price <= 0 {
		return nil, errors.ErrValidation.WithDetail("message", "price must be positive")
	}
	if req.Stock < 0 {
		return nil, errors.ErrValidation.WithDetail("message", "stock cannot be negative")
	}

	product := &Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Available:   req.Stock > 0,
	}
	if err := s.store.Create(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)
	s.inventory.CheckInventoryLevel(ctx, product)
	return product, nil
}

// UpdateStock sets the absolute stock level and raises an inventory alert
// when the new level is critical.
func (s *Service) UpdateStock(ctx context.Context, id string, stock int) (*Product, error) {
	if stock < 0 {
		return nil, errors.ErrValidation.WithDetail("message", "stock cannot be negative")
	}

	product, err := s.store.UpdateStock(ctx, id, stock)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, fmt.Sprintf("%s:%s", constants.CacheKeyPrefixProduct, id))
	s.invalidateListings(ctx)

	s.log.InfowCtx(ctx, "Product stock updated",
		"product_id", id,
		"stock", stock,
	)
	s.inventory.CheckInventoryLevel(ctx, product)
	return product, nil
}

func (s *Service) invalidateListings(ctx context.Context) {
	s.cache.DeletePattern(ctx, constants.CacheKeyPrefixProducts+"*")
}
