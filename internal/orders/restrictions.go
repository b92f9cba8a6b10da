package orders

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
)

// Restrictor applies and answers ordering-eligibility restrictions for a
// product. All operations are idempotent so a redelivered inventory event
// cannot corrupt state.
type Restrictor interface {
	SuspendProduct(ctx context.Context, productID string) error
	LimitProduct(ctx context.Context, productID string, maxQuantity int) error
	LiftRestrictions(ctx context.Context, productID string) error
	IsSuspended(ctx context.Context, productID string) (bool, error)
	MaxQuantity(ctx context.Context, productID string) (int, bool, error)
}

// RedisRestrictor keeps restriction flags in redis where the order intake
// path can read them cheaply.
type RedisRestrictor struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisRestrictor(client *redis.Client, log logger.Logger) *RedisRestrictor {
	return &RedisRestrictor{
		client: client,
		log:    log,
	}
}

func suspendKey(productID string) string {
	return fmt.Sprintf("%s:%s", constants.CacheKeyPrefixSuspended, productID)
}

func quantityKey(productID string) string {
	return fmt.Sprintf("%s:%s", constants.CacheKeyPrefixQuantityCap, productID)
}

func (r *RedisRestrictor) SuspendProduct(ctx context.Context, productID string) error {
	if err := r.client.Set(ctx, suspendKey(productID), "1", constants.RestrictionTTL).Err(); err != nil {
		return fmt.Errorf("failed to suspend product %s: %w", productID, err)
	}
	r.log.InfowCtx(ctx, "Suspended new orders for product", "product_id", productID)
	return nil
}

func (r *RedisRestrictor) LimitProduct(ctx context.Context, productID string, maxQuantity int) error {
	if err := r.client.Set(ctx, quantityKey(productID), maxQuantity, constants.RestrictionTTL).Err(); err != nil {
		return fmt.Errorf("failed to limit product %s: %w", productID, err)
	}
	r.log.InfowCtx(ctx, "Limited per-order quantity for product",
		"product_id", productID,
		"max_quantity", maxQuantity,
	)
	return nil
}

func (r *RedisRestrictor) LiftRestrictions(ctx context.Context, productID string) error {
	if err := r.client.Del(ctx, suspendKey(productID), quantityKey(productID)).Err(); err != nil {
		return fmt.Errorf("failed to lift restrictions for product %s: %w", productID, err)
	}
	return nil
}

func (r *RedisRestrictor) IsSuspended(ctx context.Context, productID string) (bool, error) {
	_, err := r.client.Get(ctx, suspendKey(productID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check suspension for product %s: %w", productID, err)
	}
	return true, nil
}

func (r *RedisRestrictor) MaxQuantity(ctx context.Context, productID string) (int, bool, error) {
	val, err := r.client.Get(ctx, quantityKey(productID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read quantity cap for product %s: %w", productID, err)
	}
	max, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt quantity cap for product %s: %w", productID, err)
	}
	return max, true, nil
}
