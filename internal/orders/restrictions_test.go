package orders

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/logger"
)

func newTestRestrictor(t *testing.T) (*RedisRestrictor, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRestrictor(client, logger.NopLogger()), mr
}

func TestSuspendProduct(t *testing.T) {
	r, _ := newTestRestrictor(t)
	ctx := context.Background()

	suspended, err := r.IsSuspended(ctx, "prod-001")
	require.NoError(t, err)
	assert.False(t, suspended)

	require.NoError(t, r.SuspendProduct(ctx, "prod-001"))

	suspended, err = r.IsSuspended(ctx, "prod-001")
	require.NoError(t, err)
	assert.True(t, suspended)

	// Idempotent under redelivery.
	require.NoError(t, r.SuspendProduct(ctx, "prod-001"))
}

func TestLimitProduct(t *testing.T) {
	r, _ := newTestRestrictor(t)
	ctx := context.Background()

	_, capped, err := r.MaxQuantity(ctx, "prod-001")
	require.NoError(t, err)
	assert.False(t, capped)

	require.NoError(t, r.LimitProduct(ctx, "prod-001", 2))

	max, capped, err := r.MaxQuantity(ctx, "prod-001")
	require.NoError(t, err)
	assert.True(t, capped)
	assert.Equal(t, 2, max)
}

func TestLiftRestrictions(t *testing.T) {
	r, _ := newTestRestrictor(t)
	ctx := context.Background()

	require.NoError(t, r.SuspendProduct(ctx, "prod-001"))
	require.NoError(t, r.LimitProduct(ctx, "prod-001", 1))
	require.NoError(t, r.LiftRestrictions(ctx, "prod-001"))

	suspended, err := r.IsSuspended(ctx, "prod-001")
	require.NoError(t, err)
	assert.False(t, suspended)

	_, capped, err := r.MaxQuantity(ctx, "prod-001")
	require.NoError(t, err)
	assert.False(t, capped)
}

func TestRestrictionLookupFailure(t *testing.T) {
	r, mr := newTestRestrictor(t)
	mr.Close()

	_, err := r.IsSuspended(context.Background(), "prod-001")
	assert.Error(t, err)
}
