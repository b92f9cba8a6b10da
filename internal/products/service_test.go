package products

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/broker"
	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
	"foodcourt/pkg/models"
)

type publishedMessage struct {
	exchange   string
	routingKey string
	msg        broker.Message
}

type fakeProducer struct {
	connected bool
	published []publishedMessage
}

func (p *fakeProducer) Publish(ctx context.Context, exchange, routingKey string, msg broker.Message) error {
	p.published = append(p.published, publishedMessage{exchange: exchange, routingKey: routingKey, msg: msg})
	return nil
}

func (p *fakeProducer) IsConnected() bool { return p.connected }

func newTestCatalog(t *testing.T) (*Service, *fakeProducer, *miniredis.Miniredis) {
	t.Helper()
	log := logger.NopLogger()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	producer := &fakeProducer{connected: true}
	svc := NewService(NewMemoryStore(), NewCache(client, log), NewInventoryPublisher(producer, log), log)
	return svc, producer, mr
}

func TestListProductsUsesCache(t *testing.T) {
	svc, _, mr := newTestCatalog(t)
	ctx := context.Background()

	list, err := svc.ListProducts(ctx, ListFilter{Category: "pizza"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	key := GenerateKey(constants.CacheKeyPrefixProducts, map[string]string{
		"category": "pizza", "available": "false",
	})
	assert.True(t, mr.Exists(key))

	cached, err := svc.ListProducts(ctx, ListFilter{Category: "pizza"})
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestGetProductUnknown(t *testing.T) {
	svc, _, _ := newTestCatalog(t)

	_, err := svc.GetProduct(context.Background(), "prod-999")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateStockPublishesCriticalAlert(t *testing.T) {
	svc, producer, _ := newTestCatalog(t)
	ctx := context.Background()

	product, err := svc.UpdateStock(ctx, "prod-001", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, product.Stock)
	require.Len(t, producer.published, 1)

	pub := producer.published[0]
	assert.Equal(t, constants.ExchangeInventoryCritical, pub.exchange)
	assert.Empty(t, pub.routingKey)

	var env models.Envelope
	require.NoError(t, json.Unmarshal(pub.msg.Body, &env))
	assert.Equal(t, models.EventTypeInventoryCritical, env.EventType)

	var data models.InventoryCriticalData
	require.NoError(t, env.DecodeData(&data))
	assert.Equal(t, "prod-001", data.ProductID)
	assert.Equal(t, 3, data.CurrentStock)
	assert.Equal(t, constants.InventoryCriticalLevel, data.CriticalLevel)
	assert.Equal(t, "products-service", data.Source)
}

func TestUpdateStockAboveCriticalStaysQuiet(t *testing.T) {
	svc, producer, _ := newTestCatalog(t)

	_, err := svc.UpdateStock(context.Background(), "prod-001", 20)
	require.NoError(t, err)
	assert.Empty(t, producer.published)
}

func TestUpdateStockZeroMarksUnavailable(t *testing.T) {
	svc, producer, _ := newTestCatalog(t)

	product, err := svc.UpdateStock(context.Background(), "prod-001", 0)
	require.NoError(t, err)
	assert.False(t, product.Available)
	require.Len(t, producer.published, 1)
}

func TestUpdateStockRejectsNegative(t *testing.T) {
	svc, _, _ := newTestCatalog(t)

	_, err := svc.UpdateStock(context.Background(), "prod-001", -1)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestUpdateStockInvalidatesProductCache(t *testing.T) {
	svc, _, mr := newTestCatalog(t)
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, "prod-001")
	require.NoError(t, err)
	require.True(t, mr.Exists("product:prod-001"))

	_, err = svc.UpdateStock(ctx, "prod-001", 10)
	require.NoError(t, err)
	assert.False(t, mr.Exists("product:prod-001"))
}

func TestCreateProduct(t *testing.T) {
	svc, producer, _ := newTestCatalog(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductRequest{
		Name:     "Tiramisu",
		Category: "dessert",
		Price:    6.50,
		Stock:    4,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.True(t, product.Available)

	// Seeded at critical level, so creation already raises the alert.
	require.Len(t, producer.published, 1)

	_, err = svc.CreateProduct(ctx, CreateProductRequest{Name: "Free", Category: "dessert", Price: 0})
	assert.Error(t, err)
}
