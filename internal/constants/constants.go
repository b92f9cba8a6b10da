package constants

import "time"

const (
	ExchangeOrders            = "orders.events"
	ExchangeInventoryCritical = "inventory.critical"
)

const (
	QueueOrderCreated            = "order.created"
	QueueOrderStatusUpdated      = "order.status.updated"
	QueueInventoryCriticalOrders = "inventory.critical.orders"
	QueueInventoryCriticalNotify = "inventory.critical.notifications"
)

// Routing keys match the queue names on the topic exchange.
const (
	RoutingKeyOrderCreated       = "order.created"
	RoutingKeyOrderStatusUpdated = "order.status.updated"
)

const (
	QueueMessageTTL     = 300000 * time.Millisecond
	QueueMaxRetries     = 3
	ConsumerPrefetch    = 1
	PublishConfirmAwait = 5 * time.Second
)

const (
	DefaultHeartbeatInterval = 30 * time.Second
	StreamBufferSize         = 16
	BroadcastAllUsers        = "all"
)

const (
	InventoryCriticalLevel = 5
	StockSuspendThreshold  = 0
	StockLimitThreshold    = 2
)

const (
	CacheKeyPrefixProducts    = "products"
	CacheKeyPrefixProduct     = "product"
	CacheKeyPrefixSuspended   = "orders:suspended"
	CacheKeyPrefixQuantityCap = "orders:maxqty"
	CacheDefaultTTL           = 300 * time.Second
	CacheLongTTL              = 1800 * time.Second
	RestrictionTTL            = 24 * time.Hour
)

const (
	DefaultHTTPTimeout = 5 * time.Second
	ShutdownTimeout    = 5 * time.Second
)
