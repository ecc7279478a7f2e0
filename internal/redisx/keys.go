package redisx

import "time"

const (
	// Cache of an order's current status: order_status:{display_id} -> {"status":"...","updated_at":"..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Pub/sub channel for realtime status pushes to storefront clients.
	ChannelOrdersRT = "orders.rt"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
