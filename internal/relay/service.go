package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/redisx"
)

// Service fans order status changes out to storefront clients: it refreshes
// the redis status cache and publishes on the realtime channel. Installed as
// a consumer handler on order.status.changed.
type Service struct {
	Redis       *redis.Client
	ServiceName string
	Log         *zap.Logger
}

func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	}

	// dedup by event id; redelivery after a consumer crash is expected
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	var p orders.OrderStatusChangedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, p.DisplayID)
	body, _ := json.Marshal(map[string]any{"status": p.NewStatus, "updated_at": env.OccurredAt})
	if err := s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil {
		return err
	}

	if err := s.Redis.Publish(ctx, redisx.ChannelOrdersRT, m.Value).Err(); err != nil {
		return err
	}

	s.Log.Info("status change relayed",
		zap.String("display_id", p.DisplayID),
		zap.String("from", p.PreviousStatus),
		zap.String("to", p.NewStatus))
	return nil
}
