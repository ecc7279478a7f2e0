package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // display id of the order
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID         int64  `json:"order_id"`
	DisplayID       string `json:"display_id"`
	BuyerID         *int64 `json:"buyer_id,omitempty"`
	Lines           []Line `json:"lines"`
	TotalPriceCents int64  `json:"total_price_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID        int64  `json:"order_id"`
	DisplayID      string `json:"display_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	StockEffect    string `json:"stock_effect"` // none | restore | deduct
}
