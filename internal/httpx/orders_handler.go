package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/redisx"
)

type PlaceOrderReq struct {
	BuyerID *int64           `json:"buyer_id"`
	Items   []orders.ItemRef `json:"items"`
	Details orders.Details   `json:"orderDetails"`
}

// OrdersHandler is the storefront surface: checkout plus the plain reads.
type OrdersHandler struct {
	Placer   *orders.Placer
	Repo     *orders.Repo
	Catalog  *catalog.Store
	Producer *kafkax.Producer
	Redis    *redis.Client
	Service  string
	Log      *zap.Logger
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{ref}", h.getOrder)
	r.Get("/products", h.listProducts)
	r.Get("/products/{ref}", h.getProduct)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"code": orders.CodeValidation, "message": "invalid json",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ord, err := h.Placer.PlaceOrder(ctx, req.BuyerID, req.Items, req.Details)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}

	h.cacheStatus(ctx, ord)
	h.publish(orders.EventOrderPlaced, ord.DisplayID, r.Header.Get("X-Request-Id"),
		orders.OrderPlacedPayload{
			OrderID:         ord.ID,
			DisplayID:       ord.DisplayID,
			BuyerID:         ord.BuyerID,
			Lines:           ord.Lines,
			TotalPriceCents: ord.TotalPriceCents,
		})
	h.Log.Info("order placed",
		zap.String("display_id", ord.DisplayID),
		zap.Int64("total_cents", ord.TotalPriceCents))

	writeJSON(w, http.StatusCreated, ord)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var buyerID *int64
	if v := r.URL.Query().Get("buyer_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			buyerID = &id
		}
	}
	ord, err := h.Repo.GetByRef(ctx, chi.URLParam(r, "ref"), buyerID)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := r.URL.Query()
	params := orders.ListParams{
		Page:   atoi(q.Get("page")),
		Limit:  atoi(q.Get("limit")),
		Status: q.Get("status"),
		Sort:   q.Get("sort"),
		Dir:    q.Get("dir"),
	}
	if v := q.Get("buyer_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.BuyerID = &id
		}
	}
	out, err := h.Repo.List(ctx, params)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := r.URL.Query()
	out, err := h.Catalog.List(ctx, catalog.ListParams{
		Page:   atoi(q.Get("page")),
		Limit:  atoi(q.Get("limit")),
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
		Dir:    q.Get("dir"),
	})
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// numeric refs are internal ids, anything else is a business id
	ref := chi.URLParam(r, "ref")
	var (
		p   *catalog.Product
		err error
	)
	if id, perr := strconv.ParseInt(ref, 10, 64); perr == nil {
		p, err = h.Catalog.Get(ctx, id)
	} else {
		p, err = h.Catalog.GetByBusinessID(ctx, ref)
	}
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"code": orders.CodeProductNotFound, "message": "product not found",
		})
		return
	}
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, ord *orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, ord.DisplayID)
	body, _ := json.Marshal(map[string]any{"status": ord.Status, "updated_at": ord.UpdatedAt})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

// publish writes to the producer's bound topic (order.placed).
func (h *OrdersHandler) publish(eventType, displayID, traceID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: displayID,
		Payload:       kafkax.MustMarshal(payload),
	}
	h.Producer.Publish(orders.PartitionKey(displayID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
