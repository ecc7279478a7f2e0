package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/redisx"
)

type UpdateStatusReq struct {
	Status string `json:"status"`
}

// AdminHandler is the operator surface: status transitions and the full
// order list. All status writes funnel through the reconciler.
type AdminHandler struct {
	Reconciler *orders.Reconciler
	Repo       *orders.Repo
	Producer   *kafkax.Producer // bound to order.status.changed
	Redis      *redis.Client
	Service    string
	Log        *zap.Logger
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Put("/admin/orders/{ref}/status", h.updateStatus)
	r.Get("/admin/orders", h.listOrders)
	r.Get("/admin/orders/{ref}", h.getOrder)
}

func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"code": orders.CodeValidation, "message": "invalid json",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ord, tr, err := h.Reconciler.UpdateStatus(ctx, chi.URLParam(r, "ref"), req.Status)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, ord.DisplayID)
	body, _ := json.Marshal(map[string]any{"status": ord.Status, "updated_at": ord.UpdatedAt})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: ord.DisplayID,
		Payload: kafkax.MustMarshal(orders.OrderStatusChangedPayload{
			OrderID:        ord.ID,
			DisplayID:      ord.DisplayID,
			PreviousStatus: tr.PreviousStatus,
			NewStatus:      tr.NewStatus,
			StockEffect:    tr.Effect.String(),
		}),
	}
	h.Producer.Publish(orders.PartitionKey(ord.DisplayID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	h.Log.Info("order status updated",
		zap.String("display_id", ord.DisplayID),
		zap.String("from", tr.PreviousStatus),
		zap.String("to", tr.NewStatus),
		zap.String("stock_effect", tr.Effect.String()))

	writeJSON(w, http.StatusOK, ord)
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := r.URL.Query()
	out, err := h.Repo.List(ctx, orders.ListParams{
		Page:   atoi(q.Get("page")),
		Limit:  atoi(q.Get("limit")),
		Status: q.Get("status"),
		Sort:   q.Get("sort"),
		Dir:    q.Get("dir"),
	})
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ord, err := h.Repo.GetByRef(ctx, chi.URLParam(r, "ref"), nil)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}
