package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the core's stable codes onto HTTP statuses. Unexpected
// errors stay opaque to the client.
func writeErr(w http.ResponseWriter, log *zap.Logger, err error) {
	var oe *orders.Error
	if errors.As(err, &oe) {
		status := http.StatusInternalServerError
		switch oe.Code {
		case orders.CodeValidation:
			status = http.StatusBadRequest
		case orders.CodeProductNotFound, orders.CodeOrderNotFound:
			status = http.StatusNotFound
		case orders.CodeInsufficientStock:
			status = http.StatusConflict
		}
		writeJSON(w, status, oe)
		return
	}
	log.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"code":    "ERR_INTERNAL",
		"message": "internal error",
	})
}
