package orders

import (
	"errors"
	"fmt"
)

// Stable machine-readable error codes surfaced to callers. HTTP status
// mapping is the transport layer's concern.
const (
	CodeValidation        = "ERR_VALIDATION_FAILED"
	CodeProductNotFound   = "ERR_PRODUCT_NOT_FOUND"
	CodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	CodeOrderNotFound     = "ERR_ORDER_NOT_FOUND"
)

type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	ProductRef string `json:"product_ref,omitempty"`
	Requested  int    `json:"requested,omitempty"`
	Available  int    `json:"available,omitempty"`
}

func (e *Error) Error() string {
	if e.ProductRef != "" {
		return fmt.Sprintf("%s: %s (product %s)", e.Code, e.Message, e.ProductRef)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the stable code carried by err, or "" for unexpected errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func validationErr(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}
