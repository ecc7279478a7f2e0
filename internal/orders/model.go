package orders

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
)

type Order struct {
	ID                 int64     `json:"id"`
	DisplayID          string    `json:"display_id"`
	BuyerID            *int64    `json:"buyer_id,omitempty"`
	Firstname          string    `json:"firstname"`
	Lastname           string    `json:"lastname"`
	Address            string    `json:"address"`
	Phonenumber        string    `json:"phonenumber"`
	Email              string    `json:"email,omitempty"`
	PaymentMethod      string    `json:"payment_method"`
	PaymentStatus      string    `json:"payment_status"`
	Notes              string    `json:"notes,omitempty"`
	Lines              []Line    `json:"items"`
	ItemsSummary       string    `json:"items_summary"`
	ProductsPriceCents int64     `json:"products_price_cents"`
	ShippingCostCents  int64     `json:"shipping_cost_cents"`
	TotalPriceCents    int64     `json:"total_price_cents"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Number accepts a JSON number or a numeric string, which is how carts arrive
// from loosely-typed storefront clients.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*n = ""
		return nil
	}
	*n = Number(strings.Trim(string(b), `"`))
	return nil
}

func (n Number) Int64() (int64, bool) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ItemRef is one cart line as submitted. Exactly one product reference must
// resolve: products_id (business id), product_slug, product_id, or the
// generic id fallback.
type ItemRef struct {
	ProductID  Number `json:"product_id"`
	BusinessID string `json:"products_id"`
	Slug       string `json:"product_slug"`
	GenericID  Number `json:"id"`
	Quantity   Number `json:"quantity"`
	Color      string `json:"color"`
	Size       string `json:"size"`
}

func (it ItemRef) ref() catalog.Ref {
	r := catalog.Ref{BusinessID: strings.TrimSpace(it.BusinessID), Slug: strings.TrimSpace(it.Slug)}
	if id, ok := it.ProductID.Int64(); ok && id > 0 {
		r.ID = id
	} else if id, ok := it.GenericID.Int64(); ok && id > 0 {
		r.ID = id
	}
	return r
}

// Details carries the buyer and shipping fields of a checkout. TotalAmount,
// when present and numeric, overrides the computed products price.
type Details struct {
	Firstname     string `json:"firstname"`
	Lastname      string `json:"lastname"`
	Address       string `json:"address"`
	Phonenumber   string `json:"phonenumber"`
	Email         string `json:"email"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
	TotalAmount   Number `json:"total_amount"`
	ShippingCost  Number `json:"shipping_cost"`
}

// Provisional mapping until a payment gateway callback owns this field: one
// pre-paid method maps to paid, everything else starts unpaid.
var paymentStatusByMethod = map[string]string{
	"online": "paid",
}

func derivePaymentStatus(method string) string {
	if s, ok := paymentStatusByMethod[strings.ToLower(strings.TrimSpace(method))]; ok {
		return s
	}
	return "unpaid"
}

func FormatDisplayID(id int64) string { return fmt.Sprintf("ORD%05d", id) }

// summaryFragment renders one line for the comma-joined display string kept
// on the order row, e.g. "Mug (red/L) x2".
func summaryFragment(name string, qty int, color, size string) string {
	variant := ""
	switch {
	case color != "" && size != "":
		variant = " (" + color + "/" + size + ")"
	case color != "":
		variant = " (" + color + ")"
	case size != "":
		variant = " (" + size + ")"
	}
	return fmt.Sprintf("%s%s x%d", name, variant, qty)
}
