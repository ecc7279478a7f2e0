package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
)

type Repo struct{ DB Querier }

const orderCols = `id, COALESCE(display_id,''), buyer_id, firstname, lastname, address,
	phonenumber, email, payment_method, payment_status, notes, items, items_summary,
	products_price_cents, shipping_cost_cents, total_price_cents, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var raw []byte
	err := row.Scan(&o.ID, &o.DisplayID, &o.BuyerID, &o.Firstname, &o.Lastname, &o.Address,
		&o.Phonenumber, &o.Email, &o.PaymentMethod, &o.PaymentStatus, &o.Notes, &raw, &o.ItemsSummary,
		&o.ProductsPriceCents, &o.ShippingCostCents, &o.TotalPriceCents, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Lines = ParseSnapshot(raw)
	return &o, nil
}

// ParseRef interprets an order reference as the internal numeric id when it
// is all digits, otherwise as a display id.
func ParseRef(ref string) (int64, bool) {
	id, err := strconv.ParseInt(ref, 10, 64)
	return id, err == nil && id > 0
}

// GetByID fetches an order, optionally scoped to the acting buyer.
func (r *Repo) GetByID(ctx context.Context, id int64, buyerID *int64) (*Order, error) {
	q := `SELECT ` + orderCols + ` FROM orders WHERE id=$1`
	args := []any{id}
	if buyerID != nil {
		q += ` AND buyer_id=$2`
		args = append(args, *buyerID)
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &Error{Code: CodeOrderNotFound, Message: "order not found"}
	}
	return o, err
}

// GetByRef fetches by internal id or display id.
func (r *Repo) GetByRef(ctx context.Context, ref string, buyerID *int64) (*Order, error) {
	if id, ok := ParseRef(ref); ok {
		return r.GetByID(ctx, id, buyerID)
	}
	q := `SELECT ` + orderCols + ` FROM orders WHERE display_id=$1`
	args := []any{ref}
	if buyerID != nil {
		q += ` AND buyer_id=$2`
		args = append(args, *buyerID)
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &Error{Code: CodeOrderNotFound, Message: "order not found"}
	}
	return o, err
}

type ListParams struct {
	Page    int
	Limit   int
	Status  string
	Sort    string
	Dir     string
	BuyerID *int64
}

var orderSortCols = map[string]string{
	"created_at":        "created_at",
	"total_price_cents": "total_price_cents",
	"status":            "status",
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]Order, error) {
	lp := catalog.ListParams{Page: params.Page, Limit: params.Limit, Sort: params.Sort, Dir: params.Dir}
	_, limit, offset := lp.Clamp()
	orderBy := lp.OrderBy(orderSortCols, "created_at DESC")

	q := `SELECT ` + orderCols + ` FROM orders`
	args := []any{}
	where := ""
	if params.Status != "" {
		// statuses are stored lower-cased
		args = append(args, strings.ToLower(strings.TrimSpace(params.Status)))
		where = fmt.Sprintf(` WHERE status=$%d`, len(args))
	}
	if params.BuyerID != nil {
		args = append(args, *params.BuyerID)
		if where == "" {
			where = fmt.Sprintf(` WHERE buyer_id=$%d`, len(args))
		} else {
			where += fmt.Sprintf(` AND buyer_id=$%d`, len(args))
		}
	}
	q += where + fmt.Sprintf(` ORDER BY %s LIMIT %d OFFSET %d`, orderBy, limit, offset)

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var raw []byte
		if err := rows.Scan(&o.ID, &o.DisplayID, &o.BuyerID, &o.Firstname, &o.Lastname, &o.Address,
			&o.Phonenumber, &o.Email, &o.PaymentMethod, &o.PaymentStatus, &o.Notes, &raw, &o.ItemsSummary,
			&o.ProductsPriceCents, &o.ShippingCostCents, &o.TotalPriceCents, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Lines = ParseSnapshot(raw)
		out = append(out, o)
	}
	return out, rows.Err()
}
