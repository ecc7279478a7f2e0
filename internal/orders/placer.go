package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
)

// Placer runs the order placement transaction: it resolves every cart line
// against the catalog, takes row locks, validates stock, snapshots prices,
// inserts the order, and decrements stock, all inside one transaction.
type Placer struct {
	DB      BeginTxer
	Catalog *catalog.Store
	Repo    *Repo
}

type cartLine struct {
	ref   catalog.Ref
	qty   int
	color string
	size  string
}

// parseCart validates the raw cart before any lock is taken.
func parseCart(items []ItemRef) ([]cartLine, error) {
	if len(items) == 0 {
		return nil, validationErr("order items must be a non-empty list")
	}
	out := make([]cartLine, len(items))
	for i, it := range items {
		qty, ok := it.Quantity.Int64()
		if !ok || qty <= 0 {
			return nil, validationErr("item %d: quantity must be a positive integer", i)
		}
		ref := it.ref()
		if ref.Empty() {
			return nil, validationErr("item %d: missing product reference", i)
		}
		out[i] = cartLine{ref: ref, qty: int(qty), color: strings.TrimSpace(it.Color), size: strings.TrimSpace(it.Size)}
	}
	return out, nil
}

func uniqueSorted(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	j := 0
	for i := range out {
		if i == 0 || out[i] != out[i-1] {
			out[j] = out[i]
			j++
		}
	}
	return out[:j]
}

func (p *Placer) PlaceOrder(ctx context.Context, buyerID *int64, items []ItemRef, det Details) (*Order, error) {
	cart, err := parseCart(items)
	if err != nil {
		return nil, err
	}

	tx, err := p.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin placement tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Resolve references without locks first, then lock rows in ascending
	// product id. Concurrent carts over the same products acquire locks in
	// the same order whatever mix of reference schemes they use, so they
	// cannot deadlock each other.
	ids := make([]int64, len(cart))
	for i, cl := range cart {
		id, err := p.Catalog.Resolve(ctx, tx, cl.ref)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &Error{Code: CodeProductNotFound, Message: "product not found", ProductRef: cl.ref.Key()}
		}
		if err != nil {
			return nil, fmt.Errorf("resolve product: %w", err)
		}
		ids[i] = id
	}

	prods := make(map[int64]*catalog.Product, len(cart))
	for _, id := range uniqueSorted(ids) {
		prod, err := p.Catalog.GetForUpdate(ctx, tx, id)
		if errors.Is(err, catalog.ErrNotFound) {
			// deleted between the unlocked resolve and the locked read
			return nil, &Error{Code: CodeProductNotFound, Message: "product not found", ProductRef: fmt.Sprintf("i:%d", id)}
		}
		if err != nil {
			return nil, fmt.Errorf("lock product: %w", err)
		}
		prods[id] = prod
	}

	// Validate against the locked reads, accumulating demand per product so
	// a cart repeating one product cannot pass line-by-line yet oversell.
	demand := map[int64]int{}
	for i, cl := range cart {
		prod := prods[ids[i]]
		need := demand[prod.ID] + cl.qty
		if prod.Stock < need {
			return nil, &Error{
				Code:       CodeInsufficientStock,
				Message:    "insufficient stock",
				ProductRef: prod.BusinessID,
				Requested:  need,
				Available:  prod.Stock,
			}
		}
		demand[prod.ID] = need
	}

	var (
		lines        = make([]Line, len(cart))
		fragments    = make([]string, len(cart))
		runningTotal int64
	)
	for i, cl := range cart {
		prod := prods[ids[i]]
		runningTotal += prod.PriceCents * int64(cl.qty)
		lines[i] = Line{
			ProductID:      prod.ID,
			BusinessID:     prod.BusinessID,
			Name:           prod.Name,
			Qty:            cl.qty,
			UnitPriceCents: prod.PriceCents,
			Color:          cl.color,
			Size:           cl.size,
		}
		fragments[i] = summaryFragment(prod.Name, cl.qty, cl.color, cl.size)
	}

	productsPrice := runningTotal
	if v, ok := det.TotalAmount.Int64(); ok {
		productsPrice = v
	}
	var shippingCost int64
	if v, ok := det.ShippingCost.Int64(); ok && v > 0 {
		shippingCost = v
	}
	totalPrice := productsPrice + shippingCost

	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
			buyer_id, firstname, lastname, address, phonenumber, email,
			payment_method, payment_status, notes,
			items, items_summary,
			products_price_cents, shipping_cost_cents, total_price_cents, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,'pending')
		RETURNING id`,
		buyerID, det.Firstname, det.Lastname, det.Address, det.Phonenumber, det.Email,
		det.PaymentMethod, derivePaymentStatus(det.PaymentMethod), det.Notes,
		MarshalSnapshot(lines), strings.Join(fragments, ", "),
		productsPrice, shippingCost, totalPrice,
	).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET display_id=$1 WHERE id=$2`,
		FormatDisplayID(orderID), orderID); err != nil {
		return nil, fmt.Errorf("assign display id: %w", err)
	}

	// Locks from the FOR UPDATE reads are still held; decrements cannot
	// lose updates.
	for i, cl := range cart {
		if err := p.Catalog.Deduct(ctx, tx, ids[i], cl.qty); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit placement: %w", err)
	}

	return p.Repo.GetByID(ctx, orderID, buyerID)
}
