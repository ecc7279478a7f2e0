package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
)

// Reconciler is the only writer of orders.status. It compares the coarse
// class of the previous and new status and restores or re-deducts the stock
// recorded in the order's line snapshot, atomically with the status change.
type Reconciler struct {
	DB         BeginTxer
	Catalog    *catalog.Store
	Classifier *Classifier
	Repo       *Repo
	Log        *zap.Logger
}

// Transition is returned alongside the refreshed order so callers can report
// what happened to stock.
type Transition struct {
	PreviousStatus string
	NewStatus      string
	Effect         StockEffect
}

func (r *Reconciler) UpdateStatus(ctx context.Context, ref, newStatus string) (*Order, Transition, error) {
	var tr Transition
	newStatus = strings.ToLower(strings.TrimSpace(newStatus))
	if newStatus == "" {
		return nil, tr, validationErr("status must not be empty")
	}
	if _, ok := r.Classifier.Classify(newStatus); !ok {
		return nil, tr, validationErr("status %q is not in the configured vocabulary", newStatus)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, tr, fmt.Errorf("begin reconcile tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ord, err := lockOrder(ctx, tx, ref)
	if err != nil {
		return nil, tr, err
	}

	tr = Transition{
		PreviousStatus: strings.ToLower(ord.Status),
		NewStatus:      newStatus,
		Effect:         r.Classifier.Plan(ord.Status, newStatus),
	}

	if len(ord.Lines) > 0 && tr.Effect != EffectNone {
		// Adjust product rows in ascending id order, mirroring placement's
		// stable lock order.
		lines := append([]Line(nil), ord.Lines...)
		sort.Slice(lines, func(a, b int) bool { return lines[a].ProductID < lines[b].ProductID })

		for _, ln := range lines {
			switch tr.Effect {
			case EffectRestore:
				ok, err := r.Catalog.Restore(ctx, tx, ln.ProductID, ln.BusinessID, ln.Qty)
				if err != nil {
					return nil, tr, fmt.Errorf("restore stock: %w", err)
				}
				if !ok && r.Log != nil {
					r.Log.Warn("stock restore skipped, product gone",
						zap.Int64("order_id", ord.ID),
						zap.Int64("product_id", ln.ProductID),
						zap.String("business_id", ln.BusinessID))
				}
			case EffectDeduct:
				ok, err := r.Catalog.GuardedDeduct(ctx, tx, ln.ProductID, ln.BusinessID, ln.Qty)
				if err != nil {
					return nil, tr, fmt.Errorf("re-deduct stock: %w", err)
				}
				if !ok {
					// Reactivating a returned order must not oversell.
					return nil, tr, &Error{
						Code:       CodeInsufficientStock,
						Message:    "insufficient stock to reactivate order",
						ProductRef: ln.BusinessID,
						Requested:  ln.Qty,
					}
				}
			}
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status=$1, updated_at=now() WHERE id=$2`, newStatus, ord.ID); err != nil {
		return nil, tr, fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, tr, fmt.Errorf("commit reconcile: %w", err)
	}

	refreshed, err := r.Repo.GetByID(ctx, ord.ID, nil)
	return refreshed, tr, err
}

func lockOrder(ctx context.Context, tx pgx.Tx, ref string) (*Order, error) {
	var row pgx.Row
	if id, ok := ParseRef(ref); ok {
		row = tx.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1 FOR UPDATE`, id)
	} else {
		row = tx.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE display_id=$1 FOR UPDATE`, ref)
	}
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &Error{Code: CodeOrderNotFound, Message: "order not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return o, nil
}
