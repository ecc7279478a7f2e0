package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the read subset of *pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Querier = (*pgxpool.Pool)(nil)

type Store struct{ DB Querier }

var ErrNotFound = errors.New("product not found")

const productCols = `id, business_id, COALESCE(slug,''), name, price_cents, stock, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.BusinessID, &p.Slug, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Resolve maps ref to the canonical product id without taking a lock.
// Resolution order: business id, slug, numeric id.
func (s *Store) Resolve(ctx context.Context, tx pgx.Tx, ref Ref) (int64, error) {
	lookups := []struct {
		sql string
		arg any
		ok  bool
	}{
		{`SELECT id FROM products WHERE business_id=$1`, ref.BusinessID, ref.BusinessID != ""},
		{`SELECT id FROM products WHERE slug=$1`, ref.Slug, ref.Slug != ""},
		{`SELECT id FROM products WHERE id=$1`, ref.ID, ref.ID != 0},
	}
	for _, l := range lookups {
		if !l.ok {
			continue
		}
		var id int64
		err := tx.QueryRow(ctx, l.sql, l.arg).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, err
		}
	}
	return 0, ErrNotFound
}

// GetForUpdate returns the product row locked FOR UPDATE. The returned price
// and stock are authoritative until the enclosing transaction ends.
func (s *Store) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*Product, error) {
	p, err := scanProduct(tx.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Deduct decrements stock by qty. Callers must already hold the row lock and
// have validated stock >= qty against the locked read.
func (s *Store) Deduct(ctx context.Context, tx pgx.Tx, productID int64, qty int) error {
	ct, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id=$1`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("deduct stock: product %d vanished mid-transaction", productID)
	}
	return nil
}

// GuardedDeduct decrements stock by qty only when enough remains. Reports
// whether a row changed; false means insufficient stock (or no such row).
func (s *Store) GuardedDeduct(ctx context.Context, tx pgx.Tx, productID int64, businessID string, qty int) (bool, error) {
	ct, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id=$1 AND stock >= $2`, productID, qty)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}
	if businessID == "" {
		return false, nil
	}
	ct, err = tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now() WHERE business_id=$1 AND stock >= $2`, businessID, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// Restore increments stock by qty, resolving by numeric id first and falling
// back to business id. A product deleted since purchase is tolerated: the
// order snapshot outlives catalog rows.
func (s *Store) Restore(ctx context.Context, tx pgx.Tx, productID int64, businessID string, qty int) (bool, error) {
	if productID != 0 {
		ct, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`, productID, qty)
		if err != nil {
			return false, err
		}
		if ct.RowsAffected() == 1 {
			return true, nil
		}
	}
	if businessID != "" {
		ct, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock + $2, updated_at = now() WHERE business_id=$1`, businessID, qty)
		if err != nil {
			return false, err
		}
		if ct.RowsAffected() == 1 {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *Store) GetByBusinessID(ctx context.Context, businessID string) (*Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE business_id=$1`, businessID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

type ListParams struct {
	Page   int
	Limit  int
	Search string
	Sort   string
	Dir    string
}

var productSortCols = map[string]string{
	"created_at":  "created_at",
	"name":        "name",
	"price_cents": "price_cents",
	"stock":       "stock",
}

// OrderBy maps user-supplied sort input to a safe ORDER BY clause, falling
// back to created_at DESC on anything unknown.
func (p ListParams) OrderBy(allowed map[string]string, def string) string {
	col, ok := allowed[p.Sort]
	if !ok {
		return def
	}
	dir := "ASC"
	switch p.Dir {
	case "desc", "DESC":
		dir = "DESC"
	case "asc", "ASC":
	default:
		if p.Dir != "" {
			return def
		}
	}
	return col + " " + dir
}

func (p ListParams) Clamp() (page, limit, offset int) {
	page = p.Page
	if page < 1 {
		page = 1
	}
	limit = p.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

func (s *Store) List(ctx context.Context, params ListParams) ([]Product, error) {
	_, limit, offset := params.Clamp()
	orderBy := params.OrderBy(productSortCols, "created_at DESC")

	q := `SELECT ` + productCols + ` FROM products`
	args := []any{}
	if params.Search != "" {
		q += ` WHERE name ILIKE $1`
		args = append(args, "%"+params.Search+"%")
	}
	q += fmt.Sprintf(` ORDER BY %s LIMIT %d OFFSET %d`, orderBy, limit, offset)

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.BusinessID, &p.Slug, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
