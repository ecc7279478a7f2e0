package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memDB is an in-memory stand-in for the pool. It understands exactly the
// statements the placement and reconciliation flows issue, and gives real
// transaction semantics: a tx works on a copy, commit swaps it in, rollback
// discards it.
type memDB struct {
	products    map[int64]*memProduct
	orders      map[int64]*memOrder
	nextOrderID int64
}

type memProduct struct {
	id         int64
	businessID string
	slug       string
	name       string
	priceCents int64
	stock      int
}

type memOrder struct {
	id          int64
	displayID   string
	buyerID     *int64
	firstname   string
	lastname    string
	address     string
	phonenumber string
	email       string

	paymentMethod string
	paymentStatus string
	notes         string

	items        []byte
	itemsSummary string

	productsPrice int64
	shippingCost  int64
	totalPrice    int64
	status        string
	createdAt     time.Time
	updatedAt     time.Time
}

func newMemDB(products ...*memProduct) *memDB {
	m := &memDB{products: map[int64]*memProduct{}, orders: map[int64]*memOrder{}, nextOrderID: 1}
	for _, p := range products {
		m.products[p.id] = p
	}
	return m
}

func cloneProducts(in map[int64]*memProduct) map[int64]*memProduct {
	out := make(map[int64]*memProduct, len(in))
	for id, p := range in {
		c := *p
		out[id] = &c
	}
	return out
}

func cloneOrders(in map[int64]*memOrder) map[int64]*memOrder {
	out := make(map[int64]*memOrder, len(in))
	for id, o := range in {
		c := *o
		c.items = append([]byte(nil), o.items...)
		out[id] = &c
	}
	return out
}

func (m *memDB) BeginTx(_ context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	return &memTx{
		db:          m,
		products:    cloneProducts(m.products),
		orders:      cloneOrders(m.orders),
		nextOrderID: m.nextOrderID,
	}, nil
}

// Querier over committed state, used for the post-commit re-reads.
func (m *memDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, `FROM orders WHERE id=$1`):
		o, ok := m.orders[asInt64(args[0])]
		if ok && strings.Contains(sql, "buyer_id=$2") {
			if o.buyerID == nil || *o.buyerID != asInt64(args[1]) {
				ok = false
			}
		}
		if !ok {
			return memRow{err: pgx.ErrNoRows}
		}
		return memRow{vals: orderVals(o)}
	case strings.Contains(sql, `FROM orders WHERE display_id=$1`):
		for _, o := range m.orders {
			if o.displayID == args[0].(string) {
				return memRow{vals: orderVals(o)}
			}
		}
		return memRow{err: pgx.ErrNoRows}
	}
	return memRow{err: pgx.ErrNoRows}
}

func (m *memDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	if !strings.Contains(sql, "FROM orders") {
		return nil, fmt.Errorf("unsupported query: %s", sql)
	}
	ids := make([]int64, 0, len(m.orders))
	for id := range m.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	var rows memRows
	for _, id := range ids {
		o := m.orders[id]
		if strings.Contains(sql, "status=$1") && o.status != args[0].(string) {
			continue
		}
		if strings.Contains(sql, "buyer_id=$") {
			want := asInt64(args[len(args)-1])
			if o.buyerID == nil || *o.buyerID != want {
				continue
			}
		}
		rows.rows = append(rows.rows, orderVals(o))
	}
	return &rows, nil
}

type memTx struct {
	pgx.Tx
	db          *memDB
	products    map[int64]*memProduct
	orders      map[int64]*memOrder
	nextOrderID int64
}

func (t *memTx) Commit(_ context.Context) error {
	t.db.products = t.products
	t.db.orders = t.orders
	t.db.nextOrderID = t.nextOrderID
	return nil
}

func (t *memTx) Rollback(_ context.Context) error { return nil }

func (t *memTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "SELECT id FROM products WHERE business_id=$1"):
		for _, p := range t.products {
			if p.businessID == args[0].(string) {
				return memRow{vals: []any{p.id}}
			}
		}
		return memRow{err: pgx.ErrNoRows}
	case strings.Contains(sql, "SELECT id FROM products WHERE slug=$1"):
		for _, p := range t.products {
			if p.slug == args[0].(string) {
				return memRow{vals: []any{p.id}}
			}
		}
		return memRow{err: pgx.ErrNoRows}
	case strings.Contains(sql, "SELECT id FROM products WHERE id=$1"):
		if p, ok := t.products[asInt64(args[0])]; ok {
			return memRow{vals: []any{p.id}}
		}
		return memRow{err: pgx.ErrNoRows}
	case strings.Contains(sql, "FROM products WHERE id=$1 FOR UPDATE"):
		p, ok := t.products[asInt64(args[0])]
		if !ok {
			return memRow{err: pgx.ErrNoRows}
		}
		now := time.Now()
		return memRow{vals: []any{p.id, p.businessID, p.slug, p.name, p.priceCents, p.stock, now, now}}
	case strings.Contains(sql, "INSERT INTO orders"):
		id := t.nextOrderID
		t.nextOrderID++
		now := time.Now()
		buyer := args[0].(*int64)
		if buyer != nil {
			b := *buyer
			buyer = &b
		}
		t.orders[id] = &memOrder{
			id:            id,
			buyerID:       buyer,
			firstname:     args[1].(string),
			lastname:      args[2].(string),
			address:       args[3].(string),
			phonenumber:   args[4].(string),
			email:         args[5].(string),
			paymentMethod: args[6].(string),
			paymentStatus: args[7].(string),
			notes:         args[8].(string),
			items:         append([]byte(nil), args[9].([]byte)...),
			itemsSummary:  args[10].(string),
			productsPrice: asInt64(args[11]),
			shippingCost:  asInt64(args[12]),
			totalPrice:    asInt64(args[13]),
			status:        "pending",
			createdAt:     now,
			updatedAt:     now,
		}
		return memRow{vals: []any{id}}
	case strings.Contains(sql, "FROM orders WHERE id=$1 FOR UPDATE"):
		if o, ok := t.orders[asInt64(args[0])]; ok {
			return memRow{vals: orderVals(o)}
		}
		return memRow{err: pgx.ErrNoRows}
	case strings.Contains(sql, "FROM orders WHERE display_id=$1 FOR UPDATE"):
		for _, o := range t.orders {
			if o.displayID == args[0].(string) {
				return memRow{vals: orderVals(o)}
			}
		}
		return memRow{err: pgx.ErrNoRows}
	}
	return memRow{err: pgx.ErrNoRows}
}

func (t *memTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case strings.Contains(sql, "UPDATE orders SET display_id=$1"):
		t.orders[asInt64(args[1])].displayID = args[0].(string)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case strings.Contains(sql, "UPDATE orders SET status=$1"):
		o := t.orders[asInt64(args[1])]
		o.status = args[0].(string)
		o.updatedAt = time.Now()
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case strings.Contains(sql, "stock = stock - $2") && strings.Contains(sql, "stock >= $2"):
		p := t.findProduct(sql, args[0])
		qty := asInt(args[1])
		if p == nil || p.stock < qty {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		p.stock -= qty
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case strings.Contains(sql, "stock = stock - $2"):
		p := t.products[asInt64(args[0])]
		if p == nil {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		p.stock -= asInt(args[1])
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case strings.Contains(sql, "stock = stock + $2"):
		p := t.findProduct(sql, args[0])
		if p == nil {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		p.stock += asInt(args[1])
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.NewCommandTag(""), fmt.Errorf("unsupported exec: %s", sql)
}

func (t *memTx) findProduct(sql string, arg any) *memProduct {
	if strings.Contains(sql, "WHERE business_id=$1") {
		for _, p := range t.products {
			if p.businessID == arg.(string) {
				return p
			}
		}
		return nil
	}
	return t.products[asInt64(arg)]
}

func orderVals(o *memOrder) []any {
	return []any{o.id, o.displayID, o.buyerID, o.firstname, o.lastname, o.address,
		o.phonenumber, o.email, o.paymentMethod, o.paymentStatus, o.notes, o.items, o.itemsSummary,
		o.productsPrice, o.shippingCost, o.totalPrice, o.status, o.createdAt, o.updatedAt}
}

type memRow struct {
	err  error
	vals []any
}

func (r memRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanVals(r.vals, dest)
}

type memRows struct {
	pgx.Rows
	rows [][]any
	i    int
}

func (r *memRows) Next() bool {
	r.i++
	return r.i <= len(r.rows)
}

func (r *memRows) Scan(dest ...any) error { return scanVals(r.rows[r.i-1], dest) }
func (r *memRows) Err() error             { return nil }
func (r *memRows) Close()                 {}

func scanVals(vals []any, dest []any) error {
	for i, d := range dest {
		v := vals[i]
		switch dd := d.(type) {
		case *int64:
			dd2 := asInt64(v)
			*dd = dd2
		case *int:
			*dd = asInt(v)
		case *string:
			*dd = v.(string)
		case **int64:
			p, _ := v.(*int64)
			if p == nil {
				*dd = nil
			} else {
				c := *p
				*dd = &c
			}
		case *[]byte:
			b, _ := v.([]byte)
			*dd = append([]byte(nil), b...)
		case *time.Time:
			*dd = v.(time.Time)
		default:
			return fmt.Errorf("unsupported scan dest %T", d)
		}
	}
	return nil
}

func asInt64(v any) int64 {
	switch vv := v.(type) {
	case int64:
		return vv
	case int:
		return int64(vv)
	}
	return 0
}

func asInt(v any) int {
	switch vv := v.(type) {
	case int:
		return vv
	case int64:
		return int(vv)
	}
	return 0
}
