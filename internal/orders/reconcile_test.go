package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
)

// Status validation happens before the transaction opens, so these paths
// need no database.
func TestUpdateStatusValidation(t *testing.T) {
	r := &Reconciler{Classifier: testClassifier()}
	ctx := context.Background()

	_, _, err := r.UpdateStatus(ctx, "ORD00001", "")
	assert.Equal(t, CodeValidation, CodeOf(err))

	_, _, err = r.UpdateStatus(ctx, "ORD00001", "   ")
	assert.Equal(t, CodeValidation, CodeOf(err))

	_, _, err = r.UpdateStatus(ctx, "ORD00001", "archived")
	assert.Equal(t, CodeValidation, CodeOf(err),
		"unclassified statuses must be rejected, not treated as stock-neutral")
}

func testReconciler(db *memDB) *Reconciler {
	return &Reconciler{
		DB:         db,
		Catalog:    &catalog.Store{DB: db},
		Classifier: testClassifier(),
		Repo:       &Repo{DB: db},
	}
}

func placeTestOrder(t *testing.T, db *memDB, qty string) *Order {
	t.Helper()
	ord, err := testPlacer(db).PlaceOrder(context.Background(), nil,
		[]ItemRef{{ProductID: "1", Quantity: Number(qty)}}, Details{})
	require.NoError(t, err)
	return ord
}

func TestUpdateStatusRestoresAndRededucts(t *testing.T) {
	db := newMemDB(&memProduct{id: 1, businessID: "PID00001", name: "Shirt", priceCents: 1000, stock: 10})
	ctx := context.Background()
	r := testReconciler(db)

	ord := placeTestOrder(t, db, "3")
	require.Equal(t, 7, db.products[1].stock)

	// active -> returned restores the snapshot quantities
	upd, tr, err := r.UpdateStatus(ctx, ord.DisplayID, "Cancelled")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", upd.Status)
	assert.Equal(t, EffectRestore, tr.Effect)
	assert.Equal(t, "pending", tr.PreviousStatus)
	assert.Equal(t, 10, db.products[1].stock)

	// returned -> active takes the stock back
	upd, tr, err = r.UpdateStatus(ctx, ord.DisplayID, "processing")
	require.NoError(t, err)
	assert.Equal(t, "processing", upd.Status)
	assert.Equal(t, EffectDeduct, tr.Effect)
	assert.Equal(t, 7, db.products[1].stock)
}

func TestUpdateStatusSameClassIsStockNeutral(t *testing.T) {
	db := newMemDB(&memProduct{id: 1, businessID: "PID00001", name: "Shirt", priceCents: 1000, stock: 10})
	ctx := context.Background()
	r := testReconciler(db)

	ord := placeTestOrder(t, db, "2")
	require.Equal(t, 8, db.products[1].stock)

	upd, tr, err := r.UpdateStatus(ctx, ord.DisplayID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, "shipped", upd.Status)
	assert.Equal(t, EffectNone, tr.Effect)
	assert.Equal(t, 8, db.products[1].stock)

	// a second transition within the returned class is also neutral
	_, _, err = r.UpdateStatus(ctx, ord.DisplayID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, 10, db.products[1].stock)

	upd, tr, err = r.UpdateStatus(ctx, ord.DisplayID, "refunded")
	require.NoError(t, err)
	assert.Equal(t, "refunded", upd.Status)
	assert.Equal(t, EffectNone, tr.Effect)
	assert.Equal(t, 10, db.products[1].stock)
}

func TestUpdateStatusRedeductInsufficientStockAborts(t *testing.T) {
	db := newMemDB(&memProduct{id: 1, businessID: "PID00001", name: "Shirt", priceCents: 1000, stock: 10})
	ctx := context.Background()
	r := testReconciler(db)

	ord := placeTestOrder(t, db, "3")
	_, _, err := r.UpdateStatus(ctx, ord.DisplayID, "cancelled")
	require.NoError(t, err)
	require.Equal(t, 10, db.products[1].stock)

	// stock drained by other sales since the cancellation
	db.products[1].stock = 1

	_, _, err = r.UpdateStatus(ctx, ord.DisplayID, "confirmed")
	require.Error(t, err)
	assert.Equal(t, CodeInsufficientStock, CodeOf(err))

	refreshed, err := r.Repo.GetByRef(ctx, ord.DisplayID, nil)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", refreshed.Status, "failed reactivation must not change status")
	assert.Equal(t, 1, db.products[1].stock, "failed reactivation must not touch stock")
}

func TestUpdateStatusOrderNotFound(t *testing.T) {
	db := newMemDB()
	_, _, err := testReconciler(db).UpdateStatus(context.Background(), "ORD09999", "cancelled")
	assert.Equal(t, CodeOrderNotFound, CodeOf(err))
}

func TestUpdateStatusGarbledSnapshotStillTransitions(t *testing.T) {
	db := newMemDB(&memProduct{id: 1, businessID: "PID00001", name: "Shirt", priceCents: 1000, stock: 10})
	ctx := context.Background()
	r := testReconciler(db)

	ord := placeTestOrder(t, db, "2")
	require.Equal(t, 8, db.products[1].stock)
	db.orders[ord.ID].items = []byte("not a snapshot")

	upd, _, err := r.UpdateStatus(ctx, ord.DisplayID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", upd.Status)
	assert.Equal(t, 8, db.products[1].stock, "unreadable snapshot downgrades to a status-only update")
}

func TestUpdateStatusRestoreSurvivesDeletedProduct(t *testing.T) {
	db := newMemDB(&memProduct{id: 1, businessID: "PID00001", name: "Shirt", priceCents: 1000, stock: 10})
	ctx := context.Background()
	r := testReconciler(db)

	ord := placeTestOrder(t, db, "2")
	delete(db.products, 1)

	upd, tr, err := r.UpdateStatus(ctx, ord.DisplayID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", upd.Status)
	assert.Equal(t, EffectRestore, tr.Effect)
}
