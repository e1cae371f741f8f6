package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zestora/zestora-orders/internal/order/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "orders.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleOrders() []*domain.Order {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	newer := domain.NewOrder(
		[]domain.Item{{ID: "m1", Name: "Masala Dosa", Price: 150, Quantity: 1, RestaurantName: "Dosa Dreams"}},
		domain.PaymentUPI,
		domain.Address{Label: "Home", City: "Jaipur"},
		now.Add(time.Minute),
	)
	older := domain.NewOrder(
		[]domain.Item{{ID: "m2", Name: "Butter Naan", Price: 40, Quantity: 2}},
		domain.PaymentCashOnDelivery,
		domain.Address{Label: "Office", City: "Delhi"},
		now,
	)
	older.Status = domain.StatusDelivered
	return []*domain.Order{newer, older}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	orders := sampleOrders()
	require.NoError(t, store.Save(ctx, orders))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, orders[0].ID, loaded[0].ID)
	assert.Equal(t, orders[0].Totals, loaded[0].Totals)
	assert.Equal(t, domain.StatusDelivered, loaded[1].Status)
	assert.True(t, orders[1].CreatedAt.Equal(loaded[1].CreatedAt))
}

func TestSaveReplacesSnapshot(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleOrders()))
	require.NoError(t, store.Save(ctx, sampleOrders()[:1]))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1, "save replaces the whole collection")
}

func TestLoadEmptyDatabase(t *testing.T) {
	store := openTestStore(t)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadMalformedPayload(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleOrders()))

	_, err := store.db.ExecContext(ctx,
		`UPDATE order_snapshots SET payload = '{not json' WHERE name = ?`, store.name)
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err, "corruption must not surface as a startup error")
	assert.Empty(t, loaded)
}

func TestLoadUnknownSchemaVersion(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleOrders()))

	_, err := store.db.ExecContext(ctx,
		`UPDATE order_snapshots SET version = ? WHERE name = ?`, SchemaVersion+1, store.name)
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded, "snapshots from a different schema are discarded")
}
