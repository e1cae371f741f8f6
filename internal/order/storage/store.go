// Package storage defines the persistence port for the order collection.
//
// The engine persists the whole collection on every mutation (last writer
// wins); implementations only need snapshot semantics, not transactions.
package storage

import (
	"context"

	"github.com/zestora/zestora-orders/internal/order/domain"
)

// SnapshotName is the fixed key the order collection is stored under.
const SnapshotName = "zestora_orders"

// Store loads and saves the full order collection, most recent first.
// Load returns an empty collection when nothing has been stored yet.
type Store interface {
	Load(ctx context.Context) ([]*domain.Order, error)
	Save(ctx context.Context, orders []*domain.Order) error
}
