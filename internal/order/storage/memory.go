package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/zestora/zestora-orders/internal/order/domain"
)

// MemoryStore keeps the snapshot in process memory. It round-trips through
// JSON so callers get the same value semantics as a durable store.
type MemoryStore struct {
	mu      sync.Mutex
	payload []byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.payload == nil {
		return nil, nil
	}
	var orders []*domain.Order
	if err := json.Unmarshal(m.payload, &orders); err != nil {
		return nil, fmt.Errorf("memory store: decode snapshot: %w", err)
	}
	return orders, nil
}

func (m *MemoryStore) Save(_ context.Context, orders []*domain.Order) error {
	payload, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("memory store: encode snapshot: %w", err)
	}
	m.mu.Lock()
	m.payload = payload
	m.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
