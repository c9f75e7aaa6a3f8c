package wizard

import (
	"context"
	"sync"
)

// MemoryGateway keeps snapshots in process memory. Snapshots are stored
// encoded so they round-trip exactly like the durable gateways.
type MemoryGateway struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemoryGateway builds an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{items: make(map[string][]byte)}
}

var _ PersistenceGateway = (*MemoryGateway)(nil)

func (g *MemoryGateway) Load(_ context.Context, key SnapshotKey) (*Snapshot, error) {
	g.mu.Lock()
	data, ok := g.items[key.String()]
	g.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeSnapshot(data)
}

func (g *MemoryGateway) Save(_ context.Context, key SnapshotKey, snap Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.items[key.String()] = data
	g.mu.Unlock()
	return nil
}

func (g *MemoryGateway) Delete(_ context.Context, key SnapshotKey) error {
	g.mu.Lock()
	delete(g.items, key.String())
	g.mu.Unlock()
	return nil
}
