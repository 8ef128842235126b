package session

import (
	"sort"
	"sync"
	"time"

	"github.com/thatdecade/ITGmania-Remote-Control-Tests/internal/protocol"
)

// PendingRequest tracks one request awaiting its response kind.
type PendingRequest struct {
	Command      protocol.Command
	Expect       protocol.ResponseKind
	ConnectionID string
	SentAt       time.Time
	DeadlineAt   time.Time
}

// InflightTable stores outstanding requests keyed by expected response
// kind. The per-kind permit guarantees at most one entry per key.
type InflightTable struct {
	mu    sync.RWMutex
	items map[protocol.ResponseKind]PendingRequest
}

func NewInflightTable() *InflightTable {
	return &InflightTable{
		items: make(map[protocol.ResponseKind]PendingRequest),
	}
}

func (t *InflightTable) Upsert(item PendingRequest) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[item.Expect] = item
}

func (t *InflightTable) Remove(kind protocol.ResponseKind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.items, kind)
}

func (t *InflightTable) Get(kind protocol.ResponseKind) (PendingRequest, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, ok := t.items[kind]
	return item, ok
}

func (t *InflightTable) List() []PendingRequest {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]PendingRequest, 0, len(t.items))
	for _, item := range t.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Expect < out[j].Expect
	})
	return out
}
