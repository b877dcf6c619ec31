package engine

import "github.com/novaclob/matching-engine/internal/engine/model"

// orderIndex is the Order Index (spec §3, §4.3): an O(1) map from
// OrderID to the live order plus its resting handle, so Cancel never
// needs to walk the book. One instance lives per Symbol Engine and is
// touched only by that engine's single goroutine.
type orderIndex struct {
	entries map[model.OrderID]*indexEntry
}

type indexEntry struct {
	order  *model.Order
	handle *pricelevelHandle // nil until/unless the order rests in a level
}

func newOrderIndex() *orderIndex {
	return &orderIndex{entries: make(map[model.OrderID]*indexEntry)}
}

// Put registers a newly admitted order, with no resting handle yet.
func (idx *orderIndex) Put(o *model.Order) {
	idx.entries[o.ID] = &indexEntry{order: o}
}

// SetHandle records the resting-level handle for an order that just
// joined the book, once it stops crossing.
func (idx *orderIndex) SetHandle(id model.OrderID, handle *pricelevelHandle) {
	if e, ok := idx.entries[id]; ok {
		e.handle = handle
	}
}

// Get returns the live order and ok=true if id is known to the index.
func (idx *orderIndex) Get(id model.OrderID) (*model.Order, bool) {
	e, ok := idx.entries[id]
	if !ok {
		return nil, false
	}
	return e.order, true
}

// Handle returns the resting handle for id, or nil if the order is not
// currently resting in any level (fully filled, cancelled, or an
// aggressive order that never rested).
func (idx *orderIndex) Handle(id model.OrderID) *pricelevelHandle {
	e, ok := idx.entries[id]
	if !ok || e.order.Status.Terminal() {
		return nil
	}
	return e.handle
}
