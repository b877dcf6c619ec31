package engine

import (
	"container/list"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

// PriceLevel is a FIFO queue of resting orders sharing one price and one
// side of one symbol's book (spec §3 Price Level, §4.1). Orders are
// ordered by submission-sequence ascending; the level is meaningless
// once its queue is empty and is expected to be evicted from the Book
// at that point.
type PriceLevel struct {
	Side     model.Side
	Price    model.Price
	orders   *list.List // element.Value is *model.Order
	totalQty model.Quantity
}

func newPriceLevel(side model.Side, price model.Price) *PriceLevel {
	return &PriceLevel{Side: side, Price: price, orders: list.New()}
}

// Append adds an order to the tail of the level in O(1) and returns the
// handle the Order Index stores for later O(1) removal.
func (pl *PriceLevel) Append(o *model.Order) *list.Element {
	el := pl.orders.PushBack(o)
	pl.totalQty += o.RemainingQuantity
	return el
}

// PeekHead returns the oldest resting order, or nil if the level is empty.
func (pl *PriceLevel) PeekHead() *model.Order {
	if el := pl.orders.Front(); el != nil {
		return el.Value.(*model.Order)
	}
	return nil
}

// PopHeadIfExhausted removes the head order once its remaining quantity
// has reached zero. No-op if the level is empty or the head still has
// quantity left.
func (pl *PriceLevel) PopHeadIfExhausted() {
	el := pl.orders.Front()
	if el == nil {
		return
	}
	if el.Value.(*model.Order).RemainingQuantity == 0 {
		pl.orders.Remove(el)
	}
}

// Remove evicts the order at handle in O(1); used by Cancel.
func (pl *PriceLevel) Remove(handle *list.Element) {
	o := handle.Value.(*model.Order)
	pl.totalQty -= o.RemainingQuantity
	pl.orders.Remove(handle)
}

// NoteHeadFill decrements the level's incrementally maintained total by
// the quantity just taken from the head order, without removing it.
func (pl *PriceLevel) NoteHeadFill(qty model.Quantity) {
	pl.totalQty -= qty
}

// TotalQuantity is the sum of remaining quantity across all orders resting
// in this level, maintained incrementally rather than recomputed.
func (pl *PriceLevel) TotalQuantity() model.Quantity { return pl.totalQty }

// Empty reports whether the level has no resting orders left.
func (pl *PriceLevel) Empty() bool { return pl.orders.Len() == 0 }

// OrderCount is the number of orders resting in the level.
func (pl *PriceLevel) OrderCount() int { return pl.orders.Len() }

// Reset clears every resting order from the level. Used only by journal
// reconstruction (spec §6), which replaces a level's original FIFO
// composition with a single synthetic order carrying its aggregate
// remaining quantity.
func (pl *PriceLevel) Reset() {
	pl.orders.Init()
	pl.totalQty = 0
}
