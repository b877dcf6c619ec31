package engine

import (
	"container/list"

	"github.com/google/btree"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

// bidItem orders the bid tree so that Min() always yields the highest
// price: Less compares descending. Grounded on the teacher's
// AskPriceLevel/BidPriceLevel split (internal/engine/model/PriceLevel.go),
// generalized here into one Book carrying both trees for a symbol.
type bidItem struct {
	price model.Price
	level *PriceLevel
}

func (b *bidItem) Less(than btree.Item) bool { return b.price > than.(*bidItem).price }

// askItem orders the ask tree ascending, so Min() yields the lowest price.
type askItem struct {
	price model.Price
	level *PriceLevel
}

func (a *askItem) Less(than btree.Item) bool { return a.price < than.(*askItem).price }

// Book is the two-sided, price-ordered resting-order book for one
// symbol (spec §3 Order Book, §4.2). Bids are kept in descending price
// order, asks ascending, each backed by a google/btree so best-of-book
// and level lookup are both O(log n) and iteration is ordered.
type Book struct {
	Symbol string
	bids   *btree.BTree
	asks   *btree.BTree
}

// NewBook constructs an empty book for symbol.
func NewBook(symbol string) *Book {
	return &Book{Symbol: symbol, bids: btree.New(32), asks: btree.New(32)}
}

// BestBid returns the highest resting bid price and its aggregate
// quantity, or ok=false if the bid side is empty.
func (b *Book) BestBid() (price model.Price, qty model.Quantity, ok bool) {
	item := b.bids.Min()
	if item == nil {
		return 0, 0, false
	}
	bi := item.(*bidItem)
	return bi.price, bi.level.TotalQuantity(), true
}

// BestAsk returns the lowest resting ask price and its aggregate
// quantity, or ok=false if the ask side is empty.
func (b *Book) BestAsk() (price model.Price, qty model.Quantity, ok bool) {
	item := b.asks.Min()
	if item == nil {
		return 0, 0, false
	}
	ai := item.(*askItem)
	return ai.price, ai.level.TotalQuantity(), true
}

// bestOpposingLevel returns the best level on the side opposite takerSide,
// or nil if that side is empty. Used by the matcher's walk loop.
func (b *Book) bestOpposingLevel(takerSide model.Side) *PriceLevel {
	if takerSide == model.Buy {
		item := b.asks.Min()
		if item == nil {
			return nil
		}
		return item.(*askItem).level
	}
	item := b.bids.Min()
	if item == nil {
		return nil
	}
	return item.(*bidItem).level
}

// hasOpposing reports whether takerSide has anything to match against.
func (b *Book) hasOpposing(takerSide model.Side) bool {
	return b.bestOpposingLevel(takerSide) != nil
}

// evictIfEmpty removes an exhausted level from its tree. Safe to call
// after a level's last order has been popped mid-walk since it deletes
// by key, not by iterating the tree it deletes from.
func (b *Book) evictIfEmpty(lvl *PriceLevel) {
	if !lvl.Empty() {
		return
	}
	if lvl.Side == model.Buy {
		b.bids.Delete(&bidItem{price: lvl.Price})
	} else {
		b.asks.Delete(&askItem{price: lvl.Price})
	}
}

// levelFor returns the level for (side, price), creating and inserting
// an empty one if it does not already exist.
func (b *Book) levelFor(side model.Side, price model.Price) *PriceLevel {
	if side == model.Buy {
		key := &bidItem{price: price}
		if existing := b.bids.Get(key); existing != nil {
			return existing.(*bidItem).level
		}
		key.level = newPriceLevel(side, price)
		b.bids.ReplaceOrInsert(key)
		return key.level
	}
	key := &askItem{price: price}
	if existing := b.asks.Get(key); existing != nil {
		return existing.(*askItem).level
	}
	key.level = newPriceLevel(side, price)
	b.asks.ReplaceOrInsert(key)
	return key.level
}

// InsertResting appends a Limit order to the tail of its (side, price)
// level and returns the handle the Order Index must retain for O(1)
// cancellation (spec §4.1, §4.3).
func (b *Book) InsertResting(o *model.Order) *pricelevelHandle {
	lvl := b.levelFor(o.Side, o.LimitPrice)
	el := lvl.Append(o)
	return &pricelevelHandle{level: lvl, el: el}
}

// pricelevelHandle is the opaque token the Order Index stores per resting
// order; it lets Cancel remove the order from its level in O(1) without
// re-walking the book.
type pricelevelHandle struct {
	level *PriceLevel
	el    *list.Element
}

// RemoveResting deletes the order at handle in O(1) and evicts its level
// if the level is now empty. Used by Cancel (spec §4.1, §4.3).
func (b *Book) RemoveResting(handle *pricelevelHandle) {
	handle.level.Remove(handle.el)
	b.evictIfEmpty(handle.level)
}

// RemoveLevel deletes the level at (side, price) if one exists. Used by
// journal reconstruction (spec §6) to apply a replayed DeltaLevelRemoved
// event.
func (b *Book) RemoveLevel(side model.Side, price model.Price) {
	if side == model.Buy {
		b.bids.Delete(&bidItem{price: price})
	} else {
		b.asks.Delete(&askItem{price: price})
	}
}

// RestoreLevelQuantity replaces the entire resting composition of o's
// (side, price) level with the single order o, returning its handle (or
// nil if o carries zero quantity, in which case the level is evicted
// instead). Used only by journal reconstruction: the journal records
// aggregate per-level deltas, not individual order identities, so a
// restored level cannot recover its original FIFO queue and is
// represented instead by one synthetic order carrying the level's whole
// remaining quantity.
func (b *Book) RestoreLevelQuantity(o *model.Order) *pricelevelHandle {
	lvl := b.levelFor(o.Side, o.LimitPrice)
	lvl.Reset()
	if o.RemainingQuantity == 0 {
		b.evictIfEmpty(lvl)
		return nil
	}
	el := lvl.Append(o)
	return &pricelevelHandle{level: lvl, el: el}
}

// PopFilledHead removes lvl's head order once fully filled and evicts
// the level from the tree if it is now empty. Called by the matcher
// after crediting a fill against the resting head order.
func (b *Book) PopFilledHead(lvl *PriceLevel) {
	lvl.PopHeadIfExhausted()
	b.evictIfEmpty(lvl)
}

// IsCrossed reports whether the book is in an illegal crossed state
// (best bid >= best ask). Must be false after every completed matching
// cycle (spec §8, non-crossed-book property).
func (b *Book) IsCrossed() bool {
	bid, _, hasBid := b.BestBid()
	ask, _, hasAsk := b.BestAsk()
	if !hasBid || !hasAsk {
		return false
	}
	return bid >= ask
}

// AscendLevels walks levels on side from best to worst, stopping before
// any level whose price would breach limit (nil means unbounded — used
// for depth snapshots). visit returning false
// stops the walk early. This is a read-only traversal: it must not be
// used to mutate levels reached mid-walk (see FOK's two-phase scan).
func (b *Book) AscendLevels(side model.Side, limit *model.Price, visit func(price model.Price, lvl *PriceLevel) bool) {
	if side == model.Buy {
		b.bids.Ascend(func(item btree.Item) bool {
			bi := item.(*bidItem)
			if limit != nil && bi.price < *limit {
				return false
			}
			return visit(bi.price, bi.level)
		})
		return
	}
	b.asks.Ascend(func(item btree.Item) bool {
		ai := item.(*askItem)
		if limit != nil && ai.price > *limit {
			return false
		}
		return visit(ai.price, ai.level)
	})
}

// UnboundedDepth passed to Depth returns every resting level on both
// sides, e.g. for the full-book snapshot a new subscriber must see
// before any delta can be meaningfully applied on top of it (spec §6,
// §9).
const UnboundedDepth = -1

// Depth materializes the top n levels of both sides plus aggregate
// resting volume, for Query responses and new-subscriber snapshots. n
// == UnboundedDepth returns every level; n == 0 legitimately returns
// none (a caller asking for zero levels still gets accurate volume
// totals).
func (b *Book) Depth(n int) (bids, asks []model.DepthLevel, bidVol, askVol model.Quantity) {
	unbounded := n == UnboundedDepth
	b.AscendLevels(model.Buy, nil, func(price model.Price, lvl *PriceLevel) bool {
		bidVol += lvl.TotalQuantity()
		if unbounded || len(bids) < n {
			bids = append(bids, model.DepthLevel{Price: price, Quantity: lvl.TotalQuantity(), OrderCount: lvl.OrderCount()})
		}
		return true
	})
	b.AscendLevels(model.Sell, nil, func(price model.Price, lvl *PriceLevel) bool {
		askVol += lvl.TotalQuantity()
		if unbounded || len(asks) < n {
			asks = append(asks, model.DepthLevel{Price: price, Quantity: lvl.TotalQuantity(), OrderCount: lvl.OrderCount()})
		}
		return true
	})
	return bids, asks, bidVol, askVol
}
