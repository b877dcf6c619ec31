package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

// MatchResult is what a single command produces: an ack (or a reject)
// plus zero or more trades and book-level deltas. Sequence numbers are
// not assigned here — the Event Sequencer stamps them once the Symbol
// Engine has committed the result (spec §4.4, §4.6).
type MatchResult struct {
	Ack    model.Ack
	Reject *RejectError
	Trades []model.Trade
	Deltas []model.BookDelta
}

// Matcher is the core matching algorithm for one symbol's book (spec §3
// Matcher, §4.4). It holds no locks and expects to be driven by exactly
// one goroutine (its owning Symbol Engine) in strict command-arrival
// order. Grounded on the teacher's OrderBookEngineImpl.matchOrder
// (internal/engine/OrderBookEngine.go), generalized from a single
// bid/ask pair walk into four order-type algorithms, and corrected: the
// teacher printed trades at min(askPrice, bidPrice), which lets an
// aggressive limit order improve on its own price; every trade here
// prints at the resting maker's price instead.
type Matcher struct {
	Symbol string

	book        *Book
	index       *orderIndex
	fees        *FeeSchedule
	nextTradeID model.TradeID
	nextSubSeq  uint64
	clock       func() int64
}

// NewMatcher constructs a Matcher with an empty book for symbol. clock
// supplies engine-local monotonic nanoseconds for order/trade
// timestamps; it is never wall-clock time used for ordering.
func NewMatcher(symbol string, fees *FeeSchedule, clock func() int64) *Matcher {
	return &Matcher{
		Symbol: symbol,
		book:   NewBook(symbol),
		index:  newOrderIndex(),
		fees:   fees,
		clock:  clock,
	}
}

// Book exposes the resting-order book for snapshotting and depth queries.
func (m *Matcher) Book() *Book { return m.book }

// ApplyNewOrder admits, matches, and — for Limit orders with quantity
// left over — rests cmd (spec §4.4). The four order types share one
// fill loop and differ only in how they bound it and what happens to
// any unfilled remainder.
func (m *Matcher) ApplyNewOrder(cmd model.NewOrderCommand, spec SymbolSpec, symbolKnown bool) MatchResult {
	if rej := admit(cmd, spec, symbolKnown); rej != nil {
		return MatchResult{Reject: rej}
	}

	m.nextSubSeq++
	o := &model.Order{
		ID:                model.OrderID(uuid.NewString()),
		ClientOrderID:     cmd.ClientOrderID,
		Symbol:            cmd.Symbol,
		Side:              cmd.Side,
		Type:              cmd.Type,
		LimitPrice:        cmd.Price,
		HasLimitPrice:     cmd.HasPrice,
		OriginalQuantity:  cmd.Quantity,
		RemainingQuantity: cmd.Quantity,
		SubmissionSeq:     m.nextSubSeq,
		Status:            model.StatusNew,
		Timestamp:         m.clock(),
		Tier:              cmd.Tier,
	}
	m.index.Put(o)

	var trades []model.Trade
	var deltas []model.BookDelta

	switch cmd.Type {
	case model.Market:
		if !m.book.hasOpposing(o.Side) {
			// An empty opposing side still terminates with an Ack, never a
			// Reject: the order is acked as Cancelled with no trades. The
			// Ack has no reason field, so NoLiquidity is not reported.
			o.Status = model.StatusCancelled
			break
		}
		trades, deltas = m.fillAgainstBook(o, nil)
		if o.RemainingQuantity > 0 {
			// any unfilled remainder of a Market order is dropped, never
			// rested; it still terminates Filled once it has any fill.
			o.Status = model.StatusFilled
		}

	case model.Limit:
		limit := o.LimitPrice
		trades, deltas = m.fillAgainstBook(o, &limit)
		if o.RemainingQuantity > 0 {
			handle := m.book.InsertResting(o)
			m.index.SetHandle(o.ID, handle)
			deltas = append(deltas, model.BookDelta{Side: o.Side, Price: o.LimitPrice, NewTotalQuantity: handle.level.TotalQuantity(), Kind: model.DeltaLevelUpdate, Timestamp: m.clock()})
		}

	case model.IOC:
		limit := o.LimitPrice
		trades, deltas = m.fillAgainstBook(o, &limit)
		if o.RemainingQuantity > 0 {
			// unfilled remainder is dropped, never rested; the residual
			// terminates Cancelled even if part of it already filled.
			o.Status = model.StatusCancelled
		}

	case model.FOK:
		limit := o.LimitPrice
		if available := m.availableWithin(o.Side, limit); available < o.RemainingQuantity {
			o.Status = model.StatusCancelled
			return MatchResult{Reject: reject(model.ErrInsufficientLiquidity,
				"only %d available at or better than %d, need %d", available, limit, o.RemainingQuantity)}
		}
		trades, deltas = m.fillAgainstBook(o, &limit)
	}

	ack := model.Ack{OrderID: o.ID, Status: o.Status, Trades: trades}
	if o.FilledQuantity() > 0 {
		ack.AvgFillPrice = volumeWeightedPrice(trades)
		ack.HasAvgFill = true
	}
	return MatchResult{Ack: ack, Trades: trades, Deltas: deltas}
}

// ApplyCancel cancels a resting or partially-filled order (spec §4.4,
// §4.5 Cancel semantics).
func (m *Matcher) ApplyCancel(cmd model.CancelCommand) MatchResult {
	o, ok := m.index.Get(cmd.OrderID)
	if !ok {
		return MatchResult{Reject: reject(model.ErrUnknownOrder, "no such order %q", cmd.OrderID)}
	}
	if o.Status.Terminal() {
		return MatchResult{Reject: reject(model.ErrAlreadyTerminal, "order %q is already %s", cmd.OrderID, o.Status)}
	}

	var deltas []model.BookDelta
	if handle := m.index.Handle(cmd.OrderID); handle != nil {
		lvl := handle.level
		m.book.RemoveResting(handle)
		deltas = append(deltas, model.BookDelta{Side: o.Side, Price: o.LimitPrice, NewTotalQuantity: lvl.TotalQuantity(), Kind: deltaKindFor(lvl), Timestamp: m.clock()})
	}
	o.Status = model.StatusCancelled

	return MatchResult{Ack: model.Ack{OrderID: o.ID, Status: o.Status}, Deltas: deltas}
}

// RestoreLevel applies one replayed BookDelta to the book during journal
// reconstruction (spec §6 warm-start). The journal only records each
// level's aggregate remaining quantity at the moment of the delta, not
// which individual orders composed it, so a restored level is
// represented by a single synthetic resting order carrying the level's
// whole remaining quantity rather than the original FIFO queue —
// sufficient to resume matching correctly, but it does not reproduce
// per-order fill priority within the level as it stood before restart.
// Deltas must be applied in the same ascending sequence order the
// journal recorded them in, since a later delta for the same (side,
// price) entirely supersedes an earlier one.
func (m *Matcher) RestoreLevel(d model.BookDelta) {
	if d.Kind == model.DeltaLevelRemoved || d.NewTotalQuantity == 0 {
		m.book.RemoveLevel(d.Side, d.Price)
		return
	}
	m.nextSubSeq++
	o := &model.Order{
		ID:                model.OrderID(fmt.Sprintf("restored-%s-%d-%d", d.Side, d.Price, m.nextSubSeq)),
		Symbol:            m.Symbol,
		Side:              d.Side,
		Type:              model.Limit,
		LimitPrice:        d.Price,
		HasLimitPrice:     true,
		OriginalQuantity:  d.NewTotalQuantity,
		RemainingQuantity: d.NewTotalQuantity,
		SubmissionSeq:     m.nextSubSeq,
		Status:            model.StatusNew,
		Timestamp:         m.clock(),
	}
	handle := m.book.RestoreLevelQuantity(o)
	m.index.Put(o)
	if handle != nil {
		m.index.SetHandle(o.ID, handle)
	}
}

// RestoreTradeID fast-forwards the trade-ID counter past id, so trades
// minted after a journal-backed warm-start never collide with replayed
// trade IDs.
func (m *Matcher) RestoreTradeID(id model.TradeID) {
	if id > m.nextTradeID {
		m.nextTradeID = id
	}
}

// fillAgainstBook walks the opposing side of the book from best price,
// bound by limit (nil means unbounded, i.e. a Market order), filling
// taker against resting orders until taker is exhausted or the book
// stops crossing. Every fill prints at the resting maker's level price.
func (m *Matcher) fillAgainstBook(taker *model.Order, limit *model.Price) (trades []model.Trade, deltas []model.BookDelta) {
	for taker.RemainingQuantity > 0 {
		lvl := m.book.bestOpposingLevel(taker.Side)
		if lvl == nil {
			break
		}
		if limit != nil && !crosses(taker.Side, *limit, lvl.Price) {
			break
		}
		maker := lvl.PeekHead()
		if maker == nil {
			break
		}

		fillQty := minQty(taker.RemainingQuantity, maker.RemainingQuantity)
		trade := m.buildTrade(taker, maker, lvl.Price, fillQty)
		trades = append(trades, trade)

		taker.Fill(fillQty)
		maker.Fill(fillQty)
		lvl.NoteHeadFill(fillQty)

		if maker.IsFilled() {
			m.book.PopFilledHead(lvl)
		}
		deltas = append(deltas, model.BookDelta{Side: lvl.Side, Price: lvl.Price, NewTotalQuantity: lvl.TotalQuantity(), Kind: deltaKindFor(lvl), Timestamp: m.clock()})
	}
	return trades, deltas
}

// availableWithin sums resting quantity on side's opposing book that a
// taker on side could legally reach at or better than limit, without
// mutating anything. Used by FOK's feasibility scan (spec §4.4): the
// scan and the execution below it must see the identical book state,
// so no order may be admitted between them — the Symbol Engine
// guarantees that by construction (single-writer, one command at a time).
func (m *Matcher) availableWithin(takerSide model.Side, limit model.Price) model.Quantity {
	var total model.Quantity
	m.book.AscendLevels(takerSide.Opposite(), &limit, func(_ model.Price, lvl *PriceLevel) bool {
		total += lvl.TotalQuantity()
		return true
	})
	return total
}

func (m *Matcher) buildTrade(taker, maker *model.Order, price model.Price, qty model.Quantity) model.Trade {
	m.nextTradeID++
	makerFee := m.fees.Lookup(m.Symbol, Maker, maker.Tier)
	takerFee := m.fees.Lookup(m.Symbol, Taker, taker.Tier)
	return model.Trade{
		TradeID:       m.nextTradeID,
		Symbol:        m.Symbol,
		Price:         price,
		Quantity:      qty,
		MakerOrderID:  maker.ID,
		TakerOrderID:  taker.ID,
		AggressorSide: taker.Side,
		MakerFeeRate:  makerFee.Rate,
		TakerFeeRate:  takerFee.Rate,
		FeeCurrency:   makerFee.Currency,
		Timestamp:     m.clock(),
	}
}

// crosses reports whether a resting level at levelPrice is reachable by
// a taker on takerSide bound by limit.
func crosses(takerSide model.Side, limit, levelPrice model.Price) bool {
	if takerSide == model.Buy {
		return levelPrice <= limit
	}
	return levelPrice >= limit
}

func deltaKindFor(lvl *PriceLevel) model.DeltaKind {
	if lvl.Empty() {
		return model.DeltaLevelRemoved
	}
	return model.DeltaLevelUpdate
}

func minQty(a, b model.Quantity) model.Quantity {
	if a < b {
		return a
	}
	return b
}

// volumeWeightedPrice is the quantity-weighted average trade price,
// used to populate Ack.AvgFillPrice (supplemented from the original
// Python reference's average-fill-price-on-ack behavior).
func volumeWeightedPrice(trades []model.Trade) model.Price {
	if len(trades) == 0 {
		return 0
	}
	var notional, qty int64
	for _, t := range trades {
		notional += int64(t.Price) * int64(t.Quantity)
		qty += int64(t.Quantity)
	}
	if qty == 0 {
		return 0
	}
	return model.Price(notional / qty)
}
