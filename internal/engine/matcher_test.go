package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

func testSpec() SymbolSpec {
	return SymbolSpec{Symbol: "BTC-USD", TickSize: 1, LotSize: 1, MinPrice: 1, MinQty: 1}
}

func testFees() *FeeSchedule {
	return NewFeeSchedule(FeeScheduleConfig{
		QuoteCurrency: "USD",
		Tiers: map[string]TierRates{
			"": {MakerRate: 0.0001, TakerRate: 0.0005},
		},
	})
}

func newTestMatcher() *Matcher {
	return NewMatcher("BTC-USD", testFees(), func() int64 { return 0 })
}

func limitCmd(id string, side model.Side, price, qty int64) model.NewOrderCommand {
	return model.NewOrderCommand{ClientOrderID: id, Symbol: "BTC-USD", Side: side, Type: model.Limit, Price: model.Price(price), HasPrice: true, Quantity: model.Quantity(qty)}
}

func TestLimitOrder_RestsWhenNonCrossing(t *testing.T) {
	m := newTestMatcher()
	res := m.ApplyNewOrder(limitCmd("a1", model.Buy, 100, 5), testSpec(), true)
	require.Nil(t, res.Reject)
	assert.Equal(t, model.StatusNew, res.Ack.Status)
	assert.Empty(t, res.Trades)

	bid, qty, ok := m.Book().BestBid()
	require.True(t, ok)
	assert.Equal(t, model.Price(100), bid)
	assert.Equal(t, model.Quantity(5), qty)
}

func TestLimitOrder_TradesPrintAtMakerPrice(t *testing.T) {
	m := newTestMatcher()
	makerRes := m.ApplyNewOrder(limitCmd("maker", model.Sell, 100, 10), testSpec(), true)
	require.Nil(t, makerRes.Reject)

	// Aggressive buy willing to pay 105 must still trade at the resting
	// maker's price of 100, never at its own limit (spec §4.4).
	takerRes := m.ApplyNewOrder(limitCmd("taker", model.Buy, 105, 4), testSpec(), true)
	require.Nil(t, takerRes.Reject)
	require.Len(t, takerRes.Trades, 1)
	assert.Equal(t, model.Price(100), takerRes.Trades[0].Price)
	assert.Equal(t, model.Quantity(4), takerRes.Trades[0].Quantity)

	// The taker's 4 are fully filled against the maker's 10, so nothing
	// of the taker is left to rest.
	takerOrder, ok := m.index.Get(model.OrderID(takerRes.Ack.OrderID))
	require.True(t, ok)
	assert.Equal(t, model.Quantity(0), takerOrder.RemainingQuantity)
}

func TestLimitOrder_PartialFillRestsRemainder(t *testing.T) {
	m := newTestMatcher()
	_ = m.ApplyNewOrder(limitCmd("maker", model.Sell, 100, 3), testSpec(), true)
	takerRes := m.ApplyNewOrder(limitCmd("taker", model.Buy, 100, 10), testSpec(), true)
	require.Nil(t, takerRes.Reject)
	require.Len(t, takerRes.Trades, 1)
	assert.Equal(t, model.Quantity(3), takerRes.Trades[0].Quantity)

	bid, qty, ok := m.Book().BestBid()
	require.True(t, ok)
	assert.Equal(t, model.Price(100), bid)
	assert.Equal(t, model.Quantity(7), qty)
	assert.False(t, m.Book().IsCrossed())
}

func TestPriceTimePriority_FIFOAtSamePrice(t *testing.T) {
	m := newTestMatcher()
	firstRes := m.ApplyNewOrder(limitCmd("first", model.Sell, 100, 5), testSpec(), true)
	require.Nil(t, firstRes.Reject)
	_ = m.ApplyNewOrder(limitCmd("second", model.Sell, 100, 5), testSpec(), true)

	takerRes := m.ApplyNewOrder(limitCmd("taker", model.Buy, 100, 5), testSpec(), true)
	require.Nil(t, takerRes.Reject)
	require.Len(t, takerRes.Trades, 1)
	assert.Equal(t, firstRes.Ack.OrderID, takerRes.Trades[0].MakerOrderID)
}

func TestMarketOrder_NoLiquidityStillAcksAsCancelled(t *testing.T) {
	m := newTestMatcher()
	res := m.ApplyNewOrder(model.NewOrderCommand{ClientOrderID: "m1", Symbol: "BTC-USD", Side: model.Buy, Type: model.Market, Quantity: 5}, testSpec(), true)
	require.Nil(t, res.Reject, "NoLiquidity terminates with an Ack, not a Reject")
	assert.Equal(t, model.StatusCancelled, res.Ack.Status)
	assert.NotEmpty(t, res.Ack.OrderID)
	assert.Empty(t, res.Trades)

	order, ok := m.index.Get(res.Ack.OrderID)
	require.True(t, ok, "the order must still be indexed so a later Cancel sees AlreadyTerminal")
	assert.True(t, order.Status.Terminal())
}

func TestMarketOrder_UnfilledRemainderNeverRests(t *testing.T) {
	m := newTestMatcher()
	_ = m.ApplyNewOrder(limitCmd("maker", model.Sell, 100, 3), testSpec(), true)
	res := m.ApplyNewOrder(model.NewOrderCommand{ClientOrderID: "m1", Symbol: "BTC-USD", Side: model.Buy, Type: model.Market, Quantity: 10}, testSpec(), true)
	require.Nil(t, res.Reject)
	assert.Equal(t, model.Quantity(3), res.Trades[0].Quantity)
	assert.Equal(t, model.StatusFilled, res.Ack.Status, "a Market order with any fill terminates Filled even with a dropped remainder")
	_, _, ok := m.Book().BestAsk()
	assert.False(t, ok)
	_, _, ok = m.Book().BestBid()
	assert.False(t, ok, "unfilled market remainder must never rest")
}

func TestIOC_UnfilledRemainderNeverRests(t *testing.T) {
	m := newTestMatcher()
	_ = m.ApplyNewOrder(limitCmd("maker", model.Sell, 100, 2), testSpec(), true)
	cmd := limitCmd("ioc1", model.Buy, 100, 10)
	cmd.Type = model.IOC
	res := m.ApplyNewOrder(cmd, testSpec(), true)
	require.Nil(t, res.Reject)
	assert.Equal(t, model.Quantity(2), res.Trades[0].Quantity)
	assert.Equal(t, model.StatusCancelled, res.Ack.Status, "an IOC residual terminates Cancelled even with a prior partial fill")
	_, _, ok := m.Book().BestBid()
	assert.False(t, ok)
}

func TestFOK_RejectsWhenInsufficientLiquidity(t *testing.T) {
	m := newTestMatcher()
	_ = m.ApplyNewOrder(limitCmd("maker", model.Sell, 100, 3), testSpec(), true)
	cmd := limitCmd("fok1", model.Buy, 100, 10)
	cmd.Type = model.FOK
	res := m.ApplyNewOrder(cmd, testSpec(), true)
	require.NotNil(t, res.Reject)
	assert.Equal(t, model.ErrInsufficientLiquidity, res.Reject.Kind)

	// Rejection must not have mutated the book at all.
	_, qty, ok := m.Book().BestAsk()
	require.True(t, ok)
	assert.Equal(t, model.Quantity(3), qty)
}

func TestFOK_FillsCompletelyWhenLiquiditySufficient(t *testing.T) {
	m := newTestMatcher()
	_ = m.ApplyNewOrder(limitCmd("maker1", model.Sell, 100, 5), testSpec(), true)
	_ = m.ApplyNewOrder(limitCmd("maker2", model.Sell, 101, 5), testSpec(), true)

	cmd := limitCmd("fok1", model.Buy, 101, 10)
	cmd.Type = model.FOK
	res := m.ApplyNewOrder(cmd, testSpec(), true)
	require.Nil(t, res.Reject)
	require.Len(t, res.Trades, 2)
	assert.Equal(t, model.StatusFilled, res.Ack.Status)
}

func TestCancel_UnknownOrderRejects(t *testing.T) {
	m := newTestMatcher()
	res := m.ApplyCancel(model.CancelCommand{OrderID: "does-not-exist"})
	require.NotNil(t, res.Reject)
	assert.Equal(t, model.ErrUnknownOrder, res.Reject.Kind)
}

func TestCancel_AlreadyTerminalRejects(t *testing.T) {
	m := newTestMatcher()
	res := m.ApplyNewOrder(limitCmd("a1", model.Buy, 100, 5), testSpec(), true)
	require.Nil(t, res.Reject)
	orderID := res.Ack.OrderID

	cancelRes := m.ApplyCancel(model.CancelCommand{OrderID: orderID})
	require.Nil(t, cancelRes.Reject)

	secondCancel := m.ApplyCancel(model.CancelCommand{OrderID: orderID})
	require.NotNil(t, secondCancel.Reject)
	assert.Equal(t, model.ErrAlreadyTerminal, secondCancel.Reject.Kind)
}

func TestCancel_RemovesRestingOrderFromBook(t *testing.T) {
	m := newTestMatcher()
	res := m.ApplyNewOrder(limitCmd("a1", model.Buy, 100, 5), testSpec(), true)
	require.Nil(t, res.Reject)

	cancelRes := m.ApplyCancel(model.CancelCommand{OrderID: res.Ack.OrderID})
	require.Nil(t, cancelRes.Reject)
	require.Len(t, cancelRes.Deltas, 1)
	assert.Equal(t, model.DeltaLevelRemoved, cancelRes.Deltas[0].Kind)

	_, _, ok := m.Book().BestBid()
	assert.False(t, ok)
}

func TestAdmission_RejectsUnknownSymbol(t *testing.T) {
	m := newTestMatcher()
	res := m.ApplyNewOrder(limitCmd("a1", model.Buy, 100, 5), testSpec(), false)
	require.NotNil(t, res.Reject)
	assert.Equal(t, model.ErrUnknownSymbol, res.Reject.Kind)
}

func TestAdmission_RejectsMarketWithPrice(t *testing.T) {
	m := newTestMatcher()
	cmd := model.NewOrderCommand{ClientOrderID: "a1", Symbol: "BTC-USD", Side: model.Buy, Type: model.Market, Price: 100, HasPrice: true, Quantity: 5}
	res := m.ApplyNewOrder(cmd, testSpec(), true)
	require.NotNil(t, res.Reject)
	assert.Equal(t, model.ErrMalformedOrder, res.Reject.Kind)
}

func TestAdmission_RejectsLimitWithoutPrice(t *testing.T) {
	m := newTestMatcher()
	cmd := model.NewOrderCommand{ClientOrderID: "a1", Symbol: "BTC-USD", Side: model.Buy, Type: model.Limit, Quantity: 5}
	res := m.ApplyNewOrder(cmd, testSpec(), true)
	require.NotNil(t, res.Reject)
	assert.Equal(t, model.ErrMalformedOrder, res.Reject.Kind)
}

func TestConservationOfQuantity(t *testing.T) {
	m := newTestMatcher()
	_ = m.ApplyNewOrder(limitCmd("maker", model.Sell, 100, 10), testSpec(), true)
	res := m.ApplyNewOrder(limitCmd("taker", model.Buy, 100, 6), testSpec(), true)
	require.Nil(t, res.Reject)

	var traded model.Quantity
	for _, tr := range res.Trades {
		traded += tr.Quantity
	}
	assert.Equal(t, model.Quantity(6), traded)

	_, restingQty, ok := m.Book().BestAsk()
	require.True(t, ok)
	assert.Equal(t, model.Quantity(4), restingQty)
}

func TestBookNeverEndsCrossed(t *testing.T) {
	m := newTestMatcher()
	_ = m.ApplyNewOrder(limitCmd("s1", model.Sell, 100, 5), testSpec(), true)
	_ = m.ApplyNewOrder(limitCmd("s2", model.Sell, 101, 5), testSpec(), true)
	_ = m.ApplyNewOrder(limitCmd("b1", model.Buy, 102, 12), testSpec(), true)
	assert.False(t, m.Book().IsCrossed())
}
