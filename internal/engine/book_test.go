package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

func TestBook_BestBidIsHighestPrice(t *testing.T) {
	b := NewBook("BTC-USD")
	b.InsertResting(&model.Order{ID: "1", Side: model.Buy, LimitPrice: 100, RemainingQuantity: 1})
	b.InsertResting(&model.Order{ID: "2", Side: model.Buy, LimitPrice: 105, RemainingQuantity: 1})
	b.InsertResting(&model.Order{ID: "3", Side: model.Buy, LimitPrice: 99, RemainingQuantity: 1})

	price, _, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, model.Price(105), price)
}

func TestBook_BestAskIsLowestPrice(t *testing.T) {
	b := NewBook("BTC-USD")
	b.InsertResting(&model.Order{ID: "1", Side: model.Sell, LimitPrice: 110, RemainingQuantity: 1})
	b.InsertResting(&model.Order{ID: "2", Side: model.Sell, LimitPrice: 100, RemainingQuantity: 1})

	price, _, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, model.Price(100), price)
}

func TestBook_RemoveRestingEvictsEmptyLevel(t *testing.T) {
	b := NewBook("BTC-USD")
	order := &model.Order{ID: "1", Side: model.Buy, LimitPrice: 100, RemainingQuantity: 5}
	handle := b.InsertResting(order)

	b.RemoveResting(handle)

	_, _, ok := b.BestBid()
	assert.False(t, ok)
}

func TestBook_RemoveRestingKeepsSiblingOrdersAtSameLevel(t *testing.T) {
	b := NewBook("BTC-USD")
	first := &model.Order{ID: "1", Side: model.Buy, LimitPrice: 100, RemainingQuantity: 5}
	second := &model.Order{ID: "2", Side: model.Buy, LimitPrice: 100, RemainingQuantity: 3}
	handle1 := b.InsertResting(first)
	_ = b.InsertResting(second)

	b.RemoveResting(handle1)

	price, qty, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, model.Price(100), price)
	assert.Equal(t, model.Quantity(3), qty)
}

func TestBook_DepthOrdersLevelsBestFirst(t *testing.T) {
	b := NewBook("BTC-USD")
	b.InsertResting(&model.Order{ID: "1", Side: model.Buy, LimitPrice: 100, RemainingQuantity: 1})
	b.InsertResting(&model.Order{ID: "2", Side: model.Buy, LimitPrice: 102, RemainingQuantity: 1})
	b.InsertResting(&model.Order{ID: "3", Side: model.Sell, LimitPrice: 110, RemainingQuantity: 1})
	b.InsertResting(&model.Order{ID: "4", Side: model.Sell, LimitPrice: 108, RemainingQuantity: 1})

	bids, asks, _, _ := b.Depth(10)
	require.Len(t, bids, 2)
	require.Len(t, asks, 2)
	assert.Equal(t, model.Price(102), bids[0].Price)
	assert.Equal(t, model.Price(100), bids[1].Price)
	assert.Equal(t, model.Price(108), asks[0].Price)
	assert.Equal(t, model.Price(110), asks[1].Price)
}
