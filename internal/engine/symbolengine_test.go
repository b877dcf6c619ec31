package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

func newTestEngine(t *testing.T, inboxCap int) (*SymbolEngine, context.CancelFunc) {
	t.Helper()
	eng := NewSymbolEngine(SymbolEngineConfig{
		Symbol:   "BTC-USD",
		Spec:     testSpec(),
		Fees:     testFees(),
		InboxCap: inboxCap,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)
	return eng, cancel
}

func TestSymbolEngine_AcceptsAndMatchesOrders(t *testing.T) {
	eng, cancel := newTestEngine(t, 16)
	defer cancel()
	ctx := context.Background()

	_, err := eng.SubmitNewOrder(ctx, limitCmd("maker", model.Sell, 100, 5))
	require.NoError(t, err)

	ack, err := eng.SubmitNewOrder(ctx, limitCmd("taker", model.Buy, 100, 5))
	require.NoError(t, err)
	assert.Equal(t, model.StatusFilled, ack.Status)
	require.Len(t, ack.Trades, 1)
	assert.Greater(t, ack.AcceptedSeq, model.SeqNum(0))
}

func TestSymbolEngine_QueryReflectsPriorCommands(t *testing.T) {
	eng, cancel := newTestEngine(t, 16)
	defer cancel()
	ctx := context.Background()

	_, err := eng.SubmitNewOrder(ctx, limitCmd("a1", model.Buy, 100, 5))
	require.NoError(t, err)

	snap, err := eng.Query(ctx, model.QueryCommand{Symbol: "BTC-USD", Depth: 10})
	require.NoError(t, err)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, model.Price(100), snap.Bids[0].Price)
}

func TestSymbolEngine_BackpressureOnFullInbox(t *testing.T) {
	eng := NewSymbolEngine(SymbolEngineConfig{
		Symbol:   "BTC-USD",
		Spec:     testSpec(),
		Fees:     testFees(),
		InboxCap: 1,
	})
	// Deliberately never call Run: the inbox fills and stays full so the
	// non-blocking enqueue must reject rather than hang the test.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go func() {
		_, _ = eng.SubmitNewOrder(context.Background(), limitCmd("a1", model.Buy, 100, 1))
	}()
	time.Sleep(20 * time.Millisecond) // let the first command occupy the only inbox slot

	_, err := eng.SubmitNewOrder(ctx, limitCmd("a2", model.Buy, 100, 1))
	require.Error(t, err)
	rej, ok := asReject(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrBackpressure, rej.Kind)
}

func TestSymbolEngine_SubscribeReceivesSubsequentTrade(t *testing.T) {
	eng, cancel := newTestEngine(t, 16)
	defer cancel()
	ctx := context.Background()

	_, err := eng.SubmitNewOrder(ctx, limitCmd("maker", model.Sell, 100, 5))
	require.NoError(t, err)

	sub, snap, err := eng.Subscribe(ctx, 8)
	require.NoError(t, err)
	require.Len(t, snap.Asks, 1, "snapshot must reflect the maker order already resting in the book")

	_, err = eng.SubmitNewOrder(ctx, limitCmd("taker", model.Buy, 100, 5))
	require.NoError(t, err)

	select {
	case batch := <-sub.Events():
		require.Len(t, batch.Trades, 1)
		assert.Equal(t, model.Quantity(5), batch.Trades[0].Quantity)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for trade event")
	}
}
