package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

func TestSequencer_AssignsStrictlyIncreasingSeqNumbers(t *testing.T) {
	seq := NewSequencer("BTC-USD")
	sub, lastSeq := seq.Subscribe(8)
	assert.Equal(t, model.SeqNum(0), lastSeq)

	batch1 := seq.Publish([]model.Trade{{}, {}}, nil, nil)
	batch2 := seq.Publish([]model.Trade{{}}, []model.BookDelta{{}}, nil)

	assert.Equal(t, model.SeqNum(2), batch1.Seq)
	assert.Equal(t, model.SeqNum(4), batch2.Seq)
	assert.Equal(t, model.SeqNum(1), batch1.Trades[0].SequenceNumber)
	assert.Equal(t, model.SeqNum(2), batch1.Trades[1].SequenceNumber)

	require.Len(t, sub.ch, 2)
}

func TestSequencer_EvictsSlowSubscriberOnOverflow(t *testing.T) {
	seq := NewSequencer("BTC-USD")
	sub, _ := seq.Subscribe(1)

	seq.Publish([]model.Trade{{}}, nil, nil) // fills the 1-slot buffer
	seq.Publish([]model.Trade{{}}, nil, nil) // must evict, not block

	_, stillOpen := <-sub.Events()
	require.True(t, stillOpen, "the first buffered batch should still be readable")
	_, stillOpen = <-sub.Events()
	assert.False(t, stillOpen, "channel must be closed after an overflow eviction")
}

func TestSequencer_UnsubscribeStopsFanout(t *testing.T) {
	seq := NewSequencer("BTC-USD")
	sub, _ := seq.Subscribe(4)
	seq.Unsubscribe(sub)

	seq.Publish([]model.Trade{{}}, nil, nil)
	assert.Empty(t, sub.ch)
}
