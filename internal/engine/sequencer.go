package engine

import "github.com/novaclob/matching-engine/internal/engine/model"

// EventBatch is everything one committed command produced, already
// sequence-stamped as a single atomic unit (spec §4.6 Event Sequencer,
// "atomic per-command event visibility" in §4.5). Subscribers never see
// a partial batch.
type EventBatch struct {
	Seq    model.SeqNum // sequence number of the last event in the batch
	Trades []model.Trade
	Deltas []model.BookDelta
	BBO    *model.BBO
}

// JournalWriter persists committed batches for replay (spec §6's named
// external journal collaborator). The Symbol Engine calls it after a
// batch has already been published to live subscribers; a journal
// failure never unwinds a match.
type JournalWriter interface {
	Append(symbol string, batch EventBatch) error
}

// Subscriber is a bounded per-client mailbox for one symbol's event
// stream. Grounded on the teacher's websocket.Client send channel
// (internal/websocket/broker.go), generalized from a byte-slice queue
// to a typed EventBatch queue decoupled from any particular transport.
type Subscriber struct {
	ch     chan EventBatch
	closed bool
}

// Events returns the channel to range over; it is closed by the
// Sequencer if the subscriber falls behind (spec §4.6 slow-subscriber
// semantics) or is explicitly unsubscribed.
func (s *Subscriber) Events() <-chan EventBatch { return s.ch }

// Sequencer assigns strictly increasing per-symbol sequence numbers to
// Trade/BookDelta/BBO events and fans each committed batch out to every
// live subscriber (spec §3 Event Sequencer, §4.6). It is driven
// exclusively by its Symbol Engine's single goroutine, so no locking is
// needed here despite the fan-out.
type Sequencer struct {
	symbol      string
	nextSeq     model.SeqNum
	subscribers map[*Subscriber]struct{}
}

// NewSequencer constructs a Sequencer starting at sequence zero.
func NewSequencer(symbol string) *Sequencer {
	return &Sequencer{symbol: symbol, subscribers: make(map[*Subscriber]struct{})}
}

// CurrentSeq is the sequence number of the most recently published
// event, used to stamp LastSeq on a fresh snapshot.
func (s *Sequencer) CurrentSeq() model.SeqNum { return s.nextSeq }

// FastForward advances the sequencer past seq without publishing
// anything, so a warm-started engine's first live event continues the
// numbering where a replayed journal left off (spec §6) instead of
// restarting at zero and colliding with sequence numbers already
// observed by clients before the restart. A no-op if seq is not ahead
// of the current position.
func (s *Sequencer) FastForward(seq model.SeqNum) {
	if seq > s.nextSeq {
		s.nextSeq = seq
	}
}

// Subscribe registers a new mailbox of the given capacity and returns it
// together with the sequence number in effect at registration time, so
// the caller can pair a book snapshot taken in the same command with
// this subscriber's first delta with no gap and no duplicate (spec §4.6
// "snapshot-then-deltas-with-no-gap" guarantee for new subscribers).
func (s *Sequencer) Subscribe(bufSize int) (*Subscriber, model.SeqNum) {
	sub := &Subscriber{ch: make(chan EventBatch, bufSize)}
	s.subscribers[sub] = struct{}{}
	return sub, s.nextSeq
}

// Unsubscribe removes sub from the fan-out set without closing its
// channel if the caller is still draining it; ordinary unsubscription
// is a courtesy, not a slow-consumer eviction.
func (s *Sequencer) Unsubscribe(sub *Subscriber) {
	delete(s.subscribers, sub)
}

// Publish stamps trades, deltas, and an optional BBO change into one
// EventBatch and offers it to every subscriber. A subscriber whose
// mailbox is full is evicted immediately — its channel is closed and it
// is dropped from the fan-out set — rather than let one slow consumer
// apply backpressure to the matching path (spec §4.6).
func (s *Sequencer) Publish(trades []model.Trade, deltas []model.BookDelta, bbo *model.BBO) EventBatch {
	stampedTrades := make([]model.Trade, len(trades))
	for i, t := range trades {
		s.nextSeq++
		t.SequenceNumber = s.nextSeq
		stampedTrades[i] = t
	}
	stampedDeltas := make([]model.BookDelta, len(deltas))
	for i, d := range deltas {
		s.nextSeq++
		d.SequenceNumber = s.nextSeq
		stampedDeltas[i] = d
	}
	if bbo != nil {
		s.nextSeq++
		bbo.SequenceNumber = s.nextSeq
	}

	batch := EventBatch{Seq: s.nextSeq, Trades: stampedTrades, Deltas: stampedDeltas, BBO: bbo}

	for sub := range s.subscribers {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- batch:
		default:
			close(sub.ch)
			sub.closed = true
			delete(s.subscribers, sub)
		}
	}
	return batch
}
