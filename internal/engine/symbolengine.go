package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

type inboundKind uint8

const (
	kindNewOrder inboundKind = iota
	kindCancel
	kindQuery
	kindSubscribe
	kindUnsubscribe
)

type inbound struct {
	kind      inboundKind
	newOrder  model.NewOrderCommand
	cancel    model.CancelCommand
	query     model.QueryCommand
	subBufCap int
	sub       *Subscriber
	resp      chan inboundResult
}

type inboundResult struct {
	ack      model.Ack
	reject   *RejectError
	snapshot model.BookSnapshot
	sub      *Subscriber
	lastSeq  model.SeqNum
}

// SymbolEngine is the single-writer actor for one symbol (spec §3
// Symbol Engine, §4.5): a bounded inbox plus one goroutine that applies
// commands to the Matcher in strict arrival order, publishes the
// resulting events through its Sequencer. The inbox send never blocks:
// a full inbox is rejected at once, and an accepted caller waits only
// for its own command's result. Grounded on the teacher's
// websocket.Hub run loop (internal/websocket/broker.go) — same shape,
// generalized from a pub-sub hub to an order-matching actor with a
// single unified inbox instead of several per-purpose channels, because
// strict global command ordering across order and cancel traffic can
// only be guaranteed by one FIFO channel.
type SymbolEngine struct {
	Symbol string

	spec    SymbolSpec
	matcher *Matcher
	seq     *Sequencer
	inbox   chan inbound
	journal JournalWriter
	metrics EngineMetrics
	logger  *zap.Logger
	clock   func() int64

	lastBBO model.BBO
	hasBBO  bool
}

// EngineMetrics is the narrow surface a Symbol Engine reports through;
// internal/metrics implements it against Prometheus collectors.
type EngineMetrics interface {
	ObserveCommand(symbol string, kind string, dur time.Duration)
	ObserveTrade(symbol string, qty model.Quantity, price model.Price)
	SetInboxDepth(symbol string, depth int)
	IncBackpressure(symbol string)
}

// SymbolEngineConfig bundles a new engine's fixed collaborators.
type SymbolEngineConfig struct {
	Symbol   string
	Spec     SymbolSpec
	Fees     *FeeSchedule
	InboxCap int
	Journal  JournalWriter // may be nil
	Metrics  EngineMetrics // may be nil
	Logger   *zap.Logger
	Clock    func() int64
}

// NewSymbolEngine constructs a stopped engine; call Run to start its
// goroutine.
func NewSymbolEngine(cfg SymbolEngineConfig) *SymbolEngine {
	if cfg.InboxCap <= 0 {
		cfg.InboxCap = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = MonotonicClock()
	}
	return &SymbolEngine{
		Symbol:  cfg.Symbol,
		spec:    cfg.Spec,
		matcher: NewMatcher(cfg.Symbol, cfg.Fees, cfg.Clock),
		seq:     NewSequencer(cfg.Symbol),
		inbox:   make(chan inbound, cfg.InboxCap),
		journal: cfg.Journal,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With(zap.String("symbol", cfg.Symbol)),
		clock:   cfg.Clock,
	}
}

// Restore rebuilds this engine's book and sequence position from a
// symbol's replayed journal (spec §6), applying batches in the ascending
// sequence order they were recorded in. It must be called before Run,
// from the same goroutine that constructed the engine — the inbox is
// not yet being drained, so there is no concurrent matcher access to
// race with.
func (e *SymbolEngine) Restore(batches []EventBatch) {
	var lastSeq model.SeqNum
	var lastTradeID model.TradeID
	for _, batch := range batches {
		for _, d := range batch.Deltas {
			e.matcher.RestoreLevel(d)
		}
		for _, t := range batch.Trades {
			if t.TradeID > lastTradeID {
				lastTradeID = t.TradeID
			}
		}
		if batch.Seq > lastSeq {
			lastSeq = batch.Seq
		}
	}
	if lastTradeID > 0 {
		e.matcher.RestoreTradeID(lastTradeID)
	}
	if lastSeq > 0 {
		e.seq.FastForward(lastSeq)
		e.recomputeBBO()
		e.logger.Info("restored from journal", zap.Uint64("last_seq", uint64(lastSeq)), zap.Int("batches", len(batches)))
	}
}

// Run drives the engine's command loop until ctx is cancelled. It must
// be called exactly once, from its own goroutine.
func (e *SymbolEngine) Run(ctx context.Context) {
	e.logger.Info("symbol engine started")
	defer e.logger.Info("symbol engine stopped")
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-e.inbox:
			if e.metrics != nil {
				e.metrics.SetInboxDepth(e.Symbol, len(e.inbox))
			}
			e.handle(msg)
		}
	}
}

// SubmitNewOrder enqueues cmd and waits for its ack or reject. A full
// inbox rejects immediately with Backpressure rather than blocking the
// caller (spec §4.5, §7).
func (e *SymbolEngine) SubmitNewOrder(ctx context.Context, cmd model.NewOrderCommand) (model.Ack, error) {
	resp := make(chan inboundResult, 1)
	if !e.enqueue(inbound{kind: kindNewOrder, newOrder: cmd, resp: resp}) {
		return model.Ack{}, reject(model.ErrBackpressure, "inbox full for symbol %s", e.Symbol)
	}
	return e.await(ctx, resp)
}

// SubmitCancel enqueues a cancel and waits for its ack or reject.
func (e *SymbolEngine) SubmitCancel(ctx context.Context, cmd model.CancelCommand) (model.Ack, error) {
	resp := make(chan inboundResult, 1)
	if !e.enqueue(inbound{kind: kindCancel, cancel: cmd, resp: resp}) {
		return model.Ack{}, reject(model.ErrBackpressure, "inbox full for symbol %s", e.Symbol)
	}
	return e.await(ctx, resp)
}

// Query enqueues a depth-snapshot request through the same ordered
// inbox, so the returned snapshot is consistent with every command
// accepted before it (spec §4.5).
func (e *SymbolEngine) Query(ctx context.Context, cmd model.QueryCommand) (model.BookSnapshot, error) {
	resp := make(chan inboundResult, 1)
	if !e.enqueue(inbound{kind: kindQuery, query: cmd, resp: resp}) {
		return model.BookSnapshot{}, reject(model.ErrBackpressure, "inbox full for symbol %s", e.Symbol)
	}
	select {
	case r := <-resp:
		return r.snapshot, nil
	case <-ctx.Done():
		return model.BookSnapshot{}, ctx.Err()
	}
}

// Subscribe registers a new event-stream mailbox and returns it paired
// with an initial book snapshot taken atomically at the same point in
// the command stream, so the caller can splice snapshot and subsequent
// deltas with no gap (spec §4.6).
func (e *SymbolEngine) Subscribe(ctx context.Context, bufCap int) (*Subscriber, model.BookSnapshot, error) {
	resp := make(chan inboundResult, 1)
	if !e.enqueue(inbound{kind: kindSubscribe, subBufCap: bufCap, resp: resp}) {
		return nil, model.BookSnapshot{}, reject(model.ErrBackpressure, "inbox full for symbol %s", e.Symbol)
	}
	select {
	case r := <-resp:
		return r.sub, r.snapshot, nil
	case <-ctx.Done():
		return nil, model.BookSnapshot{}, ctx.Err()
	}
}

// Unsubscribe removes sub from the fan-out set.
func (e *SymbolEngine) Unsubscribe(ctx context.Context, sub *Subscriber) {
	resp := make(chan inboundResult, 1)
	if !e.enqueue(inbound{kind: kindUnsubscribe, sub: sub, resp: resp}) {
		return
	}
	select {
	case <-resp:
	case <-ctx.Done():
	}
}

func (e *SymbolEngine) enqueue(msg inbound) bool {
	select {
	case e.inbox <- msg:
		return true
	default:
		if e.metrics != nil {
			e.metrics.IncBackpressure(e.Symbol)
		}
		return false
	}
}

func (e *SymbolEngine) await(ctx context.Context, resp chan inboundResult) (model.Ack, error) {
	select {
	case r := <-resp:
		if r.reject != nil {
			return model.Ack{}, r.reject
		}
		return r.ack, nil
	case <-ctx.Done():
		return model.Ack{}, ctx.Err()
	}
}

func (e *SymbolEngine) handle(msg inbound) {
	start := e.clock()
	switch msg.kind {
	case kindNewOrder:
		result := e.matcher.ApplyNewOrder(msg.newOrder, e.spec, true)
		e.commit(result, msg.resp)
		e.observe("new_order", start)
	case kindCancel:
		result := e.matcher.ApplyCancel(msg.cancel)
		e.commit(result, msg.resp)
		e.observe("cancel", start)
	case kindQuery:
		bids, asks, bidVol, askVol := e.matcher.Book().Depth(msg.query.Depth)
		msg.resp <- inboundResult{snapshot: model.BookSnapshot{
			Symbol: e.Symbol, Bids: bids, Asks: asks,
			BidVolume: bidVol, AskVolume: askVol,
			LastSeq: e.seq.CurrentSeq(), Timestamp: e.clock(),
		}}
		e.observe("query", start)
	case kindSubscribe:
		sub, lastSeq := e.seq.Subscribe(msg.subBufCap)
		bids, asks, bidVol, askVol := e.matcher.Book().Depth(UnboundedDepth)
		msg.resp <- inboundResult{sub: sub, snapshot: model.BookSnapshot{
			Symbol: e.Symbol, Bids: bids, Asks: asks,
			BidVolume: bidVol, AskVolume: askVol,
			LastSeq: lastSeq, Timestamp: e.clock(),
		}}
	case kindUnsubscribe:
		e.seq.Unsubscribe(msg.sub)
		msg.resp <- inboundResult{}
	}
}

func (e *SymbolEngine) commit(result MatchResult, resp chan inboundResult) {
	if result.Reject != nil {
		resp <- inboundResult{reject: result.Reject}
		return
	}

	var bbo *model.BBO
	if nb, changed := e.recomputeBBO(); changed {
		bbo = &nb
	}
	batch := e.seq.Publish(result.Trades, result.Deltas, bbo)

	if e.journal != nil {
		if err := e.journal.Append(e.Symbol, batch); err != nil {
			e.logger.Warn("journal append failed", zap.Error(err))
		}
	}
	if e.metrics != nil {
		for _, t := range result.Trades {
			e.metrics.ObserveTrade(e.Symbol, t.Quantity, t.Price)
		}
	}

	ack := result.Ack
	ack.AcceptedSeq = batch.Seq
	resp <- inboundResult{ack: ack}
}

func (e *SymbolEngine) recomputeBBO() (model.BBO, bool) {
	bid, bidQty, hasBid := e.matcher.Book().BestBid()
	ask, askQty, hasAsk := e.matcher.Book().BestAsk()

	nb := model.BBO{
		Symbol: e.Symbol,
		BestBid: bid, BestBidQty: bidQty, HasBid: hasBid,
		BestAsk: ask, BestAskQty: askQty, HasAsk: hasAsk,
		Timestamp: e.clock(),
	}
	if hasBid && hasAsk {
		nb.SpreadTicks = ask - bid
		nb.HasSpread = true
		if bid > 0 {
			nb.SpreadBps = float64(nb.SpreadTicks) / float64(bid) * 10000
		}
	}

	changed := !e.hasBBO ||
		nb.HasBid != e.lastBBO.HasBid || nb.HasAsk != e.lastBBO.HasAsk ||
		nb.BestBid != e.lastBBO.BestBid || nb.BestBidQty != e.lastBBO.BestBidQty ||
		nb.BestAsk != e.lastBBO.BestAsk || nb.BestAskQty != e.lastBBO.BestAskQty
	if changed {
		e.lastBBO = nb
		e.hasBBO = true
	}
	return nb, changed
}

func (e *SymbolEngine) observe(kind string, start int64) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveCommand(e.Symbol, kind, time.Duration(e.clock()-start))
}

// MonotonicClock returns a clock function reporting nanoseconds elapsed
// since the call to MonotonicClock itself, never wall-clock time — spec
// §3 requires order/trade timestamps never be used for ordering, only
// SubmissionSeq and sequence numbers are.
func MonotonicClock() func() int64 {
	start := time.Now()
	return func() int64 { return time.Since(start).Nanoseconds() }
}
