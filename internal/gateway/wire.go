package gateway

import (
	"github.com/novaclob/matching-engine/internal/engine/model"
	"github.com/novaclob/matching-engine/pkg/decimalcodec"
)

// SymbolCodec bundles the decimal codec for one symbol with the wire
// encoders that turn engine types into JSON-friendly shapes. Kept in
// the gateway so internal/engine never imports an encoding concern.
type SymbolCodec struct {
	Symbol string
	Codec  decimalcodec.Codec
}

type orderRequest struct {
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         string `json:"price,omitempty"`
	Quantity      string `json:"quantity"`
	Tier          string `json:"tier,omitempty"`
}

type ackResponse struct {
	OrderID      string      `json:"order_id"`
	Status       string      `json:"status"`
	AcceptedSeq  uint64      `json:"accepted_seq"`
	AvgFillPrice string      `json:"avg_fill_price,omitempty"`
	Trades       []tradeWire `json:"trades,omitempty"`
}

type rejectResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type tradeWire struct {
	TradeID       uint64  `json:"trade_id"`
	Symbol        string  `json:"symbol"`
	Price         string  `json:"price"`
	Quantity      string  `json:"quantity"`
	MakerOrderID  string  `json:"maker_order_id"`
	TakerOrderID  string  `json:"taker_order_id"`
	AggressorSide string  `json:"aggressor_side"`
	MakerFee      float64 `json:"maker_fee"`
	TakerFee      float64 `json:"taker_fee"`
	FeeCurrency   string  `json:"fee_currency"`
	Timestamp     int64   `json:"timestamp"`
	Seq           uint64  `json:"seq"`
}

type deltaWire struct {
	Side      string `json:"side"`
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
	Removed   bool   `json:"removed"`
	Timestamp int64  `json:"timestamp"`
	Seq       uint64 `json:"seq"`
}

type bboWire struct {
	Symbol     string  `json:"symbol"`
	BestBid    string  `json:"best_bid,omitempty"`
	BestBidQty string  `json:"best_bid_qty,omitempty"`
	BestAsk    string  `json:"best_ask,omitempty"`
	BestAskQty string  `json:"best_ask_qty,omitempty"`
	Spread     string  `json:"spread,omitempty"`
	SpreadBps  float64 `json:"spread_bps,omitempty"`
	Timestamp  int64   `json:"timestamp"`
	Seq        uint64  `json:"seq"`
}

type depthLevelWire struct {
	Price      string `json:"price"`
	Quantity   string `json:"quantity"`
	OrderCount int    `json:"order_count"`
}

type snapshotWire struct {
	Symbol    string           `json:"symbol"`
	Bids      []depthLevelWire `json:"bids"`
	Asks      []depthLevelWire `json:"asks"`
	LastSeq   uint64           `json:"last_seq"`
	Timestamp int64            `json:"timestamp"`
}

type streamFrame struct {
	Type     string        `json:"type"` // "snapshot" | "trade" | "delta" | "bbo"
	Snapshot *snapshotWire `json:"snapshot,omitempty"`
	Trade    *tradeWire    `json:"trade,omitempty"`
	Delta    *deltaWire    `json:"delta,omitempty"`
	BBO      *bboWire      `json:"bbo,omitempty"`
}

func (c SymbolCodec) trade(t model.Trade) tradeWire {
	return tradeWire{
		TradeID:       uint64(t.TradeID),
		Symbol:        t.Symbol,
		Price:         c.Codec.PriceToString(int64(t.Price)),
		Quantity:      c.Codec.QuantityToString(int64(t.Quantity)),
		MakerOrderID:  string(t.MakerOrderID),
		TakerOrderID:  string(t.TakerOrderID),
		AggressorSide: t.AggressorSide.String(),
		MakerFee:      t.MakerFeeRate,
		TakerFee:      t.TakerFeeRate,
		FeeCurrency:   t.FeeCurrency,
		Timestamp:     t.Timestamp,
		Seq:           uint64(t.SequenceNumber),
	}
}

func (c SymbolCodec) delta(d model.BookDelta) deltaWire {
	return deltaWire{
		Side:      d.Side.String(),
		Price:     c.Codec.PriceToString(int64(d.Price)),
		Quantity:  c.Codec.QuantityToString(int64(d.NewTotalQuantity)),
		Removed:   d.Kind == model.DeltaLevelRemoved,
		Timestamp: d.Timestamp,
		Seq:       uint64(d.SequenceNumber),
	}
}

func (c SymbolCodec) bbo(b model.BBO) bboWire {
	w := bboWire{Symbol: b.Symbol, SpreadBps: b.SpreadBps, Timestamp: b.Timestamp, Seq: uint64(b.SequenceNumber)}
	if b.HasBid {
		w.BestBid = c.Codec.PriceToString(int64(b.BestBid))
		w.BestBidQty = c.Codec.QuantityToString(int64(b.BestBidQty))
	}
	if b.HasAsk {
		w.BestAsk = c.Codec.PriceToString(int64(b.BestAsk))
		w.BestAskQty = c.Codec.QuantityToString(int64(b.BestAskQty))
	}
	if b.HasSpread {
		w.Spread = c.Codec.PriceToString(int64(b.SpreadTicks))
	}
	return w
}

func (c SymbolCodec) snapshot(s model.BookSnapshot) snapshotWire {
	w := snapshotWire{Symbol: s.Symbol, LastSeq: uint64(s.LastSeq), Timestamp: s.Timestamp}
	for _, lvl := range s.Bids {
		w.Bids = append(w.Bids, depthLevelWire{Price: c.Codec.PriceToString(int64(lvl.Price)), Quantity: c.Codec.QuantityToString(int64(lvl.Quantity)), OrderCount: lvl.OrderCount})
	}
	for _, lvl := range s.Asks {
		w.Asks = append(w.Asks, depthLevelWire{Price: c.Codec.PriceToString(int64(lvl.Price)), Quantity: c.Codec.QuantityToString(int64(lvl.Quantity)), OrderCount: lvl.OrderCount})
	}
	return w
}

func (c SymbolCodec) ack(a model.Ack) ackResponse {
	resp := ackResponse{
		OrderID:     string(a.OrderID),
		Status:      a.Status.String(),
		AcceptedSeq: uint64(a.AcceptedSeq),
	}
	if a.HasAvgFill {
		resp.AvgFillPrice = c.Codec.PriceToString(int64(a.AvgFillPrice))
	}
	for _, t := range a.Trades {
		resp.Trades = append(resp.Trades, c.trade(t))
	}
	return resp
}
