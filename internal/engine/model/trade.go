package model

// Trade is emitted once per maker/taker match (spec §3 Trade).
type Trade struct {
	TradeID        TradeID
	Symbol         string
	Price          Price
	Quantity       Quantity
	MakerOrderID   OrderID
	TakerOrderID   OrderID
	AggressorSide  Side // always the taker's side
	MakerFeeRate   float64
	TakerFeeRate   float64
	FeeCurrency    string
	Timestamp      int64
	SequenceNumber SeqNum
}

// DeltaKind distinguishes a level-quantity update from a level removal.
type DeltaKind uint8

const (
	DeltaLevelUpdate DeltaKind = iota
	DeltaLevelRemoved
)

// BookDelta is one (side, price) level whose aggregate quantity changed.
// NewTotalQuantity == 0 signals the level was removed from the book.
type BookDelta struct {
	Side             Side
	Price            Price
	NewTotalQuantity Quantity
	Kind             DeltaKind
	Timestamp        int64
	SequenceNumber   SeqNum
}

// DepthLevel is one row of a market-depth snapshot.
type DepthLevel struct {
	Price      Price
	Quantity   Quantity
	OrderCount int
}

// BookSnapshot is the top N levels of both sides plus aggregate volume,
// used both for Query responses and for a subscriber's initial feed.
type BookSnapshot struct {
	Symbol      string
	Bids        []DepthLevel
	Asks        []DepthLevel
	BidVolume   Quantity
	AskVolume   Quantity
	LastSeq     SeqNum
	Timestamp   int64
}

// BBO is the best bid/offer for a symbol, emitted on top-of-book change.
type BBO struct {
	Symbol         string
	BestBid        Price
	BestBidQty     Quantity
	HasBid         bool
	BestAsk        Price
	BestAskQty     Quantity
	HasAsk         bool
	SpreadTicks    Price
	SpreadBps      float64
	HasSpread      bool
	Timestamp      int64
	SequenceNumber SeqNum
}
