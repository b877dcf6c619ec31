// Package model holds the wire- and matching-level data types shared
// across the engine: orders, trades, book deltas, and the command/ack
// envelopes that cross the Symbol Engine boundary.
package model

// Side is which side of the book an order rests on or crosses.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType is one of the four supported order types (spec §1).
type OrderType uint8

const (
	Market OrderType = iota
	Limit
	IOC
	FOK
)

func (t OrderType) String() string {
	switch t {
	case Market:
		return "market"
	case Limit:
		return "limit"
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of an order (spec §3 Order invariants).
type Status uint8

const (
	StatusNew Status = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled || s == StatusRejected
}

// Price is a symbol-tick-scaled fixed-point integer. Comparisons between
// two Prices for the same symbol are exact integer comparisons.
type Price int64

// Quantity is a symbol-lot-scaled fixed-point integer.
type Quantity int64

// OrderID uniquely identifies an order for the lifetime of the engine.
type OrderID string

// TradeID is a per-symbol monotonically increasing trade identifier.
type TradeID uint64

// SeqNum is a per-symbol monotonically increasing event sequence number
// (spec §4.6 Event Sequencer).
type SeqNum uint64

// Order is a single resting or in-flight order. Fields are exported
// because the book, index, and matcher all live in package engine,
// outside this package, and mutate an order's remaining quantity and status in place as it walks
// the book — there is exactly one writer (the owning Symbol Engine), so
// this needs no internal synchronization.
type Order struct {
	ID                OrderID
	ClientOrderID     string
	Symbol            string
	Side              Side
	Type              OrderType
	LimitPrice        Price // meaningless when Type == Market
	HasLimitPrice     bool
	OriginalQuantity  Quantity
	RemainingQuantity Quantity
	SubmissionSeq     uint64 // time key for price-time priority, monotonic within symbol
	Status            Status
	Timestamp         int64  // engine-local monotonic nanoseconds, set on admission
	Tier              string // fee-schedule client tier at admission time; "" is default
}

// Fill decrements RemainingQuantity by qty and advances Status. It never
// moves Status backward: New/PartiallyFilled -> PartiallyFilled|Filled.
func (o *Order) Fill(qty Quantity) {
	o.RemainingQuantity -= qty
	if o.RemainingQuantity == 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.RemainingQuantity == 0
}

// IsResting reports whether the order may legally sit in a price level:
// a Limit order, not yet terminal, with quantity left to fill.
func (o *Order) IsResting() bool {
	return o.Type == Limit && o.RemainingQuantity > 0 && !o.Status.Terminal()
}

// FilledQuantity is the cumulative quantity executed against this order.
func (o *Order) FilledQuantity() Quantity {
	return o.OriginalQuantity - o.RemainingQuantity
}
