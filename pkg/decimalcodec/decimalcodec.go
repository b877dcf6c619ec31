// Package decimalcodec converts between the wire-level decimal strings
// clients send and receive and the tick/lot-scaled integer domain the
// matching engine computes in (spec §3: "decimal strings only at
// JSON/API boundaries; matching logic never touches floating point").
// Grounded on vegaprotocol-vega's use of github.com/shopspring/decimal
// at its API boundary, generalized here into a small per-symbol codec.
package decimalcodec

import "github.com/shopspring/decimal"

// Codec converts prices and quantities for one symbol between decimal
// strings and its tick/lot-scaled integers.
type Codec struct {
	priceScale    int32
	quantityScale int32
}

// New builds a Codec for a symbol whose prices carry priceDecimals
// fractional digits per tick and whose quantities carry
// quantityDecimals per lot.
func New(priceDecimals, quantityDecimals int32) Codec {
	return Codec{priceScale: priceDecimals, quantityScale: quantityDecimals}
}

// PriceToString renders a tick-scaled integer price as a decimal string.
func (c Codec) PriceToString(ticks int64) string {
	return decimal.New(ticks, -c.priceScale).String()
}

// QuantityToString renders a lot-scaled integer quantity as a decimal string.
func (c Codec) QuantityToString(lots int64) string {
	return decimal.New(lots, -c.quantityScale).String()
}

// ParsePrice converts a client-supplied decimal string into the tick
// domain. It rejects values with more precision than a tick allows.
func (c Codec) ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return shiftExact(d, c.priceScale)
}

// ParseQuantity converts a client-supplied decimal string into the lot
// domain. It rejects values with more precision than a lot allows.
func (c Codec) ParseQuantity(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return shiftExact(d, c.quantityScale)
}

func shiftExact(d decimal.Decimal, scale int32) (int64, error) {
	shifted := d.Shift(scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, errPrecision{value: d, scale: scale}
	}
	return shifted.IntPart(), nil
}

type errPrecision struct {
	value decimal.Decimal
	scale int32
}

func (e errPrecision) Error() string {
	return "decimalcodec: " + e.value.String() + " has more precision than scale " + decimal.New(1, -e.scale).String() + " allows"
}

// SpreadBps computes the bid/ask spread in basis points from two
// tick-scaled prices, matching the original Python reference's
// spread_bps derived field.
func SpreadBps(bidTicks, askTicks int64) float64 {
	if bidTicks <= 0 {
		return 0
	}
	return float64(askTicks-bidTicks) / float64(bidTicks) * 10000
}
