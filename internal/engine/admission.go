package engine

import "github.com/novaclob/matching-engine/internal/engine/model"

// SymbolSpec is the static conformance contract for one traded symbol:
// its tick and lot sizes, and the tick-scaled integer domain that
// prices/quantities must land on (spec §3, §4.8 Admission).
type SymbolSpec struct {
	Symbol   string
	TickSize model.Price    // minimum price increment, in ticks; prices must be a multiple of it
	LotSize  model.Quantity // minimum quantity increment, in lots; quantities must be a multiple of it
	MinPrice model.Price
	MinQty   model.Quantity
}

// admit validates a NewOrderCommand against the closed taxonomy of
// admission failures (spec §4.8): unknown symbol, non-positive
// price/quantity, tick/lot non-conformance, and type/price mismatches
// (Market carrying a price, Limit/IOC/FOK missing one). It never
// consults book state — that is the matcher's job.
func admit(cmd model.NewOrderCommand, spec SymbolSpec, known bool) *RejectError {
	if !known {
		return reject(model.ErrUnknownSymbol, "unknown symbol %q", cmd.Symbol)
	}
	if cmd.Quantity <= 0 {
		return reject(model.ErrMalformedOrder, "quantity must be positive, got %d", cmd.Quantity)
	}
	if cmd.Quantity%spec.LotSize != 0 {
		return reject(model.ErrMalformedOrder, "quantity %d is not a multiple of lot size %d", cmd.Quantity, spec.LotSize)
	}
	if cmd.Quantity < spec.MinQty {
		return reject(model.ErrMalformedOrder, "quantity %d below minimum %d", cmd.Quantity, spec.MinQty)
	}

	switch cmd.Type {
	case model.Market:
		if cmd.HasPrice {
			return reject(model.ErrMalformedOrder, "market orders must not carry a limit price")
		}
	case model.Limit, model.IOC, model.FOK:
		if !cmd.HasPrice {
			return reject(model.ErrMalformedOrder, "%s orders require a limit price", cmd.Type)
		}
		if cmd.Price <= 0 {
			return reject(model.ErrMalformedOrder, "price must be positive, got %d", cmd.Price)
		}
		if cmd.Price%spec.TickSize != 0 {
			return reject(model.ErrMalformedOrder, "price %d is not a multiple of tick size %d", cmd.Price, spec.TickSize)
		}
		if cmd.Price < spec.MinPrice {
			return reject(model.ErrMalformedOrder, "price %d below minimum %d", cmd.Price, spec.MinPrice)
		}
	default:
		return reject(model.ErrMalformedOrder, "unrecognized order type %d", cmd.Type)
	}
	return nil
}
