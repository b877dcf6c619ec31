package engine

// Role distinguishes the two sides of a trade for fee purposes: the
// resting order is always maker, the order that crossed it is always
// taker (spec §4.4 fee role assignment).
type Role uint8

const (
	Maker Role = iota
	Taker
)

// FeeRate is one (rate, currency) row of a fee schedule, expressed as a
// fraction of notional (e.g. 0.001 == 10 bps).
type FeeRate struct {
	Rate     float64
	Currency string
}

// FeeSchedule is a pure (symbol, role, tier) -> FeeRate lookup (spec §3
// Fee Schedule, §4.7). It never mutates after construction, so a Symbol
// Engine snapshots it once at startup and reads it lock-free thereafter.
// Grounded on the original Python reference's models/fee_calculator.py
// two-argument (maker/taker) schedule, generalized here with a client
// tier axis (default vs vip) supplemented from that same reference.
type FeeSchedule struct {
	bySymbol map[string]symbolFees
	fallback symbolFees
}

type symbolFees struct {
	tiers map[string]roleFees
}

type roleFees struct {
	maker FeeRate
	taker FeeRate
}

// FeeScheduleConfig is the declarative shape used to build a FeeSchedule,
// read from configuration at startup.
type FeeScheduleConfig struct {
	QuoteCurrency string
	// Tiers maps tier name ("" is the default tier) to (maker, taker)
	// rates applied uniformly across symbols unless overridden.
	Tiers map[string]TierRates
	// SymbolOverrides optionally replaces the tier table for one symbol.
	SymbolOverrides map[string]map[string]TierRates
}

// TierRates is one client tier's maker/taker rates.
type TierRates struct {
	MakerRate float64
	TakerRate float64
}

// NewFeeSchedule builds an immutable schedule from cfg.
func NewFeeSchedule(cfg FeeScheduleConfig) *FeeSchedule {
	build := func(tiers map[string]TierRates) symbolFees {
		sf := symbolFees{tiers: make(map[string]roleFees, len(tiers))}
		for tier, r := range tiers {
			sf.tiers[tier] = roleFees{
				maker: FeeRate{Rate: r.MakerRate, Currency: cfg.QuoteCurrency},
				taker: FeeRate{Rate: r.TakerRate, Currency: cfg.QuoteCurrency},
			}
		}
		return sf
	}

	fs := &FeeSchedule{
		bySymbol: make(map[string]symbolFees, len(cfg.SymbolOverrides)),
		fallback: build(cfg.Tiers),
	}
	for symbol, tiers := range cfg.SymbolOverrides {
		fs.bySymbol[symbol] = build(tiers)
	}
	return fs
}

// Lookup returns the fee rate for symbol/role/tier, falling back to the
// schedule's default tier ("") if tier is unrecognized, and to the
// global default table if symbol carries no override.
func (fs *FeeSchedule) Lookup(symbol string, role Role, tier string) FeeRate {
	sf, ok := fs.bySymbol[symbol]
	if !ok {
		sf = fs.fallback
	}
	rf, ok := sf.tiers[tier]
	if !ok {
		rf = sf.tiers[""]
	}
	if role == Maker {
		return rf.maker
	}
	return rf.taker
}
