// Command bench is a standalone driver that exercises a single
// symbol's Matcher directly, without a gateway or journal, for local
// experimentation. Grounded on the teacher's cmd/experiment/experiment.go,
// which drove OrderBookEngineImpl.AddOrder directly and logged results.
package main

import (
	"log"

	"github.com/novaclob/matching-engine/internal/engine"
	"github.com/novaclob/matching-engine/internal/engine/model"
)

func main() {
	fees := engine.NewFeeSchedule(engine.FeeScheduleConfig{
		QuoteCurrency: "USD",
		Tiers: map[string]engine.TierRates{
			"": {MakerRate: 0.0001, TakerRate: 0.0005},
		},
	})
	m := engine.NewMatcher("BTC-USD", fees, engine.MonotonicClock())
	spec := engine.SymbolSpec{Symbol: "BTC-USD", TickSize: 1, LotSize: 1, MinPrice: 1, MinQty: 1}

	resting := m.ApplyNewOrder(model.NewOrderCommand{
		ClientOrderID: "resting-ask-1", Symbol: "BTC-USD",
		Side: model.Sell, Type: model.Limit, Price: 10_000, HasPrice: true, Quantity: 10,
	}, spec, true)
	log.Printf("resting ask ack=%+v reject=%v", resting.Ack, resting.Reject)

	dup := m.ApplyNewOrder(model.NewOrderCommand{
		ClientOrderID: "resting-ask-1", Symbol: "BTC-USD",
		Side: model.Sell, Type: model.Limit, Price: 10_000, HasPrice: true, Quantity: 10,
	}, spec, true)
	log.Printf("second resting ask ack=%+v reject=%v", dup.Ack, dup.Reject)

	crossing := m.ApplyNewOrder(model.NewOrderCommand{
		ClientOrderID: "aggressive-bid-1", Symbol: "BTC-USD",
		Side: model.Buy, Type: model.Limit, Price: 10_000, HasPrice: true, Quantity: 15,
	}, spec, true)
	log.Printf("crossing bid ack=%+v trades=%+v", crossing.Ack, crossing.Trades)

	bid, _, hasBid := m.Book().BestBid()
	ask, _, hasAsk := m.Book().BestAsk()
	log.Printf("book after cross: bestBid=%d(%v) bestAsk=%d(%v)", bid, hasBid, ask, hasAsk)
}
