package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

func TestAdmit_RejectsNonTickConformingPrice(t *testing.T) {
	spec := SymbolSpec{Symbol: "BTC-USD", TickSize: 5, LotSize: 1, MinPrice: 1, MinQty: 1}
	cmd := model.NewOrderCommand{Symbol: "BTC-USD", Type: model.Limit, Price: 103, HasPrice: true, Quantity: 1}
	rej := admit(cmd, spec, true)
	if assert.NotNil(t, rej) {
		assert.Equal(t, model.ErrMalformedOrder, rej.Kind)
	}
}

func TestAdmit_RejectsNonLotConformingQuantity(t *testing.T) {
	spec := SymbolSpec{Symbol: "BTC-USD", TickSize: 1, LotSize: 5, MinPrice: 1, MinQty: 1}
	cmd := model.NewOrderCommand{Symbol: "BTC-USD", Type: model.Market, Quantity: 7}
	rej := admit(cmd, spec, true)
	if assert.NotNil(t, rej) {
		assert.Equal(t, model.ErrMalformedOrder, rej.Kind)
	}
}

func TestAdmit_RejectsNonPositiveQuantity(t *testing.T) {
	spec := SymbolSpec{Symbol: "BTC-USD", TickSize: 1, LotSize: 1, MinPrice: 1, MinQty: 1}
	cmd := model.NewOrderCommand{Symbol: "BTC-USD", Type: model.Market, Quantity: 0}
	rej := admit(cmd, spec, true)
	if assert.NotNil(t, rej) {
		assert.Equal(t, model.ErrMalformedOrder, rej.Kind)
	}
}

func TestAdmit_AcceptsConformingLimitOrder(t *testing.T) {
	spec := SymbolSpec{Symbol: "BTC-USD", TickSize: 5, LotSize: 2, MinPrice: 1, MinQty: 1}
	cmd := model.NewOrderCommand{Symbol: "BTC-USD", Type: model.Limit, Price: 100, HasPrice: true, Quantity: 4}
	assert.Nil(t, admit(cmd, spec, true))
}
