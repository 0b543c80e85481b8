package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperror "pharmacart/internal/errors"
)

const someID = "0b7e5c1a-2f3d-4e6a-8b9c-1d2e3f4a5b6c"

func TestParseItemRef(t *testing.T) {
	ref, err := ParseItemRef(someID, "")
	require.NoError(t, err)
	assert.Equal(t, KindProduct, ref.Kind)

	ref, err = ParseItemRef("", someID)
	require.NoError(t, err)
	assert.Equal(t, KindMotherBaby, ref.Kind)
	assert.Equal(t, someID, ref.MbpID())
	assert.Empty(t, ref.ProductID())

	_, err = ParseItemRef("", "")
	assert.IsType(t, &apperror.InvalidReferenceError{}, err)

	_, err = ParseItemRef(someID, someID)
	assert.IsType(t, &apperror.InvalidReferenceError{}, err)

	_, err = ParseItemRef("não-é-uuid", "")
	assert.IsType(t, &apperror.InvalidReferenceError{}, err)
}

func TestItemRef_JSON(t *testing.T) {
	data, err := json.Marshal(MotherBabyRef(someID))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"MOTHER_BABY","mbpId":"`+someID+`"}`, string(data))

	var ref ItemRef
	require.NoError(t, json.Unmarshal([]byte(`{"productId":"`+someID+`"}`), &ref))
	assert.Equal(t, ProductRef(someID), ref)

	assert.Error(t, json.Unmarshal([]byte(`{"productId":"`+someID+`","mbpId":"`+someID+`"}`), &ref))
}

func TestPriceForSize(t *testing.T) {
	item := CatalogItem{
		Sizes:  []string{"S", "M"},
		Prices: []decimal.Decimal{decimal.RequireFromString("10.50"), decimal.RequireFromString("12")},
	}

	assert.True(t, item.PriceForSize(" m").Equal(decimal.RequireFromString("12")))
	assert.True(t, item.PriceForSize("XL").Equal(decimal.RequireFromString("10.50")))
	assert.True(t, CatalogItem{}.PriceForSize("").IsZero())
}

func TestCatalogItemInput_Validate(t *testing.T) {
	ok := CatalogItemInput{Name: "Fralda", SKU: "FR-1", Sizes: []string{"P", "M"},
		Prices: []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)}}
	assert.NoError(t, ok.Validate())

	mismatch := ok
	mismatch.Prices = mismatch.Prices[:1]
	assert.Error(t, mismatch.Validate())

	dup := ok
	dup.Sizes = []string{"M", " m "}
	assert.Error(t, dup.Validate())

	sizeless := CatalogItemInput{Name: "Dipirona", SKU: "DP-1"}
	assert.Error(t, sizeless.Validate())
	sizeless.Prices = []decimal.Decimal{decimal.NewFromInt(-1)}
	assert.Error(t, sizeless.Validate())
}

func TestOrderStatus_Transitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransitionTo(OrderConfirmed))
	assert.True(t, OrderDelivered.CanTransitionTo(OrderCompleted))
	assert.False(t, OrderPending.CanTransitionTo(OrderDelivered))
	assert.False(t, OrderCompleted.CanTransitionTo(OrderPending))
	assert.False(t, OrderPending.CanTransitionTo(OrderCancelled))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StockOutOfStock, StatusFor(0, 10))
	assert.Equal(t, StockLow, StatusFor(9, 10))
	assert.Equal(t, StockIn, StatusFor(10, 10))
}

func TestBatchInput_Validate(t *testing.T) {
	in := BatchInput{BatchNumber: "L1", Variants: []VariantInput{{Size: "M", Quantity: 1, MfgDate: "2024-01-01", ExpDate: "N/A"}}}
	assert.NoError(t, in.Validate())

	in.Variants[0].ExpDate = "01/01/2025"
	assert.Error(t, in.Validate())

	assert.Error(t, BatchInput{BatchNumber: "L1"}.Validate())
}

func TestPage_Normalize(t *testing.T) {
	p := Page{}.Normalize()
	assert.Equal(t, Page{Page: 1, Limit: DefaultPageLimit}, p)
	assert.Equal(t, MaxPageLimit, Page{Page: 2, Limit: 1000}.Normalize().Limit)
	assert.Equal(t, 20, Page{Page: 2, Limit: 20}.Offset())
}
