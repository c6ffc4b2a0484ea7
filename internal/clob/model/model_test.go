package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitex/clob/pkg/errors"
)

func TestOrderInput_Validate(t *testing.T) {
	valid := OrderInput{
		Trader:   "alice",
		Side:     SideBuy,
		Price:    decimal.NewFromInt(100),
		Quantity: decimal.NewFromInt(10),
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*OrderInput)
		field  string
	}{
		{"empty trader", func(in *OrderInput) { in.Trader = "" }, "trader"},
		{"unknown side", func(in *OrderInput) { in.Side = "SHORT" }, "side"},
		{"zero price", func(in *OrderInput) { in.Price = decimal.Zero }, "price"},
		{"negative quantity", func(in *OrderInput) { in.Quantity = decimal.NewFromInt(-1) }, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			err := in.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.Invalid))

			var e *errors.Error
			require.True(t, errors.As(err, &e))
			require.Len(t, e.Fields, 1)
			assert.Equal(t, tc.field, e.Fields[0].Field)
		})
	}
}

func TestOrderInput_ValidateCollectsAllFields(t *testing.T) {
	in := OrderInput{}
	err := in.Validate()
	require.Error(t, err)

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Len(t, e.Fields, 4)
}

func TestOrder_Clone(t *testing.T) {
	o := &Order{
		Trader:            "alice",
		Side:              SideBuy,
		Price:             decimal.NewFromInt(100),
		OriginalQuantity:  decimal.NewFromInt(10),
		RemainingQuantity: decimal.NewFromInt(4),
		TradeIDs:          []int64{1, 2},
	}
	c := o.Clone()
	c.TradeIDs[0] = 99
	assert.Equal(t, int64(1), o.TradeIDs[0], "clone must not share the trade id slice")
	assert.True(t, o.FilledQuantity().Equal(decimal.NewFromInt(6)))
}
