package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantize(t *testing.T) {
	cases := map[string]string{
		"10":       "10.0000",
		"10.12345": "10.1235",
		"10.12344": "10.1234",
		"-0.00005": "-0.0001",
	}
	for in, want := range cases {
		d := decimal.RequireFromString(in)
		assert.Equal(t, want, Quantize(d).StringFixed(Scale), "input %s", in)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse("25.50")
	require.NoError(t, err)
	assert.Equal(t, "25.5000", d.StringFixed(Scale))

	_, err = Parse("not-a-number")
	assert.Error(t, err)
}

func TestCurrencyValid(t *testing.T) {
	for _, c := range Supported() {
		assert.True(t, c.Valid())
	}
	assert.False(t, Currency("EUR").Valid())
	assert.False(t, Currency("").Valid())
}

func TestSignHelpers(t *testing.T) {
	assert.True(t, IsPositive(decimal.RequireFromString("0.0001")))
	assert.False(t, IsPositive(decimal.Zero))
	assert.True(t, IsNegative(decimal.RequireFromString("-0.0001")))
	assert.False(t, IsNegative(decimal.Zero))
}
