package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocaleQuantity(t *testing.T) {
	tests := map[string]string{
		"1.234,56":     "1234.56",
		"12,00":        "12.00",
		"0,50":         "0.50",
		"1.000.000,01": "1000000.01",
		"150,75":       "150.75",
	}
	for in, want := range tests {
		q, err := ParseLocaleQuantity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, q.String(), in)
		assert.Equal(t, in, q.Literal)
	}

	q, err := ParseLocaleQuantity("999.999.999.999,99")
	require.NoError(t, err)
	assert.Equal(t, "999999999999.99", q.String())

	for _, bad := range []string{"12", "12,5", "abc,00", "1.234.56", "1.000.000.000.000,00", "99999999999999999,99"} {
		_, err := ParseLocaleQuantity(bad)
		assert.Error(t, err, bad)
	}
}

func TestQuantity_Scan(t *testing.T) {
	var q Quantity
	require.NoError(t, q.Scan("1234.5"))
	assert.Equal(t, int64(123450), q.Hundredths)
	assert.Error(t, q.Scan("10000000000000.00"))

	require.NoError(t, q.Scan([]byte("7")))
	assert.Equal(t, "7.00", q.String())

	require.NoError(t, q.Scan(float64(3.25)))
	assert.Equal(t, "3.25", q.String())
}
