package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaleExpo(t *testing.T) {
	cases := []struct {
		mantissa int64
		expo     int32
		want     string
	}{
		{200512345678, -8, "200512345678"},
		{200512, -2, "200512000000"},
		{2005123456789, -9, "200512345678"}, // truncated
		{7, 0, "700000000"},
		{3, 2, "30000000000"},
	}
	for _, c := range cases {
		got := ScaleExpo(big.NewInt(c.mantissa), c.expo)
		require.Equal(t, c.want, got.String(), "mantissa=%d expo=%d", c.mantissa, c.expo)
	}
}

func TestParseFixed(t *testing.T) {
	got, err := ParseFixed("2005.123456789")
	require.NoError(t, err)
	require.Equal(t, "200512345678", got.String())

	got, err = ParseFixed("1e3")
	require.NoError(t, err)
	require.Equal(t, "100000000000", got.String())

	_, err = ParseFixed("not-a-number")
	require.Error(t, err)
}

func TestFromMinorUnits(t *testing.T) {
	require.Equal(t, "1725000000", FromMinorUnits(big.NewInt(1725), 100).String())
	require.Equal(t, "172500000000", FromMinorUnits(big.NewInt(1725), 0).String())
}

func TestFormatFixed(t *testing.T) {
	require.Equal(t, "2005.00000000", FormatFixed(big.NewInt(200500000000)))
	require.Equal(t, "0.00000000", FormatFixed(nil))
}
