package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.125", "0.13"},
		{"0.124", "0.12"},
		{"2.005", "2.01"},
		{"-0.125", "-0.13"},
		{"10", "10"},
		{"1.999", "2"},
	}

	for _, tc := range cases {
		got := RoundMoney(MustMoney(tc.in))
		assert.True(t, got.Equal(MustMoney(tc.want)), "RoundMoney(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestVATAmount(t *testing.T) {
	cases := []struct {
		total string
		rate  string
		want  string
	}{
		{"100", "20", "20"},
		{"6.30", "10", "0.63"},
		{"0.12", "20", "0.02"},
		{"33.33", "20", "6.67"},
		{"0.01", "10", "0"},
		{"12.49", "19", "2.37"},
	}

	for _, tc := range cases {
		got := VATAmount(MustMoney(tc.total), MustMoney(tc.rate))
		assert.True(t, got.Equal(MustMoney(tc.want)), "VATAmount(%s, %s) = %s, want %s", tc.total, tc.rate, got, tc.want)
	}
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(MustMoney("2.10"), 3)
	assert.True(t, got.Equal(MustMoney("6.30")))

	// Fractional unit prices still land on the minor unit.
	got = LineTotal(MustMoney("0.125"), 3)
	assert.True(t, got.Equal(MustMoney("0.38")))

	got = LineTotal(MustMoney("5"), 0)
	assert.True(t, got.IsZero())
}
