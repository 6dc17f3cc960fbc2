package money_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-menu/internal/money"
)

func TestRound2HalfUp(t *testing.T) {
	cases := map[string]string{
		"1.005":   "1.01",
		"1.004":   "1.00",
		"2.675":   "2.68",
		"413":     "413.00",
		"0.125":   "0.13",
		"99.9949": "99.99",
		"0":       "0.00",
	}
	for in, want := range cases {
		got := money.Round2(money.MustParse(in))
		require.Equal(t, want, got.String(), "round2(%s)", in)
	}
}

func TestRound2Idempotent(t *testing.T) {
	step := decimal.RequireFromString("0.0007")
	v := decimal.Zero
	for i := 0; i < 5000; i++ {
		once := money.Round2(money.New(v))
		twice := money.Round2(once)
		require.True(t, once.Equal(twice), "round2 not idempotent for %s", v)
		v = v.Add(step)
	}
}

func TestToMoney(t *testing.T) {
	valid := []any{12, int64(7), 3.5, float32(1.25), "10.10", json.Number("99.99"), money.FromInt(3), decimal.NewFromInt(4)}
	for _, v := range valid {
		_, err := money.ToMoney(v)
		require.NoError(t, err, "input %v", v)
	}

	invalid := []any{math.NaN(), math.Inf(1), math.Inf(-1), "abc", "", nil, true, []int{1}}
	for _, v := range invalid {
		_, err := money.ToMoney(v)
		require.Error(t, err, "input %v", v)
		require.True(t, errors.Is(err, money.ErrInvalidNumericInput))
	}

	got, err := money.ToMoney(0.1 + 0.2)
	require.NoError(t, err)
	require.Equal(t, "0.30", money.Round2(got).String())
}

func TestMoneyJSON(t *testing.T) {
	payload, err := json.Marshal(map[string]money.Money{"total": money.MustParse("413")})
	require.NoError(t, err)
	require.JSONEq(t, `{"total":413.00}`, string(payload))

	var decoded struct {
		A money.Money  `json:"a"`
		B money.Money  `json:"b"`
		C *money.Money `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12.5,"b":"7.25","c":null}`), &decoded))
	require.Equal(t, "12.50", decoded.A.String())
	require.Equal(t, "7.25", decoded.B.String())
	require.Nil(t, decoded.C)

	require.Error(t, json.Unmarshal([]byte(`{"a":"twelve"}`), &decoded))
}

func TestMoneyArithmetic(t *testing.T) {
	base := money.FromInt(500)
	require.Equal(t, "150.00", base.Percent(money.FromInt(30)).String())
	require.Equal(t, "350.00", base.Sub(money.FromInt(150)).String())
	require.True(t, money.Max(money.Zero, money.FromInt(-5)).IsZero())
	require.Equal(t, "100.00", money.Min(money.FromInt(150), money.FromInt(100)).String())
	require.Equal(t, "6.00", money.Sum(money.FromInt(1), money.FromInt(2), money.FromInt(3)).String())
	require.True(t, money.MustParse("1.10").HasAtMostTwoDecimals())
	require.False(t, money.MustParse("1.105").HasAtMostTwoDecimals())
	require.True(t, money.MustParse("5").IsWhole())
	require.False(t, money.MustParse("5.5").IsWhole())
}

func TestPercentIsUnrounded(t *testing.T) {
	p := money.MustParse("10.05").Percent(money.FromInt(15))
	require.True(t, p.Equal(money.MustParse("1.5075")))
	require.False(t, p.HasAtMostTwoDecimals())
	require.Equal(t, "1.51", money.Round2(p).String())
}

func TestMoneyScan(t *testing.T) {
	var m money.Money
	require.NoError(t, m.Scan("18.00"))
	require.Equal(t, "18.00", m.String())
	require.NoError(t, m.Scan([]byte("12.5")))
	require.Equal(t, "12.50", m.String())
	v, err := m.Value()
	require.NoError(t, err)
	require.Equal(t, "12.5", v)
}
