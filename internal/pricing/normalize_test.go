package pricing_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

func normalize(typ pricing.Type, raw string) (pricing.Config, error) {
	return pricing.NormalizeConfig(typ, json.RawMessage(raw))
}

func requireInvalid(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, pricing.ErrInvalidConfig), "got %v", err)
	var ice *pricing.InvalidConfigError
	require.True(t, errors.As(err, &ice))
	require.NotEmpty(t, ice.Reason)
}

func TestNormalizeStaticAlwaysValid(t *testing.T) {
	for _, raw := range []string{``, `null`, `{}`, `{"amount":"x"}`, `[1,2]`, `{"amount":-1}`} {
		cfg, err := normalize(pricing.Static, raw)
		require.NoError(t, err, raw)
		require.Equal(t, pricing.StaticConfig{}, cfg)
	}
	cfg, err := normalize(pricing.Static, `{"amount":12.345}`)
	require.NoError(t, err)
	require.Equal(t, "12.35", cfg.(pricing.StaticConfig).Amount.String())
}

func TestNormalizeTieredSortsUnboundedLast(t *testing.T) {
	cfg, err := normalize(pricing.Tiered, `{"tiers":[{"upto":null,"price":"220"},{"upto":10,"price":240},{"upto":5,"price":250.004}]}`)
	require.NoError(t, err)
	tiers := cfg.(pricing.TieredConfig).Tiers
	require.Len(t, tiers, 3)
	require.EqualValues(t, 5, *tiers[0].UpTo)
	require.Equal(t, "250.00", tiers[0].Price.String())
	require.EqualValues(t, 10, *tiers[1].UpTo)
	require.Nil(t, tiers[2].UpTo)
}

func TestNormalizeTieredRejects(t *testing.T) {
	cases := map[string]string{
		"empty":               `{"tiers":[]}`,
		"missing":             `{}`,
		"null payload":        `null`,
		"two unbounded":       `{"tiers":[{"upto":null,"price":1},{"upto":null,"price":2}]}`,
		"duplicate upto":      `{"tiers":[{"upto":5,"price":1},{"upto":5,"price":2}]}`,
		"negative upto":       `{"tiers":[{"upto":-1,"price":1}]}`,
		"fractional upto":     `{"tiers":[{"upto":1.5,"price":1}]}`,
		"missing upto":        `{"tiers":[{"price":1}]}`,
		"negative price":      `{"tiers":[{"upto":1,"price":-1}]}`,
		"missing price":       `{"tiers":[{"upto":1}]}`,
		"tiers not an array":  `{"tiers":{"upto":1}}`,
		"string upto":         `{"tiers":[{"upto":"5","price":1}]}`,
		"huge upto":           `{"tiers":[{"upto":18446744073709551621,"price":1}]}`,
		"int64 overflow upto": `{"tiers":[{"upto":9223372036854775808,"price":1}]}`,
	}
	for name, raw := range cases {
		_, err := normalize(pricing.Tiered, raw)
		require.Error(t, err, name)
		require.True(t, errors.Is(err, pricing.ErrInvalidConfig), name)
	}
}

func TestNormalizeTieredUpToBound(t *testing.T) {
	cfg, err := normalize(pricing.Tiered, `{"tiers":[{"upto":2147483647,"price":1},{"upto":null,"price":0.5}]}`)
	require.NoError(t, err)
	tiers := cfg.(pricing.TieredConfig).Tiers
	require.EqualValues(t, math.MaxInt32, *tiers[0].UpTo)

	_, err = normalize(pricing.Tiered, `{"tiers":[{"upto":2147483648,"price":1}]}`)
	require.ErrorIs(t, err, pricing.ErrInvalidConfig)
}

func TestNormalizeTieredNonNumericPriceIsNumericError(t *testing.T) {
	_, err := normalize(pricing.Tiered, `{"tiers":[{"upto":1,"price":"cheap"}]}`)
	requireInvalid(t, err)
	require.True(t, errors.Is(err, money.ErrInvalidNumericInput))
}

func TestNormalizeComplimentary(t *testing.T) {
	for _, raw := range []string{``, `null`, `{}`} {
		cfg, err := normalize(pricing.Complimentary, raw)
		require.NoError(t, err)
		require.Equal(t, pricing.ComplimentaryConfig{}, cfg)
	}
	_, err := normalize(pricing.Complimentary, `{"price":0}`)
	requireInvalid(t, err)
}

func TestNormalizeDiscounted(t *testing.T) {
	cfg, err := normalize(pricing.Discounted, `{"val":"12.5","is_perc":true}`)
	require.NoError(t, err)
	require.Equal(t, pricing.DiscountedConfig{Val: money.MustParse("12.50"), IsPerc: true}, cfg)

	cfg, err = normalize(pricing.Discounted, `{"val":150,"is_perc":false}`)
	require.NoError(t, err)
	require.Equal(t, "150.00", cfg.(pricing.DiscountedConfig).Val.String())

	rejects := []string{
		`{"val":10,"is_perc":true,"base":100}`,
		`{"val":-1,"is_perc":false}`,
		`{"val":101,"is_perc":true}`,
		`{"val":10}`,
		`{"is_perc":true}`,
		`{"val":10,"is_perc":"yes"}`,
		`{"val":10,"is_perc":false,"note":"x"}`,
		`null`,
	}
	for _, raw := range rejects {
		_, err := normalize(pricing.Discounted, raw)
		requireInvalid(t, err)
	}
}

func TestNormalizeDynamicRejectsOverlap(t *testing.T) {
	_, err := normalize(pricing.Dynamic, `{"windows":[{"start":"08:00","end":"11:00","price":100},{"start":"10:00","end":"12:00","price":90}]}`)
	requireInvalid(t, err)
}

func TestNormalizeDynamicSortsAndAllowsAdjacent(t *testing.T) {
	cfg, err := normalize(pricing.Dynamic, `{"windows":[{"start":"11:00","end":"14:00","price":150},{"start":"08:00","end":"11:00","price":100}]}`)
	require.NoError(t, err)
	ws := cfg.(pricing.DynamicConfig).Windows
	require.Equal(t, "08:00", ws[0].Start.String())
	require.Equal(t, "11:00", ws[1].Start.String())

	rejects := []string{
		`{"windows":[]}`,
		`{"windows":[{"start":"8:00","end":"11:00","price":1}]}`,
		`{"windows":[{"start":"11:00","end":"11:00","price":1}]}`,
		`{"windows":[{"start":"12:00","end":"11:00","price":1}]}`,
		`{"windows":[{"start":"10:00","end":"11:00"}]}`,
		`{"windows":[{"start":"10:00","end":"25:00","price":1}]}`,
	}
	for _, raw := range rejects {
		_, err := normalize(pricing.Dynamic, raw)
		requireInvalid(t, err)
	}
}

func TestStoredConfigRoundTrip(t *testing.T) {
	inputs := map[pricing.Type]string{
		pricing.Static:        `{"amount":10}`,
		pricing.Tiered:        `{"tiers":[{"upto":5,"price":250},{"upto":null,"price":220}]}`,
		pricing.Complimentary: `{}`,
		pricing.Discounted:    `{"val":30,"is_perc":true}`,
		pricing.Dynamic:       `{"windows":[{"start":"08:00","end":"11:00","price":199}]}`,
	}
	for typ, raw := range inputs {
		cfg, err := normalize(typ, raw)
		require.NoError(t, err)
		stored, err := pricing.MarshalConfig(cfg)
		require.NoError(t, err)
		decoded, err := pricing.DecodeStored(stored)
		require.NoError(t, err)
		require.Equal(t, cfg, decoded, string(typ))
		again, err := pricing.MarshalConfig(decoded)
		require.NoError(t, err)
		require.JSONEq(t, string(stored), string(again))
	}

	stored, err := pricing.MarshalConfig(pricing.TieredConfig{Tiers: []pricing.Tier{{Price: money.FromInt(1)}}})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"TIERED","config":{"tiers":[{"upto":null,"price":1.00}]}}`, string(stored))
}

func TestValidateWindowsWithin(t *testing.T) {
	cfg, err := normalize(pricing.Dynamic, `{"windows":[{"start":"09:00","end":"11:00","price":1},{"start":"11:00","end":"12:00","price":2}]}`)
	require.NoError(t, err)

	avl := []availability.Window{{Start: availability.MustClock("08:00"), End: availability.MustClock("12:00")}}
	require.NoError(t, pricing.ValidateWindowsWithin(cfg, avl))
	require.NoError(t, pricing.ValidateWindowsWithin(cfg, nil))

	narrow := []availability.Window{{Start: availability.MustClock("09:00"), End: availability.MustClock("11:30")}}
	requireInvalid(t, pricing.ValidateWindowsWithin(cfg, narrow))

	require.NoError(t, pricing.ValidateWindowsWithin(pricing.StaticConfig{}, narrow))
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]pricing.Type{
		"static": pricing.Static, "B": pricing.Tiered, "c": pricing.Complimentary,
		"Discounted": pricing.Discounted, "E": pricing.Dynamic,
	} {
		got, err := pricing.ParseType(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := pricing.ParseType("F")
	requireInvalid(t, err)
	require.Equal(t, "D", pricing.Discounted.Key())
}
