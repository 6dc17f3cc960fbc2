package pricing_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

func own(applicable bool, pct int64) pricing.InheritableTax {
	return pricing.InheritableTax{Own: pricing.TaxSetting{Applicable: applicable, Percentage: money.FromInt(pct)}}
}

var inherit = pricing.InheritableTax{Inherits: true}

func TestResolveTaxPrecedence(t *testing.T) {
	cat := &pricing.TaxSetting{Applicable: true, Percentage: money.FromInt(18)}
	direct := &pricing.TaxSetting{Applicable: true, Percentage: money.FromInt(5)}

	require.Equal(t, own(true, 7).Own, pricing.ResolveTax(own(true, 7), &pricing.SubcategoryTax{Tax: own(true, 9), Category: cat}, direct))
	require.Equal(t, own(true, 9).Own, pricing.ResolveTax(inherit, &pricing.SubcategoryTax{Tax: own(true, 9), Category: cat}, direct))
	require.Equal(t, *cat, pricing.ResolveTax(inherit, &pricing.SubcategoryTax{Tax: inherit, Category: cat}, direct))
	require.Equal(t, *direct, pricing.ResolveTax(inherit, &pricing.SubcategoryTax{Tax: inherit}, direct))
	require.Equal(t, *direct, pricing.ResolveTax(inherit, nil, direct))
	require.Equal(t, pricing.NoTax, pricing.ResolveTax(inherit, nil, nil))
	require.Equal(t, pricing.NoTax, pricing.ResolveTax(inherit, &pricing.SubcategoryTax{Tax: inherit}, nil))
}

func TestResolveTaxFollowsParentChange(t *testing.T) {
	cat := pricing.TaxSetting{Applicable: true, Percentage: money.FromInt(18)}
	sub := &pricing.SubcategoryTax{Tax: inherit, Category: &cat}
	require.Equal(t, "18.00", pricing.ResolveTax(inherit, sub, nil).Percentage.String())

	cat.Percentage = money.FromInt(12)
	got := pricing.ResolveTax(inherit, sub, nil)
	require.True(t, got.Applicable)
	require.Equal(t, "12.00", got.Percentage.String())
}

func TestNewTaxSetting(t *testing.T) {
	yes, no := true, false
	pct := func(s string) *money.Money { return money.MustParse(s).Ptr() }

	ts, err := pricing.NewTaxSetting(nil, nil)
	require.NoError(t, err)
	require.Equal(t, pricing.NoTax, ts)

	ts, err = pricing.NewTaxSetting(nil, pct("10"))
	require.NoError(t, err)
	require.True(t, ts.Applicable)

	ts, err = pricing.NewTaxSetting(nil, pct("0"))
	require.NoError(t, err)
	require.False(t, ts.Applicable)

	ts, err = pricing.NewTaxSetting(&no, nil)
	require.NoError(t, err)
	require.Equal(t, pricing.NoTax, ts)

	for _, bad := range []struct {
		applicable *bool
		pct        *money.Money
	}{
		{&yes, nil},
		{&yes, pct("0")},
		{&no, pct("5")},
		{nil, pct("-1")},
		{&yes, pct("100.01")},
		{&yes, pct("12.345")},
	} {
		_, err := pricing.NewTaxSetting(bad.applicable, bad.pct)
		require.True(t, errors.Is(err, pricing.ErrInvalidTax))
	}
}

func TestIsEffectivelyActive(t *testing.T) {
	yes, no := true, false
	require.True(t, pricing.IsEffectivelyActive(true, nil, nil))
	require.True(t, pricing.IsEffectivelyActive(true, &yes, &yes))
	require.False(t, pricing.IsEffectivelyActive(false, &yes, &yes))
	require.False(t, pricing.IsEffectivelyActive(true, &no, nil))
	require.False(t, pricing.IsEffectivelyActive(true, nil, &no))
}
