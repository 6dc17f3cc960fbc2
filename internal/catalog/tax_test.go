package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

func TestOwnTax(t *testing.T) {
	yes, no := true, false
	pct := money.FromInt(12)

	inherits, ts, err := ownTax(nil, nil, nil, true)
	require.NoError(t, err)
	require.True(t, inherits)
	require.Equal(t, pricing.NoTax, ts)

	inherits, ts, err = ownTax(nil, nil, nil, false)
	require.NoError(t, err)
	require.False(t, inherits)
	require.Equal(t, pricing.NoTax, ts)

	_, _, err = ownTax(&yes, nil, nil, false)
	require.True(t, errors.Is(err, ErrMissingParentForInheritance))

	inherits, ts, err = ownTax(&no, nil, &pct, true)
	require.NoError(t, err)
	require.False(t, inherits)
	require.True(t, ts.Applicable)

	_, _, err = ownTax(&yes, &yes, &pct, true)
	require.True(t, errors.Is(err, pricing.ErrInvalidTax))
}

func TestPatchedTaxKeepsPercentageWhenReenabling(t *testing.T) {
	yes := true
	current := pricing.InheritableTax{Own: pricing.TaxSetting{Applicable: true, Percentage: money.FromInt(9)}}

	inherits, ts, err := patchedTax(current, nil, &yes, nil, true)
	require.NoError(t, err)
	require.False(t, inherits)
	require.Equal(t, "9.00", ts.Percentage.String())

	inherits, _, err = patchedTax(current, &yes, nil, nil, true)
	require.NoError(t, err)
	require.True(t, inherits)

	_, _, err = patchedTax(pricing.InheritableTax{Inherits: true}, nil, nil, nil, false)
	require.True(t, errors.Is(err, ErrMissingParentForInheritance))
}
