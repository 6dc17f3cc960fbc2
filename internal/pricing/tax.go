package pricing

import (
	"errors"
	"fmt"

	"github.com/noah-isme/backend-menu/internal/money"
)

// ErrInvalidTax is returned when an applicable flag and a percentage contradict each other.
var ErrInvalidTax = errors.New("invalid tax setting")

var hundred = money.FromInt(100)

// TaxSetting is the effective tax of an entity.
type TaxSetting struct {
	Applicable bool        `json:"tax_applicable"`
	Percentage money.Money `json:"tax_percentage"`
}

// NoTax is the setting used when nothing can be inherited.
var NoTax = TaxSetting{}

// NewTaxSetting builds a setting from optional request fields. A lone percentage implies
// applicable when it is positive; neither field yields NoTax.
func NewTaxSetting(applicable *bool, pct *money.Money) (TaxSetting, error) {
	var ts TaxSetting
	switch {
	case applicable == nil && pct == nil:
		return NoTax, nil
	case applicable == nil:
		ts = TaxSetting{Applicable: pct.IsPositive(), Percentage: *pct}
	case pct == nil:
		ts = TaxSetting{Applicable: *applicable}
	default:
		ts = TaxSetting{Applicable: *applicable, Percentage: *pct}
	}
	if err := ts.Validate(); err != nil {
		return TaxSetting{}, err
	}
	return ts, nil
}

// Validate enforces the pairing between Applicable and Percentage.
func (t TaxSetting) Validate() error {
	switch {
	case t.Percentage.IsNegative() || t.Percentage.GreaterThan(hundred):
		return fmt.Errorf("%w: tax_percentage must be between 0 and 100", ErrInvalidTax)
	case !t.Percentage.HasAtMostTwoDecimals():
		return fmt.Errorf("%w: tax_percentage allows at most 2 decimals", ErrInvalidTax)
	case t.Applicable && !t.Percentage.IsPositive():
		return fmt.Errorf("%w: tax_percentage must be greater than 0 when tax is applicable", ErrInvalidTax)
	case !t.Applicable && !t.Percentage.IsZero():
		return fmt.Errorf("%w: tax_percentage must be 0 when tax is not applicable", ErrInvalidTax)
	}
	return nil
}

// EffectivePercentage is the rate charged: the percentage when applicable, else 0.
func (t TaxSetting) EffectivePercentage() money.Money {
	if !t.Applicable {
		return money.Zero
	}
	return t.Percentage
}

// InheritableTax is a tax setting that may defer to a parent. Own is ignored when Inherits is set.
type InheritableTax struct {
	Inherits bool
	Own      TaxSetting
}

// SubcategoryTax carries a subcategory's tax together with its parent category's setting.
type SubcategoryTax struct {
	Tax      InheritableTax
	Category *TaxSetting
}

// ResolveTax walks item, subcategory and category in that order and returns the first
// setting that is not inherited.
func ResolveTax(item InheritableTax, sub *SubcategoryTax, cat *TaxSetting) TaxSetting {
	if !item.Inherits {
		return item.Own
	}
	if sub != nil {
		if !sub.Tax.Inherits {
			return sub.Tax.Own
		}
		if sub.Category != nil {
			return *sub.Category
		}
	}
	if cat != nil {
		return *cat
	}
	return NoTax
}
