package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

// CategoryInput is the body of POST /categories.
type CategoryInput struct {
	Name          string       `json:"name" validate:"required,max=120"`
	Description   *string      `json:"description" validate:"omitempty,max=2000"`
	Image         *string      `json:"image" validate:"omitempty,url"`
	TaxApplicable *bool        `json:"tax_applicable"`
	TaxPercentage *money.Money `json:"tax_percentage"`
	IsActive      *bool        `json:"is_active"`
}

// CategoryPatch is the body of PATCH /categories/{id}. Absent fields are left unchanged.
type CategoryPatch struct {
	Name          *string      `json:"name" validate:"omitempty,min=1,max=120"`
	Description   *string      `json:"description" validate:"omitempty,max=2000"`
	Image         *string      `json:"image" validate:"omitempty,url"`
	TaxApplicable *bool        `json:"tax_applicable"`
	TaxPercentage *money.Money `json:"tax_percentage"`
	IsActive      *bool        `json:"is_active"`
}

// SubcategoryInput is the body of POST /subcategories.
type SubcategoryInput struct {
	CategoryID    uuid.UUID    `json:"category_id" validate:"required"`
	Name          string       `json:"name" validate:"required,max=120"`
	Description   *string      `json:"description" validate:"omitempty,max=2000"`
	Image         *string      `json:"image" validate:"omitempty,url"`
	IsTaxInherit  *bool        `json:"is_tax_inherit"`
	TaxApplicable *bool        `json:"tax_applicable"`
	TaxPercentage *money.Money `json:"tax_percentage"`
	IsActive      *bool        `json:"is_active"`
}

// SubcategoryPatch is the body of PATCH /subcategories/{id}.
type SubcategoryPatch struct {
	CategoryID    *uuid.UUID   `json:"category_id"`
	Name          *string      `json:"name" validate:"omitempty,min=1,max=120"`
	Description   *string      `json:"description" validate:"omitempty,max=2000"`
	Image         *string      `json:"image" validate:"omitempty,url"`
	IsTaxInherit  *bool        `json:"is_tax_inherit"`
	TaxApplicable *bool        `json:"tax_applicable"`
	TaxPercentage *money.Money `json:"tax_percentage"`
	IsActive      *bool        `json:"is_active"`
}

// ItemInput is the body of POST /items.
type ItemInput struct {
	CategoryID    *uuid.UUID            `json:"category_id"`
	SubcategoryID *uuid.UUID            `json:"subcategory_id"`
	Name          string                `json:"name" validate:"required,max=160"`
	Description   *string               `json:"description" validate:"omitempty,max=2000"`
	Image         *string               `json:"image" validate:"omitempty,url"`
	BasePrice     *money.Money          `json:"base_price"`
	PricingType   string                `json:"pricing_type"`
	PricingConfig json.RawMessage       `json:"pricing_config"`
	IsTaxInherit  *bool                 `json:"is_tax_inherit"`
	TaxApplicable *bool                 `json:"tax_applicable"`
	TaxPercentage *money.Money          `json:"tax_percentage"`
	IsBookable    *bool                 `json:"is_bookable"`
	AvlDays       []string              `json:"avl_days" validate:"max=7"`
	AvlTimes      []availability.Window `json:"avl_times" validate:"max=48"`
	IsActive      *bool                 `json:"is_active"`
}

// ItemPatch is the body of PATCH /items/{id}. Sending both parent ids as null detaches the item.
type ItemPatch struct {
	CategoryID    Optional[uuid.UUID]   `json:"category_id"`
	SubcategoryID Optional[uuid.UUID]   `json:"subcategory_id"`
	Name          *string               `json:"name" validate:"omitempty,min=1,max=160"`
	Description   *string               `json:"description" validate:"omitempty,max=2000"`
	Image         *string               `json:"image" validate:"omitempty,url"`
	BasePrice     *money.Money          `json:"base_price"`
	PricingType   *string               `json:"pricing_type"`
	PricingConfig json.RawMessage       `json:"pricing_config"`
	IsTaxInherit  *bool                 `json:"is_tax_inherit"`
	TaxApplicable *bool                 `json:"tax_applicable"`
	TaxPercentage *money.Money          `json:"tax_percentage"`
	IsBookable    *bool                 `json:"is_bookable"`
	AvlDays       []string              `json:"avl_days" validate:"omitempty,max=7"`
	AvlTimes      []availability.Window `json:"avl_times" validate:"omitempty,max=48"`
	IsActive      *bool                 `json:"is_active"`
}

// AddonInput is the body of POST /items/{id}/addons.
type AddonInput struct {
	Name        string       `json:"name" validate:"required,max=120"`
	Price       *money.Money `json:"price" validate:"required"`
	IsMandatory bool         `json:"is_mandatory"`
	IsActive    *bool        `json:"is_active"`
}

// BulkPriceConfigInput is the body of PATCH /items/bulk/price-config.
type BulkPriceConfigInput struct {
	CategoryID    *uuid.UUID      `json:"category_id"`
	SubcategoryID *uuid.UUID      `json:"subcategory_id"`
	PricingType   string          `json:"pricing_type" validate:"required"`
	PricingConfig json.RawMessage `json:"pricing_config"`
}

// Optional distinguishes an absent JSON field from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON is only called for present fields.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if strings.TrimSpace(string(data)) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// decode reads a JSON body, surfacing numeric and clock errors with their own codes.
func decode(r *http.Request, dst any) error {
	err := common.DecodeJSON(r, dst)
	if err == nil {
		return nil
	}
	inner := errors.Unwrap(err)
	if errors.Is(inner, money.ErrInvalidNumericInput) ||
		errors.Is(inner, availability.ErrInvalidClock) ||
		errors.Is(inner, availability.ErrInvalidWeekday) ||
		errors.Is(inner, pricing.ErrInvalidConfig) {
		return toAppError(inner)
	}
	return err
}

func hasTaxFields(applicable *bool, pct *money.Money) bool {
	return applicable != nil || pct != nil
}

// ownTax decides whether a row inherits and what its own setting is.
//
//   - explicit tax fields make the row own its tax (is_tax_inherit=true alongside them is rejected)
//   - is_tax_inherit=true needs a parent
//   - nothing given inherits when a parent exists and owns {false, 0} otherwise
func ownTax(inherit, applicable *bool, pct *money.Money, hasParent bool) (bool, pricing.TaxSetting, error) {
	if hasTaxFields(applicable, pct) {
		if inherit != nil && *inherit {
			return false, pricing.TaxSetting{}, common.BadRequest("INVALID_TAX", "tax fields cannot be combined with is_tax_inherit=true", pricing.ErrInvalidTax)
		}
		ts, err := pricing.NewTaxSetting(applicable, pct)
		if err != nil {
			return false, pricing.TaxSetting{}, err
		}
		return false, ts, nil
	}
	switch {
	case inherit == nil:
		return hasParent, pricing.NoTax, nil
	case *inherit:
		if !hasParent {
			return false, pricing.TaxSetting{}, ErrMissingParentForInheritance
		}
		return true, pricing.NoTax, nil
	default:
		return false, pricing.NoTax, nil
	}
}

// patchedTax applies a partial tax update on top of the current state. A lone
// tax_applicable=true keeps the current positive percentage.
func patchedTax(current pricing.InheritableTax, inherit, applicable *bool, pct *money.Money, hasParent bool) (bool, pricing.TaxSetting, error) {
	if !hasTaxFields(applicable, pct) && inherit == nil {
		if current.Inherits && !hasParent {
			return false, pricing.TaxSetting{}, ErrMissingParentForInheritance
		}
		return current.Inherits, current.Own, nil
	}
	if applicable != nil && *applicable && pct == nil && !current.Inherits && current.Own.Percentage.IsPositive() {
		p := current.Own.Percentage
		pct = &p
	}
	return ownTax(inherit, applicable, pct, hasParent)
}

func taxColumns(inherits bool, own pricing.TaxSetting) (*bool, *money.Money) {
	if inherits {
		return nil, nil
	}
	a, p := own.Applicable, own.Percentage
	return &a, &p
}

func validatePrice(field string, m money.Money) error {
	if m.IsNegative() {
		return badRequest(field, field+" must not be negative", nil)
	}
	if !m.HasAtMostTwoDecimals() {
		return badRequest(field, field+" allows at most 2 decimals", nil)
	}
	return nil
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
