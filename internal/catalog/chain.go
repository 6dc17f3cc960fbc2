package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

// Chain is an item loaded together with the parents its tax and visibility depend on.
type Chain struct {
	Item        db.Item
	Subcategory *db.Subcategory
	// SubcategoryCategory is the category above Subcategory.
	SubcategoryCategory *db.Category
	// Category is set only when the item hangs directly off a category.
	Category *db.Category
}

// LoadChain reads an item and its parents. Soft-deleted items are reported as not found.
func LoadChain(ctx context.Context, q db.Querier, itemID uuid.UUID) (Chain, error) {
	item, err := q.GetItem(ctx, itemID)
	if err != nil {
		return Chain{}, notFound("item", err)
	}
	return completeChain(ctx, q, item)
}

func completeChain(ctx context.Context, q db.Querier, item db.Item) (Chain, error) {
	c := Chain{Item: item}
	if item.SubcategoryID != nil {
		sub, err := q.GetSubcategory(ctx, *item.SubcategoryID)
		if err != nil && !db.IsNotFound(err) {
			return Chain{}, fmt.Errorf("get subcategory: %w", err)
		}
		if err == nil {
			c.Subcategory = &sub
			cat, err := q.GetCategory(ctx, sub.CategoryID)
			if err != nil && !db.IsNotFound(err) {
				return Chain{}, fmt.Errorf("get category: %w", err)
			}
			if err == nil {
				c.SubcategoryCategory = &cat
			}
		}
	}
	if item.CategoryID != nil {
		cat, err := q.GetCategory(ctx, *item.CategoryID)
		if err != nil && !db.IsNotFound(err) {
			return Chain{}, fmt.Errorf("get category: %w", err)
		}
		if err == nil {
			c.Category = &cat
		}
	}
	return c, nil
}

// Tax resolves the item's effective tax setting.
func (c Chain) Tax() pricing.TaxSetting {
	var sub *pricing.SubcategoryTax
	if c.Subcategory != nil {
		sub = &pricing.SubcategoryTax{Tax: subcategoryTax(*c.Subcategory)}
		if c.SubcategoryCategory != nil {
			ts := categoryTax(*c.SubcategoryCategory)
			sub.Category = &ts
		}
	}
	var cat *pricing.TaxSetting
	if c.Category != nil {
		ts := categoryTax(*c.Category)
		cat = &ts
	}
	return pricing.ResolveTax(itemTax(c.Item), sub, cat)
}

// EffectivelyActive applies the shallow visibility rule over the item's direct parent.
func (c Chain) EffectivelyActive() bool {
	var sub, cat *bool
	if c.Subcategory != nil {
		sub = &c.Subcategory.IsActive
	}
	if c.Category != nil {
		cat = &c.Category.IsActive
	}
	return pricing.IsEffectivelyActive(c.Item.IsActive, sub, cat)
}

// Priceable decodes the stored pricing config. A config that cannot be decoded prices with the
// strategy defaults.
func (c Chain) Priceable() pricing.Priceable {
	return priceable(c.Item)
}

func priceable(it db.Item) pricing.Priceable {
	t := pricing.Type(it.PricingType)
	cfg, err := pricing.DecodeStored(it.PricingConfig)
	if err != nil {
		cfg = nil
	}
	return pricing.Priceable{BasePrice: it.BasePrice, Type: t, Config: cfg}
}

// Availability returns the item's bookable days and windows.
func (c Chain) Availability() (availability.Days, []availability.Window, error) {
	return itemAvailability(c.Item)
}

func itemAvailability(it db.Item) (availability.Days, []availability.Window, error) {
	days, err := availability.ParseDays(it.AvlDays)
	if err != nil {
		return nil, nil, err
	}
	windows, err := decodeWindows(it.AvlTimes)
	if err != nil {
		return nil, nil, err
	}
	return days, windows, nil
}

func decodeWindows(raw []byte) ([]availability.Window, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var windows []availability.Window
	if err := json.Unmarshal(raw, &windows); err != nil {
		return nil, fmt.Errorf("decode availability windows: %w", err)
	}
	return windows, nil
}

func encodeWindows(windows []availability.Window) ([]byte, error) {
	if windows == nil {
		windows = []availability.Window{}
	}
	return json.Marshal(windows)
}

// HasParent reports whether the item is attached to a category or subcategory.
func (c Chain) HasParent() bool {
	return c.Item.CategoryID != nil || c.Item.SubcategoryID != nil
}

func categoryTax(c db.Category) pricing.TaxSetting {
	return pricing.TaxSetting{Applicable: c.TaxApplicable, Percentage: c.TaxPercentage}
}

func subcategoryTax(s db.Subcategory) pricing.InheritableTax {
	return inheritable(s.IsTaxInherit, s.TaxApplicable, s.TaxPercentage)
}

func itemTax(it db.Item) pricing.InheritableTax {
	return inheritable(it.IsTaxInherit, it.TaxApplicable, it.TaxPercentage)
}

func inheritable(inherits bool, applicable *bool, pct *money.Money) pricing.InheritableTax {
	if inherits {
		return pricing.InheritableTax{Inherits: true}
	}
	var own pricing.TaxSetting
	if applicable != nil {
		own.Applicable = *applicable
	}
	if pct != nil {
		own.Percentage = *pct
	}
	return pricing.InheritableTax{Own: own}
}
