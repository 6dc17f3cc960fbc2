package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

// CategoryView is the public category payload.
type CategoryView struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Description   *string     `json:"description"`
	Image         *string     `json:"image"`
	TaxApplicable bool        `json:"tax_applicable"`
	TaxPercentage money.Money `json:"tax_percentage"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// SubcategoryView carries the subcategory with its resolved tax.
type SubcategoryView struct {
	ID            uuid.UUID   `json:"id"`
	CategoryID    uuid.UUID   `json:"category_id"`
	Name          string      `json:"name"`
	Description   *string     `json:"description"`
	Image         *string     `json:"image"`
	IsTaxInherit  bool        `json:"is_tax_inherit"`
	TaxApplicable bool        `json:"tax_applicable"`
	TaxPercentage money.Money `json:"tax_percentage"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ItemView carries the item with resolved tax and effective visibility.
type ItemView struct {
	ID            uuid.UUID             `json:"id"`
	CategoryID    *uuid.UUID            `json:"category_id"`
	SubcategoryID *uuid.UUID            `json:"subcategory_id"`
	Name          string                `json:"name"`
	Description   *string               `json:"description"`
	Image         *string               `json:"image"`
	BasePrice     money.Money           `json:"base_price"`
	PricingType   pricing.Type          `json:"pricing_type"`
	PricingConfig pricing.Config        `json:"pricing_config"`
	IsTaxInherit  bool                  `json:"is_tax_inherit"`
	TaxApplicable bool                  `json:"tax_applicable"`
	TaxPercentage money.Money           `json:"tax_percentage"`
	IsBookable    bool                  `json:"is_bookable"`
	AvlDays       []string              `json:"avl_days"`
	AvlTimes      []availability.Window `json:"avl_times"`
	IsActive      bool                  `json:"is_active"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ResolvedPrice *pricing.Result       `json:"resolved_price,omitempty"`
}

// AddonView is the public add-on payload.
type AddonView struct {
	ID          uuid.UUID   `json:"id"`
	ItemID      uuid.UUID   `json:"item_id"`
	Name        string      `json:"name"`
	Price       money.Money `json:"price"`
	IsMandatory bool        `json:"is_mandatory"`
	IsActive    bool        `json:"is_active"`
}

// CategoryDetail is a category with its subcategories and direct items.
type CategoryDetail struct {
	CategoryView
	Subcategories []SubcategoryView `json:"subcategories"`
	Items         []ItemView        `json:"items"`
}

// SubcategoryDetail is a subcategory with its parent and priced items.
type SubcategoryDetail struct {
	SubcategoryView
	Category *CategoryView `json:"category"`
	Items    []ItemView    `json:"items"`
}

// ItemDetail is an item with its parents.
type ItemDetail struct {
	ItemView
	Category    *CategoryView    `json:"category"`
	Subcategory *SubcategoryView `json:"subcategory"`
}

func (s *Service) categoryView(c db.Category) CategoryView {
	loc := s.location()
	return CategoryView{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		Image:         c.Image,
		TaxApplicable: c.TaxApplicable,
		TaxPercentage: c.TaxPercentage,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt.In(loc),
		UpdatedAt:     c.UpdatedAt.In(loc),
	}
}

// subcategoryView resolves tax against parent, which may be nil.
func (s *Service) subcategoryView(sub db.Subcategory, parent *db.Category) SubcategoryView {
	resolved := resolvedSubcategoryTax(sub, parent)
	loc := s.location()
	return SubcategoryView{
		ID:            sub.ID,
		CategoryID:    sub.CategoryID,
		Name:          sub.Name,
		Description:   sub.Description,
		Image:         sub.Image,
		IsTaxInherit:  sub.IsTaxInherit,
		TaxApplicable: resolved.Applicable,
		TaxPercentage: resolved.Percentage,
		IsActive:      sub.IsActive,
		CreatedAt:     sub.CreatedAt.In(loc),
		UpdatedAt:     sub.UpdatedAt.In(loc),
	}
}

func resolvedSubcategoryTax(sub db.Subcategory, parent *db.Category) pricing.TaxSetting {
	var catTax *pricing.TaxSetting
	if parent != nil {
		ts := categoryTax(*parent)
		catTax = &ts
	}
	return pricing.ResolveTax(pricing.InheritableTax{Inherits: true}, &pricing.SubcategoryTax{Tax: subcategoryTax(sub), Category: catTax}, nil)
}

func (s *Service) itemView(c Chain) ItemView {
	it := c.Item
	tax := c.Tax()
	p := c.Priceable()
	days, windows, err := c.Availability()
	if err != nil {
		days, windows = nil, nil
	}
	if windows == nil {
		windows = []availability.Window{}
	}
	loc := s.location()
	return ItemView{
		ID:            it.ID,
		CategoryID:    it.CategoryID,
		SubcategoryID: it.SubcategoryID,
		Name:          it.Name,
		Description:   it.Description,
		Image:         it.Image,
		BasePrice:     it.BasePrice,
		PricingType:   p.Type,
		PricingConfig: p.Config,
		IsTaxInherit:  it.IsTaxInherit,
		TaxApplicable: tax.Applicable,
		TaxPercentage: tax.Percentage,
		IsBookable:    it.IsBookable,
		AvlDays:       days.Strings(),
		AvlTimes:      windows,
		IsActive:      c.EffectivelyActive(),
		CreatedAt:     it.CreatedAt.In(loc),
		UpdatedAt:     it.UpdatedAt.In(loc),
	}
}

// pricedItemView attaches the price resolved now, without usage.
func (s *Service) pricedItemView(c Chain) ItemView {
	v := s.itemView(c)
	res := s.engine.Resolve(c.Priceable(), c.Tax(), pricing.EvalContext{CurrentTime: s.now()})
	res.IsAvailable = res.IsAvailable && v.IsActive
	v.ResolvedPrice = &res
	return v
}

func addonView(a db.Addon) AddonView {
	return AddonView{
		ID:          a.ID,
		ItemID:      a.ItemID,
		Name:        a.Name,
		Price:       a.Price,
		IsMandatory: a.IsMandatory,
		IsActive:    a.IsActive,
	}
}
