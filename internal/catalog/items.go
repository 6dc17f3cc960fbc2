package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

// ItemSortFields are the sortBy values accepted by the item list.
var ItemSortFields = []string{"name", "created_at", "price"}

// parents is what an item hangs off. At most one of Category and Subcategory is set.
type parents struct {
	Category            *db.Category
	Subcategory         *db.Subcategory
	SubcategoryCategory *db.Category
}

func (p parents) exists() bool { return p.Category != nil || p.Subcategory != nil }

func (p parents) chain(it db.Item) Chain {
	return Chain{Item: it, Category: p.Category, Subcategory: p.Subcategory, SubcategoryCategory: p.SubcategoryCategory}
}

func loadParents(ctx context.Context, q db.Querier, categoryID, subcategoryID *uuid.UUID) (parents, error) {
	var p parents
	if categoryID != nil && subcategoryID != nil {
		return p, badRequest("category_id", "an item belongs to a category or a subcategory, not both", nil)
	}
	if categoryID != nil {
		c, err := q.GetCategory(ctx, *categoryID)
		if err != nil {
			return p, notFound("category", err)
		}
		p.Category = &c
	}
	if subcategoryID != nil {
		sub, err := q.GetSubcategory(ctx, *subcategoryID)
		if err != nil {
			return p, notFound("subcategory", err)
		}
		p.Subcategory = &sub
		c, err := q.GetCategory(ctx, sub.CategoryID)
		if err != nil && !db.IsNotFound(err) {
			return p, err
		}
		if err == nil {
			p.SubcategoryCategory = &c
		}
	}
	return p, nil
}

// pricingSpec is a validated pricing type, config and availability for an item.
type pricingSpec struct {
	Type    pricing.Type
	Config  pricing.Config
	Days    availability.Days
	Windows []availability.Window
}

func (ps pricingSpec) encode() (cfg []byte, windows []byte, err error) {
	if cfg, err = pricing.MarshalConfig(ps.Config); err != nil {
		return nil, nil, err
	}
	if windows, err = encodeWindows(ps.Windows); err != nil {
		return nil, nil, err
	}
	return cfg, windows, nil
}

func buildPricing(rawType string, rawConfig json.RawMessage, days []string, windows []availability.Window) (pricingSpec, error) {
	t := pricing.Static
	if strings.TrimSpace(rawType) != "" {
		parsed, err := pricing.ParseType(rawType)
		if err != nil {
			return pricingSpec{}, err
		}
		t = parsed
	}
	cfg, err := pricing.NormalizeConfig(t, rawConfig)
	if err != nil {
		return pricingSpec{}, err
	}
	parsedDays, err := availability.ParseDays(days)
	if err != nil {
		return pricingSpec{}, err
	}
	normalized, err := availability.NormalizeWindows(windows)
	if err != nil {
		return pricingSpec{}, err
	}
	if err := pricing.ValidateWindowsWithin(cfg, normalized); err != nil {
		return pricingSpec{}, err
	}
	return pricingSpec{Type: t, Config: cfg, Days: parsedDays, Windows: normalized}, nil
}

// CreateItem validates and inserts an item.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (ItemView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ItemView{}, badRequest("name", "name is required", nil)
	}
	par, err := loadParents(ctx, s.store, in.CategoryID, in.SubcategoryID)
	if err != nil {
		return ItemView{}, toAppError(err)
	}
	base := money.Zero
	if in.BasePrice != nil {
		base = *in.BasePrice
	}
	if err := validatePrice("base_price", base); err != nil {
		return ItemView{}, err
	}
	spec, err := buildPricing(in.PricingType, in.PricingConfig, in.AvlDays, in.AvlTimes)
	if err != nil {
		return ItemView{}, toAppError(err)
	}
	inherits, tax, err := ownTax(in.IsTaxInherit, in.TaxApplicable, in.TaxPercentage, par.exists())
	if err != nil {
		return ItemView{}, toAppError(err)
	}
	cfgJSON, windowsJSON, err := spec.encode()
	if err != nil {
		return ItemView{}, err
	}
	applicable, pct := taxColumns(inherits, tax)
	it, err := s.store.CreateItem(ctx, db.CreateItemParams{
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Name:          name,
		Description:   trimmedPtr(in.Description),
		Image:         trimmedPtr(in.Image),
		BasePrice:     base,
		PricingType:   string(spec.Type),
		PricingConfig: cfgJSON,
		TaxApplicable: applicable,
		TaxPercentage: pct,
		IsTaxInherit:  inherits,
		IsBookable:    boolOr(in.IsBookable, false),
		AvlDays:       spec.Days.Strings(),
		AvlTimes:      windowsJSON,
		IsActive:      boolOr(in.IsActive, true),
	})
	if err != nil {
		return ItemView{}, toAppError(err)
	}
	return s.itemView(par.chain(it)), nil
}

// ListItems returns a page of items, each priced at the current instant.
func (s *Service) ListItems(ctx context.Context, p ListParams) (ListResult[ItemView], error) {
	search := optionalString(p.Search)
	rows, err := s.store.ListItems(ctx, db.ListItemsParams{
		Search:        search,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		MinPrice:      p.MinPrice,
		MaxPrice:      p.MaxPrice,
		TaxApplicable: p.TaxApplicable,
		ActiveOnly:    p.ActiveOnly,
		SortBy:        p.SortBy,
		SortDir:       p.SortDir,
		Limit:         int32(p.Limit),
		Offset:        p.offset(),
	})
	if err != nil {
		return ListResult[ItemView]{}, err
	}
	total, err := s.store.CountItems(ctx, db.CountItemsParams{
		Search:        search,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		MinPrice:      p.MinPrice,
		MaxPrice:      p.MaxPrice,
		TaxApplicable: p.TaxApplicable,
		ActiveOnly:    p.ActiveOnly,
	})
	if err != nil {
		return ListResult[ItemView]{}, err
	}
	out := ListResult[ItemView]{Items: make([]ItemView, 0, len(rows)), Total: total, Page: p.Page, Limit: p.Limit}
	for _, it := range rows {
		chain, err := completeChain(ctx, s.store, it)
		if err != nil {
			return ListResult[ItemView]{}, err
		}
		out.Items = append(out.Items, s.pricedItemView(chain))
	}
	return out, nil
}

// GetItem returns the item with its parents and current price.
func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (ItemDetail, error) {
	chain, err := LoadChain(ctx, s.store, id)
	if err != nil {
		return ItemDetail{}, toAppError(err)
	}
	detail := ItemDetail{ItemView: s.pricedItemView(chain)}
	switch {
	case chain.Category != nil:
		cv := s.categoryView(*chain.Category)
		detail.Category = &cv
	case chain.SubcategoryCategory != nil:
		cv := s.categoryView(*chain.SubcategoryCategory)
		detail.Category = &cv
	}
	if chain.Subcategory != nil {
		sv := s.subcategoryView(*chain.Subcategory, chain.SubcategoryCategory)
		detail.Subcategory = &sv
	}
	return detail, nil
}

// UpdateItem applies a partial update, re-validating parent, pricing and tax.
func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, in ItemPatch) (ItemView, error) {
	var view ItemView
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		current, err := q.GetItem(ctx, id)
		if err != nil {
			return notFound("item", err)
		}
		categoryID, subcategoryID := current.CategoryID, current.SubcategoryID
		switch {
		case in.CategoryID.Set && in.SubcategoryID.Set:
			categoryID, subcategoryID = in.CategoryID.Value, in.SubcategoryID.Value
		case in.CategoryID.Set:
			categoryID = in.CategoryID.Value
			if categoryID != nil {
				subcategoryID = nil
			}
		case in.SubcategoryID.Set:
			subcategoryID = in.SubcategoryID.Value
			if subcategoryID != nil {
				categoryID = nil
			}
		}
		par, err := loadParents(ctx, q, categoryID, subcategoryID)
		if err != nil {
			return err
		}

		params := db.UpdateItemParams{
			ID:            id,
			CategoryID:    categoryID,
			SubcategoryID: subcategoryID,
			Name:          current.Name,
			Description:   current.Description,
			Image:         current.Image,
			BasePrice:     current.BasePrice,
			PricingType:   current.PricingType,
			PricingConfig: current.PricingConfig,
			IsBookable:    current.IsBookable,
			AvlDays:       current.AvlDays,
			AvlTimes:      current.AvlTimes,
			IsActive:      current.IsActive,
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return badRequest("name", "name cannot be empty", nil)
			}
			params.Name = name
		}
		if in.Description != nil {
			params.Description = trimmedPtr(in.Description)
		}
		if in.Image != nil {
			params.Image = trimmedPtr(in.Image)
		}
		if in.BasePrice != nil {
			if err := validatePrice("base_price", *in.BasePrice); err != nil {
				return err
			}
			params.BasePrice = *in.BasePrice
		}
		if in.IsBookable != nil {
			params.IsBookable = *in.IsBookable
		}
		if in.IsActive != nil {
			params.IsActive = *in.IsActive
		}

		if in.PricingType != nil || len(in.PricingConfig) > 0 || in.AvlDays != nil || in.AvlTimes != nil {
			spec, err := patchedPricing(current, in)
			if err != nil {
				return err
			}
			if params.PricingConfig, params.AvlTimes, err = spec.encode(); err != nil {
				return err
			}
			params.PricingType = string(spec.Type)
			params.AvlDays = spec.Days.Strings()
		}

		inherits, tax, err := patchedTax(itemTax(current), in.IsTaxInherit, in.TaxApplicable, in.TaxPercentage, par.exists())
		if err != nil {
			return err
		}
		params.IsTaxInherit = inherits
		params.TaxApplicable, params.TaxPercentage = taxColumns(inherits, tax)

		updated, err := q.UpdateItem(ctx, params)
		if err != nil {
			return err
		}
		view = s.itemView(par.chain(updated))
		return nil
	})
	if err != nil {
		return ItemView{}, toAppError(err)
	}
	return view, nil
}

// patchedPricing merges a patch over the stored pricing. Changing the type without a config
// normalizes an empty config for the new type; keeping the type without a config re-checks the
// stored config against new availability.
func patchedPricing(current db.Item, in ItemPatch) (pricingSpec, error) {
	rawType := current.PricingType
	if in.PricingType != nil {
		rawType = *in.PricingType
	}
	days := current.AvlDays
	if in.AvlDays != nil {
		days = in.AvlDays
	}
	windows, err := decodeWindows(current.AvlTimes)
	if err != nil {
		return pricingSpec{}, err
	}
	if in.AvlTimes != nil {
		windows = in.AvlTimes
	}
	rawConfig := in.PricingConfig
	if len(rawConfig) == 0 {
		t, err := pricing.ParseType(rawType)
		if err != nil {
			return pricingSpec{}, err
		}
		if string(t) == current.PricingType {
			if rawConfig, err = storedConfigBody(current.PricingConfig); err != nil {
				return pricingSpec{}, err
			}
		}
	}
	return buildPricing(rawType, rawConfig, days, windows)
}

// storedConfigBody returns the inner config of a stored envelope so it can be normalized again.
func storedConfigBody(stored []byte) (json.RawMessage, error) {
	cfg, err := pricing.DecodeStored(stored)
	if err != nil || cfg == nil {
		return nil, nil
	}
	return json.Marshal(cfg)
}

// DeleteItem soft-deletes the item.
func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	n, err := s.store.SoftDeleteItem(ctx, id)
	if err != nil {
		return toAppError(err)
	}
	if n == 0 {
		return common.NotFound("item not found")
	}
	return nil
}
