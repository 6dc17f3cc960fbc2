package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/obs"
)

// CreateSubcategory inserts a subcategory under an existing category. Without tax fields it
// inherits the category's tax.
func (s *Service) CreateSubcategory(ctx context.Context, in SubcategoryInput) (SubcategoryView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return SubcategoryView{}, badRequest("name", "name is required", nil)
	}
	explicit := hasTaxFields(in.TaxApplicable, in.TaxPercentage) || (in.IsTaxInherit != nil && !*in.IsTaxInherit)
	cat, err := s.store.GetCategory(ctx, in.CategoryID)
	if err != nil {
		if !db.IsNotFound(err) {
			return SubcategoryView{}, err
		}
		if explicit {
			return SubcategoryView{}, notFound("category", err)
		}
		return SubcategoryView{}, toAppError(ErrMissingParentForInheritance)
	}
	inherits, tax, err := ownTax(in.IsTaxInherit, in.TaxApplicable, in.TaxPercentage, true)
	if err != nil {
		return SubcategoryView{}, toAppError(err)
	}
	applicable, pct := taxColumns(inherits, tax)
	sub, err := s.store.CreateSubcategory(ctx, db.CreateSubcategoryParams{
		CategoryID:    cat.ID,
		Name:          name,
		Description:   trimmedPtr(in.Description),
		Image:         trimmedPtr(in.Image),
		TaxApplicable: applicable,
		TaxPercentage: pct,
		IsTaxInherit:  inherits,
		IsActive:      boolOr(in.IsActive, true),
	})
	if err != nil {
		return SubcategoryView{}, toAppError(err)
	}
	s.invalidate(ctx, nsSubcategories)
	return s.subcategoryView(sub, &cat), nil
}

// ListSubcategories filters by category and by resolved tax applicability.
func (s *Service) ListSubcategories(ctx context.Context, p ListParams) (ListResult[SubcategoryView], error) {
	key, err := s.cache.Key(ctx, nsSubcategories, fmt.Sprintf("list:%s:%s:%s:%t:%s:%s:%d:%d",
		uuidKey(p.CategoryID), strings.ToLower(p.Search), boolKey(p.TaxApplicable), p.ActiveOnly, p.SortBy, p.SortDir, p.Page, p.Limit))
	if err != nil {
		obs.LoggerFrom(ctx).Warn().Err(err).Msg("catalog cache version lookup failed")
		key = ""
	}
	var cached ListResult[SubcategoryView]
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	search := optionalString(p.Search)
	rows, err := s.store.ListSubcategories(ctx, db.ListSubcategoriesParams{
		CategoryID:    p.CategoryID,
		Search:        search,
		TaxApplicable: p.TaxApplicable,
		ActiveOnly:    p.ActiveOnly,
		SortBy:        p.SortBy,
		SortDir:       p.SortDir,
		Limit:         int32(p.Limit),
		Offset:        p.offset(),
	})
	if err != nil {
		return ListResult[SubcategoryView]{}, err
	}
	total, err := s.store.CountSubcategories(ctx, db.CountSubcategoriesParams{
		CategoryID:    p.CategoryID,
		Search:        search,
		TaxApplicable: p.TaxApplicable,
		ActiveOnly:    p.ActiveOnly,
	})
	if err != nil {
		return ListResult[SubcategoryView]{}, err
	}

	parents := map[uuid.UUID]*db.Category{}
	out := ListResult[SubcategoryView]{Items: make([]SubcategoryView, 0, len(rows)), Total: total, Page: p.Page, Limit: p.Limit}
	for _, sub := range rows {
		parent, ok := parents[sub.CategoryID]
		if !ok {
			c, err := s.store.GetCategory(ctx, sub.CategoryID)
			if err != nil && !db.IsNotFound(err) {
				return ListResult[SubcategoryView]{}, err
			}
			if err == nil {
				parent = &c
			}
			parents[sub.CategoryID] = parent
		}
		out.Items = append(out.Items, s.subcategoryView(sub, parent))
	}
	if err := s.cache.SetJSON(ctx, key, out); err != nil {
		obs.LoggerFrom(ctx).Warn().Err(err).Msg("catalog cache write failed")
	}
	return out, nil
}

// GetSubcategory returns the subcategory with its category and priced items.
func (s *Service) GetSubcategory(ctx context.Context, id uuid.UUID) (SubcategoryDetail, error) {
	sub, err := s.store.GetSubcategory(ctx, id)
	if err != nil {
		return SubcategoryDetail{}, notFound("subcategory", err)
	}
	var parent *db.Category
	c, err := s.store.GetCategory(ctx, sub.CategoryID)
	switch {
	case err == nil:
		parent = &c
	case !db.IsNotFound(err):
		return SubcategoryDetail{}, err
	}
	items, err := s.store.ListItemsBySubcategory(ctx, id)
	if err != nil {
		return SubcategoryDetail{}, err
	}
	detail := SubcategoryDetail{
		SubcategoryView: s.subcategoryView(sub, parent),
		Items:           make([]ItemView, 0, len(items)),
	}
	if parent != nil {
		cv := s.categoryView(*parent)
		detail.Category = &cv
	}
	for _, it := range items {
		detail.Items = append(detail.Items, s.pricedItemView(Chain{Item: it, Subcategory: &sub, SubcategoryCategory: parent}))
	}
	return detail, nil
}

// UpdateSubcategory applies a partial update. Moving to another category is allowed; a change in
// the resolved tax resets inheriting items and deactivation cascades to items.
func (s *Service) UpdateSubcategory(ctx context.Context, id uuid.UUID, in SubcategoryPatch) (SubcategoryView, error) {
	var (
		updated db.Subcategory
		parent  db.Category
	)
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		current, err := q.GetSubcategory(ctx, id)
		if err != nil {
			return notFound("subcategory", err)
		}
		oldParent, err := q.GetCategory(ctx, current.CategoryID)
		if err != nil {
			return notFound("category", err)
		}
		parent = oldParent
		if in.CategoryID != nil && *in.CategoryID != current.CategoryID {
			if parent, err = q.GetCategory(ctx, *in.CategoryID); err != nil {
				return notFound("category", err)
			}
		}

		params := db.UpdateSubcategoryParams{
			ID:            id,
			CategoryID:    parent.ID,
			Name:          current.Name,
			Description:   current.Description,
			Image:         current.Image,
			TaxApplicable: current.TaxApplicable,
			TaxPercentage: current.TaxPercentage,
			IsTaxInherit:  current.IsTaxInherit,
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
		inherits, tax, err := patchedTax(subcategoryTax(current), in.IsTaxInherit, in.TaxApplicable, in.TaxPercentage, true)
		if err != nil {
			return err
		}
		params.IsTaxInherit = inherits
		params.TaxApplicable, params.TaxPercentage = taxColumns(inherits, tax)
		if in.IsActive != nil {
			params.IsActive = *in.IsActive
		}

		updated, err = q.UpdateSubcategory(ctx, params)
		if err != nil {
			return err
		}
		if taxChanged(resolvedSubcategoryTax(current, &oldParent), resolvedSubcategoryTax(updated, &parent)) {
			if _, err := q.ResetInheritedItemTaxBySubcategory(ctx, id); err != nil {
				return fmt.Errorf("reset item tax: %w", err)
			}
		}
		if current.IsActive && !updated.IsActive {
			n, err := q.DeactivateItemsBySubcategory(ctx, id)
			if err != nil {
				return fmt.Errorf("deactivate items: %w", err)
			}
			obs.ObserveCascade("item", n)
		}
		return nil
	})
	if err != nil {
		return SubcategoryView{}, toAppError(err)
	}
	s.invalidate(ctx, nsSubcategories)
	return s.subcategoryView(updated, &parent), nil
}

// DeleteSubcategory deactivates the subcategory and its items.
func (s *Service) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		n, err := q.SetSubcategoryActive(ctx, id, false)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.NotFound("subcategory not found")
		}
		items, err := q.DeactivateItemsBySubcategory(ctx, id)
		if err != nil {
			return fmt.Errorf("deactivate items: %w", err)
		}
		obs.ObserveCascade("item", items)
		return nil
	})
	if err != nil {
		return toAppError(err)
	}
	s.invalidate(ctx, nsSubcategories)
	return nil
}

func uuidKey(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}

func boolKey(b *bool) string {
	if b == nil {
		return "-"
	}
	if *b {
		return "1"
	}
	return "0"
}
