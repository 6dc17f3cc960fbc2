package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/obs"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

// CategorySortFields are the sortBy values accepted by category and subcategory lists.
var CategorySortFields = []string{"name", "created_at"}

// CreateCategory validates the tax pair and inserts a category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (CategoryView, error) {
	tax, err := pricing.NewTaxSetting(in.TaxApplicable, in.TaxPercentage)
	if err != nil {
		return CategoryView{}, toAppError(err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return CategoryView{}, badRequest("name", "name is required", nil)
	}
	c, err := s.store.CreateCategory(ctx, db.CreateCategoryParams{
		Name:          name,
		Description:   trimmedPtr(in.Description),
		Image:         trimmedPtr(in.Image),
		TaxApplicable: tax.Applicable,
		TaxPercentage: tax.Percentage,
		IsActive:      boolOr(in.IsActive, true),
	})
	if err != nil {
		return CategoryView{}, toAppError(err)
	}
	s.invalidate(ctx, nsCategories)
	return s.categoryView(c), nil
}

// ListCategories returns a page of categories, served from the cache when possible.
func (s *Service) ListCategories(ctx context.Context, p ListParams) (ListResult[CategoryView], error) {
	key, err := s.cache.Key(ctx, nsCategories, fmt.Sprintf("list:%s:%t:%s:%s:%d:%d",
		strings.ToLower(p.Search), p.ActiveOnly, p.SortBy, p.SortDir, p.Page, p.Limit))
	if err != nil {
		obs.LoggerFrom(ctx).Warn().Err(err).Msg("catalog cache version lookup failed")
		key = ""
	}
	var cached ListResult[CategoryView]
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	search := optionalString(p.Search)
	rows, err := s.store.ListCategories(ctx, db.ListCategoriesParams{
		Search:     search,
		ActiveOnly: p.ActiveOnly,
		SortBy:     p.SortBy,
		SortDir:    p.SortDir,
		Limit:      int32(p.Limit),
		Offset:     p.offset(),
	})
	if err != nil {
		return ListResult[CategoryView]{}, err
	}
	total, err := s.store.CountCategories(ctx, db.CountCategoriesParams{Search: search, ActiveOnly: p.ActiveOnly})
	if err != nil {
		return ListResult[CategoryView]{}, err
	}
	out := ListResult[CategoryView]{Items: make([]CategoryView, 0, len(rows)), Total: total, Page: p.Page, Limit: p.Limit}
	for _, c := range rows {
		out.Items = append(out.Items, s.categoryView(c))
	}
	if err := s.cache.SetJSON(ctx, key, out); err != nil {
		obs.LoggerFrom(ctx).Warn().Err(err).Msg("catalog cache write failed")
	}
	return out, nil
}

// GetCategory returns a category with its subcategories and direct items.
func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (CategoryDetail, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return CategoryDetail{}, notFound("category", err)
	}
	subs, err := s.store.ListSubcategoriesByCategory(ctx, id)
	if err != nil {
		return CategoryDetail{}, err
	}
	items, err := s.store.ListItemsByCategory(ctx, id)
	if err != nil {
		return CategoryDetail{}, err
	}
	detail := CategoryDetail{
		CategoryView:  s.categoryView(c),
		Subcategories: make([]SubcategoryView, 0, len(subs)),
		Items:         make([]ItemView, 0, len(items)),
	}
	for _, sub := range subs {
		detail.Subcategories = append(detail.Subcategories, s.subcategoryView(sub, &c))
	}
	for _, it := range items {
		detail.Items = append(detail.Items, s.itemView(Chain{Item: it, Category: &c}))
	}
	return detail, nil
}

// UpdateCategory applies a partial update. A tax change resets inheriting descendants and
// deactivation cascades, both in the same transaction.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryPatch) (CategoryView, error) {
	var updated db.Category
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		current, err := q.GetCategory(ctx, id)
		if err != nil {
			return notFound("category", err)
		}
		params := db.UpdateCategoryParams{
			ID:            id,
			Name:          current.Name,
			Description:   current.Description,
			Image:         current.Image,
			TaxApplicable: current.TaxApplicable,
			TaxPercentage: current.TaxPercentage,
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
		if hasTaxFields(in.TaxApplicable, in.TaxPercentage) {
			_, tax, err := patchedTax(pricing.InheritableTax{Own: categoryTax(current)}, nil, in.TaxApplicable, in.TaxPercentage, false)
			if err != nil {
				return err
			}
			params.TaxApplicable, params.TaxPercentage = tax.Applicable, tax.Percentage
		}
		if in.IsActive != nil {
			params.IsActive = *in.IsActive
		}

		updated, err = q.UpdateCategory(ctx, params)
		if err != nil {
			return err
		}
		if taxChanged(categoryTax(current), categoryTax(updated)) {
			if _, err := q.ResetInheritedSubcategoryTax(ctx, id); err != nil {
				return fmt.Errorf("reset subcategory tax: %w", err)
			}
			if _, err := q.ResetInheritedItemTaxByCategory(ctx, id); err != nil {
				return fmt.Errorf("reset item tax: %w", err)
			}
		}
		if current.IsActive && !updated.IsActive {
			return cascadeCategory(ctx, q, id)
		}
		return nil
	})
	if err != nil {
		return CategoryView{}, toAppError(err)
	}
	s.invalidate(ctx, nsCategories, nsSubcategories)
	return s.categoryView(updated), nil
}

// DeleteCategory deactivates the category, its subcategories and every item beneath it.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		n, err := q.SetCategoryActive(ctx, id, false)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.NotFound("category not found")
		}
		return cascadeCategory(ctx, q, id)
	})
	if err != nil {
		return toAppError(err)
	}
	s.invalidate(ctx, nsCategories, nsSubcategories)
	return nil
}

func cascadeCategory(ctx context.Context, q db.Querier, id uuid.UUID) error {
	subs, err := q.DeactivateSubcategoriesByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("deactivate subcategories: %w", err)
	}
	items, err := q.DeactivateItemsByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("deactivate items: %w", err)
	}
	obs.ObserveCascade("subcategory", subs)
	obs.ObserveCascade("item", items)
	return nil
}

func taxChanged(before, after pricing.TaxSetting) bool {
	return before.Applicable != after.Applicable || !before.Percentage.Equal(after.Percentage)
}

// invalidate bumps cache versions and logs failures.
func (s *Service) invalidate(ctx context.Context, namespaces ...string) {
	if err := s.cache.Bump(ctx, namespaces...); err != nil {
		obs.LoggerFrom(ctx).Warn().Err(err).Strs("namespaces", namespaces).Msg("catalog cache invalidation failed")
	}
}
