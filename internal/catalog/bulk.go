package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/lock"
	"github.com/noah-isme/backend-menu/internal/obs"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

// BulkResult reports which items received the new configuration.
type BulkResult struct {
	Updated int         `json:"updated"`
	ItemIDs []uuid.UUID `json:"item_ids"`
}

// BulkUpdatePriceConfig writes one normalized config to every item of the given pricing type
// under a category or subcategory. The batch is all or nothing.
func (s *Service) BulkUpdatePriceConfig(ctx context.Context, in BulkPriceConfigInput) (BulkResult, error) {
	if (in.CategoryID == nil) == (in.SubcategoryID == nil) {
		return BulkResult{}, badRequest("category_id", "exactly one of category_id or subcategory_id is required", nil)
	}
	t, err := pricing.ParseType(in.PricingType)
	if err != nil {
		return BulkResult{}, toAppError(err)
	}
	cfg, err := pricing.NormalizeConfig(t, in.PricingConfig)
	if err != nil {
		return BulkResult{}, toAppError(err)
	}
	encoded, err := pricing.MarshalConfig(cfg)
	if err != nil {
		return BulkResult{}, err
	}

	scope, scopeID := "category", in.CategoryID
	if in.SubcategoryID != nil {
		scope, scopeID = "subcategory", in.SubcategoryID
	}

	var result BulkResult
	run := func(ctx context.Context) error {
		return s.store.ExecTx(ctx, func(q db.Querier) error {
			if err := scopeExists(ctx, q, scope, *scopeID); err != nil {
				return err
			}
			items, err := q.ListItemsForBulk(ctx, db.ListItemsForBulkParams{
				CategoryID:    in.CategoryID,
				SubcategoryID: in.SubcategoryID,
				PricingType:   string(t),
			})
			if err != nil {
				return fmt.Errorf("list items: %w", err)
			}
			result = BulkResult{ItemIDs: make([]uuid.UUID, 0, len(items))}
			for _, it := range items {
				windows, err := decodeWindows(it.AvlTimes)
				if err != nil {
					return err
				}
				if err := pricing.ValidateWindowsWithin(cfg, windows); err != nil {
					return common.BadRequest("INVALID_CONFIG", fmt.Sprintf("item %s: %v", it.ID, err), err).WithDetails(map[string]any{
						"item_id":      it.ID,
						"pricing_type": t,
						"reason":       err.Error(),
					})
				}
				if err := q.SetItemPricingConfig(ctx, it.ID, encoded); err != nil {
					return fmt.Errorf("update item %s: %w", it.ID, err)
				}
				result.ItemIDs = append(result.ItemIDs, it.ID)
			}
			result.Updated = len(result.ItemIDs)
			return nil
		})
	}

	if s.locker != nil {
		err = s.locker.WithLock(ctx, lock.Key("bulk", scope, scopeID.String()), s.lockTTL, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return BulkResult{}, toAppError(err)
	}
	obs.ObserveBulkPriceConfig(string(t), result.Updated)
	return result, nil
}

func scopeExists(ctx context.Context, q db.Querier, scope string, id uuid.UUID) error {
	if scope == "category" {
		if _, err := q.GetCategory(ctx, id); err != nil {
			return notFound("category", err)
		}
		return nil
	}
	if _, err := q.GetSubcategory(ctx, id); err != nil {
		return notFound("subcategory", err)
	}
	return nil
}
