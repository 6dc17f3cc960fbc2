package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/db"
)

// CreateAddon attaches an add-on to an existing item.
func (s *Service) CreateAddon(ctx context.Context, itemID uuid.UUID, in AddonInput) (AddonView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return AddonView{}, badRequest("name", "name is required", nil)
	}
	if in.Price == nil {
		return AddonView{}, badRequest("price", "price is required", nil)
	}
	if err := validatePrice("price", *in.Price); err != nil {
		return AddonView{}, err
	}
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return AddonView{}, toAppError(notFound("item", err))
	}
	a, err := s.store.CreateAddon(ctx, db.CreateAddonParams{
		ItemID:      itemID,
		Name:        name,
		Price:       *in.Price,
		IsMandatory: in.IsMandatory,
		IsActive:    boolOr(in.IsActive, true),
	})
	if err != nil {
		return AddonView{}, toAppError(err)
	}
	return addonView(a), nil
}

// ListAddons lists an item's add-ons, mandatory first.
func (s *Service) ListAddons(ctx context.Context, itemID uuid.UUID, activeOnly bool) ([]AddonView, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return nil, toAppError(notFound("item", err))
	}
	rows, err := s.store.ListAddonsByItem(ctx, itemID, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]AddonView, 0, len(rows))
	for _, a := range rows {
		out = append(out, addonView(a))
	}
	return out, nil
}

// DeactivateAddon soft-deletes an add-on of the item.
func (s *Service) DeactivateAddon(ctx context.Context, itemID, addonID uuid.UUID) error {
	n, err := s.store.DeactivateAddon(ctx, itemID, addonID)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.NotFound("add-on not found")
	}
	return nil
}
