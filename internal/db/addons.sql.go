package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/money"
)

const addonColumns = `id, item_id, name, price, is_mandatory, is_active, created_at, updated_at`

func scanAddon(row scanner) (Addon, error) {
	var a Addon
	err := row.Scan(
		&a.ID,
		&a.ItemID,
		&a.Name,
		&a.Price,
		&a.IsMandatory,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

const createAddon = `-- name: CreateAddon :one
INSERT INTO addons (item_id, name, price, is_mandatory, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + addonColumns

type CreateAddonParams struct {
	ItemID      uuid.UUID
	Name        string
	Price       money.Money
	IsMandatory bool
	IsActive    bool
}

func (q *Queries) CreateAddon(ctx context.Context, arg CreateAddonParams) (Addon, error) {
	row := q.db.QueryRow(ctx, createAddon,
		arg.ItemID,
		arg.Name,
		arg.Price,
		arg.IsMandatory,
		arg.IsActive,
	)
	return scanAddon(row)
}

const listAddonsByItem = `-- name: ListAddonsByItem :many
SELECT ` + addonColumns + `
FROM addons
WHERE item_id = $1 AND (NOT $2::bool OR is_active)
ORDER BY is_mandatory DESC, name`

func (q *Queries) ListAddonsByItem(ctx context.Context, itemID uuid.UUID, activeOnly bool) ([]Addon, error) {
	rows, err := q.db.Query(ctx, listAddonsByItem, itemID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Addon
	for rows.Next() {
		a, err := scanAddon(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const deactivateAddon = `-- name: DeactivateAddon :execrows
UPDATE addons SET is_active = false, updated_at = now()
WHERE id = $1 AND item_id = $2 AND is_active`

func (q *Queries) DeactivateAddon(ctx context.Context, itemID, addonID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deactivateAddon, addonID, itemID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
