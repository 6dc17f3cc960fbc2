package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-menu/internal/money"
)

const itemColumns = `i.id, i.category_id, i.subcategory_id, i.name, i.description, i.image, i.base_price, i.pricing_type, i.pricing_config,
  i.tax_applicable, i.tax_percentage, i.is_tax_inherit, i.is_bookable, i.avl_days, i.avl_times, i.is_active, i.deleted_at, i.created_at, i.updated_at`

func scanItem(row scanner) (Item, error) {
	var i Item
	err := row.Scan(
		&i.ID,
		&i.CategoryID,
		&i.SubcategoryID,
		&i.Name,
		&i.Description,
		&i.Image,
		&i.BasePrice,
		&i.PricingType,
		&i.PricingConfig,
		&i.TaxApplicable,
		&i.TaxPercentage,
		&i.IsTaxInherit,
		&i.IsBookable,
		&i.AvlDays,
		&i.AvlTimes,
		&i.IsActive,
		&i.DeletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()
	var items []Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createItem = `-- name: CreateItem :one
INSERT INTO items AS i (category_id, subcategory_id, name, description, image, base_price, pricing_type, pricing_config,
  tax_applicable, tax_percentage, is_tax_inherit, is_bookable, avl_days, avl_times, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING ` + itemColumns

type CreateItemParams struct {
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	Name          string
	Description   *string
	Image         *string
	BasePrice     money.Money
	PricingType   string
	PricingConfig []byte
	TaxApplicable *bool
	TaxPercentage *money.Money
	IsTaxInherit  bool
	IsBookable    bool
	AvlDays       []string
	AvlTimes      []byte
	IsActive      bool
}

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (Item, error) {
	row := q.db.QueryRow(ctx, createItem,
		arg.CategoryID,
		arg.SubcategoryID,
		arg.Name,
		arg.Description,
		arg.Image,
		arg.BasePrice,
		arg.PricingType,
		arg.PricingConfig,
		arg.TaxApplicable,
		arg.TaxPercentage,
		arg.IsTaxInherit,
		arg.IsBookable,
		arg.AvlDays,
		arg.AvlTimes,
		arg.IsActive,
	)
	return scanItem(row)
}

const getItem = `-- name: GetItem :one
SELECT ` + itemColumns + ` FROM items i WHERE i.id = $1 AND i.deleted_at IS NULL`

func (q *Queries) GetItem(ctx context.Context, id uuid.UUID) (Item, error) {
	return scanItem(q.db.QueryRow(ctx, getItem, id))
}

const lockItem = `-- name: LockItem :one
SELECT ` + itemColumns + ` FROM items i WHERE i.id = $1 AND i.deleted_at IS NULL FOR UPDATE`

// LockItem reads an item and holds a row lock until the surrounding transaction ends.
func (q *Queries) LockItem(ctx context.Context, id uuid.UUID) (Item, error) {
	return scanItem(q.db.QueryRow(ctx, lockItem, id))
}

const updateItem = `-- name: UpdateItem :one
UPDATE items AS i
SET category_id = $2,
    subcategory_id = $3,
    name = $4,
    description = $5,
    image = $6,
    base_price = $7,
    pricing_type = $8,
    pricing_config = $9,
    tax_applicable = $10,
    tax_percentage = $11,
    is_tax_inherit = $12,
    is_bookable = $13,
    avl_days = $14,
    avl_times = $15,
    is_active = $16,
    updated_at = now()
WHERE i.id = $1 AND i.deleted_at IS NULL
RETURNING ` + itemColumns

type UpdateItemParams struct {
	ID            uuid.UUID
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	Name          string
	Description   *string
	Image         *string
	BasePrice     money.Money
	PricingType   string
	PricingConfig []byte
	TaxApplicable *bool
	TaxPercentage *money.Money
	IsTaxInherit  bool
	IsBookable    bool
	AvlDays       []string
	AvlTimes      []byte
	IsActive      bool
}

func (q *Queries) UpdateItem(ctx context.Context, arg UpdateItemParams) (Item, error) {
	row := q.db.QueryRow(ctx, updateItem,
		arg.ID,
		arg.CategoryID,
		arg.SubcategoryID,
		arg.Name,
		arg.Description,
		arg.Image,
		arg.BasePrice,
		arg.PricingType,
		arg.PricingConfig,
		arg.TaxApplicable,
		arg.TaxPercentage,
		arg.IsTaxInherit,
		arg.IsBookable,
		arg.AvlDays,
		arg.AvlTimes,
		arg.IsActive,
	)
	return scanItem(row)
}

const softDeleteItem = `-- name: SoftDeleteItem :execrows
UPDATE items SET is_active = false, deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) SoftDeleteItem(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, softDeleteItem, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listItemsByCategory = `-- name: ListItemsByCategory :many
SELECT ` + itemColumns + `
FROM items i
WHERE i.category_id = $1 AND i.deleted_at IS NULL
ORDER BY i.name`

// ListItemsByCategory returns items attached directly to the category.
func (q *Queries) ListItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]Item, error) {
	rows, err := q.db.Query(ctx, listItemsByCategory, categoryID)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

const listItemsBySubcategory = `-- name: ListItemsBySubcategory :many
SELECT ` + itemColumns + `
FROM items i
WHERE i.subcategory_id = $1 AND i.deleted_at IS NULL
ORDER BY i.name`

func (q *Queries) ListItemsBySubcategory(ctx context.Context, subcategoryID uuid.UUID) ([]Item, error) {
	rows, err := q.db.Query(ctx, listItemsBySubcategory, subcategoryID)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

const deactivateItemsByCategory = `-- name: DeactivateItemsByCategory :execrows
UPDATE items SET is_active = false, updated_at = now()
WHERE is_active AND deleted_at IS NULL
  AND (category_id = $1 OR subcategory_id IN (SELECT id FROM subcategories WHERE category_id = $1))`

// DeactivateItemsByCategory covers direct items and items of the category's subcategories.
func (q *Queries) DeactivateItemsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deactivateItemsByCategory, categoryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deactivateItemsBySubcategory = `-- name: DeactivateItemsBySubcategory :execrows
UPDATE items SET is_active = false, updated_at = now()
WHERE subcategory_id = $1 AND is_active AND deleted_at IS NULL`

func (q *Queries) DeactivateItemsBySubcategory(ctx context.Context, subcategoryID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deactivateItemsBySubcategory, subcategoryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const resetInheritedItemTaxByCategory = `-- name: ResetInheritedItemTaxByCategory :execrows
UPDATE items SET tax_applicable = NULL, tax_percentage = NULL, updated_at = now()
WHERE is_tax_inherit
  AND (category_id = $1 OR subcategory_id IN (SELECT id FROM subcategories WHERE category_id = $1))`

func (q *Queries) ResetInheritedItemTaxByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, resetInheritedItemTaxByCategory, categoryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const resetInheritedItemTaxBySubcategory = `-- name: ResetInheritedItemTaxBySubcategory :execrows
UPDATE items SET tax_applicable = NULL, tax_percentage = NULL, updated_at = now()
WHERE is_tax_inherit AND subcategory_id = $1`

func (q *Queries) ResetInheritedItemTaxBySubcategory(ctx context.Context, subcategoryID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, resetInheritedItemTaxBySubcategory, subcategoryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listItemsForBulk = `-- name: ListItemsForBulk :many
SELECT ` + itemColumns + `
FROM items i
WHERE i.deleted_at IS NULL
  AND i.pricing_type = $3
  AND (($1::uuid IS NOT NULL AND (i.category_id = $1::uuid
         OR i.subcategory_id IN (SELECT id FROM subcategories WHERE category_id = $1::uuid)))
    OR ($2::uuid IS NOT NULL AND i.subcategory_id = $2::uuid))
ORDER BY i.id
FOR UPDATE OF i`

type ListItemsForBulkParams struct {
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	PricingType   string
}

func (q *Queries) ListItemsForBulk(ctx context.Context, arg ListItemsForBulkParams) ([]Item, error) {
	rows, err := q.db.Query(ctx, listItemsForBulk, arg.CategoryID, arg.SubcategoryID, arg.PricingType)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

const setItemPricingConfig = `-- name: SetItemPricingConfig :exec
UPDATE items SET pricing_config = $2, updated_at = now() WHERE id = $1`

func (q *Queries) SetItemPricingConfig(ctx context.Context, id uuid.UUID, config []byte) error {
	_, err := q.db.Exec(ctx, setItemPricingConfig, id, config)
	return err
}

// The tax filter mirrors pricing.ResolveTax: own, then subcategory own, then the
// subcategory's category, then the direct category.
const itemFilter = `
FROM items i
LEFT JOIN subcategories s ON s.id = i.subcategory_id
LEFT JOIN categories sc ON sc.id = s.category_id
LEFT JOIN categories c ON c.id = i.category_id
WHERE i.deleted_at IS NULL
  AND ($1::text IS NULL OR i.name ILIKE '%' || $1::text || '%')
  AND ($2::uuid IS NULL OR i.category_id = $2::uuid OR s.category_id = $2::uuid)
  AND ($3::uuid IS NULL OR i.subcategory_id = $3::uuid)
  AND ($4::numeric IS NULL OR i.base_price >= $4::numeric)
  AND ($5::numeric IS NULL OR i.base_price <= $5::numeric)
  AND ($6::bool IS NULL OR (CASE
        WHEN NOT i.is_tax_inherit THEN COALESCE(i.tax_applicable, false)
        WHEN s.id IS NOT NULL AND NOT s.is_tax_inherit THEN COALESCE(s.tax_applicable, false)
        WHEN sc.id IS NOT NULL THEN sc.tax_applicable
        WHEN c.id IS NOT NULL THEN c.tax_applicable
        ELSE false END) = $6::bool)
  AND (NOT $7::bool OR i.is_active)`

const listItems = `-- name: ListItems :many
SELECT ` + itemColumns + itemFilter + `
ORDER BY
  CASE WHEN $8::text = 'name' AND $9::text = 'asc' THEN i.name END ASC,
  CASE WHEN $8::text = 'name' AND $9::text = 'desc' THEN i.name END DESC,
  CASE WHEN $8::text = 'price' AND $9::text = 'asc' THEN i.base_price END ASC,
  CASE WHEN $8::text = 'price' AND $9::text = 'desc' THEN i.base_price END DESC,
  CASE WHEN $8::text = 'created_at' AND $9::text = 'asc' THEN i.created_at END ASC,
  i.created_at DESC,
  i.id
LIMIT $10 OFFSET $11`

type ListItemsParams struct {
	Search        *string
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	MinPrice      *money.Money
	MaxPrice      *money.Money
	TaxApplicable *bool
	ActiveOnly    bool
	SortBy        string
	SortDir       string
	Limit         int32
	Offset        int32
}

func (q *Queries) ListItems(ctx context.Context, arg ListItemsParams) ([]Item, error) {
	rows, err := q.db.Query(ctx, listItems,
		arg.Search,
		arg.CategoryID,
		arg.SubcategoryID,
		arg.MinPrice,
		arg.MaxPrice,
		arg.TaxApplicable,
		arg.ActiveOnly,
		arg.SortBy,
		arg.SortDir,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

const countItems = `-- name: CountItems :one
SELECT count(*)` + itemFilter

type CountItemsParams struct {
	Search        *string
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	MinPrice      *money.Money
	MaxPrice      *money.Money
	TaxApplicable *bool
	ActiveOnly    bool
}

func (q *Queries) CountItems(ctx context.Context, arg CountItemsParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countItems,
		arg.Search,
		arg.CategoryID,
		arg.SubcategoryID,
		arg.MinPrice,
		arg.MaxPrice,
		arg.TaxApplicable,
		arg.ActiveOnly,
	).Scan(&count)
	return count, err
}
