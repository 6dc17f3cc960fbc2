package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/money"
)

const categoryColumns = `id, name, description, image, tax_applicable, tax_percentage, is_active, created_at, updated_at`

func scanCategory(row scanner) (Category, error) {
	var c Category
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Image,
		&c.TaxApplicable,
		&c.TaxPercentage,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name, description, image, tax_applicable, tax_percentage, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + categoryColumns

type CreateCategoryParams struct {
	Name          string
	Description   *string
	Image         *string
	TaxApplicable bool
	TaxPercentage money.Money
	IsActive      bool
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, createCategory,
		arg.Name,
		arg.Description,
		arg.Image,
		arg.TaxApplicable,
		arg.TaxPercentage,
		arg.IsActive,
	)
	return scanCategory(row)
}

const getCategory = `-- name: GetCategory :one
SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

func (q *Queries) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, getCategory, id))
}

const updateCategory = `-- name: UpdateCategory :one
UPDATE categories
SET name = $2,
    description = $3,
    image = $4,
    tax_applicable = $5,
    tax_percentage = $6,
    is_active = $7,
    updated_at = now()
WHERE id = $1
RETURNING ` + categoryColumns

type UpdateCategoryParams struct {
	ID            uuid.UUID
	Name          string
	Description   *string
	Image         *string
	TaxApplicable bool
	TaxPercentage money.Money
	IsActive      bool
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, updateCategory,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Image,
		arg.TaxApplicable,
		arg.TaxPercentage,
		arg.IsActive,
	)
	return scanCategory(row)
}

const setCategoryActive = `-- name: SetCategoryActive :execrows
UPDATE categories SET is_active = $2, updated_at = now() WHERE id = $1`

func (q *Queries) SetCategoryActive(ctx context.Context, id uuid.UUID, active bool) (int64, error) {
	tag, err := q.db.Exec(ctx, setCategoryActive, id, active)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listCategories = `-- name: ListCategories :many
SELECT ` + categoryColumns + `
FROM categories
WHERE ($1::text IS NULL OR name ILIKE '%' || $1::text || '%')
  AND (NOT $2::bool OR is_active)
ORDER BY
  CASE WHEN $3::text = 'name' AND $4::text = 'asc' THEN name END ASC,
  CASE WHEN $3::text = 'name' AND $4::text = 'desc' THEN name END DESC,
  CASE WHEN $3::text = 'created_at' AND $4::text = 'asc' THEN created_at END ASC,
  created_at DESC,
  id
LIMIT $5 OFFSET $6`

type ListCategoriesParams struct {
	Search     *string
	ActiveOnly bool
	SortBy     string
	SortDir    string
	Limit      int32
	Offset     int32
}

func (q *Queries) ListCategories(ctx context.Context, arg ListCategoriesParams) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories,
		arg.Search,
		arg.ActiveOnly,
		arg.SortBy,
		arg.SortDir,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const countCategories = `-- name: CountCategories :one
SELECT count(*)
FROM categories
WHERE ($1::text IS NULL OR name ILIKE '%' || $1::text || '%')
  AND (NOT $2::bool OR is_active)`

type CountCategoriesParams struct {
	Search     *string
	ActiveOnly bool
}

func (q *Queries) CountCategories(ctx context.Context, arg CountCategoriesParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countCategories, arg.Search, arg.ActiveOnly).Scan(&count)
	return count, err
}
