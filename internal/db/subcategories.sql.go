package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-menu/internal/money"
)

const subcategoryColumns = `s.id, s.category_id, s.name, s.description, s.image, s.tax_applicable, s.tax_percentage, s.is_tax_inherit, s.is_active, s.created_at, s.updated_at`

func scanSubcategory(row scanner) (Subcategory, error) {
	var s Subcategory
	err := row.Scan(
		&s.ID,
		&s.CategoryID,
		&s.Name,
		&s.Description,
		&s.Image,
		&s.TaxApplicable,
		&s.TaxPercentage,
		&s.IsTaxInherit,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func collectSubcategories(rows pgx.Rows) ([]Subcategory, error) {
	defer rows.Close()
	var items []Subcategory
	for rows.Next() {
		s, err := scanSubcategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const createSubcategory = `-- name: CreateSubcategory :one
INSERT INTO subcategories AS s (category_id, name, description, image, tax_applicable, tax_percentage, is_tax_inherit, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + subcategoryColumns

type CreateSubcategoryParams struct {
	CategoryID    uuid.UUID
	Name          string
	Description   *string
	Image         *string
	TaxApplicable *bool
	TaxPercentage *money.Money
	IsTaxInherit  bool
	IsActive      bool
}

func (q *Queries) CreateSubcategory(ctx context.Context, arg CreateSubcategoryParams) (Subcategory, error) {
	row := q.db.QueryRow(ctx, createSubcategory,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.Image,
		arg.TaxApplicable,
		arg.TaxPercentage,
		arg.IsTaxInherit,
		arg.IsActive,
	)
	return scanSubcategory(row)
}

const getSubcategory = `-- name: GetSubcategory :one
SELECT ` + subcategoryColumns + ` FROM subcategories s WHERE s.id = $1`

func (q *Queries) GetSubcategory(ctx context.Context, id uuid.UUID) (Subcategory, error) {
	return scanSubcategory(q.db.QueryRow(ctx, getSubcategory, id))
}

const updateSubcategory = `-- name: UpdateSubcategory :one
UPDATE subcategories AS s
SET category_id = $2,
    name = $3,
    description = $4,
    image = $5,
    tax_applicable = $6,
    tax_percentage = $7,
    is_tax_inherit = $8,
    is_active = $9,
    updated_at = now()
WHERE s.id = $1
RETURNING ` + subcategoryColumns

type UpdateSubcategoryParams struct {
	ID            uuid.UUID
	CategoryID    uuid.UUID
	Name          string
	Description   *string
	Image         *string
	TaxApplicable *bool
	TaxPercentage *money.Money
	IsTaxInherit  bool
	IsActive      bool
}

func (q *Queries) UpdateSubcategory(ctx context.Context, arg UpdateSubcategoryParams) (Subcategory, error) {
	row := q.db.QueryRow(ctx, updateSubcategory,
		arg.ID,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.Image,
		arg.TaxApplicable,
		arg.TaxPercentage,
		arg.IsTaxInherit,
		arg.IsActive,
	)
	return scanSubcategory(row)
}

const setSubcategoryActive = `-- name: SetSubcategoryActive :execrows
UPDATE subcategories SET is_active = $2, updated_at = now() WHERE id = $1`

func (q *Queries) SetSubcategoryActive(ctx context.Context, id uuid.UUID, active bool) (int64, error) {
	tag, err := q.db.Exec(ctx, setSubcategoryActive, id, active)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listSubcategoriesByCategory = `-- name: ListSubcategoriesByCategory :many
SELECT ` + subcategoryColumns + `
FROM subcategories s
WHERE s.category_id = $1
ORDER BY s.name`

func (q *Queries) ListSubcategoriesByCategory(ctx context.Context, categoryID uuid.UUID) ([]Subcategory, error) {
	rows, err := q.db.Query(ctx, listSubcategoriesByCategory, categoryID)
	if err != nil {
		return nil, err
	}
	return collectSubcategories(rows)
}

const deactivateSubcategoriesByCategory = `-- name: DeactivateSubcategoriesByCategory :execrows
UPDATE subcategories SET is_active = false, updated_at = now()
WHERE category_id = $1 AND is_active`

func (q *Queries) DeactivateSubcategoriesByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deactivateSubcategoriesByCategory, categoryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const resetInheritedSubcategoryTax = `-- name: ResetInheritedSubcategoryTax :execrows
UPDATE subcategories SET tax_applicable = NULL, tax_percentage = NULL, updated_at = now()
WHERE category_id = $1 AND is_tax_inherit`

func (q *Queries) ResetInheritedSubcategoryTax(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, resetInheritedSubcategoryTax, categoryID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// The tax filter compares against the resolved setting: own when not inheriting, else the category's.
const subcategoryFilter = `
FROM subcategories s
JOIN categories c ON c.id = s.category_id
WHERE ($1::uuid IS NULL OR s.category_id = $1::uuid)
  AND ($2::text IS NULL OR s.name ILIKE '%' || $2::text || '%')
  AND ($3::bool IS NULL OR
       (CASE WHEN s.is_tax_inherit THEN c.tax_applicable ELSE COALESCE(s.tax_applicable, false) END) = $3::bool)
  AND (NOT $4::bool OR s.is_active)`

const listSubcategories = `-- name: ListSubcategories :many
SELECT ` + subcategoryColumns + subcategoryFilter + `
ORDER BY
  CASE WHEN $5::text = 'name' AND $6::text = 'asc' THEN s.name END ASC,
  CASE WHEN $5::text = 'name' AND $6::text = 'desc' THEN s.name END DESC,
  CASE WHEN $5::text = 'created_at' AND $6::text = 'asc' THEN s.created_at END ASC,
  s.created_at DESC,
  s.id
LIMIT $7 OFFSET $8`

type ListSubcategoriesParams struct {
	CategoryID    *uuid.UUID
	Search        *string
	TaxApplicable *bool
	ActiveOnly    bool
	SortBy        string
	SortDir       string
	Limit         int32
	Offset        int32
}

func (q *Queries) ListSubcategories(ctx context.Context, arg ListSubcategoriesParams) ([]Subcategory, error) {
	rows, err := q.db.Query(ctx, listSubcategories,
		arg.CategoryID,
		arg.Search,
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
	return collectSubcategories(rows)
}

const countSubcategories = `-- name: CountSubcategories :one
SELECT count(*)` + subcategoryFilter

type CountSubcategoriesParams struct {
	CategoryID    *uuid.UUID
	Search        *string
	TaxApplicable *bool
	ActiveOnly    bool
}

func (q *Queries) CountSubcategories(ctx context.Context, arg CountSubcategoriesParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countSubcategories,
		arg.CategoryID,
		arg.Search,
		arg.TaxApplicable,
		arg.ActiveOnly,
	).Scan(&count)
	return count, err
}
