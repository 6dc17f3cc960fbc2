// Package dbtest provides an in-memory db.TxQuerier for service tests.
package dbtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-menu/internal/db"
)

// MemStore keeps rows in maps and mimics the SQL semantics the services rely on.
type MemStore struct {
	mu  sync.Mutex
	txm sync.Mutex

	Now func() time.Time

	categories    map[uuid.UUID]db.Category
	subcategories map[uuid.UUID]db.Subcategory
	items         map[uuid.UUID]db.Item
	addons        map[uuid.UUID]db.Addon
	bookings      map[uuid.UUID]db.Booking

	// FailOn makes the named method return the error once, for rollback tests.
	FailOn map[string]error
}

func New() *MemStore {
	return &MemStore{
		Now:           time.Now,
		categories:    map[uuid.UUID]db.Category{},
		subcategories: map[uuid.UUID]db.Subcategory{},
		items:         map[uuid.UUID]db.Item{},
		addons:        map[uuid.UUID]db.Addon{},
		bookings:      map[uuid.UUID]db.Booking{},
		FailOn:        map[string]error{},
	}
}

var _ db.TxQuerier = (*MemStore)(nil)

type snapshot struct {
	categories    map[uuid.UUID]db.Category
	subcategories map[uuid.UUID]db.Subcategory
	items         map[uuid.UUID]db.Item
	addons        map[uuid.UUID]db.Addon
	bookings      map[uuid.UUID]db.Booking
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ExecTx serializes transactions and restores the previous state when fn fails.
func (m *MemStore) ExecTx(ctx context.Context, fn func(db.Querier) error) error {
	m.txm.Lock()
	defer m.txm.Unlock()

	m.mu.Lock()
	snap := snapshot{
		categories:    copyMap(m.categories),
		subcategories: copyMap(m.subcategories),
		items:         copyMap(m.items),
		addons:        copyMap(m.addons),
		bookings:      copyMap(m.bookings),
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.categories = snap.categories
		m.subcategories = snap.subcategories
		m.items = snap.items
		m.addons = snap.addons
		m.bookings = snap.bookings
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemStore) fail(name string) error {
	if err, ok := m.FailOn[name]; ok {
		delete(m.FailOn, name)
		return err
	}
	return nil
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func contains(haystack string, needle *string) bool {
	if needle == nil {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(*needle))
}

func page[T any](rows []T, limit, offset int32) []T {
	if offset >= int32(len(rows)) {
		return nil
	}
	end := int(offset) + int(limit)
	if limit <= 0 || end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

type sortKey struct {
	name    string
	created time.Time
	price   float64
	id      uuid.UUID
}

func less(by, dir string, a, b sortKey) bool {
	switch {
	case by == "name" && a.name != b.name:
		if dir == "asc" {
			return a.name < b.name
		}
		return a.name > b.name
	case by == "price" && a.price != b.price:
		if dir == "asc" {
			return a.price < b.price
		}
		return a.price > b.price
	case by == "created_at" && dir == "asc" && !a.created.Equal(b.created):
		return a.created.Before(b.created)
	}
	if !a.created.Equal(b.created) {
		return a.created.After(b.created)
	}
	return a.id.String() < b.id.String()
}

// ---- categories

func (m *MemStore) CreateCategory(_ context.Context, arg db.CreateCategoryParams) (db.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateCategory"); err != nil {
		return db.Category{}, err
	}
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, arg.Name) {
			return db.Category{}, uniqueViolation("categories_name_key")
		}
	}
	now := m.Now()
	c := db.Category{
		ID:            uuid.New(),
		Name:          arg.Name,
		Description:   arg.Description,
		Image:         arg.Image,
		TaxApplicable: arg.TaxApplicable,
		TaxPercentage: arg.TaxPercentage,
		IsActive:      arg.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.categories[c.ID] = c
	return c, nil
}

func (m *MemStore) GetCategory(_ context.Context, id uuid.UUID) (db.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return db.Category{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *MemStore) UpdateCategory(_ context.Context, arg db.UpdateCategoryParams) (db.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateCategory"); err != nil {
		return db.Category{}, err
	}
	c, ok := m.categories[arg.ID]
	if !ok {
		return db.Category{}, pgx.ErrNoRows
	}
	for _, other := range m.categories {
		if other.ID != arg.ID && strings.EqualFold(other.Name, arg.Name) {
			return db.Category{}, uniqueViolation("categories_name_key")
		}
	}
	c.Name = arg.Name
	c.Description = arg.Description
	c.Image = arg.Image
	c.TaxApplicable = arg.TaxApplicable
	c.TaxPercentage = arg.TaxPercentage
	c.IsActive = arg.IsActive
	c.UpdatedAt = m.Now()
	m.categories[c.ID] = c
	return c, nil
}

func (m *MemStore) SetCategoryActive(_ context.Context, id uuid.UUID, active bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SetCategoryActive"); err != nil {
		return 0, err
	}
	c, ok := m.categories[id]
	if !ok {
		return 0, nil
	}
	c.IsActive = active
	c.UpdatedAt = m.Now()
	m.categories[id] = c
	return 1, nil
}

func (m *MemStore) filterCategories(search *string, activeOnly bool) []db.Category {
	var out []db.Category
	for _, c := range m.categories {
		if !contains(c.Name, search) || (activeOnly && !c.IsActive) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (m *MemStore) ListCategories(_ context.Context, arg db.ListCategoriesParams) ([]db.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.filterCategories(arg.Search, arg.ActiveOnly)
	sort.Slice(rows, func(i, j int) bool {
		return less(arg.SortBy, arg.SortDir,
			sortKey{name: rows[i].Name, created: rows[i].CreatedAt, id: rows[i].ID},
			sortKey{name: rows[j].Name, created: rows[j].CreatedAt, id: rows[j].ID})
	})
	return page(rows, arg.Limit, arg.Offset), nil
}

func (m *MemStore) CountCategories(_ context.Context, arg db.CountCategoriesParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filterCategories(arg.Search, arg.ActiveOnly))), nil
}

// ---- subcategories

func (m *MemStore) checkSubcategoryName(id, categoryID uuid.UUID, name string) error {
	for _, s := range m.subcategories {
		if s.ID != id && s.CategoryID == categoryID && strings.EqualFold(s.Name, name) {
			return uniqueViolation("subcategories_category_name_key")
		}
	}
	return nil
}

func (m *MemStore) CreateSubcategory(_ context.Context, arg db.CreateSubcategoryParams) (db.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateSubcategory"); err != nil {
		return db.Subcategory{}, err
	}
	if _, ok := m.categories[arg.CategoryID]; !ok {
		return db.Subcategory{}, &pgconn.PgError{Code: "23503", ConstraintName: "subcategories_category_id_fkey"}
	}
	if err := m.checkSubcategoryName(uuid.Nil, arg.CategoryID, arg.Name); err != nil {
		return db.Subcategory{}, err
	}
	now := m.Now()
	s := db.Subcategory{
		ID:            uuid.New(),
		CategoryID:    arg.CategoryID,
		Name:          arg.Name,
		Description:   arg.Description,
		Image:         arg.Image,
		TaxApplicable: arg.TaxApplicable,
		TaxPercentage: arg.TaxPercentage,
		IsTaxInherit:  arg.IsTaxInherit,
		IsActive:      arg.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.subcategories[s.ID] = s
	return s, nil
}

func (m *MemStore) GetSubcategory(_ context.Context, id uuid.UUID) (db.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subcategories[id]
	if !ok {
		return db.Subcategory{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *MemStore) UpdateSubcategory(_ context.Context, arg db.UpdateSubcategoryParams) (db.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateSubcategory"); err != nil {
		return db.Subcategory{}, err
	}
	s, ok := m.subcategories[arg.ID]
	if !ok {
		return db.Subcategory{}, pgx.ErrNoRows
	}
	if err := m.checkSubcategoryName(arg.ID, arg.CategoryID, arg.Name); err != nil {
		return db.Subcategory{}, err
	}
	s.CategoryID = arg.CategoryID
	s.Name = arg.Name
	s.Description = arg.Description
	s.Image = arg.Image
	s.TaxApplicable = arg.TaxApplicable
	s.TaxPercentage = arg.TaxPercentage
	s.IsTaxInherit = arg.IsTaxInherit
	s.IsActive = arg.IsActive
	s.UpdatedAt = m.Now()
	m.subcategories[s.ID] = s
	return s, nil
}

func (m *MemStore) SetSubcategoryActive(_ context.Context, id uuid.UUID, active bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subcategories[id]
	if !ok {
		return 0, nil
	}
	s.IsActive = active
	s.UpdatedAt = m.Now()
	m.subcategories[id] = s
	return 1, nil
}

func (m *MemStore) subcategoryTaxApplicable(s db.Subcategory) bool {
	if s.IsTaxInherit {
		return m.categories[s.CategoryID].TaxApplicable
	}
	return s.TaxApplicable != nil && *s.TaxApplicable
}

func (m *MemStore) filterSubcategories(categoryID *uuid.UUID, search *string, taxApplicable *bool, activeOnly bool) []db.Subcategory {
	var out []db.Subcategory
	for _, s := range m.subcategories {
		if categoryID != nil && s.CategoryID != *categoryID {
			continue
		}
		if !contains(s.Name, search) || (activeOnly && !s.IsActive) {
			continue
		}
		if taxApplicable != nil && m.subcategoryTaxApplicable(s) != *taxApplicable {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (m *MemStore) ListSubcategories(_ context.Context, arg db.ListSubcategoriesParams) ([]db.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.filterSubcategories(arg.CategoryID, arg.Search, arg.TaxApplicable, arg.ActiveOnly)
	sort.Slice(rows, func(i, j int) bool {
		return less(arg.SortBy, arg.SortDir,
			sortKey{name: rows[i].Name, created: rows[i].CreatedAt, id: rows[i].ID},
			sortKey{name: rows[j].Name, created: rows[j].CreatedAt, id: rows[j].ID})
	})
	return page(rows, arg.Limit, arg.Offset), nil
}

func (m *MemStore) CountSubcategories(_ context.Context, arg db.CountSubcategoriesParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filterSubcategories(arg.CategoryID, arg.Search, arg.TaxApplicable, arg.ActiveOnly))), nil
}

func (m *MemStore) ListSubcategoriesByCategory(_ context.Context, categoryID uuid.UUID) ([]db.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.filterSubcategories(&categoryID, nil, nil, false)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (m *MemStore) DeactivateSubcategoriesByCategory(_ context.Context, categoryID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeactivateSubcategoriesByCategory"); err != nil {
		return 0, err
	}
	var n int64
	for id, s := range m.subcategories {
		if s.CategoryID == categoryID && s.IsActive {
			s.IsActive = false
			m.subcategories[id] = s
			n++
		}
	}
	return n, nil
}

func (m *MemStore) ResetInheritedSubcategoryTax(_ context.Context, categoryID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.subcategories {
		if s.CategoryID == categoryID && s.IsTaxInherit {
			s.TaxApplicable, s.TaxPercentage = nil, nil
			m.subcategories[id] = s
			n++
		}
	}
	return n, nil
}

// ---- items

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *MemStore) checkItemName(id uuid.UUID, categoryID, subcategoryID *uuid.UUID, name string) error {
	for _, it := range m.items {
		if it.ID == id || it.DeletedAt != nil {
			continue
		}
		if sameParent(it.CategoryID, categoryID) && sameParent(it.SubcategoryID, subcategoryID) && strings.EqualFold(it.Name, name) {
			return uniqueViolation("items_parent_name_key")
		}
	}
	return nil
}

func (m *MemStore) CreateItem(_ context.Context, arg db.CreateItemParams) (db.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateItem"); err != nil {
		return db.Item{}, err
	}
	if err := m.checkItemName(uuid.Nil, arg.CategoryID, arg.SubcategoryID, arg.Name); err != nil {
		return db.Item{}, err
	}
	now := m.Now()
	it := db.Item{
		ID:            uuid.New(),
		CategoryID:    arg.CategoryID,
		SubcategoryID: arg.SubcategoryID,
		Name:          arg.Name,
		Description:   arg.Description,
		Image:         arg.Image,
		BasePrice:     arg.BasePrice,
		PricingType:   arg.PricingType,
		PricingConfig: arg.PricingConfig,
		TaxApplicable: arg.TaxApplicable,
		TaxPercentage: arg.TaxPercentage,
		IsTaxInherit:  arg.IsTaxInherit,
		IsBookable:    arg.IsBookable,
		AvlDays:       arg.AvlDays,
		AvlTimes:      arg.AvlTimes,
		IsActive:      arg.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.items[it.ID] = it
	return it, nil
}

func (m *MemStore) getItem(id uuid.UUID) (db.Item, error) {
	it, ok := m.items[id]
	if !ok || it.DeletedAt != nil {
		return db.Item{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *MemStore) GetItem(_ context.Context, id uuid.UUID) (db.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getItem(id)
}

func (m *MemStore) LockItem(ctx context.Context, id uuid.UUID) (db.Item, error) {
	return m.GetItem(ctx, id)
}

func (m *MemStore) UpdateItem(_ context.Context, arg db.UpdateItemParams) (db.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateItem"); err != nil {
		return db.Item{}, err
	}
	it, err := m.getItem(arg.ID)
	if err != nil {
		return db.Item{}, err
	}
	if err := m.checkItemName(arg.ID, arg.CategoryID, arg.SubcategoryID, arg.Name); err != nil {
		return db.Item{}, err
	}
	it.CategoryID = arg.CategoryID
	it.SubcategoryID = arg.SubcategoryID
	it.Name = arg.Name
	it.Description = arg.Description
	it.Image = arg.Image
	it.BasePrice = arg.BasePrice
	it.PricingType = arg.PricingType
	it.PricingConfig = arg.PricingConfig
	it.TaxApplicable = arg.TaxApplicable
	it.TaxPercentage = arg.TaxPercentage
	it.IsTaxInherit = arg.IsTaxInherit
	it.IsBookable = arg.IsBookable
	it.AvlDays = arg.AvlDays
	it.AvlTimes = arg.AvlTimes
	it.IsActive = arg.IsActive
	it.UpdatedAt = m.Now()
	m.items[it.ID] = it
	return it, nil
}

func (m *MemStore) SoftDeleteItem(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, err := m.getItem(id)
	if err != nil {
		return 0, nil
	}
	now := m.Now()
	it.IsActive = false
	it.DeletedAt = &now
	m.items[id] = it
	return 1, nil
}

// underCategory reports whether the item hangs off the category directly or via a subcategory.
func (m *MemStore) underCategory(it db.Item, categoryID uuid.UUID) bool {
	if it.CategoryID != nil && *it.CategoryID == categoryID {
		return true
	}
	if it.SubcategoryID != nil {
		if s, ok := m.subcategories[*it.SubcategoryID]; ok && s.CategoryID == categoryID {
			return true
		}
	}
	return false
}

func (m *MemStore) itemTaxApplicable(it db.Item) bool {
	if !it.IsTaxInherit {
		return it.TaxApplicable != nil && *it.TaxApplicable
	}
	if it.SubcategoryID != nil {
		if s, ok := m.subcategories[*it.SubcategoryID]; ok {
			if !s.IsTaxInherit {
				return s.TaxApplicable != nil && *s.TaxApplicable
			}
			if c, ok := m.categories[s.CategoryID]; ok {
				return c.TaxApplicable
			}
		}
	}
	if it.CategoryID != nil {
		if c, ok := m.categories[*it.CategoryID]; ok {
			return c.TaxApplicable
		}
	}
	return false
}

func (m *MemStore) filterItems(arg db.CountItemsParams) []db.Item {
	var out []db.Item
	for _, it := range m.items {
		if it.DeletedAt != nil || !contains(it.Name, arg.Search) || (arg.ActiveOnly && !it.IsActive) {
			continue
		}
		if arg.CategoryID != nil && !m.underCategory(it, *arg.CategoryID) {
			continue
		}
		if arg.SubcategoryID != nil && (it.SubcategoryID == nil || *it.SubcategoryID != *arg.SubcategoryID) {
			continue
		}
		if arg.MinPrice != nil && it.BasePrice.LessThan(*arg.MinPrice) {
			continue
		}
		if arg.MaxPrice != nil && it.BasePrice.GreaterThan(*arg.MaxPrice) {
			continue
		}
		if arg.TaxApplicable != nil && m.itemTaxApplicable(it) != *arg.TaxApplicable {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (m *MemStore) ListItems(_ context.Context, arg db.ListItemsParams) ([]db.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.filterItems(db.CountItemsParams{
		Search:        arg.Search,
		CategoryID:    arg.CategoryID,
		SubcategoryID: arg.SubcategoryID,
		MinPrice:      arg.MinPrice,
		MaxPrice:      arg.MaxPrice,
		TaxApplicable: arg.TaxApplicable,
		ActiveOnly:    arg.ActiveOnly,
	})
	key := func(it db.Item) sortKey {
		return sortKey{name: it.Name, created: it.CreatedAt, price: it.BasePrice.Float64(), id: it.ID}
	}
	sort.Slice(rows, func(i, j int) bool { return less(arg.SortBy, arg.SortDir, key(rows[i]), key(rows[j])) })
	return page(rows, arg.Limit, arg.Offset), nil
}

func (m *MemStore) CountItems(_ context.Context, arg db.CountItemsParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filterItems(arg))), nil
}

func (m *MemStore) listItemsWhere(pred func(db.Item) bool) []db.Item {
	var out []db.Item
	for _, it := range m.items {
		if it.DeletedAt == nil && pred(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *MemStore) ListItemsByCategory(_ context.Context, categoryID uuid.UUID) ([]db.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listItemsWhere(func(it db.Item) bool { return it.CategoryID != nil && *it.CategoryID == categoryID }), nil
}

func (m *MemStore) ListItemsBySubcategory(_ context.Context, subcategoryID uuid.UUID) ([]db.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listItemsWhere(func(it db.Item) bool { return it.SubcategoryID != nil && *it.SubcategoryID == subcategoryID }), nil
}

func (m *MemStore) updateItemsWhere(pred func(db.Item) bool, apply func(*db.Item)) int64 {
	var n int64
	for id, it := range m.items {
		if pred(it) {
			apply(&it)
			m.items[id] = it
			n++
		}
	}
	return n
}

func deactivate(it *db.Item) { it.IsActive = false }

func resetTax(it *db.Item) { it.TaxApplicable, it.TaxPercentage = nil, nil }

func (m *MemStore) DeactivateItemsByCategory(_ context.Context, categoryID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeactivateItemsByCategory"); err != nil {
		return 0, err
	}
	return m.updateItemsWhere(func(it db.Item) bool {
		return it.IsActive && it.DeletedAt == nil && m.underCategory(it, categoryID)
	}, deactivate), nil
}

func (m *MemStore) DeactivateItemsBySubcategory(_ context.Context, subcategoryID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateItemsWhere(func(it db.Item) bool {
		return it.IsActive && it.DeletedAt == nil && it.SubcategoryID != nil && *it.SubcategoryID == subcategoryID
	}, deactivate), nil
}

func (m *MemStore) ResetInheritedItemTaxByCategory(_ context.Context, categoryID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateItemsWhere(func(it db.Item) bool {
		return it.IsTaxInherit && m.underCategory(it, categoryID)
	}, resetTax), nil
}

func (m *MemStore) ResetInheritedItemTaxBySubcategory(_ context.Context, subcategoryID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateItemsWhere(func(it db.Item) bool {
		return it.IsTaxInherit && it.SubcategoryID != nil && *it.SubcategoryID == subcategoryID
	}, resetTax), nil
}

func (m *MemStore) ListItemsForBulk(_ context.Context, arg db.ListItemsForBulkParams) ([]db.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.listItemsWhere(func(it db.Item) bool {
		if it.PricingType != arg.PricingType {
			return false
		}
		if arg.CategoryID != nil && m.underCategory(it, *arg.CategoryID) {
			return true
		}
		return arg.SubcategoryID != nil && it.SubcategoryID != nil && *it.SubcategoryID == *arg.SubcategoryID
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (m *MemStore) SetItemPricingConfig(_ context.Context, id uuid.UUID, config []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SetItemPricingConfig"); err != nil {
		return err
	}
	it, ok := m.items[id]
	if !ok {
		return nil
	}
	it.PricingConfig = append([]byte(nil), config...)
	it.UpdatedAt = m.Now()
	m.items[id] = it
	return nil
}

// ---- addons

func (m *MemStore) CreateAddon(_ context.Context, arg db.CreateAddonParams) (db.Addon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.addons {
		if a.ItemID == arg.ItemID && strings.EqualFold(a.Name, arg.Name) {
			return db.Addon{}, uniqueViolation("addons_item_name_key")
		}
	}
	now := m.Now()
	a := db.Addon{
		ID:          uuid.New(),
		ItemID:      arg.ItemID,
		Name:        arg.Name,
		Price:       arg.Price,
		IsMandatory: arg.IsMandatory,
		IsActive:    arg.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.addons[a.ID] = a
	return a, nil
}

func (m *MemStore) ListAddonsByItem(_ context.Context, itemID uuid.UUID, activeOnly bool) ([]db.Addon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Addon
	for _, a := range m.addons {
		if a.ItemID == itemID && (!activeOnly || a.IsActive) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsMandatory != out[j].IsMandatory {
			return out[i].IsMandatory
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemStore) DeactivateAddon(_ context.Context, itemID, addonID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addons[addonID]
	if !ok || a.ItemID != itemID || !a.IsActive {
		return 0, nil
	}
	a.IsActive = false
	m.addons[addonID] = a
	return 1, nil
}

// ---- bookings

func (m *MemStore) CreateBooking(_ context.Context, arg db.CreateBookingParams) (db.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateBooking"); err != nil {
		return db.Booking{}, err
	}
	now := m.Now()
	b := db.Booking{
		ID:        uuid.New(),
		ItemID:    arg.ItemID,
		StartTime: arg.StartTime,
		EndTime:   arg.EndTime,
		Status:    db.BookingConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.bookings[b.ID] = b
	return b, nil
}

func (m *MemStore) GetBooking(_ context.Context, id uuid.UUID) (db.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return db.Booking{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *MemStore) bookingsWhere(pred func(db.Booking) bool) []db.Booking {
	var out []db.Booking
	for _, b := range m.bookings {
		if pred(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func overlaps(b db.Booking, from, to time.Time) bool {
	return b.Status != db.BookingCancelled && b.StartTime.Before(to) && b.EndTime.After(from)
}

func (m *MemStore) FindOverlappingBooking(_ context.Context, arg db.FindOverlappingBookingParams) (db.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.bookingsWhere(func(b db.Booking) bool {
		return b.ItemID == arg.ItemID && overlaps(b, arg.StartTime, arg.EndTime)
	})
	if len(rows) == 0 {
		return db.Booking{}, pgx.ErrNoRows
	}
	return rows[0], nil
}

func (m *MemStore) ListBookingsByItem(_ context.Context, arg db.ListBookingsByItemParams) ([]db.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookingsWhere(func(b db.Booking) bool {
		if b.ItemID != arg.ItemID {
			return false
		}
		if arg.Status != nil && b.Status != *arg.Status {
			return false
		}
		if arg.From != nil && !b.EndTime.After(*arg.From) {
			return false
		}
		if arg.To != nil && !b.StartTime.Before(*arg.To) {
			return false
		}
		return true
	}), nil
}

func (m *MemStore) ListBookingsInRange(_ context.Context, arg db.ListBookingsInRangeParams) ([]db.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookingsWhere(func(b db.Booking) bool {
		return b.ItemID == arg.ItemID && overlaps(b, arg.From, arg.To)
	}), nil
}

func (m *MemStore) FindActiveBooking(_ context.Context, itemID uuid.UUID, at time.Time) (db.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.bookingsWhere(func(b db.Booking) bool {
		return b.ItemID == itemID && b.Status == db.BookingConfirmed && !b.StartTime.After(at) && b.EndTime.After(at)
	})
	if len(rows) == 0 {
		return db.Booking{}, pgx.ErrNoRows
	}
	return rows[len(rows)-1], nil
}

func (m *MemStore) CancelBooking(_ context.Context, id uuid.UUID) (db.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != db.BookingConfirmed {
		return db.Booking{}, pgx.ErrNoRows
	}
	b.Status = db.BookingCancelled
	b.UpdatedAt = m.Now()
	m.bookings[id] = b
	return b, nil
}

func (m *MemStore) CompleteExpiredBookings(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, b := range m.bookings {
		if b.Status == db.BookingConfirmed && !b.EndTime.After(now) {
			b.Status = db.BookingCompleted
			b.UpdatedAt = now
			m.bookings[id] = b
			n++
		}
	}
	return n, nil
}
