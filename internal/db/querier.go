package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Querier interface {
	CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (Category, error)
	UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error)
	SetCategoryActive(ctx context.Context, id uuid.UUID, active bool) (int64, error)
	ListCategories(ctx context.Context, arg ListCategoriesParams) ([]Category, error)
	CountCategories(ctx context.Context, arg CountCategoriesParams) (int64, error)

	CreateSubcategory(ctx context.Context, arg CreateSubcategoryParams) (Subcategory, error)
	GetSubcategory(ctx context.Context, id uuid.UUID) (Subcategory, error)
	UpdateSubcategory(ctx context.Context, arg UpdateSubcategoryParams) (Subcategory, error)
	SetSubcategoryActive(ctx context.Context, id uuid.UUID, active bool) (int64, error)
	ListSubcategories(ctx context.Context, arg ListSubcategoriesParams) ([]Subcategory, error)
	CountSubcategories(ctx context.Context, arg CountSubcategoriesParams) (int64, error)
	ListSubcategoriesByCategory(ctx context.Context, categoryID uuid.UUID) ([]Subcategory, error)
	DeactivateSubcategoriesByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	ResetInheritedSubcategoryTax(ctx context.Context, categoryID uuid.UUID) (int64, error)

	CreateItem(ctx context.Context, arg CreateItemParams) (Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (Item, error)
	LockItem(ctx context.Context, id uuid.UUID) (Item, error)
	UpdateItem(ctx context.Context, arg UpdateItemParams) (Item, error)
	SoftDeleteItem(ctx context.Context, id uuid.UUID) (int64, error)
	ListItems(ctx context.Context, arg ListItemsParams) ([]Item, error)
	CountItems(ctx context.Context, arg CountItemsParams) (int64, error)
	ListItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]Item, error)
	ListItemsBySubcategory(ctx context.Context, subcategoryID uuid.UUID) ([]Item, error)
	DeactivateItemsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	DeactivateItemsBySubcategory(ctx context.Context, subcategoryID uuid.UUID) (int64, error)
	ResetInheritedItemTaxByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	ResetInheritedItemTaxBySubcategory(ctx context.Context, subcategoryID uuid.UUID) (int64, error)
	ListItemsForBulk(ctx context.Context, arg ListItemsForBulkParams) ([]Item, error)
	SetItemPricingConfig(ctx context.Context, id uuid.UUID, config []byte) error

	CreateAddon(ctx context.Context, arg CreateAddonParams) (Addon, error)
	ListAddonsByItem(ctx context.Context, itemID uuid.UUID, activeOnly bool) ([]Addon, error)
	DeactivateAddon(ctx context.Context, itemID, addonID uuid.UUID) (int64, error)

	CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (Booking, error)
	FindOverlappingBooking(ctx context.Context, arg FindOverlappingBookingParams) (Booking, error)
	ListBookingsByItem(ctx context.Context, arg ListBookingsByItemParams) ([]Booking, error)
	ListBookingsInRange(ctx context.Context, arg ListBookingsInRangeParams) ([]Booking, error)
	FindActiveBooking(ctx context.Context, itemID uuid.UUID, at time.Time) (Booking, error)
	CancelBooking(ctx context.Context, id uuid.UUID) (Booking, error)
	CompleteExpiredBookings(ctx context.Context, now time.Time) (int64, error)
}

var _ Querier = (*Queries)(nil)
