package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/money"
)

const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

type Category struct {
	ID            uuid.UUID
	Name          string
	Description   *string
	Image         *string
	TaxApplicable bool
	TaxPercentage money.Money
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Subcategory struct {
	ID            uuid.UUID
	CategoryID    uuid.UUID
	Name          string
	Description   *string
	Image         *string
	TaxApplicable *bool
	TaxPercentage *money.Money
	IsTaxInherit  bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Item struct {
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
	DeletedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Addon struct {
	ID          uuid.UUID
	ItemID      uuid.UUID
	Name        string
	Price       money.Money
	IsMandatory bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Booking struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
