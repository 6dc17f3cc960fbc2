package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

// Locker serializes work per key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// ActiveUsage reports how many hours of a booking in progress have elapsed at an instant.
// A nil result means no booking is active.
type ActiveUsage interface {
	ActiveUsageHours(ctx context.Context, itemID uuid.UUID, at time.Time) (*float64, error)
}

// Service implements the catalog use cases on top of the store.
type Service struct {
	store        db.TxQuerier
	cache        *Cache
	engine       *pricing.Engine
	locker       Locker
	usage        ActiveUsage
	lockTTL      time.Duration
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        db.TxQuerier
	Cache        *Cache
	Engine       *pricing.Engine
	Locker       Locker
	Usage        ActiveUsage
	LockTTL      time.Duration
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	engine := cfg.Engine
	if engine == nil {
		engine = pricing.NewEngine(time.UTC)
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		engine:       engine,
		locker:       cfg.Locker,
		usage:        cfg.Usage,
		lockTTL:      lockTTL,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// SetUsage plugs in the booking-backed usage source after construction.
func (s *Service) SetUsage(u ActiveUsage) { s.usage = u }

// Engine exposes the pricing engine so other packages quote with the same clock and zone.
func (s *Service) Engine() *pricing.Engine { return s.engine }

// Store exposes the underlying store.
func (s *Service) Store() db.TxQuerier { return s.store }

func (s *Service) location() *time.Location {
	if s.engine.Location != nil {
		return s.engine.Location
	}
	return time.UTC
}

func (s *Service) now() time.Time {
	if s.engine.Now != nil {
		return s.engine.Now()
	}
	return time.Now()
}

// ListParams captures filters shared by the list endpoints.
type ListParams struct {
	Search        string
	Page          int
	Limit         int
	SortBy        string
	SortDir       string
	ActiveOnly    bool
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	MinPrice      *money.Money
	MaxPrice      *money.Money
	TaxApplicable *bool
}

func (p ListParams) offset() int32 { return int32((p.Page - 1) * p.Limit) }

// ListResult contains list data and pagination metadata.
type ListResult[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// ParseListParams normalises raw query values into strongly typed filters. sortable lists the
// accepted sortBy values; results default to created_at desc.
func (s *Service) ParseListParams(values url.Values, sortable ...string) (ListParams, error) {
	params := ListParams{
		Page:       s.defaultPage,
		Limit:      s.defaultLimit,
		SortBy:     "created_at",
		SortDir:    "desc",
		ActiveOnly: true,
	}
	params.Search = strings.TrimSpace(values.Get("q"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = l
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}

	if v := strings.TrimSpace(values.Get("sortBy")); v != "" {
		if !contains(sortable, v) {
			return params, badRequest("sortBy", "sortBy must be one of "+strings.Join(sortable, ", "), nil)
		}
		params.SortBy = v
	}
	if v := strings.ToLower(strings.TrimSpace(values.Get("sortDir"))); v != "" {
		if v != "asc" && v != "desc" {
			return params, badRequest("sortDir", "sortDir must be asc or desc", nil)
		}
		params.SortDir = v
	}
	if v := strings.TrimSpace(values.Get("activeOnly")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return params, badRequest("activeOnly", "activeOnly must be true or false", err)
		}
		params.ActiveOnly = b
	}
	if v := strings.TrimSpace(values.Get("taxApplicable")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return params, badRequest("taxApplicable", "taxApplicable must be true or false", err)
		}
		params.TaxApplicable = &b
	}

	var err error
	if params.CategoryID, err = optionalUUID(values, "categoryId"); err != nil {
		return params, err
	}
	if params.SubcategoryID, err = optionalUUID(values, "subcategoryId"); err != nil {
		return params, err
	}
	if params.MinPrice, err = optionalMoney(values, "minPrice"); err != nil {
		return params, err
	}
	if params.MaxPrice, err = optionalMoney(values, "maxPrice"); err != nil {
		return params, err
	}
	if params.MinPrice != nil && params.MaxPrice != nil && params.MinPrice.GreaterThan(*params.MaxPrice) {
		return params, badRequest("price", "minPrice cannot be greater than maxPrice", fmt.Errorf("invalid price range"))
	}
	return params, nil
}

func optionalUUID(values url.Values, key string) (*uuid.UUID, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, badRequest(key, key+" must be a UUID", err)
	}
	return &id, nil
}

func optionalMoney(values url.Values, key string) (*money.Money, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return nil, nil
	}
	m, err := money.Parse(v)
	if err != nil {
		return nil, badRequest(key, key+" must be a number", err)
	}
	if m.IsNegative() {
		return nil, badRequest(key, key+" must not be negative", nil)
	}
	return &m, nil
}

// ParseID parses a path identifier.
func ParseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, badRequest(field, field+" must be a UUID", err)
	}
	return id, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
