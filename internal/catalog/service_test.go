package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/catalog"
	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/db/dbtest"
	"github.com/noah-isme/backend-menu/internal/lock"
	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

// Monday.
var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *catalog.Service
	store *dbtest.MemStore
	mr    *miniredis.Miniredis
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := dbtest.New()
	store.Now = func() time.Time { return fixedNow }
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Store:        store,
		Cache:        catalog.NewCache(rdb, time.Minute),
		Engine:       &pricing.Engine{Now: func() time.Time { return fixedNow }, Location: time.UTC},
		Locker:       lock.Locker{R: rdb, MaxWait: time.Second},
		DefaultLimit: 10,
		MaxLimit:     50,
	})
	require.NoError(t, err)
	return fixture{svc: svc, store: store, mr: mr}
}

func ptr[T any](v T) *T { return &v }

func amount(s string) *money.Money { return ptr(money.MustParse(s)) }

func win(start, end string) availability.Window {
	return availability.Window{Start: availability.MustClock(start), End: availability.MustClock(end)}
}

func requireAppError(t *testing.T, err error, status int, code string) *common.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, status, appErr.HTTPStatus)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func (f fixture) category(t *testing.T, name string, pct *money.Money) catalog.CategoryView {
	t.Helper()
	c, err := f.svc.CreateCategory(context.Background(), catalog.CategoryInput{Name: name, TaxPercentage: pct})
	require.NoError(t, err)
	return c
}

func (f fixture) item(t *testing.T, in catalog.ItemInput) catalog.ItemView {
	t.Helper()
	it, err := f.svc.CreateItem(context.Background(), in)
	require.NoError(t, err)
	return it
}

func TestCategoryTaxFlowsToInheritingItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cat := f.category(t, "Drinks", amount("10"))
	require.True(t, cat.TaxApplicable)

	sub, err := f.svc.CreateSubcategory(ctx, catalog.SubcategoryInput{CategoryID: cat.ID, Name: "Coffee"})
	require.NoError(t, err)
	require.True(t, sub.IsTaxInherit)
	require.Equal(t, "10.00", sub.TaxPercentage.String())

	it := f.item(t, catalog.ItemInput{SubcategoryID: &sub.ID, Name: "Latte", BasePrice: amount("100")})
	require.True(t, it.IsTaxInherit)

	q, err := f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{})
	require.NoError(t, err)
	require.Equal(t, "10.00", q.TaxAmount.String())
	require.Equal(t, "110.00", q.GrandTotal.String())

	_, err = f.svc.UpdateCategory(ctx, cat.ID, catalog.CategoryPatch{TaxPercentage: amount("5")})
	require.NoError(t, err)

	q, err = f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{})
	require.NoError(t, err)
	require.Equal(t, "5.00", q.TaxPercentage.String())
	require.Equal(t, "105.00", q.GrandTotal.String())
}

func TestCreateCategoryRejectsInvalidTaxPair(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateCategory(context.Background(), catalog.CategoryInput{Name: "Food", TaxApplicable: ptr(true)})
	requireAppError(t, err, http.StatusBadRequest, "INVALID_TAX")

	f.category(t, "Food", nil)
	_, err = f.svc.CreateCategory(context.Background(), catalog.CategoryInput{Name: "food"})
	requireAppError(t, err, http.StatusConflict, "CONFLICT")
}

func TestCreateSubcategoryWithMissingCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSubcategory(ctx, catalog.SubcategoryInput{CategoryID: uuid.New(), Name: "Orphan"})
	requireAppError(t, err, http.StatusUnprocessableEntity, "MISSING_PARENT_FOR_INHERITANCE")

	_, err = f.svc.CreateSubcategory(ctx, catalog.SubcategoryInput{CategoryID: uuid.New(), Name: "Orphan", TaxApplicable: ptr(false)})
	requireAppError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestCreateItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Mains", nil)
	sub, err := f.svc.CreateSubcategory(ctx, catalog.SubcategoryInput{CategoryID: cat.ID, Name: "Grill"})
	require.NoError(t, err)

	_, err = f.svc.CreateItem(ctx, catalog.ItemInput{CategoryID: &cat.ID, SubcategoryID: &sub.ID, Name: "Both"})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")

	_, err = f.svc.CreateItem(ctx, catalog.ItemInput{Name: "Loose", IsTaxInherit: ptr(true)})
	requireAppError(t, err, http.StatusUnprocessableEntity, "MISSING_PARENT_FOR_INHERITANCE")

	_, err = f.svc.CreateItem(ctx, catalog.ItemInput{CategoryID: &cat.ID, Name: "Cents", BasePrice: amount("1.005")})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")

	_, err = f.svc.CreateItem(ctx, catalog.ItemInput{CategoryID: ptr(uuid.New()), Name: "Ghost"})
	requireAppError(t, err, http.StatusNotFound, "NOT_FOUND")

	_, err = f.svc.CreateItem(ctx, catalog.ItemInput{CategoryID: &cat.ID, Name: "Tiers", PricingType: "B"})
	requireAppError(t, err, http.StatusBadRequest, "INVALID_CONFIG")

	loose := f.item(t, catalog.ItemInput{Name: "Loose", BasePrice: amount("12.5")})
	require.False(t, loose.IsTaxInherit)
	require.False(t, loose.TaxApplicable)
	require.Equal(t, pricing.Static, loose.PricingType)

	_, err = f.svc.CreateItem(ctx, catalog.ItemInput{CategoryID: &cat.ID, Name: "Steak"})
	require.NoError(t, err)
	_, err = f.svc.CreateItem(ctx, catalog.ItemInput{CategoryID: &cat.ID, Name: "steak"})
	requireAppError(t, err, http.StatusConflict, "CONFLICT")
}

func TestDynamicWindowsMustFitAvailability(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Rooms", nil)
	_, err := f.svc.CreateItem(context.Background(), catalog.ItemInput{
		CategoryID:    &cat.ID,
		Name:          "Studio",
		PricingType:   "dynamic",
		PricingConfig: json.RawMessage(`{"windows":[{"start":"08:00","end":"12:00","price":100}]}`),
		AvlDays:       []string{"Monday"},
		AvlTimes:      []availability.Window{win("09:00", "18:00")},
	})
	requireAppError(t, err, http.StatusBadRequest, "INVALID_CONFIG")
}

func TestDeleteCategoryCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Desserts", nil)
	sub, err := f.svc.CreateSubcategory(ctx, catalog.SubcategoryInput{CategoryID: cat.ID, Name: "Cakes"})
	require.NoError(t, err)
	direct := f.item(t, catalog.ItemInput{CategoryID: &cat.ID, Name: "Sundae"})
	nested := f.item(t, catalog.ItemInput{SubcategoryID: &sub.ID, Name: "Cheesecake"})

	require.NoError(t, f.svc.DeleteCategory(ctx, cat.ID))

	detail, err := f.svc.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	require.False(t, detail.IsActive)
	require.Len(t, detail.Subcategories, 1)
	require.False(t, detail.Subcategories[0].IsActive)

	for _, id := range []uuid.UUID{direct.ID, nested.ID} {
		it, err := f.svc.GetItem(ctx, id)
		require.NoError(t, err)
		require.False(t, it.IsActive)
		require.False(t, it.ResolvedPrice.IsAvailable)
	}

	err = f.svc.DeleteCategory(ctx, uuid.New())
	requireAppError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestReactivatingCategoryLeavesChildrenInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Brunch", nil)
	it := f.item(t, catalog.ItemInput{CategoryID: &cat.ID, Name: "Pancakes"})

	_, err := f.svc.UpdateCategory(ctx, cat.ID, catalog.CategoryPatch{IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = f.svc.UpdateCategory(ctx, cat.ID, catalog.CategoryPatch{IsActive: ptr(true)})
	require.NoError(t, err)

	got, err := f.svc.GetItem(ctx, it.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestQuoteAddons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Pizza", amount("10"))
	it := f.item(t, catalog.ItemInput{CategoryID: &cat.ID, Name: "Margherita", BasePrice: amount("100")})

	_, err := f.svc.CreateAddon(ctx, it.ID, catalog.AddonInput{Name: "Service fee", Price: amount("5"), IsMandatory: true})
	require.NoError(t, err)
	cheese, err := f.svc.CreateAddon(ctx, it.ID, catalog.AddonInput{Name: "Extra cheese", Price: amount("2.50")})
	require.NoError(t, err)
	old, err := f.svc.CreateAddon(ctx, it.ID, catalog.AddonInput{Name: "Anchovies", Price: amount("3")})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeactivateAddon(ctx, it.ID, old.ID))

	_, err = f.svc.CreateAddon(ctx, it.ID, catalog.AddonInput{Name: "Bad", Price: amount("-1")})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")

	q, err := f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{AddonIDs: []uuid.UUID{cheese.ID}})
	require.NoError(t, err)
	require.Equal(t, "7.50", q.AddonsTotal.String())
	require.Equal(t, []string{"Service fee", "Extra cheese"}, q.AddonsName)
	require.Equal(t, "10.00", q.TaxAmount.String())
	require.Equal(t, "117.50", q.GrandTotal.String())
	require.True(t, q.IsAvailable)

	q, err = f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{})
	require.NoError(t, err)
	require.Equal(t, "5.00", q.AddonsTotal.String())

	_, err = f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{AddonIDs: []uuid.UUID{old.ID}})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	_, err = f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{AddonIDs: []uuid.UUID{uuid.New()}})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")

	active, err := f.svc.ListAddons(ctx, it.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.True(t, active[0].IsMandatory)
}

type usageFunc func(ctx context.Context, itemID uuid.UUID, at time.Time) (*float64, error)

func (f usageFunc) ActiveUsageHours(ctx context.Context, itemID uuid.UUID, at time.Time) (*float64, error) {
	return f(ctx, itemID, at)
}

func TestQuoteTieredUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Rentals", nil)
	it := f.item(t, catalog.ItemInput{
		CategoryID:    &cat.ID,
		Name:          "Kayak",
		PricingType:   "TIERED",
		PricingConfig: json.RawMessage(`{"tiers":[{"upto":2,"price":50},{"upto":5,"price":80},{"upto":null,"price":120}]}`),
		IsBookable:    ptr(true),
	})

	q, err := f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{})
	require.NoError(t, err)
	require.Equal(t, "120.00", q.BasePrice.String())
	require.True(t, q.AppliedPricingRule.UsageFallback)

	f.svc.SetUsage(usageFunc(func(_ context.Context, id uuid.UUID, _ time.Time) (*float64, error) {
		require.Equal(t, it.ID, id)
		return ptr(3.0), nil
	}))
	q, err = f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{})
	require.NoError(t, err)
	require.Equal(t, "80.00", q.BasePrice.String())
	require.InDelta(t, 3.0, *q.UsageHours, 1e-9)

	q, err = f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{UsageHours: ptr(1.0)})
	require.NoError(t, err)
	require.Equal(t, "50.00", q.BasePrice.String())
}

func TestQuoteDynamicOutsideWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Courts", nil)
	it := f.item(t, catalog.ItemInput{
		CategoryID:    &cat.ID,
		Name:          "Court 1",
		PricingType:   "E",
		PricingConfig: json.RawMessage(`{"windows":[{"start":"09:00","end":"12:00","price":100},{"start":"12:00","end":"18:00","price":150}]}`),
		AvlDays:       []string{"mon", "tue"},
		AvlTimes:      []availability.Window{win("09:00", "18:00")},
	})

	q, err := f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{At: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.True(t, q.IsAvailable)
	require.Equal(t, "150.00", q.GrandTotal.String())

	q, err = f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{At: time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.False(t, q.IsAvailable)
	require.Equal(t, "0.00", q.GrandTotal.String())
}

func TestParseQuoteRequest(t *testing.T) {
	f := newFixture(t)
	a, b := uuid.New(), uuid.New()

	req, err := f.svc.ParseQuoteRequest(url.Values{
		"currentTime": {"2026-03-02T13:30"},
		"addonIds":    {a.String() + "," + b.String(), `["` + a.String() + `"]`},
		"usageHours":  {"2.5"},
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 2, 13, 30, 0, 0, time.UTC), req.At)
	require.Equal(t, []uuid.UUID{a, b}, req.AddonIDs)
	require.InDelta(t, 2.5, *req.UsageHours, 1e-9)

	for raw, want := range map[string]time.Time{
		"2026-03-02T10:59Z":      time.Date(2026, 3, 2, 10, 59, 0, 0, time.UTC),
		"2026-03-02T17:59+07:00": time.Date(2026, 3, 2, 10, 59, 0, 0, time.UTC),
		"2026-03-02T10:59:30Z":   time.Date(2026, 3, 2, 10, 59, 30, 0, time.UTC),
		"2026-03-02 10:59:30Z":   time.Date(2026, 3, 2, 10, 59, 30, 0, time.UTC),
	} {
		req, err := f.svc.ParseQuoteRequest(url.Values{"currentTime": {raw}})
		require.NoError(t, err, raw)
		require.True(t, want.Equal(req.At), raw)
	}

	_, err = f.svc.ParseQuoteRequest(url.Values{"usageHours": {"-1"}})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	_, err = f.svc.ParseQuoteRequest(url.Values{"currentTime": {"yesterday"}})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	_, err = f.svc.ParseQuoteRequest(url.Values{"addonIds": {"nope"}})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")
}

func TestBulkPriceConfig(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Spa", nil)
	sub, err := f.svc.CreateSubcategory(ctx, catalog.SubcategoryInput{CategoryID: cat.ID, Name: "Massage"})
	require.NoError(t, err)
	tiers := json.RawMessage(`{"tiers":[{"upto":1,"price":40},{"upto":null,"price":70}]}`)
	direct := f.item(t, catalog.ItemInput{CategoryID: &cat.ID, Name: "Sauna", PricingType: "TIERED", PricingConfig: tiers})
	nested := f.item(t, catalog.ItemInput{SubcategoryID: &sub.ID, Name: "Deep tissue", PricingType: "TIERED", PricingConfig: tiers})
	static := f.item(t, catalog.ItemInput{CategoryID: &cat.ID, Name: "Towel", BasePrice: amount("2")})

	res, err := f.svc.BulkUpdatePriceConfig(ctx, catalog.BulkPriceConfigInput{
		CategoryID:    &cat.ID,
		PricingType:   "B",
		PricingConfig: json.RawMessage(`{"tiers":[{"upto":null,"price":99}]}`),
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Updated)
	require.ElementsMatch(t, []uuid.UUID{direct.ID, nested.ID}, res.ItemIDs)
	require.NotContains(t, res.ItemIDs, static.ID)

	got, err := f.svc.GetItem(ctx, nested.ID)
	require.NoError(t, err)
	cfg := got.PricingConfig.(pricing.TieredConfig)
	require.Len(t, cfg.Tiers, 1)
	require.Equal(t, "99.00", cfg.Tiers[0].Price.String())

	_, err = f.svc.BulkUpdatePriceConfig(ctx, catalog.BulkPriceConfigInput{CategoryID: &cat.ID, SubcategoryID: &sub.ID, PricingType: "A"})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	_, err = f.svc.BulkUpdatePriceConfig(ctx, catalog.BulkPriceConfigInput{SubcategoryID: ptr(uuid.New()), PricingType: "A"})
	requireAppError(t, err, http.StatusNotFound, "NOT_FOUND")
}

func TestBulkDynamicConfigIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Studios", nil)
	original := json.RawMessage(`{"windows":[{"start":"09:00","end":"10:00","price":10}]}`)
	wide := f.item(t, catalog.ItemInput{CategoryID: &cat.ID, Name: "Wide", PricingType: "E", PricingConfig: original,
		AvlDays: []string{"mon"}, AvlTimes: []availability.Window{win("09:00", "18:00")}})
	narrow := f.item(t, catalog.ItemInput{CategoryID: &cat.ID, Name: "Narrow", PricingType: "E", PricingConfig: original,
		AvlDays: []string{"mon"}, AvlTimes: []availability.Window{win("09:00", "12:00")}})

	_, err := f.svc.BulkUpdatePriceConfig(ctx, catalog.BulkPriceConfigInput{
		CategoryID:    &cat.ID,
		PricingType:   "DYNAMIC",
		PricingConfig: json.RawMessage(`{"windows":[{"start":"13:00","end":"15:00","price":80}]}`),
	})
	appErr := requireAppError(t, err, http.StatusBadRequest, "INVALID_CONFIG")
	require.Equal(t, narrow.ID, appErr.Details.(map[string]any)["item_id"])

	got, err := f.svc.GetItem(ctx, wide.ID)
	require.NoError(t, err)
	ws := got.PricingConfig.(pricing.DynamicConfig).Windows
	require.Len(t, ws, 1)
	require.Equal(t, "09:00", ws[0].Start.String())
}

func TestListCategoriesCachedUntilWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.category(t, "Soups", nil)

	params, err := f.svc.ParseListParams(url.Values{}, catalog.CategorySortFields...)
	require.NoError(t, err)
	first, err := f.svc.ListCategories(ctx, params)
	require.NoError(t, err)
	require.EqualValues(t, 1, first.Total)

	f.category(t, "Salads", nil)
	second, err := f.svc.ListCategories(ctx, params)
	require.NoError(t, err)
	require.EqualValues(t, 2, second.Total)

	version, err := f.mr.Get("catalog:categories:version")
	require.NoError(t, err)
	require.Equal(t, "2", version)
}

func TestParseListParams(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.ParseListParams(url.Values{"limit": {"500"}, "sortBy": {"price"}, "sortDir": {"ASC"}, "activeOnly": {"false"}}, catalog.ItemSortFields...)
	require.NoError(t, err)
	require.Equal(t, 50, p.Limit)
	require.Equal(t, "price", p.SortBy)
	require.Equal(t, "asc", p.SortDir)
	require.False(t, p.ActiveOnly)

	_, err = f.svc.ParseListParams(url.Values{"sortBy": {"price"}}, catalog.CategorySortFields...)
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	_, err = f.svc.ParseListParams(url.Values{"minPrice": {"10"}, "maxPrice": {"5"}}, catalog.ItemSortFields...)
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")
	_, err = f.svc.ParseListParams(url.Values{"page": {"0"}})
	requireAppError(t, err, http.StatusBadRequest, "BAD_REQUEST")
}

func TestListItemsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	taxed := f.category(t, "Bar", amount("11"))
	plain := f.category(t, "Kitchen", nil)
	sub, err := f.svc.CreateSubcategory(ctx, catalog.SubcategoryInput{CategoryID: taxed.ID, Name: "Wine"})
	require.NoError(t, err)
	f.item(t, catalog.ItemInput{SubcategoryID: &sub.ID, Name: "Merlot", BasePrice: amount("30")})
	f.item(t, catalog.ItemInput{CategoryID: &taxed.ID, Name: "Peanuts", BasePrice: amount("3")})
	f.item(t, catalog.ItemInput{CategoryID: &plain.ID, Name: "Bread", BasePrice: amount("4")})

	p, err := f.svc.ParseListParams(url.Values{"categoryId": {taxed.ID.String()}, "sortBy": {"price"}, "sortDir": {"asc"}}, catalog.ItemSortFields...)
	require.NoError(t, err)
	res, err := f.svc.ListItems(ctx, p)
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Total)
	require.Equal(t, "Peanuts", res.Items[0].Name)
	require.NotNil(t, res.Items[0].ResolvedPrice)
	require.Equal(t, "3.33", res.Items[0].ResolvedPrice.GrandTotal.String())

	p, err = f.svc.ParseListParams(url.Values{"taxApplicable": {"false"}}, catalog.ItemSortFields...)
	require.NoError(t, err)
	res, err = f.svc.ListItems(ctx, p)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Total)
	require.Equal(t, "Bread", res.Items[0].Name)
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Cafe", nil)
	sub, err := f.svc.CreateSubcategory(ctx, catalog.SubcategoryInput{CategoryID: cat.ID, Name: "Tea", TaxPercentage: amount("8")})
	require.NoError(t, err)
	it := f.item(t, catalog.ItemInput{CategoryID: &cat.ID, Name: "Matcha", BasePrice: amount("100")})

	updated, err := f.svc.UpdateItem(ctx, it.ID, catalog.ItemPatch{
		SubcategoryID: catalog.Optional[uuid.UUID]{Set: true, Value: &sub.ID},
		PricingType:   ptr("D"),
		PricingConfig: json.RawMessage(`{"val":10,"is_perc":true}`),
	})
	require.NoError(t, err)
	require.Nil(t, updated.CategoryID)
	require.Equal(t, sub.ID, *updated.SubcategoryID)
	require.Equal(t, pricing.Discounted, updated.PricingType)
	require.Equal(t, "8.00", updated.TaxPercentage.String())

	q, err := f.svc.Quote(ctx, it.ID, catalog.QuoteRequest{})
	require.NoError(t, err)
	require.Equal(t, "10.00", q.Discount.String())
	require.Equal(t, "97.20", q.GrandTotal.String())

	_, err = f.svc.UpdateItem(ctx, it.ID, catalog.ItemPatch{
		SubcategoryID: catalog.Optional[uuid.UUID]{Set: true},
	})
	requireAppError(t, err, http.StatusUnprocessableEntity, "MISSING_PARENT_FOR_INHERITANCE")

	require.NoError(t, f.svc.DeleteItem(ctx, it.ID))
	_, err = f.svc.GetItem(ctx, it.ID)
	requireAppError(t, err, http.StatusNotFound, "NOT_FOUND")
	err = f.svc.DeleteItem(ctx, it.ID)
	requireAppError(t, err, http.StatusNotFound, "NOT_FOUND")
}
