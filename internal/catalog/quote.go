package catalog

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/obs"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

// QuoteRequest selects the instant, add-ons and usage a price is computed for.
type QuoteRequest struct {
	// At defaults to now.
	At         time.Time
	AddonIDs   []uuid.UUID
	UsageHours *float64
}

// Quote is the price of an item with add-ons at an instant.
type Quote struct {
	ItemID             uuid.UUID           `json:"itemId"`
	CurrentTime        time.Time           `json:"currentTime"`
	AppliedPricingRule pricing.AppliedRule `json:"appliedPricingRule"`
	BasePrice          money.Money         `json:"basePrice"`
	AddonsTotal        money.Money         `json:"addonsTotal"`
	AddonsName         []string            `json:"addonsName"`
	Discount           money.Money         `json:"discount"`
	TaxPercentage      money.Money         `json:"taxPercentage"`
	TaxAmount          money.Money         `json:"taxAmount"`
	GrandTotal         money.Money         `json:"grandTotal"`
	IsAvailable        bool                `json:"isAvailable"`
	IsActive           bool                `json:"is_active"`
	UsageHours         *float64            `json:"usageHours,omitempty"`
}

// offsetLayouts cover ISO 8601 forms RFC 3339 rejects, such as minute precision.
var offsetLayouts = []string{"2006-01-02T15:04Z07:00", "2006-01-02 15:04:05Z07:00", "2006-01-02 15:04Z07:00"}

var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

// ParseQuoteRequest reads currentTime, addonIds and usageHours. Times without an offset are read
// in the catalog timezone.
func (s *Service) ParseQuoteRequest(values url.Values) (QuoteRequest, error) {
	var req QuoteRequest
	if raw := strings.TrimSpace(values.Get("currentTime")); raw != "" {
		at, err := s.parseInstant(raw)
		if err != nil {
			return req, badRequest("currentTime", "currentTime must be an ISO 8601 timestamp", err)
		}
		req.At = at
	}
	if raw := strings.TrimSpace(values.Get("usageHours")); raw != "" {
		h, err := strconv.ParseFloat(raw, 64)
		if err != nil || h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
			return req, badRequest("usageHours", "usageHours must be a non-negative number", err)
		}
		req.UsageHours = &h
	}
	ids, err := parseAddonIDs(values["addonIds"])
	if err != nil {
		return req, err
	}
	req.AddonIDs = ids
	return req, nil
}

func (s *Service) parseInstant(raw string) (time.Time, error) {
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return at, nil
	}
	for _, layout := range offsetLayouts {
		if t, lerr := time.Parse(layout, raw); lerr == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, lerr := time.ParseInLocation(layout, raw, s.location()); lerr == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// parseAddonIDs accepts repeated params, comma separated lists and JSON arrays.
func parseAddonIDs(raw []string) ([]uuid.UUID, error) {
	var tokens []string
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if strings.HasPrefix(r, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(r), &arr); err != nil {
				return nil, badRequest("addonIds", "addonIds must be a JSON array of ids", err)
			}
			tokens = append(tokens, arr...)
			continue
		}
		tokens = append(tokens, strings.Split(r, ",")...)
	}
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := uuid.Parse(tok)
		if err != nil {
			return nil, badRequest("addonIds", "addonIds contains an invalid id: "+tok, err)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// Quote prices an item at req.At including selected and mandatory add-ons.
func (s *Service) Quote(ctx context.Context, itemID uuid.UUID, req QuoteRequest) (Quote, error) {
	chain, err := LoadChain(ctx, s.store, itemID)
	if err != nil {
		return Quote{}, toAppError(err)
	}
	at := req.At
	if at.IsZero() {
		at = s.now()
	}
	at = at.In(s.location())

	addons, err := s.selectAddons(ctx, itemID, req.AddonIDs)
	if err != nil {
		return Quote{}, err
	}

	p := chain.Priceable()
	usage := req.UsageHours
	if usage == nil && chain.Item.IsBookable && p.Type == pricing.Tiered && s.usage != nil {
		if usage, err = s.usage.ActiveUsageHours(ctx, itemID, at); err != nil {
			return Quote{}, err
		}
	}

	res := s.engine.Resolve(p, chain.Tax(), pricing.EvalContext{CurrentTime: at, UsageHours: usage})
	active := chain.EffectivelyActive()

	q := Quote{
		ItemID:             itemID,
		CurrentTime:        at,
		AppliedPricingRule: res.AppliedRule,
		BasePrice:          res.BasePrice,
		AddonsName:         make([]string, 0, len(addons)),
		Discount:           res.Discount,
		TaxPercentage:      res.TaxPercentage,
		TaxAmount:          res.TaxAmount,
		IsAvailable:        res.IsAvailable && active,
		IsActive:           active,
		UsageHours:         usage,
	}
	total := money.Zero
	for _, a := range addons {
		total = total.Add(a.Price)
		q.AddonsName = append(q.AddonsName, a.Name)
	}
	q.AddonsTotal = money.Round2(total)
	q.GrandTotal = money.Round2(res.GrandTotal.Add(total))

	obs.ObservePriceQuote(string(p.Type), q.IsAvailable)
	return q, nil
}

// selectAddons validates requested ids against the item's add-ons and adds the mandatory ones.
func (s *Service) selectAddons(ctx context.Context, itemID uuid.UUID, requested []uuid.UUID) ([]db.Addon, error) {
	all, err := s.store.ListAddonsByItem(ctx, itemID, false)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]db.Addon, len(all))
	for _, a := range all {
		byID[a.ID] = a
	}
	chosen := map[uuid.UUID]bool{}
	var out []db.Addon
	for _, id := range requested {
		a, ok := byID[id]
		if !ok {
			return nil, badRequest("addonIds", "add-on "+id.String()+" does not belong to this item", nil)
		}
		if !a.IsActive {
			return nil, badRequest("addonIds", "add-on "+id.String()+" is inactive", nil)
		}
		chosen[id] = true
	}
	for _, a := range all {
		if a.IsActive && (a.IsMandatory || chosen[a.ID]) {
			out = append(out, a)
		}
	}
	return out, nil
}
