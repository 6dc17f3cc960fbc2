package pricing

import (
	"time"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/money"
)

// Priceable is the slice of an item the engine needs.
type Priceable struct {
	BasePrice money.Money
	Type      Type
	Config    Config
}

// EvalContext carries the instant and usage a price is evaluated for.
type EvalContext struct {
	// CurrentTime defaults to Engine.Now when zero.
	CurrentTime time.Time
	// UsageHours selects a tier. Nil selects the last tier.
	UsageHours *float64
}

// AppliedRule describes which part of the configuration produced the price.
type AppliedRule struct {
	Type          Type              `json:"type"`
	Key           string            `json:"key"`
	Tier          *Tier             `json:"tier,omitempty"`
	Window        *PriceWindow      `json:"window,omitempty"`
	Discount      *DiscountedConfig `json:"discount,omitempty"`
	UsageFallback bool              `json:"usage_fallback,omitempty"`
}

// Result is the outcome of a price resolution. Monetary fields are rounded to 2 places.
type Result struct {
	BasePrice     money.Money `json:"basePrice"`
	Discount      money.Money `json:"discount"`
	IsAvailable   bool        `json:"isAvailable"`
	AppliedRule   AppliedRule `json:"appliedPricingRule"`
	TaxPercentage money.Money `json:"taxPercentage"`
	TaxAmount     money.Money `json:"taxAmount"`
	GrandTotal    money.Money `json:"grandTotal"`
}

// Engine resolves prices. The zero value is usable and reads the wall clock in UTC.
type Engine struct {
	Now      func() time.Time
	Location *time.Location
}

// NewEngine returns an engine evaluating time-of-day rules in loc.
func NewEngine(loc *time.Location) *Engine {
	return &Engine{Location: loc}
}

func (e *Engine) now() time.Time {
	if e != nil && e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) location() *time.Location {
	if e != nil && e.Location != nil {
		return e.Location
	}
	return time.UTC
}

// Resolve prices p under the resolved tax at the instant in ctx. It never fails: missing or
// mismatched configuration degrades to the strategy's empty config.
func (e *Engine) Resolve(p Priceable, tax TaxSetting, ctx EvalContext) Result {
	cfg := p.Config
	if cfg == nil || cfg.Type() != p.Type {
		cfg = EmptyConfig(p.Type)
	}
	at := ctx.CurrentTime
	if at.IsZero() {
		at = e.now()
	}

	r := &resolution{
		base:      p.BasePrice,
		available: true,
		usage:     ctx.UsageHours,
		clock:     availability.ClockOf(at.In(e.location())),
		rule:      AppliedRule{Type: cfg.Type(), Key: cfg.Type().Key()},
	}
	cfg.Accept(r)

	finalBase := money.Max(money.Zero, r.base.Sub(r.discount))
	pct := tax.EffectivePercentage()
	taxAmount := finalBase.Percent(pct)
	return Result{
		BasePrice:     money.Round2(r.base),
		Discount:      money.Round2(r.discount),
		IsAvailable:   r.available,
		AppliedRule:   r.rule,
		TaxPercentage: money.Round2(pct),
		TaxAmount:     money.Round2(taxAmount),
		GrandTotal:    money.Round2(finalBase.Add(taxAmount)),
	}
}

type resolution struct {
	base      money.Money
	discount  money.Money
	available bool
	usage     *float64
	clock     availability.Clock
	rule      AppliedRule
}

func (r *resolution) VisitStatic(StaticConfig) {}

func (r *resolution) VisitTiered(c TieredConfig) {
	if len(c.Tiers) == 0 {
		r.base = money.Zero
		r.available = false
		return
	}
	tier := c.Tiers[len(c.Tiers)-1]
	if r.usage == nil {
		r.rule.UsageFallback = true
	} else {
		for _, t := range c.Tiers {
			if t.Matches(*r.usage) {
				tier = t
				break
			}
		}
	}
	r.base = tier.Price
	r.rule.Tier = &tier
}

func (r *resolution) VisitComplimentary(ComplimentaryConfig) {
	r.base = money.Zero
}

func (r *resolution) VisitDiscounted(c DiscountedConfig) {
	d := c.Val
	if c.IsPerc {
		d = r.base.Percent(c.Val)
	}
	r.discount = money.Min(money.Max(money.Zero, d), money.Max(money.Zero, r.base))
	r.rule.Discount = &c
}

func (r *resolution) VisitDynamic(c DynamicConfig) {
	w, ok := availability.FindContaining(c.Windows, r.clock)
	if !ok {
		r.base = money.Zero
		r.available = false
		return
	}
	r.base = w.Price
	r.rule.Window = &w
}
