package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/money"
)

// Config is the normalized configuration of one pricing strategy. The set of implementations
// is closed; callers branch on it through Visitor.
type Config interface {
	Type() Type
	Accept(v Visitor)
	sealed()
}

// Visitor has one method per strategy. Adding a strategy adds a method here, which breaks
// every visitor until it handles the new case.
type Visitor interface {
	VisitStatic(StaticConfig)
	VisitTiered(TieredConfig)
	VisitComplimentary(ComplimentaryConfig)
	VisitDiscounted(DiscountedConfig)
	VisitDynamic(DynamicConfig)
}

// StaticConfig prices from the item's base price. Amount is accepted but never used.
type StaticConfig struct {
	Amount *money.Money `json:"amount,omitempty"`
}

// Tier is one usage bracket. A nil UpTo is unbounded and only valid as the last tier.
type Tier struct {
	UpTo  *int64      `json:"upto"`
	Price money.Money `json:"price"`
}

// Matches reports whether usage falls inside the bracket, upper bound inclusive.
func (t Tier) Matches(usage float64) bool {
	return t.UpTo == nil || usage <= float64(*t.UpTo)
}

type TieredConfig struct {
	Tiers []Tier `json:"tiers"`
}

type ComplimentaryConfig struct{}

// DiscountedConfig takes Val off the item's base price, as a percentage when IsPerc is set.
type DiscountedConfig struct {
	Val    money.Money `json:"val"`
	IsPerc bool        `json:"is_perc"`
}

// PriceWindow is a time-of-day window with its own price.
type PriceWindow struct {
	availability.Window
	Price money.Money `json:"price"`
}

type DynamicConfig struct {
	Windows []PriceWindow `json:"windows"`
}

func (StaticConfig) Type() Type        { return Static }
func (TieredConfig) Type() Type        { return Tiered }
func (ComplimentaryConfig) Type() Type { return Complimentary }
func (DiscountedConfig) Type() Type    { return Discounted }
func (DynamicConfig) Type() Type       { return Dynamic }

func (c StaticConfig) Accept(v Visitor)        { v.VisitStatic(c) }
func (c TieredConfig) Accept(v Visitor)        { v.VisitTiered(c) }
func (c ComplimentaryConfig) Accept(v Visitor) { v.VisitComplimentary(c) }
func (c DiscountedConfig) Accept(v Visitor)    { v.VisitDiscounted(c) }
func (c DynamicConfig) Accept(v Visitor)       { v.VisitDynamic(c) }

func (StaticConfig) sealed()        {}
func (TieredConfig) sealed()        {}
func (ComplimentaryConfig) sealed() {}
func (DiscountedConfig) sealed()    {}
func (DynamicConfig) sealed()       {}

// EmptyConfig returns the zero configuration for t. Unknown types fall back to static.
func EmptyConfig(t Type) Config {
	switch t {
	case Tiered:
		return TieredConfig{}
	case Complimentary:
		return ComplimentaryConfig{}
	case Discounted:
		return DiscountedConfig{}
	case Dynamic:
		return DynamicConfig{}
	default:
		return StaticConfig{}
	}
}

type envelope struct {
	Type   Type            `json:"type"`
	Config json.RawMessage `json:"config"`
}

// MarshalConfig encodes c in the stored {"type", "config"} shape.
func MarshalConfig(c Config) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	inner, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal %s config: %w", c.Type(), err)
	}
	return json.Marshal(envelope{Type: c.Type(), Config: inner})
}

// DecodeStored reads a config written by MarshalConfig. It trusts the payload and does not
// re-run normalization. An empty payload returns nil.
func DecodeStored(data []byte) (Config, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode pricing config: %w", err)
	}
	if isEmpty(env.Config) {
		return EmptyConfig(env.Type), nil
	}
	var (
		cfg Config
		err error
	)
	switch env.Type {
	case Static:
		var c StaticConfig
		err = json.Unmarshal(env.Config, &c)
		cfg = c
	case Tiered:
		var c TieredConfig
		err = json.Unmarshal(env.Config, &c)
		cfg = c
	case Complimentary:
		cfg = ComplimentaryConfig{}
	case Discounted:
		var c DiscountedConfig
		err = json.Unmarshal(env.Config, &c)
		cfg = c
	case Dynamic:
		var c DynamicConfig
		err = json.Unmarshal(env.Config, &c)
		cfg = c
	default:
		return nil, fmt.Errorf("decode pricing config: unknown type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s config: %w", env.Type, err)
	}
	return cfg, nil
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
