package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/money"
)

// ErrInvalidConfig matches every *InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid pricing config")

// InvalidConfigError names the rule a pricing payload violated.
type InvalidConfigError struct {
	Type   Type
	Reason string
	Err    error
}

func (e *InvalidConfigError) Error() string {
	if e.Type == "" {
		return "invalid pricing config: " + e.Reason
	}
	return fmt.Sprintf("invalid %s pricing config: %s", e.Type, e.Reason)
}

func (e *InvalidConfigError) Is(target error) bool { return target == ErrInvalidConfig }

func (e *InvalidConfigError) Unwrap() error { return e.Err }

// maxUpTo bounds tier thresholds so they survive the int64 conversion.
var maxUpTo = money.FromInt(math.MaxInt32)

func invalid(t Type, format string, args ...any) error {
	return &InvalidConfigError{Type: t, Reason: fmt.Sprintf(format, args...)}
}

// NormalizeConfig validates a raw payload for strategy t and returns its canonical form.
func NormalizeConfig(t Type, raw json.RawMessage) (Config, error) {
	switch t {
	case Static:
		return normalizeStatic(raw), nil
	case Tiered:
		return normalizeTiered(raw)
	case Complimentary:
		return normalizeComplimentary(raw)
	case Discounted:
		return normalizeDiscounted(raw)
	case Dynamic:
		return normalizeDynamic(raw)
	default:
		return nil, invalid(t, "unknown pricing type")
	}
}

func normalizeStatic(raw json.RawMessage) Config {
	fields, err := decodeObject(raw)
	if err != nil || fields == nil {
		return StaticConfig{}
	}
	amount, ok := fields["amount"]
	if !ok {
		return StaticConfig{}
	}
	m, err := decodeMoney(amount)
	if err != nil || m.IsNegative() {
		return StaticConfig{}
	}
	return StaticConfig{Amount: money.Round2(m).Ptr()}
}

func normalizeTiered(raw json.RawMessage) (Config, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, &InvalidConfigError{Type: Tiered, Reason: "config must be an object", Err: err}
	}
	var items []json.RawMessage
	if tiers, ok := fields["tiers"]; ok {
		if err := json.Unmarshal(tiers, &items); err != nil {
			return nil, invalid(Tiered, "tiers must be an array")
		}
	}
	if len(items) == 0 {
		return nil, invalid(Tiered, "tiers must not be empty")
	}

	tiers := make([]Tier, 0, len(items))
	for i, item := range items {
		tf, err := decodeObject(item)
		if err != nil || tf == nil {
			return nil, invalid(Tiered, "tier %d must be an object", i)
		}
		rawUpTo, ok := tf["upto"]
		if !ok {
			return nil, invalid(Tiered, "tier %d: upto is required (use null for unbounded)", i)
		}
		var upTo *int64
		if !isEmpty(rawUpTo) {
			if bytes.HasPrefix(bytes.TrimSpace(rawUpTo), []byte(`"`)) {
				return nil, invalid(Tiered, "tier %d: upto must be a number or null", i)
			}
			v, err := decodeMoney(rawUpTo)
			if err != nil {
				return nil, &InvalidConfigError{Type: Tiered, Reason: fmt.Sprintf("tier %d: upto must be a number or null", i), Err: err}
			}
			if v.IsNegative() || !v.IsWhole() {
				return nil, invalid(Tiered, "tier %d: upto must be a whole number >= 0", i)
			}
			if v.GreaterThan(maxUpTo) {
				return nil, invalid(Tiered, "tier %d: upto must be <= %d", i, math.MaxInt32)
			}
			n := v.IntPart()
			upTo = &n
		}
		price, err := requiredPrice(Tiered, tf, "price", fmt.Sprintf("tier %d", i))
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, Tier{UpTo: upTo, Price: price})
	}

	sort.SliceStable(tiers, func(i, j int) bool {
		a, b := tiers[i].UpTo, tiers[j].UpTo
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})
	for i := 0; i < len(tiers)-1; i++ {
		if tiers[i].UpTo == nil {
			return nil, invalid(Tiered, "only the last tier may have upto null")
		}
		if next := tiers[i+1].UpTo; next != nil && *next <= *tiers[i].UpTo {
			return nil, invalid(Tiered, "upto values must be strictly increasing (duplicate %d)", *next)
		}
	}
	return TieredConfig{Tiers: tiers}, nil
}

func normalizeComplimentary(raw json.RawMessage) (Config, error) {
	fields, err := decodeObject(raw)
	if err != nil || len(fields) > 0 {
		return nil, invalid(Complimentary, "config must be empty")
	}
	return ComplimentaryConfig{}, nil
}

func normalizeDiscounted(raw json.RawMessage) (Config, error) {
	fields, err := decodeObject(raw)
	if err != nil || fields == nil {
		return nil, invalid(Discounted, "config must be an object with val and is_perc")
	}
	if _, ok := fields["base"]; ok {
		return nil, invalid(Discounted, "base is not allowed; the discount applies to the item's base_price")
	}
	for key := range fields {
		if key != "val" && key != "is_perc" {
			return nil, invalid(Discounted, "unexpected field %q", key)
		}
	}
	rawPerc, ok := fields["is_perc"]
	if !ok {
		return nil, invalid(Discounted, "is_perc is required")
	}
	var isPerc bool
	if err := json.Unmarshal(rawPerc, &isPerc); err != nil {
		return nil, invalid(Discounted, "is_perc must be a boolean")
	}
	rawVal, ok := fields["val"]
	if !ok || isEmpty(rawVal) {
		return nil, invalid(Discounted, "val is required")
	}
	val, err := decodeMoney(rawVal)
	if err != nil {
		return nil, &InvalidConfigError{Type: Discounted, Reason: "val must be numeric", Err: err}
	}
	if val.IsNegative() {
		return nil, invalid(Discounted, "val must be >= 0")
	}
	if isPerc && val.GreaterThan(hundred) {
		return nil, invalid(Discounted, "percentage val must be <= 100")
	}
	return DiscountedConfig{Val: money.Round2(val), IsPerc: isPerc}, nil
}

func normalizeDynamic(raw json.RawMessage) (Config, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, &InvalidConfigError{Type: Dynamic, Reason: "config must be an object", Err: err}
	}
	var items []json.RawMessage
	if ws, ok := fields["windows"]; ok {
		if err := json.Unmarshal(ws, &items); err != nil {
			return nil, invalid(Dynamic, "windows must be an array")
		}
	}
	if len(items) == 0 {
		return nil, invalid(Dynamic, "windows must not be empty")
	}

	windows := make([]PriceWindow, 0, len(items))
	for i, item := range items {
		wf, err := decodeObject(item)
		if err != nil || wf == nil {
			return nil, invalid(Dynamic, "window %d must be an object", i)
		}
		start, err := decodeClock(wf["start"])
		if err != nil {
			return nil, &InvalidConfigError{Type: Dynamic, Reason: fmt.Sprintf("window %d: start must be HH:MM", i), Err: err}
		}
		end, err := decodeClock(wf["end"])
		if err != nil {
			return nil, &InvalidConfigError{Type: Dynamic, Reason: fmt.Sprintf("window %d: end must be HH:MM", i), Err: err}
		}
		w := availability.Window{Start: start, End: end}
		if err := w.Validate(); err != nil {
			return nil, &InvalidConfigError{Type: Dynamic, Reason: fmt.Sprintf("window %d: start must be before end", i), Err: err}
		}
		price, err := requiredPrice(Dynamic, wf, "price", fmt.Sprintf("window %d", i))
		if err != nil {
			return nil, err
		}
		windows = append(windows, PriceWindow{Window: w, Price: price})
	}

	sort.SliceStable(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
	for i := 1; i < len(windows); i++ {
		prev, next := windows[i-1], windows[i]
		if next.Start < prev.End {
			return nil, invalid(Dynamic, "windows %s and %s overlap", prev.Window, next.Window)
		}
	}
	return DynamicConfig{Windows: windows}, nil
}

// ValidateWindowsWithin checks that every dynamic pricing window fits inside one of the
// item's availability windows. Other strategies, and items without availability, pass.
func ValidateWindowsWithin(cfg Config, avl []availability.Window) error {
	dyn, ok := cfg.(DynamicConfig)
	if !ok || len(avl) == 0 {
		return nil
	}
	for _, w := range dyn.Windows {
		if _, ok := availability.Contains(avl, w.Start, w.End); !ok {
			return invalid(Dynamic, "window %s is outside the item's availability", w.Window)
		}
	}
	return nil
}

func requiredPrice(t Type, fields map[string]json.RawMessage, key, where string) (money.Money, error) {
	raw, ok := fields[key]
	if !ok || isEmpty(raw) {
		return money.Zero, invalid(t, "%s: %s is required", where, key)
	}
	m, err := decodeMoney(raw)
	if err != nil {
		return money.Zero, &InvalidConfigError{Type: t, Reason: fmt.Sprintf("%s: %s must be numeric", where, key), Err: err}
	}
	if m.IsNegative() {
		return money.Zero, invalid(t, "%s: %s must be >= 0", where, key)
	}
	return money.Round2(m), nil
}

// decodeObject returns nil for an absent or null payload.
func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeMoney(raw json.RawMessage) (money.Money, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return money.Zero, fmt.Errorf("%w: %s", money.ErrInvalidNumericInput, string(raw))
	}
	return money.ToMoney(v)
}

func decodeClock(raw json.RawMessage) (availability.Clock, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, availability.ErrInvalidClock
	}
	return availability.ParseClock(s)
}
