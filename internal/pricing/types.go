package pricing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type names one of the pricing strategies an item can use.
type Type string

const (
	Static        Type = "STATIC"
	Tiered        Type = "TIERED"
	Complimentary Type = "COMPLIMENTARY"
	Discounted    Type = "DISCOUNTED"
	Dynamic       Type = "DYNAMIC"
)

// Types lists every strategy in key order.
var Types = []Type{Static, Tiered, Complimentary, Discounted, Dynamic}

var keys = map[Type]string{
	Static:        "A",
	Tiered:        "B",
	Complimentary: "C",
	Discounted:    "D",
	Dynamic:       "E",
}

var labels = map[Type]string{
	Static:        "Static Pricing",
	Tiered:        "Tiered Pricing",
	Complimentary: "Complimentary",
	Discounted:    "Discounted Pricing",
	Dynamic:       "Dynamic Pricing (Time-based)",
}

// ParseType accepts a strategy name in any case or its single-letter key (A-E).
func ParseType(s string) (Type, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return "", &InvalidConfigError{Reason: "pricing_type is required"}
	}
	for _, t := range Types {
		if v == string(t) || v == keys[t] {
			return t, nil
		}
	}
	return "", &InvalidConfigError{Reason: fmt.Sprintf("unknown pricing_type %q", s)}
}

// Valid reports whether t is a known strategy.
func (t Type) Valid() bool {
	_, ok := keys[t]
	return ok
}

// Key returns the legacy single-letter key.
func (t Type) Key() string { return keys[t] }

// Label returns a human readable name.
func (t Type) Label() string { return labels[t] }

func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &InvalidConfigError{Reason: "pricing_type must be a string", Err: err}
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
