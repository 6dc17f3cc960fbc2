package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumericInput reports a value that cannot be represented as Money.
var ErrInvalidNumericInput = errors.New("invalid numeric input")

var hundred = decimal.NewFromInt(100)

// Money is an exact decimal amount. Stored values carry at most two fractional digits;
// intermediate results are kept exact until Round2.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// New wraps a decimal value.
func New(d decimal.Decimal) Money { return Money{d: d} }

// FromInt builds a whole amount.
func FromInt(v int64) Money { return Money{d: decimal.NewFromInt(v)} }

// MustParse parses s and panics on failure. Intended for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse converts a decimal string such as "12.50" into Money.
func Parse(s string) (Money, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Money{}, fmt.Errorf("%w: empty value", ErrInvalidNumericInput)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidNumericInput, s)
	}
	return Money{d: d}, nil
}

// ToMoney converts numeric-like input into Money. Non-finite floats, non-numeric strings and
// unsupported types fail with ErrInvalidNumericInput.
func ToMoney(raw any) (Money, error) {
	switch v := raw.(type) {
	case Money:
		return v, nil
	case *Money:
		if v == nil {
			return Money{}, fmt.Errorf("%w: nil", ErrInvalidNumericInput)
		}
		return *v, nil
	case decimal.Decimal:
		return Money{d: v}, nil
	case int:
		return FromInt(int64(v)), nil
	case int32:
		return FromInt(int64(v)), nil
	case int64:
		return FromInt(v), nil
	case uint32:
		return FromInt(int64(v)), nil
	case uint64:
		return Parse(strconv.FormatUint(v, 10))
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case json.Number:
		return Parse(string(v))
	case string:
		return Parse(v)
	case nil:
		return Money{}, fmt.Errorf("%w: null", ErrInvalidNumericInput)
	default:
		return Money{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidNumericInput, raw)
	}
}

func fromFloat(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidNumericInput, v)
	}
	return Money{d: decimal.NewFromFloat(v)}, nil
}

// Round2 rounds to two decimal places, half away from zero (half-up for non-negative amounts).
func Round2(m Money) Money { return Money{d: m.d.Round(2)} }

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a.d.GreaterThanOrEqual(b.d) {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.d.LessThanOrEqual(b.d) {
		return a
	}
	return b
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.d)
	}
	return Money{d: total}
}

// Add, Sub and Mul are exact; none of them round.
func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Mul(o Money) Money { return Money{d: m.d.Mul(o.d)} }

// Percent returns m * pct / 100 without rounding. Callers apply Round2 once,
// when the value becomes an output field.
func (m Money) Percent(pct Money) Money { return Money{d: m.d.Mul(pct.d).Div(hundred)} }

// Cmp returns -1, 0 or +1 as m is less than, equal to or greater than o.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

// Equal compares by value, so 1.5 and 1.50 are equal.
func (m Money) Equal(o Money) bool       { return m.d.Equal(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) LessThan(o Money) bool    { return m.d.LessThan(o.d) }
func (m Money) IsZero() bool             { return m.d.IsZero() }
func (m Money) IsNegative() bool         { return m.d.IsNegative() }
func (m Money) IsPositive() bool         { return m.d.IsPositive() }

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// IsWhole reports whether m has no fractional part. Tier thresholds use it.
func (m Money) IsWhole() bool { return m.d.Equal(m.d.Truncate(0)) }

// HasAtMostTwoDecimals reports whether m is already at cent precision, that
// is Round2(m) would not change it.
func (m Money) HasAtMostTwoDecimals() bool { return m.d.Equal(m.d.Round(2)) }

// IntPart truncates toward zero. Values outside the int64 range wrap, so
// callers bound m first.
func (m Money) IntPart() int64 { return m.d.IntPart() }

// Float64 is meant for metrics and logs only.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String renders the amount with two fixed decimals.
func (m Money) String() string { return m.d.StringFixed(2) }

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}
	trimmed = strings.Trim(trimmed, `"`)
	parsed, err := Parse(trimmed)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	m.d = d
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}

// Ptr returns a pointer to a copy of m.
func (m Money) Ptr() *Money { return &m }
