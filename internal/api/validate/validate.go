package validate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// Errs is the validation error surfaced to clients as 400.
type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Collect returns the non-nil field errors as Errs, or nil when every check passed.
func Collect(checks ...*ErrField) error {
	var out Errs
	for _, c := range checks {
		if c != nil {
			out = append(out, *c)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Helpers
func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func Positive(field string, v decimal.Decimal) *ErrField {
	if !v.IsPositive() {
		return &ErrField{Field: field, Msg: "must be > 0"}
	}
	return nil
}

func NonNegative(field string, v decimal.Decimal) *ErrField {
	if v.IsNegative() {
		return &ErrField{Field: field, Msg: "must be >= 0"}
	}
	return nil
}

func OneOf(field, value string, allowed ...string) *ErrField {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ErrField{Field: field, Msg: "must be one of " + strings.Join(allowed, ", ")}
}

func Email(field, value string) *ErrField {
	if !strings.Contains(value, "@") {
		return &ErrField{Field: field, Msg: "invalid email"}
	}
	return nil
}

func MinLen(field, value string, n int) *ErrField {
	if len(strings.TrimSpace(value)) < n {
		return &ErrField{Field: field, Msg: "too short"}
	}
	return nil
}

// MaxScale rejects values with more than places fractional digits. Trailing zeros are fine.
func MaxScale(field string, v decimal.Decimal, places int32) *ErrField {
	if !v.Equal(v.Round(places)) {
		return &ErrField{Field: field, Msg: fmt.Sprintf("at most %d decimal places", places)}
	}
	return nil
}

// Below rejects values whose magnitude reaches limit.
func Below(field string, v, limit decimal.Decimal) *ErrField {
	if v.Abs().GreaterThanOrEqual(limit) {
		return &ErrField{Field: field, Msg: "must be below " + limit.String()}
	}
	return nil
}
