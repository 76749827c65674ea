package entity

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// MaxQuantityDigits bounds the integer part; it matches the NUMERIC(14,2) column.
const MaxQuantityDigits = 12

// Quantity is a decimal with two fractional digits, held as hundredths.
// Literal keeps the text as it appeared in the document ("1.234,56").
type Quantity struct {
	Hundredths int64
	Literal    string
}

// ParseLocaleQuantity parses pt-BR formatted numbers: '.' groups thousands,
// ',' separates the two decimal digits.
func ParseLocaleQuantity(s string) (Quantity, error) {
	lit := strings.TrimSpace(s)
	intPart, frac, ok := strings.Cut(lit, ",")
	if !ok || len(frac) != 2 {
		return Quantity{}, fmt.Errorf("quantity %q: want #.###,## format", s)
	}
	intPart = strings.ReplaceAll(intPart, ".", "")
	if err := checkDigits(s, intPart); err != nil {
		return Quantity{}, err
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("quantity %q: %w", s, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("quantity %q: %w", s, err)
	}
	return Quantity{Hundredths: whole*100 + cents, Literal: lit}, nil
}

// ParseQuantity parses the canonical "1234.56" form produced by String.
func ParseQuantity(s string) (Quantity, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	for len(frac) < 2 {
		frac += "0"
	}
	if len(frac) > 2 {
		return Quantity{}, fmt.Errorf("quantity %q: more than two decimals", s)
	}
	if err := checkDigits(s, strings.TrimPrefix(whole, "-")); err != nil {
		return Quantity{}, err
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("quantity %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("quantity %q: %w", s, err)
	}
	return Quantity{Hundredths: w*100 + f}, nil
}

func checkDigits(s, intPart string) error {
	if len(strings.TrimLeft(intPart, "0")) > MaxQuantityDigits {
		return fmt.Errorf("quantity %q: more than %d integer digits", s, MaxQuantityDigits)
	}
	return nil
}

// String renders the canonical form, e.g. "1234.56".
func (q Quantity) String() string {
	return fmt.Sprintf("%d.%02d", q.Hundredths/100, q.Hundredths%100)
}

func (q Quantity) Float64() float64 {
	return float64(q.Hundredths) / 100
}

func (q Quantity) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

func (q Quantity) Value() (driver.Value, error) {
	return q.String(), nil
}

func (q *Quantity) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', 2, 64)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return fmt.Errorf("entity: cannot scan %T into Quantity", src)
	}
	parsed, err := ParseQuantity(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
