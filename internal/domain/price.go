package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Price is a retail price in dollars.
type Price float64

// ParsePrice converts scraped price text such as "$3.75" or "1,299.00" into
// a Price. Promotional text ("Free", "2 for $5"), ranges and empty strings
// are rejected rather than guessed at.
func ParsePrice(raw string) (Price, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty price text %q", raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price text %q", raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative price %q", raw)
	}
	return Price(v), nil
}

// String formats the price the way retail pages display it, e.g. "$3.75".
func (p Price) String() string {
	return fmt.Sprintf("$%.2f", float64(p))
}

// MarshalJSON writes the price as a currency string.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts both currency strings and bare numbers.
func (p *Price) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, perr := ParsePrice(s)
		if perr != nil {
			return perr
		}
		*p = v
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("price must be a string or number: %w", err)
	}
	*p = Price(v)
	return nil
}

// AbsDiff returns the absolute difference between two prices.
func AbsDiff(a, b Price) Price {
	if a > b {
		return a - b
	}
	return b - a
}
