package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// WagePeriod is the unit a wage amount is quoted in.
type WagePeriod string

const (
	PeriodDaily   WagePeriod = "daily"
	PeriodWeekly  WagePeriod = "weekly"
	PeriodMonthly WagePeriod = "monthly"
)

// Valid reports whether the period is supported.
func (p WagePeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	default:
		return false
	}
}

// ParseWagePeriod normalizes a period string and reports whether it is supported.
func ParseWagePeriod(value string) (WagePeriod, bool) {
	p := WagePeriod(strings.ToLower(strings.TrimSpace(value)))
	if p.Valid() {
		return p, true
	}
	return "", false
}

// WageEntry is the expected pay for a single subcategory.
type WageEntry struct {
	Amount float64    `json:"amount"`
	Period WagePeriod `json:"period"`
}

// Validate checks the entry invariants: positive amount and a known period.
func (e WageEntry) Validate() error {
	if e.Amount <= 0 {
		return errors.New("amount must be greater than zero")
	}
	if !e.Period.Valid() {
		return fmt.Errorf("period must be one of: %s, %s, %s", PeriodDaily, PeriodWeekly, PeriodMonthly)
	}
	return nil
}

// WageBook maps subcategories to wage entries and remembers insertion order,
// so "the first entry" is well defined for aggregation and stable on the wire.
// The zero value is an empty, usable book.
type WageBook struct {
	order   []string
	entries map[string]WageEntry
}

// NewWageBook builds a book from subcategory/entry pairs in the given order.
func NewWageBook(pairs ...WagePair) WageBook {
	var b WageBook
	for _, p := range pairs {
		b.Set(p.Subcategory, p.Entry)
	}
	return b
}

// WagePair is one row of a WageBook in its ordered, serialized form.
type WagePair struct {
	Subcategory string
	Entry       WageEntry
}

// Set inserts or replaces the entry for a subcategory. Replacing keeps the
// original insertion position.
func (b *WageBook) Set(subcategory string, e WageEntry) {
	if b.entries == nil {
		b.entries = make(map[string]WageEntry)
	}
	if _, exists := b.entries[subcategory]; !exists {
		b.order = append(b.order, subcategory)
	}
	b.entries[subcategory] = e
}

// Get returns the entry for a subcategory.
func (b WageBook) Get(subcategory string) (WageEntry, bool) {
	e, ok := b.entries[subcategory]
	return e, ok
}

// Delete removes a subcategory from the book.
func (b *WageBook) Delete(subcategory string) {
	if _, ok := b.entries[subcategory]; !ok {
		return
	}
	delete(b.entries, subcategory)
	b.order = slices.DeleteFunc(b.order, func(s string) bool { return s == subcategory })
}

// Len returns the number of entries.
func (b WageBook) Len() int { return len(b.order) }

// Keys returns subcategories in insertion order.
func (b WageBook) Keys() []string { return slices.Clone(b.order) }

// All iterates entries in insertion order.
func (b WageBook) All() iter.Seq2[string, WageEntry] {
	return func(yield func(string, WageEntry) bool) {
		for _, k := range b.order {
			if !yield(k, b.entries[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (b WageBook) Clone() WageBook {
	var out WageBook
	for k, e := range b.All() {
		out.Set(k, e)
	}
	return out
}

// Retain returns a copy holding only the given subcategories, preserving the
// book's own insertion order.
func (b WageBook) Retain(subcategories []string) WageBook {
	var out WageBook
	for k, e := range b.All() {
		if slices.Contains(subcategories, k) {
			out.Set(k, e)
		}
	}
	return out
}

// Equal reports whether two books hold the same entries in the same order.
func (b WageBook) Equal(other WageBook) bool {
	if !slices.Equal(b.order, other.order) {
		return false
	}
	for k, e := range b.All() {
		if o, ok := other.Get(k); !ok || o != e {
			return false
		}
	}
	return true
}

type wageRow struct {
	Subcategory string     `json:"subcategory"`
	Amount      float64    `json:"amount"`
	Period      WagePeriod `json:"period"`
}

// MarshalJSON encodes the book as an ordered array of rows.
func (b WageBook) MarshalJSON() ([]byte, error) {
	rows := make([]wageRow, 0, b.Len())
	for k, e := range b.All() {
		rows = append(rows, wageRow{Subcategory: k, Amount: e.Amount, Period: e.Period})
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes the ordered array form. null decodes to an empty book.
func (b *WageBook) UnmarshalJSON(data []byte) error {
	*b = WageBook{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var rows []wageRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode wages: %w", err)
	}
	for _, r := range rows {
		if strings.TrimSpace(r.Subcategory) == "" {
			return errors.New("decode wages: subcategory cannot be empty")
		}
		b.Set(r.Subcategory, WageEntry{Amount: r.Amount, Period: r.Period})
	}
	return nil
}
