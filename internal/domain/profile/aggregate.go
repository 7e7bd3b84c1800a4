package profile

import "errors"

// ErrNoWages is returned when aggregating an empty wage book.
var ErrNoWages = errors.New("no wage entries to aggregate")

// WageSummary condenses a wage book into the range shown on the profile.
type WageSummary struct {
	Min    float64
	Max    float64
	Period WagePeriod
	// Mixed is true when entries do not all share Period.
	Mixed bool
}

// Range returns the min/max part of the summary.
func (s WageSummary) Range() SalaryRange {
	return SalaryRange{Min: s.Min, Max: s.Max}
}

// Aggregate computes min and max amounts across all entries. Period is taken
// from the first inserted entry, which only represents every entry when they
// share one period; Mixed flags the case where they don't.
func Aggregate(book WageBook) (WageSummary, error) {
	if book.Len() == 0 {
		return WageSummary{}, ErrNoWages
	}
	var (
		s     WageSummary
		first = true
	)
	for _, e := range book.All() {
		if first {
			s = WageSummary{Min: e.Amount, Max: e.Amount, Period: e.Period}
			first = false
			continue
		}
		s.Min = min(s.Min, e.Amount)
		s.Max = max(s.Max, e.Amount)
		if e.Period != s.Period {
			s.Mixed = true
		}
	}
	return s, nil
}
