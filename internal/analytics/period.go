package analytics

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned for period strings other than 7d, 30d and 90d.
var ErrInvalidPeriod = errors.New("invalid period: must be '7d', '30d' or '90d'")

// Period is a look-back window ending now.
type Period struct {
	Name string
	Days int
}

// AllTime is the unbounded period.
var AllTime = Period{Name: "all"}

var periods = map[string]Period{
	"7d":  {Name: "7d", Days: 7},
	"30d": {Name: "30d", Days: 30},
	"90d": {Name: "90d", Days: 90},
}

// ParsePeriod parses "7d", "30d" or "90d". An empty string means AllTime.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return AllTime, nil
	}

	p, ok := periods[s]
	if !ok {
		return Period{}, fmt.Errorf("%w: got %q", ErrInvalidPeriod, s)
	}

	return p, nil
}

// RangeEnding returns the range covering the period up to and including now.
func (p Period) RangeEnding(now time.Time) Range {
	if p.Days == 0 {
		return Range{}
	}

	return Range{Start: now.AddDate(0, 0, -p.Days), End: now}
}
