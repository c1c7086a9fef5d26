package subscriber

import (
	"strings"

	"github.com/janisto/subscriber-pipeline/internal/platform/timeutil"
)

// ParseFilter builds a Filter from raw query values. Dates are YYYY-MM-DD;
// a date that does not parse leaves a filter no row can pass.
func ParseFilter(start, end, country, region, city string) Filter {
	f := Filter{Country: country, Region: region, City: city}
	if strings.TrimSpace(start) != "" {
		if t, err := timeutil.ParseDate(start); err == nil {
			f.Start = &t
		} else {
			f.BadDate = true
		}
	}
	if strings.TrimSpace(end) != "" {
		if t, err := timeutil.ParseDate(end); err == nil {
			f.End = &t
		} else {
			f.BadDate = true
		}
	}
	return f
}

// Match reports whether s passes every active filter. Location filters are
// exact and case-sensitive. While a date filter is active, rows whose
// timestamp does not parse are excluded.
func (f Filter) Match(s Subscriber) bool {
	if f.BadDate {
		return false
	}
	if f.Country != "" && s.Country != f.Country {
		return false
	}
	if f.Region != "" && s.Region != f.Region {
		return false
	}
	if f.City != "" && s.City != f.City {
		return false
	}
	if f.Start == nil && f.End == nil {
		return true
	}
	d, err := timeutil.RowDate(s.Timestamp)
	if err != nil {
		return false
	}
	if f.Start != nil && d.Before(*f.Start) {
		return false
	}
	if f.End != nil && d.After(*f.End) {
		return false
	}
	return true
}

func (f Filter) active() bool {
	return f.BadDate || f.Start != nil || f.End != nil || f.Country != "" || f.Region != "" || f.City != ""
}
