package charts

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// yearPattern guards against now's habit of reading "12" or "10:30" as a
// time on today's date.
var yearPattern = regexp.MustCompile(`(^|[^0-9])[0-9]{4}([^0-9]|$)`)

var extraDateLayouts = []string{"01/02/2006", "1/2/2006", "Jan 2, 2006", "January 2, 2006", "2 Jan 2006"}

// parseDate accepts the date shapes the backend emits. Everything is read
// as UTC so ordering does not depend on the host's zone.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !yearPattern.MatchString(s) {
		return time.Time{}, false
	}
	if t, err := now.ParseInLocation(time.UTC, s); err == nil {
		return t, true
	}
	for _, layout := range extraDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type dated[T any] struct {
	v  T
	t  time.Time
	ok bool
}

// sortByDate returns a copy of in ordered by ascending date. The sort is
// stable; undated or unparseable points keep their relative order after
// all dated ones. in is never modified.
func sortByDate[T any](in []T, date func(T) string) []T {
	tagged := make([]dated[T], len(in))
	for i, v := range in {
		t, ok := parseDate(date(v))
		tagged[i] = dated[T]{v: v, t: t, ok: ok}
	}
	slices.SortStableFunc(tagged, func(a, b dated[T]) int {
		switch {
		case a.ok && b.ok:
			return a.t.Compare(b.t)
		case a.ok:
			return -1
		case b.ok:
			return 1
		}
		return 0
	})
	out := make([]T, len(tagged))
	for i, d := range tagged {
		out[i] = d.v
	}
	return out
}

func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}
