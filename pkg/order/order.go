// Package order derives deterministic total orders over tab selections.
//
// Two interchangeable modes exist, selected by the caller:
//
//	ByURL:  locale-collated URL, empty string for a missing URL.
//	ByDate: externally resolved date, earliest first.
//
// Both sorts are stable, and stability is load-bearing: ties and
// incomparable pairs fall back to the snapshot order, which is the
// canonical baseline captured by ascending position. The date rule is
// asymmetric on absence — in any pair, the tab with a date sorts
// before the tab without one, while two undated tabs compare equal
// and keep their snapshot order. Undated tabs are not unconditionally
// appended to the end.
//
// Sorts never mutate the input selection; they return derived
// sequences of the same tabs.
package order

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tabherd/tabherd/pkg/model"
)

// NewCollator builds a collator for the given BCP 47 locale tag.
// An empty or unparseable tag falls back to the root locale, which
// still yields a consistent total order.
func NewCollator(locale string) *collate.Collator {
	return collate.New(language.Make(locale))
}

// ByURL returns the selection reordered by locale-collated URL.
func ByURL(sel model.Selection, c *collate.Collator) model.Selection {
	out := sel.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].URL, out[j].URL) < 0
	})
	return out
}

// ByDate returns the selection reordered by resolved date. idx must
// cover every tab of the selection (the resolver guarantees this).
func ByDate(sel model.Selection, idx model.AttributeIndex) model.Selection {
	out := sel.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return DateBefore(idx[out[i].ID], idx[out[j].ID])
	})
	return out
}

// ComparableDate converts a possibly-partial date into a point in
// time. ok is false when no year is present. An absent month or day
// defaults to 1.
func ComparableDate(d *model.Date) (t time.Time, ok bool) {
	if d == nil || d.Year == 0 {
		return time.Time{}, false
	}
	month, day := d.Month, d.Day
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// DateBefore is the strict less function for date mode:
//
//	both comparable:    earlier point in time first
//	exactly one:        the dated attribute first
//	neither comparable: equal (stability keeps snapshot order)
func DateBefore(a, b model.DateAttribute) bool {
	ta, aOK := ComparableDate(a.Date)
	tb, bOK := ComparableDate(b.Date)
	switch {
	case aOK && bOK:
		return ta.Before(tb)
	case aOK:
		return true
	default:
		return false
	}
}
