// Package model defines the core domain types for tabherd.
//
// Tabherd reorders one ad-hoc snapshot of selected browser tabs per
// invocation. Three rules shape the types here:
//
//   - Tabs are owned by the host environment. Tabherd reads them and
//     requests position changes; it never creates or destroys them.
//   - A Selection is captured once, ordered by ascending position, and
//     never mutated afterwards. Sorts produce derived sequences.
//   - Date attributes come from an external resolver process and may be
//     partial or missing. Every tab in a selection is guaranteed an
//     AttributeIndex entry, absent or not, so downstream code never
//     deals with a missing key.
package model

import "time"

// ReadyState describes whether a tab has finished loading.
type ReadyState string

const (
	ReadyStatePending ReadyState = "pending"
	ReadyStateReady   ReadyState = "ready"
)

// Tab is one reorderable browser tab as reported by the host.
// ID is opaque and unique within the host session. Position is the
// tab's index within its container at snapshot time.
type Tab struct {
	ID         string     `json:"id"`
	Position   int        `json:"position"`
	URL        string     `json:"url"`
	Title      string     `json:"title,omitempty"`
	ReadyState ReadyState `json:"ready_state"`
}

// Selection is an immutable snapshot of the selected tabs, ordered by
// ascending position. Invariant: no duplicate IDs.
type Selection []Tab

// IDs returns the tab IDs in selection order.
func (s Selection) IDs() []string {
	ids := make([]string, len(s))
	for i, t := range s {
		ids[i] = t.ID
	}
	return ids
}

// RightmostPosition returns the maximum position held by any tab in
// the selection, or -1 for an empty selection. The repositioner
// collapses the selection into a block ending at this position.
func (s Selection) RightmostPosition() int {
	max := -1
	for _, t := range s {
		if t.Position > max {
			max = t.Position
		}
	}
	return max
}

// Clone returns an independent copy of the selection. Sort functions
// use this so the captured snapshot stays untouched.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	copy(out, s)
	return out
}

// Date is a possibly-partial calendar date from the external resolver.
// A zero Year means the date is absent for ordering purposes; a zero
// Month or Day defaults to 1 when the date is made comparable.
type Date struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// DateAttribute is the per-tab temporal attribute produced by the
// external resolver process. Date == nil (or a Date without a year)
// means the attribute is absent.
type DateAttribute struct {
	TabID   string `json:"tabId"`
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	RawText string `json:"dateString,omitempty"`
	Date    *Date  `json:"date,omitempty"`
}

// Absent reports whether the attribute carries no usable date.
func (a DateAttribute) Absent() bool {
	return a.Date == nil || a.Date.Year == 0
}

// AttributeIndex maps tab ID to its resolved date attribute. Built
// once per operation. Invariant: every tab of the originating
// selection has an entry.
type AttributeIndex map[string]DateAttribute

// NewAttributeIndex seeds an index with an absent fallback entry for
// every tab in the selection.
func NewAttributeIndex(sel Selection) AttributeIndex {
	idx := make(AttributeIndex, len(sel))
	for _, t := range sel {
		idx[t.ID] = DateAttribute{TabID: t.ID, URL: t.URL}
	}
	return idx
}

// Overlay merges resolver entries into the index. Entries for IDs not
// seeded from the selection are unknown to this operation and ignored.
func (idx AttributeIndex) Overlay(attrs []DateAttribute) {
	for _, a := range attrs {
		if _, ok := idx[a.TabID]; ok {
			idx[a.TabID] = a
		}
	}
}

// MoveOutcome is the per-tab result kind of a repositioning attempt.
type MoveOutcome string

const (
	MoveOK     MoveOutcome = "moved"
	MoveFailed MoveOutcome = "failed"
)

// MoveResult records one tab's repositioning outcome. Ephemeral:
// produced and consumed within a single operation (and journaled).
type MoveResult struct {
	TabID   string      `json:"tab_id"`
	Target  int         `json:"target"`
	Outcome MoveOutcome `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`
}

// SortMode selects the comparator for an operation.
type SortMode string

const (
	// ModeURL orders by locale-collated tab URL.
	ModeURL SortMode = "url"
	// ModeDate orders by externally resolved date, dated tabs first.
	ModeDate SortMode = "date"
)

// OperationStatus is the journaled terminal state of an operation.
type OperationStatus string

const (
	StatusOK     OperationStatus = "ok"
	StatusFailed OperationStatus = "failed"
)

// Operation is one journaled sort operation.
type Operation struct {
	ID         string          `json:"id"`
	Mode       SortMode        `json:"mode"`
	Tabs       int             `json:"tabs"`
	Moved      int             `json:"moved"`
	Failed     int             `json:"failed"`
	Degraded   bool            `json:"degraded"`
	Status     OperationStatus `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}
