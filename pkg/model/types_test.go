package model

import "testing"

func TestSelectionIDs(t *testing.T) {
	sel := Selection{
		{ID: "t1", Position: 2},
		{ID: "t2", Position: 5},
		{ID: "t3", Position: 9},
	}
	ids := sel.IDs()
	if len(ids) != 3 || ids[0] != "t1" || ids[1] != "t2" || ids[2] != "t3" {
		t.Fatalf("IDs() = %v, want [t1 t2 t3]", ids)
	}
}

func TestRightmostPosition(t *testing.T) {
	sel := Selection{
		{ID: "a", Position: 5},
		{ID: "b", Position: 9},
		{ID: "c", Position: 7},
	}
	if got := sel.RightmostPosition(); got != 9 {
		t.Fatalf("RightmostPosition() = %d, want 9", got)
	}
}

func TestRightmostPosition_Empty(t *testing.T) {
	if got := (Selection{}).RightmostPosition(); got != -1 {
		t.Fatalf("empty selection: got %d, want -1", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	sel := Selection{{ID: "a", Position: 1}, {ID: "b", Position: 2}}
	dup := sel.Clone()
	dup[0], dup[1] = dup[1], dup[0]
	if sel[0].ID != "a" || sel[1].ID != "b" {
		t.Fatal("Clone() should not alias the original snapshot")
	}
}

func TestDateAttributeAbsent(t *testing.T) {
	cases := []struct {
		name string
		attr DateAttribute
		want bool
	}{
		{"nil date", DateAttribute{TabID: "t"}, true},
		{"zero year", DateAttribute{TabID: "t", Date: &Date{Month: 4}}, true},
		{"year only", DateAttribute{TabID: "t", Date: &Date{Year: 2024}}, false},
		{"full date", DateAttribute{TabID: "t", Date: &Date{Year: 2024, Month: 1, Day: 2}}, false},
	}
	for _, tc := range cases {
		if got := tc.attr.Absent(); got != tc.want {
			t.Errorf("%s: Absent() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNewAttributeIndexSeedsEveryTab(t *testing.T) {
	sel := Selection{
		{ID: "t1", URL: "https://a.example"},
		{ID: "t2", URL: "https://b.example"},
	}
	idx := NewAttributeIndex(sel)
	for _, tab := range sel {
		a, ok := idx[tab.ID]
		if !ok {
			t.Fatalf("no seeded entry for %s", tab.ID)
		}
		if !a.Absent() {
			t.Fatalf("seeded entry for %s should be absent", tab.ID)
		}
		if a.URL != tab.URL {
			t.Fatalf("seeded URL = %q, want %q", a.URL, tab.URL)
		}
	}
}

func TestOverlayIgnoresUnknownIDs(t *testing.T) {
	sel := Selection{{ID: "t1"}, {ID: "t2"}}
	idx := NewAttributeIndex(sel)
	idx.Overlay([]DateAttribute{
		{TabID: "t1", Date: &Date{Year: 2023}},
		{TabID: "stranger", Date: &Date{Year: 1999}},
	})
	if len(idx) != 2 {
		t.Fatalf("index has %d entries, want 2", len(idx))
	}
	if idx["t1"].Absent() {
		t.Fatal("overlay for t1 not applied")
	}
	if !idx["t2"].Absent() {
		t.Fatal("t2 should keep its absent fallback")
	}
	if _, ok := idx["stranger"]; ok {
		t.Fatal("unknown ID must not be admitted into the index")
	}
}
