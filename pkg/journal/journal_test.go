package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tabherd/tabherd/pkg/model"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	j, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleOp(id string, started time.Time) *model.Operation {
	return &model.Operation{
		ID:         id,
		Mode:       model.ModeDate,
		Tabs:       3,
		Moved:      2,
		Failed:     1,
		Degraded:   true,
		Status:     model.StatusFailed,
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
	}
}

func TestRecordAndGet(t *testing.T) {
	j := newTestJournal(t)
	started := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	op := sampleOp("op-1", started)
	results := []model.MoveResult{
		{TabID: "t1", Target: 7, Outcome: model.MoveOK},
		{TabID: "t2", Target: 8, Outcome: model.MoveFailed, Reason: "host refused"},
		{TabID: "t3", Target: 9, Outcome: model.MoveOK},
	}

	if err := j.Record(op, results); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, moves, err := j.Get("op-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Mode != model.ModeDate || got.Tabs != 3 || got.Moved != 2 || got.Failed != 1 {
		t.Fatalf("operation = %+v", got)
	}
	if !got.Degraded || got.Status != model.StatusFailed {
		t.Fatalf("degraded/status not round-tripped: %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("started_at = %v, want %v", got.StartedAt, started)
	}
	if len(moves) != 3 {
		t.Fatalf("got %d moves, want 3", len(moves))
	}
	// Moves come back ordered by target.
	if moves[0].TabID != "t1" || moves[1].TabID != "t2" || moves[2].TabID != "t3" {
		t.Fatalf("moves = %+v", moves)
	}
	if moves[1].Outcome != model.MoveFailed || moves[1].Reason != "host refused" {
		t.Fatalf("failed move not preserved: %+v", moves[1])
	}
}

func TestGet_NotFound(t *testing.T) {
	j := newTestJournal(t)
	if _, _, err := j.Get("nope"); err == nil {
		t.Fatal("expected error for unknown operation")
	}
}

func TestList_NewestFirst(t *testing.T) {
	j := newTestJournal(t)
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		op := sampleOp(id, base.Add(time.Duration(i)*time.Hour))
		if err := j.Record(op, nil); err != nil {
			t.Fatalf("Record(%s): %v", id, err)
		}
	}

	ops, err := j.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("got %d operations, want 3", len(ops))
	}
	if ops[0].ID != "new" || ops[2].ID != "old" {
		t.Fatalf("order = %v, want newest first", []string{ops[0].ID, ops[1].ID, ops[2].ID})
	}

	limited, err := j.List(1)
	if err != nil {
		t.Fatalf("List(1): %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "new" {
		t.Fatalf("List(1) = %+v", limited)
	}
}

func TestLastAndCount(t *testing.T) {
	j := newTestJournal(t)

	last, err := j.Last()
	if err != nil {
		t.Fatalf("Last on empty journal: %v", err)
	}
	if last != nil {
		t.Fatalf("empty journal Last = %+v, want nil", last)
	}
	if j.Count() != 0 {
		t.Fatalf("empty journal Count = %d", j.Count())
	}

	started := time.Date(2026, 8, 2, 8, 0, 0, 0, time.UTC)
	if err := j.Record(sampleOp("only", started), nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	last, err = j.Last()
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if last == nil || last.ID != "only" {
		t.Fatalf("Last = %+v, want only", last)
	}
	if j.Count() != 1 {
		t.Fatalf("Count = %d, want 1", j.Count())
	}
}
