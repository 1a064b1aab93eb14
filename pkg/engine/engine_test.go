package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/tabherd/tabherd/pkg/host"
	"github.com/tabherd/tabherd/pkg/journal"
	"github.com/tabherd/tabherd/pkg/model"
	"github.com/tabherd/tabherd/pkg/reposition"
	"github.com/tabherd/tabherd/pkg/resolver"
	"github.com/tabherd/tabherd/pkg/signal"
)

// fakeSignal records the exact signal sequence.
type fakeSignal struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSignal) Working() { f.record("working") }
func (f *fakeSignal) Success() { f.record("success") }
func (f *fakeSignal) Failure() { f.record("failure") }

func (f *fakeSignal) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
}

func (f *fakeSignal) sequence() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func assertSignals(t *testing.T, f *fakeSignal, want ...string) {
	t.Helper()
	got := f.sequence()
	if len(got) != len(want) {
		t.Fatalf("signals = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("signals = %v, want %v", got, want)
		}
	}
}

// stubResolver returns a canned index (seeded if nil) and error.
type stubResolver struct {
	attrs  []model.DateAttribute
	err    error
	called bool
}

func (s *stubResolver) Resolve(ctx context.Context, sel model.Selection) (model.AttributeIndex, error) {
	s.called = true
	idx := model.NewAttributeIndex(sel)
	idx.Overlay(s.attrs)
	return idx, s.err
}

// stubRepositioner fails the test if ever invoked.
type stubRepositioner struct {
	t      *testing.T
	called bool
}

func (s *stubRepositioner) Reposition(ctx context.Context, sel model.Selection, ids []string) []model.MoveResult {
	s.called = true
	s.t.Error("repositioner must not be invoked on this path")
	return nil
}

func newEngine(m *host.Memory, res Resolver, sig signal.StatusSignal, j journal.JournalInterface) *Engine {
	log := zap.NewNop()
	return New(Params{
		Host:         m,
		Resolver:     res,
		Repositioner: reposition.New(m, log),
		Signal:       sig,
		Journal:      j,
		Locale:       "en",
		Log:          log,
	})
}

func TestSort_ByURL(t *testing.T) {
	m := host.NewMemory(
		model.Tab{ID: "t1", URL: "https://zeta.example", ReadyState: model.ReadyStateReady},
		model.Tab{ID: "t2", URL: "https://alpha.example", ReadyState: model.ReadyStateReady},
		model.Tab{ID: "t3", URL: "https://midway.example", ReadyState: model.ReadyStateReady},
	)
	m.Select("t1", "t2", "t3")
	sig := &fakeSignal{}
	res := &stubResolver{}
	e := newEngine(m, res, sig, nil)

	rep, err := e.Sort(context.Background(), model.ModeURL)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if rep.Status != model.StatusOK || rep.Moved != 3 || rep.Failed != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if res.called {
		t.Fatal("URL mode must bypass the resolver")
	}
	assertSignals(t, sig, "working", "success")

	final := m.Tabs()
	if final[0].ID != "t2" || final[1].ID != "t3" || final[2].ID != "t1" {
		t.Fatalf("final order = %v, want alpha,midway,zeta", []string{final[0].ID, final[1].ID, final[2].ID})
	}
}

func TestSort_ByDate(t *testing.T) {
	m := host.NewMemory(
		model.Tab{ID: "A", URL: "https://a", ReadyState: model.ReadyStateReady},
		model.Tab{ID: "B", URL: "https://b", ReadyState: model.ReadyStateReady},
		model.Tab{ID: "C", URL: "https://c", ReadyState: model.ReadyStateReady},
	)
	m.Select("A", "B", "C")
	sig := &fakeSignal{}
	res := &stubResolver{attrs: []model.DateAttribute{
		{TabID: "A", Date: &model.Date{Year: 2024, Month: 1, Day: 1}},
		{TabID: "C", Date: &model.Date{Year: 2023, Month: 5, Day: 5}},
	}}
	e := newEngine(m, res, sig, nil)

	rep, err := e.Sort(context.Background(), model.ModeDate)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if !res.called {
		t.Fatal("date mode must use the resolver")
	}
	if rep.Status != model.StatusOK {
		t.Fatalf("report = %+v", rep)
	}
	assertSignals(t, sig, "working", "success")

	final := m.Tabs()
	if final[0].ID != "C" || final[1].ID != "A" || final[2].ID != "B" {
		t.Fatalf("final order = %v, want C,A,B", []string{final[0].ID, final[1].ID, final[2].ID})
	}
}

func TestSort_EmptySelectionShortCircuits(t *testing.T) {
	m := host.NewMemory(model.Tab{ID: "lonely", ReadyState: model.ReadyStateReady})
	// Nothing selected.
	sig := &fakeSignal{}
	res := &stubResolver{}
	repo := &stubRepositioner{t: t}
	e := New(Params{
		Host: m, Resolver: res, Repositioner: repo,
		Signal: sig, Locale: "en", Log: zap.NewNop(),
	})

	rep, err := e.Sort(context.Background(), model.ModeDate)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if rep.Status != model.StatusOK || rep.Tabs != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if res.called || repo.called {
		t.Fatal("resolver/repositioner must not run for an empty selection")
	}
	assertSignals(t, sig, "working", "success")
}

func TestSort_SingleTabShortCircuits(t *testing.T) {
	m := host.NewMemory(model.Tab{ID: "only", ReadyState: model.ReadyStateReady})
	m.Select("only")
	sig := &fakeSignal{}
	res := &stubResolver{}
	repo := &stubRepositioner{t: t}
	e := New(Params{
		Host: m, Resolver: res, Repositioner: repo,
		Signal: sig, Locale: "en", Log: zap.NewNop(),
	})

	rep, err := e.Sort(context.Background(), model.ModeURL)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if rep.Status != model.StatusOK || rep.Tabs != 1 {
		t.Fatalf("report = %+v", rep)
	}
	assertSignals(t, sig, "working", "success")
}

func TestSort_SnapshotFailure(t *testing.T) {
	m := host.NewMemory()
	m.FailQuery(errors.New("container gone"))
	sig := &fakeSignal{}
	e := newEngine(m, &stubResolver{}, sig, nil)

	rep, err := e.Sort(context.Background(), model.ModeURL)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if rep.Status != model.StatusFailed {
		t.Fatalf("report = %+v, want failed", rep)
	}
	assertSignals(t, sig, "working", "failure")
}

func TestSort_DegradedResolutionFailsOperation(t *testing.T) {
	m := host.NewMemory(
		model.Tab{ID: "x", ReadyState: model.ReadyStateReady},
		model.Tab{ID: "y", ReadyState: model.ReadyStateReady},
	)
	m.Select("x", "y")
	sig := &fakeSignal{}
	e := newEngine(m, &stubResolver{err: resolver.ErrTransport}, sig, nil)

	rep, err := e.Sort(context.Background(), model.ModeDate)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if !rep.Degraded || rep.Status != model.StatusFailed {
		t.Fatalf("report = %+v, want degraded failure", rep)
	}
	// Moves still happened: absent dates keep snapshot order.
	if rep.Moved != 2 || rep.Failed != 0 {
		t.Fatalf("report = %+v, want all tabs moved", rep)
	}
	assertSignals(t, sig, "working", "failure")
}

func TestSort_UnconfiguredEndpointIsNotFailure(t *testing.T) {
	m := host.NewMemory(
		model.Tab{ID: "x", ReadyState: model.ReadyStateReady},
		model.Tab{ID: "y", ReadyState: model.ReadyStateReady},
	)
	m.Select("x", "y")
	sig := &fakeSignal{}
	e := newEngine(m, &stubResolver{err: resolver.ErrEndpointUnconfigured}, sig, nil)

	rep, err := e.Sort(context.Background(), model.ModeDate)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if rep.Degraded || rep.Status != model.StatusOK {
		t.Fatalf("report = %+v, want clean success", rep)
	}
	assertSignals(t, sig, "working", "success")
}

func TestSort_MoveFailureFailsOperationButNotSiblings(t *testing.T) {
	m := host.NewMemory(
		model.Tab{ID: "t1", URL: "https://c", ReadyState: model.ReadyStateReady},
		model.Tab{ID: "t2", URL: "https://a", ReadyState: model.ReadyStateReady},
		model.Tab{ID: "t3", URL: "https://b", ReadyState: model.ReadyStateReady},
	)
	m.Select("t1", "t2", "t3")
	m.FailMove("t2", "host refused")
	sig := &fakeSignal{}
	e := newEngine(m, &stubResolver{}, sig, nil)

	rep, err := e.Sort(context.Background(), model.ModeURL)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if rep.Status != model.StatusFailed || rep.Failed != 1 || rep.Moved != 2 {
		t.Fatalf("report = %+v, want 1 failed, 2 moved", rep)
	}
	assertSignals(t, sig, "working", "failure")
}

func TestSort_JournalsOperation(t *testing.T) {
	j, err := journal.New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("journal.New: %v", err)
	}
	defer j.Close()

	m := host.NewMemory(
		model.Tab{ID: "t1", URL: "https://b", ReadyState: model.ReadyStateReady},
		model.Tab{ID: "t2", URL: "https://a", ReadyState: model.ReadyStateReady},
	)
	m.Select("t1", "t2")
	sig := &fakeSignal{}
	e := newEngine(m, &stubResolver{}, sig, j)

	rep, err := e.Sort(context.Background(), model.ModeURL)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}

	if j.Count() != 1 {
		t.Fatalf("journal count = %d, want 1", j.Count())
	}
	op, moves, err := j.Get(rep.OpID)
	if err != nil {
		t.Fatalf("journal.Get: %v", err)
	}
	if op.Mode != model.ModeURL || op.Tabs != 2 || op.Status != model.StatusOK {
		t.Fatalf("journaled op = %+v", op)
	}
	if len(moves) != 2 {
		t.Fatalf("journaled moves = %+v", moves)
	}
}

func TestSort_UnknownMode(t *testing.T) {
	m := host.NewMemory()
	e := newEngine(m, &stubResolver{}, &fakeSignal{}, nil)
	if _, err := e.Sort(context.Background(), model.SortMode("chaos")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
