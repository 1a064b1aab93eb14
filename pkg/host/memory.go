package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tabherd/tabherd/pkg/model"
)

// Memory is an in-memory tab container. It backs tests and the sort
// command's --dry-run path. Positions always equal the tab's index in
// the container slice, which mirrors how browsers renumber tabs after
// every move.
type Memory struct {
	mu       sync.Mutex
	tabs     []model.Tab
	selected map[string]bool
	waiters  map[string][]chan struct{}

	identity    string
	batch       bool
	reloadDelay time.Duration

	queryErr  error
	moveFails map[string]string // tab ID -> injected failure reason
	stuck     map[string]bool   // tab IDs whose reload never completes
}

// NewMemory builds a container holding the given tabs in order.
// Positions are renumbered to the slice index; the Position field of
// the inputs is ignored.
func NewMemory(tabs ...model.Tab) *Memory {
	m := &Memory{
		selected:  make(map[string]bool),
		waiters:   make(map[string][]chan struct{}),
		moveFails: make(map[string]string),
		stuck:     make(map[string]bool),
		identity:  "tabherd-memory/chromium",
	}
	m.tabs = make([]model.Tab, len(tabs))
	copy(m.tabs, tabs)
	m.renumber()
	return m
}

// Select marks tabs as part of the user selection.
func (m *Memory) Select(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.selected[id] = true
	}
}

// SetIdentity overrides the host identifying string.
func (m *Memory) SetIdentity(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = s
}

// SetBatch toggles the multi-tab move capability.
func (m *Memory) SetBatch(b bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batch = b
}

// SetReloadDelay delays the ready notification after Reload.
func (m *Memory) SetReloadDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloadDelay = d
}

// FailQuery makes Query return err until called with nil.
func (m *Memory) FailQuery(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryErr = err
}

// FailMove injects a failure reason for moves of the given tab.
func (m *Memory) FailMove(id, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moveFails[id] = reason
}

// StickReload makes the given tab's reload never reach ready, so a
// waiter can only resolve by timing out.
func (m *Memory) StickReload(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stuck[id] = true
}

// Tabs returns a copy of the full container, in position order.
func (m *Memory) Tabs() []model.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Tab, len(m.tabs))
	copy(out, m.tabs)
	return out
}

func (m *Memory) Query(ctx context.Context) ([]model.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []model.Tab
	for _, t := range m.tabs {
		if m.selected[t.ID] {
			out = append(out, t)
		}
	}
	return out, ctx.Err()
}

func (m *Memory) Move(ctx context.Context, id string, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if reason, ok := m.moveFails[id]; ok {
		return fmt.Errorf("move %s: %s", id, reason)
	}
	return m.moveLocked(id, index)
}

func (m *Memory) MoveBatch(ctx context.Context, ids []string, index int) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.batch {
		return nil, fmt.Errorf("host does not support batch moves")
	}
	failed := make(map[string]string)
	// Insert the block back to front so each placement lands at a
	// stable index, same as the sequential path.
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		if reason, ok := m.moveFails[id]; ok {
			failed[id] = reason
			continue
		}
		if err := m.moveLocked(id, index+i); err != nil {
			failed[id] = err.Error()
		}
	}
	return failed, nil
}

func (m *Memory) CanMoveBatch() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batch
}

func (m *Memory) Reload(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.stuck[id] {
		m.mu.Unlock()
		return nil
	}
	delay := m.reloadDelay
	m.mu.Unlock()

	if delay == 0 {
		m.markReady(id)
		return nil
	}
	time.AfterFunc(delay, func() { m.markReady(id) })
	return nil
}

func (m *Memory) ReadyWait(id string) (<-chan struct{}, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.waiters[id] = append(m.waiters[id], ch)
	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		ws := m.waiters[id]
		for i, w := range ws {
			if w == ch {
				m.waiters[id] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

func (m *Memory) Ident(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity, ctx.Err()
}

// markReady flips the tab to ready and wakes all registered waiters.
func (m *Memory) markReady(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tabs {
		if m.tabs[i].ID == id {
			m.tabs[i].ReadyState = model.ReadyStateReady
		}
	}
	for _, w := range m.waiters[id] {
		close(w)
	}
	m.waiters[id] = nil
}

// moveLocked removes the tab and reinserts it at index (clamped to
// the container bounds), then renumbers positions. Mirrors the
// remove-then-insert semantics of browser tab moves.
func (m *Memory) moveLocked(id string, index int) error {
	from := -1
	for i, t := range m.tabs {
		if t.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return fmt.Errorf("move %s: no such tab", id)
	}
	tab := m.tabs[from]
	m.tabs = append(m.tabs[:from], m.tabs[from+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(m.tabs) {
		index = len(m.tabs)
	}
	m.tabs = append(m.tabs[:index], append([]model.Tab{tab}, m.tabs[index:]...)...)
	m.renumber()
	return nil
}

func (m *Memory) renumber() {
	for i := range m.tabs {
		m.tabs[i].Position = i
	}
}
