// Package host abstracts the browser environment that owns the tabs.
//
// The tab container is globally shared mutable state that tabherd does
// not control: the host can reorder, create, or close tabs at any
// time, and provides no locking primitive. Everything here is
// therefore best-effort. Code that depends on the host accepts the
// Host interface instead of a concrete type, enabling the in-memory
// implementation to stand in during tests.
package host

import (
	"context"

	"github.com/tabherd/tabherd/pkg/model"
)

// Host is the injected abstraction over the browser's tab primitives.
type Host interface {
	// Query returns the currently selected tabs of the active
	// container, in no particular order.
	Query(ctx context.Context) ([]model.Tab, error)

	// Move relocates one tab to the given container index.
	Move(ctx context.Context, id string, index int) error

	// MoveBatch relocates ids as one contiguous block starting at
	// index, preserving the order of ids. The returned map carries
	// per-tab failure reasons; a non-nil error means the request
	// itself could not be issued. Only valid when CanMoveBatch
	// reports true.
	MoveBatch(ctx context.Context, ids []string, index int) (map[string]string, error)

	// CanMoveBatch reports whether the host supports multi-tab moves.
	CanMoveBatch() bool

	// Reload asks the host to refresh a tab. The reload proceeds on
	// the host's side regardless of whether anyone keeps waiting.
	Reload(ctx context.Context, id string) error

	// ReadyWait registers for the tab's became-ready notification.
	// The channel is closed when the tab finishes loading. The cancel
	// function unregisters the waiter; it must be called once the
	// caller stops caring (e.g. after a timeout).
	ReadyWait(id string) (ready <-chan struct{}, cancel func())

	// Ident returns the host's identifying string (user agent or
	// runtime identity), used to pick the platform endpoint family.
	Ident(ctx context.Context) (string, error)
}

// Compile-time checks that both implementations satisfy Host.
var (
	_ Host = (*Memory)(nil)
	_ Host = (*NATS)(nil)
)
