// Package signal reports operation status to the user-facing
// indicator.
//
// The engine emits Working once before it starts resolving and
// repositioning, and exactly one of Success or Failure when the
// operation concludes — on every path, including early exits. No
// error detail travels through the signal; diagnostics belong to the
// logs.
package signal

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// StatusSignal is the interface the engine reports through.
type StatusSignal interface {
	Working()
	Success()
	Failure()
}

// Indicator renders a short text label with a color, and clears it.
// Implementations are the browser-side badge (over NATS) or a log
// fallback.
type Indicator interface {
	Set(label, color string) error
	Clear() error
}

const (
	labelWorking = "..."
	labelSuccess = "✓"
	labelFailure = "✗"

	colorWorking = "#9e9e9e"
	colorSuccess = "#2e7d32"
	colorFailure = "#c62828"
)

// Badge drives an Indicator. Terminal states schedule a clear after
// the configured delay; the working state stays up until a terminal
// state replaces it.
type Badge struct {
	ind        Indicator
	clearAfter time.Duration
	log        *zap.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewBadge builds a badge. clearAfter <= 0 defaults to one second.
func NewBadge(ind Indicator, clearAfter time.Duration, log *zap.Logger) *Badge {
	if clearAfter <= 0 {
		clearAfter = time.Second
	}
	return &Badge{ind: ind, clearAfter: clearAfter, log: log}
}

func (b *Badge) Working() { b.set(labelWorking, colorWorking, false) }
func (b *Badge) Success() { b.set(labelSuccess, colorSuccess, true) }
func (b *Badge) Failure() { b.set(labelFailure, colorFailure, true) }

func (b *Badge) set(label, color string, scheduleClear bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if err := b.ind.Set(label, color); err != nil {
		// The indicator is cosmetic; a failed render never fails
		// the operation.
		b.log.Warn("indicator set failed", zap.String("label", label), zap.Error(err))
	}
	if scheduleClear {
		b.timer = time.AfterFunc(b.clearAfter, func() {
			if err := b.ind.Clear(); err != nil {
				b.log.Warn("indicator clear failed", zap.Error(err))
			}
		})
	}
}

// Compile-time checks.
var (
	_ StatusSignal = (*Badge)(nil)
	_ Indicator    = (*NATSIndicator)(nil)
	_ Indicator    = (*LogIndicator)(nil)
)
