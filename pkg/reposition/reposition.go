// Package reposition relocates a sorted selection into a contiguous
// block of container positions.
//
// The block ends at the rightmost position the selection held at
// snapshot time, so tabs sitting to the left of the selection are
// never disturbed. Execution is best-effort and non-atomic: the host
// provides no locking primitive, and a concurrent external reorder
// during the moves is an accepted weak point.
package reposition

import (
	"context"

	"go.uber.org/zap"

	"github.com/tabherd/tabherd/pkg/host"
	"github.com/tabherd/tabherd/pkg/model"
)

// PlanBlock computes the starting index of the target block for n
// tabs: rightmost snapshot position − n + 1. Clamped at 0 for the
// degenerate case of a selection packed against the container start.
func PlanBlock(sel model.Selection, n int) int {
	start := sel.RightmostPosition() - n + 1
	if start < 0 {
		start = 0
	}
	return start
}

// FailedCount counts failed results.
func FailedCount(results []model.MoveResult) int {
	n := 0
	for _, res := range results {
		if res.Outcome == model.MoveFailed {
			n++
		}
	}
	return n
}

// Repositioner issues the move requests that realize a computed order.
type Repositioner struct {
	host host.Host
	log  *zap.Logger
}

// New builds a repositioner over the given host.
func New(h host.Host, log *zap.Logger) *Repositioner {
	return &Repositioner{host: h, log: log}
}

// Reposition moves orderedIDs into the target block, one result per
// tab in ordered-ID order. An individual move failure is recorded and
// does not abort the remaining moves; a batch request that cannot be
// issued at all fails every tab in it.
func (r *Repositioner) Reposition(ctx context.Context, sel model.Selection, orderedIDs []string) []model.MoveResult {
	start := PlanBlock(sel, len(orderedIDs))
	if r.host.CanMoveBatch() {
		return r.batch(ctx, orderedIDs, start)
	}
	return r.sequential(ctx, orderedIDs, start)
}

func (r *Repositioner) batch(ctx context.Context, ids []string, start int) []model.MoveResult {
	results := make([]model.MoveResult, len(ids))
	for i, id := range ids {
		results[i] = model.MoveResult{TabID: id, Target: start + i, Outcome: model.MoveOK}
	}
	failed, err := r.host.MoveBatch(ctx, ids, start)
	if err != nil {
		r.log.Warn("batch move request failed", zap.Int("tabs", len(ids)), zap.Error(err))
		for i := range results {
			results[i].Outcome = model.MoveFailed
			results[i].Reason = err.Error()
		}
		return results
	}
	for i := range results {
		if reason, ok := failed[results[i].TabID]; ok {
			results[i].Outcome = model.MoveFailed
			results[i].Reason = reason
		}
	}
	return results
}

// sequential issues single moves strictly from the last ordered tab
// backward to the first. The order is a correctness requirement, not
// a preference: each placement must land while every not-yet-moved
// tab still sits at or left of its old index, or the indices shift
// under the tabs already placed.
func (r *Repositioner) sequential(ctx context.Context, ids []string, start int) []model.MoveResult {
	results := make([]model.MoveResult, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		target := start + i
		res := model.MoveResult{TabID: id, Target: target, Outcome: model.MoveOK}
		if err := r.host.Move(ctx, id, target); err != nil {
			res.Outcome = model.MoveFailed
			res.Reason = err.Error()
			r.log.Warn("move failed",
				zap.String("tab", id), zap.Int("target", target), zap.Error(err))
		}
		results[i] = res
	}
	return results
}
