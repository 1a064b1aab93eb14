// Package engine orchestrates one sort operation end to end:
// snapshot → resolve (date mode) → order → reposition → status signal.
//
// Lower layers absorb their own failures and degrade; only the engine
// decides the terminal success/failure signal, based on whether every
// tab ended in its intended position with intended data. Exactly one
// terminal signal is emitted per operation, on every path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/collate"

	"github.com/tabherd/tabherd/pkg/host"
	"github.com/tabherd/tabherd/pkg/journal"
	"github.com/tabherd/tabherd/pkg/model"
	"github.com/tabherd/tabherd/pkg/order"
	"github.com/tabherd/tabherd/pkg/reposition"
	"github.com/tabherd/tabherd/pkg/resolver"
	"github.com/tabherd/tabherd/pkg/signal"
)

// Resolver produces a fully-populated attribute index for a
// selection. The error classifies degradation; it never aborts.
type Resolver interface {
	Resolve(ctx context.Context, sel model.Selection) (model.AttributeIndex, error)
}

// Repositioner realizes a computed order as host moves.
type Repositioner interface {
	Reposition(ctx context.Context, sel model.Selection, orderedIDs []string) []model.MoveResult
}

// Params wires an Engine. Journal may be nil (no history kept).
type Params struct {
	Host         host.Host
	Resolver     Resolver
	Repositioner Repositioner
	Signal       signal.StatusSignal
	Journal      journal.JournalInterface
	Locale       string
	Log          *zap.Logger
}

// Engine runs sort operations over one host.
type Engine struct {
	host         host.Host
	resolver     Resolver
	repositioner Repositioner
	signal       signal.StatusSignal
	journal      journal.JournalInterface
	collator     *collate.Collator
	log          *zap.Logger
}

// New builds an engine.
func New(p Params) *Engine {
	return &Engine{
		host:         p.Host,
		resolver:     p.Resolver,
		repositioner: p.Repositioner,
		signal:       p.Signal,
		journal:      p.Journal,
		collator:     order.NewCollator(p.Locale),
		log:          p.Log,
	}
}

// Report is the outcome of one sort operation.
type Report struct {
	OpID       string             `json:"op_id"`
	Mode       model.SortMode     `json:"mode"`
	Tabs       int                `json:"tabs"`
	Moved      int                `json:"moved"`
	Failed     int                `json:"failed"`
	Degraded   bool               `json:"degraded"`
	Status     model.OperationStatus `json:"status"`
	Results    []model.MoveResult `json:"results,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// Sort runs one operation. The returned error covers only caller
// mistakes (an unknown mode); operational failures land in the report
// and the status signal.
func (e *Engine) Sort(ctx context.Context, mode model.SortMode) (*Report, error) {
	if mode != model.ModeURL && mode != model.ModeDate {
		return nil, fmt.Errorf("unknown sort mode %q", mode)
	}

	rep := &Report{
		OpID:      uuid.New().String(),
		Mode:      mode,
		StartedAt: time.Now().UTC(),
		Status:    model.StatusOK,
	}
	e.signal.Working()

	sel, err := Capture(ctx, e.host, e.log)
	if err != nil {
		rep.Status = model.StatusFailed
		return e.finish(rep, nil), nil
	}
	rep.Tabs = len(sel)

	// Nothing to reorder; the resolver and repositioner are not
	// involved at all.
	if len(sel) < 2 {
		return e.finish(rep, nil), nil
	}

	var ordered model.Selection
	switch mode {
	case model.ModeURL:
		ordered = order.ByURL(sel, e.collator)
	case model.ModeDate:
		idx, rerr := e.resolver.Resolve(ctx, sel)
		if rerr != nil && !errors.Is(rerr, resolver.ErrEndpointUnconfigured) {
			rep.Degraded = true
		}
		ordered = order.ByDate(sel, idx)
	}

	results := e.repositioner.Reposition(ctx, sel, ordered.IDs())
	rep.Results = results
	rep.Failed = reposition.FailedCount(results)
	rep.Moved = len(results) - rep.Failed
	if rep.Degraded || rep.Failed > 0 {
		rep.Status = model.StatusFailed
	}
	return e.finish(rep, results), nil
}

// finish stamps the end time, emits the single terminal signal, and
// journals the operation best-effort.
func (e *Engine) finish(rep *Report, results []model.MoveResult) *Report {
	rep.FinishedAt = time.Now().UTC()
	if rep.Status == model.StatusOK {
		e.signal.Success()
	} else {
		e.signal.Failure()
	}
	e.log.Info("sort finished",
		zap.String("op", rep.OpID),
		zap.String("mode", string(rep.Mode)),
		zap.Int("tabs", rep.Tabs),
		zap.Int("failed", rep.Failed),
		zap.Bool("degraded", rep.Degraded),
		zap.String("status", string(rep.Status)))

	if e.journal != nil {
		op := &model.Operation{
			ID:         rep.OpID,
			Mode:       rep.Mode,
			Tabs:       rep.Tabs,
			Moved:      rep.Moved,
			Failed:     rep.Failed,
			Degraded:   rep.Degraded,
			Status:     rep.Status,
			StartedAt:  rep.StartedAt,
			FinishedAt: rep.FinishedAt,
		}
		if err := e.journal.Record(op, results); err != nil {
			e.log.Warn("journal record failed", zap.String("op", rep.OpID), zap.Error(err))
		}
	}
	return rep
}
