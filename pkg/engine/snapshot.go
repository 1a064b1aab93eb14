package engine

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/tabherd/tabherd/pkg/host"
	"github.com/tabherd/tabherd/pkg/model"
)

// Capture takes the selection snapshot: the host's selected tabs,
// sorted ascending by position. This is the canonical baseline order —
// it fixes the destination block and serves as the tie-break order
// whenever no distinguishing sort key exists.
//
// Enumeration failure degrades to an empty selection with a non-nil
// error so the caller can short-circuit cleanly and report failure;
// nothing is thrown past this function.
func Capture(ctx context.Context, h host.Host, log *zap.Logger) (model.Selection, error) {
	tabs, err := h.Query(ctx)
	if err != nil {
		log.Warn("selection enumeration failed", zap.Error(err))
		return nil, err
	}
	sel := make(model.Selection, len(tabs))
	copy(sel, tabs)
	sort.SliceStable(sel, func(i, j int) bool { return sel[i].Position < sel[j].Position })
	return sel, nil
}
