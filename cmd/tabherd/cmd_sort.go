package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tabherd/tabherd/pkg/engine"
	"github.com/tabherd/tabherd/pkg/host"
	"github.com/tabherd/tabherd/pkg/model"
	"github.com/tabherd/tabherd/pkg/reposition"
	"github.com/tabherd/tabherd/pkg/resolver"
	"github.com/tabherd/tabherd/pkg/signal"
)

func (a *app) cmdSort(args []string) int {
	flags := flag.NewFlagSet("sort", flag.ContinueOnError)
	by := flags.String("by", "", "sort key: url or date")
	dryRun := flags.Bool("dry-run", false, "sort a tab list read from stdin, move nothing in the browser")
	timeout := flags.Duration("timeout", 60*time.Second, "overall operation deadline")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	mode := model.SortMode(*by)
	if mode != model.ModeURL && mode != model.ModeDate {
		fmt.Fprintln(os.Stderr, "tabherd: sort: --by must be url or date")
		return 1
	}

	var h host.Host
	var mem *host.Memory
	if *dryRun {
		tabs, err := parseTabs(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tabherd: sort: %v\n", err)
			return 1
		}
		mem = host.NewMemory(tabs...)
		for _, t := range tabs {
			mem.Select(t.ID)
		}
		h = mem
	} else {
		if !a.connected() {
			fmt.Fprintln(os.Stderr, "tabherd: sort: no nats.url configured (run 'tabherd init', or use --dry-run)")
			return 1
		}
		h = host.NewNATS(a.nc, a.cfg.Host.SubjectPrefix, a.cfg.Host.RequestTimeout, a.log)
	}

	var ind signal.Indicator
	if a.connected() && !*dryRun {
		ind = signal.NewNATSIndicator(a.nc, a.cfg.Badge.Subject)
	} else {
		ind = signal.LogIndicator{Log: a.log}
	}

	var j = a.journal
	if *dryRun {
		j = nil // rehearsals stay out of the history
	}

	e := engine.New(engine.Params{
		Host: h,
		Resolver: resolver.New(a.nc, h, resolver.Config{
			ReadyTimeout:   a.cfg.Resolver.ReadyTimeout,
			RequestTimeout: a.cfg.Resolver.RequestTimeout,
			Subject:        a.cfg.Resolver.Subject,
		}, a.log),
		Repositioner: reposition.New(h, a.log),
		Signal:       signal.NewBadge(ind, a.cfg.Badge.ClearAfter, a.log),
		Journal:      j,
		Locale:       a.cfg.Sort.Locale,
		Log:          a.log,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	rep, err := e.Sort(ctx, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tabherd: sort: %v\n", err)
		return 1
	}

	if *jsonOut {
		out := map[string]interface{}{"report": rep}
		if mem != nil {
			out["tabs"] = mem.Tabs()
		}
		printJSON(out)
	} else {
		printReport(rep)
		if mem != nil {
			fmt.Println("resulting order:")
			for _, t := range mem.Tabs() {
				fmt.Printf("  %2d  %s  %s\n", t.Position, t.ID, t.URL)
			}
		}
	}

	if rep.Status != model.StatusOK {
		return 2
	}
	return 0
}

func printReport(rep *engine.Report) {
	fmt.Printf("sorted %d tab(s) by %s: %d moved, %d failed\n",
		rep.Tabs, rep.Mode, rep.Moved, rep.Failed)
	if rep.Degraded {
		fmt.Println("  dates degraded: some tabs sorted without a date")
	}
	for _, r := range rep.Results {
		if r.Outcome == model.MoveFailed {
			fmt.Printf("  failed %s -> %d: %s\n", r.TabID, r.Target, r.Reason)
		}
	}
	fmt.Printf("status: %s (%s)\n", rep.Status, rep.OpID)
}

// parseTabs decodes a dry-run tab list: a JSON array of tab objects.
// Tabs default to ready unless the input says otherwise.
func parseTabs(r io.Reader) ([]model.Tab, error) {
	var tabs []model.Tab
	dec := json.NewDecoder(r)
	if err := dec.Decode(&tabs); err != nil {
		return nil, fmt.Errorf("parse tab list: %w", err)
	}
	if len(tabs) == 0 {
		return nil, fmt.Errorf("empty tab list")
	}
	for i := range tabs {
		if tabs[i].ID == "" {
			return nil, fmt.Errorf("tab %d has no id", i)
		}
		if tabs[i].ReadyState == "" {
			tabs[i].ReadyState = model.ReadyStateReady
		}
	}
	return tabs, nil
}
