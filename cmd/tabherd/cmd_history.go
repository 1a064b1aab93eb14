package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tabherd/tabherd/pkg/model"
)

func (a *app) cmdHistory(args []string) int {
	flags := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := flags.Int("limit", 20, "max operations to list")
	opID := flags.String("id", "", "show one operation with per-tab moves")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if *opID != "" {
		return a.historyOne(*opID, *jsonOut)
	}

	ops, err := a.journal.List(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tabherd: history: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"operations": ops, "count": len(ops)})
		return 0
	}
	if len(ops) == 0 {
		fmt.Println("no operations")
		return 0
	}
	for _, op := range ops {
		printOperation(op)
	}
	return 0
}

func (a *app) historyOne(id string, jsonOut bool) int {
	op, moves, err := a.journal.Get(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tabherd: history: %v\n", err)
		return 1
	}

	if jsonOut {
		printJSON(map[string]interface{}{"operation": op, "moves": moves})
		return 0
	}
	printOperation(*op)
	for _, m := range moves {
		mark := "+"
		if m.Outcome == model.MoveFailed {
			mark = "!"
		}
		fmt.Printf("  [%s] %s -> %d", mark, m.TabID, m.Target)
		if m.Reason != "" {
			fmt.Printf("  (%s)", m.Reason)
		}
		fmt.Println()
	}
	return 0
}

func printOperation(op model.Operation) {
	note := ""
	if op.Degraded {
		note = " degraded"
	}
	fmt.Printf("%s  %s  by=%-4s tabs=%-3d moved=%-3d failed=%-3d %s%s\n",
		op.StartedAt.Local().Format("2006-01-02 15:04:05"),
		op.ID, op.Mode, op.Tabs, op.Moved, op.Failed, op.Status, note)
}
