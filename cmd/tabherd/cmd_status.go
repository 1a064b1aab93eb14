package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tabherd/tabherd/pkg/host"
	"github.com/tabherd/tabherd/pkg/resolver"
)

func (a *app) cmdStatus(args []string) int {
	flags := flag.NewFlagSet("status", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	type statusInfo struct {
		ConfigPath    string `json:"config_path"`
		NATSURL       string `json:"nats_url,omitempty"`
		Connected     bool   `json:"connected"`
		HostIdent     string `json:"host_ident,omitempty"`
		BatchMoves    bool   `json:"batch_moves"`
		DatesSubject  string `json:"dates_subject,omitempty"`
		Operations    int64  `json:"operations"`
		LastOperation string `json:"last_operation,omitempty"`
	}
	info := statusInfo{
		ConfigPath: configPath(),
		NATSURL:    a.cfg.NATS.URL,
		Connected:  a.connected(),
		Operations: a.journal.Count(),
	}

	// Best-effort endpoint probe; an unreachable endpoint is status
	// output, not a command failure.
	if a.connected() {
		h := host.NewNATS(a.nc, a.cfg.Host.SubjectPrefix, a.cfg.Host.RequestTimeout, a.log)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if ident, err := h.Ident(ctx); err == nil {
			info.HostIdent = ident
			info.BatchMoves = h.CanMoveBatch()
			info.DatesSubject = a.cfg.Resolver.Subject
			if info.DatesSubject == "" {
				info.DatesSubject = resolver.SubjectForIdent(ident)
			}
		}
		cancel()
	}

	last, err := a.journal.Last()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tabherd: status: %v\n", err)
		return 1
	}
	if last != nil {
		info.LastOperation = last.ID
	}

	if *jsonOut {
		out := map[string]interface{}{"status": info}
		if last != nil {
			out["last"] = last
		}
		printJSON(out)
		return 0
	}

	fmt.Printf("config:   %s\n", info.ConfigPath)
	if info.NATSURL == "" {
		fmt.Println("nats:     not configured (dry-run only)")
	} else if info.HostIdent == "" {
		fmt.Printf("nats:     %s (endpoint not answering)\n", info.NATSURL)
	} else {
		fmt.Printf("nats:     %s\n", info.NATSURL)
		fmt.Printf("endpoint: %s (batch_moves=%v)\n", info.HostIdent, info.BatchMoves)
		fmt.Printf("dates:    %s\n", info.DatesSubject)
	}
	fmt.Printf("journal:  %d operation(s)\n", info.Operations)
	if last != nil {
		fmt.Println("last:")
		printOperation(*last)
	}
	return 0
}
