// Package resolver obtains per-tab date attributes from an external
// resolver process over NATS request/reply.
//
// The resolver never fails an operation outright. Every failure mode
// degrades to "absent attribute for the affected tabs": the returned
// index always covers the full selection, and the comparator's
// absent-date rule takes over from there. The returned error exists so
// the orchestrator can decide the terminal status signal; it is never
// a reason to abort.
//
// Resolution happens in two phases. First, every tab still loading is
// asked to reload, and its became-ready notification is raced against
// a timeout; the races for different tabs are unordered relative to
// each other, but all of them must settle before phase two. Second,
// one batched get-dates request carries the full ID set — including
// tabs that timed out, which the external process answers with absent
// data.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tabherd/tabherd/pkg/host"
	"github.com/tabherd/tabherd/pkg/model"
)

// Failure taxonomy. Unconfigured is a skip, not a failure: the
// orchestrator reports failure only for transport and malformed.
var (
	ErrEndpointUnconfigured = errors.New("resolver: endpoint not configured")
	ErrTransport            = errors.New("resolver: transport failure")
	ErrMalformedResponse    = errors.New("resolver: malformed response")
)

// The two known endpoint families. Which one answers depends on the
// platform the browser-side endpoint runs on, detected from the
// host's identifying string.
const (
	SubjectGecko    = "tabherd.dates.gecko"
	SubjectChromium = "tabherd.dates.chromium"
)

// SubjectForIdent maps a host identifying string to its endpoint
// family subject. Unrecognized hosts fall into the chromium family.
func SubjectForIdent(ident string) string {
	l := strings.ToLower(ident)
	if strings.Contains(l, "firefox") || strings.Contains(l, "gecko") {
		return SubjectGecko
	}
	return SubjectChromium
}

// Config tunes the resolver. Zero values take the defaults below.
type Config struct {
	// ReadyTimeout bounds each pending tab's reload wait.
	ReadyTimeout time.Duration
	// RequestTimeout bounds the batched messaging round trip.
	RequestTimeout time.Duration
	// Subject overrides endpoint family detection when non-empty.
	Subject string
}

const (
	defaultReadyTimeout   = 15 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

// WaitOutcome is the settled state of one pending tab's reload race.
type WaitOutcome int

const (
	WaitReloaded WaitOutcome = iota
	WaitTimedOut
)

// Resolver fetches date attributes for a selection. A nil connection
// means the messaging capability is not configured; Resolve then
// returns all-absent attributes without error treatment.
type Resolver struct {
	nc   *nats.Conn
	host host.Host
	cfg  Config
	log  *zap.Logger
}

// New builds a resolver. nc may be nil (capability unconfigured).
func New(nc *nats.Conn, h host.Host, cfg Config, log *zap.Logger) *Resolver {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaultReadyTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Resolver{nc: nc, host: h, cfg: cfg, log: log}
}

// datesRequest is the wire request to the external process.
type datesRequest struct {
	Action string   `json:"action"`
	TabIDs []string `json:"tabIds"`
}

// datesResponse is the expected reply: either a data array or an
// error string. Anything else is malformed.
type datesResponse struct {
	Data  []model.DateAttribute `json:"data"`
	Error string                `json:"error"`
}

// Resolve returns an attribute index covering every tab of sel. The
// error classifies what degraded the result, or is nil when the full
// round trip succeeded.
func (r *Resolver) Resolve(ctx context.Context, sel model.Selection) (model.AttributeIndex, error) {
	idx := model.NewAttributeIndex(sel)
	if len(sel) == 0 {
		return idx, nil
	}

	r.awaitPending(ctx, sel)

	if r.nc == nil {
		r.log.Info("date endpoint not configured, sorting with absent dates")
		return idx, ErrEndpointUnconfigured
	}

	attrs, err := r.fetch(ctx, sel.IDs())
	if err != nil {
		r.log.Warn("date resolution degraded", zap.Error(err), zap.Int("tabs", len(sel)))
		return idx, err
	}
	idx.Overlay(attrs)
	return idx, nil
}

// awaitPending reloads every tab still loading and joins all the
// ready-or-timeout races. No tab's attribute is fetched before its
// race settles.
func (r *Resolver) awaitPending(ctx context.Context, sel model.Selection) {
	var pending []model.Tab
	for _, t := range sel {
		if t.ReadyState == model.ReadyStatePending {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return
	}

	outcomes := make([]WaitOutcome, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	for i, tab := range pending {
		i, tab := i, tab
		g.Go(func() error {
			outcomes[i] = r.awaitReady(gctx, tab)
			return nil
		})
	}
	_ = g.Wait() // waits never error; outcomes carry the result

	timedOut := 0
	for _, o := range outcomes {
		if o == WaitTimedOut {
			timedOut++
		}
	}
	r.log.Debug("pending waits settled",
		zap.Int("pending", len(pending)), zap.Int("timed_out", timedOut))
}

// awaitReady races the tab's became-ready notification against the
// configured timeout. The waiter registers before the reload request
// so a fast tab cannot slip between the two. On timeout the waiter is
// unregistered; the reload itself keeps running on the host's side.
func (r *Resolver) awaitReady(ctx context.Context, tab model.Tab) WaitOutcome {
	ready, cancel := r.host.ReadyWait(tab.ID)
	defer cancel()

	if err := r.host.Reload(ctx, tab.ID); err != nil {
		// The tab may still become ready on its own; the timeout
		// bounds the wait either way.
		r.log.Warn("reload request failed", zap.String("tab", tab.ID), zap.Error(err))
	}

	timer := time.NewTimer(r.cfg.ReadyTimeout)
	defer timer.Stop()
	select {
	case <-ready:
		return WaitReloaded
	case <-timer.C:
		return WaitTimedOut
	case <-ctx.Done():
		return WaitTimedOut
	}
}

// fetch issues the batched get-dates request and decodes the reply.
func (r *Resolver) fetch(ctx context.Context, ids []string) ([]model.DateAttribute, error) {
	subject := r.cfg.Subject
	if subject == "" {
		ident, err := r.host.Ident(ctx)
		if err != nil {
			r.log.Warn("host identity unavailable, using chromium family", zap.Error(err))
		}
		subject = SubjectForIdent(ident)
	}

	payload, err := json.Marshal(datesRequest{Action: "get-dates", TabIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrMalformedResponse, err)
	}

	reqCtx, cancelReq := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancelReq()
	msg, err := r.nc.RequestWithContext(reqCtx, subject, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransport, subject, err)
	}
	return decodeResponse(msg.Data)
}

// decodeResponse is the single decode step for the external reply.
// It yields the data array or one tagged failure; response shapes are
// not special-cased beyond this.
func decodeResponse(data []byte) ([]model.DateAttribute, error) {
	var resp datesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: remote: %s", ErrTransport, resp.Error)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: missing data array", ErrMalformedResponse)
	}
	return resp.Data, nil
}
