package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tabherd/tabherd/pkg/model"
)

// NATS bridges Host to a browser-side endpoint over NATS request/reply.
// Subjects, under a configurable prefix:
//
//	<prefix>.query       request {} -> {tabs:[...]} | {error}
//	<prefix>.move        request {id,index} -> {} | {error}
//	<prefix>.move_batch  request {ids,index} -> {failed:{id:reason}} | {error}
//	<prefix>.reload      publish {id}
//	<prefix>.ready.<id>  event published by the endpoint when a tab loads
//	<prefix>.ident       request {} -> {ident,batch}
type NATS struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
	log     *zap.Logger

	mu    sync.Mutex
	ident string
	batch bool
	shook bool
}

// NewNATS wraps an established connection. timeout bounds every
// request/reply round trip.
func NewNATS(nc *nats.Conn, prefix string, timeout time.Duration, log *zap.Logger) *NATS {
	if prefix == "" {
		prefix = "tabherd.host"
	}
	return &NATS{nc: nc, prefix: prefix, timeout: timeout, log: log}
}

type hostReply struct {
	Tabs   []model.Tab       `json:"tabs,omitempty"`
	Failed map[string]string `json:"failed,omitempty"`
	Ident  string            `json:"ident,omitempty"`
	Batch  bool              `json:"batch,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func (h *NATS) request(ctx context.Context, subject string, payload any) (*hostReply, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", subject, err)
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	msg, err := h.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", subject, err)
	}
	var reply hostReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("decode %s reply: %w", subject, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%s: %s", subject, reply.Error)
	}
	return &reply, nil
}

func (h *NATS) Query(ctx context.Context) ([]model.Tab, error) {
	reply, err := h.request(ctx, h.prefix+".query", struct{}{})
	if err != nil {
		return nil, err
	}
	return reply.Tabs, nil
}

func (h *NATS) Move(ctx context.Context, id string, index int) error {
	_, err := h.request(ctx, h.prefix+".move", map[string]any{"id": id, "index": index})
	return err
}

func (h *NATS) MoveBatch(ctx context.Context, ids []string, index int) (map[string]string, error) {
	reply, err := h.request(ctx, h.prefix+".move_batch", map[string]any{"ids": ids, "index": index})
	if err != nil {
		return nil, err
	}
	return reply.Failed, nil
}

// CanMoveBatch reports the capability advertised by the last identity
// handshake. False until a handshake succeeds.
func (h *NATS) CanMoveBatch() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shook && h.batch
}

// Reload is fire-and-forget: the browser side owns the reload, and a
// slow tab must not block the request pipeline here.
func (h *NATS) Reload(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(map[string]string{"id": id})
	if err != nil {
		return err
	}
	return h.nc.Publish(h.prefix+".reload", data)
}

func (h *NATS) ReadyWait(id string) (<-chan struct{}, func()) {
	ch := make(chan struct{})
	var once sync.Once
	sub, err := h.nc.Subscribe(h.prefix+".ready."+id, func(*nats.Msg) {
		once.Do(func() { close(ch) })
	})
	if err != nil {
		// A dead subscription can only time out; the resolver's
		// degraded path covers it.
		h.log.Warn("ready subscription failed", zap.String("tab", id), zap.Error(err))
		return ch, func() {}
	}
	return ch, func() { _ = sub.Unsubscribe() }
}

// Ident performs (and caches) the identity handshake. The batch-move
// capability rides along on the same reply.
func (h *NATS) Ident(ctx context.Context) (string, error) {
	h.mu.Lock()
	if h.shook {
		ident := h.ident
		h.mu.Unlock()
		return ident, nil
	}
	h.mu.Unlock()

	reply, err := h.request(ctx, h.prefix+".ident", struct{}{})
	if err != nil {
		return "", err
	}
	h.mu.Lock()
	h.ident = reply.Ident
	h.batch = reply.Batch
	h.shook = true
	h.mu.Unlock()
	return reply.Ident, nil
}
