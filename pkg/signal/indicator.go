package signal

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultBadgeSubject is where the browser-side endpoint listens for
// badge updates.
const DefaultBadgeSubject = "tabherd.badge"

// badgeEvent is the wire shape of one indicator update. Clear is a
// distinct event rather than an empty label so the endpoint can tell
// "blank badge" from "remove badge".
type badgeEvent struct {
	Label string `json:"label,omitempty"`
	Color string `json:"color,omitempty"`
	Clear bool   `json:"clear,omitempty"`
}

// NATSIndicator publishes badge updates for the browser extension to
// render.
type NATSIndicator struct {
	nc      *nats.Conn
	subject string
}

// NewNATSIndicator publishes on subject ("" = DefaultBadgeSubject).
func NewNATSIndicator(nc *nats.Conn, subject string) *NATSIndicator {
	if subject == "" {
		subject = DefaultBadgeSubject
	}
	return &NATSIndicator{nc: nc, subject: subject}
}

func (n *NATSIndicator) publish(ev badgeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.nc.Publish(n.subject, data)
}

func (n *NATSIndicator) Set(label, color string) error {
	return n.publish(badgeEvent{Label: label, Color: color})
}

func (n *NATSIndicator) Clear() error {
	return n.publish(badgeEvent{Clear: true})
}

// LogIndicator is the fallback when no messaging channel is
// configured: badge updates land in the operator log.
type LogIndicator struct {
	Log *zap.Logger
}

func (l LogIndicator) Set(label, color string) error {
	l.Log.Info("status", zap.String("badge", label), zap.String("color", color))
	return nil
}

func (l LogIndicator) Clear() error { return nil }
