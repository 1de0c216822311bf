// Package notify publishes assistant events (maintenance scheduled, topology
// replaced) to configured backends.
package notify

import (
	"context"
	"time"
)

// Event types published by the assistant.
const (
	EventMaintenanceScheduled = "maintenance_scheduled"
	EventTopologyReplaced     = "topology_replaced"
)

// Event is one notification sent to the backends.
type Event struct {
	Source    string            `json:"source"`
	EventType string            `json:"event_type"`
	Session   string            `json:"session"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Notifier defines the interface for event backends.
type Notifier interface {
	// Name returns the backend identifier.
	Name() string

	// Send dispatches an event to the backend.
	Send(ctx context.Context, event Event) error
}

// Multi sends events to multiple backends.
type Multi struct {
	notifiers []Notifier
}

// NewMulti creates a notifier that dispatches to all backends.
func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Name() string {
	return "multi"
}

// Send dispatches the event to all configured backends, returning the last
// error encountered.
func (m *Multi) Send(ctx context.Context, event Event) error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Send(ctx, event); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
