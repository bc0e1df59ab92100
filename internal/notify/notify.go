// Package notify emits fire-and-forget events after successful mutations.
//
// Consumers are external; a failed or slow consumer must never fail the
// mutation that produced the event.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Event type strings emitted by the core.
const (
	ZoneCreate      = "dns.zone.create"
	ZoneUpdate      = "dns.zone.update"
	ZoneDelete      = "dns.zone.delete"
	RecordSetCreate = "dns.recordset.create"
	RecordSetUpdate = "dns.recordset.update"
	RecordSetDelete = "dns.recordset.delete"
	RecordCreate    = "dns.record.create"
	RecordUpdate    = "dns.record.update"
	RecordDelete    = "dns.record.delete"
	TsigKeyCreate   = "dns.tsigkey.create"
	TsigKeyUpdate   = "dns.tsigkey.update"
	TsigKeyDelete   = "dns.tsigkey.delete"
	BlacklistCreate = "dns.blacklist.create"
	BlacklistUpdate = "dns.blacklist.update"
	BlacklistDelete = "dns.blacklist.delete"
)

// Notifier receives one event per successful mutation.
type Notifier interface {
	Notify(ctx context.Context, eventType string, payload any)
}

// LogNotifier writes events to the structured log. Stands in for a real
// message bus; satisfies the fire-and-forget contract trivially.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, eventType string, payload any) {
	if n.Logger == nil {
		return
	}
	n.Logger.InfoContext(ctx, "notification", "event_type", eventType, "payload", payload)
}

// Recorder captures events for tests.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

type RecordedEvent struct {
	Type    string
	Payload any
}

func (r *Recorder) Notify(_ context.Context, eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Type: eventType, Payload: payload})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns just the event type strings, in emission order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
