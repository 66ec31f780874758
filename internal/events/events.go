// Package events publishes domain events after a write has committed.
// Publishing is best effort and never fails or delays the write that produced the event.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TransactionCreated  Type = "transaction.created"
	TopUpTriggered      Type = "topup.triggered"
	CategorizerFallback Type = "categorizer.fallback"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	AccountID  string    `json:"account_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

func New(t Type, accountID string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		AccountID:  accountID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher { return &LogPublisher{log: log} }

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.log.Info("event", "id", e.ID, "type", e.Type, "account_id", e.AccountID, "payload", e.Payload)
	return nil
}

func (p *LogPublisher) Close() {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() {}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the given type, oldest first.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
