// Package events publishes onboarding domain events after a transition commits.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"residency/internal/onboarding/models"
	id "residency/pkg/domain"
)

// TypePrefix namespaces event types on the wire: "onboarding.select_plan".
const TypePrefix = "onboarding."

// Event describes one committed transition. It carries no PII.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       string            `json:"type"`
	SessionID  id.SessionID      `json:"session_id"`
	From       models.Step       `json:"from"`
	To         models.Step       `json:"to"`
	KYCLevel   models.KYCLevel   `json:"kyc_level"`
	Version    int64             `json:"version"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// New builds an event for a transition that has been applied to session.
func New(event models.EventType, from models.Step, session *models.ApplicantSession, attrs map[string]string) Event {
	return Event{
		ID:         uuid.New(),
		Type:       TypePrefix + string(event),
		SessionID:  session.ID,
		From:       from,
		To:         session.CurrentStep,
		KYCLevel:   session.KYCLevel,
		Version:    session.Version,
		OccurredAt: session.UpdatedAt,
		Attributes: attrs,
	}
}

// Publisher delivers events. Delivery is best-effort; callers log failures.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists published event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

var _ Publisher = (*Recorder)(nil)
