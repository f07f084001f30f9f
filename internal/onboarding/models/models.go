// Package models holds the applicant session aggregate and its value types.
package models

import (
	"slices"
	"time"

	id "residency/pkg/domain"
)

// Step is a workflow position. Only the workflow engine changes it.
type Step string

const (
	StepRegistered       Step = "registered"
	StepIdentityPending  Step = "identity_pending"
	StepIdentityVerified Step = "identity_verified"
	StepPlanSelected     Step = "plan_selected"
	StepEntityForming    Step = "entity_forming"
	StepEntityActive     Step = "entity_active"

	// Side terminals
	StepIdentityRejected Step = "identity_rejected"
	StepEntityFailed     Step = "entity_failed"
	StepAbandoned        Step = "abandoned"
)

// AllSteps lists every step, main line first.
var AllSteps = []Step{
	StepRegistered, StepIdentityPending, StepIdentityVerified, StepPlanSelected,
	StepEntityForming, StepEntityActive, StepIdentityRejected, StepEntityFailed, StepAbandoned,
}

// IsTerminal reports whether a session in this step is read-only.
func (s Step) IsTerminal() bool {
	switch s {
	case StepEntityActive, StepIdentityRejected, StepEntityFailed, StepAbandoned:
		return true
	default:
		return false
	}
}

// TerminalSteps returns the read-only steps as strings, for store queries.
func TerminalSteps() []string {
	return []string{string(StepEntityActive), string(StepIdentityRejected), string(StepEntityFailed), string(StepAbandoned)}
}

// EventType names a workflow event.
type EventType string

const (
	EventStartIdentity          EventType = "start_identity"
	EventAmendProfile           EventType = "amend_profile"
	EventDocumentSubmitted      EventType = "document_submitted"
	EventDocumentRecorded       EventType = "document_recorded"
	EventIdentityVerified       EventType = "identity_verified"
	EventIdentityRejected       EventType = "identity_rejected"
	EventBypassIdentity         EventType = "bypass_identity"
	EventSelectPlan             EventType = "select_plan"
	EventStartIncorporation     EventType = "start_incorporation"
	EventIncorporationSucceeded EventType = "incorporation_succeeded"
	EventIncorporationFailed    EventType = "incorporation_failed"
	EventAbandon                EventType = "abandon"
)

// AllEventTypes lists every event type the engine knows.
var AllEventTypes = []EventType{
	EventStartIdentity, EventAmendProfile, EventDocumentSubmitted, EventDocumentRecorded,
	EventIdentityVerified, EventIdentityRejected, EventBypassIdentity, EventSelectPlan,
	EventStartIncorporation, EventIncorporationSucceeded, EventIncorporationFailed, EventAbandon,
}

// KYCLevel is the applicant's verification tier. It never decreases.
type KYCLevel string

const (
	KYCBasic      KYCLevel = "basic"
	KYCEnhanced   KYCLevel = "enhanced"
	KYCPremium    KYCLevel = "premium"
	KYCEnterprise KYCLevel = "enterprise"
)

// Rank orders levels; unknown levels rank below basic.
func (l KYCLevel) Rank() int {
	switch l {
	case KYCBasic:
		return 1
	case KYCEnhanced:
		return 2
	case KYCPremium:
		return 3
	case KYCEnterprise:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether l is the same as or above other.
func (l KYCLevel) AtLeast(other KYCLevel) bool {
	return l.Rank() >= other.Rank()
}

// MaxKYC returns the higher of two levels.
func MaxKYC(a, b KYCLevel) KYCLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ParseKYCLevel validates a configured level name.
func ParseKYCLevel(s string) (KYCLevel, bool) {
	l := KYCLevel(s)
	return l, l.Rank() > 0
}

// Profile holds the applicant's identity fields. Email is stored lowercased.
type Profile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Country  string `json:"country"`
}

// StepTransition is one committed step change.
type StepTransition struct {
	From  Step      `json:"from"`
	To    Step      `json:"to"`
	Event EventType `json:"event"`
	At    time.Time `json:"at"`
}

// ApplicantSession is one applicant's onboarding attempt.
type ApplicantSession struct {
	ID          id.SessionID `json:"id"`
	CurrentStep Step         `json:"current_step"`
	Profile     Profile      `json:"profile"`
	KYCLevel    KYCLevel     `json:"kyc_level"`

	// Documents holds the active submission per kind, in first-submitted order.
	Documents []DocumentSubmission `json:"documents"`
	// DocumentHistory keeps superseded attempts for audit. They are never evaluated.
	DocumentHistory []DocumentSubmission `json:"document_history,omitempty"`

	SelectedPlan id.PlanID     `json:"selected_plan,omitempty"`
	Entities     []EntityRecord `json:"entities"`
	// IncorporationTokens maps a client idempotency token to the entity it created.
	IncorporationTokens map[string]id.EntityID `json:"incorporation_tokens,omitempty"`

	History []StepTransition `json:"history"`

	// Version increments on every committed write; the store compares it on CAS.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewApplicantSession creates a session in the registered step.
func NewApplicantSession(sessionID id.SessionID, profile Profile, now time.Time) *ApplicantSession {
	return &ApplicantSession{
		ID:                  sessionID,
		CurrentStep:         StepRegistered,
		Profile:             profile,
		KYCLevel:            KYCBasic,
		Documents:           []DocumentSubmission{},
		Entities:            []EntityRecord{},
		IncorporationTokens: map[string]id.EntityID{},
		History:             []StepTransition{},
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// IsTerminal reports whether the session is read-only.
func (s *ApplicantSession) IsTerminal() bool {
	return s.CurrentStep.IsTerminal()
}

// Document returns the active submission for kind.
func (s *ApplicantSession) Document(kind DocumentKind) (*DocumentSubmission, bool) {
	for i := range s.Documents {
		if s.Documents[i].Kind == kind {
			return &s.Documents[i], true
		}
	}
	return nil, false
}

// ReplaceDocument makes sub the active submission for its kind. A previous
// active submission moves to DocumentHistory.
func (s *ApplicantSession) ReplaceDocument(sub DocumentSubmission) {
	for i := range s.Documents {
		if s.Documents[i].Kind == sub.Kind {
			s.DocumentHistory = append(s.DocumentHistory, s.Documents[i])
			s.Documents[i] = sub
			return
		}
	}
	s.Documents = append(s.Documents, sub)
}

// Entity returns the entity with the given ID.
func (s *ApplicantSession) Entity(entityID id.EntityID) (*EntityRecord, bool) {
	for i := range s.Entities {
		if s.Entities[i].ID == entityID {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

// EntityByToken resolves an incorporation idempotency token.
func (s *ApplicantSession) EntityByToken(token string) (*EntityRecord, bool) {
	entityID, ok := s.IncorporationTokens[token]
	if !ok {
		return nil, false
	}
	return s.Entity(entityID)
}

// HasActiveEntity reports whether any entity finished incorporation.
func (s *ApplicantSession) HasActiveEntity() bool {
	for _, e := range s.Entities {
		if e.Status == EntityActive {
			return true
		}
	}
	return false
}

// Reached reports whether the history contains a transition into step.
func (s *ApplicantSession) Reached(step Step) bool {
	for _, t := range s.History {
		if t.To == step {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Stores hand out clones so callers never share state.
func (s *ApplicantSession) Clone() *ApplicantSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Documents = make([]DocumentSubmission, len(s.Documents))
	for i, d := range s.Documents {
		c.Documents[i] = d.clone()
	}
	if s.DocumentHistory != nil {
		c.DocumentHistory = make([]DocumentSubmission, len(s.DocumentHistory))
		for i, d := range s.DocumentHistory {
			c.DocumentHistory[i] = d.clone()
		}
	}
	c.Entities = slices.Clone(s.Entities)
	if c.Entities == nil {
		c.Entities = []EntityRecord{}
	}
	c.History = slices.Clone(s.History)
	if c.History == nil {
		c.History = []StepTransition{}
	}
	c.IncorporationTokens = make(map[string]id.EntityID, len(s.IncorporationTokens))
	for k, v := range s.IncorporationTokens {
		c.IncorporationTokens[k] = v
	}
	return &c
}
