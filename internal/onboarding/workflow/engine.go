// Package workflow is the onboarding state machine. It is pure: every
// decision is a function of the session and the event, and nothing here
// performs I/O or retries.
package workflow

import (
	"fmt"
	"slices"
	"time"

	"residency/internal/onboarding/models"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
)

// Effect is a side effect the caller applies alongside a transition.
type Effect string

const (
	EffectFreezeProfile Effect = "freeze_profile"
	EffectSelectPlan    Effect = "select_plan"
	EffectFreezePlan    Effect = "freeze_plan"
	EffectRecomputeKYC  Effect = "recompute_kyc"
	EffectPublishEvent  Effect = "publish_event"
)

// Event is a workflow input. Kind is set for document events and Plan for select_plan.
type Event struct {
	Type models.EventType
	Kind models.DocumentKind
	Plan id.PlanID
}

// Transition is the engine's answer to a legal event.
type Transition struct {
	From    models.Step
	To      models.Step
	Event   Event
	Effects []Effect
}

// Changed reports whether the transition moves the session to a new step.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Has reports whether the transition carries effect.
func (t Transition) Has(effect Effect) bool {
	return slices.Contains(t.Effects, effect)
}

// Config is the policy the engine evaluates gates against.
type Config struct {
	// Requirements lists the document kinds each KYC level needs verified.
	Requirements map[models.KYCLevel][]models.DocumentKind
	Catalog      *models.Catalog
	// MaxDocumentRejections is how many consecutive rejections of a required kind end the session.
	MaxDocumentRejections int
	// DemoBypass enables the bypass_identity event. Never set in production.
	DemoBypass bool
}

// Engine evaluates events against the transition table.
type Engine struct {
	requirements  map[models.KYCLevel][]models.DocumentKind
	required      []models.DocumentKind
	catalog       *models.Catalog
	maxRejections int
	demoBypass    bool
}

// New builds an engine. The kinds required for identity verification are the
// enhanced level's requirements.
func New(cfg Config) *Engine {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = models.NewCatalog(nil)
	}
	maxRejections := cfg.MaxDocumentRejections
	if maxRejections <= 0 {
		maxRejections = 3
	}
	return &Engine{
		requirements:  cfg.Requirements,
		required:      slices.Clone(cfg.Requirements[models.KYCEnhanced]),
		catalog:       catalog,
		maxRejections: maxRejections,
		demoBypass:    cfg.DemoBypass,
	}
}

// RequiredKinds returns the kinds that gate identity verification.
func (e *Engine) RequiredKinds() []models.DocumentKind {
	return slices.Clone(e.required)
}

// IsRequired reports whether kind gates identity verification.
func (e *Engine) IsRequired(kind models.DocumentKind) bool {
	return slices.Contains(e.required, kind)
}

// DemoBypass reports whether identity verification can be skipped.
func (e *Engine) DemoBypass() bool {
	return e.demoBypass
}

// Advance decides whether ev is legal for the session and returns the
// resulting transition. The session is not modified.
func (e *Engine) Advance(s *models.ApplicantSession, ev Event) (Transition, error) {
	edges, ok := transitionTable[s.CurrentStep]
	if !ok {
		return Transition{}, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unknown step %q", s.CurrentStep))
	}
	ed, ok := edges[ev.Type]
	if !ok {
		return Transition{}, invalidTransition(s.CurrentStep, ev.Type)
	}
	if ed.guard != nil {
		if err := ed.guard(e, s, ev); err != nil {
			return Transition{}, err
		}
	}
	to := ed.to
	if to == "" {
		to = s.CurrentStep
	}
	effects := append(slices.Clone(ed.effects), EffectPublishEvent)
	return Transition{From: s.CurrentStep, To: to, Event: ev, Effects: effects}, nil
}

// Apply commits a transition to the session: it applies effects, moves the
// step, records history and bumps UpdatedAt. Version is left to the store.
func (e *Engine) Apply(s *models.ApplicantSession, tr Transition, at time.Time) {
	if tr.Has(EffectSelectPlan) {
		s.SelectedPlan = tr.Event.Plan
	}
	if tr.Changed() {
		s.History = append(s.History, models.StepTransition{
			From:  tr.From,
			To:    tr.To,
			Event: tr.Event.Type,
			At:    at,
		})
	}
	s.CurrentStep = tr.To
	if tr.Has(EffectRecomputeKYC) {
		s.KYCLevel = models.MaxKYC(s.KYCLevel, e.ComputeKYC(s))
	}
	s.UpdatedAt = at
}

// Fire is Advance followed by Apply.
func (e *Engine) Fire(s *models.ApplicantSession, ev Event, at time.Time) (Transition, error) {
	tr, err := e.Advance(s, ev)
	if err != nil {
		return Transition{}, err
	}
	e.Apply(s, tr, at)
	return tr, nil
}

// IdentityComplete reports whether every required kind is verified.
func (e *Engine) IdentityComplete(s *models.ApplicantSession) bool {
	return e.verified(s, e.required)
}

// IdentityExhausted reports whether some required kind hit the rejection limit.
func (e *Engine) IdentityExhausted(s *models.ApplicantSession) bool {
	for _, kind := range e.required {
		if doc, ok := s.Document(kind); ok && doc.Status == models.DocumentRejected && doc.ConsecutiveRejections >= e.maxRejections {
			return true
		}
	}
	return false
}

// ComputeKYC derives the level the session's evidence supports. Callers
// combine it with the stored level through models.MaxKYC.
func (e *Engine) ComputeKYC(s *models.ApplicantSession) models.KYCLevel {
	if len(e.required) == 0 || !e.IdentityComplete(s) {
		return models.KYCBasic
	}
	if premium, ok := e.requirements[models.KYCPremium]; !ok || !e.verified(s, premium) {
		return models.KYCEnhanced
	}
	if enterprise, ok := e.requirements[models.KYCEnterprise]; ok && !e.verified(s, enterprise) {
		return models.KYCPremium
	}
	if !s.HasActiveEntity() {
		return models.KYCPremium
	}
	return models.KYCEnterprise
}

func (e *Engine) verified(s *models.ApplicantSession, kinds []models.DocumentKind) bool {
	for _, kind := range kinds {
		doc, ok := s.Document(kind)
		if !ok || !doc.IsVerified() {
			return false
		}
	}
	return true
}

func bypassed(s *models.ApplicantSession) bool {
	for _, t := range s.History {
		if t.Event == models.EventBypassIdentity {
			return true
		}
	}
	return false
}

func invalidTransition(step models.Step, ev models.EventType) error {
	return dErrors.New(dErrors.CodeInvalidTransition, fmt.Sprintf("%s is not allowed from %s", ev, step))
}
