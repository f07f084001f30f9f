package workflow

import (
	"fmt"

	"residency/internal/onboarding/models"
	dErrors "residency/pkg/domain-errors"
)

type guard func(e *Engine, s *models.ApplicantSession, ev Event) error

// edge targets a step; an empty target is a self-loop.
type edge struct {
	to      models.Step
	guard   guard
	effects []Effect
}

// transitionTable lists every legal (step, event) pair. Terminal steps have
// no edges, so every event from them is an invalid transition.
var transitionTable = map[models.Step]map[models.EventType]edge{
	models.StepRegistered: {
		models.EventStartIdentity: {to: models.StepIdentityPending, effects: []Effect{EffectFreezeProfile}},
		models.EventAmendProfile:  {},
		models.EventBypassIdentity: {
			to:      models.StepIdentityVerified,
			guard:   requireDemoBypass,
			effects: []Effect{EffectFreezeProfile, EffectRecomputeKYC},
		},
		models.EventAbandon: {to: models.StepAbandoned},
	},
	models.StepIdentityPending: {
		models.EventDocumentSubmitted: {guard: requireKnownKind},
		models.EventDocumentRecorded:  {guard: requireKnownKind, effects: []Effect{EffectRecomputeKYC}},
		models.EventIdentityVerified: {
			to:      models.StepIdentityVerified,
			guard:   requireIdentityComplete,
			effects: []Effect{EffectRecomputeKYC},
		},
		models.EventIdentityRejected: {to: models.StepIdentityRejected, guard: requireIdentityExhausted},
		models.EventBypassIdentity: {
			to:      models.StepIdentityVerified,
			guard:   requireDemoBypass,
			effects: []Effect{EffectRecomputeKYC},
		},
		models.EventAbandon: {to: models.StepAbandoned},
	},
	models.StepIdentityVerified: {
		models.EventDocumentSubmitted: {guard: requireOptionalKind},
		models.EventDocumentRecorded:  {guard: requireOptionalKind, effects: []Effect{EffectRecomputeKYC}},
		models.EventSelectPlan: {
			to:      models.StepPlanSelected,
			guard:   requirePlanEligible,
			effects: []Effect{EffectSelectPlan},
		},
		models.EventAbandon: {to: models.StepAbandoned},
	},
	models.StepPlanSelected: {
		models.EventDocumentSubmitted: {guard: requireOptionalKind},
		models.EventDocumentRecorded:  {guard: requireOptionalKind, effects: []Effect{EffectRecomputeKYC}},
		models.EventStartIncorporation: {
			to:      models.StepEntityForming,
			guard:   requirePlanSelected,
			effects: []Effect{EffectFreezePlan},
		},
		models.EventAbandon: {to: models.StepAbandoned},
	},
	models.StepEntityForming: {
		models.EventIncorporationSucceeded: {
			to:      models.StepEntityActive,
			guard:   requirePlanSelected,
			effects: []Effect{EffectRecomputeKYC},
		},
		models.EventIncorporationFailed: {to: models.StepEntityFailed},
	},
	models.StepEntityActive:     {},
	models.StepIdentityRejected: {},
	models.StepEntityFailed:     {},
	models.StepAbandoned:        {},
}

func requireDemoBypass(e *Engine, s *models.ApplicantSession, ev Event) error {
	if !e.demoBypass {
		return invalidTransition(s.CurrentStep, ev.Type)
	}
	return nil
}

func requireKnownKind(_ *Engine, _ *models.ApplicantSession, ev Event) error {
	if !ev.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown document kind %q", ev.Kind))
	}
	return nil
}

// requireOptionalKind locks identity documents once identity is verified.
func requireOptionalKind(e *Engine, s *models.ApplicantSession, ev Event) error {
	if err := requireKnownKind(e, s, ev); err != nil {
		return err
	}
	if e.IsRequired(ev.Kind) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("identity documents are locked in %s; %s cannot be resubmitted", s.CurrentStep, ev.Kind))
	}
	return nil
}

func requireIdentityComplete(e *Engine, s *models.ApplicantSession, _ Event) error {
	for _, kind := range e.required {
		doc, ok := s.Document(kind)
		if !ok || !doc.IsVerified() {
			return dErrors.New(dErrors.CodeGateNotSatisfied, fmt.Sprintf("%s is not verified", kind))
		}
	}
	return nil
}

func requireIdentityExhausted(e *Engine, s *models.ApplicantSession, _ Event) error {
	if !e.IdentityExhausted(s) {
		return dErrors.New(dErrors.CodeGateNotSatisfied,
			fmt.Sprintf("no required document reached %d consecutive rejections", e.maxRejections))
	}
	return nil
}

func requirePlanEligible(e *Engine, s *models.ApplicantSession, ev Event) error {
	plan, ok := e.catalog.Get(ev.Plan)
	if !ok {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown plan %q", ev.Plan))
	}
	if e.demoBypass && bypassed(s) {
		return nil
	}
	if !s.KYCLevel.AtLeast(plan.MinKYCLevel) {
		return dErrors.New(dErrors.CodeGateNotSatisfied,
			fmt.Sprintf("plan %s requires kyc level %s, session has %s", plan.ID, plan.MinKYCLevel, s.KYCLevel))
	}
	return nil
}

func requirePlanSelected(_ *Engine, s *models.ApplicantSession, _ Event) error {
	if s.SelectedPlan == "" || !s.Reached(models.StepPlanSelected) {
		return dErrors.New(dErrors.CodeGateNotSatisfied, "no plan has been selected")
	}
	return nil
}
