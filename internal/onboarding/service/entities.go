package service

import (
	"context"
	"errors"
	"fmt"

	"residency/internal/onboarding/models"
	"residency/internal/onboarding/providers"
	"residency/internal/onboarding/verification"
	"residency/internal/onboarding/workflow"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
	pstrings "residency/pkg/platform/strings"
	pvalidation "residency/pkg/platform/validation"
)

// NameUnavailableError reports a taken entity name with suggested alternatives.
// It unwraps to a VerificationRejected domain error.
type NameUnavailableError struct {
	Candidate    string
	Alternatives []string
}

func (e *NameUnavailableError) Error() string {
	return fmt.Sprintf("entity name %q is not available", e.Candidate)
}

func (e *NameUnavailableError) Unwrap() error {
	return dErrors.New(dErrors.CodeVerificationRejected, e.Error())
}

// EntityInput describes the entity to incorporate.
type EntityInput struct {
	Name      string
	LegalType models.LegalType
	// IdempotencyToken is chosen by the client; repeating it returns the original entity.
	IdempotencyToken string
}

func (in *EntityInput) validate() error {
	in.Name = pstrings.CollapseSpaces(in.Name)
	if in.IdempotencyToken == "" {
		return dErrors.New(dErrors.CodeValidation, "idempotency token is required")
	}
	if err := pvalidation.CheckStringLength("idempotency token", in.IdempotencyToken, pvalidation.MaxIdempotencyKeyLength); err != nil {
		return err
	}
	if err := validateEntityName(in.Name); err != nil {
		return err
	}
	if !in.LegalType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown legal type %q", in.LegalType))
	}
	return nil
}

func validateEntityName(name string) error {
	if pstrings.NameKey(name) == "" {
		return dErrors.New(dErrors.CodeValidation, "entity name is required")
	}
	return pvalidation.CheckStringLength("entity name", name, pvalidation.MaxEntityNameLength)
}

// CheckEntityName asks whether a name can be incorporated. No session is touched.
func (s *Service) CheckEntityName(ctx context.Context, candidate string) (verification.NameAvailability, error) {
	candidate = pstrings.CollapseSpaces(candidate)
	if err := validateEntityName(candidate); err != nil {
		return verification.NameAvailability{}, err
	}
	return s.verifier.CheckNameAvailability(ctx, candidate)
}

// SelectPlan records the applicant's plan. Legal only from identity_verified.
func (s *Service) SelectPlan(ctx context.Context, sessionID id.SessionID, planID id.PlanID) (*models.ApplicantSession, error) {
	return s.mutate(ctx, "select_plan", sessionID, func(m *mutation) error {
		return m.fire(workflow.Event{Type: models.EventSelectPlan, Plan: planID})
	})
}

// tokenTaken carries the entity a concurrent request already created for the token.
type tokenTaken struct {
	entity models.EntityRecord
}

func (t *tokenTaken) Error() string { return "idempotency token already used" }

// IncorporateEntity files the applicant's entity with the registrar.
//
// The name is re-checked right before filing. A repeated idempotency token
// returns the outcome of the first request: the active entity, or the failed
// entity with its recorded error. An entity still forming under the token (the
// first request was interrupted) is filed again; the registrar is idempotent
// per token. Reusing a token for a different name or legal type is a Conflict.
// Any registrar error moves the session to entity_failed and is returned
// alongside the failed record.
func (s *Service) IncorporateEntity(ctx context.Context, sessionID id.SessionID, in EntityInput) (*models.EntityRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if existing, ok := session.EntityByToken(in.IdempotencyToken); ok {
		return s.replay(ctx, sessionID, *existing, in)
	}
	if _, err := s.engine.Advance(session, workflow.Event{Type: models.EventStartIncorporation}); err != nil {
		return nil, err
	}

	availability, err := s.verifier.CheckNameFresh(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, &NameUnavailableError{Candidate: in.Name, Alternatives: availability.Alternatives}
	}

	entity, err := s.startIncorporation(ctx, sessionID, in)
	if err != nil {
		var taken *tokenTaken
		if errors.As(err, &taken) {
			return s.replay(ctx, sessionID, taken.entity, in)
		}
		return nil, err
	}
	return s.fileIncorporation(ctx, sessionID, *entity)
}

// ResumeIncorporation files the entity a session left forming again, so an
// interrupted incorporation settles as active or failed.
func (s *Service) ResumeIncorporation(ctx context.Context, sessionID id.SessionID) (*models.EntityRecord, error) {
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if session.CurrentStep != models.StepEntityForming {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "no incorporation in progress in step "+string(session.CurrentStep))
	}
	for i := len(session.Entities) - 1; i >= 0; i-- {
		if session.Entities[i].Status == models.EntityForming {
			s.logger.InfoContext(ctx, "resuming interrupted incorporation",
				"session_id", sessionID.String(),
				"entity_id", session.Entities[i].ID.String(),
			)
			return s.fileIncorporation(ctx, sessionID, session.Entities[i])
		}
	}
	return nil, dErrors.New(dErrors.CodeInternal, "session is forming without a forming entity")
}

// fileIncorporation calls the registrar for a forming entity and settles it.
// The outcome is persisted even if the caller has gone away.
func (s *Service) fileIncorporation(ctx context.Context, sessionID id.SessionID, entity models.EntityRecord) (*models.EntityRecord, error) {
	ctx = context.WithoutCancel(ctx)
	result, filingErr := s.verifier.Incorporate(ctx, providers.IncorporationRequest{
		Name:      entity.Name,
		LegalType: entity.LegalType,
		Token:     entity.IdempotencyToken,
	}, s.cfg.IncorporationTimeout)

	final, settled, err := s.finishIncorporation(ctx, sessionID, entity.ID, result, filingErr)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
			return nil, err
		}
		// A concurrent request settled the entity and closed the session first.
		current, loadErr := s.store.Load(ctx, sessionID)
		if loadErr != nil {
			return nil, err
		}
		recorded, ok := current.Entity(entity.ID)
		if !ok || recorded.Status == models.EntityForming {
			return nil, err
		}
		return outcome(*recorded)
	}
	if !settled {
		return outcome(*final)
	}

	if s.metrics != nil {
		s.metrics.RecordIncorporation(string(final.Status))
	}
	if final.Status == models.EntityFailed {
		s.logger.WarnContext(ctx, "incorporation failed",
			"session_id", sessionID.String(),
			"entity_id", final.ID.String(),
			"error", filingErr,
		)
		if filingErr != nil {
			return final, filingErr
		}
		return outcome(*final)
	}
	s.logger.InfoContext(ctx, "entity incorporated",
		"session_id", sessionID.String(),
		"entity_id", final.ID.String(),
	)
	return final, nil
}

func (s *Service) startIncorporation(ctx context.Context, sessionID id.SessionID, in EntityInput) (*models.EntityRecord, error) {
	var entity models.EntityRecord
	_, err := s.mutate(ctx, "start_incorporation", sessionID, func(m *mutation) error {
		if existing, ok := m.session.EntityByToken(in.IdempotencyToken); ok {
			return &tokenTaken{entity: *existing}
		}
		if err := m.fire(workflow.Event{Type: models.EventStartIncorporation}); err != nil {
			return err
		}
		entity = models.EntityRecord{
			ID:               id.NewEntityID(),
			Name:             in.Name,
			LegalType:        in.LegalType,
			Status:           models.EntityForming,
			IdempotencyToken: in.IdempotencyToken,
			CreatedAt:        m.at,
			UpdatedAt:        m.at,
		}
		m.session.Entities = append(m.session.Entities, entity)
		if m.session.IncorporationTokens == nil {
			m.session.IncorporationTokens = map[string]id.EntityID{}
		}
		m.session.IncorporationTokens[in.IdempotencyToken] = entity.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// finishIncorporation merges the registrar's answer into the session. settled
// is false when the entity had already left forming, in which case the stored
// record is returned untouched.
func (s *Service) finishIncorporation(ctx context.Context, sessionID id.SessionID, entityID id.EntityID,
	result *providers.IncorporationResult, filingErr error,
) (*models.EntityRecord, bool, error) {
	var (
		final   models.EntityRecord
		settled bool
	)
	_, err := s.mutate(ctx, "finish_incorporation", sessionID, func(m *mutation) error {
		entity, ok := m.session.Entity(entityID)
		if !ok {
			return dErrors.New(dErrors.CodeInternal, "forming entity missing from session")
		}
		if entity.Status != models.EntityForming {
			final, settled = *entity, false
			return nil
		}
		settled = true
		if filingErr == nil && result != nil {
			entity.MarkActive(result.RegistrationNumber, m.at)
			final = *entity
			return m.fire(workflow.Event{Type: models.EventIncorporationSucceeded})
		}
		code, reason := dErrors.CodeProviderUnavailable, "registrar returned no result"
		if filingErr != nil {
			code, reason = dErrors.CodeOf(filingErr), filingErr.Error()
		}
		entity.MarkFailed(string(code), reason, m.at)
		final = *entity
		return m.fire(workflow.Event{Type: models.EventIncorporationFailed})
	})
	if err != nil {
		return nil, false, err
	}
	return &final, settled, nil
}

// replay answers a repeated idempotency token with the first request's outcome.
func (s *Service) replay(ctx context.Context, sessionID id.SessionID, existing models.EntityRecord, in EntityInput) (*models.EntityRecord, error) {
	if pstrings.NameKey(existing.Name) != pstrings.NameKey(in.Name) || existing.LegalType != in.LegalType {
		return nil, dErrors.New(dErrors.CodeConflict, "idempotency token was already used for a different entity")
	}
	if existing.Status == models.EntityForming {
		return s.fileIncorporation(ctx, sessionID, existing)
	}
	return outcome(existing)
}

// outcome turns a settled entity back into the result its filing produced.
func outcome(entity models.EntityRecord) (*models.EntityRecord, error) {
	if entity.Status != models.EntityFailed {
		return &entity, nil
	}
	code := dErrors.Code(entity.FailureCode)
	if code == "" {
		code = dErrors.CodeVerificationRejected
	}
	return &entity, dErrors.New(code, entity.FailureReason)
}
