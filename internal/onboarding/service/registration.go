package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"residency/internal/onboarding/models"
	"residency/internal/onboarding/workflow"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
	"residency/pkg/platform/privacy"
	"residency/pkg/platform/sentinel"
	pstrings "residency/pkg/platform/strings"
	"residency/pkg/requestcontext"
	"residency/pkg/validation"
)

// ProfileInput is the applicant-supplied profile.
type ProfileInput struct {
	FullName string `json:"full_name" validate:"required,notblank,max=200"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
	Country  string `json:"country" validate:"required,iso3166_1_alpha2"`
}

func (in ProfileInput) normalize() (models.Profile, error) {
	pstrings.TrimStrings(&in.FullName, &in.Email, &in.Phone, &in.Country)
	in.Email = strings.ToLower(in.Email)
	in.Country = strings.ToUpper(in.Country)
	if err := validation.Validate(in); err != nil {
		return models.Profile{}, err
	}
	return models.Profile{
		FullName: pstrings.CollapseSpaces(in.FullName),
		Email:    in.Email,
		Phone:    in.Phone,
		Country:  in.Country,
	}, nil
}

// Registration is the result of RegisterApplicant.
type Registration struct {
	SessionID   id.SessionID
	CurrentStep models.Step
	CreatedAt   time.Time
}

// RegisterApplicant opens a new onboarding session. An email may have only one
// non-terminal session at a time.
func (s *Service) RegisterApplicant(ctx context.Context, in ProfileInput) (*Registration, error) {
	profile, err := in.normalize()
	if err != nil {
		return nil, err
	}

	if _, err := s.store.FindActiveByEmail(ctx, profile.Email); err == nil {
		s.logger.InfoContext(ctx, "registration refused: email already onboarding",
			"email", privacy.MaskEmail(profile.Email),
		)
		return nil, dErrors.New(dErrors.CodeDuplicateEmail, "an active onboarding session already exists for this email")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, translateStoreErr(err)
	}

	session := models.NewApplicantSession(id.NewSessionID(), profile, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, session); err != nil {
		return nil, translateStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.IncrementSessionsStarted()
	}
	s.logger.InfoContext(ctx, "applicant registered",
		"session_id", session.ID.String(),
		"email_hash", privacy.HashIdentifier(profile.Email),
	)

	return &Registration{
		SessionID:   session.ID,
		CurrentStep: session.CurrentStep,
		CreatedAt:   session.CreatedAt,
	}, nil
}

// AmendProfile replaces the profile while the session is still registered.
func (s *Service) AmendProfile(ctx context.Context, sessionID id.SessionID, in ProfileInput) (*models.ApplicantSession, error) {
	profile, err := in.normalize()
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "amend_profile", sessionID, func(m *mutation) error {
		if err := m.fire(workflow.Event{Type: models.EventAmendProfile}); err != nil {
			return err
		}
		m.session.Profile = profile
		return nil
	})
}

// BypassIdentity marks identity verified without documents. The engine only
// allows it when demo bypass is enabled.
func (s *Service) BypassIdentity(ctx context.Context, sessionID id.SessionID) (*models.ApplicantSession, error) {
	session, err := s.mutate(ctx, "bypass_identity", sessionID, func(m *mutation) error {
		return m.fire(workflow.Event{Type: models.EventBypassIdentity})
	})
	if err != nil {
		return nil, err
	}
	s.logger.WarnContext(ctx, "identity verification bypassed", "session_id", sessionID.String())
	return session, nil
}

// AbandonSession closes a session on the applicant's request.
func (s *Service) AbandonSession(ctx context.Context, sessionID id.SessionID) (*models.ApplicantSession, error) {
	return s.mutate(ctx, "abandon", sessionID, func(m *mutation) error {
		return m.fire(workflow.Event{Type: models.EventAbandon})
	})
}

var errStillActive = errors.New("session active since cutoff")

// AbandonIfInactive abandons the session only if it has not been written since
// cutoff. It reports whether the session was abandoned.
func (s *Service) AbandonIfInactive(ctx context.Context, sessionID id.SessionID, cutoff time.Time) (bool, error) {
	_, err := s.mutate(ctx, "abandon_inactive", sessionID, func(m *mutation) error {
		if !m.session.UpdatedAt.Before(cutoff) {
			return errStillActive
		}
		return m.fire(workflow.Event{Type: models.EventAbandon})
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStillActive):
		return false, nil
	default:
		return false, err
	}
}

// ListInactive returns non-terminal sessions not written since cutoff, oldest first.
func (s *Service) ListInactive(ctx context.Context, cutoff time.Time, limit int) ([]*models.ApplicantSession, error) {
	sessions, err := s.store.ListInactive(ctx, cutoff, limit)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return sessions, nil
}
