// Package service is the registration orchestrator. It drives the workflow
// engine, calls the verification client and persists every change through
// compare-and-swap on the session store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"residency/internal/onboarding/events"
	"residency/internal/onboarding/metrics"
	"residency/internal/onboarding/models"
	"residency/internal/onboarding/providers"
	"residency/internal/onboarding/verification"
	"residency/internal/onboarding/workflow"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
	"residency/pkg/platform/sentinel"
	"residency/pkg/requestcontext"
)

// Store persists applicant sessions.
// Error Contract: Load returns sentinel.ErrNotFound for unknown ids, CompareAndSwap
// returns sentinel.ErrConflict on a version mismatch, and Create/CompareAndSwap
// return sentinel.ErrDuplicate when another active session holds the email.
type Store interface {
	Create(ctx context.Context, session *models.ApplicantSession) error
	Load(ctx context.Context, sessionID id.SessionID) (*models.ApplicantSession, error)
	CompareAndSwap(ctx context.Context, session *models.ApplicantSession, expectedVersion int64) error
	FindActiveByEmail(ctx context.Context, email string) (*models.ApplicantSession, error)
	ListInactive(ctx context.Context, cutoff time.Time, limit int) ([]*models.ApplicantSession, error)
}

// Verifier is the slice of the verification client the orchestrator needs.
type Verifier interface {
	VerifyDocument(ctx context.Context, kind models.DocumentKind, payload []byte, deadline time.Duration) (*providers.DocumentResult, error)
	CheckNameAvailability(ctx context.Context, candidate string) (verification.NameAvailability, error)
	CheckNameFresh(ctx context.Context, candidate string) (verification.NameAvailability, error)
	Incorporate(ctx context.Context, req providers.IncorporationRequest, deadline time.Duration) (*providers.IncorporationResult, error)
	Health(ctx context.Context) error
}

// Config carries the orchestrator's retry and deadline policy.
type Config struct {
	MaxVerificationAttempts int
	VerificationTimeout     time.Duration
	IncorporationTimeout    time.Duration
	RetryBaseDelay          time.Duration
	// MaxCASRetries bounds reload-and-merge rounds before VersionConflict surfaces.
	MaxCASRetries int
}

const (
	defaultMaxVerificationAttempts = 3
	defaultVerificationTimeout     = 5 * time.Second
	defaultIncorporationTimeout    = 10 * time.Second
	defaultMaxCASRetries           = 8
)

// Service orchestrates onboarding commands.
type Service struct {
	store     Store
	engine    *workflow.Engine
	verifier  Verifier
	catalog   *models.Catalog
	cfg       Config
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPublisher sets where committed transitions are announced.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(store Store, engine *workflow.Engine, verifier Verifier, catalog *models.Catalog, cfg Config, opts ...Option) *Service {
	if cfg.MaxVerificationAttempts <= 0 {
		cfg.MaxVerificationAttempts = defaultMaxVerificationAttempts
	}
	if cfg.VerificationTimeout <= 0 {
		cfg.VerificationTimeout = defaultVerificationTimeout
	}
	if cfg.IncorporationTimeout <= 0 {
		cfg.IncorporationTimeout = defaultIncorporationTimeout
	}
	if cfg.MaxCASRetries <= 0 {
		cfg.MaxCASRetries = defaultMaxCASRetries
	}
	svc := &Service{
		store:    store,
		engine:   engine,
		verifier: verifier,
		catalog:  catalog,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// mutation is the working copy handed to a mutate callback.
type mutation struct {
	session     *models.ApplicantSession
	engine      *workflow.Engine
	at          time.Time
	transitions []workflow.Transition
}

func (m *mutation) fire(ev workflow.Event) error {
	tr, err := m.engine.Fire(m.session, ev, m.at)
	if err != nil {
		return err
	}
	m.transitions = append(m.transitions, tr)
	return nil
}

// mutate loads the session, applies fn to a copy and commits it with CAS.
// On a version conflict the session is reloaded and fn runs again against the
// fresh state; fn must therefore only merge results it already holds.
func (s *Service) mutate(ctx context.Context, op string, sessionID id.SessionID, fn func(m *mutation) error) (*models.ApplicantSession, error) {
	for round := 0; round < s.cfg.MaxCASRetries; round++ {
		current, err := s.store.Load(ctx, sessionID)
		if err != nil {
			return nil, translateStoreErr(err)
		}
		if current.IsTerminal() {
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "session is closed in step "+string(current.CurrentStep))
		}

		expected := current.Version
		m := &mutation{session: current.Clone(), engine: s.engine, at: requestcontext.Now(ctx)}
		if err := fn(m); err != nil {
			return nil, err
		}

		err = s.store.CompareAndSwap(ctx, m.session, expected)
		if err == nil {
			s.afterCommit(ctx, m)
			return m.session, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, translateStoreErr(err)
		}
		if s.metrics != nil {
			s.metrics.RecordCASConflict(op)
		}
		s.logger.DebugContext(ctx, "session changed concurrently, merging again",
			"session_id", sessionID.String(),
			"operation", op,
			"round", round+1,
		)
	}
	return nil, dErrors.New(dErrors.CodeVersionConflict, "session is being modified concurrently")
}

// afterCommit records metrics and publishes one event per committed transition.
// Publishing is best-effort; the session is already durable.
func (s *Service) afterCommit(ctx context.Context, m *mutation) {
	for _, tr := range m.transitions {
		if s.metrics != nil {
			s.metrics.RecordTransition(string(tr.From), string(tr.To), string(tr.Event.Type))
			if tr.To == models.StepAbandoned && tr.Changed() {
				s.metrics.IncrementAbandoned()
			}
		}
		if s.publisher == nil || !tr.Has(workflow.EffectPublishEvent) {
			continue
		}
		attrs := map[string]string{}
		if tr.Event.Kind != "" {
			attrs["kind"] = string(tr.Event.Kind)
		}
		if tr.Event.Plan != "" {
			attrs["plan_id"] = tr.Event.Plan.String()
		}
		event := events.New(tr.Event.Type, tr.From, m.session, attrs)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish onboarding event",
				"session_id", m.session.ID.String(),
				"event_type", event.Type,
				"error", err,
			)
		}
	}
}

// GetSession returns the current session state.
func (s *Service) GetSession(ctx context.Context, sessionID id.SessionID) (*models.ApplicantSession, error) {
	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return session, nil
}

// ListPlans returns the plan catalog.
func (s *Service) ListPlans() []models.Plan {
	return s.catalog.List()
}

// Health reports whether the verification provider answers.
func (s *Service) Health(ctx context.Context) error {
	return s.verifier.Health(ctx)
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
	case errors.Is(err, sentinel.ErrDuplicate):
		return dErrors.Wrap(err, dErrors.CodeDuplicateEmail, "an active onboarding session already exists for this email")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeVersionConflict, "session is being modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "session store failure")
	}
}
