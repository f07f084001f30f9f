// Package abandon closes onboarding sessions that have gone quiet.
package abandon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"residency/internal/onboarding/models"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
)

// Sessions is the slice of the orchestrator the sweeper drives.
type Sessions interface {
	ListInactive(ctx context.Context, cutoff time.Time, limit int) ([]*models.ApplicantSession, error)
	AbandonIfInactive(ctx context.Context, sessionID id.SessionID, cutoff time.Time) (bool, error)
	ResumeIncorporation(ctx context.Context, sessionID id.SessionID) (*models.EntityRecord, error)
}

// Result summarizes one sweep.
type Result struct {
	Scanned   int
	Abandoned int
	// Recovered counts stalled incorporations that were filed again and settled.
	Recovered int
	Skipped   int
}

// Sweeper periodically abandons sessions idle for longer than the inactivity timeout.
type Sweeper struct {
	sessions   Sessions
	inactivity time.Duration
	interval   time.Duration
	batchSize  int
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures Sweeper.
type Option func(*Sweeper)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithBatchSize bounds how many sessions one sweep examines.
func WithBatchSize(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Sweeper. inactivity must be positive.
func New(sessions Sessions, inactivity time.Duration, opts ...Option) (*Sweeper, error) {
	if sessions == nil {
		return nil, fmt.Errorf("sessions is required")
	}
	if inactivity <= 0 {
		return nil, fmt.Errorf("inactivity timeout must be positive")
	}
	s := &Sweeper{
		sessions:   sessions,
		inactivity: inactivity,
		interval:   time.Hour,
		batchSize:  100,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Start sweeps periodically until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "abandonment sweep failed", "error", err)
			}
			if res.Abandoned > 0 || res.Recovered > 0 {
				s.logger.InfoContext(ctx, "swept inactive sessions",
					"abandoned", res.Abandoned,
					"recovered", res.Recovered,
					"skipped", res.Skipped,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep. Sessions stalled in entity_forming are not
// abandoned; their incorporation is filed again so they settle as active or
// failed. Per-session failures are joined and returned after the whole batch.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	cutoff := s.now().Add(-s.inactivity)
	var res Result

	candidates, err := s.sessions.ListInactive(ctx, cutoff, s.batchSize)
	if err != nil {
		return res, fmt.Errorf("list inactive sessions: %w", err)
	}

	var errs []error
	for _, session := range candidates {
		res.Scanned++
		if session.CurrentStep == models.StepEntityForming {
			entity, err := s.sessions.ResumeIncorporation(ctx, session.ID)
			switch {
			case entity != nil && entity.Status != models.EntityForming:
				// a registrar refusal still settles the session
				res.Recovered++
			case dErrors.HasCode(err, dErrors.CodeInvalidTransition):
				res.Skipped++
			case err != nil:
				errs = append(errs, fmt.Errorf("resume incorporation for session %s: %w", session.ID, err))
			default:
				res.Skipped++
			}
			continue
		}
		abandoned, err := s.sessions.AbandonIfInactive(ctx, session.ID, cutoff)
		if dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
			// moved to a step that cannot be abandoned since it was listed
			res.Skipped++
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("abandon session %s: %w", session.ID, err))
			continue
		}
		if abandoned {
			res.Abandoned++
		} else {
			res.Skipped++
		}
	}

	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}
