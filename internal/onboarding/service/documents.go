package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"residency/internal/onboarding/models"
	"residency/internal/onboarding/providers"
	"residency/internal/onboarding/workflow"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
	pvalidation "residency/pkg/platform/validation"
)

// DocumentInput is one document to verify.
type DocumentInput struct {
	Kind    models.DocumentKind
	Payload []byte
}

// DocumentOutcome is the per-kind result of SubmitDocuments. Err carries the
// same typed error SubmitDocument would have returned.
type DocumentOutcome struct {
	Kind       models.DocumentKind
	Submission *models.DocumentSubmission
	Err        error
}

func (in DocumentInput) validate() error {
	if !in.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown document kind %q", in.Kind))
	}
	if len(in.Payload) == 0 {
		return dErrors.New(dErrors.CodeValidation, "payload is required")
	}
	if len(in.Payload) > pvalidation.MaxDocumentPayloadBytes {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("payload exceeds %d bytes", pvalidation.MaxDocumentPayloadBytes))
	}
	return nil
}

// SubmitDocument verifies one document and records the outcome on the session.
//
// The first submission moves a registered session to identity_pending. Once
// every required kind is verified the session advances to identity_verified;
// once a required kind is exhausted by rejections it ends in identity_rejected.
// Timeouts and provider outages are retried up to the attempt budget, and every
// retry is a new attempt with the failed one kept in the document history.
// A rejection or final timeout returns the recorded submission together with
// the typed error.
func (s *Service) SubmitDocument(ctx context.Context, sessionID id.SessionID, kind models.DocumentKind, payload []byte) (*models.DocumentSubmission, error) {
	in := DocumentInput{Kind: kind, Payload: payload}
	if err := in.validate(); err != nil {
		return nil, err
	}

	attempt, err := s.reserveDocument(ctx, sessionID, kind)
	if err != nil {
		return nil, err
	}

	result, attempt, verifyErr := s.verifyWithRetry(ctx, sessionID, kind, payload, attempt)

	// The outcome is persisted even if the caller has gone away.
	sub, err := s.recordDocument(context.WithoutCancel(ctx), sessionID, kind, attempt, result, verifyErr)
	if err != nil {
		return nil, err
	}
	return sub, verifyErr
}

// SubmitDocuments verifies independent kinds concurrently. One kind's failure
// never cancels the others; each outcome carries its own error.
func (s *Service) SubmitDocuments(ctx context.Context, sessionID id.SessionID, docs []DocumentInput) ([]DocumentOutcome, error) {
	if len(docs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}
	if err := pvalidation.CheckSliceCount("documents", len(docs), pvalidation.MaxBatchDocuments); err != nil {
		return nil, err
	}
	seen := make(map[models.DocumentKind]bool, len(docs))
	for _, d := range docs {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if seen[d.Kind] {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("document kind %q submitted twice", d.Kind))
		}
		seen[d.Kind] = true
	}

	outcomes := make([]DocumentOutcome, len(docs))
	var g errgroup.Group
	for i, d := range docs {
		g.Go(func() error {
			sub, err := s.SubmitDocument(ctx, sessionID, d.Kind, d.Payload)
			outcomes[i] = DocumentOutcome{Kind: d.Kind, Submission: sub, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

// reserveDocument admits a new attempt for kind and returns its attempt number.
func (s *Service) reserveDocument(ctx context.Context, sessionID id.SessionID, kind models.DocumentKind) (int, error) {
	var attempt int
	_, err := s.mutate(ctx, "reserve_document", sessionID, func(m *mutation) error {
		if m.session.CurrentStep == models.StepRegistered {
			if err := m.fire(workflow.Event{Type: models.EventStartIdentity}); err != nil {
				return err
			}
		}
		if err := m.fire(workflow.Event{Type: models.EventDocumentSubmitted, Kind: kind}); err != nil {
			return err
		}
		prev, _ := m.session.Document(kind)
		sub := models.NextAttempt(kind, prev, m.at)
		m.session.ReplaceDocument(sub)
		attempt = sub.Attempt
		return nil
	})
	return attempt, err
}

// verifyWithRetry calls the provider until it answers, rejects, or the attempt
// budget is spent. Only timeouts and outages are retried, each as a new attempt.
// It returns the attempt the final answer belongs to.
func (s *Service) verifyWithRetry(ctx context.Context, sessionID id.SessionID, kind models.DocumentKind, payload []byte, attempt int) (*providers.DocumentResult, int, error) {
	var (
		result *providers.DocumentResult
		err    error
	)
	for calls := 1; ; calls++ {
		result, err = s.verifier.VerifyDocument(ctx, kind, payload, s.cfg.VerificationTimeout)
		if err == nil || !retryableVerification(err) || calls >= s.cfg.MaxVerificationAttempts {
			break
		}
		s.logger.InfoContext(ctx, "document verification failed, retrying",
			"session_id", sessionID.String(),
			"kind", string(kind),
			"attempt", attempt,
			"error", err,
		)
		if waitErr := sleepCtx(ctx, backoff(s.cfg.RetryBaseDelay, calls)); waitErr != nil {
			break
		}
		next, retryErr := s.retryDocument(context.WithoutCancel(ctx), sessionID, kind, attempt, err)
		if retryErr != nil {
			s.logger.WarnContext(ctx, "document retry not recorded",
				"session_id", sessionID.String(),
				"kind", string(kind),
				"error", retryErr,
			)
			break
		}
		attempt = next
	}

	if s.metrics != nil {
		s.metrics.RecordVerification(string(kind), verificationOutcome(err))
	}
	return result, attempt, err
}

var errAttemptSuperseded = errors.New("document attempt superseded")

// retryDocument closes a failed attempt as pending, moves it to the history and
// opens the next attempt for kind.
func (s *Service) retryDocument(ctx context.Context, sessionID id.SessionID, kind models.DocumentKind, attempt int, verifyErr error) (int, error) {
	var next int
	_, err := s.mutate(ctx, "retry_document", sessionID, func(m *mutation) error {
		current, ok := m.session.Document(kind)
		if !ok || current.Attempt != attempt || current.Status != models.DocumentProcessing {
			return errAttemptSuperseded
		}
		applyOutcome(current, nil, verifyErr, m.at)
		sub := models.NextAttempt(kind, current, m.at)
		m.session.ReplaceDocument(sub)
		next = sub.Attempt
		return nil
	})
	return next, err
}

// recordDocument merges a verification outcome into the session. If the
// attempt was superseded by a newer submission meanwhile, the outcome goes to
// the document history only.
func (s *Service) recordDocument(ctx context.Context, sessionID id.SessionID, kind models.DocumentKind, attempt int,
	result *providers.DocumentResult, verifyErr error,
) (*models.DocumentSubmission, error) {
	var recorded models.DocumentSubmission
	_, err := s.mutate(ctx, "record_document", sessionID, func(m *mutation) error {
		current, ok := m.session.Document(kind)
		if !ok || current.Attempt != attempt || current.Status != models.DocumentProcessing {
			stale := models.DocumentSubmission{Kind: kind, Attempt: attempt, Status: models.DocumentProcessing}
			applyOutcome(&stale, result, verifyErr, m.at)
			m.session.DocumentHistory = append(m.session.DocumentHistory, stale)
			recorded = stale
			return nil
		}

		applyOutcome(current, result, verifyErr, m.at)
		recorded = *current

		if _, err := m.engine.Advance(m.session, workflow.Event{Type: models.EventDocumentRecorded, Kind: kind}); err != nil {
			// The step moved on while the provider was working. The result is
			// kept on the document but no workflow event is recorded.
			s.logger.WarnContext(ctx, "document recorded outside its step",
				"session_id", sessionID.String(),
				"kind", string(kind),
				"step", string(m.session.CurrentStep),
			)
			return nil
		}
		if err := m.fire(workflow.Event{Type: models.EventDocumentRecorded, Kind: kind}); err != nil {
			return err
		}

		if m.session.CurrentStep != models.StepIdentityPending {
			return nil
		}
		switch {
		case m.engine.IdentityComplete(m.session):
			return m.fire(workflow.Event{Type: models.EventIdentityVerified})
		case m.engine.IdentityExhausted(m.session):
			return m.fire(workflow.Event{Type: models.EventIdentityRejected})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &recorded, nil
}

// applyOutcome sets the submission fields from a verification result.
// Timeouts and outages leave the document pending so it can be resubmitted.
func applyOutcome(sub *models.DocumentSubmission, result *providers.DocumentResult, verifyErr error, at time.Time) {
	checked := at
	sub.ProviderCalls++
	sub.CheckedAt = &checked

	if verifyErr == nil && result != nil {
		sub.Status = models.DocumentVerified
		sub.ExtractedData = result.ExtractedData
		sub.Score = result.Score
		sub.Reason = ""
		sub.ConsecutiveRejections = 0
		return
	}

	sub.ExtractedData = nil
	sub.Score = 0
	if verifyErr == nil {
		verifyErr = dErrors.New(dErrors.CodeProviderUnavailable, "provider returned no result")
	}
	sub.Reason = verifyErr.Error()
	if dErrors.HasCode(verifyErr, dErrors.CodeVerificationRejected) {
		sub.Status = models.DocumentRejected
		sub.ConsecutiveRejections++
		return
	}
	sub.Status = models.DocumentPending
}

func retryableVerification(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeVerificationTimeout) || dErrors.HasCode(err, dErrors.CodeProviderUnavailable)
}

func verificationOutcome(err error) string {
	switch {
	case err == nil:
		return "verified"
	case dErrors.HasCode(err, dErrors.CodeVerificationRejected):
		return "rejected"
	case dErrors.HasCode(err, dErrors.CodeVerificationTimeout):
		return "timeout"
	default:
		return "unavailable"
	}
}

// backoff doubles base for every call already spent.
func backoff(base time.Duration, calls int) time.Duration {
	if base <= 0 {
		return 0
	}
	return base << (calls - 1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
