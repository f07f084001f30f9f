// Package handler exposes the onboarding orchestrator over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"residency/internal/onboarding/models"
	"residency/internal/onboarding/service"
	"residency/internal/onboarding/verification"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
	"residency/pkg/platform/httputil"
	"residency/pkg/platform/middleware/auth"
	"residency/pkg/platform/ratelimit"
	pvalidation "residency/pkg/platform/validation"
	"residency/pkg/requestcontext"
)

// Service is the orchestrator surface the handler calls.
type Service interface {
	RegisterApplicant(ctx context.Context, in service.ProfileInput) (*service.Registration, error)
	GetSession(ctx context.Context, sessionID id.SessionID) (*models.ApplicantSession, error)
	AmendProfile(ctx context.Context, sessionID id.SessionID, in service.ProfileInput) (*models.ApplicantSession, error)
	SubmitDocument(ctx context.Context, sessionID id.SessionID, kind models.DocumentKind, payload []byte) (*models.DocumentSubmission, error)
	SubmitDocuments(ctx context.Context, sessionID id.SessionID, docs []service.DocumentInput) ([]service.DocumentOutcome, error)
	CheckEntityName(ctx context.Context, candidate string) (verification.NameAvailability, error)
	SelectPlan(ctx context.Context, sessionID id.SessionID, planID id.PlanID) (*models.ApplicantSession, error)
	IncorporateEntity(ctx context.Context, sessionID id.SessionID, in service.EntityInput) (*models.EntityRecord, error)
	AbandonSession(ctx context.Context, sessionID id.SessionID) (*models.ApplicantSession, error)
	BypassIdentity(ctx context.Context, sessionID id.SessionID) (*models.ApplicantSession, error)
	ListPlans() []models.Plan
}

// Tokens issues and validates resume tokens.
type Tokens interface {
	auth.TokenValidator
	Issue(sessionID id.SessionID) (string, time.Time, error)
}

// Handler serves the /v1 onboarding routes.
type Handler struct {
	svc         Service
	tokens      Tokens
	logger      *slog.Logger
	nameLimiter *ratelimit.KeyedLimiter
	demoBypass  bool
}

type Option func(*Handler)

// WithNameCheckLimiter throttles POST /v1/entity-names/check per client.
func WithNameCheckLimiter(l *ratelimit.KeyedLimiter) Option {
	return func(h *Handler) { h.nameLimiter = l }
}

// WithDemoBypass exposes POST /v1/applicants/{id}/identity:bypass.
func WithDemoBypass(enabled bool) Option {
	return func(h *Handler) { h.demoBypass = enabled }
}

func New(svc Service, tokens Tokens, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{svc: svc, tokens: tokens, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the onboarding routes. Everything under /v1/applicants/{id}
// requires the resume token issued for that session.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/plans", h.HandleListPlans)
	r.Post("/v1/applicants", h.HandleRegister)

	if h.nameLimiter != nil {
		r.With(ratelimit.Middleware(h.nameLimiter, h.logger)).Post("/v1/entity-names/check", h.HandleCheckName)
	} else {
		r.Post("/v1/entity-names/check", h.HandleCheckName)
	}

	r.Route("/v1/applicants/{id}", func(r chi.Router) {
		r.Use(auth.RequireSession(h.tokens, h.logger))
		r.Use(h.requireOwnSession)
		r.Get("/", h.HandleGetSession)
		r.Put("/profile", h.HandleAmendProfile)
		r.Post("/documents", h.HandleSubmitDocument)
		r.Post("/documents:batch", h.HandleSubmitDocuments)
		r.Post("/plan", h.HandleSelectPlan)
		r.Post("/entities", h.HandleIncorporate)
		r.Post("/abandon", h.HandleAbandon)
		if h.demoBypass {
			r.Post("/identity:bypass", h.HandleBypassIdentity)
		}
	})
}

// requireOwnSession rejects tokens issued for a different session. A mismatch
// answers 404 so session ids cannot be probed.
func (h *Handler) requireOwnSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID, err := id.ParseSessionID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
			return
		}
		if requestcontext.SessionID(ctx) != sessionID {
			h.logger.WarnContext(ctx, "resume token used for another session",
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "session not found"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleListPlans implements GET /v1/plans.
func (h *Handler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, PlansResponse{Plans: h.svc.ListPlans()})
}

// HandleRegister implements POST /v1/applicants.
//
// Input: { "full_name": "...", "email": "...", "phone": "+372...", "country": "EE" }
// Output: { "session_id": "...", "resume_token": "...", "current_step": "registered" }
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}

	reg, err := h.svc.RegisterApplicant(ctx, req.toInput())
	if err != nil {
		h.fail(ctx, w, "register applicant failed", err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(reg.SessionID)
	if err != nil {
		h.fail(ctx, w, "issue resume token failed", dErrors.Wrap(err, dErrors.CodeInternal, "could not issue resume token"))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{
		SessionID:            reg.SessionID,
		ResumeToken:          token,
		ResumeTokenExpiresAt: expiresAt,
		CurrentStep:          reg.CurrentStep,
	})
}

// HandleGetSession implements GET /v1/applicants/{id}.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.svc.GetSession(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.fail(ctx, w, "get session failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleAmendProfile implements PUT /v1/applicants/{id}/profile.
func (h *Handler) HandleAmendProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}
	session, err := h.svc.AmendProfile(ctx, requestcontext.SessionID(ctx), req.toInput())
	if err != nil {
		h.fail(ctx, w, "amend profile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleSubmitDocument implements POST /v1/applicants/{id}/documents.
// A rejected or timed-out verification answers with the error status and
// still includes the recorded document.
func (h *Handler) HandleSubmitDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DocumentRequest](w, r, h.logger)
	if !ok {
		return
	}
	in, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sub, err := h.svc.SubmitDocument(ctx, requestcontext.SessionID(ctx), in.Kind, in.Payload)
	if err != nil && sub == nil {
		h.fail(ctx, w, "submit document failed", err)
		return
	}
	status, resp := http.StatusOK, DocumentResponse{Document: sub}
	if err != nil {
		var body httputil.ErrorResponse
		status, body = httputil.ErrorBody(err)
		resp.Error = &body
	}
	httputil.WriteJSON(w, status, resp)
}

// HandleSubmitDocuments implements POST /v1/applicants/{id}/documents:batch.
// Per-document failures are reported inside the 200 response.
func (h *Handler) HandleSubmitDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[BatchDocumentsRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := pvalidation.CheckSliceCount("documents", len(req.Documents), pvalidation.MaxBatchDocuments); err != nil {
		httputil.WriteError(w, err)
		return
	}
	docs := make([]service.DocumentInput, 0, len(req.Documents))
	for i := range req.Documents {
		in, err := req.Documents[i].toInput()
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		docs = append(docs, in)
	}

	outcomes, err := h.svc.SubmitDocuments(ctx, requestcontext.SessionID(ctx), docs)
	if err != nil {
		h.fail(ctx, w, "submit documents failed", err)
		return
	}
	resp := BatchDocumentsResponse{Results: make([]DocumentResponse, len(outcomes))}
	for i, o := range outcomes {
		resp.Results[i].Document = o.Submission
		if o.Err != nil {
			_, body := httputil.ErrorBody(o.Err)
			resp.Results[i].Error = &body
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleCheckName implements POST /v1/entity-names/check.
func (h *Handler) HandleCheckName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CheckNameRequest](w, r, h.logger)
	if !ok {
		return
	}
	availability, err := h.svc.CheckEntityName(ctx, req.Name)
	if err != nil {
		h.fail(ctx, w, "entity name check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, availability)
}

// HandleSelectPlan implements POST /v1/applicants/{id}/plan.
func (h *Handler) HandleSelectPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SelectPlanRequest](w, r, h.logger)
	if !ok {
		return
	}
	planID, err := id.ParsePlanID(req.PlanID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "plan_id is invalid"))
		return
	}
	session, err := h.svc.SelectPlan(ctx, requestcontext.SessionID(ctx), planID)
	if err != nil {
		h.fail(ctx, w, "select plan failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleIncorporate implements POST /v1/applicants/{id}/entities.
// The Idempotency-Key header is required; replays return the original entity.
// A filing that has not settled yet answers 202.
func (h *Handler) HandleIncorporate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Idempotency-Key header is required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[IncorporateRequest](w, r, h.logger)
	if !ok {
		return
	}

	entity, err := h.svc.IncorporateEntity(ctx, requestcontext.SessionID(ctx), service.EntityInput{
		Name:             req.Name,
		LegalType:        models.LegalType(req.LegalType),
		IdempotencyToken: token,
	})

	var unavailable *service.NameUnavailableError
	switch {
	case err == nil && entity.Status == models.EntityForming:
		httputil.WriteJSON(w, http.StatusAccepted, EntityResponse{Entity: entity})
	case err == nil:
		httputil.WriteJSON(w, http.StatusCreated, EntityResponse{Entity: entity})
	case errors.As(err, &unavailable):
		status, body := httputil.ErrorBody(err)
		httputil.WriteJSON(w, status, EntityResponse{Alternatives: unavailable.Alternatives, Error: &body})
	case entity != nil:
		status, body := httputil.ErrorBody(err)
		h.logger.WarnContext(ctx, "incorporation failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteJSON(w, status, EntityResponse{Entity: entity, Error: &body})
	default:
		h.fail(ctx, w, "incorporate entity failed", err)
	}
}

// HandleAbandon implements POST /v1/applicants/{id}/abandon.
func (h *Handler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.svc.AbandonSession(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.fail(ctx, w, "abandon session failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// HandleBypassIdentity implements POST /v1/applicants/{id}/identity:bypass (demo only).
func (h *Handler) HandleBypassIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.svc.BypassIdentity(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.fail(ctx, w, "identity bypass failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

// fail logs at a level matching the error class and writes the error response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{"error", err, "request_id", requestcontext.RequestID(ctx)}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.InfoContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
