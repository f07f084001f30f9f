package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"residency/internal/onboarding/handler/mocks"
	"residency/internal/onboarding/models"
	"residency/internal/onboarding/resume"
	"residency/internal/onboarding/service"
	"residency/internal/onboarding/verification"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
	"residency/pkg/platform/middleware/request"
	"residency/pkg/platform/ratelimit"
)

type HandlerSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	svc       *mocks.MockService
	tokens    *resume.Service
	router    chi.Router
	sessionID id.SessionID
	token     string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.svc = mocks.NewMockService(s.ctrl)
	s.tokens = resume.New("handler-test-key", time.Hour)
	s.router = s.newRouter()

	s.sessionID = id.NewSessionID()
	token, _, err := s.tokens.Issue(s.sessionID)
	s.Require().NoError(err)
	s.token = token
}

func (s *HandlerSuite) newRouter(opts ...Option) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(request.ClientIP)
	New(s.svc, s.tokens, logger, opts...).Register(r)
	return r
}

func (s *HandlerSuite) do(router chi.Router, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) authed(method, suffix, body string) *httptest.ResponseRecorder {
	return s.do(s.router, method, "/v1/applicants/"+s.sessionID.String()+suffix, body, map[string]string{
		"Authorization": "Bearer " + s.token,
	})
}

func decode[T any](s *HandlerSuite, rec *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *HandlerSuite) session(step models.Step) *models.ApplicantSession {
	session := models.NewApplicantSession(s.sessionID, models.Profile{FullName: "Alice", Email: "alice@example.com", Country: "EE"}, time.Now())
	session.CurrentStep = step
	return session
}

func (s *HandlerSuite) TestRegister() {
	s.Run("201 with a working resume token", func() {
		newID := id.NewSessionID()
		s.svc.EXPECT().RegisterApplicant(gomock.Any(), service.ProfileInput{
			FullName: "Alice Example", Email: "alice@example.com", Country: "EE",
		}).Return(&service.Registration{SessionID: newID, CurrentStep: models.StepRegistered}, nil)

		rec := s.do(s.router, http.MethodPost, "/v1/applicants",
			`{"full_name":" Alice Example ","email":"alice@example.com","country":"EE"}`, nil)
		s.Equal(http.StatusCreated, rec.Code, rec.Body.String())

		resp := decode[RegisterResponse](s, rec)
		s.Equal(newID, resp.SessionID)
		s.Equal(models.StepRegistered, resp.CurrentStep)
		granted, err := s.tokens.ValidateToken(resp.ResumeToken)
		s.Require().NoError(err)
		s.Equal(newID, granted)
	})

	s.Run("400 on invalid email without calling the service", func() {
		rec := s.do(s.router, http.MethodPost, "/v1/applicants",
			`{"full_name":"Alice","email":"nope","country":"EE"}`, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("validation_error", decode[map[string]any](s, rec)["error"])
	})

	s.Run("400 on malformed json", func() {
		rec := s.do(s.router, http.MethodPost, "/v1/applicants", `{"full_name":`, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("bad_request", decode[map[string]any](s, rec)["error"])
	})

	s.Run("409 on duplicate email", func() {
		s.svc.EXPECT().RegisterApplicant(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeDuplicateEmail, "an active onboarding session already exists for this email"))

		rec := s.do(s.router, http.MethodPost, "/v1/applicants",
			`{"full_name":"Alice","email":"alice@example.com","country":"EE"}`, nil)
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("duplicate_email", decode[map[string]any](s, rec)["error"])
	})
}

func (s *HandlerSuite) TestSessionRoutesRequireToken() {
	s.Run("401 without token", func() {
		rec := s.do(s.router, http.MethodGet, "/v1/applicants/"+s.sessionID.String(), "", nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("404 with another session's token", func() {
		other, _, err := s.tokens.Issue(id.NewSessionID())
		s.Require().NoError(err)
		rec := s.do(s.router, http.MethodGet, "/v1/applicants/"+s.sessionID.String(), "", map[string]string{
			"Authorization": "Bearer " + other,
		})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("200 with own token", func() {
		s.svc.EXPECT().GetSession(gomock.Any(), s.sessionID).Return(s.session(models.StepRegistered), nil)
		rec := s.authed(http.MethodGet, "", "")
		s.Equal(http.StatusOK, rec.Code)
		resp := decode[SessionResponse](s, rec)
		s.Equal(s.sessionID, resp.ID)
		s.Equal(models.KYCBasic, resp.KYCLevel)
	})
}

func (s *HandlerSuite) TestSubmitDocument() {
	payload := base64.StdEncoding.EncodeToString([]byte("passport scan"))

	s.Run("200 with verified document", func() {
		s.svc.EXPECT().SubmitDocument(gomock.Any(), s.sessionID, models.DocumentPhotoID, []byte("passport scan")).
			Return(&models.DocumentSubmission{Kind: models.DocumentPhotoID, Status: models.DocumentVerified, Attempt: 1}, nil)

		rec := s.authed(http.MethodPost, "/documents", `{"kind":"photo_id","payload":"`+payload+`"}`)
		s.Equal(http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[DocumentResponse](s, rec)
		s.Equal(models.DocumentVerified, resp.Document.Status)
		s.Nil(resp.Error)
	})

	s.Run("422 keeps the rejected document", func() {
		s.svc.EXPECT().SubmitDocument(gomock.Any(), s.sessionID, models.DocumentSelfie, gomock.Any()).
			Return(&models.DocumentSubmission{Kind: models.DocumentSelfie, Status: models.DocumentRejected, Attempt: 2},
				dErrors.New(dErrors.CodeVerificationRejected, "selfie could not be matched"))

		rec := s.authed(http.MethodPost, "/documents", `{"kind":"selfie","payload":"`+payload+`"}`)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		resp := decode[DocumentResponse](s, rec)
		s.Equal(2, resp.Document.Attempt)
		s.Require().NotNil(resp.Error)
		s.Equal("verification_rejected", resp.Error.Error)
		s.False(resp.Error.Retryable)
	})

	s.Run("504 timeout is retryable", func() {
		s.svc.EXPECT().SubmitDocument(gomock.Any(), s.sessionID, models.DocumentSelfie, gomock.Any()).
			Return(&models.DocumentSubmission{Kind: models.DocumentSelfie, Status: models.DocumentPending},
				dErrors.New(dErrors.CodeVerificationTimeout, "document verification timed out"))

		rec := s.authed(http.MethodPost, "/documents", `{"kind":"selfie","payload":"`+payload+`"}`)
		s.Equal(http.StatusGatewayTimeout, rec.Code)
		s.True(decode[DocumentResponse](s, rec).Error.Retryable)
	})

	s.Run("400 on unknown kind", func() {
		rec := s.authed(http.MethodPost, "/documents", `{"kind":"passport_scan","payload":"`+payload+`"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("409 when the step forbids it", func() {
		s.svc.EXPECT().SubmitDocument(gomock.Any(), s.sessionID, models.DocumentPhotoID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "identity documents are locked"))

		rec := s.authed(http.MethodPost, "/documents", `{"kind":"photo_id","payload":"`+payload+`"}`)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *HandlerSuite) TestSubmitDocumentsBatch() {
	a := base64.StdEncoding.EncodeToString([]byte("a"))
	s.svc.EXPECT().SubmitDocuments(gomock.Any(), s.sessionID, []service.DocumentInput{
		{Kind: models.DocumentPhotoID, Payload: []byte("a")},
		{Kind: models.DocumentSelfie, Payload: []byte("a")},
	}).Return([]service.DocumentOutcome{
		{Kind: models.DocumentPhotoID, Submission: &models.DocumentSubmission{Kind: models.DocumentPhotoID, Status: models.DocumentVerified}},
		{Kind: models.DocumentSelfie, Submission: &models.DocumentSubmission{Kind: models.DocumentSelfie, Status: models.DocumentRejected},
			Err: dErrors.New(dErrors.CodeVerificationRejected, "selfie could not be matched")},
	}, nil)

	rec := s.authed(http.MethodPost, "/documents:batch",
		`{"documents":[{"kind":"photo_id","payload":"`+a+`"},{"kind":"selfie","payload":"`+a+`"}]}`)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[BatchDocumentsResponse](s, rec)
	s.Require().Len(resp.Results, 2)
	s.Nil(resp.Results[0].Error)
	s.Require().NotNil(resp.Results[1].Error)
	s.Equal("verification_rejected", resp.Results[1].Error.Error)

	s.Run("too many documents", func() {
		rec := s.authed(http.MethodPost, "/documents:batch", `{"documents":[`+
			strings.Repeat(`{"kind":"selfie","payload":"`+a+`"},`, 3)+`{"kind":"selfie","payload":"`+a+`"}]}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestCheckName() {
	s.Run("returns availability", func() {
		s.svc.EXPECT().CheckEntityName(gomock.Any(), "Acme Labs").Return(verification.NameAvailability{
			Candidate: "Acme Labs", Available: false, Alternatives: []string{"Acme Labs Group"},
		}, nil)

		rec := s.do(s.router, http.MethodPost, "/v1/entity-names/check", `{"name":"  Acme   Labs "}`, nil)
		s.Equal(http.StatusOK, rec.Code)
		got := decode[verification.NameAvailability](s, rec)
		s.False(got.Available)
		s.Equal([]string{"Acme Labs Group"}, got.Alternatives)
	})

	s.Run("rate limited per client", func() {
		router := s.newRouter(WithNameCheckLimiter(ratelimit.New(0.001, 1, time.Minute)))
		s.svc.EXPECT().CheckEntityName(gomock.Any(), "Acme").Return(verification.NameAvailability{Candidate: "Acme", Available: true}, nil)

		first := s.do(router, http.MethodPost, "/v1/entity-names/check", `{"name":"Acme"}`, nil)
		s.Equal(http.StatusOK, first.Code)
		second := s.do(router, http.MethodPost, "/v1/entity-names/check", `{"name":"Acme"}`, nil)
		s.Equal(http.StatusTooManyRequests, second.Code)
		s.NotEmpty(second.Header().Get("Retry-After"))
	})
}

func (s *HandlerSuite) TestSelectPlan() {
	s.Run("409 before identity is verified", func() {
		s.svc.EXPECT().SelectPlan(gomock.Any(), s.sessionID, id.PlanID("starter")).
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "select_plan is not allowed from registered"))

		rec := s.authed(http.MethodPost, "/plan", `{"plan_id":"starter"}`)
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("invalid_transition", decode[map[string]any](s, rec)["error"])
	})

	s.Run("412 when kyc level is too low", func() {
		s.svc.EXPECT().SelectPlan(gomock.Any(), s.sessionID, id.PlanID("premium")).
			Return(nil, dErrors.New(dErrors.CodeGateNotSatisfied, "plan premium requires kyc level premium"))

		rec := s.authed(http.MethodPost, "/plan", `{"plan_id":"premium"}`)
		s.Equal(http.StatusPreconditionFailed, rec.Code)
	})

	s.Run("200", func() {
		session := s.session(models.StepPlanSelected)
		session.SelectedPlan = "starter"
		s.svc.EXPECT().SelectPlan(gomock.Any(), s.sessionID, id.PlanID("starter")).Return(session, nil)

		rec := s.authed(http.MethodPost, "/plan", `{"plan_id":" starter "}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(id.PlanID("starter"), decode[SessionResponse](s, rec).SelectedPlan)
	})
}

func (s *HandlerSuite) TestIncorporate() {
	path := "/v1/applicants/" + s.sessionID.String() + "/entities"
	headers := map[string]string{"Authorization": "Bearer " + s.token, "Idempotency-Key": "key-1"}

	s.Run("400 without idempotency key", func() {
		rec := s.authed(http.MethodPost, "/entities", `{"name":"Nordic Labs","legal_type":"llc"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("201", func() {
		s.svc.EXPECT().IncorporateEntity(gomock.Any(), s.sessionID, service.EntityInput{
			Name: "Nordic Labs", LegalType: models.LegalTypeLLC, IdempotencyToken: "key-1",
		}).Return(&models.EntityRecord{Name: "Nordic Labs", Status: models.EntityActive, RegistrationNumber: "RES-LLC-000001"}, nil)

		rec := s.do(s.router, http.MethodPost, path, `{"name":"Nordic  Labs","legal_type":"llc"}`, headers)
		s.Equal(http.StatusCreated, rec.Code, rec.Body.String())
		s.Equal("RES-LLC-000001", decode[EntityResponse](s, rec).Entity.RegistrationNumber)
	})

	s.Run("422 with alternatives when the name is taken", func() {
		s.svc.EXPECT().IncorporateEntity(gomock.Any(), s.sessionID, gomock.Any()).
			Return(nil, &service.NameUnavailableError{Candidate: "Acme", Alternatives: []string{"Acme Group", "Acme Labs"}})

		rec := s.do(s.router, http.MethodPost, path, `{"name":"Acme","legal_type":"llc"}`, headers)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		resp := decode[EntityResponse](s, rec)
		s.Equal([]string{"Acme Group", "Acme Labs"}, resp.Alternatives)
		s.Equal("verification_rejected", resp.Error.Error)
	})

	s.Run("failed filing returns the failed entity", func() {
		s.svc.EXPECT().IncorporateEntity(gomock.Any(), s.sessionID, gomock.Any()).
			Return(&models.EntityRecord{Name: "Doomed", Status: models.EntityFailed},
				dErrors.New(dErrors.CodeProviderUnavailable, "incorporation unavailable"))

		rec := s.do(s.router, http.MethodPost, path, `{"name":"Doomed","legal_type":"corporation"}`, headers)
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.Equal(models.EntityFailed, decode[EntityResponse](s, rec).Entity.Status)
	})

	s.Run("202 while the filing is still forming", func() {
		s.svc.EXPECT().IncorporateEntity(gomock.Any(), s.sessionID, gomock.Any()).
			Return(&models.EntityRecord{Name: "Nordic Labs", Status: models.EntityForming}, nil)

		rec := s.do(s.router, http.MethodPost, path, `{"name":"Nordic Labs","legal_type":"llc"}`, headers)
		s.Equal(http.StatusAccepted, rec.Code)
		s.Equal(models.EntityForming, decode[EntityResponse](s, rec).Entity.Status)
	})

	s.Run("replayed failure keeps its error", func() {
		s.svc.EXPECT().IncorporateEntity(gomock.Any(), s.sessionID, gomock.Any()).
			Return(&models.EntityRecord{Name: "Doomed", Status: models.EntityFailed},
				dErrors.New(dErrors.CodeVerificationRejected, "registry refused the filing"))

		rec := s.do(s.router, http.MethodPost, path, `{"name":"Doomed","legal_type":"llc"}`, headers)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		resp := decode[EntityResponse](s, rec)
		s.Equal(models.EntityFailed, resp.Entity.Status)
		s.Equal("verification_rejected", resp.Error.Error)
	})
}

func (s *HandlerSuite) TestAmendAndAbandon() {
	s.svc.EXPECT().AmendProfile(gomock.Any(), s.sessionID, service.ProfileInput{
		FullName: "Alice B", Email: "alice@example.com", Country: "EE",
	}).Return(s.session(models.StepRegistered), nil)
	rec := s.authed(http.MethodPut, "/profile", `{"full_name":"Alice B","email":"alice@example.com","country":"EE"}`)
	s.Equal(http.StatusOK, rec.Code)

	s.svc.EXPECT().AbandonSession(gomock.Any(), s.sessionID).Return(s.session(models.StepAbandoned), nil)
	rec = s.authed(http.MethodPost, "/abandon", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(models.StepAbandoned, decode[SessionResponse](s, rec).CurrentStep)
}

func (s *HandlerSuite) TestBypassRouteOnlyInDemoMode() {
	rec := s.authed(http.MethodPost, "/identity:bypass", "")
	s.Equal(http.StatusNotFound, rec.Code)

	s.router = s.newRouter(WithDemoBypass(true))
	s.svc.EXPECT().BypassIdentity(gomock.Any(), s.sessionID).Return(s.session(models.StepIdentityVerified), nil)
	rec = s.authed(http.MethodPost, "/identity:bypass", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestListPlans() {
	s.svc.EXPECT().ListPlans().Return([]models.Plan{
		{ID: "starter", Name: "Starter", MonthlyPrice: decimal.RequireFromString("29"), Currency: "EUR", MinKYCLevel: models.KYCEnhanced},
	})

	rec := s.do(s.router, http.MethodGet, "/v1/plans", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"monthly_price":"29"`)
}
