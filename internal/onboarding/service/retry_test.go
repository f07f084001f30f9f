package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"residency/internal/onboarding/models"
	"residency/internal/onboarding/providers"
	"residency/internal/onboarding/service/mocks"
	"residency/internal/onboarding/store"
	"residency/internal/onboarding/verification"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
	"residency/pkg/platform/sentinel"
	"residency/pkg/requestcontext"
)

// RetrySuite pins the orchestrator's retry and store-error behavior with mocks.
type RetrySuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	verifier *mocks.MockVerifier
	ctx      context.Context
}

func TestRetrySuite(t *testing.T) {
	suite.Run(t, new(RetrySuite))
}

func (s *RetrySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verifier = mocks.NewMockVerifier(s.ctrl)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func (s *RetrySuite) newService(st Store) *Service {
	return New(st, testEngine(false), s.verifier, testCatalog(), Config{
		MaxVerificationAttempts: 3,
		VerificationTimeout:     time.Second,
		RetryBaseDelay:          time.Millisecond,
		MaxCASRetries:           4,
	}, WithLogger(discardLogger()))
}

func (s *RetrySuite) registered(svc *Service) id.SessionID {
	reg, err := svc.RegisterApplicant(s.ctx, alice())
	s.Require().NoError(err)
	return reg.SessionID
}

var (
	errTimeout  = dErrors.New(dErrors.CodeVerificationTimeout, "document verification timed out")
	errOutage   = dErrors.New(dErrors.CodeProviderUnavailable, "document verification unavailable")
	errRejected = dErrors.New(dErrors.CodeVerificationRejected, "photo_id could not be matched")
)

func verified() *providers.DocumentResult {
	return &providers.DocumentResult{ExtractedData: map[string]string{"document_number": "P1"}, Score: 0.93}
}

func (s *RetrySuite) TestThreeTimeoutsThenSuccess() {
	svc := s.newService(store.NewInMemory())
	sessionID := s.registered(svc)

	gomock.InOrder(
		s.verifier.EXPECT().VerifyDocument(gomock.Any(), models.DocumentPhotoID, gomock.Any(), time.Second).Return(nil, errTimeout).Times(3),
		s.verifier.EXPECT().VerifyDocument(gomock.Any(), models.DocumentPhotoID, gomock.Any(), time.Second).Return(verified(), nil),
	)

	sub, err := svc.SubmitDocument(s.ctx, sessionID, models.DocumentPhotoID, []byte("scan"))
	s.True(dErrors.HasCode(err, dErrors.CodeVerificationTimeout))
	s.Equal(models.DocumentPending, sub.Status)
	s.Equal(3, sub.Attempt)
	s.Equal(1, sub.ProviderCalls)

	sub, err = svc.SubmitDocument(s.ctx, sessionID, models.DocumentPhotoID, []byte("scan"))
	s.Require().NoError(err)
	s.Equal(models.DocumentVerified, sub.Status)
	s.Equal(4, sub.Attempt)
	s.Equal(1, sub.ProviderCalls)
	s.InDelta(0.93, sub.Score, 1e-9)

	session, err := svc.GetSession(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(session.DocumentHistory, 3)
	for i, past := range session.DocumentHistory {
		s.Equal(i+1, past.Attempt)
		s.Equal(models.DocumentPending, past.Status)
	}
}

func (s *RetrySuite) TestEachRetryIsANewAttempt() {
	svc := s.newService(store.NewInMemory())
	sessionID := s.registered(svc)

	gomock.InOrder(
		s.verifier.EXPECT().VerifyDocument(gomock.Any(), models.DocumentSelfie, gomock.Any(), gomock.Any()).Return(nil, errOutage),
		s.verifier.EXPECT().VerifyDocument(gomock.Any(), models.DocumentSelfie, gomock.Any(), gomock.Any()).Return(nil, errTimeout),
		s.verifier.EXPECT().VerifyDocument(gomock.Any(), models.DocumentSelfie, gomock.Any(), gomock.Any()).Return(verified(), nil),
	)

	sub, err := svc.SubmitDocument(s.ctx, sessionID, models.DocumentSelfie, []byte("selfie"))
	s.Require().NoError(err)
	s.Equal(3, sub.Attempt)
	s.Equal(1, sub.ProviderCalls)
	s.Equal(models.DocumentVerified, sub.Status)

	session, err := svc.GetSession(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(session.Documents, 1)
	s.Equal(3, session.Documents[0].Attempt)
	s.Require().Len(session.DocumentHistory, 2)
	s.Equal(errOutage.Error(), session.DocumentHistory[0].Reason)
	s.Equal(errTimeout.Error(), session.DocumentHistory[1].Reason)
	s.Equal(2, session.DocumentHistory[1].Attempt)
}

func (s *RetrySuite) TestRejectionIsNotRetried() {
	svc := s.newService(store.NewInMemory())
	sessionID := s.registered(svc)

	s.verifier.EXPECT().VerifyDocument(gomock.Any(), models.DocumentPhotoID, gomock.Any(), gomock.Any()).Return(nil, errRejected).Times(1)

	sub, err := svc.SubmitDocument(s.ctx, sessionID, models.DocumentPhotoID, []byte("scan"))
	s.True(dErrors.HasCode(err, dErrors.CodeVerificationRejected))
	s.Equal(models.DocumentRejected, sub.Status)
	s.Equal(1, sub.Attempt)
	s.Equal(1, sub.ProviderCalls)
}

func (s *RetrySuite) TestInvalidPayloadNeverReachesProvider() {
	svc := s.newService(store.NewInMemory())
	sessionID := s.registered(svc)

	_, err := svc.SubmitDocument(s.ctx, sessionID, models.DocumentPhotoID, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = svc.SubmitDocument(s.ctx, sessionID, "passport_scan", []byte("x"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *RetrySuite) TestNameCheckPassesThrough() {
	svc := s.newService(store.NewInMemory())
	s.verifier.EXPECT().CheckNameAvailability(gomock.Any(), "Acme Holdings").
		Return(verification.NameAvailability{Candidate: "Acme Holdings", Available: true, Alternatives: []string{}}, nil)

	got, err := svc.CheckEntityName(s.ctx, "  Acme   Holdings ")
	s.Require().NoError(err)
	s.True(got.Available)

	_, err = svc.CheckEntityName(s.ctx, "   ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *RetrySuite) TestRegistrarTimeoutFailsEntity() {
	svc := s.newService(store.NewInMemory())
	sessionID := s.registered(svc)
	s.verifier.EXPECT().VerifyDocument(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(verified(), nil).Times(2)
	for _, kind := range []models.DocumentKind{models.DocumentPhotoID, models.DocumentSelfie} {
		_, err := svc.SubmitDocument(s.ctx, sessionID, kind, []byte("scan"))
		s.Require().NoError(err)
	}
	_, err := svc.SelectPlan(s.ctx, sessionID, "starter")
	s.Require().NoError(err)

	s.verifier.EXPECT().CheckNameFresh(gomock.Any(), "Slow Filing").
		Return(verification.NameAvailability{Candidate: "Slow Filing", Available: true}, nil)
	s.verifier.EXPECT().Incorporate(gomock.Any(), providers.IncorporationRequest{
		Name: "Slow Filing", LegalType: models.LegalTypeLLC, Token: "tok",
	}, gomock.Any()).Return(nil, dErrors.New(dErrors.CodeVerificationTimeout, "incorporation timed out"))

	entity, err := svc.IncorporateEntity(s.ctx, sessionID, EntityInput{Name: "Slow Filing", LegalType: models.LegalTypeLLC, IdempotencyToken: "tok"})
	s.True(dErrors.HasCode(err, dErrors.CodeVerificationTimeout))
	s.Equal(models.EntityFailed, entity.Status)

	session, err := svc.GetSession(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Equal(models.StepEntityFailed, session.CurrentStep)
}

func (s *RetrySuite) TestStoreFailures() {
	s.Run("load error is internal", func() {
		st := mocks.NewMockStore(s.ctrl)
		st.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

		_, err := s.newService(st).SelectPlan(s.ctx, id.NewSessionID(), "starter")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("unknown session", func() {
		st := mocks.NewMockStore(s.ctrl)
		st.EXPECT().Load(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)

		_, err := s.newService(st).AbandonSession(s.ctx, id.NewSessionID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("conflicts exhaust the merge budget", func() {
		st := mocks.NewMockStore(s.ctrl)
		session := models.NewApplicantSession(id.NewSessionID(), models.Profile{Email: "a@example.com"}, time.Now())
		st.EXPECT().Load(gomock.Any(), session.ID).DoAndReturn(
			func(context.Context, id.SessionID) (*models.ApplicantSession, error) {
				return session.Clone(), nil
			}).Times(4)
		st.EXPECT().CompareAndSwap(gomock.Any(), gomock.Any(), int64(1)).Return(sentinel.ErrConflict).Times(4)

		_, err := s.newService(st).AbandonSession(s.ctx, session.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeVersionConflict))
	})

	s.Run("conflict then success merges", func() {
		st := mocks.NewMockStore(s.ctrl)
		session := models.NewApplicantSession(id.NewSessionID(), models.Profile{Email: "a@example.com"}, time.Now())
		st.EXPECT().Load(gomock.Any(), session.ID).DoAndReturn(
			func(context.Context, id.SessionID) (*models.ApplicantSession, error) {
				return session.Clone(), nil
			}).Times(2)
		gomock.InOrder(
			st.EXPECT().CompareAndSwap(gomock.Any(), gomock.Any(), int64(1)).Return(sentinel.ErrConflict),
			st.EXPECT().CompareAndSwap(gomock.Any(), gomock.Any(), int64(1)).Return(nil),
		)

		got, err := s.newService(st).AbandonSession(s.ctx, session.ID)
		s.Require().NoError(err)
		s.Equal(models.StepAbandoned, got.CurrentStep)
	})

	s.Run("duplicate registration race", func() {
		st := mocks.NewMockStore(s.ctrl)
		st.EXPECT().FindActiveByEmail(gomock.Any(), "alice@example.com").Return(nil, sentinel.ErrNotFound)
		st.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrDuplicate)

		_, err := s.newService(st).RegisterApplicant(s.ctx, alice())
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateEmail))
	})
}

func (s *RetrySuite) TestHealthDelegatesToVerifier() {
	s.verifier.EXPECT().Health(gomock.Any()).Return(errOutage)
	s.Error(s.newService(store.NewInMemory()).Health(s.ctx))
}
