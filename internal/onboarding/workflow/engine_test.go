package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"residency/internal/onboarding/models"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
)

var testNow = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = newTestEngine(false)
}

func newTestEngine(demo bool) *Engine {
	return New(Config{
		Requirements: map[models.KYCLevel][]models.DocumentKind{
			models.KYCEnhanced: {models.DocumentPhotoID, models.DocumentSelfie},
			models.KYCPremium:  {models.DocumentPhotoID, models.DocumentSelfie, models.DocumentProofOfAddress},
		},
		Catalog: models.NewCatalog([]models.Plan{
			{ID: "starter", Name: "Starter", MonthlyPrice: decimal.RequireFromString("29.00"), Currency: "EUR", MinKYCLevel: models.KYCEnhanced},
			{ID: "premium", Name: "Premium", MonthlyPrice: decimal.RequireFromString("199.00"), Currency: "EUR", MinKYCLevel: models.KYCPremium},
		}),
		MaxDocumentRejections: 3,
		DemoBypass:            demo,
	})
}

func newSession() *models.ApplicantSession {
	return models.NewApplicantSession(id.NewSessionID(), models.Profile{
		FullName: "Alice Example",
		Email:    "alice@example.com",
		Country:  "EE",
	}, testNow)
}

func verify(sess *models.ApplicantSession, kinds ...models.DocumentKind) {
	for _, kind := range kinds {
		prev, _ := sess.Document(kind)
		sub := models.NextAttempt(kind, prev, testNow)
		sub.Status = models.DocumentVerified
		sub.Score = 0.97
		sess.ReplaceDocument(sub)
	}
}

func reject(sess *models.ApplicantSession, kind models.DocumentKind) {
	prev, _ := sess.Document(kind)
	sub := models.NextAttempt(kind, prev, testNow)
	sub.Status = models.DocumentRejected
	sub.ConsecutiveRejections++
	sess.ReplaceDocument(sub)
}

// permissiveSession satisfies every gate so only the table decides legality.
func permissiveSession(step models.Step) *models.ApplicantSession {
	sess := newSession()
	verify(sess, models.DocumentPhotoID, models.DocumentSelfie)
	sess.KYCLevel = models.KYCEnhanced
	sess.SelectedPlan = "starter"
	sess.History = append(sess.History, models.StepTransition{
		From: models.StepIdentityVerified, To: models.StepPlanSelected, Event: models.EventSelectPlan, At: testNow,
	})
	sess.CurrentStep = step
	return sess
}

func (s *EngineSuite) TestTableWalk() {
	legal := map[models.Step][]models.EventType{
		models.StepRegistered: {models.EventStartIdentity, models.EventAmendProfile, models.EventAbandon},
		models.StepIdentityPending: {
			models.EventDocumentSubmitted, models.EventDocumentRecorded,
			models.EventIdentityVerified, models.EventIdentityRejected, models.EventAbandon,
		},
		models.StepIdentityVerified: {
			models.EventDocumentSubmitted, models.EventDocumentRecorded,
			models.EventSelectPlan, models.EventAbandon,
		},
		models.StepPlanSelected: {
			models.EventDocumentSubmitted, models.EventDocumentRecorded,
			models.EventStartIncorporation, models.EventAbandon,
		},
		models.StepEntityForming: {models.EventIncorporationSucceeded, models.EventIncorporationFailed},
	}

	for _, step := range models.AllSteps {
		for _, evType := range models.AllEventTypes {
			sess := permissiveSession(step)
			ev := Event{Type: evType, Kind: models.DocumentProofOfAddress, Plan: "starter"}
			_, err := s.engine.Advance(sess, ev)

			isLegal := false
			for _, l := range legal[step] {
				if l == evType {
					isLegal = true
				}
			}
			if isLegal {
				s.False(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "%s from %s should be in the table: %v", evType, step, err)
			} else {
				s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "%s from %s should be invalid, got %v", evType, step, err)
			}
		}
	}
}

func (s *EngineSuite) TestAdvanceDoesNotMutate() {
	sess := newSession()
	tr, err := s.engine.Advance(sess, Event{Type: models.EventStartIdentity})
	s.Require().NoError(err)
	s.Equal(models.StepRegistered, tr.From)
	s.Equal(models.StepIdentityPending, tr.To)
	s.True(tr.Has(EffectFreezeProfile))
	s.True(tr.Has(EffectPublishEvent))
	s.Equal(models.StepRegistered, sess.CurrentStep)
	s.Empty(sess.History)
}

func (s *EngineSuite) TestApplyRecordsHistoryOnlyOnStepChange() {
	sess := newSession()
	_, err := s.engine.Fire(sess, Event{Type: models.EventAmendProfile}, testNow)
	s.Require().NoError(err)
	s.Empty(sess.History)

	later := testNow.Add(time.Minute)
	_, err = s.engine.Fire(sess, Event{Type: models.EventStartIdentity}, later)
	s.Require().NoError(err)
	s.Require().Len(sess.History, 1)
	s.Equal(models.EventStartIdentity, sess.History[0].Event)
	s.Equal(later, sess.UpdatedAt)
}

func (s *EngineSuite) TestIdentityGate() {
	s.Run("missing selfie", func() {
		sess := newSession()
		sess.CurrentStep = models.StepIdentityPending
		verify(sess, models.DocumentPhotoID)

		_, err := s.engine.Advance(sess, Event{Type: models.EventIdentityVerified})
		s.True(dErrors.HasCode(err, dErrors.CodeGateNotSatisfied))
	})

	s.Run("rejected photo id", func() {
		sess := newSession()
		sess.CurrentStep = models.StepIdentityPending
		verify(sess, models.DocumentSelfie)
		reject(sess, models.DocumentPhotoID)

		_, err := s.engine.Advance(sess, Event{Type: models.EventIdentityVerified})
		s.True(dErrors.HasCode(err, dErrors.CodeGateNotSatisfied))
	})

	s.Run("all required verified, optional missing", func() {
		sess := newSession()
		sess.CurrentStep = models.StepIdentityPending
		verify(sess, models.DocumentPhotoID, models.DocumentSelfie)

		_, err := s.engine.Fire(sess, Event{Type: models.EventIdentityVerified}, testNow)
		s.Require().NoError(err)
		s.Equal(models.StepIdentityVerified, sess.CurrentStep)
		s.Equal(models.KYCEnhanced, sess.KYCLevel)
	})
}

func (s *EngineSuite) TestIdentityRejectedNeedsExhaustion() {
	sess := newSession()
	sess.CurrentStep = models.StepIdentityPending
	reject(sess, models.DocumentPhotoID)
	reject(sess, models.DocumentPhotoID)

	_, err := s.engine.Advance(sess, Event{Type: models.EventIdentityRejected})
	s.True(dErrors.HasCode(err, dErrors.CodeGateNotSatisfied))

	reject(sess, models.DocumentPhotoID)
	s.True(s.engine.IdentityExhausted(sess))
	_, err = s.engine.Fire(sess, Event{Type: models.EventIdentityRejected}, testNow)
	s.Require().NoError(err)
	s.True(sess.IsTerminal())
}

func (s *EngineSuite) TestIdentityDocumentsLockAfterVerification() {
	sess := permissiveSession(models.StepIdentityVerified)

	_, err := s.engine.Advance(sess, Event{Type: models.EventDocumentSubmitted, Kind: models.DocumentSelfie})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	_, err = s.engine.Advance(sess, Event{Type: models.EventDocumentSubmitted, Kind: models.DocumentProofOfAddress})
	s.NoError(err)
}

func (s *EngineSuite) TestSelectPlanGates() {
	s.Run("unknown plan", func() {
		sess := newSession()
		sess.CurrentStep = models.StepIdentityVerified
		sess.KYCLevel = models.KYCEnhanced
		_, err := s.engine.Advance(sess, Event{Type: models.EventSelectPlan, Plan: "gold"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("kyc too low", func() {
		sess := newSession()
		sess.CurrentStep = models.StepIdentityVerified
		sess.KYCLevel = models.KYCEnhanced
		_, err := s.engine.Advance(sess, Event{Type: models.EventSelectPlan, Plan: "premium"})
		s.True(dErrors.HasCode(err, dErrors.CodeGateNotSatisfied))
	})

	s.Run("sets selected plan", func() {
		sess := newSession()
		sess.CurrentStep = models.StepIdentityVerified
		sess.KYCLevel = models.KYCEnhanced
		_, err := s.engine.Fire(sess, Event{Type: models.EventSelectPlan, Plan: "starter"}, testNow)
		s.Require().NoError(err)
		s.Equal(id.PlanID("starter"), sess.SelectedPlan)
		s.Equal(models.StepPlanSelected, sess.CurrentStep)
	})

	s.Run("early select plan", func() {
		sess := newSession()
		_, err := s.engine.Advance(sess, Event{Type: models.EventSelectPlan, Plan: "starter"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *EngineSuite) TestIncorporationRequiresPlanHistory() {
	sess := newSession()
	sess.CurrentStep = models.StepPlanSelected
	sess.SelectedPlan = "starter"

	_, err := s.engine.Advance(sess, Event{Type: models.EventStartIncorporation})
	s.True(dErrors.HasCode(err, dErrors.CodeGateNotSatisfied))

	sess.CurrentStep = models.StepEntityForming
	_, err = s.engine.Advance(sess, Event{Type: models.EventIncorporationSucceeded})
	s.True(dErrors.HasCode(err, dErrors.CodeGateNotSatisfied))
}

func (s *EngineSuite) TestDemoBypass() {
	s.Run("disabled", func() {
		_, err := s.engine.Advance(newSession(), Event{Type: models.EventBypassIdentity})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("enabled skips identity and kyc gate", func() {
		engine := newTestEngine(true)
		sess := newSession()
		_, err := engine.Fire(sess, Event{Type: models.EventBypassIdentity}, testNow)
		s.Require().NoError(err)
		s.Equal(models.StepIdentityVerified, sess.CurrentStep)
		s.Equal(models.KYCBasic, sess.KYCLevel)

		_, err = engine.Fire(sess, Event{Type: models.EventSelectPlan, Plan: "premium"}, testNow)
		s.NoError(err)
	})
}

func (s *EngineSuite) TestKYCLevels() {
	sess := newSession()
	sess.CurrentStep = models.StepIdentityPending
	s.Equal(models.KYCBasic, s.engine.ComputeKYC(sess))

	verify(sess, models.DocumentPhotoID, models.DocumentSelfie)
	s.Equal(models.KYCEnhanced, s.engine.ComputeKYC(sess))

	verify(sess, models.DocumentProofOfAddress)
	s.Equal(models.KYCPremium, s.engine.ComputeKYC(sess))

	sess.Entities = append(sess.Entities, models.EntityRecord{ID: id.NewEntityID(), Status: models.EntityActive, RegistrationNumber: "EE-1"})
	s.Equal(models.KYCEnterprise, s.engine.ComputeKYC(sess))
}

func (s *EngineSuite) TestKYCNeverDecreases() {
	sess := newSession()
	sess.CurrentStep = models.StepIdentityPending
	verify(sess, models.DocumentPhotoID, models.DocumentSelfie, models.DocumentProofOfAddress)
	_, err := s.engine.Fire(sess, Event{Type: models.EventDocumentRecorded, Kind: models.DocumentProofOfAddress}, testNow)
	s.Require().NoError(err)
	s.Equal(models.KYCPremium, sess.KYCLevel)

	// A later rejection of the optional kind leaves the level where it was.
	reject(sess, models.DocumentProofOfAddress)
	_, err = s.engine.Fire(sess, Event{Type: models.EventDocumentRecorded, Kind: models.DocumentProofOfAddress}, testNow)
	s.Require().NoError(err)
	s.Equal(models.KYCPremium, sess.KYCLevel)
}

func (s *EngineSuite) TestTerminalStepsAcceptNothing() {
	for _, step := range models.AllSteps {
		if !step.IsTerminal() {
			continue
		}
		sess := permissiveSession(step)
		_, err := s.engine.Advance(sess, Event{Type: models.EventAbandon})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), string(step))
	}
}
