// Package storetest holds behavior checks every session store must pass.
// Backend tests call Run with a factory that returns an empty store.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"residency/internal/onboarding/models"
	id "residency/pkg/domain"
	"residency/pkg/platform/sentinel"
	"residency/pkg/testutil"
)

// Store is the contract under test.
type Store interface {
	Create(ctx context.Context, session *models.ApplicantSession) error
	Load(ctx context.Context, sessionID id.SessionID) (*models.ApplicantSession, error)
	CompareAndSwap(ctx context.Context, session *models.ApplicantSession, expectedVersion int64) error
	FindActiveByEmail(ctx context.Context, email string) (*models.ApplicantSession, error)
	ListInactive(ctx context.Context, cutoff time.Time, limit int) ([]*models.ApplicantSession, error)
}

// Run executes the contract suite. newStore is called before every test.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	suite.Run(t, &contractSuite{newStore: newStore})
}

type contractSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
	now      time.Time
}

func (s *contractSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.now = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
}

func (s *contractSuite) newSession(email string) *models.ApplicantSession {
	return models.NewApplicantSession(id.NewSessionID(), models.Profile{
		FullName: "Test Applicant",
		Email:    email,
		Country:  "EE",
	}, s.now)
}

func (s *contractSuite) TestCreateAndLoadRoundTrip() {
	ctx := context.Background()
	session := s.newSession("alice@example.com")
	sub := models.NextAttempt(models.DocumentPhotoID, nil, s.now)
	sub.Status = models.DocumentVerified
	sub.ExtractedData = map[string]string{"document_number": "P1"}
	session.ReplaceDocument(sub)
	s.Require().NoError(s.store.Create(ctx, session))

	loaded, err := s.store.Load(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, loaded.ID)
	s.Equal(int64(1), loaded.Version)
	s.Equal(models.StepRegistered, loaded.CurrentStep)
	s.Require().Len(loaded.Documents, 1)
	s.Equal("P1", loaded.Documents[0].ExtractedData["document_number"])
	s.True(session.CreatedAt.Equal(loaded.CreatedAt))
}

func (s *contractSuite) TestLoadUnknown() {
	_, err := s.store.Load(context.Background(), id.NewSessionID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestDuplicateEmailWhileActive() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newSession("bob@example.com")))

	err := s.store.Create(ctx, s.newSession("BOB@example.com"))
	s.ErrorIs(err, sentinel.ErrDuplicate)
}

func (s *contractSuite) TestTerminalSessionReleasesEmail() {
	ctx := context.Background()
	first := s.newSession("carol@example.com")
	s.Require().NoError(s.store.Create(ctx, first))

	first.CurrentStep = models.StepAbandoned
	s.Require().NoError(s.store.CompareAndSwap(ctx, first, 1))

	_, err := s.store.FindActiveByEmail(ctx, "carol@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.NoError(s.store.Create(ctx, s.newSession("carol@example.com")))
}

func (s *contractSuite) TestCompareAndSwap() {
	ctx := context.Background()
	session := s.newSession("dave@example.com")
	s.Require().NoError(s.store.Create(ctx, session))

	s.Run("matching version bumps", func() {
		session.CurrentStep = models.StepIdentityPending
		s.Require().NoError(s.store.CompareAndSwap(ctx, session, 1))
		s.Equal(int64(2), session.Version)

		loaded, err := s.store.Load(ctx, session.ID)
		s.Require().NoError(err)
		s.Equal(int64(2), loaded.Version)
		s.Equal(models.StepIdentityPending, loaded.CurrentStep)
	})

	s.Run("stale version conflicts", func() {
		stale := session.Clone()
		err := s.store.CompareAndSwap(ctx, stale, 1)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown session", func() {
		err := s.store.CompareAndSwap(ctx, s.newSession("x@example.com"), 1)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *contractSuite) TestEmailChangeCollision() {
	ctx := context.Background()
	a := s.newSession("erin@example.com")
	b := s.newSession("frank@example.com")
	s.Require().NoError(s.store.Create(ctx, a))
	s.Require().NoError(s.store.Create(ctx, b))

	b.Profile.Email = "erin@example.com"
	s.ErrorIs(s.store.CompareAndSwap(ctx, b, 1), sentinel.ErrDuplicate)

	b.Profile.Email = "frank.new@example.com"
	s.Require().NoError(s.store.CompareAndSwap(ctx, b, 1))
	found, err := s.store.FindActiveByEmail(ctx, "frank.new@example.com")
	s.Require().NoError(err)
	s.Equal(b.ID, found.ID)
	_, err = s.store.FindActiveByEmail(ctx, "frank@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestConcurrentCASHasOneWinner() {
	ctx := context.Background()
	session := s.newSession("grace@example.com")
	s.Require().NoError(s.store.Create(ctx, session))

	result := testutil.RunConcurrent(20, func(idx int) error {
		c := session.Clone()
		c.Profile.FullName = fmt.Sprintf("Writer %d", idx)
		return s.store.CompareAndSwap(ctx, c, 1)
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(19), result.Conflicts)

	loaded, err := s.store.Load(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), loaded.Version)
}

func (s *contractSuite) TestListInactive() {
	ctx := context.Background()
	old := s.newSession("old@example.com")
	old.UpdatedAt = s.now.Add(-40 * 24 * time.Hour)
	older := s.newSession("older@example.com")
	older.UpdatedAt = s.now.Add(-50 * 24 * time.Hour)
	fresh := s.newSession("fresh@example.com")
	done := s.newSession("done@example.com")
	done.UpdatedAt = s.now.Add(-60 * 24 * time.Hour)

	for _, session := range []*models.ApplicantSession{old, older, fresh, done} {
		s.Require().NoError(s.store.Create(ctx, session))
	}
	done.CurrentStep = models.StepIdentityRejected
	s.Require().NoError(s.store.CompareAndSwap(ctx, done, 1))

	cutoff := s.now.Add(-30 * 24 * time.Hour)
	inactive, err := s.store.ListInactive(ctx, cutoff, 10)
	s.Require().NoError(err)
	s.Require().Len(inactive, 2)
	s.Equal(older.ID, inactive[0].ID, "oldest first")
	s.Equal(old.ID, inactive[1].ID)

	limited, err := s.store.ListInactive(ctx, cutoff, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}
