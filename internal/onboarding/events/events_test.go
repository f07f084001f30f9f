package events

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residency/internal/onboarding/models"
	id "residency/pkg/domain"
)

func newTestSession() *models.ApplicantSession {
	s := models.NewApplicantSession(id.NewSessionID(), models.Profile{Email: "alice@example.com"}, time.Now())
	s.CurrentStep = models.StepIdentityPending
	s.Version = 2
	return s
}

func TestNewEvent(t *testing.T) {
	s := newTestSession()
	e := New(models.EventStartIdentity, models.StepRegistered, s, map[string]string{"kind": "photo_id"})

	assert.Equal(t, "onboarding.start_identity", e.Type)
	assert.Equal(t, models.StepRegistered, e.From)
	assert.Equal(t, models.StepIdentityPending, e.To)
	assert.Equal(t, int64(2), e.Version)
	assert.Equal(t, s.ID, e.SessionID)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	s := newTestSession()
	require.NoError(t, r.Publish(context.Background(), New(models.EventStartIdentity, models.StepRegistered, s, nil)))
	require.NoError(t, r.Publish(context.Background(), New(models.EventDocumentSubmitted, models.StepIdentityPending, s, nil)))

	assert.Equal(t, []string{"onboarding.start_identity", "onboarding.document_submitted"}, r.Types())
	events := r.Events()
	events[0].Type = "changed"
	assert.Equal(t, "onboarding.start_identity", r.Events()[0].Type)
}

func TestLogPublisherOmitsProfile(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))
	s := newTestSession()

	require.NoError(t, p.Publish(context.Background(), New(models.EventAbandon, models.StepIdentityPending, s, nil)))
	assert.Contains(t, buf.String(), "onboarding.abandon")
	assert.NotContains(t, buf.String(), "alice@example.com")
}
