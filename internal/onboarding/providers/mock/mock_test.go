package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residency/internal/onboarding/models"
	"residency/internal/onboarding/providers"
)

func TestVerifyDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("verifies by default with score in range", func(t *testing.T) {
		p := New(Config{Seed: 42})
		res, err := p.VerifyDocument(ctx, models.DocumentPhotoID, []byte("passport scan"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
		assert.NotEmpty(t, res.ExtractedData["document_number"])
	})

	t.Run("same seed same answers", func(t *testing.T) {
		a, err := New(Config{Seed: 7}).VerifyDocument(ctx, models.DocumentPhotoID, []byte("x"))
		require.NoError(t, err)
		b, err := New(Config{Seed: 7}).VerifyDocument(ctx, models.DocumentPhotoID, []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, a.Score, b.Score)
		assert.Equal(t, a.ExtractedData, b.ExtractedData)
	})

	t.Run("payload marker rejects", func(t *testing.T) {
		p := New(Config{Seed: 1})
		_, err := p.VerifyDocument(ctx, models.DocumentSelfie, []byte("please REJECT me"))
		assert.Equal(t, providers.ErrorRejected, providers.GetCategory(err))
	})

	t.Run("scripted timeout waits for deadline", func(t *testing.T) {
		p := New(Config{Seed: 1})
		p.Script(models.DocumentPhotoID, OutcomeTimeout)

		deadlineCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := p.VerifyDocument(deadlineCtx, models.DocumentPhotoID, []byte("x"))
		assert.Equal(t, providers.ErrorTimeout, providers.GetCategory(err))
		assert.True(t, providers.IsRetryable(err))

		_, err = p.VerifyDocument(ctx, models.DocumentPhotoID, []byte("x"))
		assert.NoError(t, err, "script consumed")
		assert.Equal(t, 2, p.Calls("verify"))
	})

	t.Run("latency respects deadline", func(t *testing.T) {
		p := New(Config{Seed: 1, Latency: time.Second})
		deadlineCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err := p.VerifyDocument(deadlineCtx, models.DocumentPhotoID, []byte("x"))
		assert.Equal(t, providers.ErrorTimeout, providers.GetCategory(err))
	})
}

func TestNameRegistry(t *testing.T) {
	ctx := context.Background()
	p := New(Config{Seed: 1, Taken: []string{"Acme", "Acme Group"}})

	res, err := p.CheckNameAvailability(ctx, "  acme ")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.NotContains(t, res.Alternatives, "Acme Group")
	assert.Contains(t, res.Alternatives, "Acme Holdings")

	res, err = p.CheckNameAvailability(ctx, "Globex")
	require.NoError(t, err)
	assert.True(t, res.Available)

	_, err = p.Incorporate(ctx, providers.IncorporationRequest{Name: "Globex", LegalType: models.LegalTypeLLC, Token: "t1"})
	require.NoError(t, err)

	res, err = p.CheckNameAvailability(ctx, "GLOBEX")
	require.NoError(t, err)
	assert.False(t, res.Available, "incorporation takes the name")
}

func TestIncorporate(t *testing.T) {
	ctx := context.Background()

	t.Run("repeated token returns first result", func(t *testing.T) {
		p := New(Config{Seed: 1})
		req := providers.IncorporationRequest{Name: "Initech", LegalType: models.LegalTypeCorporation, Token: "tok"}
		first, err := p.Incorporate(ctx, req)
		require.NoError(t, err)
		second, err := p.Incorporate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first.RegistrationNumber, second.RegistrationNumber)
		assert.Contains(t, first.RegistrationNumber, "CORP")
	})

	t.Run("taken name rejected", func(t *testing.T) {
		p := New(Config{Seed: 1, Taken: []string{"Hooli"}})
		_, err := p.Incorporate(ctx, providers.IncorporationRequest{Name: "hooli", Token: "a"})
		assert.Equal(t, providers.ErrorRejected, providers.GetCategory(err))
	})

	t.Run("scripted outage", func(t *testing.T) {
		p := New(Config{Seed: 1})
		p.ScriptIncorporation(OutcomeOutage)
		_, err := p.Incorporate(ctx, providers.IncorporationRequest{Name: "Vandelay", Token: "b"})
		assert.Equal(t, providers.ErrorProviderOutage, providers.GetCategory(err))
	})
}
