// Package providers defines the external verification collaborators: the
// document verifier, the entity-name registry and the incorporation registrar.
package providers

import (
	"context"
	"time"

	"residency/internal/onboarding/models"
)

// DocumentResult is a successful document verification.
type DocumentResult struct {
	ExtractedData map[string]string
	// Score is the provider's confidence in [0,1].
	Score     float64
	CheckedAt time.Time
}

// NameResult answers an entity-name availability check.
type NameResult struct {
	Available bool
	// Alternatives are suggested free names when the candidate is taken.
	Alternatives []string
}

// IncorporationRequest asks the registrar to form an entity.
type IncorporationRequest struct {
	Name      string
	LegalType models.LegalType
	// Token lets the registrar deduplicate retried requests.
	Token string
}

// IncorporationResult is a successful incorporation.
type IncorporationResult struct {
	RegistrationNumber string
}

// DocumentVerifier checks identity documents.
//
// Implementations return a *ProviderError with ErrorRejected when the document
// is refused and ErrorTimeout when ctx expires first.
type DocumentVerifier interface {
	VerifyDocument(ctx context.Context, kind models.DocumentKind, payload []byte) (*DocumentResult, error)
}

// NameChecker queries entity-name availability. Calls are idempotent.
type NameChecker interface {
	CheckNameAvailability(ctx context.Context, candidate string) (*NameResult, error)
}

// Registrar incorporates legal entities.
type Registrar interface {
	Incorporate(ctx context.Context, req IncorporationRequest) (*IncorporationResult, error)
}

// HealthChecker is implemented by providers that can report reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}
