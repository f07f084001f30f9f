// Package store persists applicant sessions.
//
// Error contract, shared by every implementation:
//   - Create returns sentinel.ErrDuplicate when the id exists or the email
//     belongs to another non-terminal session
//   - Load returns sentinel.ErrNotFound for unknown ids
//   - CompareAndSwap returns sentinel.ErrConflict when the stored version is
//     not the expected one, and sentinel.ErrDuplicate on an email collision
//   - infrastructure failures are wrapped with context
//
// Stores copy sessions in and out; callers never share memory with the store.
package store

import (
	"strings"

	"residency/internal/onboarding/models"
)

// DefaultListLimit bounds ListInactive when the caller passes no limit.
const DefaultListLimit = 100

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// holdsEmail reports whether a session reserves its email address.
func holdsEmail(s *models.ApplicantSession) bool {
	return !s.IsTerminal()
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
