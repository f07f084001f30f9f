// Package resume issues and validates the signed tokens that let an
// applicant return to their session.
package resume

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
	"residency/pkg/platform/middleware/auth"
)

const (
	issuer   = "residency"
	audience = "residency-onboarding"
)

// Claims are the resume token claims. The subject is the session id.
type Claims struct {
	jwt.RegisteredClaims
}

// Service signs resume tokens with HS256.
type Service struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

type Option func(*Service)

// WithClock overrides the clock used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(signingKey string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{signingKey: []byte(signingKey), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for sessionID.
func (s *Service) Issue(sessionID id.SessionID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID.String(),
			Issuer:    issuer,
			Audience:  []string{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign resume token")
	}
	return signed, expiresAt, nil
}

// ValidateToken returns the session a token grants access to.
func (s *Service) ValidateToken(tokenString string) (id.SessionID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "resume token expired")
		}
		return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid resume token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid resume token")
	}
	sessionID, err := id.ParseSessionID(claims.Subject)
	if err != nil {
		return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid resume token subject")
	}
	return sessionID, nil
}

var _ auth.TokenValidator = (*Service)(nil)
