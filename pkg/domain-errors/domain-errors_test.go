package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: every orchestrator result crosses the HTTP boundary as one of
// these codes, so "wrapping keeps the original code" and "errors.Is matches by
// code" must hold.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("message wins over code", func() {
		err := &Error{Code: CodeGateNotSatisfied, Message: "selfie not verified"}
		s.Equal("selfie not verified", err.Error())
	})

	s.Run("falls back to code", func() {
		err := &Error{Code: CodeVersionConflict}
		s.Equal("version_conflict", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	s.Run("same code different message", func() {
		a := &Error{Code: CodeInvalidTransition, Message: "select_plan from registered"}
		b := &Error{Code: CodeInvalidTransition, Message: "abandon from abandoned"}
		s.True(errors.Is(a, b))
	})

	s.Run("different codes", func() {
		s.False(errors.Is(&Error{Code: CodeVerificationRejected}, &Error{Code: CodeVerificationTimeout}))
	})

	s.Run("plain error target", func() {
		s.False((&Error{Code: CodeNotFound}).Is(errors.New("not_found")))
	})

	s.Run("found through fmt wrapping", func() {
		inner := New(CodeDuplicateEmail, "email already onboarding")
		wrapped := fmt.Errorf("register: %w", inner)
		s.True(errors.Is(wrapped, &Error{Code: CodeDuplicateEmail}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps existing domain code", func() {
		original := New(CodeVerificationTimeout, "photo_id check timed out")
		wrapped := Wrap(original, CodeInternal, "submit document")

		var de *Error
		s.Require().True(errors.As(wrapped, &de))
		s.Equal(CodeVerificationTimeout, de.Code)
		s.Equal("submit document", de.Message)
	})

	s.Run("uses given code for foreign errors", func() {
		root := errors.New("connection reset")
		wrapped := Wrap(root, CodeInternal, "load session")

		s.True(HasCode(wrapped, CodeInternal))
		s.True(errors.Is(wrapped, root))
	})
}

func (s *DomainErrorsSuite) TestHasCodeAndCodeOf() {
	s.Run("nil error", func() {
		s.False(HasCode(nil, CodeNotFound))
	})

	s.Run("foreign error maps to internal", func() {
		s.Equal(CodeInternal, CodeOf(errors.New("boom")))
	})

	s.Run("domain error code", func() {
		s.Equal(CodeGateNotSatisfied, CodeOf(New(CodeGateNotSatisfied, "x")))
	})
}

func (s *DomainErrorsSuite) TestRetryable() {
	retryable := []Code{CodeVerificationTimeout, CodeProviderUnavailable, CodeVersionConflict, CodeRateLimited}
	for _, c := range retryable {
		s.True(Retryable(c), string(c))
	}

	needsInput := []Code{CodeValidation, CodeInvalidTransition, CodeGateNotSatisfied, CodeVerificationRejected, CodeDuplicateEmail, CodeNotFound}
	for _, c := range needsInput {
		s.False(Retryable(c), string(c))
	}
}
