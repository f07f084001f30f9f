package models

import (
	"time"

	id "residency/pkg/domain"
)

// LegalType is the legal form of an incorporated entity.
type LegalType string

const (
	LegalTypeLLC         LegalType = "llc"
	LegalTypeCorporation LegalType = "corporation"
	LegalTypeNonProfit   LegalType = "non_profit"
)

// IsValid reports whether t is a supported legal form.
func (t LegalType) IsValid() bool {
	switch t {
	case LegalTypeLLC, LegalTypeCorporation, LegalTypeNonProfit:
		return true
	default:
		return false
	}
}

// EntityStatus tracks incorporation progress.
type EntityStatus string

const (
	EntityForming EntityStatus = "forming"
	EntityActive  EntityStatus = "active"
	EntityFailed  EntityStatus = "failed"
)

// EntityRecord is a legal entity tied to a session. Records are append-only.
type EntityRecord struct {
	ID        id.EntityID  `json:"id"`
	Name      string       `json:"name"`
	LegalType LegalType    `json:"legal_type"`
	Status    EntityStatus `json:"status"`
	// RegistrationNumber is set if and only if Status is active.
	RegistrationNumber string `json:"registration_number,omitempty"`
	FailureReason      string `json:"failure_reason,omitempty"`
	// FailureCode is the error code the registrar failure was reported with.
	FailureCode      string `json:"failure_code,omitempty"`
	IdempotencyToken string `json:"idempotency_token"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkActive records a successful incorporation.
func (e *EntityRecord) MarkActive(registrationNumber string, now time.Time) {
	e.Status = EntityActive
	e.RegistrationNumber = registrationNumber
	e.FailureReason = ""
	e.FailureCode = ""
	e.UpdatedAt = now
}

// MarkFailed records a failed incorporation.
func (e *EntityRecord) MarkFailed(code, reason string, now time.Time) {
	e.Status = EntityFailed
	e.RegistrationNumber = ""
	e.FailureCode = code
	e.FailureReason = reason
	e.UpdatedAt = now
}
