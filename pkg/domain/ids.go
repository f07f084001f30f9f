// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "residency/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an EntityID where a SessionID is expected.
type (
	SessionID uuid.UUID
	EntityID  uuid.UUID
)

// PlanID is a catalog key (e.g., "starter") rather than a generated identifier.
type PlanID string

func NewSessionID() SessionID { return SessionID(uuid.New()) }
func NewEntityID() EntityID   { return EntityID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

func ParseEntityID(s string) (EntityID, error) {
	id, err := parseUUID(s, "entity ID")
	return EntityID(id), err
}

func ParsePlanID(s string) (PlanID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "plan ID cannot be empty")
	}
	return PlanID(s), nil
}

// String methods - for logging and debugging.

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id EntityID) String() string  { return uuid.UUID(id).String() }
func (id PlanID) String() string    { return string(id) }

// IsNil checks - used for service-layer validation.

func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntityID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PlanID) IsNil() bool    { return id == "" }

// Text marshalling keeps IDs readable in persisted JSON documents.

func (id SessionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id EntityID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }

func (id *SessionID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *EntityID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// parseUUID is the shared validation logic. The nil UUID is never a valid identifier.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
