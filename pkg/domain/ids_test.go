package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "residency/pkg/domain-errors"
)

// TestParseSessionID_Invariants validates "IDs must be valid, non-empty, non-nil UUIDs".
//
// Justification: session IDs arrive from URLs and resume tokens; this is the
// only trust boundary check they get.
func TestParseSessionID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseSessionID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseSessionID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseSessionID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseSessionID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, SessionID(raw), id)
		assert.False(t, id.IsNil())
	})
}

func TestParsePlanID(t *testing.T) {
	_, err := ParsePlanID("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	id, err := ParsePlanID("starter")
	require.NoError(t, err)
	assert.Equal(t, PlanID("starter"), id)
}

func TestIDsRoundTripAsJSONStrings(t *testing.T) {
	type doc struct {
		Session SessionID `json:"session"`
		Entity  EntityID  `json:"entity"`
	}
	in := doc{Session: NewSessionID(), Entity: NewEntityID()}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), in.Session.String())

	var out doc
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}
