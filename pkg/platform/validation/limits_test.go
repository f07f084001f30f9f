package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "residency/pkg/domain-errors"
)

func TestCheckSliceCount(t *testing.T) {
	assert.NoError(t, CheckSliceCount("documents", 3, MaxBatchDocuments))
	err := CheckSliceCount("documents", 4, MaxBatchDocuments)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), "too many documents")
}

func TestCheckStringLength(t *testing.T) {
	assert.NoError(t, CheckStringLength("name", "Acme", MaxEntityNameLength))
	err := CheckStringLength("idempotency_key", strings.Repeat("k", MaxIdempotencyKeyLength+1), MaxIdempotencyKeyLength)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
