package validation

import (
	"fmt"

	dErrors "residency/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize bounds JSON requests. Document payloads are base64 inside the body.
	MaxBodySize = 8 * 1024 * 1024
)

// Element count limits
const (
	// MaxBatchDocuments is the number of document kinds that exist.
	MaxBatchDocuments = 3
)

// String length limits
const (
	MaxNameLength           = 200
	MaxEmailLength          = 255
	MaxPhoneLength          = 32
	MaxEntityNameLength     = 120
	MaxIdempotencyKeyLength = 128
	// MaxDocumentPayloadBytes bounds a decoded document image/scan.
	MaxDocumentPayloadBytes = 5 * 1024 * 1024
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
