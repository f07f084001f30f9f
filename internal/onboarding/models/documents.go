package models

import (
	"maps"
	"time"
)

// DocumentKind identifies a document the applicant can submit.
type DocumentKind string

const (
	DocumentPhotoID        DocumentKind = "photo_id"
	DocumentSelfie         DocumentKind = "selfie"
	DocumentProofOfAddress DocumentKind = "proof_of_address"
)

// AllDocumentKinds lists the kinds in display order.
var AllDocumentKinds = []DocumentKind{DocumentPhotoID, DocumentSelfie, DocumentProofOfAddress}

// IsValid reports whether k is a known kind.
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentPhotoID, DocumentSelfie, DocumentProofOfAddress:
		return true
	default:
		return false
	}
}

// DocumentStatus is the verification state of one submission.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentVerified   DocumentStatus = "verified"
	DocumentRejected   DocumentStatus = "rejected"
)

// DocumentSubmission is one attempt at verifying a document kind.
type DocumentSubmission struct {
	Kind   DocumentKind   `json:"kind"`
	Status DocumentStatus `json:"status"`
	// Attempt is 1 for the first submission of a kind and grows by one per
	// resubmission and per provider retry.
	Attempt int `json:"attempt"`
	// ExtractedData is only present once verified.
	ExtractedData map[string]string `json:"extracted_data,omitempty"`
	// Score is the provider's confidence in [0,1]; meaningful only when verified.
	Score float64 `json:"score,omitempty"`
	// Reason explains a rejection or the last transient failure.
	Reason string `json:"reason,omitempty"`
	// ProviderCalls counts provider answers recorded for this attempt.
	ProviderCalls int `json:"provider_calls"`
	// ConsecutiveRejections counts rejected attempts in a row for this kind.
	ConsecutiveRejections int `json:"consecutive_rejections"`

	SubmittedAt time.Time  `json:"submitted_at"`
	CheckedAt   *time.Time `json:"checked_at,omitempty"`
}

// IsVerified reports whether the submission passed verification.
func (d DocumentSubmission) IsVerified() bool {
	return d.Status == DocumentVerified
}

func (d DocumentSubmission) clone() DocumentSubmission {
	c := d
	if d.ExtractedData != nil {
		c.ExtractedData = maps.Clone(d.ExtractedData)
	}
	if d.CheckedAt != nil {
		t := *d.CheckedAt
		c.CheckedAt = &t
	}
	return c
}

// NextAttempt builds the submission that supersedes prev (nil for a first submission).
func NextAttempt(kind DocumentKind, prev *DocumentSubmission, now time.Time) DocumentSubmission {
	sub := DocumentSubmission{
		Kind:        kind,
		Status:      DocumentProcessing,
		Attempt:     1,
		SubmittedAt: now,
	}
	if prev != nil {
		sub.Attempt = prev.Attempt + 1
		sub.ConsecutiveRejections = prev.ConsecutiveRejections
	}
	return sub
}
