package handler

import (
	"encoding/base64"
	"time"

	"residency/internal/onboarding/models"
	"residency/internal/onboarding/service"
	id "residency/pkg/domain"
	dErrors "residency/pkg/domain-errors"
	"residency/pkg/platform/httputil"
	pstrings "residency/pkg/platform/strings"
	"residency/pkg/validation"
)

// RegisterRequest is the body of POST /v1/applicants.
type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,notblank,max=200"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
	Country  string `json:"country" validate:"required,len=2"`
}

func (r *RegisterRequest) Normalize() {
	pstrings.TrimStrings(&r.FullName, &r.Email, &r.Phone, &r.Country)
}

func (r *RegisterRequest) Validate() error {
	return validation.Validate(r)
}

func (r *RegisterRequest) toInput() service.ProfileInput {
	return service.ProfileInput{FullName: r.FullName, Email: r.Email, Phone: r.Phone, Country: r.Country}
}

// RegisterResponse carries the resume token the client presents on every
// /v1/applicants/{id} route.
type RegisterResponse struct {
	SessionID            id.SessionID `json:"session_id"`
	ResumeToken          string       `json:"resume_token"`
	ResumeTokenExpiresAt time.Time    `json:"resume_token_expires_at"`
	CurrentStep          models.Step  `json:"current_step"`
}

// DocumentRequest is one document upload. Payload is base64.
type DocumentRequest struct {
	Kind    string `json:"kind" validate:"required,oneof=photo_id selfie proof_of_address"`
	Payload string `json:"payload" validate:"required,base64"`
}

func (r *DocumentRequest) Validate() error {
	return validation.Validate(r)
}

func (r *DocumentRequest) toInput() (service.DocumentInput, error) {
	raw, err := base64.StdEncoding.DecodeString(r.Payload)
	if err != nil {
		return service.DocumentInput{}, dErrors.New(dErrors.CodeValidation, "payload must be base64 encoded")
	}
	return service.DocumentInput{Kind: models.DocumentKind(r.Kind), Payload: raw}, nil
}

// BatchDocumentsRequest is the body of POST /documents:batch.
type BatchDocumentsRequest struct {
	Documents []DocumentRequest `json:"documents" validate:"required,min=1,dive"`
}

func (r *BatchDocumentsRequest) Validate() error {
	return validation.Validate(r)
}

// DocumentResponse reports one submission. Error is set when verification
// rejected or timed out; the document is still recorded.
type DocumentResponse struct {
	Document *models.DocumentSubmission `json:"document,omitempty"`
	Error    *httputil.ErrorResponse    `json:"error,omitempty"`
}

// BatchDocumentsResponse holds per-kind outcomes in request order.
type BatchDocumentsResponse struct {
	Results []DocumentResponse `json:"results"`
}

// CheckNameRequest is the body of POST /v1/entity-names/check.
type CheckNameRequest struct {
	Name string `json:"name" validate:"required,notblank,max=120"`
}

func (r *CheckNameRequest) Normalize() {
	r.Name = pstrings.CollapseSpaces(r.Name)
}

func (r *CheckNameRequest) Validate() error {
	return validation.Validate(r)
}

// SelectPlanRequest is the body of POST /v1/applicants/{id}/plan.
type SelectPlanRequest struct {
	PlanID string `json:"plan_id" validate:"required,max=64"`
}

func (r *SelectPlanRequest) Normalize() {
	pstrings.TrimStrings(&r.PlanID)
}

func (r *SelectPlanRequest) Validate() error {
	return validation.Validate(r)
}

// IncorporateRequest is the body of POST /v1/applicants/{id}/entities.
// The idempotency token travels in the Idempotency-Key header.
type IncorporateRequest struct {
	Name      string `json:"name" validate:"required,notblank,max=120"`
	LegalType string `json:"legal_type" validate:"required,oneof=llc corporation non_profit"`
}

func (r *IncorporateRequest) Normalize() {
	r.Name = pstrings.CollapseSpaces(r.Name)
	pstrings.TrimStrings(&r.LegalType)
}

func (r *IncorporateRequest) Validate() error {
	return validation.Validate(r)
}

// EntityResponse reports an incorporation. Error is set when the registrar failed.
type EntityResponse struct {
	Entity       *models.EntityRecord    `json:"entity,omitempty"`
	Alternatives []string                `json:"alternatives,omitempty"`
	Error        *httputil.ErrorResponse `json:"error,omitempty"`
}

// SessionResponse is the applicant's view of the session.
type SessionResponse struct {
	ID           id.SessionID                `json:"id"`
	CurrentStep  models.Step                 `json:"current_step"`
	KYCLevel     models.KYCLevel             `json:"kyc_level"`
	Profile      models.Profile              `json:"profile"`
	Documents    []models.DocumentSubmission `json:"documents"`
	SelectedPlan id.PlanID                   `json:"selected_plan,omitempty"`
	Entities     []models.EntityRecord       `json:"entities"`
	History      []models.StepTransition     `json:"history"`
	Version      int64                       `json:"version"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func toSessionResponse(s *models.ApplicantSession) SessionResponse {
	return SessionResponse{
		ID:           s.ID,
		CurrentStep:  s.CurrentStep,
		KYCLevel:     s.KYCLevel,
		Profile:      s.Profile,
		Documents:    s.Documents,
		SelectedPlan: s.SelectedPlan,
		Entities:     s.Entities,
		History:      s.History,
		Version:      s.Version,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// PlansResponse lists the catalog.
type PlansResponse struct {
	Plans []models.Plan `json:"plans"`
}
