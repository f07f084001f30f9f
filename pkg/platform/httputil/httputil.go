package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "residency/pkg/domain-errors"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	// Retryable tells the client the same request may succeed unchanged.
	Retryable bool `json:"retryable"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	status, body := ErrorBody(err)
	WriteJSON(w, status, body)
}

// ErrorBody returns the status and body WriteError would send for err.
// Handlers that answer with a partial result embed the body next to it.
func ErrorBody(err error) (int, ErrorResponse) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, ErrorResponse{Error: DomainCodeToHTTPCode(dErrors.CodeInternal)}
	}
	response := ErrorResponse{
		Error:     DomainCodeToHTTPCode(domainErr.Code),
		Retryable: dErrors.Retryable(domainErr.Code),
	}
	// Internal errors keep their details in the logs.
	if domainErr.Code != dErrors.CodeInternal {
		response.ErrorDescription = domainErr.Message
	}
	return DomainCodeToHTTPStatus(domainErr.Code), response
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeInvalidTransition, dErrors.CodeDuplicateEmail, dErrors.CodeVersionConflict:
		return http.StatusConflict
	case dErrors.CodeGateNotSatisfied:
		return http.StatusPreconditionFailed
	case dErrors.CodeVerificationRejected:
		return http.StatusUnprocessableEntity
	case dErrors.CodeVerificationTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the "error" field of the JSON body.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeInvalidTransition, dErrors.CodeGateNotSatisfied,
		dErrors.CodeVerificationRejected, dErrors.CodeVerificationTimeout,
		dErrors.CodeProviderUnavailable, dErrors.CodeDuplicateEmail,
		dErrors.CodeVersionConflict, dErrors.CodeUnauthorized, dErrors.CodeRateLimited:
		return string(code)
	default:
		return "internal_error"
	}
}
