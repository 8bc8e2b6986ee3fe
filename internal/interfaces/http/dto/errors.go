package dto

import (
	"errors"
	"net/http"

	"github.com/erp/fincore/internal/domain/shared"
)

// API error codes, ERR_<DESCRIPTION>.
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeValidation = "ERR_VALIDATION"

	ErrCodeNoIdentity   = "ERR_NO_IDENTITY"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeForbidden    = "ERR_FORBIDDEN"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeConstraintViolation = "ERR_CONSTRAINT_VIOLATION"
	ErrCodeSyncInProgress      = "ERR_SYNC_IN_PROGRESS"
	ErrCodeStoreUnavailable    = "ERR_STORE_UNAVAILABLE"
)

var statusByCode = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeNoIdentity:   http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeConstraintViolation: http.StatusConflict,
	ErrCodeSyncInProgress:      http.StatusConflict,
	ErrCodeStoreUnavailable:    http.StatusServiceUnavailable,
}

// apiCodeByDomainCode covers every shared sentinel error.
var apiCodeByDomainCode = map[string]string{
	shared.ErrNoIdentity.Code:          ErrCodeNoIdentity,
	shared.ErrNotFound.Code:            ErrCodeNotFound,
	shared.ErrInvalidInput.Code:        ErrCodeInvalidInput,
	shared.ErrInvalidState.Code:        ErrCodeInvalidState,
	shared.ErrConstraintViolation.Code: ErrCodeConstraintViolation,
	shared.ErrSyncInProgress.Code:      ErrCodeSyncInProgress,
	shared.ErrStoreUnavailable.Code:    ErrCodeStoreUnavailable,
}

// GetHTTPStatus returns the status of an API code, 500 for unknown codes.
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode turns a domain code into its API code. API and unknown
// codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := apiCodeByDomainCode[code]; ok {
		return apiCode
	}
	return code
}

// ErrorStatus describes how err is reported: its API code, HTTP status and
// client-safe message. Errors that are not a DomainError become an opaque
// internal error.
func ErrorStatus(err error) (code string, status int, message string) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return ErrCodeInternal, http.StatusInternalServerError, "An unexpected error occurred"
	}
	code = NormalizeErrorCode(domainErr.Code)
	return code, GetHTTPStatus(code), domainErr.Message
}
