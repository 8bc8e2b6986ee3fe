package shared

// DomainError represents a domain-level error.
// Two DomainErrors match under errors.Is when their codes are equal, so callers
// can test against the sentinel values below regardless of the message.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target carries the same error code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error with a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message, cause: e.cause}
}

// WithCause returns a copy of the error wrapping cause
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, cause: cause}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrNoIdentity          = NewDomainError("NO_IDENTITY", "No tenant identity could be resolved")
	ErrConstraintViolation = NewDomainError("CONSTRAINT_VIOLATION", "Write violates a store constraint")
	ErrStoreUnavailable    = NewDomainError("STORE_UNAVAILABLE", "Fact store is temporarily unavailable")
	ErrSyncInProgress      = NewDomainError("SYNC_IN_PROGRESS", "A sync run is already in progress for this tenant")
)

// Specific constraint violations
var (
	ErrDuplicateInvoiceNumber = ErrConstraintViolation.WithMessage("Invoice number already exists for this tenant")
	ErrStaleWrite             = ErrConstraintViolation.WithMessage("Record was modified by another writer")
)
