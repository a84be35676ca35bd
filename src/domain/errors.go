package domain

import (
	"errors"
	"net/http"
)

// ErrorCode identifies a class of domain failure and the HTTP status it
// maps to at the API boundary.
type ErrorCode struct {
	name       string
	httpStatus int
}

var (
	ErrorCodeParameterInvalid     = ErrorCode{"PARAMETER_INVALID", http.StatusBadRequest}
	ErrorCodeResourceNotFound     = ErrorCode{"RESOURCE_NOT_FOUND", http.StatusNotFound}
	ErrorCodeAuthPermissionDenied = ErrorCode{"AUTH_PERMISSION_DENIED", http.StatusForbidden}
	ErrorCodeAuthNotAuthenticated = ErrorCode{"AUTH_NOT_AUTHENTICATED", http.StatusUnauthorized}
	ErrorCodeInternalProcess      = ErrorCode{"INTERNAL_PROCESS", http.StatusInternalServerError}

	// Challenge lifecycle gates. All mean "inapplicable given current
	// state", never "retry later".
	ErrorCodeChallengeNotActive        = ErrorCode{"CHALLENGE_NOT_ACTIVE", http.StatusConflict}
	ErrorCodeChallengeCompleted        = ErrorCode{"CHALLENGE_COMPLETED", http.StatusConflict}
	ErrorCodeChallengeFull             = ErrorCode{"CHALLENGE_FULL", http.StatusConflict}
	ErrorCodeChallengeEnded            = ErrorCode{"CHALLENGE_ENDED", http.StatusConflict}
	ErrorCodeInvalidVerificationDay    = ErrorCode{"INVALID_VERIFICATION_DAY", http.StatusBadRequest}
	ErrorCodeChallengeAlreadyCompleted = ErrorCode{"CHALLENGE_ALREADY_COMPLETED", http.StatusConflict}
	ErrorCodeChallengeNotCompleted     = ErrorCode{"CHALLENGE_NOT_COMPLETED", http.StatusConflict}
	ErrorCodeChallengeNotEnded         = ErrorCode{"CHALLENGE_NOT_ENDED", http.StatusConflict}
	ErrorCodeAlreadyWithdrawn          = ErrorCode{"ALREADY_WITHDRAWN", http.StatusConflict}
	ErrorCodeAlreadyEnrolled           = ErrorCode{"ALREADY_ENROLLED", http.StatusConflict}
	ErrorCodeInsufficientBalance       = ErrorCode{"INSUFFICIENT_BALANCE", http.StatusConflict}
)

// DomainError carries an error code, the underlying cause and an optional
// client-facing message. The zero value maps to a generic internal error.
type DomainError struct {
	code      ErrorCode
	err       error
	clientMsg string
	detail    map[string]interface{}
}

type ErrorOption func(*DomainError)

// WithMsg sets the message returned to the client instead of the raw error.
func WithMsg(msg string) ErrorOption {
	return func(e *DomainError) {
		e.clientMsg = msg
	}
}

// WithDetail attaches structured detail to the error response.
func WithDetail(detail map[string]interface{}) ErrorOption {
	return func(e *DomainError) {
		e.detail = detail
	}
}

func NewError(code ErrorCode, err error, opts ...ErrorOption) DomainError {
	e := DomainError{code: code, err: err}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e DomainError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.clientMsg != "" {
		return e.clientMsg
	}
	return "internal error"
}

func (e DomainError) Unwrap() error {
	return e.err
}

// Is matches any DomainError carrying the same code, so sentinel gate
// errors below work with errors.Is regardless of wrapping.
func (e DomainError) Is(target error) bool {
	var t DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.code == t.code
}

func (e DomainError) Name() string {
	if e.code.name == "" {
		return ErrorCodeInternalProcess.name
	}
	return e.code.name
}

func (e DomainError) HTTPStatus() int {
	if e.code.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.code.httpStatus
}

func (e DomainError) ClientMsg() string {
	return e.clientMsg
}

func (e DomainError) Detail() map[string]interface{} {
	return e.detail
}

// Sentinel gate errors shared by services and tests.
var (
	ErrChallengeNotActive        = NewError(ErrorCodeChallengeNotActive, errors.New("challenge is not active"))
	ErrChallengeCompleted        = NewError(ErrorCodeChallengeCompleted, errors.New("challenge is already completed"))
	ErrChallengeFull             = NewError(ErrorCodeChallengeFull, errors.New("challenge is full"))
	ErrChallengeEnded            = NewError(ErrorCodeChallengeEnded, errors.New("challenge has ended"))
	ErrInvalidVerificationDay    = NewError(ErrorCodeInvalidVerificationDay, errors.New("invalid verification day"))
	ErrUnauthorized              = NewError(ErrorCodeAuthPermissionDenied, errors.New("unauthorized action"))
	ErrChallengeAlreadyCompleted = NewError(ErrorCodeChallengeAlreadyCompleted, errors.New("challenge is already processed"))
	ErrChallengeNotCompleted     = NewError(ErrorCodeChallengeNotCompleted, errors.New("challenge is not completed yet"))
	ErrAlreadyWithdrawn          = NewError(ErrorCodeAlreadyWithdrawn, errors.New("rewards already withdrawn"))
	ErrChallengeNotEnded         = NewError(ErrorCodeChallengeNotEnded, errors.New("challenge has not ended yet"))
	ErrAlreadyEnrolled           = NewError(ErrorCodeAlreadyEnrolled, errors.New("wallet already enrolled in challenge"))
	ErrInsufficientBalance       = NewError(ErrorCodeInsufficientBalance, errors.New("insufficient balance"))
)
