// Package apperror models the error taxonomy every HTTP handler maps
// responses through: validation, authentication, authorization, not-found,
// conflict, upstream failure, and an internal catch-all.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the seven taxonomy buckets in the error handling design.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindUpstream
)

func (k Kind) status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a taxonomy-tagged error carrying a stable SNAKE_CASE code and a
// human-readable message. It never embeds raw provider error text; callers
// wrap underlying errors with fmt.Errorf for logs, and construct an Error
// with a safe message for the HTTP response.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status code for this error's kind.
func (e *Error) Status() int { return e.Kind.status() }

func new(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches cause to err for logging without leaking it to clients.
func (e *Error) Wrap(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

func Validation(code, message string) *Error     { return new(KindValidation, code, message) }
func Authentication(code, message string) *Error { return new(KindAuthentication, code, message) }
func Authorization(code, message string) *Error   { return new(KindAuthorization, code, message) }
func NotFound(code, message string) *Error        { return new(KindNotFound, code, message) }
func Conflict(code, message string) *Error        { return new(KindConflict, code, message) }
func Upstream(code, message string) *Error        { return new(KindUpstream, code, message) }
func Internal(code, message string) *Error        { return new(KindInternal, code, message) }

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Common, reused codes (spec §4.4, §7).
const (
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeCannotModifyOwner       = "CANNOT_MODIFY_OWNER"
	CodeCannotModifySelf        = "CANNOT_MODIFY_SELF"
	CodeCannotRemoveOwner       = "CANNOT_REMOVE_OWNER"
	CodePendingInvitation       = "PENDING_INVITATION"
	CodeAlreadyMember           = "ALREADY_MEMBER"
	CodeAlreadyMerged           = "ALREADY_MERGED"
	CodeInvitationExpired       = "INVITATION_EXPIRED"
	CodeEmailMismatch           = "EMAIL_MISMATCH"
	CodeInvitationNotFound      = "INVITATION_NOT_FOUND"
	CodeValidation              = "VALIDATION_ERROR"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeNotFound                = "NOT_FOUND"
	CodeConflict                = "CONFLICT"
	CodeInternal                = "INTERNAL_ERROR"
)
