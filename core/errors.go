package core

import (
	"errors"
	"fmt"
)

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidAddress   = errors.New("invalid stellar address")
	ErrNonceNotFound    = errors.New("nonce not found or expired")
	ErrNonceMismatch    = errors.New("nonce does not match")

	ErrUserNotFound           = errors.New("user not found")
	ErrUserAlreadyDeactivated = errors.New("user already deactivated")
	ErrUserNotDeactivated     = errors.New("user is not deactivated")
	ErrUserDeactivated        = errors.New("user account has been deactivated")

	ErrContractNotConfigured = errors.New("contract not configured")
)

// Kind classifies an error for the transport layer
type Kind string

const (
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindInvalidCredential  Kind = "INVALID_CREDENTIAL"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindAccountDeactivated Kind = "ACCOUNT_DEACTIVATED"
	KindUpstream           Kind = "UPSTREAM"
	KindInternal           Kind = "INTERNAL"
)

// Error is a classified error carrying a client facing code and message
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput builds an INVALID_INPUT error
func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Code: string(KindInvalidInput), Message: message}
}

// InvalidCredential builds an INVALID_CREDENTIAL error wrapping cause
func InvalidCredential(message string, cause error) *Error {
	return &Error{Kind: KindInvalidCredential, Code: string(KindInvalidCredential), Message: message, Err: cause}
}

// Upstream builds an UPSTREAM error for failing external collaborators
func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: string(KindUpstream), Message: message, Err: cause}
}

// NewError builds a classified error with an explicit client facing code
func NewError(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: cause}
}

// Unauthenticated builds an UNAUTHENTICATED error wrapping cause
func Unauthenticated(message string, cause error) *Error {
	return &Error{Kind: KindUnauthenticated, Code: string(KindUnauthenticated), Message: message, Err: cause}
}
