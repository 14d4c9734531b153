package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError is returned when a user, challenge or other document is missing.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// PreconditionError is returned when the current state forbids the operation
// (already in a challenge, challenge expired, malformed invite code, ...).
type PreconditionError struct {
	Code    string
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// ValidationError is returned for malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RemoteWriteError wraps a failed store write.
type RemoteWriteError struct {
	Op  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

const (
	CodeAlreadyInChallenge = "already_in_challenge"
	CodeChallengeExpired   = "challenge_expired"
	CodeInvalidInviteCode  = "invalid_invite_code"
	CodeFastInProgress     = "fast_in_progress"
	CodeFastNotOngoing     = "fast_not_ongoing"
	CodeNotInChallenge     = "not_in_challenge"
	CodeFriendship         = "friendship"
)

func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func UserNotFound(id string) error {
	return &NotFoundError{Kind: "user", ID: id}
}

func ChallengeNotFound(id string) error {
	return &NotFoundError{Kind: "challenge", ID: id}
}

func ChallengeExpired() error {
	return &PreconditionError{Code: CodeChallengeExpired, Message: "This challenge has expired"}
}

func AlreadyInChallenge() error {
	return &PreconditionError{
		Code:    CodeAlreadyInChallenge,
		Message: "You are already in an active challenge. Complete or leave it before joining another one",
	}
}

func InvalidInviteCode(code string) error {
	return &PreconditionError{
		Code:    CodeInvalidInviteCode,
		Message: fmt.Sprintf("invalid invite code %q: expected 6 letters or digits", code),
	}
}

func FastAlreadyEnded() error {
	return &PreconditionError{Code: CodeFastNotOngoing, Message: "This fast has already ended"}
}

func Precondition(code, message string) error {
	return &PreconditionError{Code: code, Message: message}
}

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func Write(op string, err error) error {
	return &RemoteWriteError{Op: op, Err: err}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// HasCode reports whether err is a PreconditionError with the given code.
func HasCode(err error, code string) bool {
	var pe *PreconditionError
	return errors.As(err, &pe) && pe.Code == code
}

// HTTPStatus maps an error from the taxonomy to a response status.
func HTTPStatus(err error) int {
	var (
		nf *NotFoundError
		pe *PreconditionError
		ve *ValidationError
		we *RemoteWriteError
	)
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &pe):
		return http.StatusConflict
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &we):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
