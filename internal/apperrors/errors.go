// Package apperrors defines the error kinds shared by the locking and
// reservation engine and the HTTP adapter that translates them into status
// codes (see spec §7).
package apperrors

import "fmt"

// Kind identifies one of the engine's well-known failure modes.
type Kind string

const (
	ResourceNotFound             Kind = "ResourceNotFound"
	ResourceAlreadyLocked        Kind = "ResourceAlreadyLocked"
	ResourceAlreadyUnlocked      Kind = "ResourceAlreadyUnlocked"
	InvalidLockToken             Kind = "InvalidLockToken"
	InvalidTTL                   Kind = "InvalidTTL"
	InsufficientResources        Kind = "InsufficientResources"
	InvalidReservationTags       Kind = "InvalidReservationTags"
	ReservationNotFound          Kind = "ReservationNotFound"
	ReservationNotFulfilled      Kind = "ReservationNotFulfilled"
	ReservationClaimExpired      Kind = "ReservationClaimExpired"
	ReservationCannotBeCancelled Kind = "ReservationCannotBeCancelled"
	ResourceDescriptorIsEmpty    Kind = "ResourceDescriptorIsEmpty"
	InvalidCriterion             Kind = "InvalidCriterion"
)

// Error is the engine's structured error value. It carries a message for
// humans, a stable Kind for callers that want to switch on it, and a
// Details bag for machine-readable context (mirrors the teacher's
// engine/core.Error shape: Message/Code/Details plus an unwrappable cause).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

// New builds an *Error of the given kind with a human message and optional
// context details.
func New(kind Kind, message string, details map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// Wrap builds an *Error of the given kind around an existing error,
// preserving it for Unwrap/errors.Is.
func Wrap(kind Kind, err error, message string, details map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Details: details, cause: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// AsMap renders the error as the JSON-ready body the HTTP adapter writes
// directly to the response (message plus flattened context keys).
func (e *Error) AsMap() map[string]any {
	if e == nil {
		return nil
	}
	body := map[string]any{"message": e.Message}
	for k, v := range e.Details {
		body[k] = v
	}
	return body
}

// Is allows errors.Is(err, apperrors.New(kind, "", nil)) style comparisons
// by Kind rather than pointer identity.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if ok := asError(err, &appErr); ok {
		return appErr.Kind, true
	}
	return "", false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if ae, ok := err.(*Error); ok {
			*target = ae
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Details is a small helper for building the Details map inline at call
// sites, e.g. apperrors.Details("resource_id", id).
func Details(kv ...any) map[string]any {
	if len(kv)%2 != 0 {
		panic("apperrors.Details: odd number of arguments")
	}
	out := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("apperrors.Details: key %v is not a string", kv[i]))
		}
		out[key] = kv[i+1]
	}
	return out
}
