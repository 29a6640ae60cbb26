package workflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindInvalidState  Kind = "invalid_state"
)

// Error is the only error type the workflow reports to callers. Anything else
// coming out of the service layer is an infrastructure failure.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func ValidationError(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func ConflictError(message string) *Error {
	return NewError(KindConflict, message)
}

func AuthorizationError(message string) *Error {
	return NewError(KindAuthorization, message)
}

func NotFoundError(message string) *Error {
	return NewError(KindNotFound, message)
}

func InvalidStateError(message string) *Error {
	return NewError(KindInvalidState, message)
}

// KindOf returns the kind of a workflow error anywhere in err's chain, or ""
// when err is not one.
func KindOf(err error) Kind {
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
