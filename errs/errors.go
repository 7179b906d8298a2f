// Package errs holds the error taxonomy shared by the data mapping packages.
//
// Every failure surfaced by the engine is an *Error carrying a Kind. Callers
// match on the kind with errors.Is against the exported sentinels:
//
//	entity, err := mapper.FindUnique(ctx, "Widget", "Name", "Gear")
//	if errors.Is(err, errs.ErrNotFound) {
//		// expected outcome, the widget does not exist
//	}
//
// errors.As gives access to the entity type, field and wrapped cause.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorises an Error.
type Kind string

const (
	KindConfiguration     Kind = "configuration"
	KindSchema            Kind = "schema"
	KindTypeMapping       Kind = "type_mapping"
	KindNotFound          Kind = "not_found"
	KindShapeMismatch     Kind = "shape_mismatch"
	KindImmutableField    Kind = "immutable_field"
	KindUnknownAttribute  Kind = "unknown_attribute"
	KindStore             Kind = "store"
	KindNoBackend         Kind = "no_backend"
	KindMissingIdentifier Kind = "missing_identifier"
	KindInvalidValue      Kind = "invalid_value"
	KindInvalidKey        Kind = "invalid_key"
	KindInvalidState      Kind = "invalid_state"
	KindInvalidCall       Kind = "invalid_call"
)

// Sentinels for errors.Is matching. They only carry a kind.
var (
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrSchema            = &Error{Kind: KindSchema}
	ErrTypeMapping       = &Error{Kind: KindTypeMapping}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrShapeMismatch     = &Error{Kind: KindShapeMismatch}
	ErrImmutableField    = &Error{Kind: KindImmutableField}
	ErrUnknownAttribute  = &Error{Kind: KindUnknownAttribute}
	ErrStore             = &Error{Kind: KindStore}
	ErrNoBackend         = &Error{Kind: KindNoBackend}
	ErrMissingIdentifier = &Error{Kind: KindMissingIdentifier}
	ErrInvalidValue      = &Error{Kind: KindInvalidValue}
	ErrInvalidKey        = &Error{Kind: KindInvalidKey}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrInvalidCall       = &Error{Kind: KindInvalidCall}
)

// Error is the single error type returned by the engine.
type Error struct {
	Kind    Kind
	Entity  string
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.Kind))
	b.WriteString("]")
	if e.Entity != "" {
		b.WriteString(" ")
		b.WriteString(e.Entity)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(":")
	} else if e.Field != "" {
		b.WriteString(" field '")
		b.WriteString(e.Field)
		b.WriteString("':")
	}
	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Entity == "" && t.Field == "" && t.Message == "" && t.Cause == nil
}

// WithCause sets the wrapped error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newf(kind Kind, entity, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Configuration reports a missing or unusable collaborator.
func Configuration(format string, args ...any) *Error {
	return newf(KindConfiguration, "", "", format, args...)
}

// Schema reports a failed metadata load for entity.
func Schema(entity string, cause error) *Error {
	return newf(KindSchema, entity, "", "unable to load schema").WithCause(cause)
}

// TypeMapping reports a native column type with no bind-type.
func TypeMapping(entity, field, native string) *Error {
	return newf(KindTypeMapping, entity, field, "unknown data type %q", native)
}

// NotFound reports a unique-key lookup without a matching row.
func NotFound(entity, field string, value any) *Error {
	return newf(KindNotFound, entity, field, "unable to find %s with %s of value %v", entity, field, value)
}

// ShapeMismatch reports a bulk row that does not carry the declared field set.
func ShapeMismatch(entity, field, reason string) *Error {
	return newf(KindShapeMismatch, entity, field, "unable to create %s from row: %s", entity, reason)
}

// ImmutableField reports an attempt to change a read-only field.
func ImmutableField(entity, field string) *Error {
	return newf(KindImmutableField, entity, field, "changing of %s is not allowed", field)
}

// UnknownAttribute reports access to an undeclared field.
func UnknownAttribute(entity, field string) *Error {
	return newf(KindUnknownAttribute, entity, field, "missing key %q in %s", field, entity)
}

// Store wraps a store failure, keeping the driver message.
func Store(entity string, cause error) *Error {
	return newf(KindStore, entity, "", "unable to execute database query").WithCause(cause)
}

// NoBackend reports that no cache backend could be constructed.
func NoBackend() *Error {
	return newf(KindNoBackend, "", "", "no cache backend available")
}

// MissingIdentifier reports an operation that needs a persisted ID.
func MissingIdentifier(entity string) *Error {
	return newf(KindMissingIdentifier, entity, "ID", "unable to delete %s without ID", entity)
}

// InvalidValue reports a value that cannot be coerced to a field's bind-type.
func InvalidValue(entity, field string, value any, bind string) *Error {
	return newf(KindInvalidValue, entity, field, "value %v (%T) is not a valid %s", value, value, bind)
}

// InvalidKey reports a unique lookup through a field that is not unique.
func InvalidKey(entity, field string) *Error {
	return newf(KindInvalidKey, entity, field, "%q is not a valid object creation key: it is not unique", field)
}

// InvalidState reports an operation the entity's lifecycle state does not allow.
func InvalidState(entity, state, op string) *Error {
	return newf(KindInvalidState, entity, "", "cannot %s a %s entity", op, state)
}

// InvalidCall reports a malformed accessor call.
func InvalidCall(entity, method, reason string) *Error {
	return newf(KindInvalidCall, entity, "", "invalid call %q: %s", method, reason)
}
