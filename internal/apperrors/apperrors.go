// Package apperrors defines the error taxonomy shared by services and handlers.
// Every failure carries the entity name and a machine readable key so the
// transport layer can render it without string matching.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Use errors.Is against these.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrIDMismatch     = errors.New("id mismatch")
	ErrMissingID      = errors.New("missing id")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
)

// Error is a request-scoped failure attributed to one entity.
type Error struct {
	Kind    error
	Entity  string
	Key     string
	Message string
	// Status overrides the default status of Kind when non-zero.
	Status      int
	FieldErrors map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (%s.%s)", e.Kind, e.Message, e.Entity, e.Key)
	}
	return fmt.Sprintf("%s (%s.%s)", e.Kind, e.Entity, e.Key)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// HTTPStatus returns the status code the error should be answered with.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	if errors.Is(e.Kind, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// InvalidRequest reports a malformed or contradictory request, e.g. an id on create.
func InvalidRequest(entity, key, msg string) *Error {
	return &Error{Kind: ErrInvalidRequest, Entity: entity, Key: key, Message: msg}
}

// IDMismatch reports a path id that disagrees with the body id.
func IDMismatch(entity string) *Error {
	return &Error{Kind: ErrIDMismatch, Entity: entity, Key: "idinvalid", Message: "Invalid ID"}
}

// MissingID reports a body without the id it requires.
func MissingID(entity string) *Error {
	return &Error{Kind: ErrMissingID, Entity: entity, Key: "idnull", Message: "Invalid id"}
}

// NotFound reports that no record exists for the given id.
func NotFound(entity string, id int64) *Error {
	return &Error{
		Kind:    ErrNotFound,
		Entity:  entity,
		Key:     "idnotfound",
		Message: fmt.Sprintf("%s with ID %d not found", entity, id),
	}
}

// Validation reports schema constraint violations keyed by field name.
func Validation(entity string, fields map[string]string) *Error {
	return &Error{
		Kind:        ErrValidation,
		Entity:      entity,
		Key:         "validation",
		Message:     "Validation failed",
		FieldErrors: fields,
	}
}

// As extracts an *Error from err, if there is one.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
