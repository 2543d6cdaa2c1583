package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when a field-level or cross-field rule is violated.
// Fields is nil for errors that do not belong to a single field.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

// UniqueConstraintError is returned when a record conflicts with an existing one.
type UniqueConstraintError struct {
	Entity string
	Fields []string
}

func NewUniqueConstraintError(entity string, fields ...string) error {
	return &UniqueConstraintError{Entity: entity, Fields: fields}
}

func (err UniqueConstraintError) Error() string {
	if len(err.Fields) == 0 {
		return fmt.Sprintf("%s already exists", err.Entity)
	}
	return fmt.Sprintf("%s with this %s already exists", err.Entity, joinFields(err.Fields))
}

// ReferentialIntegrityError is returned when a deletion is blocked by dependent records.
type ReferentialIntegrityError struct {
	Entity     string
	Dependents string
	Count      int
}

func NewReferentialIntegrityError(entity, dependents string, count int) error {
	return &ReferentialIntegrityError{Entity: entity, Dependents: dependents, Count: count}
}

func (err ReferentialIntegrityError) Error() string {
	if err.Count > 0 {
		return fmt.Sprintf("cannot delete %s: it is referenced by %d %s", err.Entity, err.Count, err.Dependents)
	}
	return fmt.Sprintf("cannot delete %s: it is referenced by %s", err.Entity, err.Dependents)
}

// NotFoundError is returned when a record does not exist.
type NotFoundError struct {
	Entity string
}

func NewNotFoundError(entity string) error {
	return &NotFoundError{Entity: entity}
}

func (err NotFoundError) Error() string {
	return err.Entity + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

func joinFields(flds []string) string {
	switch len(flds) {
	case 1:
		return flds[0]
	case 2:
		return flds[0] + " and " + flds[1]
	default:
		return strings.Join(flds[:len(flds)-1], ", ") + " and " + flds[len(flds)-1]
	}
}
