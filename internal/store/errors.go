package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUniqueViolation     = errors.New("unique violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrDomainViolation     = errors.New("domain violation")
)

// SQLSTATE codes the store classifies.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeInvalidTextRepr     = "22P02"
	codeNumericOutOfRange   = "22003"
)

// ConstraintError is a database constraint failure. It matches both its Kind
// sentinel with errors.Is and the driver's *pq.Error with errors.As.
type ConstraintError struct {
	Kind       error
	Table      string
	Constraint string
	Column     string
	Err        *pq.Error
}

func (e *ConstraintError) Error() string {
	target := e.Table
	if e.Constraint != "" {
		target += "." + e.Constraint
	} else if e.Column != "" {
		target += "." + e.Column
	}
	return fmt.Sprintf("%v on %s: %s", e.Kind, target, e.Err.Message)
}

func (e *ConstraintError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// classify maps driver errors onto the store taxonomy. Everything else is
// returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	var kind error
	switch string(pqErr.Code) {
	case codeUniqueViolation:
		kind = ErrUniqueViolation
	case codeForeignKeyViolation:
		kind = ErrForeignKeyViolation
	case codeCheckViolation, codeNotNullViolation, codeInvalidTextRepr, codeNumericOutOfRange:
		kind = ErrDomainViolation
	default:
		return err
	}

	return &ConstraintError{
		Kind:       kind,
		Table:      pqErr.Table,
		Constraint: pqErr.Constraint,
		Column:     pqErr.Column,
		Err:        pqErr,
	}
}

// notFound turns sql.ErrNoRows into ErrNotFound and classifies the rest.
func notFound(err error, what string, key any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, key, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, classify(err))
}

// ConstraintName returns the violated constraint, or "" when err is not a
// constraint failure.
func ConstraintName(err error) string {
	var cErr *ConstraintError
	if errors.As(err, &cErr) {
		return cErr.Constraint
	}
	return ""
}

// ViolationKind returns a short label for metrics, or "" when err is not a
// constraint failure.
func ViolationKind(err error) string {
	switch {
	case errors.Is(err, ErrUniqueViolation):
		return "unique"
	case errors.Is(err, ErrForeignKeyViolation):
		return "foreign_key"
	case errors.Is(err, ErrDomainViolation):
		return "domain"
	default:
		return ""
	}
}

func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, ErrForeignKeyViolation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
