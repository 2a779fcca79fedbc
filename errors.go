package pgbulk

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Standard sentinel errors for common failure modes.
var (
	// ErrEmptyBatch is returned by the low-level load path when it is
	// handed zero records. The public operations treat an empty batch as
	// a no-op instead.
	ErrEmptyBatch = errors.New("pgbulk: no records to load")

	// ErrMixedIdentity is returned when an insert batch mixes records
	// that have an identity value with records that do not. It is
	// ambiguous whether the identity column belongs in the generated
	// INSERT; split the batch into two groups instead.
	ErrMixedIdentity = errors.New("pgbulk: batch mixes records with and without identity values")

	// ErrNoResults is returned when result materialization was requested
	// but none of the executed statements was capable of returning rows.
	ErrNoResults = errors.New("pgbulk: no statement returned rows")

	// ErrMergeUnsupported classifies a MERGE statement rejected by the
	// connected server, typically because it predates PostgreSQL 15.
	ErrMergeUnsupported = errors.New("pgbulk: MERGE is not supported by the connected server")

	// ErrUnknownField is returned when a field name does not exist in
	// the schema.
	ErrUnknownField = errors.New("pgbulk: unknown field")
)

// ConfigError reports an invalid combination of operation parameters.
// It is raised synchronously, before any database I/O.
type ConfigError struct {
	Op     string // operation name, e.g. "upsert"
	Reason string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("pgbulk: %s: %s", e.Op, e.Reason)
}

func configErrorf(op, format string, args ...any) error {
	return &ConfigError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// NoResultsError carries context for a materialization request that no
// executed statement could satisfy.
type NoResultsError struct {
	Op         string
	Statements int // number of statements executed
}

// Error returns the error string.
func (e *NoResultsError) Error() string {
	return fmt.Sprintf("pgbulk: %s: none of the %d executed statements returned rows; use RETURNING or a SELECT to materialize records", e.Op, e.Statements)
}

// Is reports whether the target error matches ErrNoResults.
func (e *NoResultsError) Is(err error) bool {
	return err == ErrNoResults
}

// UnknownFieldError reports a field name missing from a schema.
type UnknownFieldError struct {
	Table string
	Name  string
}

// Error returns the error string.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("pgbulk: table %q has no field %q", e.Table, e.Name)
}

// Is reports whether the target error matches ErrUnknownField.
func (e *UnknownFieldError) Is(err error) bool {
	return err == ErrUnknownField
}

// mergeUnsupported classifies an execution error as "the server cannot
// run MERGE". SQLSTATE 42601 (syntax error) is what pre-15 servers report
// for the unknown keyword; 0A000 (feature not supported) covers servers
// that parse but refuse it.
func mergeUnsupported(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "42601" || pgErr.Code == "0A000"
}
