package pgbulk

import (
	"github.com/go-pkgz/lgr"

	"github.com/syssam/pgbulk/sqlgen"
)

// Config carries loader-wide defaults. The zero value is usable: MERGE
// is opt-in per call, fallback is enabled, and logging goes to the lgr
// default logger.
type Config struct {
	// UseMergeByDefault makes update and upsert take the MERGE path
	// unless the call site overrides it.
	UseMergeByDefault bool
	// DisableMergeFallback propagates a MERGE-unsupported failure to the
	// caller instead of retrying with the legacy statement sequence.
	DisableMergeFallback bool
	// Logger receives operation progress and fallback warnings.
	Logger lgr.L
}

// Toggle is a three-state override for a Config default.
type Toggle int

const (
	// ToggleDefault defers to the loader Config.
	ToggleDefault Toggle = iota
	// ToggleOn forces the feature on for this call.
	ToggleOn
	// ToggleOff forces the feature off for this call.
	ToggleOff
)

// Predicate builds a custom row-filter fragment given the generated
// staging table name and the target table name. It replaces the default
// changed-row condition entirely; see sqlgen.GreaterThanCondition for a
// common building block.
type Predicate func(staging, target string) sqlgen.Fragment

// InsertOptions configures Insert.
type InsertOptions struct {
	// IgnoreConflicts skips rows that would violate a unique constraint
	// instead of failing the whole statement.
	IgnoreConflicts bool
	// ReturnRecords materializes and returns all input rows post-insert,
	// whether or not each was actually written. Off by default since it
	// can significantly degrade throughput.
	ReturnRecords bool
}

// UpdateOptions configures Update.
type UpdateOptions struct {
	// UpdateFields restricts which fields are written; nil means all.
	UpdateFields []string
	// PKFields match existing rows; nil means the schema identity field.
	PKFields []string
	// ChangedGateFields are updated only when another (non-gate) field
	// changed, e.g. last_modified.
	ChangedGateFields []string
	// NullCoalesceFields are updated only when the new or the persisted
	// value is NULL.
	NullCoalesceFields []string
	// Predicate replaces the default changed-row condition. Mutually
	// exclusive with ChangedGateFields and NullCoalesceFields.
	Predicate Predicate
	// ReturnRecords materializes and returns all matched input rows.
	ReturnRecords bool
	// UseMerge routes the update through a MERGE statement.
	UseMerge Toggle
	// UseFastCopy stages into an unlogged table instead of a temporary
	// one, trading staging durability for throughput.
	UseFastCopy bool
}

// UpsertOptions configures Upsert.
type UpsertOptions struct {
	// PKFields match existing rows; nil means the schema identity field.
	PKFields []string
	// InsertOnlyFields are written on insert and frozen on update,
	// e.g. created_at.
	InsertOnlyFields []string
	// ChangedGateFields are updated only when another field changed.
	ChangedGateFields []string
	// NullCoalesceFields are updated only when either side is NULL.
	NullCoalesceFields []string
	// Predicate replaces the default changed-row condition. Mutually
	// exclusive with ChangedGateFields and NullCoalesceFields.
	Predicate Predicate
	// ReturnRecords materializes and returns all input rows.
	ReturnRecords bool
	// UseMerge routes the upsert through a single MERGE statement, with
	// automatic fallback to the legacy update+insert sequence.
	UseMerge Toggle
	// UseFastCopy stages into an unlogged table instead of a temporary one.
	UseFastCopy bool
}

// InsertChangedOptions configures InsertChanged.
type InsertChangedOptions struct {
	// OrderField designates the column that orders versions of a key;
	// empty means the schema identity field. It must not be one of the
	// primary-key fields.
	OrderField string
	// ReturnRecords materializes the latest row per staged primary key.
	ReturnRecords bool
}

// SelectOptions configures Select.
type SelectOptions struct {
	// SkipValueTransform passes filter values through without per-field
	// encoding; useful when values are already simple storage types.
	SkipValueTransform bool
	// LockRows appends FOR UPDATE. Locks outlive the statement only when
	// the Client wraps an ambient transaction (see NewTxClient).
	LockRows bool
}

func (l *Loader) mergeEnabled(t Toggle) bool {
	switch t {
	case ToggleOn:
		return true
	case ToggleOff:
		return false
	default:
		return l.cfg.UseMergeByDefault
	}
}
