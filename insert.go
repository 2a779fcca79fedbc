package pgbulk

import (
	"context"

	"github.com/syssam/pgbulk/sqlgen"
)

// Insert writes a batch of records with a single set-based INSERT fed
// from the staging table. All records must agree on whether their
// identity value is already assigned; a mixed batch is rejected before
// any I/O because it is ambiguous whether the identity column belongs in
// the generated statement.
//
// With ReturnRecords and identity-bearing records, all input rows are
// materialized post-insert, not just the ones actually written; without
// identity values there is no key to re-select on, so an ignored
// conflict leaves its row out of the result.
func (l *Loader) Insert(ctx context.Context, s Schema, records []Record, opts InsertOptions) ([]Record, error) {
	const op = "insert"
	if len(records) == 0 {
		l.log.Logf("[WARN] %s: no records passed for table %q", op, s.Table())
		return emptyResult(opts.ReturnRecords), nil
	}

	id := s.Identity()
	hasID := false
	if id != nil {
		hasID = records[0][id.Name()] != nil
		for _, rec := range records[1:] {
			if (rec[id.Name()] != nil) != hasID {
				return nil, ErrMixedIdentity
			}
		}
	}

	insertFields := s.Fields()
	if !hasID {
		insertFields = nonAuto(insertFields)
	}

	staging := sqlgen.StagingTableName(s.Table())
	insert := sqlgen.Insert(s.Table(), staging, columnsOf(insertFields), opts.IgnoreConflicts)

	var statements []string
	switch {
	case !opts.ReturnRecords:
		statements = []string{insert}
	case opts.IgnoreConflicts && id != nil && hasID:
		// RETURNING reports only rows actually written; re-select all
		// staged rows so input rows that hit an ignored conflict come
		// back too.
		statements = []string{insert, sqlgen.SelectJoin(s.Table(), staging, []string{id.Column()}, nil)}
	default:
		statements = []string{sqlgen.AddReturning(insert, s.Table())}
	}

	return l.load(ctx, loadPlan{
		op:            op,
		schema:        s,
		records:       records,
		staging:       staging,
		fields:        s.Fields(),
		statements:    statements,
		returnRecords: opts.ReturnRecords,
	})
}
