package pgbulk

import (
	"context"

	"github.com/syssam/pgbulk/sqlgen"
)

// Upsert inserts records with no target match on the primary-key field
// set and updates the changed ones that match. The MERGE path expresses
// this as one atomic statement; the legacy path runs the
// update-from-staging statement followed by an anti-join insert, in that
// order, inside one transaction.
func (l *Loader) Upsert(ctx context.Context, s Schema, records []Record, opts UpsertOptions) ([]Record, error) {
	const op = "upsert"
	if len(records) == 0 {
		l.log.Logf("[WARN] %s: no records passed for table %q", op, s.Table())
		return emptyResult(opts.ReturnRecords), nil
	}
	if opts.Predicate != nil && (len(opts.ChangedGateFields) > 0 || len(opts.NullCoalesceFields) > 0) {
		return nil, configErrorf(op, "Predicate cannot be combined with ChangedGateFields or NullCoalesceFields")
	}

	pks, err := pkFields(s, opts.PKFields, op)
	if err != nil {
		return nil, err
	}
	pkNames := namesOf(pks)

	for _, set := range [][]string{opts.InsertOnlyFields, opts.ChangedGateFields, opts.NullCoalesceFields} {
		if _, err := resolveFields(s, orEmpty(set)); err != nil {
			return nil, err
		}
	}
	nullFields, _ := resolveFields(s, orEmpty(opts.NullCoalesceFields))

	fields := nonAuto(s.Fields())
	compare := without(fields, opts.InsertOnlyFields, opts.ChangedGateFields, pkNames, opts.NullCoalesceFields)
	setFields := without(fields, opts.InsertOnlyFields, pkNames, opts.NullCoalesceFields)
	insertFields := fields

	build := func(useMerge bool) loadPlan {
		staging := sqlgen.StagingTableName(s.Table())
		var predicate sqlgen.Fragment
		if opts.Predicate != nil {
			predicate = opts.Predicate(staging, s.Table())
		}
		var statements []string
		if useMerge {
			statements = []string{sqlgen.MergeUpsert(s.Table(), staging, sqlgen.MergeParams{
				PKColumns:           columnsOf(pks),
				SetColumns:          columnsOf(setFields),
				NullCoalesceColumns: columnsOf(nullFields),
				CompareColumns:      columnsOf(compare),
				InsertColumns:       columnsOf(insertFields),
				Predicate:           predicate,
			})}
			if opts.ReturnRecords {
				statements = append(statements, sqlgen.SelectJoin(s.Table(), staging, columnsOf(pks), nil))
			}
		} else {
			if len(setFields) > 0 || len(nullFields) > 0 {
				statements = append(statements, sqlgen.Update(s.Table(), staging, sqlgen.UpdateParams{
					PKColumns:           columnsOf(pks),
					SetColumns:          columnsOf(setFields),
					NullCoalesceColumns: columnsOf(nullFields),
					CompareColumns:      columnsOf(compare),
					Predicate:           predicate,
				}))
			}
			insert := sqlgen.InsertForUpdate(s.Table(), staging, columnsOf(pks), columnsOf(insertFields))
			if opts.ReturnRecords {
				// The join select runs before the insert so pre-existing
				// matches come back exactly once; freshly inserted rows
				// are reported by the insert's RETURNING clause.
				statements = append(statements, sqlgen.SelectJoin(s.Table(), staging, columnsOf(pks), nil))
				insert = sqlgen.AddReturning(insert, s.Table())
			}
			statements = append(statements, insert)
		}
		return loadPlan{
			op:            op,
			schema:        s,
			records:       records,
			staging:       staging,
			fields:        s.Fields(),
			statements:    statements,
			returnRecords: opts.ReturnRecords,
			fastCopy:      opts.UseFastCopy,
		}
	}

	if l.mergeEnabled(opts.UseMerge) {
		return l.loadWithFallback(ctx, build(true), func() loadPlan { return build(false) })
	}
	return l.load(ctx, build(false))
}
