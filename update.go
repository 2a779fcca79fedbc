package pgbulk

import (
	"context"

	"github.com/syssam/pgbulk/sqlgen"
)

// Update writes changed fields of existing rows, matching on the
// primary-key field set. Input rows with no target match are silently
// ignored; no insert happens. Only rows where a compare field actually
// differs are touched, so unchanged records cost no writes.
func (l *Loader) Update(ctx context.Context, s Schema, records []Record, opts UpdateOptions) ([]Record, error) {
	const op = "update"
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

	updateFields := nonAuto(s.Fields())
	if opts.UpdateFields != nil {
		if updateFields, err = resolveFields(s, opts.UpdateFields); err != nil {
			return nil, err
		}
	}
	// Primary-key and null-coalescing fields are never written by the
	// plain SET list.
	updateFields = without(updateFields, pkNames, opts.NullCoalesceFields)

	nullFields, err := resolveFields(s, orEmpty(opts.NullCoalesceFields))
	if err != nil {
		return nil, err
	}
	if _, err = resolveFields(s, orEmpty(opts.ChangedGateFields)); err != nil {
		return nil, err
	}

	// Stage exactly the fields the statement touches: update targets,
	// gates, keys and null-coalesce fields.
	operate := unionFields(s, namesOf(updateFields), opts.ChangedGateFields, pkNames, opts.NullCoalesceFields)
	compare := nonAuto(without(operate, opts.ChangedGateFields, pkNames, opts.NullCoalesceFields))
	setFields := nonAuto(updateFields)
	if len(setFields) == 0 && len(nullFields) == 0 {
		return nil, configErrorf(op, "no fields left to update; every requested field is a key or auto-generated")
	}

	build := func(useMerge bool) loadPlan {
		staging := sqlgen.StagingTableName(s.Table())
		var predicate sqlgen.Fragment
		if opts.Predicate != nil {
			predicate = opts.Predicate(staging, s.Table())
		}
		var statements []string
		if useMerge {
			statements = []string{sqlgen.MergeUpdate(s.Table(), staging, sqlgen.MergeParams{
				PKColumns:           columnsOf(pks),
				SetColumns:          columnsOf(setFields),
				NullCoalesceColumns: columnsOf(nullFields),
				CompareColumns:      columnsOf(compare),
				Predicate:           predicate,
			})}
		} else {
			statements = []string{sqlgen.Update(s.Table(), staging, sqlgen.UpdateParams{
				PKColumns:           columnsOf(pks),
				SetColumns:          columnsOf(setFields),
				NullCoalesceColumns: columnsOf(nullFields),
				CompareColumns:      columnsOf(compare),
				Predicate:           predicate,
			})}
		}
		if opts.ReturnRecords {
			statements = append(statements, sqlgen.SelectJoin(s.Table(), staging, columnsOf(pks), nil))
		}
		return loadPlan{
			op:            op,
			schema:        s,
			records:       records,
			staging:       staging,
			fields:        operate,
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

// unionFields returns the schema fields whose names appear in any of the
// given sets, in schema declaration order.
func unionFields(s Schema, sets ...[]string) []Field {
	want := make(map[string]struct{})
	for _, set := range sets {
		for _, n := range set {
			want[n] = struct{}{}
		}
	}
	var out []Field
	for _, f := range s.Fields() {
		if _, ok := want[f.Name()]; ok {
			out = append(out, f)
		}
	}
	return out
}

// orEmpty maps nil to an empty, resolvable field-name list. resolveFields
// treats nil as "all fields", which is never what an optional role set
// means.
func orEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
