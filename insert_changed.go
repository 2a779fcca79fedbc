package pgbulk

import (
	"context"
	"slices"

	"github.com/syssam/pgbulk/sqlgen"
)

// InsertChanged appends a new row for a primary key only when any compare
// field differs from the most recent existing row for that key, where
// "most recent" is the row with the greatest order-field value. Unchanged
// records insert nothing, giving an append-only version history driven by
// change detection.
func (l *Loader) InsertChanged(ctx context.Context, s Schema, records []Record, pkFieldNames, compareFieldNames []string, opts InsertChangedOptions) ([]Record, error) {
	const op = "insert-changed"
	if len(records) == 0 {
		l.log.Logf("[WARN] %s: no records passed for table %q", op, s.Table())
		return emptyResult(opts.ReturnRecords), nil
	}

	pks, err := pkFields(s, pkFieldNames, op)
	if err != nil {
		return nil, err
	}
	pkNames := namesOf(pks)

	order := s.Identity()
	if opts.OrderField != "" {
		if order, err = s.Field(opts.OrderField); err != nil {
			return nil, err
		}
	}
	if order == nil {
		return nil, configErrorf(op, "table %q has no identity field; specify OrderField", s.Table())
	}
	if slices.Contains(pkNames, order.Name()) {
		// A key that advances with every row always looks "new", so the
		// comparison against the latest version never fires.
		return nil, configErrorf(op, "order field %q is part of the primary-key fields; that would always insert", order.Name())
	}
	if len(compareFieldNames) == 0 {
		return nil, configErrorf(op, "no compare fields given; nothing to detect changes on")
	}
	for _, n := range compareFieldNames {
		if slices.Contains(pkNames, n) || n == order.Name() {
			return nil, configErrorf(op, "compare field %q overlaps the primary-key or order field", n)
		}
	}
	compare, err := resolveFields(s, compareFieldNames)
	if err != nil {
		return nil, err
	}

	insertFields := nonAuto(s.Fields())
	staging := sqlgen.StagingTableName(s.Table())

	statements := []string{sqlgen.InsertChanged(
		s.Table(), staging,
		columnsOf(pks), columnsOf(compare), columnsOf(insertFields),
		order.Column(),
	)}
	if opts.ReturnRecords {
		statements = append(statements, sqlgen.SelectLatest(s.Table(), staging, columnsOf(pks), order.Column()))
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
