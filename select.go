package pgbulk

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/syssam/pgbulk/sqlgen"
)

// Select fetches one record per target row matching any of the filter
// tuples, using a single `(cols) IN (VALUES ...)` statement. The result
// records always contain the filter fields in addition to the requested
// select fields, so callers can correlate results with their inputs.
// Exact-duplicate filter tuples are collapsed on the input side; multiple
// target rows matching one tuple are all returned.
//
// Select runs on the client directly and never opens its own
// transaction. With LockRows, wrap an ambient transaction via NewTxClient
// for the locks to outlive the statement.
func (l *Loader) Select(ctx context.Context, s Schema, filterFields, selectFields []string, filterTuples [][]any, opts SelectOptions) ([]Record, error) {
	const op = "select"
	if len(filterTuples) == 0 {
		return []Record{}, nil
	}
	if len(filterFields) == 0 {
		return nil, configErrorf(op, "no filter fields given")
	}

	ff, err := resolveFields(s, filterFields)
	if err != nil {
		return nil, err
	}
	selectNames := slices.Clone(selectFields)
	for _, n := range filterFields {
		if !slices.Contains(selectNames, n) {
			selectNames = append(selectNames, n)
		}
	}
	sf, err := resolveFields(s, selectNames)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	l.log.Logf("[INFO] %s: querying %q with %d filter tuples", op, s.Table(), len(filterTuples))

	seen := make(map[string]struct{}, len(filterTuples))
	args := make([]any, 0, len(filterTuples)*len(ff))
	tuples := 0
	for _, tuple := range filterTuples {
		if len(tuple) != len(ff) {
			return nil, configErrorf(op, "filter tuple has %d values, want %d", len(tuple), len(ff))
		}
		key := tupleKey(tuple)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tuples++
		for i, v := range tuple {
			if !opts.SkipValueTransform {
				if v, err = ff[i].Encode(v); err != nil {
					return nil, fmt.Errorf("pgbulk: %s: encoding filter value for %q: %w", op, ff[i].Name(), err)
				}
			}
			args = append(args, v)
		}
	}

	stmt := sqlgen.SelectValues(s.Table(), columnsOf(ff), columnsOf(sf), tuples, opts.LockRows)
	rows, err := l.client.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("pgbulk: %s: querying %q: %w", op, s.Table(), err)
	}
	results, err := decodeRows(rows, s)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []Record{}
	}

	l.log.Logf("[INFO] %s: finished %q, %d rows in %v", op, s.Table(), len(results), time.Since(start))
	return results, nil
}

// tupleKey identifies a filter tuple for exact-duplicate collapsing.
// Each value is recorded with its dynamic type and length, so adjacent
// values cannot run together the way plain string joining would.
func tupleKey(tuple []any) string {
	var b strings.Builder
	for _, v := range tuple {
		s := fmt.Sprint(v)
		fmt.Fprintf(&b, "%T:%d:%s;", v, len(s), s)
	}
	return b.String()
}
