package pgbulk

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Record is a single entity instance: a mapping from logical field name
// to value. Input batches are assumed homogeneous — same entity type,
// same schema. A missing key and an explicit nil value both serialize to
// SQL NULL.
type Record map[string]any

// decodeRows materializes result rows into records, applying each known
// field's Decode function. Columns with no matching field descriptor
// (e.g. merge_action()) are kept under their raw column name.
func decodeRows(rows pgx.Rows, s Schema) ([]Record, error) {
	defer rows.Close()
	byColumn := make(map[string]Field, len(s.Fields()))
	for _, f := range s.Fields() {
		byColumn[f.Column()] = f
	}
	descs := rows.FieldDescriptions()
	var out []Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("pgbulk: reading row: %w", err)
		}
		rec := make(Record, len(values))
		for i, v := range values {
			col := descs[i].Name
			f, ok := byColumn[col]
			if !ok {
				rec[col] = v
				continue
			}
			dv, err := f.Decode(v)
			if err != nil {
				return nil, fmt.Errorf("pgbulk: decoding column %q: %w", col, err)
			}
			rec[f.Name()] = dv
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgbulk: reading rows: %w", err)
	}
	return out, nil
}

// encodeRows converts records into storage values in field order, ready
// for the copy stream. Missing fields encode as NULL.
func encodeRows(fields []Field, records []Record) ([][]any, error) {
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(fields))
		for j, f := range fields {
			v, err := f.Encode(rec[f.Name()])
			if err != nil {
				return nil, fmt.Errorf("pgbulk: encoding field %q: %w", f.Name(), err)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return rows, nil
}
