package pgbulk

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/syssam/pgbulk/copyenc"
	"github.com/syssam/pgbulk/sqlgen"
)

// Loader runs staging-table bulk operations against a single PostgreSQL
// target. It is safe for concurrent use as long as the underlying Client
// is; concurrent invocations never share a staging table.
type Loader struct {
	client Client
	cfg    Config
	log    lgr.L
}

// New returns a Loader over the given client.
func New(client Client, cfg Config) *Loader {
	log := cfg.Logger
	if log == nil {
		log = lgr.Default()
	}
	return &Loader{client: client, cfg: cfg, log: log}
}

// loadPlan is one staging-and-execute run: create the staging table,
// bulk-copy the records into it, then execute the statements in order
// inside a single transaction.
type loadPlan struct {
	op            string
	schema        Schema
	records       []Record
	staging       string
	fields        []Field // staged fields, in staging column order
	statements    []string
	returnRecords bool
	fastCopy      bool
}

// LoadWithStatements stages the records and runs an arbitrary statement
// sequence against the staging table, optionally materializing
// RETURNING/SELECT output. stagingTable and fieldNames may be empty; the
// staging name is then generated and all schema fields are staged. This
// is the low-level escape hatch under all write operations.
func (l *Loader) LoadWithStatements(ctx context.Context, s Schema, records []Record, stagingTable string, statements []string, fieldNames []string, returnRecords bool) ([]Record, error) {
	fields, err := resolveFields(s, fieldNames)
	if err != nil {
		return nil, err
	}
	if stagingTable == "" {
		stagingTable = sqlgen.StagingTableName(s.Table())
	}
	return l.load(ctx, loadPlan{
		op:            "load",
		schema:        s,
		records:       records,
		staging:       stagingTable,
		fields:        fields,
		statements:    statements,
		returnRecords: returnRecords,
	})
}

// load runs one plan inside a transaction. All effects, including the
// staging table, are rolled back on any failure.
func (l *Loader) load(ctx context.Context, p loadPlan) ([]Record, error) {
	if len(p.records) == 0 {
		return nil, ErrEmptyBatch
	}
	start := time.Now()
	l.log.Logf("[INFO] %s: loading %d records into %q", p.op, len(p.records), p.schema.Table())

	rows, err := encodeRows(p.fields, p.records)
	if err != nil {
		return nil, err
	}
	stream, err := copyenc.Encode(rows)
	if err != nil {
		return nil, err
	}

	tx, err := l.client.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pgbulk: %s: begin: %w", p.op, err)
	}
	results, err := l.run(ctx, tx, p, stream)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pgbulk: %s: commit: %w", p.op, err)
	}

	l.log.Logf("[INFO] %s: finished %d records into %q in %v", p.op, len(p.records), p.schema.Table(), time.Since(start))
	return results, nil
}

func (l *Loader) run(ctx context.Context, tx Tx, p loadPlan, stream io.Reader) ([]Record, error) {
	cols := columnsOf(p.fields)
	if _, err := tx.Exec(ctx, sqlgen.CreateStagingTable(p.staging, p.schema.Table(), cols, p.fastCopy)); err != nil {
		return nil, fmt.Errorf("pgbulk: %s: creating staging table %q: %w", p.op, p.staging, err)
	}
	if _, err := tx.CopyFrom(ctx, stream, sqlgen.CopyFrom(p.staging, cols)); err != nil {
		return nil, fmt.Errorf("pgbulk: %s: bulk copy into %q: %w", p.op, p.staging, err)
	}

	statements := p.statements
	if p.fastCopy {
		// Unlogged staging tables are not transaction-scoped; drop
		// explicitly as the last statement.
		statements = append(append([]string(nil), statements...), sqlgen.DropTable(p.staging))
	}

	var (
		results []Record
		hasRows bool
	)
	for _, stmt := range statements {
		if !p.returnRecords {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return nil, fmt.Errorf("pgbulk: %s: executing statement: %w", p.op, err)
			}
			continue
		}
		rows, err := tx.Query(ctx, stmt)
		if err != nil {
			return nil, fmt.Errorf("pgbulk: %s: executing statement: %w", p.op, err)
		}
		if len(rows.FieldDescriptions()) == 0 {
			rows.Close()
			if err := rows.Err(); err != nil {
				return nil, fmt.Errorf("pgbulk: %s: executing statement: %w", p.op, err)
			}
			continue
		}
		hasRows = true
		recs, err := decodeRows(rows, p.schema)
		if err != nil {
			return nil, err
		}
		results = append(results, recs...)
	}
	if p.returnRecords && !hasRows {
		return nil, &NoResultsError{Op: p.op, Statements: len(p.statements)}
	}
	return results, nil
}

// loadWithFallback attempts the MERGE plan and, when the server rejects
// MERGE itself, re-runs the whole operation once with the legacy
// statement sequence in a fresh transaction. Any other error propagates.
func (l *Loader) loadWithFallback(ctx context.Context, merge loadPlan, legacy func() loadPlan) ([]Record, error) {
	results, err := l.load(ctx, merge)
	if err == nil {
		return results, nil
	}
	if l.cfg.DisableMergeFallback || !mergeUnsupported(err) {
		return nil, err
	}
	l.log.Logf("[WARN] %s: MERGE rejected by server, falling back to legacy statements: %v", merge.op, err)
	return l.load(ctx, legacy())
}

// emptyResult is the no-op result for an empty input batch.
func emptyResult(returnRecords bool) []Record {
	if returnRecords {
		return []Record{}
	}
	return nil
}

func resolveFields(s Schema, names []string) ([]Field, error) {
	if names == nil {
		return s.Fields(), nil
	}
	fields := make([]Field, len(names))
	for i, n := range names {
		f, err := s.Field(n)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return fields, nil
}

func columnsOf(fields []Field) []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column()
	}
	return cols
}

func namesOf(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}
	return names
}

// without filters fields whose name appears in the given sets.
func without(fields []Field, exclude ...[]string) []Field {
	drop := make(map[string]struct{})
	for _, set := range exclude {
		for _, n := range set {
			drop[n] = struct{}{}
		}
	}
	var out []Field
	for _, f := range fields {
		if _, ok := drop[f.Name()]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// nonAuto filters out database-generated fields.
func nonAuto(fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		if !f.Auto() {
			out = append(out, f)
		}
	}
	return out
}

// pkFields resolves the primary-key field set, defaulting to the schema
// identity field.
func pkFields(s Schema, names []string, op string) ([]Field, error) {
	if len(names) > 0 {
		return resolveFields(s, names)
	}
	id := s.Identity()
	if id == nil {
		return nil, configErrorf(op, "table %q has no identity field; specify PKFields", s.Table())
	}
	return []Field{id}, nil
}
