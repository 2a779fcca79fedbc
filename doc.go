// Package pgbulk provides staging-table bulk loading primitives for
// PostgreSQL: set-based insert, update, upsert, change-tracked insert and
// keyed batch select, trading per-row round trips for COPY into a
// transaction-scoped staging table plus a handful of reconciliation
// statements.
//
// # Operations
//
// Every write operation stages its records with COPY FROM STDIN, then
// executes generated statements inside one transaction:
//
//   - Insert: plain staging-to-target INSERT, optional conflict skipping.
//   - Update: update-from-staging matched on a primary-key field set,
//     with field-level change detection, change-gate fields and
//     null-coalescing fields.
//   - Upsert: MERGE on PostgreSQL 15+, or the legacy update + anti-join
//     insert sequence, with automatic fallback when the server rejects
//     MERGE.
//   - InsertChanged: append-only versioned insert driven by change
//     detection against the latest existing row per key.
//   - Select: keyed batch lookup over a VALUES list, optional FOR UPDATE.
//
// # Usage
//
//	conn, err := pgx.Connect(ctx, dsn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	users := pgbulk.NewSchema("users",
//	    pgbulk.FieldSpec{Name: "id", Auto: true},
//	    pgbulk.FieldSpec{Name: "email"},
//	    pgbulk.FieldSpec{Name: "settings", JSON: true, Nullable: true},
//	)
//	loader := pgbulk.New(pgbulk.NewClient(conn), pgbulk.Config{})
//	_, err = loader.Upsert(ctx, users, records, pgbulk.UpsertOptions{
//	    PKFields: []string{"email"},
//	})
//
// # Concurrency
//
// Each invocation is synchronous and occupies one connection for its
// duration. Staging table names are unique per invocation, so concurrent
// callers on independent connections never contend on staging identity;
// conflicts on the target table are left to the engine's row-level
// locking and isolation level.
//
// # Sub-packages
//
//   - sqlgen: injection-safe SQL fragment and statement generation.
//   - copyenc: the COPY text-format serializer.
package pgbulk
