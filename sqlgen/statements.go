package sqlgen

import "strconv"

// CreateStagingTable returns the DDL that clones the target's column
// layout into an empty staging table. The default form is a temporary
// table dropped automatically when the owning transaction ends. The
// unlogged form skips WAL and survives the transaction, so callers must
// pair it with DropTable; it stays usable behind transaction-pooling
// proxies that cannot hold session-scoped temp tables.
func CreateStagingTable(staging, target string, columns []string, unlogged bool) string {
	create := Raw("CREATE TEMPORARY TABLE ")
	drop := Raw(" ON COMMIT DROP")
	if unlogged {
		create = Raw("CREATE UNLOGGED TABLE ")
		drop = Fragment{}
	}
	return Concat(
		create, Ident(staging), drop,
		Raw(" AS SELECT "), IdentList(columns),
		Raw(" FROM "), Ident(target),
		Raw(" WITH NO DATA"),
	).String()
}

// DropTable returns the statement that removes an unlogged staging table.
func DropTable(table string) string {
	return Concat(Raw("DROP TABLE IF EXISTS "), Ident(table)).String()
}

// CopyFrom returns the COPY statement that loads the staging table from
// a streamed tab-delimited CSV with `\N` as the null sentinel. The text
// stream must match what copyenc produces.
func CopyFrom(table string, columns []string) string {
	return Concat(
		Raw("COPY "), Ident(table),
		Raw(" ("), IdentList(columns), Raw(")"),
		Raw(` FROM STDIN NULL '\N' DELIMITER E'\t' CSV`),
	).String()
}

// Insert returns the plain staging-to-target insert. With ignoreConflicts
// the statement skips rows violating a unique constraint instead of
// failing as a whole.
func Insert(target, staging string, columns []string, ignoreConflicts bool) string {
	stmt := Concat(
		Raw("INSERT INTO "), Ident(target),
		Raw(" ("), IdentList(columns), Raw(")"),
		Raw(" SELECT "), ColumnList(staging, columns),
		Raw(" FROM "), Ident(staging),
	)
	if ignoreConflicts {
		stmt = Concat(stmt, Raw(" ON CONFLICT DO NOTHING"))
	}
	return stmt.String()
}

// InsertForUpdate returns the anti-join insert used as the insert half of
// the legacy upsert: only staging rows with no target match on the
// primary-key columns are inserted.
func InsertForUpdate(target, staging string, pkColumns, insertColumns []string) string {
	return Concat(
		Raw("INSERT INTO "), Ident(target),
		Raw(" ("), IdentList(insertColumns), Raw(")"),
		Raw(" SELECT "), ColumnList(staging, insertColumns),
		Raw(" FROM "), Ident(staging),
		Raw(" LEFT JOIN "), Ident(target),
		Raw(" ON "), JoinCondition(staging, target, pkColumns),
		Raw(" WHERE "), Column(target, pkColumns[0]), Raw(" IS NULL"),
	).String()
}

// UpdateParams parameterizes the update-from-staging statement.
type UpdateParams struct {
	PKColumns []string
	// SetColumns are assigned directly from the staging row.
	SetColumns []string
	// NullCoalesceColumns are assigned through CASE logic: take the
	// staging value only when either side is currently NULL.
	NullCoalesceColumns []string
	// CompareColumns drive the default changed-row condition.
	CompareColumns []string
	// Predicate, when set, replaces the default changed-row condition
	// entirely.
	Predicate Fragment
}

// Update returns the update-from-staging statement. When the combination
// of compare and null-coalescing columns resolves to no condition, the
// WHERE clause degenerates to the join condition alone rather than an
// empty parenthesized predicate.
func Update(target, staging string, p UpdateParams) string {
	sets := make([]Fragment, 0, len(p.SetColumns)+len(p.NullCoalesceColumns))
	for _, c := range p.SetColumns {
		sets = append(sets, Join(" = ", Ident(c), Column(staging, c)))
	}
	for _, c := range p.NullCoalesceColumns {
		sets = append(sets, Concat(
			Ident(c), Raw(" = CASE WHEN "),
			Column(staging, c), Raw(" IS NULL OR "), Column(target, c), Raw(" IS NULL"),
			Raw(" THEN "), Column(staging, c),
			Raw(" ELSE "), Column(target, c),
			Raw(" END"),
		))
	}

	where := p.Predicate
	if where.IsEmpty() {
		where = DistinctCondition(staging, target, p.CompareColumns)
		if nullCond := DistinctOrNullCondition(staging, target, p.NullCoalesceColumns); !nullCond.IsEmpty() {
			where = Join(" OR ", where, nullCond)
		}
	}
	join := JoinCondition(staging, target, p.PKColumns)
	cond := join
	if !where.IsEmpty() {
		cond = Join(" AND ", Group(where), Group(join))
	}

	return Concat(
		Raw("UPDATE "), Ident(target),
		Raw(" SET "), Join(", ", sets...),
		Raw(" FROM "), Ident(staging),
		Raw(" WHERE "), cond,
	).String()
}

// SelectLatest returns, per primary-key group present in the staging
// table, the single target row with the greatest value of orderColumn.
func SelectLatest(target, staging string, pkColumns []string, orderColumn string) string {
	pks := ColumnList(target, pkColumns)
	return Concat(
		Raw("SELECT DISTINCT ON ("), pks, Raw(") "),
		Star(target),
		Raw(" FROM "), Ident(target),
		Raw(" INNER JOIN "), Ident(staging),
		Raw(" ON "), JoinCondition(staging, target, pkColumns),
		Raw(" ORDER BY "), pks, Raw(", "), Column(target, orderColumn), Raw(" DESC"),
	).String()
}

// InsertChanged returns the append-only versioned insert: a staging row
// is inserted when no latest target row exists for its primary key, or
// when any compare column differs from that latest row. With no compare
// columns the WHERE degenerates to the anti-join condition alone.
func InsertChanged(target, staging string, pkColumns, compareColumns, insertColumns []string, orderColumn string) string {
	latest := SelectLatest(target, staging, pkColumns, orderColumn)
	cond := Concat(Column(target, pkColumns[0]), Raw(" IS NULL"))
	if distinct := DistinctCondition(staging, target, compareColumns); !distinct.IsEmpty() {
		cond = Join(" OR ", cond, distinct)
	}
	return Concat(
		Raw("INSERT INTO "), Ident(target),
		Raw(" ("), IdentList(insertColumns), Raw(")"),
		Raw(" SELECT "), ColumnList(staging, insertColumns),
		Raw(" FROM "), Ident(staging),
		Raw(" LEFT JOIN ("), Raw(latest), Raw(") "), Ident(target),
		Raw(" ON "), JoinCondition(staging, target, pkColumns),
		Raw(" WHERE "), cond,
	).String()
}

// SelectJoin returns all target rows matching staged rows on the join
// columns, whether or not a preceding statement changed them. A nil
// selectColumns selects target.*.
func SelectJoin(target, staging string, joinColumns, selectColumns []string) string {
	cols := Star(target)
	if len(selectColumns) > 0 {
		cols = ColumnList(target, selectColumns)
	}
	return Concat(
		Raw("SELECT "), cols,
		Raw(" FROM "), Ident(target),
		Raw(" INNER JOIN "), Ident(staging),
		Raw(" ON "), JoinCondition(staging, target, joinColumns),
	).String()
}

// SelectValues returns the keyed batch select over a VALUES list of
// filter tuples, with numbered placeholders laid out row-major:
//
//	SELECT ... WHERE ("a", "b") IN (VALUES ($1, $2), ($3, $4))
func SelectValues(target string, filterColumns, selectColumns []string, tupleCount int, forUpdate bool) string {
	values := make([]Fragment, tupleCount)
	n := 1
	for i := range values {
		row := make([]Fragment, len(filterColumns))
		for j := range row {
			row[j] = Raw(placeholder(n))
			n++
		}
		values[i] = Group(Join(", ", row...))
	}
	stmt := Concat(
		Raw("SELECT "), IdentList(selectColumns),
		Raw(" FROM "), Ident(target),
		Raw(" WHERE ("), IdentList(filterColumns), Raw(")"),
		Raw(" IN (VALUES "), Join(", ", values...), Raw(")"),
	)
	if forUpdate {
		stmt = Concat(stmt, Raw(" FOR UPDATE"))
	}
	return stmt.String()
}

// AddReturning appends a `RETURNING target.*` clause to a statement.
func AddReturning(stmt, target string) string {
	return Concat(Raw(stmt), Raw(" RETURNING "), Star(target)).String()
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
