package sqlgen

// MERGE statements require PostgreSQL 15+. Callers are expected to treat
// an execution failure classified as merge-unsupported by falling back to
// the legacy update+insert sequence.

// MergeParams parameterizes the MERGE upsert and update-only statements.
type MergeParams struct {
	PKColumns []string
	// SetColumns are assigned from the staging row on match.
	SetColumns []string
	// NullCoalesceColumns are assigned through the same CASE logic as the
	// legacy update statement.
	NullCoalesceColumns []string
	// CompareColumns gate the matched branch; empty means every matched
	// row is updated.
	CompareColumns []string
	// InsertColumns are written on the not-matched branch.
	InsertColumns []string
	// Predicate, when set, replaces the default changed-row condition on
	// the matched branch.
	Predicate Fragment
}

// MergeUpsert returns the single-statement upsert: when matched and
// changed, update; when not matched, insert.
func MergeUpsert(target, staging string, p MergeParams) string {
	stmt := mergeInto(target, staging, p.PKColumns)
	if matched := mergeMatched(target, staging, p); !matched.IsEmpty() {
		stmt = Concat(stmt, matched)
	}
	return Concat(
		stmt,
		Raw(" WHEN NOT MATCHED THEN INSERT ("), IdentList(p.InsertColumns),
		Raw(") VALUES ("), ColumnList(staging, p.InsertColumns), Raw(")"),
	).String()
}

// MergeUpdate returns the update-only MERGE: same matching logic, but
// unmatched staging rows are left alone.
func MergeUpdate(target, staging string, p MergeParams) string {
	matched := mergeMatched(target, staging, p)
	if matched.IsEmpty() {
		// MERGE requires at least one WHEN clause beyond DO NOTHING, and
		// UPDATE SET cannot be empty. Substitute a no-op self-assignment.
		matched = Concat(
			Raw(" WHEN MATCHED THEN UPDATE SET "),
			Ident(p.PKColumns[0]), Raw(" = "), Column(target, p.PKColumns[0]),
		)
	}
	return Concat(
		mergeInto(target, staging, p.PKColumns),
		matched,
		Raw(" WHEN NOT MATCHED THEN DO NOTHING"),
	).String()
}

// MergeAction is the action of one WHEN branch of a conditional MERGE.
type MergeAction int

const (
	MergeDoNothing MergeAction = iota
	MergeUpdateAction
	MergeInsertAction
	MergeDeleteAction
)

// MergeWhen is one caller-supplied WHEN branch of a conditional MERGE.
type MergeWhen struct {
	Matched   bool
	Condition Fragment // optional AND condition on the branch
	Action    MergeAction
	// SetColumns apply to MergeUpdateAction; InsertColumns to
	// MergeInsertAction.
	SetColumns    []string
	InsertColumns []string
}

// MergeConditional returns a MERGE statement with caller-supplied
// WHEN [NOT] MATCHED branches, in the given order.
func MergeConditional(target, staging string, pkColumns []string, whens []MergeWhen) string {
	stmt := mergeInto(target, staging, pkColumns)
	for _, w := range whens {
		clause := Raw(" WHEN MATCHED")
		if !w.Matched {
			clause = Raw(" WHEN NOT MATCHED")
		}
		if !w.Condition.IsEmpty() {
			clause = Concat(clause, Raw(" AND "), Group(w.Condition))
		}
		switch w.Action {
		case MergeUpdateAction:
			clause = Concat(clause, Raw(" THEN UPDATE SET "), mergeSet(staging, w.SetColumns))
		case MergeInsertAction:
			clause = Concat(clause,
				Raw(" THEN INSERT ("), IdentList(w.InsertColumns),
				Raw(") VALUES ("), ColumnList(staging, w.InsertColumns), Raw(")"),
			)
		case MergeDeleteAction:
			clause = Concat(clause, Raw(" THEN DELETE"))
		default:
			clause = Concat(clause, Raw(" THEN DO NOTHING"))
		}
		stmt = Concat(stmt, clause)
	}
	return stmt.String()
}

// AddMergeReturning appends a RETURNING clause exposing which branch
// fired and the resulting row. Requires PostgreSQL 17+.
func AddMergeReturning(stmt, target string) string {
	return Concat(Raw(stmt), Raw(" RETURNING merge_action(), "), Star(target)).String()
}

func mergeInto(target, staging string, pkColumns []string) Fragment {
	return Concat(
		Raw("MERGE INTO "), Ident(target),
		Raw(" USING "), Ident(staging),
		Raw(" ON "), Group(JoinCondition(staging, target, pkColumns)),
	)
}

// mergeMatched builds the WHEN MATCHED branch, or the empty fragment when
// there is nothing to assign.
func mergeMatched(target, staging string, p MergeParams) Fragment {
	if len(p.SetColumns)+len(p.NullCoalesceColumns) == 0 {
		return Fragment{}
	}
	sets := []Fragment{mergeSet(staging, p.SetColumns)}
	for _, c := range p.NullCoalesceColumns {
		sets = append(sets, Concat(
			Ident(c), Raw(" = CASE WHEN "),
			Column(staging, c), Raw(" IS NULL OR "), Column(target, c), Raw(" IS NULL"),
			Raw(" THEN "), Column(staging, c),
			Raw(" ELSE "), Column(target, c),
			Raw(" END"),
		))
	}

	cond := p.Predicate
	if cond.IsEmpty() {
		cond = DistinctCondition(staging, target, p.CompareColumns)
		if nullCond := DistinctOrNullCondition(staging, target, p.NullCoalesceColumns); !nullCond.IsEmpty() {
			cond = Join(" OR ", cond, nullCond)
		}
	}

	clause := Raw(" WHEN MATCHED")
	if !cond.IsEmpty() {
		clause = Concat(clause, Raw(" AND "), Group(cond))
	}
	return Concat(clause, Raw(" THEN UPDATE SET "), Join(", ", sets...))
}

func mergeSet(staging string, columns []string) Fragment {
	sets := make([]Fragment, len(columns))
	for i, c := range columns {
		sets[i] = Join(" = ", Ident(c), Column(staging, c))
	}
	return Join(", ", sets...)
}
