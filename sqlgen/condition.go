package sqlgen

// JoinCondition correlates staging rows with target rows on the given
// columns: `src.col = dst.col AND ...`.
func JoinCondition(src, dst string, columns []string) Fragment {
	conds := make([]Fragment, len(columns))
	for i, c := range columns {
		conds[i] = Join(" = ", Column(src, c), Column(dst, c))
	}
	return Join(" AND ", conds...)
}

// DistinctCondition is the NULL-safe inequality across the compare
// columns: `src.col IS DISTINCT FROM dst.col OR ...`. NULL against a
// value is distinct; NULL against NULL is not.
func DistinctCondition(src, dst string, columns []string) Fragment {
	conds := make([]Fragment, len(columns))
	for i, c := range columns {
		conds[i] = Join(" IS DISTINCT FROM ", Column(src, c), Column(dst, c))
	}
	return Join(" OR ", conds...)
}

// DistinctOrNullCondition gates null-coalescing updates: a column fires
// only when the values differ AND at least one side is NULL. Two unequal
// non-NULL values do not fire.
func DistinctOrNullCondition(src, dst string, columns []string) Fragment {
	conds := make([]Fragment, len(columns))
	for i, c := range columns {
		conds[i] = Concat(
			Column(src, c), Raw(" IS DISTINCT FROM "), Column(dst, c),
			Raw(" AND ("),
			Column(src, c), Raw(" IS NULL OR "), Column(dst, c), Raw(" IS NULL"),
			Raw(")"),
		)
	}
	return Join(" OR ", conds...)
}

// GreaterThanCondition compares a single column between the two tables,
// for caller-supplied "only update if newer" predicates.
func GreaterThanCondition(src, dst, column string) Fragment {
	return Join(" > ", Column(src, column), Column(dst, column))
}
