// Package sqlgen composes the SQL statements that reconcile a staging
// table against a target table. All identifiers pass through Ident, so
// reserved words, mixed case and quote characters in user-controlled
// table or column names can neither break syntax nor inject SQL.
//
// Fragments are immutable values. Builders return new fragments instead
// of mutating their receivers, and a statement is rendered into a plain
// string only at the very end.
package sqlgen

import "strings"

// Fragment is an immutable piece of composed SQL text. The zero value is
// the empty fragment.
type Fragment struct {
	sql string
}

// Raw returns a fragment holding a literal SQL keyword or symbol. It must
// never be called with user-controlled input; identifiers go through
// Ident instead.
func Raw(keyword string) Fragment {
	return Fragment{sql: keyword}
}

// Ident returns a quoted identifier fragment. Multiple parts are joined
// with a dot, so Ident("t", "col") renders as `"t"."col"`. Embedded
// double quotes are doubled per the PostgreSQL quoting rules.
func Ident(parts ...string) Fragment {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return Fragment{sql: strings.Join(quoted, ".")}
}

// Column returns the qualified column fragment `"table"."column"`.
func Column(table, column string) Fragment {
	return Ident(table, column)
}

// Star returns the all-columns fragment `"table".*`.
func Star(table string) Fragment {
	return Concat(Ident(table), Raw(".*"))
}

// Join returns the given fragments joined by sep. Empty fragments are
// skipped so optional clauses can be composed without special-casing.
func Join(sep string, frags ...Fragment) Fragment {
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		if f.sql == "" {
			continue
		}
		parts = append(parts, f.sql)
	}
	return Fragment{sql: strings.Join(parts, sep)}
}

// Concat returns the fragments joined without a separator.
func Concat(frags ...Fragment) Fragment {
	return Join("", frags...)
}

// Group wraps the fragment in parentheses. Grouping an empty fragment
// returns the empty fragment, never "()".
func Group(f Fragment) Fragment {
	if f.sql == "" {
		return f
	}
	return Fragment{sql: "(" + f.sql + ")"}
}

// IdentList returns a comma-separated list of quoted identifiers.
func IdentList(names []string) Fragment {
	frags := make([]Fragment, len(names))
	for i, n := range names {
		frags[i] = Ident(n)
	}
	return Join(", ", frags...)
}

// ColumnList returns a comma-separated list of columns qualified with
// the given table name.
func ColumnList(table string, columns []string) Fragment {
	frags := make([]Fragment, len(columns))
	for i, c := range columns {
		frags[i] = Column(table, c)
	}
	return Join(", ", frags...)
}

// IsEmpty reports whether the fragment holds no SQL text.
func (f Fragment) IsEmpty() bool {
	return f.sql == ""
}

// String renders the fragment as SQL text.
func (f Fragment) String() string {
	return f.sql
}
