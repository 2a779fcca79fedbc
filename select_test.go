package pgbulk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectEmptyTuples(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	l := testLoader(db, Config{})

	got, err := l.Select(context.Background(), usersSchema(), []string{"id"}, nil, nil, SelectOptions{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, db.log, "no tuples means no query")
}

func TestSelectValidation(t *testing.T) {
	t.Parallel()

	l := testLoader(&fakeDB{}, Config{})
	ctx := context.Background()

	_, err := l.Select(ctx, usersSchema(), nil, nil, [][]any{{int64(1)}}, SelectOptions{})
	assert.True(t, IsConfigError(err), "got %v", err)

	_, err = l.Select(ctx, usersSchema(), []string{"id"}, nil, [][]any{{int64(1), "extra"}}, SelectOptions{})
	assert.True(t, IsConfigError(err), "tuple arity mismatch must be rejected, got %v", err)

	_, err = l.Select(ctx, usersSchema(), []string{"bogus"}, nil, [][]any{{int64(1)}}, SelectOptions{})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSelectStatementAndDedup(t *testing.T) {
	t.Parallel()

	db := &fakeDB{results: []scripted{
		{cols: []string{"email", "id"}, rows: [][]any{
			{"a@x", int64(1)},
			{"b@x", int64(2)},
		}},
	}}
	l := testLoader(db, Config{})

	got, err := l.Select(context.Background(), usersSchema(),
		[]string{"id"}, []string{"email"},
		[][]any{{int64(1)}, {int64(2)}, {int64(1)}}, SelectOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Duplicate tuples collapse, and filter fields ride along in the
	// select list so results can be correlated with inputs.
	require.Len(t, db.log, 1)
	assert.Equal(t, `SELECT "email", "id" FROM "users" WHERE ("id") IN (VALUES ($1), ($2))`, db.log[0])
	require.Len(t, db.args, 1)
	assert.Equal(t, []any{int64(1), int64(2)}, db.args[0])
}

func TestSelectDedupCollapsesExactDuplicatesOnly(t *testing.T) {
	t.Parallel()

	s := NewSchema("t", FieldSpec{Name: "a"}, FieldSpec{Name: "b"})
	db := &fakeDB{}
	l := testLoader(db, Config{})

	// The two distinct tuples render identically when naively joined
	// ("a b"+"c" vs "a"+"b c"); both must survive, only the exact
	// duplicate collapses.
	_, err := l.Select(context.Background(), s, []string{"a", "b"}, nil, [][]any{
		{"a b", "c"},
		{"a", "b c"},
		{"a b", "c"},
	}, SelectOptions{})
	require.NoError(t, err)

	require.Len(t, db.log, 1)
	assert.Contains(t, db.log[0], `IN (VALUES ($1, $2), ($3, $4))`)
	assert.Equal(t, []any{"a b", "c", "a", "b c"}, db.args[0])
}

func TestSelectLockRows(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	l := testLoader(db, Config{})

	_, err := l.Select(context.Background(), usersSchema(),
		[]string{"id"}, nil, [][]any{{int64(1)}}, SelectOptions{LockRows: true})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(db.log[0], " FOR UPDATE"), db.log[0])
}

func TestSelectValueTransform(t *testing.T) {
	t.Parallel()

	s := NewSchema("users",
		FieldSpec{Name: "email", Encode: func(v any) (any, error) {
			return strings.ToLower(v.(string)), nil
		}},
	)

	db := &fakeDB{}
	l := testLoader(db, Config{})
	_, err := l.Select(context.Background(), s, []string{"email"}, nil, [][]any{{"A@X"}}, SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, []any{"a@x"}, db.args[0])

	db = &fakeDB{}
	l = testLoader(db, Config{})
	_, err = l.Select(context.Background(), s, []string{"email"}, nil, [][]any{{"A@X"}}, SelectOptions{SkipValueTransform: true})
	require.NoError(t, err)
	assert.Equal(t, []any{"A@X"}, db.args[0])
}

func TestSelectDecodesUnknownColumns(t *testing.T) {
	t.Parallel()

	db := &fakeDB{results: []scripted{
		{cols: []string{"id", "rank"}, rows: [][]any{{int64(1), int64(42)}}},
	}}
	l := testLoader(db, Config{})

	got, err := l.Select(context.Background(), usersSchema(), []string{"id"}, nil, [][]any{{int64(1)}}, SelectOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0]["rank"], "columns without a field descriptor keep their raw column name")
}
