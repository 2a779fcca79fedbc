package pgbulk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertEmptyBatchIsNoOp(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	l := testLoader(db, Config{})

	got, err := l.Insert(context.Background(), usersSchema(), nil, InsertOptions{})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = l.Insert(context.Background(), usersSchema(), nil, InsertOptions{ReturnRecords: true})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Zero(t, db.begins, "empty batch must not touch the database")
}

func TestInsertRejectsMixedIdentity(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	l := testLoader(db, Config{})

	_, err := l.Insert(context.Background(), usersSchema(), []Record{
		{"id": int64(1), "email": "a@x"},
		{"email": "b@x"},
	}, InsertOptions{})
	assert.ErrorIs(t, err, ErrMixedIdentity)
	assert.Zero(t, db.begins)
}

func TestInsertWithoutIdentityValues(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	l := testLoader(db, Config{})

	_, err := l.Insert(context.Background(), usersSchema(), []Record{
		{"email": "a@x", "name": "Alice"},
	}, InsertOptions{})
	require.NoError(t, err)

	require.Len(t, db.log, 5)
	stg := stagingName(t, db.log[1])
	// The identity column is staged but excluded from the insert list so
	// the database assigns it.
	assert.Equal(t,
		`INSERT INTO "users" ("email", "name") SELECT "`+stg+`"."email", "`+stg+`"."name" FROM "`+stg+`"`,
		db.log[3])
	assert.Equal(t, "\\N\ta@x\tAlice\n", db.copyData[0])
}

func TestInsertWithIdentityValues(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	l := testLoader(db, Config{})

	_, err := l.Insert(context.Background(), usersSchema(), []Record{
		{"id": int64(7), "email": "a@x"},
	}, InsertOptions{})
	require.NoError(t, err)

	stg := stagingName(t, db.log[1])
	assert.Equal(t,
		`INSERT INTO "users" ("id", "email", "name") SELECT "`+stg+`"."id", "`+stg+`"."email", "`+stg+`"."name" FROM "`+stg+`"`,
		db.log[3])
}

func TestInsertReturnRecords(t *testing.T) {
	t.Parallel()

	db := &fakeDB{results: []scripted{
		{cols: []string{"id", "email", "name"}, rows: [][]any{{int64(1), "a@x", nil}}},
	}}
	l := testLoader(db, Config{})

	got, err := l.Insert(context.Background(), usersSchema(), []Record{
		{"email": "a@x"},
	}, InsertOptions{ReturnRecords: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0]["id"])

	assert.True(t, strings.HasSuffix(db.log[3], ` RETURNING "users".*`), db.log[3])
}

func TestInsertIgnoreConflictsReturnRecords(t *testing.T) {
	t.Parallel()

	db := &fakeDB{results: []scripted{
		{cols: []string{"id", "email", "name"}, rows: [][]any{
			{int64(7), "a@x", nil},
			{int64(8), "b@x", nil},
		}},
	}}
	l := testLoader(db, Config{})

	// Identity values present: a RETURNING clause would omit rows whose
	// insert was skipped by ON CONFLICT, so the loader re-selects instead.
	got, err := l.Insert(context.Background(), usersSchema(), []Record{
		{"id": int64(7), "email": "a@x"},
		{"id": int64(8), "email": "b@x"},
	}, InsertOptions{IgnoreConflicts: true, ReturnRecords: true})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	stg := stagingName(t, db.log[1])
	assert.True(t, strings.HasSuffix(db.log[3], "ON CONFLICT DO NOTHING"), db.log[3])
	assert.NotContains(t, db.log[3], "RETURNING")
	assert.Equal(t,
		`SELECT "users".* FROM "users" INNER JOIN "`+stg+`" ON "`+stg+`"."id" = "users"."id"`,
		db.log[4])
}

func TestInsertIgnoreConflictsWithoutReturn(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	l := testLoader(db, Config{})

	_, err := l.Insert(context.Background(), usersSchema(), []Record{
		{"email": "a@x"},
	}, InsertOptions{IgnoreConflicts: true})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(db.log[3], "ON CONFLICT DO NOTHING"), db.log[3])
}
