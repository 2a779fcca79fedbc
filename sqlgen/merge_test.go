package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeUpsert(t *testing.T) {
	t.Parallel()

	got := MergeUpsert("users", "stg", MergeParams{
		PKColumns:      []string{"id"},
		SetColumns:     []string{"email"},
		CompareColumns: []string{"email"},
		InsertColumns:  []string{"id", "email"},
	})
	assert.Equal(t,
		`MERGE INTO "users" USING "stg" ON ("stg"."id" = "users"."id")`+
			` WHEN MATCHED AND ("stg"."email" IS DISTINCT FROM "users"."email")`+
			` THEN UPDATE SET "email" = "stg"."email"`+
			` WHEN NOT MATCHED THEN INSERT ("id", "email") VALUES ("stg"."id", "stg"."email")`,
		got)
}

func TestMergeUpsertInsertOnly(t *testing.T) {
	t.Parallel()

	// Nothing to assign on match drops the WHEN MATCHED branch entirely.
	got := MergeUpsert("users", "stg", MergeParams{
		PKColumns:     []string{"id"},
		InsertColumns: []string{"id", "email"},
	})
	assert.Equal(t,
		`MERGE INTO "users" USING "stg" ON ("stg"."id" = "users"."id")`+
			` WHEN NOT MATCHED THEN INSERT ("id", "email") VALUES ("stg"."id", "stg"."email")`,
		got)
}

func TestMergeUpdate(t *testing.T) {
	t.Parallel()

	got := MergeUpdate("users", "stg", MergeParams{
		PKColumns:      []string{"id"},
		SetColumns:     []string{"email"},
		CompareColumns: []string{"email"},
	})
	assert.Equal(t,
		`MERGE INTO "users" USING "stg" ON ("stg"."id" = "users"."id")`+
			` WHEN MATCHED AND ("stg"."email" IS DISTINCT FROM "users"."email")`+
			` THEN UPDATE SET "email" = "stg"."email"`+
			` WHEN NOT MATCHED THEN DO NOTHING`,
		got)
}

func TestMergeUpdateEmptySetSelfAssigns(t *testing.T) {
	t.Parallel()

	got := MergeUpdate("users", "stg", MergeParams{PKColumns: []string{"id"}})
	assert.Equal(t,
		`MERGE INTO "users" USING "stg" ON ("stg"."id" = "users"."id")`+
			` WHEN MATCHED THEN UPDATE SET "id" = "users"."id"`+
			` WHEN NOT MATCHED THEN DO NOTHING`,
		got)
}

func TestMergeUpdateNullCoalesce(t *testing.T) {
	t.Parallel()

	got := MergeUpdate("users", "stg", MergeParams{
		PKColumns:           []string{"id"},
		NullCoalesceColumns: []string{"note"},
	})
	assert.Equal(t,
		`MERGE INTO "users" USING "stg" ON ("stg"."id" = "users"."id")`+
			` WHEN MATCHED AND ("stg"."note" IS DISTINCT FROM "users"."note" AND ("stg"."note" IS NULL OR "users"."note" IS NULL))`+
			` THEN UPDATE SET "note" = CASE WHEN "stg"."note" IS NULL OR "users"."note" IS NULL THEN "stg"."note" ELSE "users"."note" END`+
			` WHEN NOT MATCHED THEN DO NOTHING`,
		got)
}

func TestMergeConditional(t *testing.T) {
	t.Parallel()

	got := MergeConditional("users", "stg", []string{"id"}, []MergeWhen{
		{
			Matched:   true,
			Condition: GreaterThanCondition("stg", "users", "version"),
			Action:    MergeUpdateAction,
			SetColumns: []string{
				"version", "email",
			},
		},
		{Matched: true, Action: MergeDeleteAction, Condition: Raw(`"stg"."deleted"`)},
		{Matched: false, Action: MergeInsertAction, InsertColumns: []string{"id", "email"}},
	})
	assert.Equal(t,
		`MERGE INTO "users" USING "stg" ON ("stg"."id" = "users"."id")`+
			` WHEN MATCHED AND ("stg"."version" > "users"."version")`+
			` THEN UPDATE SET "version" = "stg"."version", "email" = "stg"."email"`+
			` WHEN MATCHED AND ("stg"."deleted") THEN DELETE`+
			` WHEN NOT MATCHED THEN INSERT ("id", "email") VALUES ("stg"."id", "stg"."email")`,
		got)
}

func TestMergeConditionalDoNothingBranch(t *testing.T) {
	t.Parallel()

	got := MergeConditional("users", "stg", []string{"id"}, []MergeWhen{
		{Matched: false, Action: MergeDoNothing},
	})
	assert.Equal(t,
		`MERGE INTO "users" USING "stg" ON ("stg"."id" = "users"."id")`+
			` WHEN NOT MATCHED THEN DO NOTHING`,
		got)
}

func TestAddMergeReturning(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		`MERGE INTO "t" RETURNING merge_action(), "t".*`,
		AddMergeReturning(`MERGE INTO "t"`, "t"))
}
