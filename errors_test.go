package pgbulk

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMergeUnsupported(t *testing.T) {
	t.Parallel()

	assert.True(t, mergeUnsupported(&pgconn.PgError{Code: "42601"}), "pre-15 syntax error")
	assert.True(t, mergeUnsupported(&pgconn.PgError{Code: "0A000"}), "feature not supported")
	assert.False(t, mergeUnsupported(&pgconn.PgError{Code: "23505"}), "constraint violation is a real failure")
	assert.False(t, mergeUnsupported(errors.New("network down")))
	assert.False(t, mergeUnsupported(nil))

	wrapped := fmt.Errorf("executing statement: %w", &pgconn.PgError{Code: "42601"})
	assert.True(t, mergeUnsupported(wrapped), "classification must see through wrapping")
}

func TestConfigError(t *testing.T) {
	t.Parallel()

	err := configErrorf("upsert", "bad %s", "combo")
	assert.True(t, IsConfigError(err))
	assert.False(t, IsConfigError(errors.New("other")))
	assert.False(t, IsConfigError(nil))
	assert.Equal(t, "pgbulk: upsert: bad combo", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsConfigError(wrapped))
}

func TestNoResultsError(t *testing.T) {
	t.Parallel()

	err := &NoResultsError{Op: "insert", Statements: 2}
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Contains(t, err.Error(), "insert")
}

func TestUnknownFieldError(t *testing.T) {
	t.Parallel()

	err := &UnknownFieldError{Table: "users", Name: "bogus"}
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, err.Error(), `"bogus"`)
}
