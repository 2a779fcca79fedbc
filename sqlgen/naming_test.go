package sqlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingTableName(t *testing.T) {
	t.Parallel()

	a := StagingTableName("users")
	b := StagingTableName("users")
	assert.True(t, strings.HasPrefix(a, "staging_users_"))
	assert.NotEqual(t, a, b, "concurrent invocations must get distinct staging tables")
	assert.LessOrEqual(t, len(a), MaxIdentifierLen)
}

func TestStagingTableNameTruncatesSourceNotSuffix(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 100)
	name := StagingTableName(long)
	require.Equal(t, MaxIdentifierLen, len(name))

	// The 32-char uniqueness suffix survives truncation intact.
	i := strings.LastIndex(name, "_")
	require.NotEqual(t, -1, i)
	assert.Len(t, name[i+1:], 32)
	assert.True(t, strings.HasPrefix(name, "staging_aaaa"))
}
