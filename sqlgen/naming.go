package sqlgen

import (
	"strings"

	"github.com/google/uuid"
)

// MaxIdentifierLen is the PostgreSQL limit on identifier length in bytes.
const MaxIdentifierLen = 63

const stagingPrefix = "staging_"

// StagingTableName returns a staging table name for the given source
// table, unique across concurrent invocations. The name is bounded by
// MaxIdentifierLen; when truncation is needed the source-name portion is
// shortened, never the uniqueness suffix.
func StagingTableName(source string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	overhead := len(stagingPrefix) + 1 + len(suffix) // prefix + "_" + suffix
	if limit := MaxIdentifierLen - overhead; len(source) > limit {
		source = source[:limit]
	}
	return stagingPrefix + source + "_" + suffix
}
