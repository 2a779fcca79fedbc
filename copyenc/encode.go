// Package copyenc serializes already-encoded row values into the text
// stream PostgreSQL's COPY ... FROM STDIN expects: one record per line,
// tab-delimited CSV with `\N` as the null sentinel. Escaping follows the
// engine's documented CSV rules (fields containing the delimiter, quotes
// or line terminators are quoted), so delimiter characters inside values
// cannot corrupt row or column boundaries.
package copyenc

import (
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// NullSentinel marks a SQL NULL in the copy stream. A non-NULL string
// value equal to the sentinel itself contains nothing the CSV layer
// quotes, so it is read back as NULL, matching the engine's text-format
// convention.
const NullSentinel = `\N`

// Encode serializes the rows and returns a reader positioned at the
// start of the stream. Each cell must already be encoded to a storage
// value by its field descriptor; nil means SQL NULL.
func Encode(rows [][]any) (io.Reader, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'
	record := make([]string, 0, 16)
	for i, row := range rows {
		record = record[:0]
		for j, v := range row {
			s, err := FormatValue(v)
			if err != nil {
				return nil, fmt.Errorf("copyenc: row %d column %d: %w", i, j, err)
			}
			record = append(record, s)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("copyenc: row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("copyenc: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// FormatValue stringifies a single storage value for the copy stream.
// nil becomes the null sentinel; JSON values keep their canonical text
// form; byte slices use the bytea hex input format.
func FormatValue(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return NullSentinel, nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case json.RawMessage:
		return string(v), nil
	case []byte:
		return `\x` + hex.EncodeToString(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}
