package pgbulk

import (
	"github.com/goccy/go-json"
)

// Field describes a single column of a target table. The loader treats
// fields as opaque beyond these attributes; any schema system can be
// plugged in by satisfying this interface.
type Field interface {
	// Name is the logical field name records are keyed by.
	Name() string
	// Column is the physical column name in the database.
	Column() string
	// Nullable reports whether the column accepts NULL.
	Nullable() bool
	// Auto reports whether the column value is generated by the database
	// (identity/serial). Auto fields are excluded from SET lists and,
	// when unset, from insert column lists.
	Auto() bool
	// Encode converts a record value to its storage representation,
	// suitable for the copy stream or a bound query parameter.
	Encode(v any) (any, error)
	// Decode converts a result value back to the record representation.
	Decode(v any) (any, error)
}

// Schema describes the target table of an entity type.
type Schema interface {
	// Table is the physical table name.
	Table() string
	// Fields returns all field descriptors in a stable order.
	Fields() []Field
	// Field returns the descriptor for a logical field name.
	Field(name string) (Field, error)
	// Identity returns the auto-generated key field, or nil when the
	// table has none.
	Identity() Field
}

// FieldSpec declares one field of a TableSchema.
type FieldSpec struct {
	Name     string
	Column   string // defaults to Name
	Nullable bool
	Auto     bool
	// JSON marks the field as JSON-typed: values are serialized to their
	// canonical JSON text on encode and parsed on decode, unless custom
	// Encode/Decode functions are given.
	JSON bool
	// Encode and Decode override the default pass-through coercion.
	Encode func(any) (any, error)
	Decode func(any) (any, error)
}

// TableSchema is a map-backed Schema implementation declared in code.
type TableSchema struct {
	table    string
	fields   []Field
	byName   map[string]Field
	identity Field
}

// NewSchema builds a TableSchema from field specs. The first Auto field
// becomes the identity field.
func NewSchema(table string, specs ...FieldSpec) *TableSchema {
	s := &TableSchema{
		table:  table,
		byName: make(map[string]Field, len(specs)),
	}
	for _, spec := range specs {
		if spec.Column == "" {
			spec.Column = spec.Name
		}
		f := &fieldDesc{spec: spec}
		s.fields = append(s.fields, f)
		s.byName[spec.Name] = f
		if spec.Auto && s.identity == nil {
			s.identity = f
		}
	}
	return s
}

// Table returns the physical table name.
func (s *TableSchema) Table() string { return s.table }

// Fields returns all field descriptors in declaration order.
func (s *TableSchema) Fields() []Field { return s.fields }

// Field returns the descriptor for a logical field name.
func (s *TableSchema) Field(name string) (Field, error) {
	f, ok := s.byName[name]
	if !ok {
		return nil, &UnknownFieldError{Table: s.table, Name: name}
	}
	return f, nil
}

// Identity returns the auto-generated key field, or nil.
func (s *TableSchema) Identity() Field { return s.identity }

type fieldDesc struct {
	spec FieldSpec
}

func (f *fieldDesc) Name() string   { return f.spec.Name }
func (f *fieldDesc) Column() string { return f.spec.Column }
func (f *fieldDesc) Nullable() bool { return f.spec.Nullable }
func (f *fieldDesc) Auto() bool     { return f.spec.Auto }

func (f *fieldDesc) Encode(v any) (any, error) {
	if f.spec.Encode != nil {
		return f.spec.Encode(v)
	}
	if f.spec.JSON && v != nil {
		if raw, ok := v.(json.RawMessage); ok {
			return raw, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(b), nil
	}
	return v, nil
}

func (f *fieldDesc) Decode(v any) (any, error) {
	if f.spec.Decode != nil {
		return f.spec.Decode(v)
	}
	if f.spec.JSON && v != nil {
		var b []byte
		switch v := v.(type) {
		case []byte:
			b = v
		case string:
			b = []byte(v)
		default:
			return v, nil
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return v, nil
}
