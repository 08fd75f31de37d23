// Package schema is the registry of expected customer columns: their
// declared primitive types and nullability. A Schema is immutable once built
// and is consumed by the preflight gate, the normalizer and the validator.
package schema

import "custdq/pkg/records"

// Primitive types a field may declare.
const (
	TypeInt64  = "int64"
	TypeString = "string"
)

// Field declares one expected column.
type Field struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"` // "int64" | "string"
	Nullable bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// Schema is an ordered set of fields plus the primary-key field name.
type Schema struct {
	Key    string
	Fields []Field
}

// Customer returns the customer contract: every field required, the id an
// integer primary key.
func Customer() Schema {
	return Schema{
		Key: records.FieldCustomerID,
		Fields: []Field{
			{Name: records.FieldCustomerID, Type: TypeInt64},
			{Name: records.FieldName, Type: TypeString},
			{Name: records.FieldEmail, Type: TypeString},
			{Name: records.FieldCountry, Type: TypeString},
		},
	}
}

// Lookup returns the declaration for name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns every declared field name in declaration order.
func (s Schema) FieldNames() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Required returns the non-nullable field names in declaration order.
func (s Schema) Required() []string {
	var out []string
	for _, f := range s.Fields {
		if !f.Nullable {
			out = append(out, f.Name)
		}
	}
	return out
}

// StringFields returns the names of fields declared as strings.
func (s Schema) StringFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Type == TypeString {
			out = append(out, f.Name)
		}
	}
	return out
}
