// Package schema normalizes server-declared parameter descriptions.
//
// Operations declare their parameters in one of two shapes: a full object
// schema ({type:"object", properties:{...}}) or a flat field-name → type-name
// map. Normalize converts either into one canonical form with a
// deterministic field order, so the invocation form model never has to care
// which shape the server used.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pinctl/pinctl/internal/errors"
)

// Field types after normalization.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Field is one normalized parameter of an operation.
type Field struct {
	Name        string
	Type        string
	Description string
	Required    bool

	// EnumValues holds the fixed choices for an enumerated field,
	// in the order the server declared them.
	EnumValues []string

	// DynamicRef names a reference collection ("backends", "buckets",
	// "pins") whose current members become the choices for this field.
	DynamicRef string

	// Default is the pre-filled value, if the server declared one.
	Default interface{}

	// Multiline hints that a string field wants a multi-line editor.
	Multiline bool
}

// Schema is the canonical form of an operation's parameter description.
// Fields are ordered by name so two normalizations of the same input are
// always identical.
type Schema struct {
	Fields []Field

	// Confirm carries the human-confirmation message declared by the
	// server. Empty means the operation dispatches without confirmation.
	Confirm string
}

// HasFields reports whether the schema declares any parameters.
func (s *Schema) HasFields() bool {
	return len(s.Fields) > 0
}

// Field returns the named field and whether it exists.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Normalize converts a raw parameter description into canonical form.
// A nil or empty input yields an empty schema. Normalization is pure:
// identical input always yields an identical Schema.
func Normalize(raw json.RawMessage) (*Schema, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return &Schema{}, nil
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrValidate,
			"Operation declares an unreadable parameter schema", "")
	}

	props, required, confirm := splitSchema(m)

	s := &Schema{Confirm: confirm}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	// Deterministic field order: sorted by name.
	sort.Strings(names)

	for _, name := range names {
		field, err := normalizeField(name, props[name])
		if err != nil {
			return nil, err
		}
		if required[name] {
			field.Required = true
		}
		s.Fields = append(s.Fields, field)
	}

	return s, nil
}

// Canonical returns the normalized schema as the canonical wire shape
// ({type:"object", properties:{...}}). Normalizing the result yields an
// identical Schema, which is the idempotence property tests rely on.
func (s *Schema) Canonical() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Fields))
	var required []string

	for _, f := range s.Fields {
		p := map[string]interface{}{"type": f.Type}
		if f.Description != "" {
			p["description"] = f.Description
		}
		if len(f.EnumValues) > 0 {
			enum := make([]interface{}, len(f.EnumValues))
			for i, v := range f.EnumValues {
				enum[i] = v
			}
			p["enum"] = enum
		}
		if f.DynamicRef != "" {
			p["enum_ref"] = f.DynamicRef
		}
		if f.Default != nil {
			p["default"] = f.Default
		}
		if f.Multiline {
			p["multiline"] = true
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}

	out := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	if s.Confirm != "" {
		out["confirm"] = s.Confirm
	}
	return out
}

// splitSchema separates a raw description into its properties map, required
// set, and confirmation message, synthesizing properties for the flat form.
func splitSchema(m map[string]interface{}) (props map[string]interface{}, required map[string]bool, confirm string) {
	required = make(map[string]bool)

	if t, _ := m["type"].(string); t == "object" {
		// Canonical object schema: pass properties through unchanged.
		props, _ = m["properties"].(map[string]interface{})
		if props == nil {
			props = map[string]interface{}{}
		}
		if reqList, ok := m["required"].([]interface{}); ok {
			for _, r := range reqList {
				if name, ok := r.(string); ok {
					required[name] = true
				}
			}
		}
		confirm, _ = m["confirm"].(string)
		return props, required, confirm
	}

	// Flat form: every entry is a field, its value the type name or an
	// inline property object.
	props = make(map[string]interface{}, len(m))
	for name, v := range m {
		switch pv := v.(type) {
		case string:
			props[name] = map[string]interface{}{"type": pv}
		default:
			props[name] = v
		}
	}
	return props, required, ""
}

// normalizeField converts one raw property value into a Field.
func normalizeField(name string, v interface{}) (Field, error) {
	f := Field{Name: name, Type: TypeString}

	p, ok := v.(map[string]interface{})
	if !ok {
		return f, errors.New(errors.ErrValidate,
			fmt.Sprintf("Parameter %q has an unsupported schema shape", name), "")
	}

	if t, ok := p["type"].(string); ok {
		f.Type = normalizeType(t)
	}
	if d, ok := p["description"].(string); ok {
		f.Description = d
	}
	if r, ok := p["required"].(bool); ok && r {
		f.Required = true
	}
	if enum, ok := p["enum"].([]interface{}); ok {
		for _, e := range enum {
			f.EnumValues = append(f.EnumValues, fmt.Sprint(e))
		}
	}
	if ref, ok := p["enum_ref"].(string); ok {
		f.DynamicRef = ref
	}
	if def, hasDefault := p["default"]; hasDefault && def != nil {
		f.Default = def
	}
	if ml, ok := p["multiline"].(bool); ok {
		f.Multiline = ml
	}

	return f, nil
}

// normalizeType maps raw type names onto the five canonical kinds.
func normalizeType(t string) string {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeObject, TypeArray:
		return t
	case "integer", "int", "float", "double":
		return TypeNumber
	case "bool":
		return TypeBoolean
	case "text", "str":
		return TypeString
	default:
		return TypeString
	}
}
