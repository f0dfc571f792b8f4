package tool

import (
	"encoding/json"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

// Type is the node type of a parameter schema.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Property is one named member of an object schema. Properties keep their
// declaration order, which is also the order validation walks them in.
type Property struct {
	Name   string
	Schema *Schema
}

// Schema is a declarative parameter schema tree. Only the constraints relevant to
// a node's Type are consulted.
type Schema struct {
	Type        Type
	Description string

	// object
	Properties           []Property
	Required             []string
	AdditionalProperties *bool

	// any node
	Default any

	// string
	Enum      []string
	MinLength *int
	MaxLength *int
	Pattern   string

	// number / integer
	Minimum    *float64
	Maximum    *float64
	MultipleOf *float64

	// array
	Items       *Schema
	MinItems    *int
	MaxItems    *int
	UniqueItems bool
}

// Object returns an object schema with the given properties.
func Object(props ...Property) *Schema {
	return &Schema{Type: TypeObject, Properties: props}
}

// Prop pairs a property name with its schema.
func Prop(name string, s *Schema) Property { return Property{Name: name, Schema: s} }

// String returns a string schema with a description.
func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// Enum returns a string schema restricted to values.
func Enum(description string, values ...string) *Schema {
	return &Schema{Type: TypeString, Description: description, Enum: values}
}

// ArrayOf returns an array schema whose elements satisfy items.
func ArrayOf(description string, items *Schema) *Schema {
	return &Schema{Type: TypeArray, Description: description, Items: items}
}

// Ptr returns a pointer to v; handy for optional numeric constraints.
func Ptr[T any](v T) *T { return &v }

// Property looks up a declared property by name.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s == nil {
		return nil, false
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// IsRequired reports whether name is listed in the object's required set.
func (s *Schema) IsRequired(name string) bool {
	return s != nil && slices.Contains(s.Required, name)
}

// JSONSchema renders the tree as a JSON Schema document suitable for tools/list.
func (s *Schema) JSONSchema() *jsonschema.Schema {
	if s == nil {
		return nil
	}
	js := &jsonschema.Schema{
		Type:        string(s.Type),
		Description: s.Description,
		Pattern:     s.Pattern,
		MinLength:   s.MinLength,
		MaxLength:   s.MaxLength,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
		MultipleOf:  s.MultipleOf,
		MinItems:    s.MinItems,
		MaxItems:    s.MaxItems,
		UniqueItems: s.UniqueItems,
	}
	for _, v := range s.Enum {
		js.Enum = append(js.Enum, v)
	}
	if s.Default != nil {
		if b, err := json.Marshal(s.Default); err == nil {
			js.Default = b
		}
	}
	if len(s.Properties) > 0 {
		js.Properties = make(map[string]*jsonschema.Schema, len(s.Properties))
		for _, p := range s.Properties {
			js.Properties[p.Name] = p.Schema.JSONSchema()
		}
	}
	if len(s.Required) > 0 {
		js.Required = slices.Clone(s.Required)
	}
	if s.AdditionalProperties != nil && !*s.AdditionalProperties {
		// jsonschema-go spells the "false" schema as {"not": {}}.
		js.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
	}
	if s.Items != nil {
		js.Items = s.Items.JSONSchema()
	}
	return js
}

// MarshalJSON emits the JSON Schema rendering so descriptors print naturally.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.JSONSchema())
}
