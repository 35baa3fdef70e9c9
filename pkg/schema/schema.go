package schema

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind classifies a [Schema] node.
type Kind int

const (
	KindPrimitive Kind = iota
	KindObject
	KindArray
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindReference:
		return "reference"
	case KindPrimitive:
		return "primitive"
	default:
		return "unknown"
	}
}

// Schema is a single node in a JSON Schema document tree.
//
// Properties, Definitions and Defs preserve the key order of the source
// document. Keywords not covered by a named field are kept in Extras, also in
// document order.
type Schema struct {
	Version     string   `json:"$schema,omitempty"`
	ID          string   `json:"$id,omitempty"`
	Ref         string   `json:"$ref,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        TypeList `json:"type,omitempty"`
	Format      string   `json:"format,omitempty"`

	Properties  *orderedmap.OrderedMap[string, *Schema] `json:"properties,omitempty"`
	Items       *Schema                                 `json:"items,omitempty"`
	Definitions *orderedmap.OrderedMap[string, *Schema] `json:"definitions,omitempty"`
	Defs        *orderedmap.OrderedMap[string, *Schema] `json:"$defs,omitempty"`

	Required []string  `json:"required,omitempty"`
	OneOf    []*Schema `json:"oneOf,omitempty"`
	AnyOf    []*Schema `json:"anyOf,omitempty"`
	AllOf    []*Schema `json:"allOf,omitempty"`
	Enum     []any     `json:"enum,omitempty"`

	AdditionalProperties json.RawMessage `json:"additionalProperties,omitempty"`

	Extras *orderedmap.OrderedMap[string, json.RawMessage] `json:"-"`
}

// Kind reports which variant this node is. A node holding a $ref is always a
// reference, regardless of any other content.
func (s *Schema) Kind() Kind {
	switch {
	case s.Ref != "":
		return KindReference
	case s.Type.Has("object") || s.Properties != nil:
		return KindObject
	case s.Type.Has("array") || s.Items != nil:
		return KindArray
	default:
		return KindPrimitive
	}
}

// PrimaryType returns the first declared type, or "" if none is declared.
func (s *Schema) PrimaryType() string {
	if len(s.Type) == 0 {
		return ""
	}

	return s.Type[0]
}

// Property returns the named property and whether it exists.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s.Properties == nil {
		return nil, false
	}

	return s.Properties.Get(name)
}

// IsRequired reports whether name appears in this node's required list.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}

	return false
}

// Clone returns a deep copy of the subtree rooted at s.
func (s *Schema) Clone() (*Schema, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("clone schema: %w", err)
	}

	out := &Schema{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("clone schema: %w", err)
	}

	return out, nil
}

// JSON returns the indented JSON representation of the document.
func (s *Schema) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}

// TypeList holds the JSON Schema "type" keyword, which is either a single
// string or a list of strings. A single type marshals back to a bare string.
type TypeList []string

// Has reports whether t contains the given type name.
func (t TypeList) Has(name string) bool {
	for _, v := range t {
		if v == name {
			return true
		}
	}

	return false
}

func (t *TypeList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TypeList{single}

		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("type must be a string or a list of strings: %w", err)
	}

	*t = TypeList(list)

	return nil
}

func (t TypeList) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0]) //nolint:wrapcheck // Stdlib passthrough.
	}

	return json.Marshal([]string(t)) //nolint:wrapcheck // Stdlib passthrough.
}
