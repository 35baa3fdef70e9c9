package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dadav/go-jsonpointer"

	"github.com/schemakit/schemakit/pkg/schemaerrors"
)

// Pointer resolves a JSON pointer (e.g. "/definitions/foo") against the
// document and returns the schema node it addresses. The walk stays on the
// typed tree so property order is preserved; only when a pointer passes
// through an unknown keyword does it fall back to a generic lookup.
func (s *Schema) Pointer(ptr string) (*Schema, error) {
	if ptr == "" || ptr == "/" {
		return s, nil
	}

	if !strings.HasPrefix(ptr, "/") {
		return nil, fmt.Errorf("%w: pointer %q must start with '/'", schemaerrors.ErrInvalidFormat, ptr)
	}

	tokens := strings.Split(ptr[1:], "/")
	for i, t := range tokens {
		t = strings.ReplaceAll(t, "~1", "/")
		tokens[i] = strings.ReplaceAll(t, "~0", "~")
	}

	return s.pointer(tokens, ptr)
}

func (s *Schema) pointer(tokens []string, full string) (*Schema, error) {
	if len(tokens) == 0 {
		return s, nil
	}

	notFound := func() error {
		return fmt.Errorf("%w: %q has no element %q", schemaerrors.ErrTargetNotFound, full, tokens[0])
	}

	switch tok := tokens[0]; tok {
	case "properties", "definitions", "$defs":
		if len(tokens) < 2 {
			return nil, notFound()
		}

		var m interface {
			Get(string) (*Schema, bool)
		}

		switch tok {
		case "properties":
			m = s.Properties
		case "definitions":
			m = s.Definitions
		default:
			m = s.Defs
		}

		if m == nil || isNilMap(tok, s) {
			return nil, notFound()
		}

		sub, ok := m.Get(tokens[1])
		if !ok {
			return nil, notFound()
		}

		return sub.pointer(tokens[2:], full)

	case "items":
		if s.Items == nil {
			return nil, notFound()
		}

		return s.Items.pointer(tokens[1:], full)

	case "oneOf", "anyOf", "allOf":
		var list []*Schema

		switch tok {
		case "oneOf":
			list = s.OneOf
		case "anyOf":
			list = s.AnyOf
		default:
			list = s.AllOf
		}

		if len(tokens) < 2 {
			return nil, notFound()
		}

		i, err := strconv.Atoi(tokens[1])
		if err != nil || i < 0 || i >= len(list) {
			return nil, notFound()
		}

		return list[i].pointer(tokens[2:], full)

	case "additionalProperties":
		sub, ok, err := s.AdditionalSchema()
		if err != nil || !ok {
			return nil, notFound()
		}

		return sub.pointer(tokens[1:], full)

	default:
		return s.extraPointer(tokens, full)
	}
}

// extraPointer resolves the remainder of a pointer inside an unknown
// keyword's raw value.
func (s *Schema) extraPointer(tokens []string, full string) (*Schema, error) {
	notFound := func() error {
		return fmt.Errorf("%w: %q has no element %q", schemaerrors.ErrTargetNotFound, full, tokens[0])
	}

	if s.Extras == nil {
		return nil, notFound()
	}

	raw, ok := s.Extras.Get(tokens[0])
	if !ok {
		return nil, notFound()
	}

	var obj any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parse %q: %w", tokens[0], err)
	}

	if len(tokens) > 1 {
		rest := "/" + strings.Join(tokens[1:], "/")

		res, err := jsonpointer.Get(obj, rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", schemaerrors.ErrTargetNotFound, full, err)
		}

		obj = res
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: pointer target: %w", schemaerrors.ErrJSONMarshal, err)
	}

	out := &Schema{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("%w: %q does not address a schema: %w", schemaerrors.ErrTargetNotFound, full, err)
	}

	return out, nil
}

func isNilMap(tok string, s *Schema) bool {
	switch tok {
	case "properties":
		return s.Properties == nil
	case "definitions":
		return s.Definitions == nil
	default:
		return s.Defs == nil
	}
}
