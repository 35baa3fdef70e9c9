package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/schemakit/schemakit/pkg/schemaerrors"
)

// knownKeys are the keywords covered by named [Schema] fields. Anything else
// lands in Extras.
var knownKeys = map[string]bool{
	"$schema":              true,
	"$id":                  true,
	"$ref":                 true,
	"title":                true,
	"description":          true,
	"type":                 true,
	"format":               true,
	"properties":           true,
	"items":                true,
	"definitions":          true,
	"$defs":                true,
	"required":             true,
	"oneOf":                true,
	"anyOf":                true,
	"allOf":                true,
	"enum":                 true,
	"additionalProperties": true,
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if bytes.Equal(trimmed, []byte("true")) || bytes.Equal(trimmed, []byte("false")) {
		return fmt.Errorf("%w: boolean schemas are not supported", schemaerrors.ErrInvalidFormat)
	}

	type schemaAlias Schema

	var a schemaAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err //nolint:wrapcheck // Stdlib passthrough.
	}

	extras := orderedmap.New[string, json.RawMessage]()

	err := jsonparser.ObjectEach(data, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		k := string(key)
		if knownKeys[k] {
			return nil
		}

		raw := make([]byte, 0, len(value)+2)
		if vt == jsonparser.String {
			// jsonparser hands string values over without their quotes.
			raw = append(raw, '"')
			raw = append(raw, value...)
			raw = append(raw, '"')
		} else {
			raw = append(raw, value...)
		}

		extras.Set(k, json.RawMessage(raw))

		return nil
	})
	if err != nil {
		return fmt.Errorf("scan schema keys: %w", err)
	}

	if extras.Len() > 0 {
		a.Extras = extras
	}

	*s = Schema(a)

	return nil
}

// MarshalJSON emits the known fields followed by the retained unknown
// keywords, spliced into one object.
func (s *Schema) MarshalJSON() ([]byte, error) {
	type schemaAlias Schema

	base, err := json.Marshal((*schemaAlias)(s))
	if err != nil {
		return nil, err //nolint:wrapcheck // Stdlib passthrough.
	}

	if s.Extras == nil || s.Extras.Len() == 0 {
		return base, nil
	}

	var buf bytes.Buffer

	buf.Write(base[:len(base)-1])

	for pair := s.Extras.Oldest(); pair != nil; pair = pair.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(pair.Key)
		if err != nil {
			return nil, err //nolint:wrapcheck // Stdlib passthrough.
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(pair.Value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// AdditionalSchema interprets the additionalProperties keyword as a schema.
// It returns (nil, false, nil) when the keyword is absent or a boolean.
func (s *Schema) AdditionalSchema() (*Schema, bool, error) {
	raw := bytes.TrimSpace(s.AdditionalProperties)
	if len(raw) == 0 || bytes.Equal(raw, []byte("true")) || bytes.Equal(raw, []byte("false")) {
		return nil, false, nil
	}

	sub := &Schema{}
	if err := json.Unmarshal(raw, sub); err != nil {
		return nil, false, fmt.Errorf("parse additionalProperties: %w", err)
	}

	return sub, true, nil
}

// SetAdditionalSchema replaces the additionalProperties keyword with the
// given schema.
func (s *Schema) SetAdditionalSchema(sub *Schema) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("%w: additionalProperties: %w", schemaerrors.ErrJSONMarshal, err)
	}

	s.AdditionalProperties = raw

	return nil
}
