package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemakit/schemakit/pkg/schema"
)

const sectionDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "cper",
  "type": "object",
  "required": ["header", "sections"],
  "properties": {
    "header": {
      "type": "object",
      "properties": {
        "revision": {"type": "integer"},
        "timestamp": {"type": "string", "format": "date-time"}
      }
    },
    "sections": {
      "type": "array",
      "items": {"type": "object", "properties": {"severity": {"type": "string"}}}
    }
  }
}`

func TestUnmarshalPreservesPropertyOrder(t *testing.T) {
	t.Parallel()

	s, err := schema.Load([]byte(sectionDoc))
	require.NoError(t, err)
	require.NotNil(t, s.Properties)

	var keys []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}

	assert.Equal(t, []string{"header", "sections"}, keys)

	header, ok := s.Property("header")
	require.True(t, ok)

	keys = nil
	for pair := header.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}

	assert.Equal(t, []string{"revision", "timestamp"}, keys)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := schema.Load([]byte(sectionDoc))
	require.NoError(t, err)

	out, err := json.Marshal(s)
	require.NoError(t, err)

	assert.JSONEq(t, sectionDoc, string(out))
}

func TestExtrasRetainedInOrder(t *testing.T) {
	t.Parallel()

	doc := `{
  "type": "string",
  "x-vendor": "nvidia",
  "maxLength": 64,
  "pattern": "^[0-9a-f]+$"
}`

	s, err := schema.Load([]byte(doc))
	require.NoError(t, err)
	require.NotNil(t, s.Extras)

	var keys []string
	for pair := s.Extras.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}

	assert.Equal(t, []string{"x-vendor", "maxLength", "pattern"}, keys)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(out))
}

func TestKind(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		doc  string
		want schema.Kind
	}{
		"reference":       {doc: `{"$ref": "other.json"}`, want: schema.KindReference},
		"typed object":    {doc: `{"type": "object"}`, want: schema.KindObject},
		"untyped object":  {doc: `{"properties": {"a": {"type": "string"}}}`, want: schema.KindObject},
		"typed array":     {doc: `{"type": "array"}`, want: schema.KindArray},
		"items only":      {doc: `{"items": {"type": "integer"}}`, want: schema.KindArray},
		"string":          {doc: `{"type": "string"}`, want: schema.KindPrimitive},
		"empty":           {doc: `{}`, want: schema.KindPrimitive},
		"ref wins":        {doc: `{"$ref": "a.json", "type": "object"}`, want: schema.KindReference},
		"nullable string": {doc: `{"type": ["string", "null"]}`, want: schema.KindPrimitive},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := schema.Load([]byte(tc.doc))
			require.NoError(t, err)
			assert.Equal(t, tc.want, s.Kind())
		})
	}
}

func TestTypeListRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := schema.Load([]byte(`{"type": ["string", "null"]}`))
	require.NoError(t, err)

	assert.True(t, s.Type.Has("null"))
	assert.Equal(t, "string", s.PrimaryType())

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": ["string", "null"]}`, string(out))

	s, err = schema.Load([]byte(`{"type": "boolean"}`))
	require.NoError(t, err)

	out, err = json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"boolean"}`, string(out))
}

func TestBooleanSchemaRejected(t *testing.T) {
	t.Parallel()

	_, err := schema.Load([]byte(`true`))
	require.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	s, err := schema.Load([]byte(sectionDoc))
	require.NoError(t, err)

	c, err := s.Clone()
	require.NoError(t, err)

	c.Title = "modified"
	header, ok := c.Property("header")
	require.True(t, ok)
	header.Properties.Set("added", &schema.Schema{Type: schema.TypeList{"string"}})

	assert.Equal(t, "cper", s.Title)

	orig, ok := s.Property("header")
	require.True(t, ok)
	_, ok = orig.Property("added")
	assert.False(t, ok)
}

func TestPointer(t *testing.T) {
	t.Parallel()

	doc := `{
  "type": "object",
  "properties": {
    "status": {"oneOf": [{"type": "string"}, {"type": "integer"}]}
  },
  "definitions": {
    "guid": {"type": "string", "pattern": "^[0-9a-fA-F-]{36}$"}
  },
  "patternProperties": {
    "^x-": {"type": "string"}
  }
}`

	s, err := schema.Load([]byte(doc))
	require.NoError(t, err)

	tcs := map[string]struct {
		ptr      string
		wantType string
		wantErr  bool
	}{
		"whole document":   {ptr: "", wantType: "object"},
		"definition":       {ptr: "/definitions/guid", wantType: "string"},
		"property branch":  {ptr: "/properties/status/oneOf/1", wantType: "integer"},
		"unknown keyword":  {ptr: "/patternProperties/^x-", wantType: "string"},
		"missing def":      {ptr: "/definitions/nope", wantErr: true},
		"missing property": {ptr: "/properties/nope", wantErr: true},
		"bad index":        {ptr: "/properties/status/oneOf/7", wantErr: true},
		"no leading slash": {ptr: "definitions/guid", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := s.Pointer(tc.ptr)
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantType, got.PrimaryType())
		})
	}
}

func TestRefs(t *testing.T) {
	t.Parallel()

	doc := `{
  "type": "object",
  "properties": {
    "plain": {"type": "string"},
    "linked": {"$ref": "other.json#/definitions/thing"},
    "list": {"type": "array", "items": {"$ref": "item.json"}}
  },
  "patternProperties": {
    "^x-": {"$ref": "vendor.json"}
  }
}`

	s, err := schema.Load([]byte(doc))
	require.NoError(t, err)

	sites := s.Refs()
	require.Len(t, sites, 3)

	refs := map[string]string{}
	for _, site := range sites {
		refs[site.Path] = site.Ref
	}

	assert.Equal(t, "other.json#/definitions/thing", refs["#/properties/linked"])
	assert.Equal(t, "item.json", refs["#/properties/list/items"])
	assert.Equal(t, "vendor.json", refs["#/patternProperties/^x-"])

	clean, err := schema.Load([]byte(sectionDoc))
	require.NoError(t, err)
	assert.Empty(t, clean.Refs())
}
