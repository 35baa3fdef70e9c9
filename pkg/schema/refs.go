package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// RefSite records one $ref occurrence inside a document.
type RefSite struct {
	// Path is a JSON-pointer-style location of the node holding the $ref.
	Path string
	// Ref is the reference locator itself.
	Ref string
}

func (r RefSite) String() string {
	return fmt.Sprintf("%s at %s", r.Ref, r.Path)
}

// Refs walks the document and returns every remaining reference pointer,
// sorted by path. A reference-free document returns an empty slice.
func (s *Schema) Refs() []RefSite {
	var sites []RefSite

	s.walkRefs("#", &sites)

	sort.Slice(sites, func(i, j int) bool { return sites[i].Path < sites[j].Path })

	return sites
}

func (s *Schema) walkRefs(path string, sites *[]RefSite) {
	if s == nil {
		return
	}

	if s.Ref != "" {
		*sites = append(*sites, RefSite{Path: path, Ref: s.Ref})
	}

	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			pair.Value.walkRefs(path+"/properties/"+pair.Key, sites)
		}
	}

	if s.Definitions != nil {
		for pair := s.Definitions.Oldest(); pair != nil; pair = pair.Next() {
			pair.Value.walkRefs(path+"/definitions/"+pair.Key, sites)
		}
	}

	if s.Defs != nil {
		for pair := s.Defs.Oldest(); pair != nil; pair = pair.Next() {
			pair.Value.walkRefs(path+"/$defs/"+pair.Key, sites)
		}
	}

	s.Items.walkRefs(path+"/items", sites)

	for i, sub := range s.OneOf {
		sub.walkRefs(path+"/oneOf/"+strconv.Itoa(i), sites)
	}

	for i, sub := range s.AnyOf {
		sub.walkRefs(path+"/anyOf/"+strconv.Itoa(i), sites)
	}

	for i, sub := range s.AllOf {
		sub.walkRefs(path+"/allOf/"+strconv.Itoa(i), sites)
	}

	if sub, ok, err := s.AdditionalSchema(); err == nil && ok {
		sub.walkRefs(path+"/additionalProperties", sites)
	}

	if s.Extras != nil {
		for pair := s.Extras.Oldest(); pair != nil; pair = pair.Next() {
			if !bytes.Contains(pair.Value, []byte(`"$ref"`)) {
				continue
			}

			var obj any
			if err := json.Unmarshal(pair.Value, &obj); err != nil {
				continue
			}

			rawRefs(obj, path+"/"+pair.Key, sites)
		}
	}
}

// rawRefs scans a generic JSON value for $ref keys. It covers references
// hiding inside keywords the typed model doesn't know about, such as
// patternProperties.
func rawRefs(v any, path string, sites *[]RefSite) {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := val["$ref"].(string); ok {
			*sites = append(*sites, RefSite{Path: path, Ref: ref})
		}

		for k, sub := range val {
			rawRefs(sub, path+"/"+k, sites)
		}
	case []any:
		for i, sub := range val {
			rawRefs(sub, path+"/"+strconv.Itoa(i), sites)
		}
	}
}
