package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/schemakit/schemakit/pkg/schema"
	"github.com/schemakit/schemakit/pkg/schemaerrors"
)

// Resolver is the resolution context for one aggregation run. It maps
// document names to file paths up front, then loads and caches documents
// lazily as references are encountered.
type Resolver struct {
	paths map[string]string
	docs  map[string]*schema.Schema
}

// NewResolver scans dir recursively and indexes every schema file by its
// basename, which is how $ref locators identify documents. Two files sharing
// a basename is a hard error rather than a shadowing policy.
func NewResolver(dir string) (*Resolver, error) {
	paths := map[string]string{}

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !isSchemaFile(p) {
			return nil
		}

		name := d.Name()
		if prev, ok := paths[name]; ok {
			return fmt.Errorf("%w: %q found at both %q and %q",
				schemaerrors.ErrDuplicateDocument, name, prev, p)
		}

		paths[name] = p

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan schema directory %q: %w", dir, err)
	}

	slog.Debug("indexed schema directory", "dir", dir, "documents", len(paths))

	return &Resolver{
		paths: paths,
		docs:  map[string]*schema.Schema{},
	}, nil
}

// AggregateFile loads the root schema at rootPath and aggregates it against
// the documents found under dir.
func AggregateFile(rootPath, dir string) (*schema.Schema, error) {
	r, err := NewResolver(dir)
	if err != nil {
		return nil, err
	}

	root, err := schema.LoadFile(rootPath)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already contextualized.
	}

	return r.Aggregate(root, filepath.Base(rootPath))
}

// Aggregate produces a new document in which every reference pointer in root
// has been replaced by a deep copy of its target. rootName is the root
// document's own name, used to detect cycles leading back into it.
func (r *Resolver) Aggregate(root *schema.Schema, rootName string) (*schema.Schema, error) {
	out, err := r.resolve(root, root, rootName, refStack{rootName + "#"})
	if err != nil {
		return nil, err
	}

	if sites := out.Refs(); len(sites) > 0 {
		// Should be unreachable; resolution either inlines or fails.
		return nil, fmt.Errorf("%w: %s", schemaerrors.ErrUnresolvedRef, sites[0])
	}

	return out, nil
}

func (r *Resolver) resolve(s, owner *schema.Schema, ownerName string, stack refStack) (*schema.Schema, error) {
	if s == nil {
		return nil, nil
	}

	if s.Ref != "" {
		return r.inline(s, owner, ownerName, stack)
	}

	out := *s

	if s.Properties != nil {
		props := orderedmap.New[string, *schema.Schema]()

		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			sub, err := r.resolve(pair.Value, owner, ownerName, stack)
			if err != nil {
				return nil, err
			}

			props.Set(pair.Key, sub)
		}

		out.Properties = props
	}

	if s.Definitions != nil {
		defs, err := r.resolveMap(s.Definitions, owner, ownerName, stack)
		if err != nil {
			return nil, err
		}

		out.Definitions = defs
	}

	if s.Defs != nil {
		defs, err := r.resolveMap(s.Defs, owner, ownerName, stack)
		if err != nil {
			return nil, err
		}

		out.Defs = defs
	}

	if s.Items != nil {
		items, err := r.resolve(s.Items, owner, ownerName, stack)
		if err != nil {
			return nil, err
		}

		out.Items = items
	}

	var err error

	out.OneOf, err = r.resolveList(s.OneOf, owner, ownerName, stack)
	if err != nil {
		return nil, err
	}

	out.AnyOf, err = r.resolveList(s.AnyOf, owner, ownerName, stack)
	if err != nil {
		return nil, err
	}

	out.AllOf, err = r.resolveList(s.AllOf, owner, ownerName, stack)
	if err != nil {
		return nil, err
	}

	if sub, ok, err := s.AdditionalSchema(); err != nil {
		return nil, err //nolint:wrapcheck // Already contextualized.
	} else if ok {
		resolved, err := r.resolve(sub, owner, ownerName, stack)
		if err != nil {
			return nil, err
		}

		if err := out.SetAdditionalSchema(resolved); err != nil {
			return nil, err //nolint:wrapcheck // Already contextualized.
		}
	}

	if s.Extras != nil {
		extras := orderedmap.New[string, json.RawMessage]()

		for pair := s.Extras.Oldest(); pair != nil; pair = pair.Next() {
			raw, err := r.resolveRaw(pair.Value, owner, ownerName, stack)
			if err != nil {
				return nil, fmt.Errorf("resolve %q: %w", pair.Key, err)
			}

			extras.Set(pair.Key, raw)
		}

		out.Extras = extras
	}

	return &out, nil
}

func (r *Resolver) resolveMap(
	m *orderedmap.OrderedMap[string, *schema.Schema],
	owner *schema.Schema, ownerName string, stack refStack,
) (*orderedmap.OrderedMap[string, *schema.Schema], error) {
	out := orderedmap.New[string, *schema.Schema]()

	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		sub, err := r.resolve(pair.Value, owner, ownerName, stack)
		if err != nil {
			return nil, err
		}

		out.Set(pair.Key, sub)
	}

	return out, nil
}

func (r *Resolver) resolveList(
	list []*schema.Schema,
	owner *schema.Schema, ownerName string, stack refStack,
) ([]*schema.Schema, error) {
	if list == nil {
		return nil, nil
	}

	out := make([]*schema.Schema, len(list))

	for i, sub := range list {
		resolved, err := r.resolve(sub, owner, ownerName, stack)
		if err != nil {
			return nil, err
		}

		out[i] = resolved
	}

	return out, nil
}

// inline replaces a reference node with a deep copy of its target, resolved
// transitively. The inlined subtree drops its own $schema keyword.
func (r *Resolver) inline(s, owner *schema.Schema, ownerName string, stack refStack) (*schema.Schema, error) {
	loc, err := parseRef(s.Ref)
	if err != nil {
		return nil, err
	}

	targetDoc := owner
	targetName := ownerName

	if loc.Doc != "" {
		targetDoc, err = r.load(loc.Doc)
		if err != nil {
			return nil, fmt.Errorf("resolve $ref %q: %w", s.Ref, err)
		}

		targetName = loc.Doc
	}

	key := targetName + "#" + loc.Pointer
	if stack.contains(key) {
		return nil, fmt.Errorf("%w: %s", schemaerrors.ErrRefCycle, stack.chain(key))
	}

	stack = append(stack, key)

	slog.Debug("inlining reference", "ref", s.Ref, "document", targetName)

	target := targetDoc

	if loc.Pointer != "" {
		target, err = targetDoc.Pointer(loc.Pointer)
		if err != nil {
			return nil, fmt.Errorf("resolve $ref %q in %q: %w", s.Ref, targetName, err)
		}
	}

	inlined, err := target.Clone()
	if err != nil {
		return nil, fmt.Errorf("resolve $ref %q: %w", s.Ref, err)
	}

	resolved, err := r.resolve(inlined, targetDoc, targetName, stack)
	if err != nil {
		return nil, err
	}

	resolved.Version = ""

	return resolved, nil
}

// load returns the named document, reading it on first use and caching it
// for the rest of the run.
func (r *Resolver) load(name string) (*schema.Schema, error) {
	if doc, ok := r.docs[name]; ok {
		return doc, nil
	}

	path, ok := r.paths[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", schemaerrors.ErrDocumentNotFound, name)
	}

	doc, err := schema.LoadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already contextualized.
	}

	r.docs[name] = doc

	return doc, nil
}

// resolveRaw resolves references hiding inside an unknown keyword's raw
// value, rebuilding containers in place so key order survives the rewrite.
// Values without a $ref pass through byte-for-byte.
func (r *Resolver) resolveRaw(raw json.RawMessage, owner *schema.Schema, ownerName string, stack refStack) (json.RawMessage, error) {
	if !bytes.Contains(raw, []byte(`"$ref"`)) {
		return raw, nil
	}

	switch trimmed := bytes.TrimSpace(raw); {
	case len(trimmed) == 0:
		return raw, nil
	case trimmed[0] == '{':
		return r.resolveRawObject(trimmed, owner, ownerName, stack)
	case trimmed[0] == '[':
		return r.resolveRawArray(trimmed, owner, ownerName, stack)
	default:
		return raw, nil
	}
}

// resolveRawObject rewrites one raw JSON object. An object carrying a $ref
// keyword is inlined through the typed model; anything else is rebuilt key
// by key in document order.
func (r *Resolver) resolveRawObject(raw []byte, owner *schema.Schema, ownerName string, stack refStack) (json.RawMessage, error) {
	if ref, err := jsonparser.GetString(raw, "$ref"); err == nil && ref != "" {
		node := &schema.Schema{}
		if err := json.Unmarshal(raw, node); err != nil {
			return nil, err //nolint:wrapcheck // Stdlib passthrough.
		}

		resolved, err := r.inline(node, owner, ownerName, stack)
		if err != nil {
			return nil, err
		}

		out, err := json.Marshal(resolved)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", schemaerrors.ErrJSONMarshal, err)
		}

		return out, nil
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	err := jsonparser.ObjectEach(raw, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		resolved, err := r.resolveRaw(rawValue(value, vt), owner, ownerName, stack)
		if err != nil {
			return err
		}

		if buf.Len() > 1 {
			buf.WriteByte(',')
		}

		// ObjectEach unescapes keys, so they must be re-escaped on the
		// way out.
		encoded, err := json.Marshal(string(key))
		if err != nil {
			return err //nolint:wrapcheck // Stdlib passthrough.
		}

		buf.Write(encoded)
		buf.WriteByte(':')
		buf.Write(resolved)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan object keys: %w", err)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (r *Resolver) resolveRawArray(raw []byte, owner *schema.Schema, ownerName string, stack refStack) (json.RawMessage, error) {
	var (
		buf     bytes.Buffer
		walkErr error
	)

	buf.WriteByte('[')

	_, err := jsonparser.ArrayEach(raw, func(value []byte, vt jsonparser.ValueType, _ int, elemErr error) {
		if walkErr != nil {
			return
		}

		if elemErr != nil {
			walkErr = elemErr

			return
		}

		resolved, err := r.resolveRaw(rawValue(value, vt), owner, ownerName, stack)
		if err != nil {
			walkErr = err

			return
		}

		if buf.Len() > 1 {
			buf.WriteByte(',')
		}

		buf.Write(resolved)
	})

	switch {
	case walkErr != nil:
		return nil, walkErr
	case err != nil:
		return nil, fmt.Errorf("scan array elements: %w", err)
	}

	buf.WriteByte(']')

	return buf.Bytes(), nil
}

// rawValue restores the quotes jsonparser strips from string values.
func rawValue(value []byte, vt jsonparser.ValueType) json.RawMessage {
	if vt != jsonparser.String {
		return value
	}

	raw := make([]byte, 0, len(value)+2)
	raw = append(raw, '"')
	raw = append(raw, value...)
	raw = append(raw, '"')

	return raw
}

func isSchemaFile(p string) bool {
	switch filepath.Ext(p) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// refLocator is a parsed $ref: a document name, a JSON pointer, or both.
type refLocator struct {
	Doc     string
	Pointer string
}

// parseRef splits a $ref at the '#'. The document part is reduced to its
// basename, which is how documents are identified in the resolution context.
func parseRef(ref string) (refLocator, error) {
	if ref == "" {
		return refLocator{}, fmt.Errorf("%w: empty $ref", schemaerrors.ErrInvalidFormat)
	}

	doc, frag, found := strings.Cut(ref, "#")
	if !found {
		doc, frag = ref, ""
	}

	// A bare "#" is a whole-document self reference; it parses to an empty
	// locator and trips the cycle detector downstream.
	if frag != "" && !strings.HasPrefix(frag, "/") {
		return refLocator{}, fmt.Errorf("%w: $ref %q: fragment must be a JSON pointer", schemaerrors.ErrInvalidFormat, ref)
	}

	if doc != "" {
		doc = filepath.Base(doc)
	}

	return refLocator{Doc: doc, Pointer: frag}, nil
}

// refStack is the ordered set of locators currently being resolved.
type refStack []string

func (s refStack) contains(key string) bool {
	for _, k := range s {
		if k == key {
			return true
		}
	}

	return false
}

func (s refStack) chain(key string) string {
	return strings.Join(append(append(refStack{}, s...), key), " -> ")
}
