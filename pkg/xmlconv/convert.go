package xmlconv

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/schemakit/schemakit/pkg/schema"
	"github.com/schemakit/schemakit/pkg/schemaerrors"
)

// DefaultRootElement names the wrapping element when neither the options nor
// the schema itself provide a name.
const DefaultRootElement = "schema"

// Options configures a conversion. The zero value converts the whole
// document with a derived root element name and no header or footer.
type Options struct {
	// RootElement names the wrapping element. Empty means the schema's own
	// title, falling back to [DefaultRootElement].
	RootElement string

	// Header and Footer are prepended and appended to the output verbatim.
	// No escaping or transformation is applied to either.
	Header string
	Footer string

	// Section restricts conversion to the named top-level property of the
	// schema instead of the whole document.
	Section string

	// RequiredOnly emits only properties listed in their parent's required
	// list.
	RequiredOnly bool

	// PascalNames formats element names in PascalCase.
	PascalNames bool

	// TypeMap rewrites emitted type annotations, e.g. integer=Edm.Int64.
	// Unmapped types pass through verbatim.
	TypeMap map[string]string
}

// Convert renders the schema document as XML.
func Convert(s *schema.Schema, opts Options) ([]byte, error) {
	if sites := s.Refs(); len(sites) > 0 {
		var merr error
		for _, site := range sites {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s", schemaerrors.ErrUnresolvedRef, site))
		}

		return nil, fmt.Errorf("document is not reference-free: %w", merr)
	}

	name := opts.RootElement
	if name == "" {
		name = s.Title
	}

	if name == "" {
		name = DefaultRootElement
	}

	node := s

	if opts.Section != "" {
		sub, err := findSection(s, opts.Section)
		if err != nil {
			return nil, err
		}

		// Wrap the section the way the whole document would be wrapped, so
		// the section name still appears as an element.
		wrapper := &schema.Schema{
			Type:       schema.TypeList{"object"},
			Required:   []string{opts.Section},
			Properties: orderedmap.New[string, *schema.Schema](),
		}
		wrapper.Properties.Set(opts.Section, sub)
		node = wrapper

		slog.Debug("scoped conversion to section", "section", opts.Section)
	}

	var buf bytes.Buffer

	buf.WriteString(opts.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	c := &converter{enc: enc, opts: opts}
	if err := c.element(name, node); err != nil {
		return nil, err
	}

	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("flush XML: %w", err)
	}

	buf.WriteString(opts.Footer)

	return buf.Bytes(), nil
}

type converter struct {
	enc  *xml.Encoder
	opts Options
}

// element renders one schema node. Objects become container elements with
// one child per property in schema order, arrays become an element holding a
// single item template, and primitives become leaves with a type attribute.
func (c *converter) element(name string, s *schema.Schema) error {
	if c.opts.PascalNames {
		name = strcase.ToCamel(name)
	}

	switch s.Kind() {
	case schema.KindReference:
		// Checked up front; kept as a guard for programmatic callers.
		return fmt.Errorf("%w: %s", schemaerrors.ErrUnresolvedRef, s.Ref)

	case schema.KindObject:
		start := xml.StartElement{Name: xml.Name{Local: name}}
		if err := c.enc.EncodeToken(start); err != nil {
			return fmt.Errorf("encode element %q: %w", name, err)
		}

		if err := c.children(s); err != nil {
			return err
		}

		if err := c.enc.EncodeToken(start.End()); err != nil {
			return fmt.Errorf("encode element %q: %w", name, err)
		}

		return nil

	case schema.KindArray:
		start := xml.StartElement{
			Name: xml.Name{Local: name},
			Attr: []xml.Attr{c.typeAttr("array")},
		}
		if err := c.enc.EncodeToken(start); err != nil {
			return fmt.Errorf("encode element %q: %w", name, err)
		}

		if s.Items != nil {
			if err := c.element("item", s.Items); err != nil {
				return err
			}
		}

		if err := c.enc.EncodeToken(start.End()); err != nil {
			return fmt.Errorf("encode element %q: %w", name, err)
		}

		return nil

	case schema.KindPrimitive:
		if c.branches(s) {
			return c.branchElement(name, s)
		}

		start := xml.StartElement{Name: xml.Name{Local: name}}
		if t := s.PrimaryType(); t != "" {
			start.Attr = append(start.Attr, c.typeAttr(t))
		}

		if err := c.enc.EncodeToken(start); err != nil {
			return fmt.Errorf("encode element %q: %w", name, err)
		}

		if err := c.enc.EncodeToken(start.End()); err != nil {
			return fmt.Errorf("encode element %q: %w", name, err)
		}

		return nil

	default:
		return fmt.Errorf("%w: unknown schema kind", schemaerrors.ErrInvalidFormat)
	}
}

// branchElement renders a node whose content lives in oneOf/anyOf/allOf
// branches: one element containing every branch's children inline.
func (c *converter) branchElement(name string, s *schema.Schema) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := c.enc.EncodeToken(start); err != nil {
		return fmt.Errorf("encode element %q: %w", name, err)
	}

	if err := c.children(s); err != nil {
		return err
	}

	if err := c.enc.EncodeToken(start.End()); err != nil {
		return fmt.Errorf("encode element %q: %w", name, err)
	}

	return nil
}

// children renders a node's properties in schema order, then the properties
// of any oneOf/anyOf/allOf branches.
func (c *converter) children(s *schema.Schema) error {
	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if c.opts.RequiredOnly && !s.IsRequired(pair.Key) {
				continue
			}

			if err := c.element(pair.Key, pair.Value); err != nil {
				return err
			}
		}
	}

	for _, list := range [][]*schema.Schema{s.OneOf, s.AnyOf, s.AllOf} {
		for _, branch := range list {
			if branch == nil {
				continue
			}

			if err := c.children(branch); err != nil {
				return err
			}
		}
	}

	return nil
}

func (c *converter) branches(s *schema.Schema) bool {
	return len(s.OneOf)+len(s.AnyOf)+len(s.AllOf) > 0
}

func (c *converter) typeAttr(t string) xml.Attr {
	if mapped, ok := c.opts.TypeMap[t]; ok {
		t = mapped
	}

	return xml.Attr{Name: xml.Name{Local: "type"}, Value: t}
}

// findSection locates the named top-level property, descending through
// oneOf branches so wrapped layouts still expose their sections.
func findSection(s *schema.Schema, name string) (*schema.Schema, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: %q", schemaerrors.ErrSectionNotFound, name)
	}

	if sub, ok := s.Property(name); ok {
		return sub, nil
	}

	for _, branch := range s.OneOf {
		if sub, err := findSection(branch, name); err == nil {
			return sub, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", schemaerrors.ErrSectionNotFound, name)
}
