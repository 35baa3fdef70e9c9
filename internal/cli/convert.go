package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/schemakit/schemakit/pkg/schema"
	"github.com/schemakit/schemakit/pkg/xmlconv"
)

const (
	convertDesc = `This command converts a reference-free JSON Schema into an XML document whose
element structure mirrors the schema's object, array, and property nesting.
Run aggregate first if the schema still contains $ref pointers.
`
	convertExample = `  # Convert an aggregated schema
  schemakit convert -s master-schema.json --root-element sections

  # Wrap the output with a literal header and footer
  schemakit convert -s master-schema.json --header "$(cat header.xml)" --footer "$(cat footer.xml)"

  # Convert only one top-level section, emitting OData primitive types
  schemakit convert -s master-schema.json --section sections --type-map integer=Edm.Int64 --type-map string=Edm.String
`
)

// NewConvertCmd returns the convert command.
func NewConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "convert",
		Short:        "Convert a reference-free schema to XML",
		Long:         convertDesc,
		Example:      convertExample,
		SilenceUsage: true,
		RunE: func(cc *cobra.Command, _ []string) error {
			var merr error

			flags := cc.Flags()

			schemaPath, err := flags.GetString("schema")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			outPath, err := flags.GetString("output")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			opts := xmlconv.Options{}

			opts.RootElement, err = flags.GetString("root-element")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			opts.Header, err = flags.GetString("header")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			opts.Footer, err = flags.GetString("footer")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			opts.Section, err = flags.GetString("section")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			opts.RequiredOnly, err = flags.GetBool("required")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			opts.PascalNames, err = flags.GetBool("pascal")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			typeMap, err := flags.GetStringToString("type-map")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			if merr != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
			}

			if len(typeMap) > 0 {
				opts.TypeMap = typeMap
			}

			if outPath == "" {
				outPath = deriveOutputPath(schemaPath)
			}

			doc, err := schema.LoadFile(schemaPath)
			if err != nil {
				return fmt.Errorf("convert failed: %w", err)
			}

			data, err := xmlconv.Convert(doc, opts)
			if err != nil {
				return fmt.Errorf("convert failed: %w", err)
			}

			if err := writeFile(outPath, data); err != nil {
				return err
			}

			slog.Info("wrote XML document", "path", outPath)

			return nil
		},
	}

	cmd.Flags().StringP("schema", "s", "", "Path to the reference-free schema document")
	if err := cmd.MarkFlagFilename("schema", "json", "yaml", "yml"); err != nil {
		panic(err)
	}

	if err := cmd.MarkFlagRequired("schema"); err != nil {
		panic(err)
	}

	cmd.Flags().StringP("output", "o", "", "Output path (default: schema path with a .xml extension)")
	cmd.Flags().String("root-element", "", "Name of the wrapping XML element (default: schema title)")
	cmd.Flags().StringP("header", "x", "", "Literal text prepended to the output verbatim")
	cmd.Flags().StringP("footer", "f", "", "Literal text appended to the output verbatim")
	cmd.Flags().String("section", "", "Convert only the named top-level section of the schema")
	cmd.Flags().BoolP("required", "r", false, "Emit only properties listed as required")
	cmd.Flags().Bool("pascal", false, "Format element names in PascalCase")
	cmd.Flags().StringToString("type-map", nil, "Rewrite emitted type annotations (e.g. integer=Edm.Int64)")

	return cmd
}

func deriveOutputPath(schemaPath string) string {
	return strings.TrimSuffix(schemaPath, filepath.Ext(schemaPath)) + ".xml"
}
