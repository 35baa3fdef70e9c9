package cli

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/schemakit/schemakit/pkg/aggregate"
)

const (
	aggregateDesc = `This command merges a root JSON Schema and a directory of related schema
documents into a single self-contained document. Every cross-document $ref is
replaced by a deep copy of the subtree it points to; references inside inlined
subtrees are followed transitively.
`
	aggregateExample = `  # Merge a schema with the documents it references
  schemakit aggregate -s examples/json_schema.json -d examples

  # Write the merged document somewhere specific
  schemakit aggregate -s examples/json_schema.json -d examples -o merged.json
`
)

// NewAggregateCmd returns the aggregate command.
func NewAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "aggregate",
		Short:        "Merge schema references into one document",
		Long:         aggregateDesc,
		Example:      aggregateExample,
		SilenceUsage: true,
		RunE: func(cc *cobra.Command, _ []string) error {
			var merr error

			flags := cc.Flags()

			schemaPath, err := flags.GetString("schema")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			dirPath, err := flags.GetString("dir")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			outPath, err := flags.GetString("output")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			if merr != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
			}

			merged, err := aggregate.AggregateFile(schemaPath, dirPath)
			if err != nil {
				return fmt.Errorf("aggregate failed: %w", err)
			}

			data, err := merged.JSON()
			if err != nil {
				return fmt.Errorf("aggregate failed: %w", err)
			}

			if err := writeFile(outPath, data); err != nil {
				return err
			}

			slog.Info("wrote aggregated schema", "path", outPath)

			return nil
		},
	}

	cmd.Flags().StringP("schema", "s", "", "Path to the root schema document")
	if err := cmd.MarkFlagFilename("schema", "json", "yaml", "yml"); err != nil {
		panic(err)
	}

	if err := cmd.MarkFlagRequired("schema"); err != nil {
		panic(err)
	}

	cmd.Flags().StringP("dir", "d", "", "Directory containing related schema documents")
	if err := cmd.MarkFlagDirname("dir"); err != nil {
		panic(err)
	}

	if err := cmd.MarkFlagRequired("dir"); err != nil {
		panic(err)
	}

	cmd.Flags().StringP("output", "o", "master-schema.json", "Output path for the merged document")

	return cmd
}
