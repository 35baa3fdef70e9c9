package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/schemakit/schemakit/internal/cli"
)

const (
	cmdName = "schemakit"

	shortDesc = "JSON Schema aggregation and XML conversion."
	longDesc  = `The schemakit Command Line Interface (CLI).

Schemakit merges JSON Schema documents that reference each other via $ref
into a single self-contained document, and converts reference-free schemas
into XML documents that mirror the schema structure.
`
)

func main() {
	cmd := cli.NewRootCmd(cmdName, shortDesc, longDesc)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimLeft(err.Error(), "\n"))
		os.Exit(1)
	}
}
