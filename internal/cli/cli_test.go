package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemakit/schemakit/internal/cli"
	"github.com/schemakit/schemakit/pkg/schema"
)

var testDataDir string

func init() {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	testDataDir = filepath.Join(dir, "testdata")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	tc := cli.NewRootCmd("test_schemakit", "", "")
	out := &bytes.Buffer{}

	tc.SetArgs(args)
	tc.SetOut(out)
	tc.SetErr(out)

	err := tc.Execute()

	return out.String(), err
}

func TestAggregateCmd(t *testing.T) {
	t.Parallel()

	outDir := filepath.Join(testDataDir, "got", "aggregate_cmd")
	err := os.RemoveAll(outDir)
	require.NoError(t, err)
	err = os.MkdirAll(outDir, 0o750)
	require.NoError(t, err)

	outFile := filepath.Join(outDir, "master-schema.json")

	stdout, err := execute(t,
		"aggregate",
		"-s", filepath.Join(testDataDir, "examples", "json_schema.json"),
		"-d", filepath.Join(testDataDir, "examples"),
		"-o", outFile,
	)
	require.NoError(t, err)
	require.Empty(t, stdout)

	merged, err := schema.LoadFile(outFile)
	require.NoError(t, err)
	assert.Empty(t, merged.Refs())

	header, ok := merged.Property("header")
	require.True(t, ok)

	rev, ok := header.Property("revision")
	require.True(t, ok)
	assert.Equal(t, "integer", rev.PrimaryType())
}

func TestAggregateCmdMissingTarget(t *testing.T) {
	t.Parallel()

	outFile := filepath.Join(testDataDir, "got", "aggregate_missing.json")

	_, err := execute(t,
		"aggregate",
		"-s", filepath.Join(testDataDir, "bad", "root.json"),
		"-d", filepath.Join(testDataDir, "bad"),
		"-o", outFile,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.json")

	_, err = os.Stat(outFile)
	assert.True(t, os.IsNotExist(err), "no output file may be produced on error")
}

func TestAggregateThenConvertCmd(t *testing.T) {
	t.Parallel()

	outDir := filepath.Join(testDataDir, "got", "pipeline_cmd")
	err := os.RemoveAll(outDir)
	require.NoError(t, err)
	err = os.MkdirAll(outDir, 0o750)
	require.NoError(t, err)

	mergedFile := filepath.Join(outDir, "master-schema.json")

	_, err = execute(t,
		"aggregate",
		"-s", filepath.Join(testDataDir, "examples", "json_schema.json"),
		"-d", filepath.Join(testDataDir, "examples"),
		"-o", mergedFile,
	)
	require.NoError(t, err)

	xmlFile := filepath.Join(outDir, "master-schema.xml")

	_, err = execute(t,
		"convert",
		"-s", mergedFile,
		"-o", xmlFile,
		"--root-element", "sections",
	)
	require.NoError(t, err)

	data, err := os.ReadFile(xmlFile) //nolint:gosec // Test-owned path.
	require.NoError(t, err)

	got := string(data)
	assert.True(t, strings.HasPrefix(got, "<sections>"))
	assert.True(t, strings.HasSuffix(got, "</sections>"))
	assert.Contains(t, got, `<severity type="string">`)
	assert.Contains(t, got, `<revision type="integer">`)
}

func TestConvertCmdDerivesOutputPath(t *testing.T) {
	t.Parallel()

	outDir := filepath.Join(testDataDir, "got", "convert_derive")
	err := os.RemoveAll(outDir)
	require.NoError(t, err)
	err = os.MkdirAll(outDir, 0o750)
	require.NoError(t, err)

	srcFile := filepath.Join(outDir, "section.json")
	err = os.WriteFile(srcFile, []byte(`{"type": "object", "properties": {"a": {"type": "string"}}}`), 0o600)
	require.NoError(t, err)

	_, err = execute(t, "convert", "-s", srcFile)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "section.xml"))
	require.NoError(t, err)
}

func TestConvertCmdHeaderFooter(t *testing.T) {
	t.Parallel()

	outDir := filepath.Join(testDataDir, "got", "convert_wrap")
	err := os.RemoveAll(outDir)
	require.NoError(t, err)
	err = os.MkdirAll(outDir, 0o750)
	require.NoError(t, err)

	srcFile := filepath.Join(outDir, "wrap.json")
	err = os.WriteFile(srcFile, []byte(`{"type": "object", "properties": {"a": {"type": "string"}}}`), 0o600)
	require.NoError(t, err)

	outFile := filepath.Join(outDir, "wrap.xml")

	_, err = execute(t,
		"convert",
		"-s", srcFile,
		"-o", outFile,
		"--header", "HEAD & RAW\n",
		"--footer", "\nTAIL & RAW",
	)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile) //nolint:gosec // Test-owned path.
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("HEAD & RAW\n")))
	assert.True(t, bytes.HasSuffix(data, []byte("\nTAIL & RAW")))
}

func TestConvertCmdSectionNotFound(t *testing.T) {
	t.Parallel()

	outFile := filepath.Join(testDataDir, "got", "convert_missing_section.xml")

	_, err := execute(t,
		"convert",
		"-s", filepath.Join(testDataDir, "examples", "cper-section.json"),
		"-o", outFile,
		"--section", "nope",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "section not found")

	_, err = os.Stat(outFile)
	assert.True(t, os.IsNotExist(err), "no output file may be produced on error")
}

func TestConvertCmdRejectsRefs(t *testing.T) {
	t.Parallel()

	outFile := filepath.Join(testDataDir, "got", "convert_refs.xml")

	_, err := execute(t,
		"convert",
		"-s", filepath.Join(testDataDir, "examples", "json_schema.json"),
		"-o", outFile,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reference-free")

	_, err = os.Stat(outFile)
	assert.True(t, os.IsNotExist(err))
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	stdout, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "+")
}
