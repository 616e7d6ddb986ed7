package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const testSchema = `package schema

model: Invoice: fixed_point: [
	{fields: ["total", "tax"]},
	{fields: ["rate"], width: 4},
]
`

// writeTestSchema writes a schema directory with an Invoice model.
func writeTestSchema(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "schema")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice.cue"), []byte(testSchema), 0644))
	return dir
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// runCommand runs a single subcommand outside the root command.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// createRecord creates an Invoice record and returns its ID.
func createRecord(t *testing.T, db, schemaDir string) string {
	t.Helper()
	out, err := execute(t, "create", "--db", db, "--schema", schemaDir, "Invoice")
	require.NoError(t, err)
	return strings.TrimSpace(out)
}
