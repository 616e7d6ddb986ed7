package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGetSet(t *testing.T) {
	schemaDir := writeTestSchema(t)
	db := filepath.Join(t.TempDir(), "fields.db")

	id := createRecord(t, db, schemaDir)
	require.Len(t, id, 36)

	out, err := execute(t, "get", "--db", db, "--schema", schemaDir, id, "total")
	require.NoError(t, err)
	assert.Equal(t, "nil\n", out)

	out, err = execute(t, "set", "--db", db, "--schema", schemaDir, id, "total=", "10.3")
	require.NoError(t, err)
	assert.Equal(t, id+".total = 1030\n", out)

	out, err = execute(t, "get", "--db", db, "--schema", schemaDir, id, "total")
	require.NoError(t, err)
	assert.Equal(t, "10.3\n", out)

	out, err = execute(t, "get", "--db", db, "--schema", schemaDir, id, "total_fixed")
	require.NoError(t, err)
	assert.Equal(t, "1030\n", out)

	out, err = execute(t, "set", "--db", db, "--schema", schemaDir, id, "rate_fixed=", "825")
	require.NoError(t, err)
	assert.Equal(t, id+".rate = 825\n", out)

	out, err = execute(t, "get", "--db", db, "--schema", schemaDir, id, "rate")
	require.NoError(t, err)
	assert.Equal(t, "0.0825\n", out)
}

func TestSetEmptyValueLeavesField(t *testing.T) {
	schemaDir := writeTestSchema(t)
	db := filepath.Join(t.TempDir(), "fields.db")
	id := createRecord(t, db, schemaDir)

	_, err := execute(t, "set", "--db", db, "--schema", schemaDir, id, "tax=", "0.5")
	require.NoError(t, err)

	out, err := execute(t, "set", "--db", db, "--schema", schemaDir, id, "tax=", "")
	require.NoError(t, err)
	assert.Equal(t, id+".tax = 50\n", out)
}

func TestSetInvalidValue(t *testing.T) {
	schemaDir := writeTestSchema(t)
	db := filepath.Join(t.TempDir(), "fields.db")
	id := createRecord(t, db, schemaDir)

	out, err := execute(t, "set", "--db", db, "--schema", schemaDir, id, "total=", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [INVALID_VALUE]")

	out, err = execute(t, "get", "--db", db, "--schema", schemaDir, id, "total")
	require.NoError(t, err)
	assert.Equal(t, "nil\n", out)
}

func TestSetRejectsGetterName(t *testing.T) {
	schemaDir := writeTestSchema(t)
	db := filepath.Join(t.TempDir(), "fields.db")
	id := createRecord(t, db, schemaDir)

	out, err := execute(t, "set", "--db", db, "--schema", schemaDir, id, "total", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "did you mean total=?")
}

func TestGetUnknownField(t *testing.T) {
	schemaDir := writeTestSchema(t)
	db := filepath.Join(t.TempDir(), "fields.db")
	id := createRecord(t, db, schemaDir)

	out, err := execute(t, "get", "--db", db, "--schema", schemaDir, id, "discount")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [MISSING_FIELD]")
}

func TestGetUnknownRecord(t *testing.T) {
	schemaDir := writeTestSchema(t)
	db := filepath.Join(t.TempDir(), "fields.db")

	out, err := execute(t, "get", "--db", db, "--schema", schemaDir, "missing", "total")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "record missing not found")
}

func TestCreateUndeclaredModel(t *testing.T) {
	schemaDir := writeTestSchema(t)
	db := filepath.Join(t.TempDir(), "fields.db")

	out, err := execute(t, "create", "--db", db, "--schema", schemaDir, "Receipt")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `model "Receipt" is not declared`)
}

func TestCreateJSON(t *testing.T) {
	schemaDir := writeTestSchema(t)
	db := filepath.Join(t.TempDir(), "fields.db")

	out, err := execute(t, "--format", "json", "create", "--db", db, "--schema", schemaDir, "Invoice")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   CreateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Invoice", resp.Data.Model)
	assert.NotEmpty(t, resp.Data.ID)
}

func TestRecordCommandsRequireFlags(t *testing.T) {
	_, err := execute(t, "create", "Invoice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestList(t *testing.T) {
	schemaDir := writeTestSchema(t)
	db := filepath.Join(t.TempDir(), "fields.db")

	out, err := execute(t, "list", "--db", db, "--schema", schemaDir, "Invoice")
	require.NoError(t, err)
	assert.Equal(t, "No Invoice records.\n", out)

	first := createRecord(t, db, schemaDir)
	second := createRecord(t, db, schemaDir)
	_, err = execute(t, "set", "--db", db, "--schema", schemaDir, first, "total=", "4.12")
	require.NoError(t, err)

	out, err = execute(t, "list", "--db", db, "--schema", schemaDir, "Invoice")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		first + " (seq 1)",
		"  rate = nil",
		"  tax = nil",
		"  total = 4.12 (412)",
		second + " (seq 2)",
		"  rate = nil",
		"  tax = nil",
		"  total = nil",
		"",
	}, "\n"), out)

	out, err = execute(t, "--format", "json", "list", "--db", db, "--schema", schemaDir, "Invoice")
	require.NoError(t, err)

	var resp struct {
		Data []ListedRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	require.NotNil(t, resp.Data[0].Fields[2].Raw)
	assert.Equal(t, int64(412), *resp.Data[0].Fields[2].Raw)
	assert.Nil(t, resp.Data[1].Fields[2].Raw)
}
