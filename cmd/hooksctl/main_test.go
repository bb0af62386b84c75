package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, yaml.Unmarshal([]byte(s), &out))
	return out
}

func TestListCommand(t *testing.T) {
	out, _, err := run(t, "list", "--config", "testdata/config.yaml", "--fixture", "testdata/items.yaml",
		"--search", "kind=tool", "--page", "1")
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, 3, got["total"])
	assert.Equal(t, 2, got["offset"])
	assert.Equal(t, true, got["last_page"])
	items := got["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "chisel", items[0].(map[string]any)["name"])
}

func TestListCommand_SortDesc(t *testing.T) {
	out, _, err := run(t, "list", "--config", "testdata/config.yaml", "--fixture", "testdata/items.yaml",
		"--sort", "name", "--desc")
	require.NoError(t, err)

	items := decode(t, out)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "eyelet", items[0].(map[string]any)["name"])
}

func TestFormCommand_Update(t *testing.T) {
	out, _, err := run(t, "form", "--fixture", "testdata/items.yaml", "--id", "2",
		"--set", "name=blower", "--submit")
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, true, got["dirty"])
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "update", got["action"])
	assert.Equal(t, "blower", got["data"].(map[string]any)["name"])
}

func TestFormCommand_ReloadAfterSubmit(t *testing.T) {
	out, _, err := run(t, "form", "--config", "testdata/reload.yaml", "--fixture", "testdata/items.yaml",
		"--id", "2", "--set", "name=blower", "--submit", "--reload")
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, true, got["success"])
	assert.Equal(t, false, got["dirty_after_reload"])
	assert.Equal(t, "blower", got["data"].(map[string]any)["name"])
}

func TestFormCommand_ValidationBlocksCreate(t *testing.T) {
	out, _, err := run(t, "form", "--fixture", "testdata/items.yaml", "--rules", "testdata/rules.yaml",
		"--set", "name=saw", "--submit")
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, false, got["success"])
	assert.Equal(t, "create", got["action"])
	assert.Equal(t, map[string]any{
		"kind":         "is required",
		"address.city": "is required",
	}, got["field_errors"])
}

func TestFormCommand_NotFound(t *testing.T) {
	_, _, err := run(t, "form", "--fixture", "testdata/items.yaml", "--id", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestValidateCommand(t *testing.T) {
	out, _, err := run(t, "validate", "--rules", "testdata/rules.yaml", "testdata/invalid.yaml")
	assert.ErrorIs(t, err, errInvalidRecord)

	got := decode(t, out)
	assert.Equal(t, "must be at least 3", got["name"])
	assert.Equal(t, "must be one of [tool part]", got["kind"])
	assert.Equal(t, "is required", got["address.city"])
}

func TestMetricsFlag(t *testing.T) {
	_, errOut, err := run(t, "list", "--fixture", "testdata/items.yaml", "--metrics", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, errOut, "statehooks_operations_total")
	assert.Contains(t, errOut, `kind="run_all"`)
}
