package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidate_Text(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/stores.yaml")
	require.NoError(t, err)
	assert.Equal(t,
		"✓ testdata/stores.yaml valid\n"+
			"  counter (shallow, batchless): increment\n"+
			"  users (deep, 4ms): getUser\n",
		out)
}

func TestValidate_JSON(t *testing.T) {
	out, err := executeValidate(t, "json", "testdata/stores.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Stores, 2)
	assert.Equal(t, []DeedSummary{{Name: "getUser", Type: "request"}}, resp.Data.Stores[1].Deeds)
	assert.Equal(t, int64(4), resp.Data.Stores[1].BatchTimeMS)
}

func TestValidate_InvalidFile(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]: invalid definition file")
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := executeValidate(t, "text", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "definition file not found")
}

func TestValidate_RequiresOneArg(t *testing.T) {
	_, err := executeValidate(t, "text")
	require.Error(t, err)
}
