package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/journal"
	"github.com/roach88/freight/internal/store"
)

func executeTrace(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func seedJournal(t *testing.T, emissions ...store.Emission) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "freight.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	for _, e := range emissions {
		require.NoError(t, j.Record(context.Background(), e))
	}
	return path
}

func TestTrace_Text(t *testing.T) {
	db := seedJournal(t,
		store.Emission{Store: "counter", Seq: 1, Cargo: cargo.Cargo{"count": 1}},
		store.Emission{Store: "users", Seq: 2, Cargo: cargo.Cargo{"user": nil}},
	)

	out, err := executeTrace(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Equal(t,
		"     1  counter          {\"count\":1}\n"+
			"     2  users            {\"user\":null}\n"+
			"\n2 flush(es) across 2 store(s)\n",
		out)
}

func TestTrace_StoreFilter(t *testing.T) {
	db := seedJournal(t,
		store.Emission{Store: "counter", Seq: 1, Cargo: cargo.Cargo{"count": 1}},
		store.Emission{Store: "users", Seq: 2, Cargo: cargo.Cargo{"user": nil}},
	)

	out, err := executeTrace(t, "text", "--db", db, "--store", "users")
	require.NoError(t, err)
	assert.NotContains(t, out, "counter  ")
	assert.Contains(t, out, "1 flush(es) across 2 store(s)")
}

func TestTrace_Empty(t *testing.T) {
	db := seedJournal(t)

	out, err := executeTrace(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No flushes recorded.\n", out)
}

func TestTrace_MissingDatabaseFlag(t *testing.T) {
	_, err := executeTrace(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTrace_NonExistentDatabase(t *testing.T) {
	_, err := executeTrace(t, "text", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}
