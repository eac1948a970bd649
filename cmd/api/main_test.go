package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmeaptix/aptix-api/internal/service"
)

func TestWriteExportFile_CSVMatchesHTTPExport(t *testing.T) {
	rows := []service.ExportRow{{SessionID: 1, CandidateID: 262, Name: "Candidate 262", Email: "candidate262@example.com", Score: 1, Total: 2}}
	path := filepath.Join(t.TempDir(), "results.csv")

	require.NoError(t, writeExportFile(path, "csv", rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var want bytes.Buffer
	require.NoError(t, service.WriteCSV(&want, rows))
	assert.Equal(t, want.Bytes(), data)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
}

func TestWriteExportFile_CreateError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "results.csv")
	assert.Error(t, writeExportFile(path, "csv", nil))
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"serve", "migrate", "export"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.RunE, "serve is the default command")
	assert.NotNil(t, root.Flags().Lookup("skip-migrate"))
}
