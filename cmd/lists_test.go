package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/highlander/internal/config"
	"github.com/arcanaland/highlander/internal/rulelists"
)

func TestListsInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lists")
	previous := cfg
	cfg = config.Default()
	cfg.ListsDir = dir
	t.Cleanup(func() { cfg = previous })

	require.NoError(t, os.MkdirAll(dir, 0755))
	banned := filepath.Join(dir, rulelists.BannedFile)
	require.NoError(t, os.WriteFile(banned, []byte("Sol Ring\n"), 0644))

	var out bytes.Buffer
	listsInitCmd.SetOut(&out)
	t.Cleanup(func() { listsInitCmd.SetOut(nil) })
	require.NoError(t, listsInitCmd.RunE(listsInitCmd, nil))

	for _, name := range []string{rulelists.AllowedFile, rulelists.SingletonFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Empty(t, data)
	}
	// existing lists are left alone
	data, err := os.ReadFile(banned)
	require.NoError(t, err)
	assert.Equal(t, "Sol Ring\n", string(data))

	assert.Contains(t, out.String(), "Keeping existing list: "+banned)
	assert.Contains(t, out.String(), "Lists directory: "+dir)
	assert.NotContains(t, out.String(), "Config file")
}
