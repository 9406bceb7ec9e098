package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"migrate", "mark-overdue", "export", "render"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("env-file"))

	render, _, err := root.Find([]string{"render"})
	require.NoError(t, err)
	assert.Equal(t, "pdf", render.Flags().Lookup("format").DefValue)
}

func TestParseDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 45, 0, 0, time.UTC)

	d, err := parseDay("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDay("2024-04-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDay("01/04/2024", now)
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FACTURASCTL_TEST_VAR=hola\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("FACTURASCTL_TEST_VAR") })

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "hola", os.Getenv("FACTURASCTL_TEST_VAR"))

	assert.Error(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
