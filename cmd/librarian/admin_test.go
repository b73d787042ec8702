package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--data-path", dir,
		"--log-level", "error",
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestAdminCreate(t *testing.T) {
	dir := t.TempDir()

	out, err := runCommand(t, dir, "admin", "create",
		"--email", "Admin@Example.com", "--name", "Head Librarian", "--phone", "9876543210",
		"--password", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "Created admin admin@example.com")
	assert.NotContains(t, out, "Generated password")

	_, err = runCommand(t, dir, "admin", "create",
		"--email", "admin@example.com", "--name", "Again", "--phone", "9876543210",
		"--password", "password123")
	assert.Error(t, err)
}

func TestAdminCreate_GeneratesPasswordWithoutTerminal(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), "admin", "create",
		"--email", "ops@example.com", "--name", "Ops", "--phone", "9876543210")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated password: ")
}

func TestAdminCreate_RequiresFlags(t *testing.T) {
	_, err := runCommand(t, t.TempDir(), "admin", "create", "--email", "ops@example.com")
	assert.Error(t, err)
}
