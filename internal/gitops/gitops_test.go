package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitLog(t *testing.T, dir, format string) string {
	t.Helper()
	cmd := exec.Command("git", "log", "--format="+format, "-1")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	return string(out)
}

func TestInit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir))

	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir))
}

func TestSnapshot_All(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "incidence.yaml"), []byte("project: {}\n"), 0o644))

	hash, err := Snapshot(dir, "init: study", Identity{Name: "Analyst", Email: "analyst@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.Contains(t, gitLog(t, dir, "%s"), "init: study")
	assert.Contains(t, gitLog(t, dir, "%an <%ae>"), "Analyst <analyst@example.com>")
	assert.Contains(t, gitLog(t, dir, "%cn"), "Analyst")
}

func TestSnapshot_Paths(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legislation.yaml"), []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "survey_bdf.csv"), []byte("ident_men\n"), 0o644))

	_, err := Snapshot(dir, "inputs", DefaultIdentity, "legislation.yaml")
	require.NoError(t, err)

	cmd := exec.Command("git", "ls-files")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, "legislation.yaml\n", string(out))
}

func TestSnapshot_NothingToCommit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	_, err := Snapshot(dir, "empty", DefaultIdentity)
	assert.Error(t, err)
}
