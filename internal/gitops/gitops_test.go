package gitops

import (
	"context"
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

func TestInit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(context.Background(), dir))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestCommitAll(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, Init(ctx, dir))
	repo := Repo{Dir: dir, AuthorName: "Test Author", AuthorEmail: "test@example.com"}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger.yaml"), []byte("party_id: trip\n"), 0o644))
	changed, err := repo.HasChanges(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	hash, err := repo.CommitAll(ctx, "init: trip")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Equal(t, "init: trip|Test Author <test@example.com>\n", string(out))

	hash, err = repo.CommitAll(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, hash, "clean tree makes no commit")
}
