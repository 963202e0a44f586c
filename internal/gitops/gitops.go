package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo is a ledger repository checked into git.
type Repo struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// Init initializes a new git repository at dir.
func Init(ctx context.Context, dir string) error {
	if out, err := run(ctx, dir, nil, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// HasChanges reports whether the working tree differs from HEAD.
func (r Repo) HasChanges(ctx context.Context) (bool, error) {
	out, err := run(ctx, r.Dir, nil, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("git status: %s: %w", out, err)
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitAll stages all files and creates a commit. Returns the short commit
// hash, or "" when there was nothing to commit.
func (r Repo) CommitAll(ctx context.Context, message string) (string, error) {
	if out, err := run(ctx, r.Dir, nil, "add", "-A"); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}
	changed, err := r.HasChanges(ctx)
	if err != nil || !changed {
		return "", err
	}

	// The author also commits, so a machine without a git identity works.
	env := []string{
		"GIT_AUTHOR_NAME=" + r.AuthorName,
		"GIT_AUTHOR_EMAIL=" + r.AuthorEmail,
		"GIT_COMMITTER_NAME=" + r.AuthorName,
		"GIT_COMMITTER_EMAIL=" + r.AuthorEmail,
	}
	if out, err := run(ctx, r.Dir, env, "commit", "--quiet", "-m", message); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := run(ctx, r.Dir, nil, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %s: %w", out, err)
	}
	return strings.TrimSpace(out), nil
}

func run(ctx context.Context, dir string, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}
