package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitDestination keeps the flow export as one file in a local clone and
// pushes a commit whenever it changes. The commit message carries the
// export summary so the history reads as a log of the flows' progress.
type GitDestination struct {
	repo   string
	file   string
	branch string
}

// NewGitDestination creates a git destination. repo is the path to an
// existing local clone; file is relative to it.
func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{repo: repo, file: file, branch: branch}
}

// Name identifies the destination in logs.
func (d *GitDestination) Name() string {
	return "git:" + filepath.Join(d.repo, d.file) + "@" + d.branch
}

// CommitMessage is the message used for an export.
func CommitMessage(exp Export) string {
	return "flowgraph: " + exp.Summary.String()
}

// Write replaces the export file and pushes a commit. A write whose flow
// lines match the committed file is skipped, since only the header
// timestamp would differ.
func (d *GitDestination) Write(ctx context.Context, exp Export) error {
	if err := d.git(ctx, "checkout", d.branch); err != nil {
		return err
	}
	// The remote branch may not exist yet.
	_ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	path := filepath.Join(d.repo, d.file)
	if prev, err := os.ReadFile(path); err == nil && sameFlows(prev, exp.Data) && d.clean(ctx) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	if err := d.git(ctx, "add", d.file); err != nil {
		return err
	}
	if err := d.git(ctx, "commit", "-m", CommitMessage(exp)); err != nil {
		return err
	}
	if err := d.git(ctx, "push", "origin", d.branch); err != nil {
		return err
	}
	return nil
}

// sameFlows compares two exports ignoring their header lines.
func sameFlows(a, b []byte) bool {
	return bytes.Equal(dropFirstLine(a), dropFirstLine(b))
}

func dropFirstLine(b []byte) []byte {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[i+1:]
	}
	return nil
}

// clean reports whether the export file has no uncommitted changes.
func (d *GitDestination) clean(ctx context.Context) bool {
	out, err := d.output(ctx, "status", "--porcelain", "--", d.file)
	return err == nil && strings.TrimSpace(out) == ""
}

func (d *GitDestination) git(ctx context.Context, args ...string) error {
	_, err := d.output(ctx, args...)
	return err
}

// output runs a git command in the clone. Failures carry git's output.
func (d *GitDestination) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	out, err := cmd.CombinedOutput()
	if err == nil {
		return string(out), nil
	}
	var exitErr *exec.ExitError
	if msg := strings.TrimSpace(string(out)); errors.As(err, &exitErr) && msg != "" {
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return "", fmt.Errorf("git %s: %w", args[0], err)
}
