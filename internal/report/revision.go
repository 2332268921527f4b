package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// shortHashLen is the number of commit hash characters used in file names.
const shortHashLen = 10

// Revision identifies the source tree state.
type Revision struct {
	Hash  string
	Dirty bool
}

// Suffix is the short hash, with "-dirty" appended for uncommitted changes.
func (r Revision) Suffix() string {
	h := r.Hash
	if len(h) > shortHashLen {
		h = h[:shortHashLen]
	}
	if r.Dirty {
		return h + "-dirty"
	}
	return h
}

// FormatShaFilename returns dir/<base>-<suffix><ext>.
func FormatShaFilename(dir, base, ext string, rev Revision) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", base, rev.Suffix(), ext))
}

// GitRevision reads HEAD and the dirty state of the repository containing dir.
func GitRevision(ctx context.Context, dir string) (Revision, error) {
	hash, err := git(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return Revision{}, fmt.Errorf("read HEAD: %w", err)
	}
	status, err := git(ctx, dir, "status", "--porcelain")
	if err != nil {
		return Revision{}, fmt.Errorf("read status: %w", err)
	}
	return Revision{Hash: hash, Dirty: status != ""}, nil
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}
