package report

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/glacier-balance/internal/domain"
)

func TestWriteProfileCSV(t *testing.T) {
	var b strings.Builder
	err := WriteProfileCSV(&b, []domain.PointBalance{
		{Elevation: 1400, NetBalance: -2.5},
		{Elevation: 1500, NetBalance: 0.125},
	})
	require.NoError(t, err)
	assert.Equal(t, "elevation,net_balance\n1400,-2.5\n1500,0.125\n", b.String())
}

func TestWriteSweepCSV(t *testing.T) {
	var b strings.Builder
	err := WriteSweepCSV(&b, []domain.SweepPoint{
		{Offset: -1, GlacierNetBalance: 0.5},
		{Offset: 1, GlacierNetBalance: -1.25},
	})
	require.NoError(t, err)
	assert.Equal(t, "offset,glacier_net_balance\n-1,0.5\n1,-1.25\n", b.String())
}

func TestWriteSweepCSV_Empty(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteSweepCSV(&b, nil))
	assert.Equal(t, "offset,glacier_net_balance\n", b.String())
}

func TestFormatShaFilename(t *testing.T) {
	hash := "0123456789abcdef0123456789abcdef01234567"
	tests := []struct {
		name string
		rev  Revision
		want string
	}{
		{"clean", Revision{Hash: hash}, filepath.Join("out", "profile-0123456789.csv")},
		{"dirty", Revision{Hash: hash, Dirty: true}, filepath.Join("out", "profile-0123456789-dirty.csv")},
		{"short hash", Revision{Hash: "abc"}, filepath.Join("out", "profile-abc.csv")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatShaFilename("out", "profile", ".csv", tt.rev))
		})
	}
}

func TestGitRevision(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))
	run("add", "a.txt")
	run("commit", "-q", "-m", "init")

	rev, err := GitRevision(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, rev.Hash, 40)
	assert.False(t, rev.Dirty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("b"), 0o600))
	rev, err = GitRevision(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, rev.Dirty)
	assert.True(t, strings.HasSuffix(rev.Suffix(), "-dirty"))
}

func TestGitRevision_NotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	_, err := GitRevision(context.Background(), t.TempDir())
	require.Error(t, err)
}
