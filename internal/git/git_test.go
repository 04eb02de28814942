package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{url: "git@github.com:codespecs/daikon.git", want: "daikon"},
		{url: "git@github.com:kelloggm/specimin.git", want: "specimin"},
		{url: "git@github.com:typetools/checker-framework.git", want: "checker-framework"},
		{url: "git@github.com:awslabs/aws-kms-compliance-checker.git", want: "aws-kms-compliance-checker"},
		{url: "https://github.com/fillmore-labs/kafka-sensors.git", want: "kafka-sensors"},
		{url: "https://github.com/apache/cassandra/", want: "cassandra"},
		{url: "/srv/git/local-repo", want: "local-repo"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RepositoryName(tt.url), tt.url)
	}
	assert.NotEqual(t, "aws-km-compliance-checker", RepositoryName("git@github.com:awslabs/aws-kms-compliance-checker.git"))
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return string(out)
}

func TestPrepare_ClonesAndChecksOutCommit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Parallel()

	ctx := context.Background()
	origin := t.TempDir()
	runGit(t, origin, "init", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(origin, "a.txt"), []byte("one\n"), 0o644))
	runGit(t, origin, "add", "a.txt")
	runGit(t, origin, "commit", "-m", "first")
	first := strings.TrimSpace(runGit(t, origin, "rev-parse", "HEAD"))
	require.NoError(t, os.WriteFile(filepath.Join(origin, "a.txt"), []byte("two\n"), 0o644))
	runGit(t, origin, "commit", "-am", "second")

	dir := filepath.Join(t.TempDir(), "input", RepositoryName(origin))
	co := Checkout{URL: origin, Branch: "main", Commit: first}
	require.NoError(t, Prepare(ctx, dir, co))

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(data))

	// A second prepare reuses the clone.
	require.NoError(t, Prepare(ctx, dir, co))
	head, err := RunCmdOutput(ctx, dir, "git", "rev-parse", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, first, strings.TrimSpace(head))
}

func TestPrepare_BadURL(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "repo")
	err := Prepare(context.Background(), dir, Checkout{URL: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorContains(t, err, "git clone")
}
