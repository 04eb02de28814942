package process

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesOutputAndExitCode(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "logs", "out.txt")
	res, err := Run(context.Background(), Spec{
		Name:    "sh",
		Args:    []string{"-c", "echo out; echo err >&2; echo $PRESERVE_TEST; exit 3"},
		Env:     []string{"PRESERVE_TEST=value"},
		LogPath: logPath,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "out\n")
	assert.Contains(t, string(data), "err\n")
	assert.Contains(t, string(data), "value\n")
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), Spec{
		Name:    "sh",
		Args:    []string{"-c", "exec sleep 5"},
		Timeout: 50 * time.Millisecond,
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRun_MissingBinary(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), Spec{Name: "preserve-no-such-binary"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestRun_CancelledIsNotAnExitCode(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	res, err := Run(ctx, Spec{
		Name: "sh",
		Args: []string{"-c", "exec sleep 5"},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, -1, res.ExitCode)
}
