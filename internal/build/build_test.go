package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "org", "b", "B.java"), "class B {}")
	writeFile(t, filepath.Join(dir, "org", "a", "A.java"), "class A {}")
	writeFile(t, filepath.Join(dir, "org", "a", "notes.txt"), "")

	got, err := Sources(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "org", "a", "A.java"),
		filepath.Join(dir, "org", "b", "B.java"),
	}, got)

	_, err = Sources(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestArgs(t *testing.T) {
	t.Parallel()

	opts := Options{
		OutDir:     "out",
		CheckerJar: "checker.jar",
		Processor:  "org.checkerframework.checker.nullness.NullnessChecker",
		ExtraArgs:  []string{"-AresolveReflection"},
	}
	assert.Equal(t, []string{
		"-processorpath", "checker.jar", "-cp", "checker.jar",
		"-processor", "org.checkerframework.checker.nullness.NullnessChecker",
		"-d", filepath.Join("out", "classes"),
		"-AresolveReflection",
		"A.java",
	}, Args(opts, []string{"A.java"}))

	assert.Equal(t, []string{"-d", filepath.Join("out", "classes"), "A.java"}, Args(Options{OutDir: "out"}, []string{"A.java"}))
}

func TestJavac(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "javac", Javac(""))
	assert.Equal(t, filepath.Join("/opt/jdk-11", "bin", "javac"), Javac("/opt/jdk-11"))
}

func TestRun_NoSources(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), Options{SourceDir: t.TempDir(), OutDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestRun_WritesLogAndKeepsExitCode(t *testing.T) {
	t.Parallel()

	// A fake JAVA_HOME whose javac prints its arguments and fails like a
	// checker crash would.
	home := t.TempDir()
	writeFile(t, filepath.Join(home, "bin", "javac"), "#!/bin/sh\necho \"; The Checker Framework crashed. $JAVA_HOME\"\nexit 1\n")
	require.NoError(t, os.Chmod(filepath.Join(home, "bin", "javac"), 0o755))

	src := t.TempDir()
	writeFile(t, filepath.Join(src, "A.java"), "class A {}")
	out := t.TempDir()

	res, err := Run(context.Background(), Options{SourceDir: src, OutDir: out, JavaHome: home})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, 1, res.Sources)
	assert.Equal(t, filepath.Join(out, LogFileName), res.LogPath)

	data, err := os.ReadFile(res.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "; The Checker Framework crashed. "+home)
}
