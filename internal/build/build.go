// Package build recompiles a minimized program under the Checker Framework so
// the resulting diagnostics can be compared with the original ones.
package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/metalagman/preserve/internal/process"
)

// LogFileName is the build log written into the issue directory.
const LogFileName = "build_log.txt"

// ErrNoSources is returned when the minimized output holds no Java files.
var ErrNoSources = errors.New("no java sources")

// Options configures one rebuild.
type Options struct {
	// SourceDir is the minimized source root.
	SourceDir  string
	// OutDir receives class files and the build log.
	OutDir     string
	JavaHome   string
	CheckerJar string
	Processor  string
	ExtraArgs  []string
	Timeout    time.Duration
}

// Result describes a finished rebuild. A non-zero exit is normal for a
// program that still triggers a compiler error or checker crash.
type Result struct {
	LogPath  string
	ExitCode int
	Sources  int
	Duration time.Duration
}

// Sources returns the .java files under dir in lexical order.
func Sources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".java") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	slices.Sort(files)
	return files, nil
}

// Args returns the javac arguments for the given sources.
func Args(opts Options, sources []string) []string {
	args := make([]string, 0, 8+len(opts.ExtraArgs)+len(sources))
	if opts.CheckerJar != "" {
		args = append(args, "-processorpath", opts.CheckerJar, "-cp", opts.CheckerJar)
	}
	if opts.Processor != "" {
		args = append(args, "-processor", opts.Processor)
	}
	args = append(args, "-d", filepath.Join(opts.OutDir, "classes"))
	args = append(args, opts.ExtraArgs...)
	return append(args, sources...)
}

// Javac returns the compiler binary for a JAVA_HOME, or javac from PATH.
func Javac(javaHome string) string {
	if javaHome == "" {
		return "javac"
	}
	return filepath.Join(javaHome, "bin", "javac")
}

// Run compiles the minimized sources and writes the combined compiler output
// to OutDir/build_log.txt.
func Run(ctx context.Context, opts Options) (Result, error) {
	sources, err := Sources(opts.SourceDir)
	if err != nil {
		return Result{}, err
	}
	if len(sources) == 0 {
		return Result{}, fmt.Errorf("%s: %w", opts.SourceDir, ErrNoSources)
	}
	if err := os.MkdirAll(filepath.Join(opts.OutDir, "classes"), 0o755); err != nil {
		return Result{}, fmt.Errorf("create classes dir: %w", err)
	}

	var env []string
	if opts.JavaHome != "" {
		env = append(env, "JAVA_HOME="+opts.JavaHome)
	}
	logPath := filepath.Join(opts.OutDir, LogFileName)
	res, err := process.Run(ctx, process.Spec{
		Name:    Javac(opts.JavaHome),
		Args:    Args(opts, sources),
		Env:     env,
		LogPath: logPath,
		Timeout: opts.Timeout,
	})
	out := Result{LogPath: logPath, ExitCode: res.ExitCode, Sources: len(sources), Duration: res.Duration}
	if err != nil {
		return out, fmt.Errorf("javac: %w", err)
	}
	return out, nil
}
