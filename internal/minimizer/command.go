// Package minimizer builds the Specimin invocation for an issue.
package minimizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/metalagman/preserve/internal/issue"
)

// DefaultCmd starts Specimin from its source checkout.
var DefaultCmd = []string{"./gradlew", "run"}

// Params are the inputs of one minimization.
type Params struct {
	Project      string
	TargetDir    string
	MinimizerDir string
	Issue        issue.Issue
	BaseCmd      []string
}

// Invocation is a ready-to-run command line.
type Invocation struct {
	Dir  string
	Name string
	Args []string
}

// String renders the invocation the way it would be typed in a shell.
func (inv Invocation) String() string {
	parts := []string{inv.Name}
	for _, a := range inv.Args {
		if k, v, ok := strings.Cut(a, "="); ok && strings.ContainsAny(v, " \"") {
			parts = append(parts, k+"='"+v+"'")
			continue
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// InputDir is where the issue's repository is cloned.
func InputDir(targetDir, project string) string {
	return filepath.Join(targetDir, "input", project)
}

// OutputDir is where Specimin writes the minimized sources.
func OutputDir(targetDir, project string) string {
	return filepath.Join(targetDir, "output", project, "src", "main", "java")
}

// Command builds the Specimin command for p.
func Command(p Params) Invocation {
	base := p.BaseCmd
	if len(base) == 0 {
		base = DefaultCmd
	}
	return Invocation{
		Dir:  p.MinimizerDir,
		Name: base[0],
		Args: append(append([]string{}, base[1:]...), "--args="+Arguments(p)),
	}
}

// Arguments renders the Specimin program arguments.
func Arguments(p Params) string {
	pkgPath := p.Issue.PackagePath()
	var b strings.Builder
	fmt.Fprintf(&b, "--outputDirectory %q", OutputDir(p.TargetDir, p.Project))
	fmt.Fprintf(&b, " --root %q", filepath.Join(InputDir(p.TargetDir, p.Project), p.Issue.RootDir)+"/")
	for _, t := range p.Issue.Targets {
		fmt.Fprintf(&b, " --targetFile %q", pkgPath+"/"+t.File)
		fmt.Fprintf(&b, " --targetMethod %q", p.Issue.Package+"."+strings.TrimSuffix(t.File, ".java")+"#"+t.Method)
	}
	return b.String()
}
