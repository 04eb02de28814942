// Package loc compares the size of hand-written and automatic minimizations
// using scc.
package loc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrNoJava is returned when scc found no Java code in a directory.
var ErrNoJava = errors.New("no java code")

type language struct {
	Name string `json:"Name"`
	Code int    `json:"Code"`
}

// ParseSCC returns the Java code line count from scc's JSON output.
func ParseSCC(data []byte) (int, error) {
	var langs []language
	if err := json.Unmarshal(bytes.TrimSpace(data), &langs); err != nil {
		return 0, fmt.Errorf("parse scc output: %w", err)
	}
	total, found := 0, false
	for _, l := range langs {
		if l.Name == "Java" {
			total += l.Code
			found = true
		}
	}
	if !found {
		return 0, ErrNoJava
	}
	return total, nil
}

// CountJava runs scc over dir and returns its Java code line count.
func CountJava(ctx context.Context, dir string) (int, error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("stat %s: %w", dir, err)
	}
	if _, err := exec.LookPath("scc"); err != nil {
		return 0, fmt.Errorf("scc not found in PATH: %w", err)
	}
	cmd := exec.CommandContext(ctx, "scc", "-f", "json", ".")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("scc %s: %w", dir, err)
	}
	return ParseSCC(out)
}

// Comparison holds the line counts of one issue.
type Comparison struct {
	IssueID   string
	Repo      string
	Hand      int
	Minimized int
	HandErr   error
	MinErr    error
}

// HasData reports whether both counts are available.
func (c Comparison) HasData() bool {
	return c.HandErr == nil && c.MinErr == nil
}

// HandDir is where a repository keeps its hand-minimized test case.
func HandDir(issueDir, repo string) string {
	return filepath.Join(issueDir, "input", repo, "specimin", "test")
}

// MinimizedDir is the minimizer's output for a repository.
func MinimizedDir(issueDir, repo string) string {
	return filepath.Join(issueDir, "output", repo, "src")
}

// Counter counts lines of Java code in a directory.
type Counter func(ctx context.Context, dir string) (int, error)

// Compare counts both sides for one issue.
func Compare(ctx context.Context, count Counter, issueID, issueDir, repo string) Comparison {
	c := Comparison{IssueID: issueID, Repo: repo}
	c.Hand, c.HandErr = count(ctx, HandDir(issueDir, repo))
	c.Minimized, c.MinErr = count(ctx, MinimizedDir(issueDir, repo))
	return c
}

// Averages returns the mean hand and minimized counts over comparisons with
// data, and how many had data.
func Averages(cs []Comparison) (hand, minimized float64, n int) {
	var sumHand, sumMin int
	for _, c := range cs {
		if !c.HasData() {
			continue
		}
		sumHand += c.Hand
		sumMin += c.Minimized
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}
	return float64(sumHand) / float64(n), float64(sumMin) / float64(n), n
}
