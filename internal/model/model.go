// Package model holds the result types shared by the evaluation harness.
package model

import "time"

// Status is a PASS/FAIL outcome. The empty value means unset.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	// StatusError marks a preservation check that could not be evaluated
	// because the descriptor or the expected log is wrong.
	StatusError Status = "ERROR"
)

// ReasonExpectedLogMissing is the preservation reason when an issue has no
// expected log.
const ReasonExpectedLogMissing = "Expected log file missing"

// Verdict is the outcome of evaluating one issue. Status describes the
// minimization step; Preservation describes whether the diagnostic survived
// and is only meaningful when Status is PASS.
type Verdict struct {
	Status             Status `json:"status"`
	FailReason         string `json:"fail_reason,omitempty"`
	Preservation       Status `json:"preservation_status,omitempty"`
	PreservationReason string `json:"preservation_reason,omitempty"`
}

// Passed returns a verdict with a successful minimization and unset preservation.
func Passed() Verdict {
	return Verdict{Status: StatusPass}
}

// Failed returns a verdict for a failed minimization.
func Failed(reason string) Verdict {
	return Verdict{Status: StatusFail, FailReason: reason}
}

// WithPreservation returns a copy of v with the preservation outcome set.
func (v Verdict) WithPreservation(status Status, reason string) Verdict {
	v.Preservation = status
	v.PreservationReason = reason
	return v
}

// Preserved reports whether the minimization succeeded and kept the diagnostic.
func (v Verdict) Preserved() bool {
	return v.Status == StatusPass && v.Preservation == StatusPass
}

// Result is the per-issue record returned by the runner and aggregated by
// the caller.
type Result struct {
	IssueID   string        `json:"issue_id"`
	Verdict   Verdict       `json:"verdict"`
	LogPath   string        `json:"log_path,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Summary aggregates results of a run.
type Summary struct {
	Total     int `json:"total"`
	Minimized int `json:"minimized"`
	Preserved int `json:"preserved"`
	Errors    int `json:"errors"`
}

// Summarize counts minimized and preserved issues.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Verdict.Status == StatusPass {
			s.Minimized++
		}
		if r.Verdict.Preserved() {
			s.Preserved++
		}
		if r.Verdict.Preservation == StatusError {
			s.Errors++
		}
	}
	return s
}
