package oracle

import (
	"path/filepath"
	"slices"
	"strings"
)

const (
	crashAnchor       = "; The Checker Framework crashed."
	compilationPrefix = "Compilation unit:"
	exceptionPrefix   = "Exception:"
	stackPrefix       = "at "

	unitWindow      = 10
	exceptionWindow = 10
	stackWindow     = 5
)

// CrashRecord is one crash dump found in a log.
type CrashRecord struct {
	CrashedClass  string   `json:"crashed_class"`
	ExceptionType string   `json:"exception_type"`
	StackFrames   []string `json:"stack_frames,omitempty"`
}

// Equal compares class and exception type, and the ordered stack frames when
// withStack is set.
func (r CrashRecord) Equal(other CrashRecord, withStack bool) bool {
	if r.CrashedClass != other.CrashedClass || r.ExceptionType != other.ExceptionType {
		return false
	}
	if !withStack {
		return true
	}
	return slices.Equal(r.StackFrames, other.StackFrames)
}

// ExtractCrashes returns a record for every well-formed crash dump in the log,
// in the order the dumps appear. A dump ends where the next one starts; dumps
// missing the compilation unit or the exception line within their window are
// skipped.
func ExtractCrashes(log string, requireStack bool) []CrashRecord {
	lines := splitLines(log)
	var anchors []int
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), crashAnchor) {
			anchors = append(anchors, i)
		}
	}

	var records []CrashRecord
	for k, anchor := range anchors {
		end := len(lines)
		if k+1 < len(anchors) {
			end = anchors[k+1]
		}
		if rec, ok := parseCrashAt(lines[:end], anchor, requireStack); ok {
			records = append(records, rec)
		}
	}
	return records
}

// parseCrashAt parses the dump starting at anchor. lines must end where the
// dump ends.
func parseCrashAt(lines []string, anchor int, requireStack bool) (CrashRecord, bool) {
	unitIdx := findPrefix(lines, anchor, unitWindow, compilationPrefix)
	if unitIdx < 0 {
		return CrashRecord{}, false
	}
	unitFields := strings.Fields(strings.TrimSpace(lines[unitIdx])[len(compilationPrefix):])
	if len(unitFields) == 0 {
		return CrashRecord{}, false
	}
	class := filepath.Base(unitFields[len(unitFields)-1])

	excIdx := findPrefix(lines, unitIdx+1, exceptionWindow, exceptionPrefix)
	if excIdx < 0 {
		return CrashRecord{}, false
	}
	exc := parseExceptionType(strings.TrimSpace(lines[excIdx])[len(exceptionPrefix):])
	if class == "" || exc == "" {
		return CrashRecord{}, false
	}

	rec := CrashRecord{CrashedClass: class, ExceptionType: exc}
	if !requireStack {
		return rec, true
	}
	end := min(excIdx+1+stackWindow, len(lines))
	for _, line := range lines[excIdx+1 : end] {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, stackPrefix) {
			continue
		}
		fields := strings.Fields(trimmed)
		rec.StackFrames = append(rec.StackFrames, fields[len(fields)-1])
	}
	if len(rec.StackFrames) == 0 {
		return CrashRecord{}, false
	}
	return rec, true
}

// findPrefix returns the index of the first line in [from, from+window) whose
// trimmed content starts with prefix, or -1.
func findPrefix(lines []string, from, window int, prefix string) int {
	end := min(from+window, len(lines))
	for i := from; i < end; i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), prefix) {
			return i
		}
	}
	return -1
}

// parseExceptionType turns "java.lang.NullPointerException; java.lang..."
// into "NullPointerException".
func parseExceptionType(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	tok := strings.TrimFunc(fields[0], func(r rune) bool { return !isASCIILetter(r) })
	if i := strings.LastIndexByte(tok, '.'); i >= 0 {
		tok = tok[i+1:]
	}
	return strings.TrimFunc(tok, func(r rune) bool { return !isASCIILetter(r) })
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
