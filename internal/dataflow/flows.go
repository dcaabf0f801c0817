package dataflow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/mvp-joe/codelens/internal/parsers"
)

var httpInputs = map[string]bool{
	SourceHTTPBody:   true,
	SourceHTTPQuery:  true,
	SourceHTTPHeader: true,
	SourceHTTPPath:   true,
	SourceUserInput:  true,
}

// hashFlow derives a stable flow id from both endpoints.
func hashFlow(source Source, sink Sink) string {
	data := fmt.Sprintf("%s:%d:%s:%s:%d:%s",
		source.File, source.Line, source.SourceType,
		sink.File, sink.Line, sink.SinkType)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:16]
}

// calculateRisk grades a flow. Sanitized flows are always informational.
func calculateRisk(source Source, sink Sink, sanitized bool) Risk {
	if sanitized {
		return RiskInfo
	}

	if httpInputs[source.SourceType] {
		switch sink.SinkType {
		case SinkCommandExec, SinkDatabase:
			return RiskCritical
		case SinkHTTPResponse, SinkTemplate, SinkRedirect:
			return RiskHigh
		}
	}

	dangerous := sink.SinkType == SinkDatabase || sink.SinkType == SinkCommandExec
	if (source.SourceType == SourceEnvVar || source.SourceType == SourceFileRead) && dangerous {
		return RiskMedium
	}
	if sink.SinkType == SinkFileWrite {
		return RiskMedium
	}
	if sink.SinkType == SinkLogging {
		return RiskLow
	}
	return RiskInfo
}

// assignmentRe captures `lhs = rhs`, including declarations, annotations and
// augmented operators. Comparisons are rejected by the caller.
var assignmentRe = regexp.MustCompile(
	`^\s*(?:(?:const|let|var)\s+)?(\w+)\s*(?::[^=]*)?(?:\*\*|//|<<|>>|\?\?|\|\||&&|[-+*/%|&^])?=(.*)$`)

type assignment struct {
	line  int
	scope int
	lhs   string
	rhs   string
}

// scopedFile resolves positions in one file to their innermost function scope.
type scopedFile struct {
	lines       []string
	spans       []parsers.Span
	assignments []assignment
}

func newScopedFile(lines []string, spans []parsers.Span) *scopedFile {
	f := &scopedFile{lines: lines, spans: spans}
	for i, line := range lines {
		m := assignmentRe.FindStringSubmatchIndex(line)
		if m == nil || strings.HasPrefix(line[m[4]:], "=") {
			continue
		}
		f.assignments = append(f.assignments, assignment{
			line:  i + 1,
			scope: parsers.InnermostSpan(spans, i+1, m[2]+1),
			lhs:   line[m[2]:m[3]],
			rhs:   line[m[4]:m[5]],
		})
	}
	return f
}

// scopeAt returns the scope index of a 1-based line and character column,
// or -1 for module level.
func (f *scopedFile) scopeAt(line, column int) int {
	if line < 1 || line > len(f.lines) {
		return -1
	}
	return parsers.InnermostSpan(f.spans, line, byteColumn(f.lines[line-1], column))
}

// byteColumn converts a 1-based character column into a 1-based byte column.
func byteColumn(line string, column int) int {
	n := 1
	for i := range line {
		if n == column {
			return i + 1
		}
		n++
	}
	return len(line) + 1
}

// taintPath returns the chain of variables carrying the source's value to a
// variable used on the sink line, or nil when the two are not connected.
func (f *scopedFile) taintPath(source Source, sink Sink) []string {
	if source.Line > sink.Line {
		return nil
	}
	scope := f.scopeAt(source.Line, source.Column)
	if scope != f.scopeAt(sink.Line, sink.Column) {
		return nil
	}
	if source.Line == sink.Line {
		return []string{source.Variable}
	}
	if source.Variable == unknownVariable {
		return nil
	}

	parent := map[string]string{source.Variable: ""}
	order := []string{source.Variable}
	for _, a := range f.assignments {
		if a.line <= source.Line || a.line >= sink.Line || a.scope != scope {
			continue
		}
		if _, tainted := parent[a.lhs]; tainted {
			continue
		}
		for _, v := range order {
			if usesVariable(a.rhs, v) {
				parent[a.lhs] = v
				order = append(order, a.lhs)
				break
			}
		}
	}

	// The most derived variable the sink touches names the path.
	for i := len(order) - 1; i >= 0; i-- {
		if !usesVariable(sink.Context, order[i]) {
			continue
		}
		var path []string
		for v := order[i]; v != ""; v = parent[v] {
			path = append([]string{v}, path...)
		}
		return path
	}
	return nil
}

// usesVariable reports whether name appears in text as a whole identifier.
func usesVariable(text, name string) bool {
	for offset := 0; ; {
		i := strings.Index(text[offset:], name)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(name)
		if !isIdentByte(text, start-1) && !isIdentByte(text, end) {
			return true
		}
		offset = start + 1
	}
}

func isIdentByte(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return false
	}
	c := text[i]
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// trackFlows pairs every source with every connected sink of the same file.
// seen deduplicates across files.
func (t *patternTable) trackFlows(f *scopedFile, d detection, seen map[string]bool) []Flow {
	var flows []Flow
	for _, source := range d.sources {
		for _, sink := range d.sinks {
			if source.File != sink.File {
				continue
			}
			path := f.taintPath(source, sink)
			if path == nil {
				continue
			}
			id := hashFlow(source, sink)
			if seen[id] {
				continue
			}
			seen[id] = true

			sanitized, sanitizer := t.sanitization(sink)
			flows = append(flows, Flow{
				ID:        id,
				Source:    source,
				Sink:      sink,
				Risk:      calculateRisk(source, sink, sanitized),
				Sanitized: sanitized,
				Sanitizer: sanitizer,
				Path:      path,
			})
		}
	}
	return flows
}
