package dataflow

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Assignment prefixes tried right to left of a match, most specific first.
var (
	typedAssignRe = regexp.MustCompile(`(\w+)\s*:\s*\w+\s*=\s*$`)
	declAssignRe  = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*$`)
	walrusRe      = regexp.MustCompile(`(\w+)\s*:=\s*$`)
	plainAssignRe = regexp.MustCompile(`(\w+)\s*=\s*$`)

	propertyRe  = regexp.MustCompile(`^\w+\.(\w+)`)
	firstWordRe = regexp.MustCompile(`^(\w+)`)
)

const unknownVariable = "<unknown>"

// extractVariable names the variable a match at byte offset start binds to.
// An assignment prefix wins; otherwise the accessed property or the first word
// of the matched expression is used.
func extractVariable(line string, start int) string {
	prefix := strings.TrimRight(line[:start], " \t\r\n\f\v")
	for _, re := range []*regexp.Regexp{typedAssignRe, declAssignRe, walrusRe, plainAssignRe} {
		if m := re.FindStringSubmatch(prefix); m != nil {
			return m[1]
		}
	}

	suffix := line[start:]
	if m := propertyRe.FindStringSubmatch(suffix); m != nil {
		return m[1]
	}
	if m := firstWordRe.FindStringSubmatch(suffix); m != nil {
		return m[1]
	}
	return unknownVariable
}

// boundVariable is extractVariable for nil sources: when the match sits inside
// the right-hand side of a statement-level assignment, the assigned name wins.
func boundVariable(line string, start int) string {
	name := extractVariable(line, start)
	if m := assignmentRe.FindStringSubmatchIndex(line); m != nil && start >= m[4] {
		if !strings.HasPrefix(line[m[4]:], "=") {
			return line[m[2]:m[3]]
		}
	}
	return name
}

// column converts a byte offset into a 1-based character column.
func column(line string, offset int) int {
	return utf8.RuneCountInString(line[:offset]) + 1
}

// splitLines splits text on \n, \r\n and lone \r. A trailing terminator does
// not produce an extra empty line.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// match is one pattern hit within a line.
type match struct {
	start int
	desc  string
}

// findAll returns every non-overlapping hit of p in line.
func (p pattern) findAll(line string) []match {
	var hits []match
	for _, loc := range p.re.FindAllStringIndex(line, -1) {
		if p.rejectNext != "" && strings.HasPrefix(line[loc[1]:], p.rejectNext) {
			continue
		}
		hits = append(hits, match{start: loc[0], desc: p.desc})
	}
	return hits
}

// detection holds the raw hits for one file.
type detection struct {
	sources []Source
	sinks   []Sink
	nils    []NilSource
}

// detect scans lines with every table entry, preserving line, table and match order.
func (t *patternTable) detect(file string, lines []string) detection {
	var d detection
	for i, line := range lines {
		lineNum := i + 1
		for _, g := range t.sources {
			for _, p := range g.patterns {
				for _, m := range p.findAll(line) {
					d.sources = append(d.sources, Source{
						SourceType: g.category,
						Variable:   extractVariable(line, m.start),
						File:       file,
						Line:       lineNum,
						Column:     column(line, m.start),
						Pattern:    m.desc,
					})
				}
			}
		}
		for _, g := range t.sinks {
			for _, p := range g.patterns {
				for _, m := range p.findAll(line) {
					d.sinks = append(d.sinks, Sink{
						SinkType: g.category,
						Variable: extractVariable(line, m.start),
						File:     file,
						Line:     lineNum,
						Column:   column(line, m.start),
						Pattern:  m.desc,
						Context:  line,
					})
				}
			}
		}
		for _, np := range t.nils {
			for _, m := range np.findAll(line) {
				d.nils = append(d.nils, NilSource{
					Variable: boundVariable(line, m.start),
					File:     file,
					Line:     lineNum,
					Column:   column(line, m.start),
					Pattern:  m.desc,
					Reason:   np.reason,
				})
			}
		}
	}
	return d
}

// sanitization reports the first sanitizer recognized in the sink's line.
func (t *patternTable) sanitization(sink Sink) (bool, string) {
	for _, s := range t.sanitizers[sink.SinkType] {
		if s.re.MatchString(sink.Context) {
			return true, s.expr
		}
	}
	return false, ""
}
