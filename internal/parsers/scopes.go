package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Span is the source range covered by one function scope. Lines and byte
// columns are 1-indexed; the end position is exclusive.
type Span struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Contains reports whether the position (line, column) falls inside the span.
// column is a 1-indexed byte column.
func (s Span) Contains(line, column int) bool {
	if line < s.StartLine || line == s.StartLine && column < s.StartColumn {
		return false
	}
	return line < s.EndLine || line == s.EndLine && column < s.EndColumn
}

// scopeKinds lists the node kinds that open a new function scope per language.
var scopeKinds = map[string]map[string]bool{
	LangPython: {
		"function_definition": true,
		"lambda":              true,
	},
	LangTypeScript: {
		"function_declaration":           true,
		"function_expression":            true,
		"function":                       true,
		"generator_function_declaration": true,
		"generator_function":             true,
		"arrow_function":                 true,
		"method_definition":              true,
	},
}

// FunctionSpans returns the line spans of every function-like scope in source,
// in document order. Outer spans precede the spans nested inside them.
//
// Partial trees are accepted: a syntax error elsewhere in the file does not hide
// the scopes tree-sitter could still recover.
func FunctionSpans(lang string, source []byte) ([]Span, error) {
	kinds, ok := scopeKinds[lang]
	if !ok {
		_, err := languageFor(lang)
		return nil, err
	}

	var spans []Span
	err := WithTree(lang, source, func(root *sitter.Node) error {
		walkTree(root, func(n *sitter.Node) bool {
			if kinds[n.Kind()] {
				end := n.EndPosition()
				spans = append(spans, Span{
					StartLine:   StartLine(n),
					StartColumn: Column(n),
					EndLine:     int(end.Row) + 1,
					EndColumn:   int(end.Column) + 1,
				})
			}
			return true
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return spans, nil
}

// InnermostSpan returns the index of the innermost span containing the
// position, or -1 at module level. A callback opening mid-line owns only the
// text from its start column on, so code before it stays in the enclosing scope.
func InnermostSpan(spans []Span, line, column int) int {
	best := -1
	for i, s := range spans {
		// Document order puts nested spans after their parents.
		if s.Contains(line, column) {
			best = i
		}
	}
	return best
}
