package parsers

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Supported language tags.
const (
	LangPython     = "python"
	LangTypeScript = "typescript"
)

// languageFor returns the tree-sitter grammar for a language tag.
func languageFor(lang string) (*sitter.Language, error) {
	switch lang {
	case LangPython:
		return sitter.NewLanguage(python.Language()), nil
	case LangTypeScript:
		return sitter.NewLanguage(typescript.LanguageTypescript()), nil
	default:
		return nil, fmt.Errorf("no grammar for language %q", lang)
	}
}

// WithTree parses source with the grammar for lang and hands the root node to fn.
// The tree is released when fn returns, so fn must not retain nodes.
func WithTree(lang string, source []byte, fn func(root *sitter.Node) error) error {
	language, err := languageFor(lang)
	if err != nil {
		return err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(language); err != nil {
		return fmt.Errorf("failed to set %s grammar: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return fmt.Errorf("failed to parse %s source", lang)
	}
	defer tree.Close()

	return fn(tree.RootNode())
}

// NodeText extracts the text content of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// StartLine returns the 1-indexed line a node starts on.
func StartLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// EndLine returns the 1-indexed last line containing node text.
// A node ending at column 0 stops on the previous line.
func EndLine(node *sitter.Node) int {
	end := node.EndPosition()
	start := node.StartPosition()
	if end.Column == 0 && end.Row > start.Row {
		return int(end.Row)
	}
	return int(end.Row) + 1
}

// Column returns the 1-indexed byte column a node starts at.
func Column(node *sitter.Node) int {
	return int(node.StartPosition().Column) + 1
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
// Returning false from the visitor skips the node's children.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		walkTree(child, visitor)
	}
}

// WalkTree is the exported form of walkTree for sibling packages.
func WalkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	walkTree(node, visitor)
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child != nil && child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// namedChildren returns the named children of node in order.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	count := int(node.NamedChildCount())
	results := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if child := node.NamedChild(uint(i)); child != nil {
			results = append(results, child)
		}
	}
	return results
}

// childrenByField returns every child attached to the given field name.
func childrenByField(node *sitter.Node, field string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.FieldNameForChild(uint32(i)) == field {
			if child := node.Child(uint(i)); child != nil {
				results = append(results, child)
			}
		}
	}
	return results
}

// SyntaxErrorLine returns the line of the first ERROR or MISSING node, or 0.
// Python 2 print and exec statements are accepted by the grammar but are
// syntax errors in Python 3, so they count too.
func SyntaxErrorLine(root *sitter.Node) int {
	if root == nil {
		return 0
	}
	line := 0
	walkTree(root, func(n *sitter.Node) bool {
		if line != 0 {
			return false
		}
		switch Classify(n) {
		case KindError, KindLegacyStatement:
			line = StartLine(n)
			return false
		}
		if n.IsMissing() {
			line = StartLine(n)
			return false
		}
		return true
	})
	if line == 0 && root.HasError() {
		line = StartLine(root)
	}
	return line
}

// normalizeAnnotation renders annotation text in one canonical spelling:
// whitespace runs collapse, brackets hug their contents, and commas and union
// bars are spaced as ", " and " | ". String literals are copied verbatim.
func normalizeAnnotation(text string) string {
	out := make([]byte, 0, len(text))
	trim := func() {
		for len(out) > 0 && out[len(out)-1] == ' ' {
			out = out[:len(out)-1]
		}
	}

	var quote byte
	space := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			out = append(out, c)
			if c == '\\' && i+1 < len(text) {
				i++
				out = append(out, text[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}

		switch c {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			space = true
			continue
		case ',':
			trim()
			out = append(out, ", "...)
		case '|':
			trim()
			out = append(out, " | "...)
		case '[', '(':
			out = append(out, c)
		case ']', ')':
			trim()
			out = append(out, c)
		default:
			if space && len(out) > 0 {
				if last := out[len(out)-1]; last != ' ' && last != '[' && last != '(' {
					out = append(out, ' ')
				}
			}
			out = append(out, c)
			if c == '"' || c == '\'' {
				quote = c
			}
		}
		space = false
	}
	trim()
	return string(out)
}
