package graph

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/codelens/internal/parsers"
)

// DefaultMaxFileSize is the size above which files are skipped (10 MiB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// builtinCalls are dropped at extraction. Matching uses the last dotted segment,
// so "self.print" and "print" are both dropped.
var builtinCalls = map[string]bool{
	"print":      true,
	"len":        true,
	"str":        true,
	"int":        true,
	"float":      true,
	"list":       true,
	"dict":       true,
	"set":        true,
	"tuple":      true,
	"range":      true,
	"enumerate":  true,
	"zip":        true,
	"map":        true,
	"filter":     true,
	"sorted":     true,
	"reversed":   true,
	"isinstance": true,
	"issubclass": true,
	"hasattr":    true,
	"getattr":    true,
	"setattr":    true,
	"delattr":    true,
	"type":       true,
	"super":      true,
	"open":       true,
	"input":      true,
}

// Extractor extracts function nodes and their call sites from Python files.
type Extractor interface {
	// ExtractFile returns every function in the file with its outgoing call sites.
	// Missing, oversized and unparseable files yield no functions and no error.
	ExtractFile(ctx context.Context, filePath string) ([]FunctionNode, error)
}

// pythonExtractor implements Extractor using tree-sitter.
type pythonExtractor struct {
	maxFileSize int64
}

// NewExtractor creates a call-site extractor for Python files.
func NewExtractor() Extractor {
	return &pythonExtractor{maxFileSize: DefaultMaxFileSize}
}

// newExtractorWithLimit creates an extractor with a custom size ceiling.
func newExtractorWithLimit(maxFileSize int64) Extractor {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &pythonExtractor{maxFileSize: maxFileSize}
}

// ExtractFile extracts function nodes from a Python source file.
func (e *pythonExtractor) ExtractFile(ctx context.Context, filePath string) ([]FunctionNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() || info.Size() > e.maxFileSize {
		return nil, nil
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil
	}

	return extractSource(filePath, source)
}

// extractSource walks the syntax tree of source in document order.
func extractSource(filePath string, source []byte) ([]FunctionNode, error) {
	var functions []FunctionNode

	err := parsers.WithTree(parsers.LangPython, source, func(root *sitter.Node) error {
		if parsers.SyntaxErrorLine(root) != 0 {
			return nil
		}
		v := &visitor{file: filePath, source: source}
		v.visit(root)
		functions = v.functions
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	return functions, nil
}

// visitor records functions while tracking the enclosing class stack.
type visitor struct {
	file       string
	source     []byte
	classStack []string
	functions  []FunctionNode
}

func (v *visitor) visit(node *sitter.Node) {
	switch parsers.Classify(node) {
	case parsers.KindClass:
		name := parsers.NodeText(node.ChildByFieldName("name"), v.source)
		v.classStack = append(v.classStack, name)
		v.visitChildren(node)
		v.classStack = v.classStack[:len(v.classStack)-1]
		return

	case parsers.KindFunction:
		v.functions = append(v.functions, v.functionNode(node))
	}

	v.visitChildren(node)
}

func (v *visitor) visitChildren(node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		v.visit(node.Child(i))
	}
}

// functionNode builds the node for a function_definition, qualified by the
// innermost enclosing class.
func (v *visitor) functionNode(fn *sitter.Node) FunctionNode {
	name := parsers.NodeText(fn.ChildByFieldName("name"), v.source)
	if len(v.classStack) > 0 {
		name = v.classStack[len(v.classStack)-1] + "." + name
	}

	node := FunctionNode{
		Name:    name,
		File:    v.file,
		Line:    parsers.StartLine(fn),
		EndLine: parsers.EndLine(fn),
	}

	// Decorators belong to the function they decorate.
	if parent := fn.Parent(); parsers.Classify(parent) == parsers.KindDecorated {
		for i := uint(0); i < parent.NamedChildCount(); i++ {
			if child := parent.NamedChild(i); parsers.Classify(child) == parsers.KindDecorator {
				node.CallSites = append(node.CallSites, v.callSites(child, fn)...)
			}
		}
	}
	node.CallSites = append(node.CallSites, v.callSites(fn, fn)...)

	return node
}

// callSites collects calls under node without descending into nested
// function definitions other than root.
func (v *visitor) callSites(node, root *sitter.Node) []CallSite {
	var sites []CallSite
	parsers.WalkTree(node, func(n *sitter.Node) bool {
		if !n.Equals(*root) && isNestedFunction(n) {
			return false
		}
		if parsers.Classify(n) == parsers.KindCall {
			if site, ok := v.callSite(n); ok {
				sites = append(sites, site)
			}
		}
		return true
	})
	return sites
}

// isNestedFunction reports whether n opens a function scope of its own,
// including a decorated function whose decorators belong to it.
func isNestedFunction(n *sitter.Node) bool {
	switch parsers.Classify(n) {
	case parsers.KindFunction:
		return true
	case parsers.KindDecorated:
		def, _ := parsers.UnwrapDecorated(n)
		return parsers.Classify(def) == parsers.KindFunction
	}
	return false
}

// callSite resolves one call expression. Deny-listed builtins are dropped.
func (v *visitor) callSite(call *sitter.Node) (CallSite, bool) {
	fn := unwrapParens(call.ChildByFieldName("function"))
	target, isMethod := v.callTarget(fn)
	if target == "" || builtinCalls[bareName(target)] {
		return CallSite{}, false
	}

	return CallSite{
		Target:   target,
		Line:     parsers.StartLine(call),
		Column:   parsers.Column(call),
		IsMethod: isMethod,
	}, true
}

// callTarget names the callee expression of a call.
func (v *visitor) callTarget(fn *sitter.Node) (string, bool) {
	switch parsers.Classify(fn) {
	case parsers.KindIdentifier:
		return parsers.NodeText(fn, v.source), false
	case parsers.KindAttribute:
		attr := parsers.NodeText(fn.ChildByFieldName("attribute"), v.source)
		if receiver := v.exprName(fn.ChildByFieldName("object")); receiver != "" {
			return receiver + "." + attr, true
		}
		return attr, true
	case parsers.KindSubscript:
		return TargetSubscript, false
	case parsers.KindCall:
		return TargetChained, false
	}
	return "", false
}

// exprName renders identifier and attribute chains; other receivers are unresolvable.
func (v *visitor) exprName(expr *sitter.Node) string {
	expr = unwrapParens(expr)
	switch parsers.Classify(expr) {
	case parsers.KindIdentifier:
		return parsers.NodeText(expr, v.source)
	case parsers.KindAttribute:
		attr := parsers.NodeText(expr.ChildByFieldName("attribute"), v.source)
		if receiver := v.exprName(expr.ChildByFieldName("object")); receiver != "" {
			return receiver + "." + attr
		}
		return attr
	}
	return ""
}

// unwrapParens strips redundant parentheses around an expression.
func unwrapParens(node *sitter.Node) *sitter.Node {
	for node != nil && node.Kind() == "parenthesized_expression" && node.NamedChildCount() == 1 {
		node = node.NamedChild(0)
	}
	return node
}
