package parsers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonParser builds SourceUnits from Python files.
type PythonParser struct {
	logger *slog.Logger
}

// NewPythonParser creates a new Python parser.
func NewPythonParser() *PythonParser {
	return &PythonParser{logger: slog.Default()}
}

// ParseFile parses a Python source file into a SourceUnit.
//
// An empty path or a missing/unreadable file yields an empty unit, which models a
// file that does not exist in this version. Syntax errors are returned inside the
// unit; ParseFile never fails.
func (p *PythonParser) ParseFile(ctx context.Context, filePath string) *SourceUnit {
	if filePath == "" {
		return NewSourceUnit("")
	}
	if err := ctx.Err(); err != nil {
		return errorUnit(filePath, err.Error())
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("failed to read source file", "file", filePath, "error", err)
		}
		return NewSourceUnit(filePath)
	}

	return p.ParseSource(filePath, source)
}

// ParseSource parses in-memory Python source into a SourceUnit.
func (p *PythonParser) ParseSource(filePath string, source []byte) (unit *SourceUnit) {
	defer func() {
		if r := recover(); r != nil {
			unit = errorUnit(filePath, fmt.Sprintf("parse failure: %v", r))
		}
	}()

	lines := strings.Split(string(source), "\n")

	err := WithTree(LangPython, source, func(root *sitter.Node) error {
		if line := SyntaxErrorLine(root); line != 0 {
			unit = errorUnit(filePath, fmt.Sprintf("Syntax error: invalid syntax at line %d", line))
			return nil
		}

		unit = NewSourceUnit(filePath)
		p.collectImports(root, source, unit)
		p.extractStructure(root, source, lines, unit)
		return nil
	})
	if err != nil {
		return errorUnit(filePath, err.Error())
	}
	return unit
}

// collectImports walks every node and records import statements.
func (p *PythonParser) collectImports(root *sitter.Node, source []byte, unit *SourceUnit) {
	walkTree(root, func(n *sitter.Node) bool {
		switch Classify(n) {
		case KindImport:
			for _, name := range childrenByField(n, "name") {
				path, alias := importName(name, source)
				unit.AddImport(ImportEdge{Path: path, Alias: alias})
			}
			return false
		case KindImportFrom:
			module := fromModule(n.ChildByFieldName("module_name"), source)
			names := childrenByField(n, "name")
			if wildcard := findChildByType(n, "wildcard_import"); wildcard != nil {
				unit.AddImport(ImportEdge{Path: joinModule(module, "*")})
			}
			for _, name := range names {
				symbol, alias := importName(name, source)
				unit.AddImport(ImportEdge{Path: joinModule(module, symbol), Alias: alias})
			}
			return false
		case KindFutureImport:
			for _, name := range childrenByField(n, "name") {
				symbol, alias := importName(name, source)
				unit.AddImport(ImportEdge{Path: joinModule("__future__", symbol), Alias: alias})
			}
			return false
		}
		return true
	})
}

// importName splits a dotted_name or aliased_import into path and alias.
func importName(node *sitter.Node, source []byte) (string, string) {
	if Classify(node) == KindAliasedImport {
		return NodeText(node.ChildByFieldName("name"), source), NodeText(node.ChildByFieldName("alias"), source)
	}
	return NodeText(node, source), ""
}

// fromModule returns the module of a from-import with relative dots removed.
func fromModule(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if Classify(node) == KindRelativeImport {
		if dotted := findChildByType(node, "dotted_name"); dotted != nil {
			return NodeText(dotted, source)
		}
		return ""
	}
	return NodeText(node, source)
}

func joinModule(module, symbol string) string {
	if module == "" {
		return symbol
	}
	return module + "." + symbol
}

// extractStructure registers top-level functions and classes, plus class methods.
func (p *PythonParser) extractStructure(root *sitter.Node, source []byte, lines []string, unit *SourceUnit) {
	for _, child := range namedChildren(root) {
		def, decorators := UnwrapDecorated(child)
		if def == nil {
			continue
		}

		switch Classify(def) {
		case KindFunction:
			unit.AddFunction(p.extractFunction(def, decorators, source, lines, ""))
		case KindClass:
			p.extractClass(def, decorators, source, lines, unit)
		}
	}
}

// extractClass registers a class and its directly nested methods.
func (p *PythonParser) extractClass(node *sitter.Node, decorators []*sitter.Node, source []byte, lines []string, unit *SourceUnit) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := NodeText(nameNode, source)

	typeDef := TypeDefinition{
		Name:        name,
		IsValueType: isDataclass(decorators, source),
		Fields:      []Field{},
		Methods:     []string{},
		IsExported:  !strings.HasPrefix(name, "_"),
		StartLine:   StartLine(node),
		EndLine:     EndLine(node),
	}

	var methods []FunctionSignature
	for _, item := range namedChildren(node.ChildByFieldName("body")) {
		def, methodDecorators := UnwrapDecorated(item)
		if def == nil {
			continue
		}

		switch Classify(def) {
		case KindFunction:
			method := p.extractFunction(def, methodDecorators, source, lines, name)
			typeDef.Methods = append(typeDef.Methods, strings.TrimPrefix(method.Name, name+"."))
			methods = append(methods, method)
		case KindExpressionStatement:
			if field, ok := annotatedField(def, source); ok {
				addField(&typeDef, field)
			}
		}
	}

	unit.AddType(typeDef)
	for _, method := range methods {
		unit.AddFunction(method)
	}
}

// annotatedField recognizes "name: Type" and "name: Type = value" statements.
func annotatedField(stmt *sitter.Node, source []byte) (Field, bool) {
	children := namedChildren(stmt)
	if len(children) != 1 || Classify(children[0]) != KindAssignment {
		return Field{}, false
	}
	assign := children[0]
	left := assign.ChildByFieldName("left")
	typeNode := assign.ChildByFieldName("type")
	if typeNode == nil || Classify(left) != KindIdentifier {
		return Field{}, false
	}
	return Field{
		Name: NodeText(left, source),
		Type: normalizeAnnotation(NodeText(typeNode, source)),
	}, true
}

func addField(t *TypeDefinition, field Field) {
	for i := range t.Fields {
		if t.Fields[i].Name == field.Name {
			t.Fields[i].Type = field.Type
			return
		}
	}
	t.Fields = append(t.Fields, field)
}

// extractFunction builds the signature of a function_definition node.
func (p *PythonParser) extractFunction(node *sitter.Node, decorators []*sitter.Node, source []byte, lines []string, className string) FunctionSignature {
	name := NodeText(node.ChildByFieldName("name"), source)
	qualified := name
	if className != "" {
		qualified = className + "." + name
	}

	startLine := StartLine(node)
	endLine := EndLine(node)

	returns := []string{}
	if returnNode := node.ChildByFieldName("return_type"); returnNode != nil {
		returns = append(returns, normalizeAnnotation(NodeText(returnNode, source)))
	}

	return FunctionSignature{
		Name:       qualified,
		Params:     extractParams(node.ChildByFieldName("parameters"), source),
		Returns:    returns,
		IsAsync:    IsAsync(node),
		Decorators: decoratorNames(decorators, source),
		IsExported: !strings.HasPrefix(name, "_"),
		StartLine:  startLine,
		EndLine:    endLine,
		BodyHash:   hashLines(lines, startLine, endLine),
	}
}

// extractParams returns the positional-or-keyword parameters: those after a
// "/" separator and before the first "*", "*args" or "**kwargs".
func extractParams(params *sitter.Node, source []byte) []Param {
	result := []Param{}
	for _, param := range namedChildren(params) {
		switch Classify(param) {
		case KindIdentifier:
			result = append(result, Param{Name: NodeText(param, source)})
		case KindDefaultParameter:
			result = append(result, Param{Name: NodeText(param.ChildByFieldName("name"), source)})
		case KindTypedDefaultParameter:
			result = append(result, Param{
				Name: NodeText(param.ChildByFieldName("name"), source),
				Type: normalizeAnnotation(NodeText(param.ChildByFieldName("type"), source)),
			})
		case KindTypedParameter:
			inner := param.NamedChild(0)
			if k := Classify(inner); k == KindListSplat || k == KindDictSplat {
				return result
			}
			result = append(result, Param{
				Name: NodeText(inner, source),
				Type: normalizeAnnotation(NodeText(param.ChildByFieldName("type"), source)),
			})
		case KindListSplat, KindDictSplat, KindKeywordSeparator:
			return result
		case KindPositionalSeparator:
			// Positional-only parameters are not part of the signature.
			result = []Param{}
		}
	}
	return result
}

// decoratorNames renders decorators as names: @name, @name(...) and @a.b.
// Calls on attributes (@a.b(...)) are not named.
func decoratorNames(decorators []*sitter.Node, source []byte) []string {
	names := []string{}
	for _, dec := range decorators {
		expr := dec.NamedChild(0)
		switch Classify(expr) {
		case KindIdentifier:
			names = append(names, NodeText(expr, source))
		case KindCall:
			if fn := expr.ChildByFieldName("function"); Classify(fn) == KindIdentifier {
				names = append(names, NodeText(fn, source))
			}
		case KindAttribute:
			names = append(names, NodeText(expr, source))
		}
	}
	return names
}

// isDataclass reports whether a decorator list marks a dataclass.
func isDataclass(decorators []*sitter.Node, source []byte) bool {
	for _, dec := range decorators {
		expr := dec.NamedChild(0)
		if Classify(expr) == KindCall {
			expr = expr.ChildByFieldName("function")
		}
		switch Classify(expr) {
		case KindIdentifier, KindAttribute:
			text := NodeText(expr, source)
			if text == "dataclass" || text == "dataclasses.dataclass" {
				return true
			}
		}
	}
	return false
}

// hashLines hashes the literal source lines [startLine, endLine] (1-indexed).
func hashLines(lines []string, startLine, endLine int) string {
	sum := sha256.Sum256([]byte(extractLines(lines, startLine, endLine)))
	return hex.EncodeToString(sum[:])
}

// extractLines extracts source code lines from startLine to endLine (1-indexed).
func extractLines(lines []string, startLine, endLine int) string {
	if startLine < 1 || endLine < 1 || startLine > len(lines) {
		return ""
	}

	start := startLine - 1
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}
