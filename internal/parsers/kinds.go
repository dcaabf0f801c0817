package parsers

import sitter "github.com/tree-sitter/go-tree-sitter"

// NodeKind is the closed set of Python syntax-node categories the analyzers
// distinguish. Every tree-sitter node maps to exactly one kind.
type NodeKind int

const (
	KindOther NodeKind = iota
	KindModule
	KindFunction
	KindLambda
	KindClass
	KindDecorated
	KindDecorator
	KindImport
	KindImportFrom
	KindFutureImport
	KindAliasedImport
	KindDottedName
	KindRelativeImport
	KindWildcardImport
	KindCall
	KindIdentifier
	KindAttribute
	KindSubscript
	KindAssignment
	KindExpressionStatement
	KindTypedParameter
	KindDefaultParameter
	KindTypedDefaultParameter
	KindListSplat
	KindDictSplat
	KindKeywordSeparator
	KindPositionalSeparator
	KindAsync
	KindLegacyStatement
	KindError
)

var kindNames = map[string]NodeKind{
	"module":                   KindModule,
	"function_definition":      KindFunction,
	"lambda":                   KindLambda,
	"class_definition":         KindClass,
	"decorated_definition":     KindDecorated,
	"decorator":                KindDecorator,
	"import_statement":         KindImport,
	"import_from_statement":    KindImportFrom,
	"future_import_statement":  KindFutureImport,
	"aliased_import":           KindAliasedImport,
	"dotted_name":              KindDottedName,
	"relative_import":          KindRelativeImport,
	"wildcard_import":          KindWildcardImport,
	"call":                     KindCall,
	"identifier":               KindIdentifier,
	"attribute":                KindAttribute,
	"subscript":                KindSubscript,
	"assignment":               KindAssignment,
	"expression_statement":     KindExpressionStatement,
	"typed_parameter":          KindTypedParameter,
	"default_parameter":        KindDefaultParameter,
	"typed_default_parameter":  KindTypedDefaultParameter,
	"list_splat_pattern":       KindListSplat,
	"dictionary_splat_pattern": KindDictSplat,
	"keyword_separator":        KindKeywordSeparator,
	"positional_separator":     KindPositionalSeparator,
	"async":                    KindAsync,
	"print_statement":          KindLegacyStatement,
	"exec_statement":           KindLegacyStatement,
	"ERROR":                    KindError,
}

// Classify maps a tree-sitter node to its NodeKind.
func Classify(node *sitter.Node) NodeKind {
	if node == nil {
		return KindOther
	}
	if node.IsError() {
		return KindError
	}
	if kind, ok := kindNames[node.Kind()]; ok {
		return kind
	}
	return KindOther
}

// IsAsync reports whether a function_definition carries the async keyword.
func IsAsync(fn *sitter.Node) bool {
	for i := 0; i < int(fn.ChildCount()); i++ {
		child := fn.Child(uint(i))
		switch Classify(child) {
		case KindAsync:
			return true
		case KindIdentifier:
			// The name comes after any modifier.
			return false
		}
	}
	return false
}

// UnwrapDecorated returns the definition inside a decorated_definition along
// with its decorator nodes. Other nodes are returned unchanged.
func UnwrapDecorated(node *sitter.Node) (*sitter.Node, []*sitter.Node) {
	if Classify(node) != KindDecorated {
		return node, nil
	}
	var decorators []*sitter.Node
	for _, child := range namedChildren(node) {
		if Classify(child) == KindDecorator {
			decorators = append(decorators, child)
		}
	}
	return node.ChildByFieldName("definition"), decorators
}
