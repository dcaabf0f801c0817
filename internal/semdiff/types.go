package semdiff

import "github.com/mvp-joe/codelens/internal/parsers"

// ChangeType classifies a diff entry.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// Type kinds reported in TypeDiff.Kind.
const (
	KindClass     = "class"
	KindDataclass = "dataclass"
)

// Body-diff reasons, listed in the order they appear in FunctionDiff.BodyDiff.
const (
	ReasonParameters     = "parameters changed"
	ReasonReturnType     = "return type changed"
	ReasonAsync          = "async modifier changed"
	ReasonDecorators     = "decorators changed"
	ReasonImplementation = "implementation changed"
)

// FuncSig is the wire form of a function signature on one side of a diff.
type FuncSig struct {
	Params     []parsers.Param `json:"params,omitempty"`
	Returns    []string        `json:"returns,omitempty"`
	IsAsync    bool            `json:"is_async,omitempty"`
	Decorators []string        `json:"decorators,omitempty"`
	IsExported bool            `json:"is_exported,omitempty"`
	StartLine  int             `json:"start_line"`
	EndLine    int             `json:"end_line"`
}

// FunctionDiff is one added, removed or modified function.
type FunctionDiff struct {
	Name       string     `json:"name"`
	ChangeType ChangeType `json:"change_type"`
	Before     *FuncSig   `json:"before,omitempty"`
	After      *FuncSig   `json:"after,omitempty"`
	BodyDiff   string     `json:"body_diff,omitempty"` // Comma-separated reasons, modified entries only
}

// FieldDiff is one added, removed or retyped field of a matched type.
type FieldDiff struct {
	Name       string     `json:"name"`
	ChangeType ChangeType `json:"change_type"`
	OldType    string     `json:"old_type,omitempty"`
	NewType    string     `json:"new_type,omitempty"`
}

// TypeDiff is one added, removed or modified type.
type TypeDiff struct {
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	ChangeType ChangeType  `json:"change_type"`
	Fields     []FieldDiff `json:"fields,omitempty"`
	StartLine  int         `json:"start_line"`
	EndLine    int         `json:"end_line"`
}

// ImportDiff is one added or removed import.
type ImportDiff struct {
	Path       string     `json:"path"`
	Alias      string     `json:"alias,omitempty"`
	ChangeType ChangeType `json:"change_type"`
}

// ChangeSummary holds counts derived from the diff lists.
// Variable counts are always zero for Python and kept for schema compatibility.
type ChangeSummary struct {
	FunctionsAdded    int `json:"functions_added"`
	FunctionsRemoved  int `json:"functions_removed"`
	FunctionsModified int `json:"functions_modified"`
	TypesAdded        int `json:"types_added"`
	TypesRemoved      int `json:"types_removed"`
	TypesModified     int `json:"types_modified"`
	VariablesAdded    int `json:"variables_added"`
	VariablesRemoved  int `json:"variables_removed"`
	VariablesModified int `json:"variables_modified"`
	ImportsAdded      int `json:"imports_added"`
	ImportsRemoved    int `json:"imports_removed"`
}

// SemanticDiff is the structural diff of one file between two versions.
type SemanticDiff struct {
	Language  string         `json:"language"`
	FilePath  string         `json:"file_path"`
	Functions []FunctionDiff `json:"functions,omitempty"`
	Types     []TypeDiff     `json:"types,omitempty"`
	Imports   []ImportDiff   `json:"imports,omitempty"`
	Summary   ChangeSummary  `json:"summary"`
	Error     string         `json:"error,omitempty"`
}

// IsEmpty reports whether the diff carries no changes.
func (d *SemanticDiff) IsEmpty() bool {
	return len(d.Functions) == 0 && len(d.Types) == 0 && len(d.Imports) == 0
}
