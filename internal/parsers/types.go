package parsers

// Param is one positional parameter of a function signature.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// FunctionSignature describes a function or method found in a source file.
type FunctionSignature struct {
	Name       string   // Qualified name ("Type.method" for methods, bare otherwise)
	Params     []Param  // Ordered positional parameters
	Returns    []string // Zero or one return annotation; empty means unannotated
	IsAsync    bool
	Decorators []string // Ordered decorator names
	IsExported bool     // Name does not start with "_"
	StartLine  int      // 1-indexed
	EndLine    int      // 1-indexed, inclusive
	BodyHash   string   // sha256 over the literal lines [StartLine, EndLine]
}

// Field is one annotated attribute declared in a type body.
type Field struct {
	Name string
	Type string
}

// TypeDefinition describes a class found in a source file.
type TypeDefinition struct {
	Name        string
	IsValueType bool    // Decorated as a dataclass
	Fields      []Field // Ordered, unique by name
	Methods     []string
	IsExported  bool
	StartLine   int
	EndLine     int
}

// Field returns the field with the given name.
func (t *TypeDefinition) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ImportEdge is one imported module or symbol.
type ImportEdge struct {
	Path  string // Dotted module path, or "module.symbol" for from-imports
	Alias string // Empty when not aliased
}

// SourceUnit is the semantic model of one parsed file.
//
// Functions, types and imports keep first-definition order; a later definition
// with the same key replaces the earlier value in place.
type SourceUnit struct {
	Path      string
	Functions []FunctionSignature
	Types     []TypeDefinition
	Imports   []ImportEdge
	Error     string // Set when the file could not be parsed; the unit is otherwise empty

	funcIndex   map[string]int
	typeIndex   map[string]int
	importIndex map[string]int
}

// NewSourceUnit creates an empty unit for the given path.
func NewSourceUnit(path string) *SourceUnit {
	return &SourceUnit{
		Path:        path,
		Functions:   []FunctionSignature{},
		Types:       []TypeDefinition{},
		Imports:     []ImportEdge{},
		funcIndex:   make(map[string]int),
		typeIndex:   make(map[string]int),
		importIndex: make(map[string]int),
	}
}

// errorUnit creates a unit that carries only a parse error.
func errorUnit(path, msg string) *SourceUnit {
	u := NewSourceUnit(path)
	u.Error = msg
	return u
}

// AddFunction registers fn under its qualified name.
func (u *SourceUnit) AddFunction(fn FunctionSignature) {
	u.ensureIndexes()
	if i, ok := u.funcIndex[fn.Name]; ok {
		u.Functions[i] = fn
		return
	}
	u.funcIndex[fn.Name] = len(u.Functions)
	u.Functions = append(u.Functions, fn)
}

// AddType registers t under its name.
func (u *SourceUnit) AddType(t TypeDefinition) {
	u.ensureIndexes()
	if i, ok := u.typeIndex[t.Name]; ok {
		u.Types[i] = t
		return
	}
	u.typeIndex[t.Name] = len(u.Types)
	u.Types = append(u.Types, t)
}

// AddImport registers imp under its path.
func (u *SourceUnit) AddImport(imp ImportEdge) {
	u.ensureIndexes()
	if i, ok := u.importIndex[imp.Path]; ok {
		u.Imports[i] = imp
		return
	}
	u.importIndex[imp.Path] = len(u.Imports)
	u.Imports = append(u.Imports, imp)
}

// Function looks up a function by qualified name.
func (u *SourceUnit) Function(name string) (*FunctionSignature, bool) {
	u.ensureIndexes()
	i, ok := u.funcIndex[name]
	if !ok {
		return nil, false
	}
	return &u.Functions[i], true
}

// Type looks up a type by name.
func (u *SourceUnit) Type(name string) (*TypeDefinition, bool) {
	u.ensureIndexes()
	i, ok := u.typeIndex[name]
	if !ok {
		return nil, false
	}
	return &u.Types[i], true
}

// HasImport reports whether an import with the given path exists.
func (u *SourceUnit) HasImport(path string) bool {
	u.ensureIndexes()
	_, ok := u.importIndex[path]
	return ok
}

// ensureIndexes rebuilds lookup maps for units built as struct literals.
func (u *SourceUnit) ensureIndexes() {
	if u.funcIndex != nil && len(u.funcIndex) == len(u.Functions) &&
		u.typeIndex != nil && len(u.typeIndex) == len(u.Types) &&
		u.importIndex != nil && len(u.importIndex) == len(u.Imports) {
		return
	}
	u.funcIndex = make(map[string]int, len(u.Functions))
	for i, fn := range u.Functions {
		u.funcIndex[fn.Name] = i
	}
	u.typeIndex = make(map[string]int, len(u.Types))
	for i, t := range u.Types {
		u.typeIndex[t.Name] = i
	}
	u.importIndex = make(map[string]int, len(u.Imports))
	for i, imp := range u.Imports {
		u.importIndex[imp.Path] = i
	}
}
