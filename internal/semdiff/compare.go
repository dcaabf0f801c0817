package semdiff

import (
	"context"
	"slices"
	"strings"

	"github.com/mvp-joe/codelens/internal/parsers"
)

const languagePython = "python"

// Extract parses both versions of a Python file and diffs them.
// Either path may be empty to model a created or deleted file.
func Extract(ctx context.Context, parser *parsers.PythonParser, beforePath, afterPath string) *SemanticDiff {
	before := parser.ParseFile(ctx, beforePath)
	after := parser.ParseFile(ctx, afterPath)

	diff := Compare(before, after)
	diff.FilePath = afterPath
	if diff.FilePath == "" {
		diff.FilePath = beforePath
	}
	return diff
}

// Compare diffs two semantic models. A unit carrying a parse error yields an
// empty diff whose Error names the failing side.
func Compare(before, after *parsers.SourceUnit) *SemanticDiff {
	if before == nil {
		before = parsers.NewSourceUnit("")
	}
	if after == nil {
		after = parsers.NewSourceUnit("")
	}

	diff := &SemanticDiff{
		Language:  languagePython,
		FilePath:  after.Path,
		Functions: []FunctionDiff{},
		Types:     []TypeDiff{},
		Imports:   []ImportDiff{},
	}
	if diff.FilePath == "" {
		diff.FilePath = before.Path
	}

	var errs []string
	if before.Error != "" {
		errs = append(errs, "before: "+before.Error)
	}
	if after.Error != "" {
		errs = append(errs, "after: "+after.Error)
	}
	if len(errs) > 0 {
		diff.Error = strings.Join(errs, "; ")
		return diff
	}

	diff.Functions = compareFunctions(before, after)
	diff.Types = compareTypes(before, after)
	diff.Imports = compareImports(before, after)
	diff.Summary = Summarize(diff)
	return diff
}

func compareFunctions(before, after *parsers.SourceUnit) []FunctionDiff {
	diffs := []FunctionDiff{}

	for i := range before.Functions {
		old := &before.Functions[i]
		updated, ok := after.Function(old.Name)
		if !ok {
			diffs = append(diffs, FunctionDiff{
				Name:       old.Name,
				ChangeType: ChangeRemoved,
				Before:     toFuncSig(old),
			})
			continue
		}

		if reasons := functionChanges(old, updated); len(reasons) > 0 {
			diffs = append(diffs, FunctionDiff{
				Name:       old.Name,
				ChangeType: ChangeModified,
				Before:     toFuncSig(old),
				After:      toFuncSig(updated),
				BodyDiff:   strings.Join(reasons, ", "),
			})
		}
	}

	for i := range after.Functions {
		fn := &after.Functions[i]
		if _, ok := before.Function(fn.Name); !ok {
			diffs = append(diffs, FunctionDiff{
				Name:       fn.Name,
				ChangeType: ChangeAdded,
				After:      toFuncSig(fn),
			})
		}
	}

	return diffs
}

// functionChanges lists the body-diff reasons that apply, in fixed order.
func functionChanges(before, after *parsers.FunctionSignature) []string {
	var reasons []string
	if !slices.Equal(before.Params, after.Params) {
		reasons = append(reasons, ReasonParameters)
	}
	if !slices.Equal(before.Returns, after.Returns) {
		reasons = append(reasons, ReasonReturnType)
	}
	if before.IsAsync != after.IsAsync {
		reasons = append(reasons, ReasonAsync)
	}
	if !slices.Equal(before.Decorators, after.Decorators) {
		reasons = append(reasons, ReasonDecorators)
	}
	if before.BodyHash != after.BodyHash {
		reasons = append(reasons, ReasonImplementation)
	}
	return reasons
}

func toFuncSig(fn *parsers.FunctionSignature) *FuncSig {
	return &FuncSig{
		Params:     fn.Params,
		Returns:    fn.Returns,
		IsAsync:    fn.IsAsync,
		Decorators: fn.Decorators,
		IsExported: fn.IsExported,
		StartLine:  fn.StartLine,
		EndLine:    fn.EndLine,
	}
}

func compareTypes(before, after *parsers.SourceUnit) []TypeDiff {
	diffs := []TypeDiff{}

	for i := range before.Types {
		old := &before.Types[i]
		updated, ok := after.Type(old.Name)
		if !ok {
			diffs = append(diffs, TypeDiff{
				Name:       old.Name,
				Kind:       typeKind(old),
				ChangeType: ChangeRemoved,
				StartLine:  old.StartLine,
				EndLine:    old.EndLine,
			})
			continue
		}

		fields := compareFields(old, updated)
		if len(fields) > 0 || old.IsValueType != updated.IsValueType {
			diffs = append(diffs, TypeDiff{
				Name:       old.Name,
				Kind:       typeKind(updated),
				ChangeType: ChangeModified,
				Fields:     fields,
				StartLine:  updated.StartLine,
				EndLine:    updated.EndLine,
			})
		}
	}

	for i := range after.Types {
		t := &after.Types[i]
		if _, ok := before.Type(t.Name); !ok {
			diffs = append(diffs, TypeDiff{
				Name:       t.Name,
				Kind:       typeKind(t),
				ChangeType: ChangeAdded,
				StartLine:  t.StartLine,
				EndLine:    t.EndLine,
			})
		}
	}

	return diffs
}

func compareFields(before, after *parsers.TypeDefinition) []FieldDiff {
	var diffs []FieldDiff

	for _, field := range before.Fields {
		updated, ok := after.Field(field.Name)
		switch {
		case !ok:
			diffs = append(diffs, FieldDiff{Name: field.Name, ChangeType: ChangeRemoved, OldType: field.Type})
		case updated.Type != field.Type:
			diffs = append(diffs, FieldDiff{
				Name:       field.Name,
				ChangeType: ChangeModified,
				OldType:    field.Type,
				NewType:    updated.Type,
			})
		}
	}

	for _, field := range after.Fields {
		if _, ok := before.Field(field.Name); !ok {
			diffs = append(diffs, FieldDiff{Name: field.Name, ChangeType: ChangeAdded, NewType: field.Type})
		}
	}

	return diffs
}

func typeKind(t *parsers.TypeDefinition) string {
	if t.IsValueType {
		return KindDataclass
	}
	return KindClass
}

func compareImports(before, after *parsers.SourceUnit) []ImportDiff {
	diffs := []ImportDiff{}

	for _, imp := range before.Imports {
		if !after.HasImport(imp.Path) {
			diffs = append(diffs, ImportDiff{Path: imp.Path, Alias: imp.Alias, ChangeType: ChangeRemoved})
		}
	}
	for _, imp := range after.Imports {
		if !before.HasImport(imp.Path) {
			diffs = append(diffs, ImportDiff{Path: imp.Path, Alias: imp.Alias, ChangeType: ChangeAdded})
		}
	}

	return diffs
}

// Summarize counts the entries of each diff list by change type.
func Summarize(diff *SemanticDiff) ChangeSummary {
	var s ChangeSummary
	for _, f := range diff.Functions {
		switch f.ChangeType {
		case ChangeAdded:
			s.FunctionsAdded++
		case ChangeRemoved:
			s.FunctionsRemoved++
		case ChangeModified:
			s.FunctionsModified++
		}
	}
	for _, t := range diff.Types {
		switch t.ChangeType {
		case ChangeAdded:
			s.TypesAdded++
		case ChangeRemoved:
			s.TypesRemoved++
		case ChangeModified:
			s.TypesModified++
		}
	}
	for _, i := range diff.Imports {
		switch i.ChangeType {
		case ChangeAdded:
			s.ImportsAdded++
		case ChangeRemoved:
			s.ImportsRemoved++
		}
	}
	return s
}
