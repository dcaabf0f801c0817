package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/codelens/internal/parsers"
	"github.com/mvp-joe/codelens/internal/semdiff"
)

const diffUsage = `usage: codelens diff --before <path> --after <path> (use "" for a created or deleted file)`

func newDiffCmd(a *app) *cobra.Command {
	var before, after string

	cmd := &cobra.Command{
		Use:   "diff [--before <path>] [--after <path>] [before] [after]",
		Short: "Diff the functions, types and imports of two versions of a Python file",
		Long: `Diff parses both versions of a Python file and reports which functions,
types and imports were added, removed or modified.

Pass "" (or '') as either path for a file that was created or deleted.
Positional arguments fill --before first, then --after.

Examples:
  codelens diff --before old/service.py --after new/service.py
  codelens diff --before "" --after new/service.py
  codelens diff old/service.py new/service.py`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				switch {
				case before == "":
					before = arg
				case after == "":
					after = arg
				}
			}
			return a.runDiff(cmd.Context(), emptyMarker(before), emptyMarker(after))
		},
	}

	cmd.Flags().StringVar(&before, "before", "", "path to the before version of the file")
	cmd.Flags().StringVar(&after, "after", "", "path to the after version of the file")
	return cmd
}

// emptyMarker maps the literal "" and '' markers to an empty path.
func emptyMarker(path string) string {
	if path == `""` || path == `''` {
		return ""
	}
	return path
}

func (a *app) runDiff(ctx context.Context, before, after string) (err error) {
	filePath := after
	if filePath == "" {
		filePath = before
	}
	failure := func(msg string) error {
		return a.emit(&semdiff.SemanticDiff{Language: parsers.LangPython, FilePath: filePath, Error: msg}, true)
	}

	if before == "" && after == "" {
		return failure(diffUsage)
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("semantic diff panicked", "file", filePath, "panic", r)
			err = failure(fmt.Sprintf("internal error: %v", r))
		}
	}()

	diff := semdiff.Extract(ctx, parsers.NewPythonParser(), before, after)
	a.logger.Debug("semantic diff complete",
		"file", diff.FilePath,
		"functions", len(diff.Functions),
		"types", len(diff.Types),
		"imports", len(diff.Imports))
	return a.emit(diff, false)
}
