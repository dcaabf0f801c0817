package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/codelens/internal/dataflow"
)

func newDataFlowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dataflow <language> <file|dir>...",
		Short: "Trace untrusted input to dangerous operations",
		Long: `Dataflow matches known input sources (request bodies, query strings, headers,
environment, files, databases, external APIs) and dangerous sinks (SQL,
command execution, responses, templates, redirects, file writes, logging),
links those that share a function scope and an assignment chain, grades each
flow's risk, and flags bindings that may hold no value.

Languages:
  python      Python (Flask, Django, FastAPI)
  typescript  TypeScript/JavaScript (Express, Node, Koa, Deno, Bun)

Examples:
  codelens dataflow python app/
  codelens dataflow typescript src/server.ts src/routes.ts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDataFlow(cmd.Context(), strings.ToLower(args[0]), args[1:])
		},
	}
}

func (a *app) runDataFlow(ctx context.Context, language string, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("data flow analysis panicked", "language", language, "panic", r)
			err = a.emit(&dataflow.Result{Error: fmt.Sprintf("internal error: %v", r)}, true)
		}
	}()

	analyzer, err := dataflow.NewAnalyzer(language,
		dataflow.WithWorkers(a.cfg.Analysis.Workers),
		dataflow.WithMaxFileSize(a.cfg.Analysis.MaxFileSize),
		dataflow.WithLogger(a.logger))
	if errors.Is(err, dataflow.ErrUnsupportedLanguage) {
		msg := fmt.Sprintf("Unknown language '%s'. Use '%s'.", language, strings.Join(dataflow.Languages(), "' or '"))
		return a.emit(&dataflow.Result{Error: msg}, true)
	}
	if err != nil {
		return a.emit(&dataflow.Result{Error: err.Error()}, true)
	}

	if len(args) == 0 {
		return a.emit(&dataflow.Result{Error: "No files specified"}, true)
	}

	files, err := a.expandPaths(language, args)
	if err != nil {
		return a.emit(&dataflow.Result{Error: err.Error()}, true)
	}
	if len(files) == 0 {
		return a.emit(&dataflow.Result{Error: noValidFilesMessage}, true)
	}

	result, err := analyzer.Analyze(ctx, files)
	if errors.Is(err, dataflow.ErrNoValidFiles) {
		return a.emit(result, true)
	}
	if err != nil {
		return a.emit(&dataflow.Result{Error: err.Error()}, true)
	}
	return a.emit(result, false)
}
