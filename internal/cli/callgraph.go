package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/codelens/internal/dataflow"
	"github.com/mvp-joe/codelens/internal/graph"
	"github.com/mvp-joe/codelens/internal/parsers"
)

// noValidFilesMessage is reported when the arguments name no analyzable file.
const noValidFilesMessage = dataflow.NoValidFilesMessage

// callGraphOutput is the callgraph command's JSON document.
type callGraphOutput struct {
	Functions []graph.FunctionNode `json:"functions,omitempty"`
	Impact    *graph.ImpactAnalysis `json:"impact,omitempty"`
	Error     string                `json:"error,omitempty"`
}

type callGraphOptions struct {
	functions string
	impact    bool
	progress  bool
}

func newCallGraphCmd(a *app) *cobra.Command {
	var opts callGraphOptions

	cmd := &cobra.Command{
		Use:   "callgraph <file|dir>... [--functions f1,f2] [--impact]",
		Short: "Report function call relationships across Python files",
		Long: `Callgraph extracts every function's call sites from the given Python files
(directories are searched for *.py), then resolves which functions call which
across the whole batch.

Examples:
  codelens callgraph src/
  codelens callgraph app.py helpers.py --functions validate,UserService.save
  codelens callgraph src/ --functions save --impact`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCallGraph(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.functions, "functions", "", "comma-separated function names to report (qualified or bare)")
	cmd.Flags().BoolVar(&opts.impact, "impact", false, "add direct/transitive callers and affected tests for each reported function")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "show a progress bar on stderr")
	return cmd
}

// splitFunctions parses a comma-separated list, dropping blank entries.
func splitFunctions(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (a *app) runCallGraph(ctx context.Context, args []string, opts callGraphOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("call graph panicked", "panic", r)
			err = a.emit(callGraphOutput{Error: fmt.Sprintf("internal error: %v", r)}, true)
		}
	}()

	files, err := a.expandPaths(parsers.LangPython, args)
	if err != nil {
		return a.emit(callGraphOutput{Error: err.Error()}, true)
	}
	if len(files) == 0 {
		return a.emit(callGraphOutput{Error: noValidFilesMessage}, true)
	}

	builderOpts := []graph.BuilderOption{
		graph.WithWorkers(a.cfg.Analysis.Workers),
		graph.WithMaxFileSize(a.cfg.Analysis.MaxFileSize),
		graph.WithLogger(a.logger),
	}
	if opts.progress {
		builderOpts = append(builderOpts, graph.WithProgress(NewCLIProgressReporter(a.stderr)))
	}

	targets := splitFunctions(opts.functions)
	cg, err := graph.NewBuilder(builderOpts...).Build(ctx, files, targets)
	if errors.Is(err, graph.ErrNoValidFiles) {
		return a.emit(callGraphOutput{Error: noValidFilesMessage}, true)
	}
	if err != nil {
		return a.emit(callGraphOutput{Error: err.Error()}, true)
	}

	out := callGraphOutput{Functions: cg.Functions}
	if opts.impact {
		out.Impact = cg.Impact(targets)
	}
	return a.emit(out, false)
}
