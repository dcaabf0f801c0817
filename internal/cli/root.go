// Package cli wires the analysis packages into the codelens command line.
//
// Every command writes exactly one JSON document to stdout. Diagnostics go to
// stderr or the configured log file so stdout stays machine-readable.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mvp-joe/codelens/internal/config"
	"github.com/mvp-joe/codelens/internal/discovery"
	"github.com/mvp-joe/codelens/internal/output"
)

// errExit signals that a command already emitted its error object.
var errExit = errors.New("exit status 1")

// app carries per-invocation state shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer

	cfgFile     string
	verbose     bool
	workers     int
	maxFileSize int64
	closeLog    func() error
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		cfg:    config.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout: stdout,
		stderr: stderr,
	}
}

// NewRootCmd builds the command tree writing results to stdout and
// diagnostics to stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return newRootCmd(newApp(stdout, stderr))
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "codelens",
		Short: "Structural change analysis for code review",
		Long: `codelens inspects source files and reports, as JSON on stdout:

  diff       functions, types and imports changed between two versions of a file
  callgraph  who calls whom across a batch of files, with optional impact analysis
  dataflow   untrusted input reaching dangerous operations, and possibly-absent values

Configuration is read from --config, else .codelens.yaml in the working
directory or $HOME. Environment variables prefixed CODELENS_ override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./.codelens.yaml, then $HOME/.codelens.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().IntVar(&a.workers, "workers", 0, "files analyzed concurrently (default from config, 0 = one per CPU)")
	rootCmd.PersistentFlags().Int64Var(&a.maxFileSize, "max-file-size", 0, "skip files larger than this many bytes (default from config)")
	rootCmd.SetGlobalNormalizationFunc(underscoreToDash)

	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.AddCommand(
		newDiffCmd(a),
		newCallGraphCmd(a),
		newDataFlowCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// underscoreToDash lets --max_file_size spell the same flag as --max-file-size.
func underscoreToDash(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// setup loads configuration and installs the logger.
func (a *app) setup() error {
	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	if a.workers > 0 {
		cfg.Analysis.Workers = a.workers
	}
	if a.maxFileSize > 0 {
		cfg.Analysis.MaxFileSize = a.maxFileSize
	}
	a.cfg = cfg

	logger, closeLog, err := newLogger(cfg.Log, a.verbose, a.stderr)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closeLog = closeLog
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		"config_file", a.cfgFile,
		"workers", cfg.Analysis.Workers,
		"max_file_size", cfg.Analysis.MaxFileSize)
	return nil
}

// teardown flushes and closes the log file, if any.
func (a *app) teardown() error {
	if a.closeLog == nil {
		return nil
	}
	err := a.closeLog()
	a.closeLog = nil
	return err
}

// emit writes v as the command's single JSON document. failed turns the
// invocation into exit status 1 without printing anything else.
func (a *app) emit(v any, failed bool) error {
	if err := output.WriteJSON(a.stdout, v); err != nil {
		return err
	}
	if failed {
		return errExit
	}
	return nil
}

// expandPaths resolves arguments to absolute paths, expanding directories
// with the language's source globs minus the configured ignore globs.
func (a *app) expandPaths(lang string, args []string) ([]string, error) {
	fd, err := discovery.NewFileDiscovery(discovery.LanguagePatterns(lang), a.cfg.Paths.Ignore)
	if err != nil {
		return nil, err
	}
	files, err := fd.Expand(args)
	if err != nil {
		return nil, err
	}
	for i, f := range files {
		if abs, err := filepath.Abs(f); err == nil {
			files[i] = abs
		}
	}
	return files, nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			_ = output.WriteJSON(stdout, output.ErrorResult{Error: fmt.Sprintf("internal error: %v", r)})
			code = 1
		}
	}()

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	a := newApp(stdout, stderr)
	defer a.teardown()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if !errors.Is(err, errExit) {
		_ = output.WriteJSON(stdout, output.ErrorResult{Error: err.Error()})
	}
	return 1
}
