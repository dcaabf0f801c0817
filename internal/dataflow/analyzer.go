// Package dataflow links untrusted input sources to dangerous sinks using
// per-language pattern tables, and flags bindings that may hold no value.
package dataflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/mvp-joe/codelens/internal/batch"
	"github.com/mvp-joe/codelens/internal/parsers"
)

// DefaultMaxFileSize is the size above which files are skipped.
const DefaultMaxFileSize = 10 * 1024 * 1024

var (
	// ErrUnsupportedLanguage is returned for languages without pattern tables.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrNoValidFiles is returned when none of the given files could be read.
	ErrNoValidFiles = errors.New("no valid files to analyze")
)

// NoValidFilesMessage is the error text reported in a Result when nothing could be read.
const NoValidFilesMessage = "No valid files to analyze"

var tables = map[string]*patternTable{
	parsers.LangPython:     pythonTable,
	parsers.LangTypeScript: typescriptTable,
}

// Languages lists the supported language tags.
func Languages() []string {
	return []string{parsers.LangPython, parsers.LangTypeScript}
}

// Analyzer runs the taint analysis for one language.
type Analyzer struct {
	language    string
	table       *patternTable
	maxFileSize int64
	workers     int
	logger      *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxFileSize sets the size above which files are skipped.
func WithMaxFileSize(bytes int64) Option {
	return func(a *Analyzer) {
		if bytes > 0 {
			a.maxFileSize = bytes
		}
	}
}

// WithWorkers bounds the number of files scanned concurrently.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithLogger sets the logger used for skipped files.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer returns an analyzer for language ("python" or "typescript").
func NewAnalyzer(language string, opts ...Option) (*Analyzer, error) {
	table, ok := tables[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	a := &Analyzer{
		language:    language,
		table:       table,
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// fileScan is the per-file outcome of the parallel phase.
type fileScan struct {
	ok        bool
	detection detection
	scoped    *scopedFile
}

// Analyze scans files and links their sources and sinks.
//
// Missing, unreadable, oversized and non-UTF-8 files are skipped. If files is
// non-empty and none can be read, the result carries NoValidFilesMessage and
// ErrNoValidFiles is returned alongside it.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Result, error) {
	result := &Result{}
	if len(files) == 0 {
		return result, nil
	}

	scans, err := batch.Map(ctx, files, a.workers, func(_ context.Context, _ int, path string) (fileScan, error) {
		return a.scanFile(path), nil
	})
	if err != nil {
		return nil, fmt.Errorf("data flow analysis cancelled: %w", err)
	}

	seen := make(map[string]bool)
	valid := 0
	for _, scan := range scans {
		if !scan.ok {
			continue
		}
		valid++
		result.Sources = append(result.Sources, scan.detection.sources...)
		result.Sinks = append(result.Sinks, scan.detection.sinks...)
		result.Flows = append(result.Flows, a.table.trackFlows(scan.scoped, scan.detection, seen)...)
		result.NilSources = append(result.NilSources, scan.detection.nils...)
	}

	if valid == 0 {
		result.Error = NoValidFilesMessage
		return result, ErrNoValidFiles
	}

	a.logger.Debug("data flow analysis complete",
		"language", a.language,
		"files", valid,
		"sources", len(result.Sources),
		"sinks", len(result.Sinks),
		"flows", len(result.Flows))
	return result, nil
}

// AnalyzeSource scans one in-memory file.
func (a *Analyzer) AnalyzeSource(path string, source []byte) *Result {
	scan := a.scanSource(path, source)
	return &Result{
		Sources:    scan.detection.sources,
		Sinks:      scan.detection.sinks,
		Flows:      a.table.trackFlows(scan.scoped, scan.detection, make(map[string]bool)),
		NilSources: scan.detection.nils,
	}
}

func (a *Analyzer) scanFile(path string) fileScan {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("skipping unreadable file", "file", path, "error", err)
		}
		return fileScan{}
	}
	if !info.Mode().IsRegular() {
		return fileScan{}
	}
	if info.Size() > a.maxFileSize {
		a.logger.Debug("skipping oversized file", "file", path, "size", info.Size())
		return fileScan{}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		a.logger.Warn("skipping unreadable file", "file", path, "error", err)
		return fileScan{}
	}
	if !utf8.Valid(content) {
		a.logger.Debug("skipping non-UTF-8 file", "file", path)
		return fileScan{}
	}
	return a.scanSource(path, content)
}

func (a *Analyzer) scanSource(path string, content []byte) fileScan {
	lines := splitLines(string(content))

	spans, err := parsers.FunctionSpans(a.language, content)
	if err != nil {
		// Without spans every line shares the module scope.
		a.logger.Debug("scope extraction failed", "file", path, "error", err)
		spans = nil
	}

	return fileScan{
		ok:        true,
		detection: a.table.detect(path, lines),
		scoped:    newScopedFile(lines, spans),
	}
}
