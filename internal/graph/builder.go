package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mvp-joe/codelens/internal/batch"
)

// ErrNoValidFiles is returned when none of the requested files exist.
var ErrNoValidFiles = errors.New("no valid files to analyze")

// GraphProgressReporter reports progress during graph building.
// Calls are serialized by the builder.
type GraphProgressReporter interface {
	OnGraphBuildingStart(totalFiles int)
	OnGraphFileProcessed(processedFiles, totalFiles int, fileName string)
	OnGraphBuildingComplete(nodeCount, edgeCount int, duration time.Duration)
}

// Builder builds call graphs from Python source files.
type Builder struct {
	extractor   Extractor
	workers     int
	maxFileSize int64
	progress    GraphProgressReporter
	logger      *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithProgress configures progress reporting.
func WithProgress(progress GraphProgressReporter) BuilderOption {
	return func(b *Builder) {
		b.progress = progress
	}
}

// WithWorkers bounds the number of files extracted concurrently.
// Zero or less uses one worker per CPU.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithMaxFileSize sets the size above which files are skipped.
func WithMaxFileSize(bytes int64) BuilderOption {
	return func(b *Builder) {
		b.maxFileSize = bytes
	}
}

// WithLogger sets the logger used for per-file warnings.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// withExtractor replaces the extractor; used by tests.
func withExtractor(e Extractor) BuilderOption {
	return func(b *Builder) {
		b.extractor = e
	}
}

// NewBuilder creates a new call graph builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.extractor == nil {
		b.extractor = newExtractorWithLimit(b.maxFileSize)
	}
	return b
}

// Build extracts every file in parallel, then resolves callers across the
// whole batch. When targets is non-empty only functions whose qualified or
// bare name is in targets are reported; resolution still uses every function.
func (b *Builder) Build(ctx context.Context, files []string, targets []string) (*CallGraph, error) {
	startTime := time.Now()

	result := &CallGraph{Functions: []FunctionNode{}, callers: map[string][]CallerInfo{}}
	if len(files) == 0 {
		return result, nil
	}

	existing := existingFiles(files)
	if len(existing) == 0 {
		return result, ErrNoValidFiles
	}

	if b.progress != nil {
		b.progress.OnGraphBuildingStart(len(existing))
	}

	var mu sync.Mutex
	processed := 0
	perFile, err := batch.Map(ctx, existing, b.workers, func(ctx context.Context, _ int, file string) ([]FunctionNode, error) {
		nodes, err := b.extractor.ExtractFile(ctx, file)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.Warn("failed to extract call graph", "file", file, "error", err)
			nodes = nil
		}

		if b.progress != nil {
			mu.Lock()
			processed++
			b.progress.OnGraphFileProcessed(processed, len(existing), filepath.Base(file))
			mu.Unlock()
		}
		return nodes, nil
	})
	if err != nil {
		return nil, fmt.Errorf("call graph extraction cancelled: %w", err)
	}

	// Global barrier: every file has been extracted before resolution starts.
	var all []FunctionNode
	for _, nodes := range perFile {
		all = append(all, nodes...)
	}

	a := newArena(all)
	result.callers = a.resolveCallers()

	edgeCount := 0
	for _, callers := range result.callers {
		edgeCount += len(callers)
	}

	targetSet := make(map[string]bool, len(targets))
	for _, t := range targets {
		targetSet[t] = true
	}

	for _, node := range all {
		if len(targetSet) > 0 && !targetSet[node.Name] && !targetSet[bareName(node.Name)] {
			continue
		}
		node.CalledBy = result.callers[node.Name]
		node.IsTest = IsTestFunction(node.Name) || IsTestFile(node.File)
		result.Functions = append(result.Functions, node)
	}

	b.logger.Debug("call graph built",
		"files", len(existing),
		"functions", len(all),
		"edges", edgeCount,
		"duration", time.Since(startTime))

	if b.progress != nil {
		b.progress.OnGraphBuildingComplete(len(all), edgeCount, time.Since(startTime))
	}

	return result, nil
}

// existingFiles keeps the paths that name regular files, in order.
func existingFiles(files []string) []string {
	var existing []string
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.IsDir() {
			continue
		}
		existing = append(existing, f)
	}
	return existing
}
