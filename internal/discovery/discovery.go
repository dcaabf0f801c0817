// Package discovery expands command-line path arguments into source files.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// languagePatterns maps a language tag to the globs its sources match.
var languagePatterns = map[string][]string{
	"python":     {"**/*.py"},
	"typescript": {"**/*.ts", "**/*.tsx"},
}

// LanguagePatterns returns the include globs for a language, or nil if unknown.
func LanguagePatterns(lang string) []string {
	return languagePatterns[lang]
}

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	// rootGlob is the pattern without a leading "**/", so "**/*.py" also
	// matches "main.py".
	rootGlob glob.Glob
}

func compile(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if simplified, ok := strings.CutPrefix(pattern, "**/"); ok {
			if sg, err := glob.Compile(simplified, '/'); err == nil {
				cp.rootGlob = sg
			}
		}
		compiled = append(compiled, cp)
	}
	return compiled, nil
}

// FileDiscovery expands directories with include globs and ignore rules.
type FileDiscovery struct {
	includePatterns []compiledPattern
	ignorePatterns  []compiledPattern
}

// NewFileDiscovery creates a new file discovery instance.
func NewFileDiscovery(includePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	include, err := compile(includePatterns)
	if err != nil {
		return nil, err
	}
	ignore, err := compile(ignorePatterns)
	if err != nil {
		return nil, err
	}
	return &FileDiscovery{includePatterns: include, ignorePatterns: ignore}, nil
}

// Expand replaces every directory argument with the matching files beneath
// it, in lexical order. Other arguments are passed through unchanged so that
// callers can report missing files themselves.
func (fd *FileDiscovery) Expand(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := fd.walk(arg)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func (fd *FileDiscovery) walk(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if fd.shouldIgnore(relPath + "/**") {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.shouldIgnore(relPath) {
			return nil
		}
		if matchesAnyPattern(relPath, fd.includePatterns) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	return matchesAnyPattern(relPath, fd.ignorePatterns)
}

func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
		if cp.rootGlob != nil && cp.rootGlob.Match(path) {
			return true
		}
	}
	return false
}
