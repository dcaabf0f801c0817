package graph

import (
	"path/filepath"
	"strings"
)

// IsTestFunction reports whether a qualified function name looks like a test.
// Only the bare name after the last dot is inspected.
func IsTestFunction(name string) bool {
	base := bareName(name)
	return strings.HasPrefix(base, "test_") ||
		strings.HasPrefix(base, "Test") ||
		strings.HasSuffix(base, "_test")
}

// IsTestFile reports whether a path looks like a Python test file.
func IsTestFile(path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(slashed)
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return true
	}

	segments := strings.Split(filepath.ToSlash(filepath.Dir(slashed)), "/")
	for _, segment := range segments {
		if segment == "test" || segment == "tests" {
			return true
		}
	}
	return false
}

// bareName returns the part of a dotted name after the last dot.
func bareName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
