package graph

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Extractor:
// - Nested function bodies are excluded from the enclosing function's call sites
// - Deny-listed builtins never appear as targets
// - Attribute chains resolve to dotted targets with is_method set
// - Subscript and chained calls produce placeholder targets
// - Unresolvable receivers fall back to the bare attribute name
// - Methods and nested functions are qualified by the innermost class
// - Decorator calls belong to the decorated function
// - Missing, oversized and unparseable files yield no functions

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func extract(t *testing.T, source string) []FunctionNode {
	t.Helper()
	path := writeFile(t, t.TempDir(), "mod.py", source)
	nodes, err := NewExtractor().ExtractFile(context.Background(), path)
	require.NoError(t, err)
	return nodes
}

func findNode(nodes []FunctionNode, name string) *FunctionNode {
	for i := range nodes {
		if nodes[i].Name == name {
			return &nodes[i]
		}
	}
	return nil
}

func targets(node *FunctionNode) []string {
	var result []string
	for _, cs := range node.CallSites {
		result = append(result, cs.Target)
	}
	return result
}

func TestExtractor_NestedScopesNotDoubleCounted(t *testing.T) {
	t.Parallel()

	nodes := extract(t, `def outer():
    outer_call()

    def inner():
        inner_call()

    after_inner_call()
`)

	outer := findNode(nodes, "outer")
	inner := findNode(nodes, "inner")
	require.NotNil(t, outer)
	require.NotNil(t, inner)

	assert.ElementsMatch(t, []string{"outer_call", "after_inner_call"}, targets(outer))
	assert.Equal(t, []string{"inner_call"}, targets(inner))
}

func TestExtractor_DecoratedNestedFunctionExcluded(t *testing.T) {
	t.Parallel()

	nodes := extract(t, `def outer():
    @retry(times=3)
    def inner():
        inner_call()
    outer_call()
`)

	outer := findNode(nodes, "outer")
	inner := findNode(nodes, "inner")
	require.NotNil(t, outer)
	require.NotNil(t, inner)

	assert.Equal(t, []string{"outer_call"}, targets(outer))
	assert.Equal(t, []string{"retry", "inner_call"}, targets(inner))
}

func TestExtractor_BuiltinFiltering(t *testing.T) {
	t.Parallel()

	nodes := extract(t, `def work(items):
    print(len(items))
    data = dict(a=1)
    isinstance(data, dict)
    self.logger.print("x")
    process(items)
`)

	work := findNode(nodes, "work")
	require.NotNil(t, work)
	require.Len(t, work.CallSites, 1)
	assert.Equal(t, "process", work.CallSites[0].Target)
	assert.Equal(t, 6, work.CallSites[0].Line)
	assert.Equal(t, 5, work.CallSites[0].Column)
	assert.False(t, work.CallSites[0].IsMethod)
}

func TestExtractor_TargetResolution(t *testing.T) {
	t.Parallel()

	nodes := extract(t, `def run(self):
    self.repo.save(x)
    os.path.join("a", "b")
    handlers["k"]()
    factory()()
    "sep".join(parts)
    get_client().send()
    (helper)()
`)

	run := findNode(nodes, "run")
	require.NotNil(t, run)

	assert.Equal(t, []string{
		"self.repo.save",
		"os.path.join",
		TargetSubscript,
		TargetChained,
		"factory",
		"join",
		"send",
		"get_client",
		"helper",
	}, targets(run))

	byTarget := make(map[string]CallSite)
	for _, cs := range run.CallSites {
		byTarget[cs.Target] = cs
	}
	assert.True(t, byTarget["self.repo.save"].IsMethod)
	assert.True(t, byTarget["join"].IsMethod)
	assert.False(t, byTarget["factory"].IsMethod)
	assert.False(t, byTarget[TargetSubscript].IsMethod)
}

func TestExtractor_ClassQualification(t *testing.T) {
	t.Parallel()

	nodes := extract(t, `class Service:
    @cached(ttl=5)
    def load(self):
        def parse():
            decode()
        return parse()

    class Inner:
        def go(self):
            pass

def free():
    pass
`)

	var names []string
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Service.load", "Service.parse", "Inner.go", "free"}, names)

	load := findNode(nodes, "Service.load")
	require.NotNil(t, load)
	assert.Equal(t, []string{"cached", "parse"}, targets(load))
	assert.Equal(t, 3, load.Line)
	assert.Equal(t, 6, load.EndLine)
}

func TestExtractor_SkippedFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	nodes, err := NewExtractor().ExtractFile(ctx, filepath.Join(dir, "missing.py"))
	require.NoError(t, err)
	assert.Empty(t, nodes)

	broken := writeFile(t, dir, "broken.py", "def broken(:\n    pass\n")
	nodes, err = NewExtractor().ExtractFile(ctx, broken)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	legacy := writeFile(t, dir, "legacy.py", "def shout():\n    print 'hi'\n    helper()\n")
	nodes, err = NewExtractor().ExtractFile(ctx, legacy)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	big := writeFile(t, dir, "big.py", "def f():\n    g()\n"+strings.Repeat("# pad\n", 100))
	nodes, err = newExtractorWithLimit(32).ExtractFile(ctx, big)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
