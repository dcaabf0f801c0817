package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Impact:
// - Direct callers match the resolved called_by list
// - Transitive callers follow caller chains through several hops
// - Recursion and cycles terminate and never list the function itself
// - Test callers are reported as affected tests
// - Aggregate counts are distinct across reports
// - Uncalled functions report nothing

func TestCallGraph_Impact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	app := writeFile(t, dir, "app.py", `def core():
    core()

def service():
    core()

def handler():
    service()

def ping():
    pong()

def pong():
    ping()
`)
	tests := writeFile(t, dir, "test_app.py", `def test_handler():
    handler()

def helper_check():
    service()
`)

	cg, err := NewBuilder().Build(context.Background(), []string{app, tests}, nil)
	require.NoError(t, err)

	analysis := cg.Impact([]string{"core"})
	require.Len(t, analysis.Functions, 1)

	report := analysis.Functions[0]
	assert.Equal(t, "core", report.Function)
	assert.Equal(t, app, report.File)
	assert.Equal(t, []CallerInfo{
		{Function: "core", File: app, Line: 2},
		{Function: "service", File: app, Line: 5},
	}, report.DirectCallers)
	assert.Equal(t, []string{"handler", "helper_check", "service", "test_handler"}, report.TransitiveCallers)
	assert.Equal(t, []string{"helper_check", "test_handler"}, report.AffectedTests)

	assert.Equal(t, 2, analysis.DirectCallers)
	assert.Equal(t, 4, analysis.TransitiveCallers)
	assert.Equal(t, 2, analysis.AffectedTests)
}

func TestCallGraph_ImpactCycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "cycle.py", "def ping():\n    pong()\n\ndef pong():\n    ping()\n\ndef alone():\n    pass\n")

	cg, err := NewBuilder().Build(context.Background(), []string{path}, nil)
	require.NoError(t, err)

	analysis := cg.Impact(nil)
	require.Len(t, analysis.Functions, 3)

	assert.Equal(t, []string{"pong"}, analysis.Functions[0].TransitiveCallers)
	assert.Equal(t, []string{"ping"}, analysis.Functions[1].TransitiveCallers)
	assert.Empty(t, analysis.Functions[2].DirectCallers)
	assert.Empty(t, analysis.Functions[2].TransitiveCallers)
	assert.Empty(t, analysis.Functions[2].AffectedTests)
}
