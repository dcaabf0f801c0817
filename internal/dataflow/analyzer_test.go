package dataflow

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Analyzer:
// - A source reaches a sink through an assignment chain inside one function
// - Sinks in another function are never linked
// - Sinks using an unrelated variable are never linked
// - Same-line source and sink pairs are always linked
// - Module-level code forms its own scope
// - Sanitizers on the sink line mark the flow and downgrade risk to info
// - Nil sources name the assigned variable and honor the non-null assertion
// - TypeScript arrow-function handlers scope their flows
// - A callback opening mid-line does not pull the rest of the line into its scope
// - Unsupported languages, empty input and unreadable inputs are reported
// - Oversized files are skipped silently; a batch of only oversized files has no valid files

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func analyze(t *testing.T, language string, files ...string) *Result {
	t.Helper()
	a, err := NewAnalyzer(language, WithWorkers(2))
	require.NoError(t, err)
	result, err := a.Analyze(context.Background(), files)
	require.NoError(t, err)
	return result
}

const commandPy = `from flask import request
import subprocess

def run():
    cmd = request.args.get("cmd")
    full = "ls " + cmd
    subprocess.run(full, shell=True)

def other():
    subprocess.run(x)
`

func TestAnalyzer_AssignmentChainFlow(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "app.py", commandPy)
	result := analyze(t, "python", path)

	require.Len(t, result.Sources, 1)
	source := result.Sources[0]
	assert.Equal(t, Source{
		SourceType: SourceHTTPQuery,
		Variable:   "cmd",
		File:       path,
		Line:       5,
		Column:     11,
		Pattern:    "request.args.get",
	}, source)

	require.Len(t, result.Sinks, 2)
	assert.Equal(t, 7, result.Sinks[0].Line)
	assert.Equal(t, "    subprocess.run(full, shell=True)", result.Sinks[0].Context)
	assert.Equal(t, 10, result.Sinks[1].Line)

	require.Len(t, result.Flows, 1)
	flow := result.Flows[0]
	assert.Equal(t, RiskCritical, flow.Risk)
	assert.Equal(t, 7, flow.Sink.Line)
	assert.Equal(t, []string{"cmd", "full"}, flow.Path)
	assert.False(t, flow.Sanitized)
	assert.Len(t, flow.ID, 16)
	assert.Equal(t, hashFlow(flow.Source, flow.Sink), flow.ID)

	require.Len(t, result.NilSources, 1)
	assert.Equal(t, NilSource{
		Variable: "cmd",
		File:     path,
		Line:     5,
		Column:   23,
		Pattern:  ".get() without default",
		Reason:   "map_lookup",
	}, result.NilSources[0])
}

func TestAnalyzer_UnrelatedVariableNotLinked(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "app.py", `import os

def handler():
    name = request.args.get("name")
    other = "static"
    os.system(other)
`)
	result := analyze(t, "python", path)

	assert.Len(t, result.Sources, 1)
	assert.Len(t, result.Sinks, 1)
	assert.Empty(t, result.Flows)
}

func TestAnalyzer_SameLineAlwaysLinked(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "app.py", "def f():\n    os.system(request.args.get(\"c\"))\n")
	result := analyze(t, "python", path)

	require.Len(t, result.Flows, 1)
	assert.Equal(t, RiskCritical, result.Flows[0].Risk)
	assert.Equal(t, []string{"args"}, result.Flows[0].Path)
}

func TestAnalyzer_ModuleScope(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "settings.py", `import os
token = os.getenv("TOKEN")
print(token)
`)
	result := analyze(t, "python", path)

	require.Len(t, result.Flows, 1)
	flow := result.Flows[0]
	assert.Equal(t, SourceEnvVar, flow.Source.SourceType)
	assert.Equal(t, SinkLogging, flow.Sink.SinkType)
	assert.Equal(t, RiskLow, flow.Risk)
	assert.Equal(t, []string{"token"}, flow.Path)
}

func TestAnalyzer_SourceAfterSinkNotLinked(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "app.py", `def f():
    print(token)
    token = os.getenv("TOKEN")
`)
	result := analyze(t, "python", path)

	assert.Len(t, result.Sources, 1)
	assert.Len(t, result.Sinks, 1)
	assert.Empty(t, result.Flows)
}

func TestAnalyzer_Sanitized(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "app.py", `def run():
    cmd = request.args.get("cmd")
    subprocess.run(SHLEX.QUOTE(cmd))
`)
	result := analyze(t, "python", path)

	require.Len(t, result.Flows, 1)
	flow := result.Flows[0]
	assert.True(t, flow.Sanitized)
	assert.Equal(t, `shlex\.quote`, flow.Sanitizer)
	assert.Equal(t, RiskInfo, flow.Risk)
}

func TestAnalyzer_TypeScriptHandler(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "server.ts", `import { exec } from "child_process";

app.post("/run", (req, res) => {
  const cmd = req.query.cmd;
  exec(cmd);
  res.send("ok");
});
`)
	result := analyze(t, "typescript", path)

	require.Len(t, result.Flows, 1)
	flow := result.Flows[0]
	assert.Equal(t, SourceHTTPQuery, flow.Source.SourceType)
	assert.Equal(t, "cmd", flow.Source.Variable)
	assert.Equal(t, SinkCommandExec, flow.Sink.SinkType)
	assert.Equal(t, 5, flow.Sink.Line)
	assert.Equal(t, RiskCritical, flow.Risk)
}

func TestAnalyzer_CallbackOnSinkLine(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "users.ts", `app.get("/users", (req, res) => {
  const q = req.query.name;
  db.query(`+"`SELECT ${q}`"+`).then(rows => res.send(rows));
});
`)
	result := analyze(t, "typescript", path)

	var critical []Flow
	for _, flow := range result.Flows {
		if flow.Source.SourceType == SourceHTTPQuery {
			assert.NotEqual(t, SinkHTTPResponse, flow.Sink.SinkType, "callback body is a separate scope")
			if flow.Sink.SinkType == SinkDatabase {
				critical = append(critical, flow)
			}
		}
	}
	require.Len(t, critical, 1)
	assert.Equal(t, RiskCritical, critical[0].Risk)
	assert.Equal(t, 3, critical[0].Sink.Line)
	assert.Equal(t, []string{"q"}, critical[0].Path)
}

func TestAnalyzer_LambdaArgumentOnSinkLine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	plain := writeFile(t, dir, "plain.py", `def search():
    data = request.args.get("q")
    cursor.execute(f"select {data}")
`)
	withLambda := writeFile(t, dir, "lambda.py", `def search():
    data = request.args.get("q")
    cursor.execute(f"select {data}", callback=lambda r: r)
`)

	want := analyze(t, "python", plain)
	got := analyze(t, "python", withLambda)

	require.NotEmpty(t, want.Flows)
	require.Len(t, got.Flows, len(want.Flows))
	var tainted []Flow
	for _, flow := range got.Flows {
		if flow.Source.SourceType == SourceHTTPQuery {
			tainted = append(tainted, flow)
		}
	}
	require.Len(t, tainted, 1)
	assert.Equal(t, SinkDatabase, tainted[0].Sink.SinkType)
	assert.Equal(t, RiskCritical, tainted[0].Risk)
	assert.Equal(t, []string{"data"}, tainted[0].Path)
}

func TestAnalyzer_TypeScriptNilSources(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "cache.ts", "const cached = cache.get(key);\nconst forced = cache.get(key)!;\n")
	result := analyze(t, "typescript", path)

	require.Len(t, result.NilSources, 2)
	assert.Equal(t, "cached", result.NilSources[0].Variable)
	assert.Equal(t, "map_lookup", result.NilSources[0].Reason)
	assert.Equal(t, 1, result.NilSources[0].Line)
	assert.Equal(t, "forced", result.NilSources[1].Variable)
	assert.Equal(t, "non_null_assertion", result.NilSources[1].Reason)
	assert.Equal(t, 2, result.NilSources[1].Line)
}

func TestAnalyzer_DeduplicatesRepeatedFiles(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "app.py", commandPy)
	result := analyze(t, "python", path, path)

	assert.Len(t, result.Sources, 2)
	assert.Len(t, result.Flows, 1)
}

func TestNewAnalyzer_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	_, err := NewAnalyzer("cobol")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestAnalyzer_NoValidFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	big := writeFile(t, dir, "big.py", "x = 1\n# padding padding padding\n")
	binary := writeFile(t, dir, "bin.py", "x = '\xff\xfe'\n")

	a, err := NewAnalyzer("python", WithMaxFileSize(8))
	require.NoError(t, err)

	result, err := a.Analyze(context.Background(), []string{filepath.Join(dir, "missing.py"), dir, big, binary})
	assert.ErrorIs(t, err, ErrNoValidFiles)
	require.NotNil(t, result)
	assert.Equal(t, NoValidFilesMessage, result.Error)

	empty, err := a.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Result{}, empty)
}

func TestAnalyzer_MaxFileSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	small := writeFile(t, dir, "small.py", "token = os.getenv(\"T\")\n")
	big := writeFile(t, dir, "big.py", "secret = os.getenv(\"S\")\n"+strings.Repeat("# padding\n", 20))

	a, err := NewAnalyzer("python", WithMaxFileSize(64))
	require.NoError(t, err)

	result, err := a.Analyze(context.Background(), []string{big, small})
	require.NoError(t, err)
	assert.Empty(t, result.Error)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, small, result.Sources[0].File)
	assert.Equal(t, "token", result.Sources[0].Variable)

	onlyBig, err := a.Analyze(context.Background(), []string{big})
	assert.ErrorIs(t, err, ErrNoValidFiles)
	require.NotNil(t, onlyBig)
	assert.Equal(t, NoValidFilesMessage, onlyBig.Error)
	assert.Empty(t, onlyBig.Sources)
	assert.Empty(t, onlyBig.Flows)
}

func TestAnalyzer_Cancelled(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "app.py", commandPy)
	a, err := NewAnalyzer("python")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Analyze(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
}
