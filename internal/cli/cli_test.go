package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/codelens/internal/dataflow"
	"github.com/mvp-joe/codelens/internal/output"
	"github.com/mvp-joe/codelens/internal/semdiff"
)

// Test Plan for the command line:
// - diff reports added functions; positional and "" markers are accepted
// - diff with no paths prints a usage error object and exits 1
// - callgraph resolves callers across files and directories
// - callgraph --functions filters, --impact adds the impact section
// - callgraph with no existing files exits 1 with "No valid files to analyze"
// - a directory holding no source files for the language exits 1 the same way
// - dataflow reports flows; unknown language and missing files exit 1
// - invalid configuration is reported as an error object
// - version prints build metadata as JSON
// - a log file configured in the config receives records with a run_id

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the command line against a private config file.
func run(t *testing.T, configYAML string, args ...string) (int, []byte) {
	t.Helper()
	if configYAML == "" {
		configYAML = "log:\n  level: error\n"
	}
	cfgPath := writeFile(t, t.TempDir(), "codelens.yaml", configYAML)

	var stdout, stderr bytes.Buffer
	code := execute(append([]string{"--config", cfgPath}, args...), &stdout, &stderr)
	return code, stdout.Bytes()
}

func TestDiffCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	before := writeFile(t, dir, "before.py", "def keep():\n    return 1\n")
	after := writeFile(t, dir, "after.py", "def keep():\n    return 1\n\ndef fresh():\n    pass\n")

	code, out := run(t, "", "diff", "--before", before, "--after", after)
	require.Equal(t, 0, code, string(out))

	var diff semdiff.SemanticDiff
	require.NoError(t, json.Unmarshal(out, &diff))
	assert.Equal(t, "python", diff.Language)
	assert.Equal(t, after, diff.FilePath)
	require.Len(t, diff.Functions, 1)
	assert.Equal(t, "fresh", diff.Functions[0].Name)
	assert.Equal(t, semdiff.ChangeAdded, diff.Functions[0].ChangeType)
	assert.Equal(t, 1, diff.Summary.FunctionsAdded)
}

func TestDiffCommand_PositionalWithEmptyMarker(t *testing.T) {
	t.Parallel()

	after := writeFile(t, t.TempDir(), "new.py", "def created():\n    pass\n")

	code, out := run(t, "", "diff", `""`, after)
	require.Equal(t, 0, code, string(out))

	var diff semdiff.SemanticDiff
	require.NoError(t, json.Unmarshal(out, &diff))
	assert.Equal(t, after, diff.FilePath)
	assert.Equal(t, 1, diff.Summary.FunctionsAdded)
}

func TestDiffCommand_NoPaths(t *testing.T) {
	t.Parallel()

	code, out := run(t, "", "diff", "--before", "''")
	assert.Equal(t, 1, code)

	var diff semdiff.SemanticDiff
	require.NoError(t, json.Unmarshal(out, &diff))
	assert.Contains(t, diff.Error, "usage: codelens diff")
}

func TestCallGraphCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "pkg/helpers.py", "def validate(x):\n    return x\n")
	writeFile(t, dir, "pkg/service.py", "def save(x):\n    validate(x)\n")
	writeFile(t, dir, "pkg/tests/test_service.py", "def test_save():\n    save(1)\n")

	code, out := run(t, "", "callgraph", filepath.Join(dir, "pkg"), "--functions", " validate, ,save", "--impact")
	require.Equal(t, 0, code, string(out))

	var result callGraphOutput
	require.NoError(t, json.Unmarshal(out, &result))
	require.Len(t, result.Functions, 2)
	assert.Equal(t, "validate", result.Functions[0].Name)
	require.Len(t, result.Functions[0].CalledBy, 1)
	assert.Equal(t, "save", result.Functions[0].CalledBy[0].Function)
	assert.Equal(t, "save", result.Functions[1].Name)

	require.NotNil(t, result.Impact)
	require.Len(t, result.Impact.Functions, 2)
	assert.Equal(t, []string{"save", "test_save"}, result.Impact.Functions[0].TransitiveCallers)
	assert.Equal(t, []string{"test_save"}, result.Impact.Functions[0].AffectedTests)
	assert.Equal(t, 1, result.Impact.AffectedTests)
}

func TestCallGraphCommand_NoValidFiles(t *testing.T) {
	t.Parallel()

	code, out := run(t, "", "callgraph", filepath.Join(t.TempDir(), "missing.py"))
	assert.Equal(t, 1, code)
	assert.JSONEq(t, `{"error":"No valid files to analyze"}`, string(out))
}

func TestEmptyDirectory_NoValidFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# notes\n")

	tests := []struct {
		name string
		args []string
	}{
		{"callgraph", []string{"callgraph", dir}},
		{"dataflow", []string{"dataflow", "python", dir}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, out := run(t, "", tt.args...)
			assert.Equal(t, 1, code)
			assert.JSONEq(t, `{"error":"No valid files to analyze"}`, string(out))
		})
	}
}

func TestDataFlowCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "app.py", "def run():\n    cmd = request.args.get(\"cmd\")\n    os.system(cmd)\n")

	code, out := run(t, "", "dataflow", "PYTHON", dir)
	require.Equal(t, 0, code, string(out))

	var result dataflow.Result
	require.NoError(t, json.Unmarshal(out, &result))
	require.Len(t, result.Flows, 1)
	assert.Equal(t, dataflow.RiskCritical, result.Flows[0].Risk)
	assert.Empty(t, result.Error)
}

func TestDataFlowCommand_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown language", []string{"dataflow", "cobol", "x.cbl"}, "Unknown language 'cobol'. Use 'python' or 'typescript'."},
		{"no files", []string{"dataflow", "python"}, "No files specified"},
		{"no valid files", []string{"dataflow", "typescript", "/nonexistent/app.ts"}, dataflow.NoValidFilesMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, out := run(t, "", tt.args...)
			assert.Equal(t, 1, code)

			var result dataflow.Result
			require.NoError(t, json.Unmarshal(out, &result))
			assert.Equal(t, tt.want, result.Error)
		})
	}
}

func TestInvalidConfiguration(t *testing.T) {
	t.Parallel()

	code, out := run(t, "analysis:\n  workers: -2\n", "version")
	assert.Equal(t, 1, code)

	var result output.ErrorResult
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Contains(t, result.Error, "workers cannot be negative")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	code, out := run(t, "", "version")
	require.Equal(t, 0, code)

	var info versionInfo
	require.NoError(t, json.Unmarshal(out, &info))
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, dataflow.PatternTableVersion, info.PatternVersion)
}

func TestLogFile(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "logs", "codelens.log")
	code, _ := run(t, "log:\n  level: debug\n  file: "+logPath+"\n", "callgraph", filepath.Join(t.TempDir(), "none.py"))
	assert.Equal(t, 1, code)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id=")
}

func TestFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	big := writeFile(t, dir, "big.py", "def big():\n    pass\n")

	// The file exceeds the ceiling, so it contributes no functions.
	code, out := run(t, "", "--max_file_size", "4", "callgraph", big)
	require.Equal(t, 0, code, string(out))
	assert.JSONEq(t, `{}`, string(out))
}
