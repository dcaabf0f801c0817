package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for WriteJSON:
// - Output is indented and newline terminated
// - omitempty fields are dropped, zero counts without omitempty are kept
// - Empty objects are written compactly, at the top level and nested
// - Writer failures are wrapped

type sample struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags,omitempty"`
	Count int      `json:"count"`
	Flag  bool     `json:"flag,omitempty"`
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample{Name: "a"}))
	assert.Equal(t, "{\n  \"name\": \"a\",\n  \"count\": 0\n}\n", buf.String())
}

func TestWriteJSON_EmptyObject(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, struct{}{}))
	assert.Equal(t, "{}\n", buf.String())

	buf.Reset()
	nested := struct {
		Inner struct{} `json:"inner"`
		Text  string   `json:"text"`
	}{Text: "{\n\n}"}
	require.NoError(t, WriteJSON(&buf, nested))
	assert.Equal(t, "{\n  \"inner\": {},\n  \"text\": \"{\\n\\n}\"\n}\n", buf.String())
}

func TestWriteJSON_ErrorResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, ErrorResult{Error: "boom"}))
	assert.JSONEq(t, `{"error":"boom"}`, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriteJSON_WriterError(t *testing.T) {
	t.Parallel()

	err := WriteJSON(failingWriter{}, sample{})
	assert.ErrorContains(t, err, "failed to write result")
}
