// Package output serializes analysis results.
package output

import (
	"fmt"
	"io"
	"regexp"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// emptyContainerRe matches the blank line jsoniter indents into empty objects
// and arrays. Raw newlines never occur inside encoded strings.
var emptyContainerRe = regexp.MustCompile(`([{\[])\n *\n *([}\]])`)

// WriteJSON writes v as two-space indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = emptyContainerRe.ReplaceAll(data, []byte("$1$2"))
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// ErrorResult is the single object emitted when nothing else can be produced.
type ErrorResult struct {
	Error string `json:"error"`
}
