// Package report formats the plugin's top-level JSON output envelopes.
package report

import (
	"encoding/json"
	"fmt"
	"io"
)

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteSuccess writes a {"status":"success","data":...} envelope,
// pretty-printed.
func WriteSuccess(w io.Writer, data any) error {
	out, err := json.MarshalIndent(envelope{Status: "success", Data: data}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling success output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// WriteError writes a single-line {"status":"error","message":...} envelope.
func WriteError(w io.Writer, message string) error {
	out, err := json.Marshal(envelope{Status: "error", Message: message})
	if err != nil {
		return fmt.Errorf("marshaling error output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
