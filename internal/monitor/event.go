package monitor

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/stavily/machine-data-extractor/internal/models"
)

// eventDelimiter frames trigger events printed to standard output so a
// consumer can find them in mixed output.
const eventDelimiter = "---------- TRIGGER EVENT ----------"

// writeEvent prints one trigger event as indented JSON framed above and
// below by the delimiter line.
func writeEvent(w io.Writer, ev models.TriggerEvent) error {
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling trigger event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n%s\n%s\n", eventDelimiter, data, eventDelimiter); err != nil {
		return fmt.Errorf("writing trigger event: %w", err)
	}
	return nil
}
