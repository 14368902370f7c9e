package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses sources from JSON format.
type JSONParser struct{}

// Parse reads a JSON array from the reader and returns parsed sources.
func (p *JSONParser) Parse(r io.Reader) ([]RawSource, error) {
	var sources []RawSource

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&sources); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range sources {
		sources[i].LineNum = i + 1
	}

	return sources, nil
}
