// Package parsers provides parsers for bulk-importing sources from various
// formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawSource represents a source parsed from an external file before
// validation.
type RawSource struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Publisher   string `json:"publisher,omitempty"`
	URL         string `json:"url,omitempty"`
	Authority   string `json:"authority_level"`
	Credibility *int   `json:"credibility,omitempty"` // Pointer to distinguish 0 from unset
	Year        int    `json:"year,omitempty"`
	Language    string `json:"language"`
	LineNum     int    `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing sources from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawSource, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
