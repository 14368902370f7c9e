package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVParser parses sources from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed sources.
// Expected columns: title, authority_level, language, plus optional id,
// publisher, url, credibility, year.
func (p *CSVParser) Parse(r io.Reader) ([]RawSource, error) {
	reader := csv.NewReader(r)

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[col] = i
	}

	requiredCols := []string{"title", "authority_level", "language"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawSources.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawSource, error) {
	var sources []RawSource
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		source, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}

	return sources, nil
}

// parseRecord converts a CSV record to a RawSource.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawSource, error) {
	source := RawSource{
		ID:        getColumn(record, colIndex, "id"),
		Title:     getColumn(record, colIndex, "title"),
		Publisher: getColumn(record, colIndex, "publisher"),
		URL:       getColumn(record, colIndex, "url"),
		Authority: getColumn(record, colIndex, "authority_level"),
		Language:  getColumn(record, colIndex, "language"),
		LineNum:   lineNum,
	}

	credStr := getColumn(record, colIndex, "credibility")
	if credStr != "" {
		cred, err := strconv.Atoi(credStr)
		if err != nil {
			return RawSource{}, fmt.Errorf("line %d: invalid credibility value %q: %w", lineNum, credStr, err)
		}
		source.Credibility = &cred
	}

	yearStr := getColumn(record, colIndex, "year")
	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return RawSource{}, fmt.Errorf("line %d: invalid year value %q: %w", lineNum, yearStr, err)
		}
		source.Year = year
	}

	return source, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
