package services

import (
	"regexp"
	"strconv"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

// citationMarker matches bracket-style markers like [1] in generated text.
var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// snippetLength is how many runes of document content a citation carries.
const snippetLength = 200

// CitedPositions returns every 1-indexed marker found in the summary, in scan
// order. Duplicates are preserved; no range check is applied.
func CitedPositions(summary string) []int {
	matches := citationMarker.FindAllStringSubmatch(summary, -1)
	positions := make([]int, 0, len(matches))
	for _, m := range matches {
		pos, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		positions = append(positions, pos)
	}
	return positions
}

// ExtractCitations resolves bracket markers in the summary against the
// ordered candidate list handed to the generator. Markers are 1-indexed;
// out-of-range markers are dropped silently rather than failing the
// generation, and a marker repeated in the text produces one citation per
// occurrence, in scan order.
func ExtractCitations(summary string, candidates []entities.Candidate) []entities.Citation {
	citations := make([]entities.Citation, 0)
	for _, pos := range CitedPositions(summary) {
		idx := pos - 1
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		c := candidates[idx]
		citations = append(citations, entities.Citation{
			SourceID:       c.SourceID,
			Snippet:        snippet(c.Content),
			AuthorityLevel: c.AuthorityLevel,
			Status:         c.Status,
			Score:          c.SimilarityScore,
		})
	}
	return citations
}

// snippet truncates content to snippetLength runes with a trailing ellipsis.
func snippet(content string) string {
	runes := []rune(content)
	if len(runes) > snippetLength {
		runes = runes[:snippetLength]
	}
	return string(runes) + "..."
}
