package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

func TestCitedPositions(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		want    []int
	}{
		{"no markers", "The port opened in 1895.", []int{}},
		{"single marker", "The port opened in 1895 [1].", []int{1}},
		{"scan order", "First [2], then [1], then [3].", []int{2, 1, 3}},
		{"duplicates preserved", "Twice [1] cited [1].", []int{1, 1}},
		{"multi-digit", "See [12] for details.", []int{12}},
		{"non-numeric ignored", "Footnote [a] and [1].", []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CitedPositions(tt.summary))
		})
	}
}

func TestExtractCitations(t *testing.T) {
	candidates := []entities.Candidate{
		{
			Document:        entities.Document{SourceID: "s1", Content: "The Beirut port expansion began in 1890."},
			AuthorityLevel:  entities.AuthorityOfficial,
			Status:          entities.SourceVerified,
			SimilarityScore: 0.93,
		},
		{
			Document:       entities.Document{SourceID: "s2", Content: "Press coverage of the opening ceremony."},
			AuthorityLevel: entities.AuthorityPress,
			Status:         entities.SourceVerified,
		},
		{
			Document:       entities.Document{SourceID: "s3", Content: "A scholarly review of harbor trade."},
			AuthorityLevel: entities.AuthorityScholarly,
			Status:         entities.SourceVerified,
		},
	}

	t.Run("resolves markers against candidate order", func(t *testing.T) {
		citations := ExtractCitations("Work began in 1890 [1] and was reviewed later [3].", candidates)
		require.Len(t, citations, 2)

		assert.Equal(t, "s1", citations[0].SourceID)
		assert.Equal(t, entities.AuthorityOfficial, citations[0].AuthorityLevel)
		assert.Equal(t, 0.93, citations[0].Score)
		assert.Equal(t, "s3", citations[1].SourceID)
	})

	t.Run("out of range markers dropped silently", func(t *testing.T) {
		citations := ExtractCitations("See [5] and [0].", candidates)
		assert.Empty(t, citations)
	})

	t.Run("repeated marker produces one citation per occurrence", func(t *testing.T) {
		citations := ExtractCitations("Stated [2] and restated [2].", candidates)
		require.Len(t, citations, 2)
		assert.Equal(t, citations[0].SourceID, citations[1].SourceID)
	})

	t.Run("no markers yields empty non-nil slice", func(t *testing.T) {
		citations := ExtractCitations("No citations here.", candidates)
		assert.NotNil(t, citations)
		assert.Empty(t, citations)
	})
}

func TestSnippet_TruncatesLongContent(t *testing.T) {
	long := strings.Repeat("م", 350) // multi-byte runes, not bytes
	s := snippet(long)

	runes := []rune(s)
	assert.Len(t, runes, snippetLength+3)
	assert.True(t, strings.HasSuffix(s, "..."))

	short := snippet("brief")
	assert.Equal(t, "brief...", short)
}
