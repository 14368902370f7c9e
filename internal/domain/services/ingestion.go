package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
)

const (
	// DefaultChunkSize is the default size for document chunks.
	DefaultChunkSize = 2000
	// DefaultChunkOverlap is the default overlap between chunks.
	DefaultChunkOverlap = 200
)

// IngestRequest describes one document to ingest for a source.
type IngestRequest struct {
	SourceID    string
	DocumentURL string
	Title       string
	Author      string
	PublishedAt time.Time
	Language    entities.Language
}

// IngestionService turns raw document content into retrievable chunks: it
// archives the raw bytes, splits the text, embeds each chunk and stores the
// result in both the vector and relational stores.
//
// Every write is an upsert keyed deterministically by document URL and chunk
// index, so a retried ingestion job repeats safely without duplicating
// documents.
type IngestionService struct {
	embedder ports.Embedder
	vectorDB ports.VectorDB
	db       ports.RelationalDB
	blobs    ports.BlobStore // nil when archival is disabled
}

// NewIngestionService creates a new ingestion service. blobs may be nil to
// skip raw-document archival.
func NewIngestionService(embedder ports.Embedder, vectorDB ports.VectorDB, db ports.RelationalDB, blobs ports.BlobStore) *IngestionService {
	return &IngestionService{
		embedder: embedder,
		vectorDB: vectorDB,
		db:       db,
		blobs:    blobs,
	}
}

// Ingest processes raw content for a source and returns the number of chunks
// stored. On success the source is marked VERIFIED.
func (s *IngestionService) Ingest(ctx context.Context, req IngestRequest, content []byte) (int, error) {
	source, err := s.db.FindSourceByID(ctx, req.SourceID)
	if err != nil {
		return 0, fmt.Errorf("loading source: %w", err)
	}

	if s.blobs != nil {
		if err := s.blobs.Upload(ctx, blobKey(req), content, map[string]string{
			"source_id": req.SourceID,
			"title":     req.Title,
			"url":       req.DocumentURL,
		}); err != nil {
			return 0, fmt.Errorf("archiving raw document: %w", err)
		}
	}

	chunks := ChunkText(string(content), DefaultChunkSize, DefaultChunkOverlap)

	embeddings, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embedding document chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	docs := make([]entities.Document, 0, len(chunks))
	for i, chunk := range chunks {
		title := req.Title
		if len(chunks) > 1 {
			title = fmt.Sprintf("%s (part %d)", req.Title, i+1)
		}
		docs = append(docs, entities.Document{
			ID:          chunkID(req.DocumentURL, i),
			SourceID:    req.SourceID,
			Title:       title,
			Content:     chunk,
			Embedding:   embeddings[i],
			Language:    req.Language,
			PublishedAt: req.PublishedAt,
		})
	}

	for i := range docs {
		if err := s.db.SaveDocumentRecord(ctx, &docs[i]); err != nil {
			return 0, fmt.Errorf("saving document record: %w", err)
		}
	}

	// The source is verified by ingestion, so denormalize the final status
	// into the vector payload before writing the points.
	source.Status = entities.SourceVerified
	if err := s.vectorDB.SaveDocumentBatch(ctx, docs, *source); err != nil {
		return 0, fmt.Errorf("saving document vectors: %w", err)
	}

	if err := s.db.UpdateSourceStatus(ctx, req.SourceID, entities.SourceVerified); err != nil {
		return 0, fmt.Errorf("verifying source: %w", err)
	}
	_ = s.db.LogAction(ctx, "source.verified", req.SourceID, map[string]any{
		"documents": len(docs),
		"url":       req.DocumentURL,
	})

	return len(docs), nil
}

// chunkID derives a stable document ID from the URL and chunk index so
// re-ingesting the same document upserts instead of duplicating.
func chunkID(documentURL string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%d", documentURL, index)).String()
}

// blobKey derives a stable object key for the raw document archive.
func blobKey(req IngestRequest) string {
	sum := sha256.Sum256([]byte(req.DocumentURL))
	return fmt.Sprintf("sources/%s/%s", req.SourceID, hex.EncodeToString(sum[:8]))
}

// ChunkText splits text into chunks of roughly chunkSize runes on paragraph
// boundaries, carrying overlap runes between chunks so context is not lost at
// the seams. Sizes are measured in runes, not bytes: the corpus is largely
// Arabic and French, and a byte split could land inside a multibyte rune.
func ChunkText(text string, chunkSize int, overlap int) []string {
	if utf8.RuneCountInString(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	paragraphs := strings.Split(text, "\n\n")

	var current strings.Builder
	currentLen := 0
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paraLen := utf8.RuneCountInString(para)

		if currentLen+paraLen+2 > chunkSize && currentLen > 0 {
			chunks = append(chunks, current.String())

			carry := overlapText(current.String(), overlap)
			current.Reset()
			current.WriteString(carry)
			currentLen = utf8.RuneCountInString(carry)
		}

		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(para)
		currentLen += paraLen
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	if len(chunks) == 0 && len(text) > 0 {
		chunks = append(chunks, text)
	}

	return chunks
}

// overlapText returns the last n runes of text.
func overlapText(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
