package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/faults"
	"github.com/bobibcgroup/qadim/internal/domain/services"
	"github.com/bobibcgroup/qadim/internal/queue"
)

// maxDocumentBytes caps how much of a fetched document is read.
const maxDocumentBytes = 10 << 20

// DocumentFetcher retrieves raw document content by URL.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches documents over HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the document at url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

// IngestHandler processes document-ingestion jobs: fetch, chunk, embed and
// store, then verify the source.
type IngestHandler struct {
	ingestion *services.IngestionService
	fetcher   DocumentFetcher
	logger    *zap.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(ingestion *services.IngestionService, fetcher DocumentFetcher, logger *zap.Logger) *IngestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestHandler{
		ingestion: ingestion,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// Handle runs one document-ingestion job. Malformed payloads are fatal; fetch
// and store failures are retryable. The whole pipeline is idempotent, so a
// retry redoes all steps safely.
func (h *IngestHandler) Handle(ctx context.Context, job *entities.Job) error {
	var payload queue.IngestPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return faults.Fatal(fmt.Errorf("unmarshaling ingest payload: %w", err))
	}
	if payload.SourceID == "" || payload.DocumentURL == "" {
		return faults.Fatal(fmt.Errorf("ingest payload missing source_id or document_url"))
	}

	content, err := h.fetcher.Fetch(ctx, payload.DocumentURL)
	if err != nil {
		return fmt.Errorf("fetching document: %w", err)
	}

	var publishedAt time.Time
	if payload.Metadata.PublishedAt != "" {
		publishedAt, err = time.Parse(time.RFC3339, payload.Metadata.PublishedAt)
		if err != nil {
			return faults.Fatal(fmt.Errorf("parsing published_at %q: %w", payload.Metadata.PublishedAt, err))
		}
	}

	chunks, err := h.ingestion.Ingest(ctx, services.IngestRequest{
		SourceID:    payload.SourceID,
		DocumentURL: payload.DocumentURL,
		Title:       payload.Metadata.Title,
		Author:      payload.Metadata.Author,
		PublishedAt: publishedAt,
		Language:    payload.Metadata.Language,
	}, content)
	if err != nil {
		return err
	}

	h.logger.Info("document ingested",
		zap.String("job_id", job.ID),
		zap.String("source_id", payload.SourceID),
		zap.Int("chunks", chunks))
	return nil
}
