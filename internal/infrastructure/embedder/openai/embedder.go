// Package openai provides an Embedder implementation using OpenAI.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/bobibcgroup/qadim/internal/infrastructure/config"
)

// VectorSize is the dimension of the default text-embedding-3-small model.
const VectorSize = 1536

// maxBatchInputs is OpenAI's per-request input cap for embedding calls.
const maxBatchInputs = 2048

// modelDimensions maps supported embedding models to their vector width. The
// vector collection is sized from this, so an unknown model is rejected at
// construction instead of failing on the first upsert.
var modelDimensions = map[openai.EmbeddingModel]uint64{
	openai.SmallEmbedding3: 1536,
	openai.LargeEmbedding3: 3072,
	openai.AdaEmbeddingV2:  1536,
}

// Embedder implements the Embedder interface using OpenAI.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions uint64
}

// NewEmbedder creates a new OpenAI embedder for the configured model.
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	model := openai.SmallEmbedding3
	if cfg.Model != "" {
		model = openai.EmbeddingModel(cfg.Model)
	}
	dimensions, ok := modelDimensions[model]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding model: %s", model)
	}

	return &Embedder{
		client:     openai.NewClient(cfg.APIKey),
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Dimensions returns the vector width of the configured model.
func (e *Embedder) Dimensions() uint64 {
	return e.dimensions
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}

	return embeddings[0], nil
}

// EmbedBatch generates vector embeddings for multiple texts, splitting the
// request when it exceeds the API's input cap. A large ingested document can
// chunk into more inputs than one call accepts.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchInputs {
		end := min(start+maxBatchInputs, len(texts))

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: e.model,
			Input: texts[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("creating embeddings: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), end-start)
		}

		for _, data := range resp.Data {
			embeddings = append(embeddings, data.Embedding)
		}
	}

	return embeddings, nil
}
