package openai

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobibcgroup/qadim/internal/infrastructure/config"
)

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EmbedderConfig
		errMsg  string
		wantDim uint64
	}{
		{
			name:    "default model",
			cfg:     config.EmbedderConfig{APIKey: "test-key"},
			wantDim: 1536,
		},
		{
			name:    "large model",
			cfg:     config.EmbedderConfig{APIKey: "test-key", Model: "text-embedding-3-large"},
			wantDim: 3072,
		},
		{
			name:    "legacy ada model",
			cfg:     config.EmbedderConfig{APIKey: "test-key", Model: "text-embedding-ada-002"},
			wantDim: 1536,
		},
		{
			name:   "missing API key",
			cfg:    config.EmbedderConfig{},
			errMsg: "API key is required",
		},
		{
			name:   "unknown model",
			cfg:    config.EmbedderConfig{APIKey: "test-key", Model: "word2vec"},
			errMsg: "unsupported embedding model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder, err := NewEmbedder(tt.cfg)

			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, embedder)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDim, embedder.Dimensions())
		})
	}
}

func TestVectorSize(t *testing.T) {
	// The exported default must agree with the dimension table.
	assert.Equal(t, uint64(VectorSize), modelDimensions[openai.SmallEmbedding3])
}
