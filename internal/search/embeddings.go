// ABOUTME: OpenAI embedding client for semantic memory recall
// ABOUTME: Uses text-embedding-3-small with retry and backoff
package search

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/speckeep/speckeep/internal/util"
)

// DefaultEmbeddingModel is used when the config names no model
const DefaultEmbeddingModel = openai.SmallEmbedding3

// embeddingAPI is the slice of the OpenAI client the embedder needs
type embeddingAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// ClientConfig holds configuration for the embedding client
type ClientConfig struct {
	APIKey     string
	Model      openai.EmbeddingModel
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// DefaultClientConfig returns the default embedding configuration
func DefaultClientConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:     apiKey,
		Model:      DefaultEmbeddingModel,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Timeout:    30 * time.Second,
	}
}

// EmbeddingClient wraps the OpenAI embeddings API with retry logic
type EmbeddingClient struct {
	api        embeddingAPI
	model      openai.EmbeddingModel
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
}

// NewEmbeddingClient creates a client with default configuration
func NewEmbeddingClient(apiKey string) (*EmbeddingClient, error) {
	return NewEmbeddingClientWithConfig(DefaultClientConfig(apiKey))
}

// NewEmbeddingClientWithConfig creates a client with custom configuration
func NewEmbeddingClientWithConfig(cfg *ClientConfig) (*EmbeddingClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	return &EmbeddingClient{
		api:        openai.NewClient(cfg.APIKey),
		model:      model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
	}, nil
}

// Embed generates an embedding vector for one text
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for several texts in one call
func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	err := util.Retry(ctx, c.maxRetries+1, c.retryDelay, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: c.model,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))
		}

		vectors = make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			vectors[i] = d.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate embeddings: %w", err)
	}
	return vectors, nil
}
