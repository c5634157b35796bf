package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sashabaranov/go-openai"

	"hammy/internal/config"
)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint. Pointing
// BaseURL at a local Ollama or vLLM server works the same way.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIEmbedder builds an embedder from the vector config. The API key
// is read from the environment variable named by APIKeyEnv; local servers
// usually accept an empty key.
func NewOpenAIEmbedder(cfg config.VectorConfig, logger *slog.Logger) *OpenAIEmbedder {
	apiKey := ""
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.EmbeddingBaseURL != "" {
		clientCfg.BaseURL = cfg.EmbeddingBaseURL
	}
	logger.Debug("Initializing embedder", "model", cfg.EmbeddingModel, "base_url", clientCfg.BaseURL)
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.EmbeddingModel,
		logger: logger,
	}
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding returned %d vectors for %d texts", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
