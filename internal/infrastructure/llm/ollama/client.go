// Package ollama talks to a local Ollama server for embeddings and
// answer generation. Generation runs at temperature zero with top_p
// pinned to 1, so the same question over the same context yields the
// same answer and cached answers stay indistinguishable from fresh ones.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tahaislam/hybrid-rag-parser/internal/infrastructure/resilience"
)

type Config struct {
	BaseURL     string
	GenModel    string
	EmbedModel  string
	Temperature float64
	Timeout     time.Duration

	// Optional retry/breaker wrapper applied to every request.
	ResilienceExecutor *resilience.Executor
}

type Client struct {
	baseURL     string
	genModel    string
	embedModel  string
	temperature float64
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		genModel:    cfg.GenModel,
		embedModel:  cfg.EmbedModel,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    cfg.ResilienceExecutor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(response.Embeddings))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}
