package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quiet-coder-io/domainos/internal/logging"
)

// OllamaClient embeds text via a local Ollama server's /api/embeddings.
type OllamaClient struct {
	endpoint string
	model    string
	client   *http.Client
	dims     int
}

// NewOllamaClient constructs a client and probes one embedding to learn
// the model's dimensionality, matching the teacher's NewOllamaEngine.
func NewOllamaClient(ctx context.Context, endpoint, model string) (*OllamaClient, error) {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "embeddinggemma"
	}
	logging.Embedding("creating ollama client endpoint=%s model=%s", endpoint, model)

	c := &OllamaClient{endpoint: endpoint, model: model, client: &http.Client{Timeout: 30 * time.Second}}
	vecs, err := c.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return nil, fmt.Errorf("failed to probe ollama dimensions: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("ollama returned no embeddings during probe")
	}
	c.dims = len(vecs[0])
	return c, nil
}

func (c *OllamaClient) ModelName() string { return c.model }
func (c *OllamaClient) Dimensions() int   { return c.dims }

// ProviderFingerprint is stable for a given endpoint+model pair; changing
// either invalidates previously stored embeddings under this model name.
func (c *OllamaClient) ProviderFingerprint() string {
	sum := sha256.Sum256([]byte("ollama::" + c.endpoint + "::" + c.model))
	return hex.EncodeToString(sum[:8])
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed issues one request per text; Ollama's /api/embeddings endpoint is
// single-prompt, so EmbedBatch-style callers rely on the indexer's batching
// to bound request volume rather than true server-side batching.
func (c *OllamaClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "Ollama.Embed")
	defer timer.Stop()

	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		body, err := json.Marshal(ollamaEmbedRequest{Model: c.model, Prompt: text})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build ollama request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("ollama request failed: %w", err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read ollama response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(data))
		}

		var parsed ollamaEmbedResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse ollama response: %w", err)
		}
		out = append(out, parsed.Embedding)
	}
	return out, nil
}
