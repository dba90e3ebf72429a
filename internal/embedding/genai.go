package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/quiet-coder-io/domainos/internal/logging"

	"google.golang.org/genai"
)

// maxGenAIBatchSize is the provider's hard per-request cap.
const maxGenAIBatchSize = 100

// GenAIClient embeds text via Google's Gemini embedding API.
type GenAIClient struct {
	client   *genai.Client
	model    string
	taskType string
	apiKey   string
}

// NewGenAIClient constructs a Gemini-backed embedding client.
func NewGenAIClient(ctx context.Context, apiKey, model, taskType string) (*GenAIClient, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "NewGenAIClient")
	defer timer.Stop()

	if apiKey == "" {
		return nil, fmt.Errorf("genai api key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if taskType == "" {
		taskType = "SEMANTIC_SIMILARITY"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIClient{client: client, model: model, taskType: taskType, apiKey: apiKey}, nil
}

func (c *GenAIClient) ModelName() string { return c.model }
func (c *GenAIClient) Dimensions() int   { return 3072 }

// ProviderFingerprint is stable for a given model+task-type pair;
// changing either invalidates previously stored embeddings under this model.
func (c *GenAIClient) ProviderFingerprint() string {
	sum := sha256.Sum256([]byte("genai::" + c.model + "::" + c.taskType))
	return hex.EncodeToString(sum[:8])
}

func outputDims(d int32) *int32 { return &d }

// Embed embeds up to maxGenAIBatchSize texts per request, chunking and
// concatenating results for larger inputs (spec §4.E batching; the
// indexer further caps batches at 50 chunks / 100k chars before it ever
// calls Embed, so this chunking only guards the provider's own ceiling).
func (c *GenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "GenAI.Embed")
	defer timer.Stop()

	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) <= maxGenAIBatchSize {
		return c.embedChunk(ctx, texts)
	}

	var out [][]float32
	for start := 0; start < len(texts); start += maxGenAIBatchSize {
		end := start + maxGenAIBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		chunk, err := c.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("genai batch [%d:%d] failed: %w", start, end, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (c *GenAIClient) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	result, err := c.client.Models.EmbedContent(ctx, c.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: outputDims(int32(c.Dimensions())),
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	out := make([][]float32, len(result.Embeddings))
	for i, e := range result.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}
