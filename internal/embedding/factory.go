package embedding

import (
	"context"
	"fmt"
)

// Config is the subset of the application config NewClientFromConfig needs;
// defined here (rather than importing internal/config) to keep embedding
// free of a dependency on the config package.
type Config struct {
	Provider       string
	OllamaEndpoint string
	OllamaModel    string
	GenAIAPIKey    string
	GenAIModel     string
	TaskType       string
}

// NewClientFromConfig selects and constructs a concrete embedding Client by
// provider name, the way the teacher's perception clients are selected by
// provider string in domain configuration.
func NewClientFromConfig(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaClient(ctx, cfg.OllamaEndpoint, cfg.OllamaModel)
	case "genai":
		return NewGenAIClient(ctx, cfg.GenAIAPIKey, cfg.GenAIModel, cfg.TaskType)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
