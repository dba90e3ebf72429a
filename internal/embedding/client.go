// Package embedding drives text through an externally supplied embedding
// client, packs/unpacks vectors for storage, and scores them with cosine
// similarity (spec §4.E, §4.F, §6).
package embedding

import "context"

// Client is the external embedding-provider capability contract (spec §6).
// domainos ships concrete Ollama and GenAI implementations but the indexer
// and search packages depend only on this interface.
type Client interface {
	ModelName() string
	Dimensions() int
	// ProviderFingerprint is stable across a model/version/config; changing
	// it invalidates existing embeddings stored under that model name.
	ProviderFingerprint() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
