package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quiet-coder-io/domainos/internal/embedding"
	"github.com/quiet-coder-io/domainos/internal/search"
	"github.com/quiet-coder-io/domainos/internal/store"
)

var (
	searchTopK     int
	searchMinScore float64
)

var searchCmd = &cobra.Command{
	Use:   "search <domain-name> <query>",
	Short: "diversity-aware vector search over a domain's embedded chunks",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 8, "maximum results to return")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0.1, "minimum score floor before the diversity pass")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, query := args[0], args[1]

	domainRepo := store.NewDomainRepo(db)
	kbRepo := store.NewKBRepo(db)

	domains, err := domainRepo.List(ctx)
	if err != nil {
		return err
	}
	var domainID int64
	found := false
	for _, d := range domains {
		if d.Name == name {
			domainID, found = d.ID, true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown domain %q", name)
	}

	client, err := embedding.NewClientFromConfig(ctx, embedding.Config{
		Provider:       cfg.Embedding.Provider,
		OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
		OllamaModel:    cfg.Embedding.OllamaModel,
		GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
		GenAIModel:     cfg.Embedding.GenAIModel,
		TaskType:       cfg.Embedding.TaskType,
	})
	if err != nil {
		return fmt.Errorf("failed to build embedding client: %w", err)
	}

	vectors, err := client.Embed(ctx, []string{query})
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embedding client returned no vector for the query")
	}

	candidates, err := kbRepo.SearchCandidates(ctx, domainID, client.ModelName(), client.Dimensions(), vectors[0])
	if err != nil {
		return err
	}

	results := search.SearchChunksWithDiversity(vectors[0], candidates, search.Options{
		TopK:     searchTopK,
		MinScore: searchMinScore,
	})
	if len(results) == 0 {
		fmt.Println("no matching chunks")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. [%.4f] chunk=%d file=%d heading=%q\n", i+1, r.Score, r.ChunkID, r.KBFileID, r.HeadingPath)
	}
	return nil
}
