package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quiet-coder-io/domainos/internal/embedding"
	"github.com/quiet-coder-io/domainos/internal/kb"
	"github.com/quiet-coder-io/domainos/internal/store"
	"github.com/quiet-coder-io/domainos/internal/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan <domain-name> <kb-path>",
	Short: "walk a domain's markdown KB, sync the file/chunk index, and embed pending chunks",
	Args:  cobra.ExactArgs(2),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, kbPath := args[0], args[1]

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
		d, err := domainRepo.Create(ctx, name, kbPath)
		if err != nil {
			return err
		}
		domainID = d.ID
	}

	scanned, err := kb.Scan(kbPath)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", kbPath, err)
	}
	existing, err := kbRepo.ListFiles(ctx, domainID)
	if err != nil {
		return err
	}
	decisions := kb.PlanSync(existing, scanned)
	counts := kb.CountSync(decisions)

	now := time.Now().UTC().Format(time.RFC3339)
	chunkerOpts := kb.ChunkerOptions{
		MinChunkChars: cfg.Chunker.MinChunkChars,
		MaxChunkChars: cfg.Chunker.MaxChunkChars,
		OverlapChars:  cfg.Chunker.OverlapChars,
	}

	for _, d := range decisions {
		if d.Action == "delete" {
			if err := kbRepo.DeleteFile(ctx, domainID, d.RelativePath); err != nil {
				return fmt.Errorf("failed to delete %s: %w", d.RelativePath, err)
			}
			continue
		}

		tier := types.TierGeneral
		if d.RecomputeTier {
			tier = kb.ClassifyTier(d.RelativePath)
		}
		fileID, err := kbRepo.UpsertFile(ctx, domainID, d.RelativePath, tier, types.TierSourceInferred, d.ScannedFile.ContentHash, now)
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", d.RelativePath, err)
		}

		contentBytes, err := os.ReadFile(d.ScannedFile.AbsolutePath)
		if err != nil {
			fmt.Printf("warning: failed to read %s: %v\n", d.ScannedFile.AbsolutePath, err)
			continue
		}
		chunks := kb.ChunkFile(fmt.Sprintf("%d", fileID), string(contentBytes), chunkerOpts)
		if err := kbRepo.SyncChunks(ctx, fileID, d.ScannedFile.ContentHash, chunks); err != nil {
			return fmt.Errorf("failed to sync chunks for %s: %w", d.RelativePath, err)
		}
	}
	fmt.Printf("domain %q: +%d ~%d -%d files\n", name, counts.Added, counts.Updated, counts.Deleted)

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

	pending, err := kbRepo.ChunksNeedingEmbedding(ctx, domainID, client.ModelName(), client.ProviderFingerprint())
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("no chunks need embedding")
		return nil
	}

	batches := embedding.Batch(pending, cfg.Embedding.BatchMaxChunks, cfg.Embedding.BatchMaxChars)
	embedded := 0
	for _, batch := range batches {
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := client.Embed(ctx, texts)
		if err != nil {
			fmt.Printf("warning: embedding batch failed: %v\n", err)
			continue
		}
		results := make(map[int64]embedding.StoredEmbedding, len(batch))
		for i, c := range batch {
			if i >= len(vectors) {
				break
			}
			results[c.ChunkID] = embedding.StoredEmbedding{Vector: vectors[i], ContentHash: c.ContentHash}
		}
		if err := kbRepo.StoreEmbeddings(ctx, client.ModelName(), client.ProviderFingerprint(), results); err != nil {
			return fmt.Errorf("failed to store embeddings: %w", err)
		}
		embedded += len(results)
	}
	fmt.Printf("embedded %d chunks with model %s\n", embedded, client.ModelName())
	return nil
}
