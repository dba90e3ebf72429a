package embedding

import (
	"context"

	"github.com/quiet-coder-io/domainos/internal/kb"
	"github.com/quiet-coder-io/domainos/internal/logging"
)

// JobStatus mirrors the embedding_jobs row shape (spec §3, §6).
type JobStatus string

const (
	JobIdle    JobStatus = "idle"
	JobRunning JobStatus = "running"
	JobError   JobStatus = "error"
)

// ChunkForEmbedding is the minimal shape the batching pass needs out of a
// stored KBChunk row.
type ChunkForEmbedding struct {
	ChunkID     int64
	Content     string
	ContentHash string
}

// Batch groups chunks respecting the dual caps from spec §4.E: at most
// maxChunks chunks AND at most maxChars total characters, whichever hits
// first, with at least one chunk per batch even if it alone exceeds the
// char cap.
func Batch(chunks []ChunkForEmbedding, maxChunks, maxChars int) [][]ChunkForEmbedding {
	if len(chunks) == 0 {
		return nil
	}
	var batches [][]ChunkForEmbedding
	var cur []ChunkForEmbedding
	curChars := 0

	flush := func() {
		if len(cur) > 0 {
			batches = append(batches, cur)
			cur = nil
			curChars = 0
		}
	}

	for _, c := range chunks {
		n := len(c.Content)
		if len(cur) > 0 && (len(cur) >= maxChunks || curChars+n > maxChars) {
			flush()
		}
		cur = append(cur, c)
		curChars += n
	}
	flush()
	return batches
}

// JobProgress is the per-run counters reported to the embedding_jobs table
// at every phase transition and batch boundary.
type JobProgress struct {
	Status         JobStatus
	TotalFiles     int
	ProcessedFiles int
	TotalChunks    int
	EmbeddedChunks int
	LastError      string
}

// ProgressSink receives job-status upserts; the repository layer implements
// this against the embedding_jobs table.
type ProgressSink interface {
	Upsert(ctx context.Context, domainID int64, modelName string, progress JobProgress) error
}

// CancelSignal is checked between files and between batches.
type CancelSignal interface {
	Aborted() bool
}

// FileSource supplies the text content of one KB file to chunk.
type FileSource interface {
	Read(ctx context.Context, relativePath string) (string, error)
}

// ChunkSyncer persists a ChunkFile() result for one KB file inside a single
// transaction, returning which chunk ids still need embedding.
type ChunkSyncer interface {
	SyncChunks(ctx context.Context, fileID int64, fileContentHash string, chunks []kb.Chunk) error
	ChunksNeedingEmbedding(ctx context.Context, domainID int64, modelName, providerFingerprint string) ([]ChunkForEmbedding, error)
	StoreEmbeddings(ctx context.Context, modelName, providerFingerprint string, results map[int64]StoredEmbedding) error
}

type StoredEmbedding struct {
	Vector      []float32
	ContentHash string
}

// FileToChunk is one KB file the indexer must re-chunk this run.
type FileToChunk struct {
	FileID      int64
	RelativePath string
	ContentHash string
}

// RunIndexer drives the two-phase pass from spec §4.E: chunk sync, then
// embedding catch-up, reporting JobProgress at every boundary and honoring
// cancellation between files/batches. Embedding failures inside a batch are
// logged and swallowed so later batches still get a chance to succeed;
// a failure to read a file, sync its chunks, list the chunks needing
// embedding, or store a batch's embeddings ends the run in the error status.
func RunIndexer(ctx context.Context, domainID int64, files []FileToChunk, source FileSource, syncer ChunkSyncer, client Client, opts ChunkerOptionsAdapter, sink ProgressSink, cancel CancelSignal) error {
	timer := logging.StartTimer(logging.CategoryEmbedding, "RunIndexer")
	defer timer.Stop()

	progress := JobProgress{Status: JobRunning, TotalFiles: len(files)}
	_ = sink.Upsert(ctx, domainID, client.ModelName(), progress)

	for _, f := range files {
		if cancel != nil && cancel.Aborted() {
			progress.Status = JobIdle
			progress.LastError = "Cancelled"
			return sink.Upsert(ctx, domainID, client.ModelName(), progress)
		}

		content, err := source.Read(ctx, f.RelativePath)
		if err != nil {
			logging.EmbeddingError("failed to read %s: %v", f.RelativePath, err)
			progress.Status = JobError
			progress.LastError = err.Error()
			return sink.Upsert(ctx, domainID, client.ModelName(), progress)
		}

		chunks := kb.ChunkFile(intToID(f.FileID), content, opts.ToChunkerOptions())
		if err := syncer.SyncChunks(ctx, f.FileID, f.ContentHash, chunks); err != nil {
			logging.EmbeddingError("chunk sync failed for %s: %v", f.RelativePath, err)
			progress.Status = JobError
			progress.LastError = err.Error()
			return sink.Upsert(ctx, domainID, client.ModelName(), progress)
		}

		progress.ProcessedFiles++
		progress.TotalChunks += len(chunks)
		_ = sink.Upsert(ctx, domainID, client.ModelName(), progress)
	}

	pending, err := syncer.ChunksNeedingEmbedding(ctx, domainID, client.ModelName(), client.ProviderFingerprint())
	if err != nil {
		progress.Status = JobError
		progress.LastError = err.Error()
		return sink.Upsert(ctx, domainID, client.ModelName(), progress)
	}

	batches := Batch(pending, 50, 100_000)
	for _, batch := range batches {
		if cancel != nil && cancel.Aborted() {
			progress.Status = JobIdle
			progress.LastError = "Cancelled"
			return sink.Upsert(ctx, domainID, client.ModelName(), progress)
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vecs, err := client.Embed(ctx, texts)
		if err != nil {
			logging.EmbeddingError("embedding batch of %d chunks failed, continuing: %v", len(batch), err)
			progress.LastError = err.Error()
			continue
		}

		results := make(map[int64]StoredEmbedding, len(batch))
		for i, c := range batch {
			if i >= len(vecs) {
				break
			}
			results[c.ChunkID] = StoredEmbedding{Vector: vecs[i], ContentHash: c.ContentHash}
		}
		if err := syncer.StoreEmbeddings(ctx, client.ModelName(), client.ProviderFingerprint(), results); err != nil {
			progress.Status = JobError
			progress.LastError = err.Error()
			return sink.Upsert(ctx, domainID, client.ModelName(), progress)
		}

		progress.EmbeddedChunks += len(results)
		_ = sink.Upsert(ctx, domainID, client.ModelName(), progress)
	}

	progress.Status = JobIdle
	return sink.Upsert(ctx, domainID, client.ModelName(), progress)
}

// ChunkerOptionsAdapter decouples the indexer from config's concrete type.
type ChunkerOptionsAdapter struct {
	MinChunkChars, MaxChunkChars, OverlapChars int
}

func (o ChunkerOptionsAdapter) ToChunkerOptions() kb.ChunkerOptions {
	if o.MaxChunkChars == 0 {
		return kb.DefaultChunkerOptions()
	}
	return kb.ChunkerOptions{MinChunkChars: o.MinChunkChars, MaxChunkChars: o.MaxChunkChars, OverlapChars: o.OverlapChars}
}

func intToID(id int64) string {
	return "file-" + itoa(id)
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
