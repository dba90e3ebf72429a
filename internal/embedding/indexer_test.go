package embedding

import "testing"

func TestBatchSplitsOnChunkCount(t *testing.T) {
	chunks := make([]ChunkForEmbedding, 120)
	for i := range chunks {
		chunks[i] = ChunkForEmbedding{ChunkID: int64(i), Content: "x"}
	}
	batches := Batch(chunks, 50, 100_000)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	if len(batches[0]) != 50 || len(batches[1]) != 50 || len(batches[2]) != 20 {
		t.Fatalf("unexpected batch sizes: %d %d %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
}

func TestBatchSplitsOnCharCap(t *testing.T) {
	big := make([]byte, 60_000)
	for i := range big {
		big[i] = 'a'
	}
	chunks := []ChunkForEmbedding{
		{ChunkID: 1, Content: string(big)},
		{ChunkID: 2, Content: string(big)},
		{ChunkID: 3, Content: "small"},
	}
	batches := Batch(chunks, 50, 100_000)
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	if len(batches[0]) != 1 {
		t.Fatalf("first batch should hold only the first 60,000-char chunk (a second would pass the 100,000-char cap), got %d", len(batches[0]))
	}
	if len(batches[1]) != 2 {
		t.Fatalf("second batch should hold the remaining two chunks, got %d", len(batches[1]))
	}
}

func TestBatchSingleOversizedChunkStillGetsOwnBatch(t *testing.T) {
	huge := make([]byte, 200_000)
	chunks := []ChunkForEmbedding{{ChunkID: 1, Content: string(huge)}}
	batches := Batch(chunks, 50, 100_000)
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("expected a single batch containing the one oversized chunk, got %v", batches)
	}
}

func TestBatchEmptyInput(t *testing.T) {
	if got := Batch(nil, 50, 100_000); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
