package search

import "testing"

func TestSearchEmptyInputReturnsEmpty(t *testing.T) {
	if got := SearchChunksWithDiversity([]float32{1, 0}, nil, Options{TopK: 5}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestSearchDropsBelowMinScore(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ChunkID: 1, KBFileID: 1, HeadingPath: "Intro", Vector: []float32{0, 1}}, // orthogonal, raw ~0
	}
	got := SearchChunksWithDiversity(query, candidates, Options{TopK: 5, MinScore: 0.5})
	if len(got) != 0 {
		t.Fatalf("expected candidate below min_score to be dropped, got %v", got)
	}
}

func TestSearchAnchorHeadingBoost(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ChunkID: 1, KBFileID: 1, HeadingPath: "Random Notes", Vector: []float32{1, 0}},
		{ChunkID: 2, KBFileID: 2, HeadingPath: "Open Gaps", Vector: []float32{1, 0}},
	}
	got := SearchChunksWithDiversity(query, candidates, Options{TopK: 2})
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ChunkID != 2 {
		t.Fatalf("expected anchor-heading-boosted chunk first, got %+v", got)
	}
	if got[0].Score <= got[1].Score {
		t.Fatalf("boosted chunk should outscore unboosted tie: %+v", got)
	}
}

// TestSearchDiversityPenaltyOrdering reproduces spec scenario S7: c1 and c2
// share file+heading, c3 is the same file as c1/c2 but a different heading,
// c4 is a different file entirely. Expected pick order is c1, c4, c3, c2.
func TestSearchDiversityPenaltyOrdering(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ChunkID: 1, KBFileID: 1, HeadingPath: "Status", Vector: []float32{1, 0}},
		{ChunkID: 2, KBFileID: 1, HeadingPath: "Status", Vector: []float32{0.99, 0.01}},
		{ChunkID: 3, KBFileID: 1, HeadingPath: "Background", Vector: []float32{0.95, 0.05}},
		{ChunkID: 4, KBFileID: 2, HeadingPath: "Notes", Vector: []float32{0.9, 0.1}},
	}
	got := SearchChunksWithDiversity(query, candidates, Options{TopK: 4})
	if len(got) != 4 {
		t.Fatalf("expected 4 results, got %d", len(got))
	}
	order := []int64{got[0].ChunkID, got[1].ChunkID, got[2].ChunkID, got[3].ChunkID}
	want := []int64{1, 4, 3, 2}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("pick order = %v, want %v", order, want)
		}
	}
}

func TestSearchTopKLimitsResults(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ChunkID: 1, KBFileID: 1, HeadingPath: "A", Vector: []float32{1, 0}},
		{ChunkID: 2, KBFileID: 2, HeadingPath: "B", Vector: []float32{0.9, 0.1}},
		{ChunkID: 3, KBFileID: 3, HeadingPath: "C", Vector: []float32{0.8, 0.2}},
	}
	got := SearchChunksWithDiversity(query, candidates, Options{TopK: 1})
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
}

func TestSearchStableTieBreak(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ChunkID: 10, KBFileID: 1, HeadingPath: "A", Vector: []float32{1, 0}},
		{ChunkID: 11, KBFileID: 2, HeadingPath: "B", Vector: []float32{1, 0}},
	}
	got := SearchChunksWithDiversity(query, candidates, Options{TopK: 2})
	if got[0].ChunkID != 10 || got[1].ChunkID != 11 {
		t.Fatalf("expected stable input-order tie-break, got %+v", got)
	}
}
