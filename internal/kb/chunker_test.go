package kb

import "testing"

func TestChunkFileEmptyReturnsNil(t *testing.T) {
	if chunks := ChunkFile("f1", "", DefaultChunkerOptions()); chunks != nil {
		t.Fatalf("expected nil chunks for empty content, got %v", chunks)
	}
}

func TestChunkFileUnclosedFrontmatterIsOneChunk(t *testing.T) {
	content := "---\ntitle: x\nstatus: open\n"
	chunks := ChunkFile("f1", content, DefaultChunkerOptions())
	if len(chunks) != 1 || chunks[0].HeadingPath != "[frontmatter]" {
		t.Fatalf("expected single [frontmatter] chunk, got %+v", chunks)
	}
}

func TestChunkFileClosedFrontmatterThenBody(t *testing.T) {
	content := "---\ntitle: x\n---\n## Status\nbody text here that is long enough to not merge into anything else around it definitely.\n"
	chunks := ChunkFile("f1", content, DefaultChunkerOptions())
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks (frontmatter + section), got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].HeadingPath != "[frontmatter]" {
		t.Errorf("chunk 0 should be frontmatter, got %q", chunks[0].HeadingPath)
	}
	if chunks[1].HeadingPath != "## Status" {
		t.Errorf("chunk 1 heading path = %q, want '## Status'", chunks[1].HeadingPath)
	}
}

// S1: whitespace reflow must not change chunk_key.
func TestChunkStabilityUnderWhitespaceReflow(t *testing.T) {
	a := "## Status\nThe domain is active with ongoing projects."
	b := "## Status\nThe  domain   is active with ongoing  projects."

	ca := ChunkFile("file-1", a, DefaultChunkerOptions())
	cb := ChunkFile("file-1", b, DefaultChunkerOptions())

	if len(ca) != 1 || len(cb) != 1 {
		t.Fatalf("expected 1 chunk each, got %d and %d", len(ca), len(cb))
	}
	if ca[0].ChunkKey != cb[0].ChunkKey {
		t.Fatalf("chunk_key changed under whitespace reflow: %s vs %s", ca[0].ChunkKey, cb[0].ChunkKey)
	}
}

func TestChunkKeyChangesOnHeadingRename(t *testing.T) {
	a := "## Status\nSame body text here that stays identical across both cases tested."
	b := "## State\nSame body text here that stays identical across both cases tested."

	ca := ChunkFile("file-1", a, DefaultChunkerOptions())
	cb := ChunkFile("file-1", b, DefaultChunkerOptions())

	if ca[0].ChunkKey == cb[0].ChunkKey {
		t.Fatal("expected chunk_key to differ after heading rename")
	}
}

func TestChunkKeysStableWhenNewSectionInsertedAbove(t *testing.T) {
	original := "## Alpha\nAlpha body content that is sufficiently long to stand alone as its own section here, well past the minimum size.\n\n## Beta\nBeta body content that is sufficiently long to stand alone as its own section too, well past the minimum size.\n"
	withInsert := "## Intro\nA brand new introductory section inserted above everything else in this document, well past the minimum size.\n\n## Alpha\nAlpha body content that is sufficiently long to stand alone as its own section here, well past the minimum size.\n\n## Beta\nBeta body content that is sufficiently long to stand alone as its own section too, well past the minimum size.\n"

	before := ChunkFile("file-1", original, DefaultChunkerOptions())
	after := ChunkFile("file-1", withInsert, DefaultChunkerOptions())

	keyFor := func(chunks []Chunk, heading string) string {
		for _, c := range chunks {
			if c.HeadingPath == heading {
				return c.ChunkKey
			}
		}
		return ""
	}

	if keyFor(before, "## Alpha") != keyFor(after, "## Alpha") {
		t.Error("Alpha chunk_key changed after inserting a section above it")
	}
	if keyFor(before, "## Beta") != keyFor(after, "## Beta") {
		t.Error("Beta chunk_key changed after inserting a section above it")
	}
}

func TestChunkFileMergesSmallSections(t *testing.T) {
	content := "## A\nshort\n\n## B\nA much longer body here that definitely exceeds the minimum chunk character threshold on its own, easily.\n"
	opts := DefaultChunkerOptions()
	chunks := ChunkFile("f1", content, opts)
	// "## A\nshort" is short and merges forward into "## B"; keeps B's heading.
	for _, c := range chunks {
		if c.HeadingPath == "## A" {
			t.Fatalf("expected ## A to merge into ## B, but found standalone chunk: %+v", c)
		}
	}
}

func TestChunkFileSplitsLargeSections(t *testing.T) {
	opts := ChunkerOptions{MinChunkChars: 10, MaxChunkChars: 100, OverlapChars: 20}
	body := ""
	for i := 0; i < 400; i++ {
		body += "x"
	}
	content := "## Big\n" + body
	chunks := ChunkFile("f1", content, opts)
	if len(chunks) < 2 {
		t.Fatalf("expected large section to split into multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.CharCount > opts.MaxChunkChars {
			t.Errorf("chunk exceeds max_chunk_chars: %d > %d", c.CharCount, opts.MaxChunkChars)
		}
	}
}

func TestEstimateTokensCeiling(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 4: 1, 5: 2, 8: 2, 9: 3}
	for chars, want := range cases {
		if got := EstimateTokens(chars); got != want {
			t.Errorf("EstimateTokens(%d) = %d, want %d", chars, got, want)
		}
	}
}
