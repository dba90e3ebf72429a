// Package search implements the diversity-aware vector search described in
// spec §4.F: cosine similarity plus an anchor-heading boost, then a greedy
// MMR-style pass that penalizes repeatedly picking from the same file and
// heading.
package search

import (
	"regexp"

	"github.com/quiet-coder-io/domainos/internal/embedding"
	"github.com/quiet-coder-io/domainos/internal/logging"
)

var anchorHeadingRe = regexp.MustCompile(`(?i)\b(STATUS|OPEN\s*GAPS?|DEADLINE|PRIORITIES|NEXT\s*ACTIONS?|OVERDUE|CRITICAL)\b`)

const (
	anchorHeadingBoost  = 0.1
	sameHeadingPenalty  = 0.30
	sameFilePenalty     = 0.10
)

// Candidate is one stored chunk embedding eligible for search.
type Candidate struct {
	ChunkID     int64
	KBFileID    int64
	HeadingPath string
	Vector      []float32
}

// Result is a candidate after scoring, in final pick order.
type Result struct {
	ChunkID     int64
	KBFileID    int64
	HeadingPath string
	Score       float64
}

// Options bounds how many results to return and the score floor applied
// before the diversity pass.
type Options struct {
	TopK     int
	MinScore float64
}

type scored struct {
	idx int
	raw float64
}

// SearchChunksWithDiversity ranks candidates against queryVec and greedily
// selects up to opts.TopK of them, penalizing repeats from the same file and
// heading so results span the knowledge base rather than clustering in one
// section. Ties break on stable input ordering; empty input yields nil.
func SearchChunksWithDiversity(queryVec []float32, candidates []Candidate, opts Options) []Result {
	if len(candidates) == 0 {
		return nil
	}
	timer := logging.StartTimer(logging.CategorySearch, "SearchChunksWithDiversity")
	defer timer.Stop()

	pool := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		raw := embedding.CosineSimilarity(queryVec, c.Vector)
		if anchorHeadingRe.MatchString(c.HeadingPath) {
			raw += anchorHeadingBoost
		}
		if raw < opts.MinScore {
			continue
		}
		pool = append(pool, scored{idx: i, raw: raw})
	}
	if len(pool) == 0 {
		return nil
	}

	topK := opts.TopK
	if topK <= 0 || topK > len(pool) {
		topK = len(pool)
	}

	picked := make([]bool, len(pool))
	results := make([]Result, 0, topK)

	for len(results) < topK {
		best := -1
		for i, s := range pool {
			if picked[i] {
				continue
			}
			if best == -1 || s.raw > pool[best].raw {
				best = i
			}
		}
		if best == -1 {
			break
		}
		picked[best] = true
		c := candidates[pool[best].idx]
		results = append(results, Result{ChunkID: c.ChunkID, KBFileID: c.KBFileID, HeadingPath: c.HeadingPath, Score: pool[best].raw})

		for i := range pool {
			if picked[i] {
				continue
			}
			other := candidates[pool[i].idx]
			if other.KBFileID != c.KBFileID {
				continue
			}
			if other.HeadingPath == c.HeadingPath {
				pool[i].raw -= sameHeadingPenalty
			} else {
				pool[i].raw -= sameFilePenalty
			}
		}
	}
	return results
}
