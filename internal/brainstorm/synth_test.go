package brainstorm

import "testing"

func sampleIdeas() []RawIdea {
	return []RawIdea{
		{Text: "Add a caching layer for search results", Category: "technical", RoundNumber: 1, TechniqueID: "scamper"},
		{Text: "Cache search results at the edge", Category: "technical", RoundNumber: 1, TechniqueID: "scamper"},
		{Text: "Introduce a results cache with TTL", Category: "technical", RoundNumber: 2, TechniqueID: "six-hats"},
		{Text: "Run a customer survey about pricing", Category: "business", RoundNumber: 2, TechniqueID: "six-hats"},
		{Text: "Survey customers on pricing tiers", Category: "business", RoundNumber: 3, TechniqueID: "six-hats"},
		{Text: "What if we removed pricing tiers entirely", Category: "disruptive", RoundNumber: 3, TechniqueID: "what-if"},
	}
}

// TestSynthesizeDeterministic reproduces spec scenario S5: three repeated
// calls on identical input must be byte-identical.
func TestSynthesizeDeterministic(t *testing.T) {
	ideas := sampleIdeas()
	input := SynthInput{Topic: "search improvements", TechniquesUsed: []string{"scamper", "six-hats", "what-if"}, RoundCount: 3}

	p1 := Synthesize(ideas, input)
	p2 := Synthesize(ideas, input)
	p3 := Synthesize(ideas, input)

	if !payloadsEqual(p1, p2) || !payloadsEqual(p2, p3) {
		t.Fatalf("synthesis is not deterministic:\np1=%+v\np2=%+v\np3=%+v", p1, p2, p3)
	}
}

func payloadsEqual(a, b Payload) bool {
	if a.Recommendation != b.Recommendation || a.Contrarian != b.Contrarian || a.Notes != b.Notes {
		return false
	}
	if len(a.Options) != len(b.Options) || len(a.Assumptions) != len(b.Assumptions) {
		return false
	}
	for i := range a.Options {
		if a.Options[i] != b.Options[i] {
			return false
		}
	}
	for i := range a.Assumptions {
		if a.Assumptions[i] != b.Assumptions[i] {
			return false
		}
	}
	return true
}

func TestSynthesizeProducesAtLeastOneOption(t *testing.T) {
	p := Synthesize(sampleIdeas(), SynthInput{Topic: "x"})
	if len(p.Options) == 0 {
		t.Fatal("expected at least one option")
	}
	if p.Recommendation == "" {
		t.Fatal("expected a recommendation")
	}
}

func TestSynthesizeAssumptionsFromDisruptiveIdeas(t *testing.T) {
	p := Synthesize(sampleIdeas(), SynthInput{Topic: "x"})
	if len(p.Assumptions) == 0 {
		t.Fatal("expected at least one assumption from the what-if idea")
	}
}

func TestSynthesizeEmptyInput(t *testing.T) {
	p := Synthesize(nil, SynthInput{Topic: "x"})
	if len(p.Options) != 0 {
		t.Fatalf("expected no options for empty input, got %+v", p.Options)
	}
	if p.Recommendation != "" {
		t.Fatal("expected no recommendation for empty input")
	}
}

func TestClusterIdeasGroupsOverlappingTokens(t *testing.T) {
	clusters := clusterIdeas(sampleIdeas())
	if len(clusters) < 2 {
		t.Fatalf("expected at least 2 distinct clusters (caching vs pricing), got %d", len(clusters))
	}
}
