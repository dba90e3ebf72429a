package brainstorm

import (
	"regexp"
	"sort"
	"strings"
)

var tokenSplitRe = regexp.MustCompile(`[^a-z0-9\s-]`)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "can": true, "her": true, "was": true, "one": true,
	"our": true, "out": true, "day": true, "get": true, "has": true, "him": true,
	"his": true, "how": true, "man": true, "new": true, "now": true, "old": true,
	"see": true, "two": true, "way": true, "who": true, "boy": true, "did": true,
	"its": true, "let": true, "put": true, "say": true, "she": true, "too": true,
	"use": true, "with": true, "that": true, "this": true, "from": true, "have": true,
	"will": true, "your": true, "about": true, "into": true, "some": true, "what": true,
}

var ultraCommon = map[string]bool{
	"idea": true, "ideas": true, "need": true, "needs": true, "could": true,
	"would": true, "should": true, "maybe": true, "think": true,
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	cleaned := tokenSplitRe.ReplaceAllString(lower, " ")
	var out []string
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) <= 2 || stopwords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// RawIdea is one idea fed into the synthesizer.
type RawIdea struct {
	Text        string
	Category    string
	RoundNumber int
	TechniqueID string
}

// SynthInput is the context needed alongside raw ideas.
type SynthInput struct {
	Topic          string
	TechniquesUsed []string
	RoundCount     int
}

type cluster struct {
	tokenCounts map[string]int
	categories  map[string]int
	rounds      map[int]bool
	ideas       []RawIdea
}

func newCluster() *cluster {
	return &cluster{tokenCounts: map[string]int{}, categories: map[string]int{}, rounds: map[int]bool{}}
}

func (c *cluster) add(idea RawIdea, tokens []string) {
	for _, t := range tokens {
		c.tokenCounts[t]++
	}
	if idea.Category != "" {
		c.categories[idea.Category]++
	}
	c.rounds[idea.RoundNumber] = true
	c.ideas = append(c.ideas, idea)
}

func overlapCount(tokens []string, tokenCounts map[string]int) int {
	n := 0
	seen := map[string]bool{}
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		if tokenCounts[t] > 0 {
			n++
		}
	}
	return n
}

func clusterScore(tokens []string, idea RawIdea, c *cluster) int {
	score := overlapCount(tokens, c.tokenCounts)
	if idea.Category != "" && c.categories[idea.Category] > 0 {
		score += 2
	}
	return score
}

// clusterIdeas implements the greedy clustering pass (spec §4.J step 2).
func clusterIdeas(ideas []RawIdea) []*cluster {
	var clusters []*cluster
	tokensByIdea := make([][]string, len(ideas))

	for i, idea := range ideas {
		tokens := tokenize(idea.Text)
		tokensByIdea[i] = tokens

		best := -1
		bestScore := 0
		for ci, c := range clusters {
			s := clusterScore(tokens, idea, c)
			if s > bestScore {
				bestScore = s
				best = ci
			}
		}
		if best >= 0 && bestScore >= 2 {
			clusters[best].add(idea, tokens)
		} else {
			nc := newCluster()
			nc.add(idea, tokens)
			clusters = append(clusters, nc)
		}
	}
	return clusters
}

func mergeOverlapWeight(small, large *cluster) int {
	overlap := 0
	for tok, cnt := range small.tokenCounts {
		if large.tokenCounts[tok] > 0 {
			overlap += cnt
		}
	}
	catOverlap := 0
	for cat := range small.categories {
		if large.categories[cat] > 0 {
			catOverlap++
		}
	}
	return overlap + catOverlap*2
}

func mergeSmallClusters(clusters []*cluster) []*cluster {
	sort.SliceStable(clusters, func(i, j int) bool { return len(clusters[i].ideas) > len(clusters[j].ideas) })

	var large, small []*cluster
	for _, c := range clusters {
		if len(c.ideas) >= 3 {
			large = append(large, c)
		} else {
			small = append(small, c)
		}
	}
	if len(large) == 0 && len(small) > 0 {
		large = append(large, small[0])
		small = small[1:]
	}
	for _, sc := range small {
		best := -1
		bestWeight := -1
		for li, lc := range large {
			w := mergeOverlapWeight(sc, lc)
			if w > bestWeight {
				bestWeight = w
				best = li
			}
		}
		if best >= 0 {
			for tok, cnt := range sc.tokenCounts {
				large[best].tokenCounts[tok] += cnt
			}
			for cat, cnt := range sc.categories {
				large[best].categories[cat] += cnt
			}
			for r := range sc.rounds {
				large[best].rounds[r] = true
			}
			large[best].ideas = append(large[best].ideas, sc.ideas...)
		}
	}
	return large
}

func roundDiversity(c *cluster) int    { return len(c.rounds) }
func categoryDiversity(c *cluster) int { return len(c.categories) }

func rankClusters(clusters []*cluster) []*cluster {
	ranked := make([]*cluster, len(clusters))
	copy(ranked, clusters)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if len(a.ideas) != len(b.ideas) {
			return len(a.ideas) > len(b.ideas)
		}
		if roundDiversity(a) != roundDiversity(b) {
			return roundDiversity(a) > roundDiversity(b)
		}
		return categoryDiversity(a) > categoryDiversity(b)
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	return ranked
}

var ngramCombiner = func(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) == 0 {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// labelCluster implements spec §4.J step 6. index is this cluster's rank
// position (0-based), used only for the "Option N" fallback label.
func labelCluster(c *cluster, index int) string {
	freq := map[string]int{}
	for tok, cnt := range c.tokenCounts {
		if ultraCommon[tok] {
			continue
		}
		freq[tok] += cnt
	}
	for _, idea := range c.ideas {
		tokens := tokenize(idea.Text)
		for _, gram := range ngramCombiner(tokens, 2) {
			freq[gram] += 2
		}
		for _, gram := range ngramCombiner(tokens, 3) {
			freq[gram] += 3
		}
	}

	type entry struct {
		term string
		freq int
	}
	var entries []entry
	topFreq := 0
	for term, f := range freq {
		if f < 2 {
			continue
		}
		entries = append(entries, entry{term, f})
		if f > topFreq {
			topFreq = f
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].freq != entries[j].freq {
			return entries[i].freq > entries[j].freq
		}
		return entries[i].term < entries[j].term
	})

	threshold := int(float64(topFreq) * 0.7)
	var candidates []entry
	for _, e := range entries {
		if e.freq >= threshold {
			candidates = append(candidates, e)
		}
	}

	var chosen string
	if len(candidates) > 0 {
		best := candidates[0]
		bestWords := len(strings.Fields(best.term))
		for _, c2 := range candidates[1:] {
			words := len(strings.Fields(c2.term))
			if words > bestWords || (words == bestWords && c2.freq > best.freq) {
				best = c2
				bestWords = words
			}
		}
		chosen = titleCase(best.term)
	}

	if len(chosen) >= 3 && len(chosen) <= 80 {
		return chosen
	}
	fallback := ""
	if len(c.ideas) > 0 {
		fallback = truncate(strings.TrimSpace(c.ideas[0].Text), 60)
	}
	return "Option " + itoaN(index+1) + ": " + fallback
}

// Option is one synthesized theme.
type Option struct {
	Title       string
	Description string
	Pros        string
	Action      string
}

// Payload is the full deterministic synthesis output.
type Payload struct {
	Options        []Option
	Recommendation string
	Contrarian     string
	Assumptions    []string
	Notes          string
}

func joinTrim(ideas []RawIdea, n, maxChars int) string {
	if len(ideas) > n {
		ideas = ideas[:n]
	}
	parts := make([]string, len(ideas))
	for i, idea := range ideas {
		parts[i] = idea.Text
	}
	return truncate(strings.Join(parts, ". "), maxChars)
}

func buildOption(c *cluster, index int) Option {
	title := truncate(labelCluster(c, index), 200)

	opt := Option{
		Title:       title,
		Description: joinTrim(c.ideas, 5, 2000),
		Action:      truncate(strings.TrimSpace(firstIdeaText(c)), 500),
	}
	if len(c.ideas) > 1 {
		opt.Pros = "Supported by " + itoaN(len(c.ideas)) + " ideas across " + itoaN(roundDiversity(c)) + " round(s)"
	}
	return opt
}

func firstIdeaText(c *cluster) string {
	if len(c.ideas) == 0 {
		return ""
	}
	return c.ideas[0].Text
}

func itoaN(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func isDisruptive(idea RawIdea) bool {
	if idea.Category == "disruptive" {
		return true
	}
	id := strings.ToLower(idea.TechniqueID)
	return strings.Contains(id, "first-principles") || strings.Contains(id, "what-if")
}

// Synthesize runs the full deterministic pipeline from spec §4.J: tokenize,
// greedy-cluster, merge small clusters, rank, label, and derive the
// recommendation/contrarian/assumptions/notes fields. Calling it three
// times on identical input yields byte-identical output.
func Synthesize(ideas []RawIdea, input SynthInput) Payload {
	clusters := clusterIdeas(ideas)
	clusters = mergeSmallClusters(clusters)
	ranked := rankClusters(clusters)

	options := make([]Option, len(ranked))
	for i, c := range ranked {
		options[i] = buildOption(c, i)
	}

	payload := Payload{Options: options}
	if len(options) > 0 {
		payload.Recommendation = `Focus on "` + options[0].Title + `" — the strongest theme with the most convergent ideas.`
	}

	if len(ranked) > 1 {
		bestIdx := -1
		bestRatio := -1.0
		for i := 1; i < len(ranked); i++ {
			c := ranked[i]
			denom := len(c.ideas)
			if denom == 0 {
				denom = 1
			}
			ratio := float64(len(c.categories)) / float64(denom)
			if ratio > bestRatio {
				bestRatio = ratio
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			c := ranked[bestIdx]
			label := options[bestIdx].Title
			payload.Contrarian = `Consider "` + label + `" as an unconventional angle — it draws from ` + itoaN(len(c.categories)) + ` different technique categories.`
		}
	}

	var assumptions []string
	for _, idea := range ideas {
		if isDisruptive(idea) {
			assumptions = append(assumptions, truncate(idea.Text, 500))
			if len(assumptions) >= 10 {
				break
			}
		}
	}
	payload.Assumptions = assumptions

	techniques := strings.Join(input.TechniquesUsed, ", ")
	notes := "Synthesized " + itoaN(len(ideas)) + " ideas across " + itoaN(input.RoundCount) +
		" round(s) using techniques: " + techniques + " for topic: " + input.Topic + "."
	payload.Notes = truncate(notes, 2000)

	return payload
}
