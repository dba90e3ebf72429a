package health

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Status Snapshot tuning constants (spec §4.H names these BASE_D, PERDAY_D,
// PERPRIO_D, P_MAX, BASE_G, AGE_DAYS, AGE_BONUS, BASE_K, PERDAY_K without
// pinning values; chosen here to keep priority_score on the same rough
// 0..20 scale as the §4.G severity score).
const (
	baseDeadlineScore   = 10
	perDayOverdue       = 1
	perPriorityGap      = 2
	maxDeadlinePriority = 5 // matches DeadlineRepo.Create's 1..5 validation range

	baseGapScore  = 5
	gapAgeDays    = 14
	gapAgeBonus   = 3
	defaultWeight = 2

	baseStalenessScore  = 3
	perDayStaleness     = 0.5
	minStalenessForItem = 14

	defaultTopActionsCap = 5
	searchHintCap        = 8
	keywordCharCap       = 24
)

// categoryWeights maps a normalized gap-flag category to its priority
// weight; unknown categories fall back to defaultWeight.
var categoryWeights = map[string]int{
	"security":      6,
	"compliance":    6,
	"dependency":    4,
	"documentation": 2,
	"test":          3,
	"process":       2,
	"risk":          5,
}

// categorySynonyms folds loose category spellings onto the canonical names
// categoryWeights keys on, before the weight lookup.
var categorySynonyms = map[string]string{
	"doc":      "documentation",
	"docs":     "documentation",
	"dep":      "dependency",
	"deps":     "dependency",
	"sec":      "security",
	"tests":    "test",
	"testing":  "test",
	"proc":     "process",
	"risks":    "risk",
	"compl":    "compliance",
	"legal":    "compliance",
}

var nonLetterRe = regexp.MustCompile(`[^a-z]+`)

// normalizeCategory lowercases, strips non-letters, strips a trailing "s",
// and applies the synonym table, per spec §4.H.
func normalizeCategory(raw string) string {
	c := strings.ToLower(raw)
	c = nonLetterRe.ReplaceAllString(c, "")
	c = strings.TrimSuffix(c, "s")
	if canon, ok := categorySynonyms[c]; ok {
		return canon
	}
	return c
}

func categoryWeight(normalized string) int {
	if w, ok := categoryWeights[normalized]; ok {
		return w
	}
	return defaultWeight
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > maxDeadlinePriority {
		return maxDeadlinePriority
	}
	return p
}

// OverdueDeadlineItem is one overdue deadline as fed into top_actions.
type OverdueDeadlineItem struct {
	ID          int64
	Description string
	DaysOverdue int
	Priority    int
}

// GapFlagItem is one open gap flag as fed into top_actions.
type GapFlagItem struct {
	ID          int64
	Category    string
	Description string
	AgeDays     int
}

// ActionKind distinguishes the three sources top_actions merges.
type ActionKind string

const (
	ActionDeadline   ActionKind = "deadline"
	ActionGapFlag    ActionKind = "gap_flag"
	ActionKBStale    ActionKind = "kb_staleness"
)

// TopAction is one entry in the Domain Status Snapshot's top_actions list.
type TopAction struct {
	Kind          ActionKind
	Text          string
	PriorityScore int
	sourceID      int64 // gap flag id, for the diversification swap
}

func deadlineScore(daysOverdue, priority int) int {
	return baseDeadlineScore + daysOverdue*perDayOverdue + (maxDeadlinePriority+1-clampPriority(priority))*perPriorityGap
}

func gapFlagScore(normalizedCategory string, ageDays int) int {
	score := baseGapScore + categoryWeight(normalizedCategory)
	if ageDays > gapAgeDays {
		score += gapAgeBonus
	}
	return score
}

func kbStalenessScore(worstDays int) (int, bool) {
	if worstDays < minStalenessForItem {
		return 0, false
	}
	return baseStalenessScore + int(float64(worstDays)*perDayStaleness), true
}

// BuildTopActions merges overdue deadlines, open gap flags, and a domain's
// worst KB-staleness signal into a priority-ranked, capped action list,
// applying the last-slot gap-flag diversification guarantee from spec §4.H.
func BuildTopActions(deadlines []OverdueDeadlineItem, gapFlags []GapFlagItem, worstStalenessDays int, cap int) []TopAction {
	if cap <= 0 {
		cap = defaultTopActionsCap
	}

	var actions []TopAction
	for _, d := range deadlines {
		actions = append(actions, TopAction{
			Kind:          ActionDeadline,
			Text:          d.Description,
			PriorityScore: deadlineScore(d.DaysOverdue, d.Priority),
			sourceID:      d.ID,
		})
	}

	var gapActions []TopAction
	for _, g := range gapFlags {
		normalized := normalizeCategory(g.Category)
		a := TopAction{
			Kind:          ActionGapFlag,
			Text:          g.Description,
			PriorityScore: gapFlagScore(normalized, g.AgeDays),
			sourceID:      g.ID,
		}
		gapActions = append(gapActions, a)
		actions = append(actions, a)
	}

	if score, ok := kbStalenessScore(worstStalenessDays); ok {
		actions = append(actions, TopAction{
			Kind:          ActionKBStale,
			Text:          "KB content is stale",
			PriorityScore: score,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool { return actions[i].PriorityScore > actions[j].PriorityScore })

	if len(actions) > cap {
		actions = actions[:cap]
	}

	if len(gapActions) == 0 {
		return actions
	}
	for _, a := range actions {
		if a.Kind == ActionGapFlag {
			return actions // a gap flag already made the cut
		}
	}
	topGap := gapActions[0]
	for _, g := range gapActions[1:] {
		if g.PriorityScore > topGap.PriorityScore {
			topGap = g
		}
	}
	if len(actions) == 0 {
		return []TopAction{topGap}
	}
	actions[len(actions)-1] = topGap
	return actions
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "have": true, "been": true, "were": true,
	"will": true, "into": true, "their": true, "about": true, "which": true,
	"when": true, "what": true, "should": true, "would": true, "could": true,
	"there": true, "these": true, "those": true, "then": true, "than": true,
}

var punctRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)
var pureDigitsRe = regexp.MustCompile(`^[0-9]+$`)
var dateStampRe = regexp.MustCompile(`^(19|20)\d{6}$`)

// sanitizeKeywords tokenizes text on non-alphanumeric runs and drops short,
// numeric, date-stamp, and stopword tokens, per spec §4.H, capped at max
// entries and keywordCharCap characters each.
func sanitizeKeywords(text string, max int) []string {
	var out []string
	for _, tok := range punctRe.Split(text, -1) {
		if len(out) >= max {
			break
		}
		if len(tok) < 3 {
			continue
		}
		if pureDigitsRe.MatchString(tok) || dateStampRe.MatchString(tok) {
			continue
		}
		lower := strings.ToLower(tok)
		if stopwords[lower] {
			continue
		}
		if len(lower) > keywordCharCap {
			lower = lower[:keywordCharCap]
		}
		out = append(out, lower)
	}
	return out
}

// BuildSearchHints assembles the Domain Status Snapshot's search_hints set:
// the domain name first and unfiltered, up to 3 normalized gap-flag
// categories, and up to 2 sanitized keywords each from the top two overdue
// deadlines and top two decisions, capped at 8 total.
func BuildSearchHints(domainName string, gapFlags []GapFlagItem, topDeadlines []OverdueDeadlineItem, topDecisionTexts []string) []string {
	hints := []string{domainName}
	seen := map[string]bool{strings.ToLower(domainName): true}
	add := func(kw string) bool {
		if len(hints) >= searchHintCap {
			return false
		}
		if seen[kw] {
			return true
		}
		seen[kw] = true
		hints = append(hints, kw)
		return true
	}

	categorySeen := map[string]bool{}
	catCount := 0
	for _, g := range gapFlags {
		if catCount >= 3 {
			break
		}
		normalized := normalizeCategory(g.Category)
		if normalized == "" || categorySeen[normalized] {
			continue
		}
		categorySeen[normalized] = true
		catCount++
		if !add(normalized) {
			return hints
		}
	}

	deadlineLimit := 2
	if len(topDeadlines) < deadlineLimit {
		deadlineLimit = len(topDeadlines)
	}
	for _, d := range topDeadlines[:deadlineLimit] {
		for _, kw := range sanitizeKeywords(d.Description, 2) {
			if !add(kw) {
				return hints
			}
		}
	}

	decisionLimit := 2
	if len(topDecisionTexts) < decisionLimit {
		decisionLimit = len(topDecisionTexts)
	}
	for _, text := range topDecisionTexts[:decisionLimit] {
		for _, kw := range sanitizeKeywords(text, 2) {
			if !add(kw) {
				return hints
			}
		}
	}

	return hints
}

// SinceWindow computes §4.H's since_window fallback chain.
func SinceWindow(wrappedEndedAt, mostRecentStartedAt *time.Time) string {
	if wrappedEndedAt != nil {
		return wrappedEndedAt.UTC().Format(time.RFC3339)
	}
	if mostRecentStartedAt != nil {
		return mostRecentStartedAt.UTC().Format(time.RFC3339)
	}
	return "none"
}

// DomainStatusSnapshot is the full Module H single-domain briefing.
type DomainStatusSnapshot struct {
	DomainID     int64
	SinceWindow  string
	TopActions   []TopAction
	SearchHints  []string
}

// BuildDomainStatusSnapshot assembles the full §4.H briefing for one domain.
func BuildDomainStatusSnapshot(domainID int64, domainName string, wrappedEndedAt, mostRecentStartedAt *time.Time,
	deadlines []OverdueDeadlineItem, gapFlags []GapFlagItem, worstStalenessDays int, topDecisionTexts []string, cap int) DomainStatusSnapshot {

	return DomainStatusSnapshot{
		DomainID:    domainID,
		SinceWindow: SinceWindow(wrappedEndedAt, mostRecentStartedAt),
		TopActions:  BuildTopActions(deadlines, gapFlags, worstStalenessDays, cap),
		SearchHints: BuildSearchHints(domainName, gapFlags, deadlines, topDecisionTexts),
	}
}
