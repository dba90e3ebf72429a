package health

import (
	"testing"
	"time"
)

func TestNormalizeCategoryAppliesSynonymsAndStripsPlural(t *testing.T) {
	cases := map[string]string{
		"Docs":          "documentation",
		"documentation":  "documentation",
		"Security!!":    "security",
		"deps":          "dependency",
		"Risks":         "risk",
	}
	for in, want := range cases {
		if got := normalizeCategory(in); got != want {
			t.Errorf("normalizeCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeadlineScoreHigherPriorityAndMoreOverdueScoresHigher(t *testing.T) {
	low := deadlineScore(1, 5)
	high := deadlineScore(1, 1)
	if high <= low {
		t.Fatalf("deadlineScore priority=1 (%d) should outscore priority=5 (%d)", high, low)
	}
	moreOverdue := deadlineScore(30, 5)
	if moreOverdue <= low {
		t.Fatalf("deadlineScore days_overdue=30 (%d) should outscore days_overdue=1 (%d)", moreOverdue, low)
	}
}

func TestGapFlagScoreAgeBonus(t *testing.T) {
	young := gapFlagScore("security", 1)
	old := gapFlagScore("security", gapAgeDays+1)
	if old != young+gapAgeBonus {
		t.Fatalf("gapFlagScore aged = %d, want young(%d) + bonus(%d)", old, young, gapAgeBonus)
	}
}

func TestKBStalenessScoreThreshold(t *testing.T) {
	if _, ok := kbStalenessScore(13); ok {
		t.Fatal("worst_days=13 should not produce a staleness action")
	}
	if _, ok := kbStalenessScore(14); !ok {
		t.Fatal("worst_days=14 should produce a staleness action")
	}
}

func TestBuildTopActionsSortedDescAndCapped(t *testing.T) {
	deadlines := []OverdueDeadlineItem{
		{ID: 1, Description: "renew contract", DaysOverdue: 1, Priority: 5},
		{ID: 2, Description: "file taxes", DaysOverdue: 30, Priority: 1},
	}
	actions := BuildTopActions(deadlines, nil, 0, 1)
	if len(actions) != 1 {
		t.Fatalf("len(actions) = %d, want 1", len(actions))
	}
	if actions[0].Text != "file taxes" {
		t.Fatalf("top action = %q, want the more urgent deadline", actions[0].Text)
	}
}

// TestBuildTopActionsDiversificationGuarantee reproduces spec §4.H: if a
// gap flag exists but the cap excludes every gap flag on score alone, the
// last slot is swapped for the top-scoring gap flag.
func TestBuildTopActionsDiversificationGuarantee(t *testing.T) {
	var deadlines []OverdueDeadlineItem
	for i := 0; i < 5; i++ {
		deadlines = append(deadlines, OverdueDeadlineItem{ID: int64(i), Description: "deadline", DaysOverdue: 100, Priority: 1})
	}
	gapFlags := []GapFlagItem{{ID: 1, Category: "documentation", Description: "missing docs", AgeDays: 1}}

	actions := BuildTopActions(deadlines, gapFlags, 0, 3)
	if len(actions) != 3 {
		t.Fatalf("len(actions) = %d, want 3", len(actions))
	}
	found := false
	for _, a := range actions {
		if a.Kind == ActionGapFlag {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the last slot swapped for the gap flag, got %+v", actions)
	}
}

func TestBuildSearchHintsCapsAtEightAndPutsDomainNameFirst(t *testing.T) {
	gapFlags := []GapFlagItem{
		{Category: "security", Description: "x"},
		{Category: "documentation", Description: "x"},
		{Category: "dependency", Description: "x"},
		{Category: "risk", Description: "x"},
	}
	deadlines := []OverdueDeadlineItem{
		{Description: "renew the annual vendor contract 20250101"},
		{Description: "complete quarterly compliance review"},
	}
	decisions := []string{"adopted postgres for storage", "deprecated the legacy importer"}

	hints := BuildSearchHints("acme", gapFlags, deadlines, decisions)
	if len(hints) == 0 || hints[0] != "acme" {
		t.Fatalf("hints[0] = %v, want domain name first", hints)
	}
	if len(hints) > 8 {
		t.Fatalf("len(hints) = %d, want <= 8", len(hints))
	}
}

func TestSanitizeKeywordsDropsNoise(t *testing.T) {
	got := sanitizeKeywords("the 20250101 ab 123 Vendor Contract", 10)
	for _, kw := range got {
		if kw == "the" || kw == "20250101" || kw == "ab" || kw == "123" {
			t.Fatalf("sanitizeKeywords retained noise token %q in %v", kw, got)
		}
	}
	found := false
	for _, kw := range got {
		if kw == "vendor" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'vendor' to survive sanitization, got %v", got)
	}
}

func TestSinceWindowFallbackChain(t *testing.T) {
	wrapped := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	started := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	if got := SinceWindow(&wrapped, &started); got != wrapped.Format(time.RFC3339) {
		t.Fatalf("SinceWindow with both set = %q, want wrapped ended_at", got)
	}
	if got := SinceWindow(nil, &started); got != started.Format(time.RFC3339) {
		t.Fatalf("SinceWindow with only started = %q, want started_at", got)
	}
	if got := SinceWindow(nil, nil); got != "none" {
		t.Fatalf("SinceWindow with neither = %q, want \"none\"", got)
	}
}
