package kb

import (
	"testing"
	"time"

	"github.com/quiet-coder-io/domainos/internal/types"
)

func TestStalenessMonotonicByTier(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for tier := range tierThresholds {
		prevLevel := types.StalenessFresh
		for _, days := range []int{0, 1, 6, 7, 13, 14, 20, 21, 29, 30, 44, 45, 89, 90, 200} {
			mtime := now.Add(-time.Duration(days) * 24 * time.Hour)
			s := ComputeStaleness(mtime, "", tier, now)
			if levelRank(s.Level) < levelRank(prevLevel) {
				t.Fatalf("tier=%s day=%d regressed level %s after %s", tier, days, s.Level, prevLevel)
			}
			prevLevel = s.Level
		}
	}
}

func levelRank(l types.StalenessLevel) int {
	switch l {
	case types.StalenessFresh:
		return 0
	case types.StalenessStale:
		return 1
	case types.StalenessCritical:
		return 2
	}
	return -1
}

func TestStalenessThresholdsPerTier(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s := ComputeStaleness(now.Add(-7*24*time.Hour), "", types.TierStatus, now)
	if s.Level != types.StalenessStale {
		t.Errorf("status tier at 7d = %s, want stale", s.Level)
	}
	s = ComputeStaleness(now.Add(-21*24*time.Hour), "", types.TierStatus, now)
	if s.Level != types.StalenessCritical {
		t.Errorf("status tier at 21d = %s, want critical", s.Level)
	}
	s = ComputeStaleness(now.Add(-29*24*time.Hour), "", types.TierStructural, now)
	if s.Level != types.StalenessFresh {
		t.Errorf("structural tier at 29d = %s, want fresh", s.Level)
	}
}

func TestStalenessSemanticBasisPreferredOverMtime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mtime := now.Add(-1 * time.Hour) // very fresh by mtime
	semantic := now.Add(-100 * 24 * time.Hour).Format(time.RFC3339)

	s := ComputeStaleness(mtime, semantic, types.TierGeneral, now)
	if s.Basis != types.BasisSemantic {
		t.Fatalf("expected semantic basis, got %s", s.Basis)
	}
	if s.Level != types.StalenessCritical {
		t.Fatalf("expected critical from semantic basis, got %s", s.Level)
	}
}

func TestStalenessUnparseableSemanticFallsBackToMtime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := ComputeStaleness(now, "not-a-date", types.TierGeneral, now)
	if s.Basis != types.BasisMtime {
		t.Fatalf("expected mtime fallback, got %s", s.Basis)
	}
}
