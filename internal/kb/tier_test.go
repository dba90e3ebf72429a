package kb

import (
	"testing"

	"github.com/quiet-coder-io/domainos/internal/types"
)

func TestClassifyTierByBasenameOnly(t *testing.T) {
	cases := []struct {
		path string
		want types.Tier
	}{
		{"CLAUDE.md", types.TierStructural},
		{"docs/sub/claude.md", types.TierStructural},
		{"kb_digest.md", types.TierStatus},
		{"a/b/KB_Digest.md", types.TierStatus},
		{"kb_intel.md", types.TierIntelligence},
		{"notes.md", types.TierGeneral},
		{"deep/path/kb_intel.md", types.TierIntelligence},
	}
	for _, c := range cases {
		if got := ClassifyTier(c.path); got != c.want {
			t.Errorf("ClassifyTier(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestTierPriorityOrdering(t *testing.T) {
	if !(types.TierPriority(types.TierStructural) < types.TierPriority(types.TierStatus) &&
		types.TierPriority(types.TierStatus) < types.TierPriority(types.TierIntelligence) &&
		types.TierPriority(types.TierIntelligence) < types.TierPriority(types.TierGeneral)) {
		t.Fatal("tier priority ordering violated")
	}
}
