// Package kb implements content-hashed file scanning, tier classification,
// staleness scoring, and heading-aware chunking for a domain's knowledge
// base (spec §4.B, §4.C, §4.D).
package kb

import (
	"path/filepath"
	"strings"

	"github.com/quiet-coder-io/domainos/internal/types"
)

// ClassifyTier maps a relative path to a tier, using only the lowercased
// basename (spec invariant 8.1: tier depends only on basename).
func ClassifyTier(relativePath string) types.Tier {
	base := strings.ToLower(filepath.Base(relativePath))
	switch base {
	case "claude.md":
		return types.TierStructural
	case "kb_digest.md":
		return types.TierStatus
	case "kb_intel.md":
		return types.TierIntelligence
	default:
		return types.TierGeneral
	}
}
