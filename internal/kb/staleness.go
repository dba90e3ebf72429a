package kb

import (
	"math"
	"time"

	"github.com/quiet-coder-io/domainos/internal/types"
)

// staleThresholds holds the stale/critical day boundaries for a tier.
type staleThresholds struct {
	staleDays    int
	criticalDays int
}

var tierThresholds = map[types.Tier]staleThresholds{
	types.TierStructural:   {staleDays: 30, criticalDays: 90},
	types.TierStatus:       {staleDays: 7, criticalDays: 21},
	types.TierIntelligence: {staleDays: 14, criticalDays: 45},
	types.TierGeneral:      {staleDays: 14, criticalDays: 45},
}

// Staleness is the result of scoring a file's age against its tier.
type Staleness struct {
	Level           types.StalenessLevel
	DaysSinceUpdate int
	Basis           types.StalenessBasis
}

// ComputeStaleness scores a file given its mtime, an optional ISO-8601
// semantic-update timestamp (preferred when present and parseable), and
// its tier. Staleness is monotonic in days-since-update at a fixed tier
// (spec invariant 8.2): levels never regress as days increase.
func ComputeStaleness(mtime time.Time, lastSemanticUpdateAt string, tier types.Tier, now time.Time) Staleness {
	ref := mtime
	basis := types.BasisMtime
	if lastSemanticUpdateAt != "" {
		if t, err := time.Parse(time.RFC3339, lastSemanticUpdateAt); err == nil {
			ref = t
			basis = types.BasisSemantic
		}
	}

	days := int(math.Floor(now.Sub(ref).Hours() / 24))
	if days < 0 {
		days = 0
	}

	th := tierThresholds[tier]
	level := types.StalenessFresh
	switch {
	case days >= th.criticalDays:
		level = types.StalenessCritical
	case days >= th.staleDays:
		level = types.StalenessStale
	}

	return Staleness{Level: level, DaysSinceUpdate: days, Basis: basis}
}
