package health

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

type depKey struct {
	TargetID int64            `json:"target_id"`
	Type     string           `json:"dep_type"`
}

type snapshotDomain struct {
	DomainID         int64    `json:"domain_id"`
	StaleSummary     [3]int   `json:"stale_summary"` // [fresh, stale, critical] totals across tiers
	OpenGapFlags     int      `json:"open_gap_flags"`
	OverdueDeadlines int      `json:"overdue_deadlines"`
	OutgoingDeps     []depKey `json:"outgoing_deps"`
	IncomingDeps     []depKey `json:"incoming_deps"`
}

func toDepKeys(deps []Dependency, pickID func(Dependency) int64) []depKey {
	keys := make([]depKey, len(deps))
	for i, d := range deps {
		keys[i] = depKey{TargetID: pickID(d), Type: string(d.Type)}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TargetID != keys[j].TargetID {
			return keys[i].TargetID < keys[j].TargetID
		}
		return keys[i].Type < keys[j].Type
	})
	return keys
}

// SnapshotInput is one domain's counters as fed into the portfolio snapshot
// hash.
type SnapshotInput struct {
	DomainID         int64
	Severity         DomainSeverity
	OverdueDeadlines int
	OutgoingDeps     []Dependency
	IncomingDeps     []Dependency
}

// SnapshotHash computes a deterministic SHA-256 over the portfolio state:
// domains sorted by id, each with a canonicalized set of counters and
// deps sorted by (target/source id, dep type). Input ordering of the
// domains slice and of each domain's dep slices has no effect on the hash.
func SnapshotHash(domains []SnapshotInput) string {
	sorted := make([]SnapshotInput, len(domains))
	copy(sorted, domains)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DomainID < sorted[j].DomainID })

	out := make([]snapshotDomain, len(sorted))
	for i, d := range sorted {
		fresh := 0
		for _, v := range d.Severity.FreshByTier {
			fresh += v
		}
		stale := 0
		for _, v := range d.Severity.StaleByTier {
			stale += v
		}
		critical := 0
		for _, v := range d.Severity.CriticalByTier {
			critical += v
		}
		out[i] = snapshotDomain{
			DomainID:         d.DomainID,
			StaleSummary:     [3]int{fresh, stale, critical},
			OpenGapFlags:     d.Severity.OpenGapFlags,
			OverdueDeadlines: d.OverdueDeadlines,
			OutgoingDeps:     toDepKeys(d.OutgoingDeps, func(dep Dependency) int64 { return dep.TargetID }),
			IncomingDeps:     toDepKeys(d.IncomingDeps, func(dep Dependency) int64 { return dep.SourceID }),
		}
	}

	canonical, err := json.Marshal(out)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
