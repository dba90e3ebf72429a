package health

import (
	"testing"

	"github.com/quiet-coder-io/domainos/internal/types"
)

func sampleSnapshot() []SnapshotInput {
	return []SnapshotInput{
		{
			DomainID: 1,
			Severity: DomainSeverity{
				FreshByTier:    map[types.Tier]int{types.TierStructural: 2},
				StaleByTier:    map[types.Tier]int{types.TierStatus: 1},
				CriticalByTier: map[types.Tier]int{},
				OpenGapFlags:   1,
			},
			OverdueDeadlines: 2,
			OutgoingDeps:     []Dependency{{SourceID: 1, TargetID: 2, Type: types.DependencyBlocks}},
			IncomingDeps:     nil,
		},
		{
			DomainID: 2,
			Severity: DomainSeverity{
				FreshByTier:    map[types.Tier]int{},
				StaleByTier:    map[types.Tier]int{},
				CriticalByTier: map[types.Tier]int{types.TierStructural: 1},
				OpenGapFlags:   0,
			},
			IncomingDeps: []Dependency{{SourceID: 1, TargetID: 2, Type: types.DependencyBlocks}},
		},
	}
}

func TestSnapshotHashStableUnderDomainReorder(t *testing.T) {
	a := sampleSnapshot()
	b := []SnapshotInput{a[1], a[0]}
	if SnapshotHash(a) != SnapshotHash(b) {
		t.Fatal("snapshot hash changed under domain reorder")
	}
}

func TestSnapshotHashStableUnderDepReorder(t *testing.T) {
	a := sampleSnapshot()
	b := sampleSnapshot()
	b[0].OutgoingDeps = append([]Dependency{{SourceID: 1, TargetID: 3, Type: types.DependencyInforms}}, b[0].OutgoingDeps[0])
	a[0].OutgoingDeps = append(a[0].OutgoingDeps, Dependency{SourceID: 1, TargetID: 3, Type: types.DependencyInforms})

	if SnapshotHash(a) != SnapshotHash(b) {
		t.Fatal("snapshot hash changed under dep reorder within a domain")
	}
}

func TestSnapshotHashChangesOnCounterChange(t *testing.T) {
	a := sampleSnapshot()
	b := sampleSnapshot()
	b[0].Severity.OpenGapFlags = 99

	if SnapshotHash(a) == SnapshotHash(b) {
		t.Fatal("expected hash to change when a counter changes")
	}
}

func TestSnapshotHashChangesOnNewRelationship(t *testing.T) {
	a := sampleSnapshot()
	b := sampleSnapshot()
	b[0].OutgoingDeps = append(b[0].OutgoingDeps, Dependency{SourceID: 1, TargetID: 3, Type: types.DependencyParallel})

	if SnapshotHash(a) == SnapshotHash(b) {
		t.Fatal("expected hash to change when a relationship is added")
	}
}
