// Package health computes portfolio-wide severity scoring, cross-domain
// alert escalation, and the derived domain status labels described in
// spec §4.G.
package health

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quiet-coder-io/domainos/internal/kb"
	"github.com/quiet-coder-io/domainos/internal/logging"
	"github.com/quiet-coder-io/domainos/internal/types"
)

const maxConcurrentStats = 16

var tierMult = map[types.Tier]int{
	types.TierStructural:   2,
	types.TierStatus:       4,
	types.TierIntelligence: 3,
	types.TierGeneral:      1,
}

var levelMult = map[types.StalenessLevel]int{
	types.StalenessFresh:    0,
	types.StalenessStale:    1,
	types.StalenessCritical: 3,
}

// FileStat is what the concurrent stat pass needs per scored KB file.
type FileStat struct {
	RelativePath         string
	Tier                 types.Tier
	Mtime                time.Time
	LastSemanticUpdateAt string
}

// StatSource stats one KB file; implemented against the filesystem by the
// caller so this package stays testable without disk I/O.
type StatSource interface {
	Stat(ctx context.Context, relativePath string) (mtime time.Time, err error)
}

// GapFlag is the minimal shape needed for severity/last-touched scoring.
type GapFlag struct {
	CreatedAt  time.Time
	ResolvedAt *time.Time
	Open       bool
}

// Deadline is the minimal shape needed for overdue-severity scoring.
type Deadline struct {
	Priority int // 1 (highest) .. 4+ (lowest)
	Overdue  bool
}

// WorstFile identifies the least-healthy scored file in a domain.
type WorstFile struct {
	RelativePath    string
	Tier            types.Tier
	DaysSinceUpdate int
	Level           types.StalenessLevel
}

// DomainSeverity is the accumulated severity result for one domain.
type DomainSeverity struct {
	DomainID       int64
	Severity       int
	FreshByTier    map[types.Tier]int
	StaleByTier    map[types.Tier]int
	CriticalByTier map[types.Tier]int
	WorstFile      *WorstFile
	LastTouchedAt  *time.Time
	FileCountTotal int
	OpenGapFlags   int
}

func deadlineSeverityContribution(d Deadline) int {
	switch {
	case d.Priority <= 2:
		return 4
	case d.Priority <= 4:
		return 2
	default:
		return 1
	}
}

// ComputeDomainSeverity stats every scored file concurrently (bounded at
// maxConcurrentStats), derives staleness per file, and accumulates the
// severity formula from spec §4.G.
func ComputeDomainSeverity(ctx context.Context, domainID int64, files []FileStat, stats StatSource, gapFlags []GapFlag, deadlines []Deadline, now time.Time) (DomainSeverity, error) {
	timer := logging.StartTimer(logging.CategoryHealth, "ComputeDomainSeverity")
	defer timer.Stop()

	result := DomainSeverity{
		DomainID:       domainID,
		FreshByTier:    map[types.Tier]int{},
		StaleByTier:    map[types.Tier]int{},
		CriticalByTier: map[types.Tier]int{},
		FileCountTotal: len(files),
	}

	type scoredFile struct {
		file  FileStat
		mtime time.Time
		level types.StalenessLevel
		days  int
	}
	scoredFiles := make([]scoredFile, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentStats)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			mtime := f.Mtime
			if stats != nil {
				m, err := stats.Stat(gctx, f.RelativePath)
				if err != nil {
					logging.HealthDebug("stat failed for %s: %v", f.RelativePath, err)
				} else {
					mtime = m
				}
			}
			st := kb.ComputeStaleness(mtime, f.LastSemanticUpdateAt, f.Tier, now)
			scoredFiles[i] = scoredFile{file: f, mtime: mtime, level: st.Level, days: st.DaysSinceUpdate}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	var lastTouched *time.Time
	bumpLastTouched := func(ts time.Time) {
		if lastTouched == nil || ts.After(*lastTouched) {
			v := ts
			lastTouched = &v
		}
	}

	var worst *WorstFile
	worstKey := -1
	for _, sf := range scoredFiles {
		result.Severity += tierMult[sf.file.Tier] * levelMult[sf.level]
		switch sf.level {
		case types.StalenessFresh:
			result.FreshByTier[sf.file.Tier]++
		case types.StalenessStale:
			result.StaleByTier[sf.file.Tier]++
		case types.StalenessCritical:
			result.CriticalByTier[sf.file.Tier]++
		}
		bumpLastTouched(sf.mtime)

		if sf.level == types.StalenessFresh {
			continue
		}
		key := tierMult[sf.file.Tier]*1000 + sf.days
		if key > worstKey {
			worstKey = key
			worst = &WorstFile{RelativePath: sf.file.RelativePath, Tier: sf.file.Tier, DaysSinceUpdate: sf.days, Level: sf.level}
		}
	}
	result.WorstFile = worst

	openGaps := 0
	for _, gf := range gapFlags {
		if gf.Open {
			openGaps++
		}
		bumpLastTouched(gf.CreatedAt)
		if gf.ResolvedAt != nil {
			bumpLastTouched(*gf.ResolvedAt)
		}
	}
	result.OpenGapFlags = openGaps
	result.Severity += openGaps * 2

	deadlineSeverity := 0
	for _, d := range deadlines {
		if !d.Overdue {
			continue
		}
		deadlineSeverity += deadlineSeverityContribution(d)
	}
	if deadlineSeverity > 12 {
		deadlineSeverity = 12
	}
	result.Severity += deadlineSeverity
	result.LastTouchedAt = lastTouched

	return result, nil
}

// Dependency is a directed edge between domains used for status derivation
// and alert generation.
type Dependency struct {
	SourceID    int64
	TargetID    int64
	Type        types.DependencyType
	Description string
}

// DomainStatusInput bundles one domain's severity with the relationship
// edges needed to derive its status label.
type DomainStatusInput struct {
	DomainID        int64
	Name            string
	Severity        DomainSeverity
	OutgoingDeps    []Dependency
	IncomingDeps    []Dependency
	DaysSinceTouch  int
	HasLastTouched  bool
}

func isHardDependencyType(t types.DependencyType) bool {
	return t == types.DependencyBlocks || t == types.DependencyDependsOn
}

// DeriveDomainStatus computes the blocked/stale-risk/quiet/active label for
// one domain. bySeverity must contain every domain's severity (keyed by
// domain id) since "blocked" depends on upstream domains' critical counts.
func DeriveDomainStatus(d DomainStatusInput, bySeverity map[int64]DomainSeverity) types.DomainStatus {
	for _, dep := range d.IncomingDeps {
		if !isHardDependencyType(dep.Type) {
			continue
		}
		src, ok := bySeverity[dep.SourceID]
		if !ok {
			continue
		}
		if src.CriticalByTier[types.TierStatus] > 0 || src.CriticalByTier[types.TierStructural] > 0 {
			return types.DomainBlocked
		}
	}

	hasHardOutgoing := false
	for _, dep := range d.OutgoingDeps {
		if isHardDependencyType(dep.Type) {
			hasHardOutgoing = true
			break
		}
	}

	if d.Severity.Severity >= 3 && hasHardOutgoing {
		return types.DomainStaleRisk
	}

	if d.Severity.Severity == 0 && !hasHardOutgoing && d.HasLastTouched && d.DaysSinceTouch > 14 {
		return types.DomainQuiet
	}
	if d.Severity.FileCountTotal == 0 && d.Severity.Severity == 0 {
		return types.DomainQuiet
	}
	if d.Severity.FileCountTotal > 0 && !d.HasLastTouched && d.Severity.Severity == 0 {
		return types.DomainQuiet
	}

	return types.DomainActive
}

// Alert is one cross-domain health alert.
type Alert struct {
	SourceID int64
	TargetID int64
	Severity types.AlertSeverity
	Text     string
}

func baseAlertSeverity(score int) types.AlertSeverity {
	switch {
	case score >= 7:
		return types.AlertCritical
	case score >= 3:
		return types.AlertWarning
	default:
		return types.AlertMonitor
	}
}

func escalate(sev types.AlertSeverity) types.AlertSeverity {
	switch sev {
	case types.AlertMonitor:
		return types.AlertWarning
	case types.AlertWarning:
		return types.AlertCritical
	default:
		return types.AlertCritical
	}
}

func alertSeverityRank(sev types.AlertSeverity) int {
	switch sev {
	case types.AlertCritical:
		return 0
	case types.AlertWarning:
		return 1
	default:
		return 2
	}
}

// BuildAlerts generates cross-domain alerts for every blocks/depends_on edge
// whose source domain has nonzero severity, escalating blocks edges one
// step. Alerts are sorted critical, warning, monitor, and stable under
// input reorder.
func BuildAlerts(domains map[int64]DomainStatusInput, deps []Dependency) []Alert {
	var alerts []Alert
	for _, dep := range deps {
		if !isHardDependencyType(dep.Type) {
			continue
		}
		src, ok := domains[dep.SourceID]
		if !ok || src.Severity.Severity == 0 {
			continue
		}
		sev := baseAlertSeverity(src.Severity.Severity)
		if dep.Type == types.DependencyBlocks {
			sev = escalate(sev)
		}
		target := domains[dep.TargetID]
		alerts = append(alerts, Alert{
			SourceID: dep.SourceID,
			TargetID: dep.TargetID,
			Severity: sev,
			Text:     formatAlertText(src, target, dep),
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := alertSeverityRank(alerts[i].Severity), alertSeverityRank(alerts[j].Severity)
		if ri != rj {
			return ri < rj
		}
		if alerts[i].SourceID != alerts[j].SourceID {
			return alerts[i].SourceID < alerts[j].SourceID
		}
		if alerts[i].TargetID != alerts[j].TargetID {
			return alerts[i].TargetID < alerts[j].TargetID
		}
		return alerts[i].Text < alerts[j].Text
	})
	return alerts
}

func formatAlertText(src, target DomainStatusInput, dep Dependency) string {
	verb := "Blocks"
	if dep.Type == types.DependencyDependsOn {
		verb = "Depended on by"
	}

	var base string
	if src.Severity.WorstFile != nil {
		wf := src.Severity.WorstFile
		base = src.Name + " " + wf.RelativePath + " " + itoa(wf.DaysSinceUpdate) + "d stale (" + string(wf.Tier) + " tier)."
	} else {
		base = src.Name + " severity score: " + itoa(src.Severity.Severity)
	}

	tail := " " + verb + " " + target.Name
	if dep.Description != "" {
		tail += ": '" + dep.Description + "'"
	}
	tail += "."

	gapSuffix := ""
	if target.Severity.OpenGapFlags > 0 {
		gapSuffix = " " + target.Name + " has " + itoa(target.Severity.OpenGapFlags) + " open gap(s)?."
	}
	return base + tail + gapSuffix
}

func itoa(n int) string {
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
