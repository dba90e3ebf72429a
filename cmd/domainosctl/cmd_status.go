package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quiet-coder-io/domainos/internal/health"
	"github.com/quiet-coder-io/domainos/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "score portfolio-wide health across every domain and emit cross-domain alerts",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	domainRepo := store.NewDomainRepo(db)
	healthRepo := store.NewHealthRepo(db)

	domains, err := domainRepo.List(ctx)
	if err != nil {
		return err
	}
	rels, err := healthRepo.Relationships(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	severities := make(map[int64]health.DomainSeverity, len(domains))
	inputs := make(map[int64]health.DomainStatusInput, len(domains))
	var snapshotInputs []health.SnapshotInput

	for _, d := range domains {
		files, err := healthRepo.ScoredFiles(ctx, d.ID)
		if err != nil {
			return err
		}
		gapFlags, err := healthRepo.GapFlags(ctx, d.ID)
		if err != nil {
			return err
		}
		deadlines, err := healthRepo.OverdueDeadlines(ctx, d.ID, now)
		if err != nil {
			return err
		}
		severity, err := health.ComputeDomainSeverity(ctx, d.ID, files, fsStatSource{root: d.Path}, gapFlags, deadlines, now)
		if err != nil {
			return err
		}
		severities[d.ID] = severity

		var outgoing, incoming []health.Dependency
		for _, dep := range rels {
			if dep.SourceID == d.ID {
				outgoing = append(outgoing, dep)
			}
			if dep.TargetID == d.ID {
				incoming = append(incoming, dep)
			}
		}
		daysSinceTouch := 0
		hasLastTouched := severity.LastTouchedAt != nil
		if hasLastTouched {
			daysSinceTouch = int(now.Sub(*severity.LastTouchedAt).Hours() / 24)
		}
		inputs[d.ID] = health.DomainStatusInput{
			DomainID:       d.ID,
			Name:           d.Name,
			Severity:       severity,
			OutgoingDeps:   outgoing,
			IncomingDeps:   incoming,
			DaysSinceTouch: daysSinceTouch,
			HasLastTouched: hasLastTouched,
		}
		snapshotInputs = append(snapshotInputs, health.SnapshotInput{
			DomainID:         d.ID,
			Severity:         severity,
			OverdueDeadlines: len(deadlines),
			OutgoingDeps:     outgoing,
			IncomingDeps:     incoming,
		})
	}

	for _, d := range domains {
		status := health.DeriveDomainStatus(inputs[d.ID], severities)
		fmt.Printf("%-24s severity=%-3d status=%-10s files=%d\n", d.Name, severities[d.ID].Severity, status, severities[d.ID].FileCountTotal)
	}

	alerts := health.BuildAlerts(inputs, rels)
	if len(alerts) > 0 {
		fmt.Println("\nalerts:")
		for _, a := range alerts {
			fmt.Printf("[%s] %s\n", a.Severity, a.Text)
		}
	}

	fmt.Printf("\nsnapshot: %s\n", health.SnapshotHash(snapshotInputs))
	return nil
}
