package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/quiet-coder-io/domainos/internal/health"
	"github.com/quiet-coder-io/domainos/internal/store"
)

var healthCmd = &cobra.Command{
	Use:   "health <domain-name>",
	Short: "score one domain's staleness severity (spec §4.G)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHealth,
}

// fsStatSource implements health.StatSource against the domain's KB root on
// disk, falling back to the stored mtime when a file is missing.
type fsStatSource struct {
	root string
}

func (s fsStatSource) Stat(ctx context.Context, relativePath string) (time.Time, error) {
	info, err := os.Stat(filepath.Join(s.root, relativePath))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := args[0]

	domainRepo := store.NewDomainRepo(db)
	healthRepo := store.NewHealthRepo(db)

	domains, err := domainRepo.List(ctx)
	if err != nil {
		return err
	}
	var domain *store.Domain
	for i := range domains {
		if domains[i].Name == name {
			domain = &domains[i]
			break
		}
	}
	if domain == nil {
		return fmt.Errorf("unknown domain %q", name)
	}

	files, err := healthRepo.ScoredFiles(ctx, domain.ID)
	if err != nil {
		return err
	}
	gapFlags, err := healthRepo.GapFlags(ctx, domain.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	deadlines, err := healthRepo.OverdueDeadlines(ctx, domain.ID, now)
	if err != nil {
		return err
	}

	severity, err := health.ComputeDomainSeverity(ctx, domain.ID, files, fsStatSource{root: domain.Path}, gapFlags, deadlines, now)
	if err != nil {
		return err
	}

	rels, err := healthRepo.Relationships(ctx)
	if err != nil {
		return err
	}
	var outgoing, incoming []health.Dependency
	for _, d := range rels {
		if d.SourceID == domain.ID {
			outgoing = append(outgoing, d)
		}
		if d.TargetID == domain.ID {
			incoming = append(incoming, d)
		}
	}
	daysSinceTouch := 0
	hasLastTouched := severity.LastTouchedAt != nil
	if hasLastTouched {
		daysSinceTouch = int(now.Sub(*severity.LastTouchedAt).Hours() / 24)
	}
	status := health.DeriveDomainStatus(health.DomainStatusInput{
		DomainID:       domain.ID,
		Name:           domain.Name,
		Severity:       severity,
		OutgoingDeps:   outgoing,
		IncomingDeps:   incoming,
		DaysSinceTouch: daysSinceTouch,
		HasLastTouched: hasLastTouched,
	}, map[int64]health.DomainSeverity{domain.ID: severity})

	fmt.Printf("domain %q: severity=%d status=%s files=%d open-gaps=%d\n",
		domain.Name, severity.Severity, status, severity.FileCountTotal, severity.OpenGapFlags)
	if severity.WorstFile != nil {
		wf := severity.WorstFile
		fmt.Printf("worst file: %s (%s tier, %dd stale, %s)\n", wf.RelativePath, wf.Tier, wf.DaysSinceUpdate, wf.Level)
	}
	return nil
}
