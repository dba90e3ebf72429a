package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quiet-coder-io/domainos/internal/health"
	"github.com/quiet-coder-io/domainos/internal/store"
)

var domainStatusCmd = &cobra.Command{
	Use:   "domain-status <domain-name>",
	Short: "brief a single domain: since_window, top_actions, and search_hints (spec §4.H)",
	Args:  cobra.ExactArgs(1),
	RunE:  runDomainStatus,
}

func runDomainStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	domain, err := lookupDomain(cmd, args[0])
	if err != nil {
		return err
	}

	healthRepo := store.NewHealthRepo(db)
	sessionRepo := store.NewSessionRepo(db)
	decisionRepo := store.NewDecisionRepo(db)

	now := time.Now().UTC()

	files, err := healthRepo.ScoredFiles(ctx, domain.ID)
	if err != nil {
		return err
	}
	severity, err := health.ComputeDomainSeverity(ctx, domain.ID, files, fsStatSource{root: domain.Path}, nil, nil, now)
	if err != nil {
		return err
	}
	worstDays := 0
	if severity.WorstFile != nil {
		worstDays = severity.WorstFile.DaysSinceUpdate
	}

	deadlines, err := healthRepo.OverdueDeadlineItems(ctx, domain.ID, now)
	if err != nil {
		return err
	}
	gapFlags, err := healthRepo.OpenGapFlagItems(ctx, domain.ID, now)
	if err != nil {
		return err
	}
	decisions, err := decisionRepo.List(ctx, domain.ID)
	if err != nil {
		return err
	}
	decisionLimit := 2
	if len(decisions) < decisionLimit {
		decisionLimit = len(decisions)
	}
	var topDecisionTexts []string
	for _, d := range decisions[:decisionLimit] {
		topDecisionTexts = append(topDecisionTexts, d.DecisionText)
	}

	wrappedEndedAt, mostRecentStartedAt, err := sessionRepo.MostRecentWindow(ctx, domain.ID)
	if err != nil {
		return err
	}

	snapshot := health.BuildDomainStatusSnapshot(domain.ID, domain.Name, wrappedEndedAt, mostRecentStartedAt,
		deadlines, gapFlags, worstDays, topDecisionTexts, 0)

	fmt.Printf("domain:       %s\n", domain.Name)
	fmt.Printf("since_window: %s\n", snapshot.SinceWindow)
	fmt.Println("top_actions:")
	for _, a := range snapshot.TopActions {
		fmt.Printf("  [%-12s score=%-3d] %s\n", a.Kind, a.PriorityScore, a.Text)
	}
	fmt.Printf("search_hints: %v\n", snapshot.SearchHints)
	return nil
}
