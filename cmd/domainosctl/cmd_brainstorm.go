package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quiet-coder-io/domainos/internal/brainstorm"
	"github.com/quiet-coder-io/domainos/internal/store"
	"github.com/quiet-coder-io/domainos/internal/types"
)

var brainstormCmd = &cobra.Command{
	Use:   "brainstorm",
	Short: "drive a domain's brainstorm session state machine (spec §4.J)",
}

var brainstormCreateCmd = &cobra.Command{
	Use:   "create <domain-name>",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrainstormCreate,
}

var brainstormStepCmd = &cobra.Command{
	Use:   "step <domain-name> <next-step>",
	Short: "advance the active session to technique_selection|execution|synthesis|completed|setup",
	Args:  cobra.ExactArgs(2),
	RunE:  runBrainstormStep,
}

var brainstormPauseCmd = &cobra.Command{
	Use:  "pause <domain-name>",
	Args: cobra.ExactArgs(1),
	RunE: runBrainstormPause,
}

var brainstormResumeCmd = &cobra.Command{
	Use:  "resume <domain-name>",
	Args: cobra.ExactArgs(1),
	RunE: runBrainstormResume,
}

var brainstormAddCmd = &cobra.Command{
	Use:   "add <domain-name> <idea-text...>",
	Short: "append ideas to the active session's open round",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runBrainstormAdd,
}

var brainstormTechniqueID string

var brainstormSynthesizeCmd = &cobra.Command{
	Use:   "synthesize <domain-name> <topic>",
	Short: "run the deterministic synthesizer over the active session's ideas",
	Args:  cobra.ExactArgs(2),
	RunE:  runBrainstormSynthesize,
}

func init() {
	brainstormAddCmd.Flags().StringVar(&brainstormTechniqueID, "technique", "", "technique id for this batch of ideas (defaults to the open round's)")

	brainstormCmd.AddCommand(brainstormCreateCmd)
	brainstormCmd.AddCommand(brainstormStepCmd)
	brainstormCmd.AddCommand(brainstormPauseCmd)
	brainstormCmd.AddCommand(brainstormResumeCmd)
	brainstormCmd.AddCommand(brainstormAddCmd)
	brainstormCmd.AddCommand(brainstormSynthesizeCmd)
}

// staticTechniqueCatalog is a small built-in set of brainstorming
// techniques; domains are free to select any subset in technique_selection.
type staticTechniqueCatalog struct{}

var techniqueNames = map[string][2]string{
	"creative-scamper":             {"SCAMPER", "creative"},
	"creative-reverse-brainstorm":  {"Reverse Brainstorming", "creative"},
	"first-principles":             {"First Principles", "analytical"},
	"what-if":                      {"What If Analysis", "disruptive"},
	"six-thinking-hats":            {"Six Thinking Hats", "structured"},
	"mind-mapping":                 {"Mind Mapping", "associative"},
}

func (staticTechniqueCatalog) Lookup(techniqueID string) (name, category string, ok bool) {
	v, ok := techniqueNames[techniqueID]
	if !ok {
		return "", "", false
	}
	return v[0], v[1], true
}

func lookupDomain(cmd *cobra.Command, name string) (*store.Domain, error) {
	ctx := cmd.Context()
	domainRepo := store.NewDomainRepo(db)
	domains, err := domainRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range domains {
		if domains[i].Name == name {
			return &domains[i], nil
		}
	}
	return nil, fmt.Errorf("unknown domain %q", name)
}

func requireActiveSession(cmd *cobra.Command, repo *store.BrainstormRepo, domainID int64) (*brainstorm.Session, error) {
	s, err := repo.GetActive(cmd.Context(), domainID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &types.Error{Code: types.CodeBrainstormNoSession, Message: "no active brainstorm session for this domain"}
	}
	return s, nil
}

func runBrainstormCreate(cmd *cobra.Command, args []string) error {
	domain, err := lookupDomain(cmd, args[0])
	if err != nil {
		return err
	}
	repo := store.NewBrainstormRepo(db)
	s, err := repo.CreateSession(cmd.Context(), domain.ID)
	if err != nil {
		return err
	}
	fmt.Printf("created session %d for domain %q in step %s\n", s.ID, domain.Name, s.Step)
	return nil
}

func runBrainstormStep(cmd *cobra.Command, args []string) error {
	domain, err := lookupDomain(cmd, args[0])
	if err != nil {
		return err
	}
	next := types.BrainstormStep(args[1])

	repo := store.NewBrainstormRepo(db)
	s, err := requireActiveSession(cmd, repo, domain.ID)
	if err != nil {
		return err
	}
	if terr := brainstorm.SetStep(s, next); terr != nil {
		return terr
	}
	if err := repo.SaveSession(cmd.Context(), s); err != nil {
		return err
	}
	fmt.Printf("session %d: step=%s\n", s.ID, s.Step)
	return nil
}

func runBrainstormPause(cmd *cobra.Command, args []string) error {
	domain, err := lookupDomain(cmd, args[0])
	if err != nil {
		return err
	}
	repo := store.NewBrainstormRepo(db)
	s, err := requireActiveSession(cmd, repo, domain.ID)
	if err != nil {
		return err
	}
	rounds, err := repo.Rounds(cmd.Context(), s.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if terr := brainstorm.Pause(s, rounds, now); terr != nil {
		return terr
	}
	if err := repo.SaveSession(cmd.Context(), s); err != nil {
		return err
	}
	if err := repo.SaveRoundsAndIdeas(cmd.Context(), s.ID, rounds, nil); err != nil {
		return err
	}
	fmt.Printf("session %d paused\n", s.ID)
	return nil
}

func runBrainstormResume(cmd *cobra.Command, args []string) error {
	domain, err := lookupDomain(cmd, args[0])
	if err != nil {
		return err
	}
	repo := store.NewBrainstormRepo(db)
	s, err := requireActiveSession(cmd, repo, domain.ID)
	if err != nil {
		return err
	}
	brainstorm.Resume(s)
	if err := repo.SaveSession(cmd.Context(), s); err != nil {
		return err
	}
	fmt.Printf("session %d resumed\n", s.ID)
	return nil
}

func runBrainstormAdd(cmd *cobra.Command, args []string) error {
	domain, err := lookupDomain(cmd, args[0])
	if err != nil {
		return err
	}
	texts := args[1:]

	repo := store.NewBrainstormRepo(db)
	s, err := requireActiveSession(cmd, repo, domain.ID)
	if err != nil {
		return err
	}
	rounds, err := repo.Rounds(cmd.Context(), s.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	nextID := int64(0)
	ideas, result, terr := brainstorm.AddIdeas(s, &rounds, texts, brainstormTechniqueID, staticTechniqueCatalog{}, now, func() int64 {
		nextID--
		return nextID
	})
	if terr != nil {
		return terr
	}

	if err := repo.SaveSession(cmd.Context(), s); err != nil {
		return err
	}
	if err := repo.SaveRoundsAndIdeas(cmd.Context(), s.ID, rounds, ideas); err != nil {
		return err
	}
	fmt.Printf("session %d: +%d ideas in round %d (capped=%v)\n", s.ID, len(ideas), result.RoundNumber, result.Capped)
	return nil
}

func runBrainstormSynthesize(cmd *cobra.Command, args []string) error {
	domain, err := lookupDomain(cmd, args[0])
	if err != nil {
		return err
	}
	topic := args[1]

	repo := store.NewBrainstormRepo(db)
	s, err := requireActiveSession(cmd, repo, domain.ID)
	if err != nil {
		return err
	}
	if terr := brainstorm.SetStep(s, types.StepSynthesis); terr != nil {
		return terr
	}
	if err := repo.SaveSession(cmd.Context(), s); err != nil {
		return err
	}

	ideas, err := repo.Ideas(cmd.Context(), s.ID)
	if err != nil {
		return err
	}
	rounds, err := repo.Rounds(cmd.Context(), s.ID)
	if err != nil {
		return err
	}
	techniqueSet := map[string]bool{}
	for _, r := range rounds {
		techniqueSet[r.TechniqueName] = true
	}
	var techniques []string
	for name := range techniqueSet {
		techniques = append(techniques, name)
	}

	payload := brainstorm.Synthesize(ideas, brainstorm.SynthInput{
		Topic:          topic,
		TechniquesUsed: techniques,
		RoundCount:     len(rounds),
	})

	out, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Println(strings.TrimSpace(string(out)))
	return nil
}
