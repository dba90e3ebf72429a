// Package brainstorm implements the brainstorm session state machine and
// the deterministic idea-clustering synthesizer described in spec §4.J.
package brainstorm

import (
	"time"

	"github.com/quiet-coder-io/domainos/internal/types"
)

var legalTransitions = map[types.BrainstormStep]map[types.BrainstormStep]bool{
	types.StepSetup:              {types.StepTechniqueSelection: true},
	types.StepTechniqueSelection: {types.StepExecution: true, types.StepSetup: true},
	types.StepExecution:          {types.StepTechniqueSelection: true, types.StepSynthesis: true},
	types.StepSynthesis:          {types.StepCompleted: true},
}

// Session is the minimal brainstorm-session state the transition and
// mutation functions operate on.
type Session struct {
	ID               int64
	DomainID         int64
	Step             types.BrainstormStep
	IdeaCount        int
	PausedAt         *time.Time
	SelectedTechniques []string
}

// Phase derives the divergent/convergent phase from the current step.
func Phase(step types.BrainstormStep) types.BrainstormPhase {
	if step == types.StepSynthesis || step == types.StepCompleted {
		return types.PhaseConvergent
	}
	return types.PhaseDivergent
}

const softIdeaCap = 500

// SetStep validates and applies a step transition. technique_selection →
// setup is only legal when idea_count == 0; synthesis requires idea_count
// ≥ 3 to be reached from execution.
func SetStep(s *Session, next types.BrainstormStep) *types.Error {
	if next == types.StepSetup && s.Step == types.StepTechniqueSelection && s.IdeaCount != 0 {
		return &types.Error{Code: types.CodeBrainstormIllegalStep, Field: "step", Message: "cannot return to setup once ideas exist"}
	}
	allowed := legalTransitions[s.Step]
	if allowed == nil || !allowed[next] {
		return &types.Error{Code: types.CodeBrainstormIllegalStep, Field: "step", Message: string(s.Step) + " -> " + string(next) + " is not a legal transition"}
	}
	if next == types.StepSynthesis && s.IdeaCount < 3 {
		return &types.Error{Code: types.CodeBrainstormInsufficient, Field: "step", Message: "synthesis requires at least 3 ideas"}
	}
	s.Step = next
	return nil
}

func pausable(step types.BrainstormStep) bool {
	return step == types.StepTechniqueSelection || step == types.StepExecution || step == types.StepSynthesis
}

// Round is one batch of ideas generated under a single technique.
type Round struct {
	RoundNumber  int
	TechniqueID  string
	TechniqueName string
	Category     string
	CompletedAt  *time.Time
}

// Pause closes any open round and marks the session paused. Idempotent:
// pausing an already-paused session is a no-op. Only legal in
// {technique_selection, execution, synthesis}.
func Pause(s *Session, rounds []Round, now time.Time) *types.Error {
	if !pausable(s.Step) {
		return &types.Error{Code: types.CodeBrainstormIllegalStep, Field: "pause", Message: "cannot pause in step " + string(s.Step)}
	}
	if s.PausedAt != nil {
		return nil
	}
	for i := range rounds {
		if rounds[i].CompletedAt == nil {
			t := now
			rounds[i].CompletedAt = &t
		}
	}
	t := now
	s.PausedAt = &t
	return nil
}

// Resume clears the paused flag. Idempotent, and deliberately does NOT
// reopen the round that Pause closed — the next add_ideas call opens a
// fresh one via getOrCreateOpenRound.
func Resume(s *Session) {
	s.PausedAt = nil
}

func openRound(rounds []Round) *Round {
	for i := len(rounds) - 1; i >= 0; i-- {
		if rounds[i].CompletedAt == nil {
			return &rounds[i]
		}
	}
	return nil
}

// Idea is one recorded brainstorm idea.
type Idea struct {
	ID           int64
	RoundNumber  int
	TechniqueID  string
	TechniqueName string
	Category     string
	Text         string
	Timestamp    time.Time
}

// TechniqueCatalog resolves a technique id to its display name and
// category so new rounds can snapshot them at creation time.
type TechniqueCatalog interface {
	Lookup(techniqueID string) (name, category string, ok bool)
}

// AddIdeasResult reports the round the ideas landed in and whether the
// soft idea cap was reached.
type AddIdeasResult struct {
	RoundNumber int
	Capped      bool
}

// AddIdeas appends 1-50 ideas to the session, resolving which round they
// belong to per spec §4.J, and returns the new ideas plus an AddIdeasResult
// (callers supply nextID since id generation is a storage-layer concern).
func AddIdeas(s *Session, rounds *[]Round, texts []string, techniqueID string, catalog TechniqueCatalog, now time.Time, nextID func() int64) ([]Idea, AddIdeasResult, *types.Error) {
	if s.Step == types.StepCompleted {
		return nil, AddIdeasResult{}, &types.Error{Code: types.CodeBrainstormIllegalStep, Field: "add_ideas", Message: "session is completed"}
	}
	if s.IdeaCount >= softIdeaCap {
		return nil, AddIdeasResult{}, &types.Error{Code: types.CodeBrainstormCapReached, Field: "idea_count"}
	}
	if len(texts) == 0 || len(texts) > 50 {
		return nil, AddIdeasResult{}, &types.Error{Code: types.CodeValidation, Field: "ideas", Message: "must supply between 1 and 50 ideas"}
	}

	open := openRound(*rounds)
	useOpen := open != nil && (techniqueID == "" || open.TechniqueID == techniqueID)

	var round *Round
	if useOpen {
		round = open
	} else {
		if open != nil {
			t := now
			open.CompletedAt = &t
		}
		resolvedTechnique := techniqueID
		if resolvedTechnique == "" && open != nil {
			resolvedTechnique = open.TechniqueID
		}
		if resolvedTechnique == "" && len(s.SelectedTechniques) > 0 {
			resolvedTechnique = s.SelectedTechniques[0]
		}
		if resolvedTechnique == "" {
			return nil, AddIdeasResult{}, &types.Error{Code: types.CodeBrainstormUnknownTechnique, Field: "technique_id"}
		}
		name, category := resolvedTechnique, ""
		if catalog != nil {
			if n, c, ok := catalog.Lookup(resolvedTechnique); ok {
				name, category = n, c
			}
		}
		nextRoundNumber := 1
		for _, r := range *rounds {
			if r.RoundNumber >= nextRoundNumber {
				nextRoundNumber = r.RoundNumber + 1
			}
		}
		*rounds = append(*rounds, Round{RoundNumber: nextRoundNumber, TechniqueID: resolvedTechnique, TechniqueName: name, Category: category})
		round = &(*rounds)[len(*rounds)-1]
	}

	ideas := make([]Idea, 0, len(texts))
	for _, text := range texts {
		ideas = append(ideas, Idea{
			ID:            nextID(),
			RoundNumber:   round.RoundNumber,
			TechniqueID:   round.TechniqueID,
			TechniqueName: round.TechniqueName,
			Category:      round.Category,
			Text:          text,
			Timestamp:     now,
		})
	}

	s.IdeaCount += len(ideas)
	return ideas, AddIdeasResult{RoundNumber: round.RoundNumber, Capped: s.IdeaCount >= softIdeaCap}, nil
}
