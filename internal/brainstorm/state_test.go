package brainstorm

import (
	"testing"
	"time"

	"github.com/quiet-coder-io/domainos/internal/types"
)

func TestSetStepLegalChain(t *testing.T) {
	s := &Session{Step: types.StepSetup}
	steps := []types.BrainstormStep{types.StepTechniqueSelection, types.StepExecution}
	for _, next := range steps {
		if err := SetStep(s, next); err != nil {
			t.Fatalf("unexpected error transitioning to %s: %v", next, err)
		}
	}
}

func TestSetStepIllegalTransitionRejected(t *testing.T) {
	s := &Session{Step: types.StepSetup}
	err := SetStep(s, types.StepSynthesis)
	if err == nil || err.Code != types.CodeBrainstormIllegalStep {
		t.Fatalf("expected ILLEGAL_TRANSITION, got %v", err)
	}
}

func TestSetStepReturnToSetupOnlyWithZeroIdeas(t *testing.T) {
	s := &Session{Step: types.StepTechniqueSelection, IdeaCount: 0}
	if err := SetStep(s, types.StepSetup); err != nil {
		t.Fatalf("expected legal transition with 0 ideas, got %v", err)
	}

	s2 := &Session{Step: types.StepTechniqueSelection, IdeaCount: 5}
	if err := SetStep(s2, types.StepSetup); err == nil {
		t.Fatal("expected rejection when ideas already exist")
	}
}

func TestSetStepSynthesisRequiresThreeIdeas(t *testing.T) {
	s := &Session{Step: types.StepExecution, IdeaCount: 2}
	if err := SetStep(s, types.StepSynthesis); err == nil || err.Code != types.CodeBrainstormInsufficient {
		t.Fatalf("expected INSUFFICIENT_IDEAS at 2 ideas, got %v", err)
	}

	s.IdeaCount = 3
	if err := SetStep(s, types.StepSynthesis); err != nil {
		t.Fatalf("expected success at 3 ideas, got %v", err)
	}
}

func TestPauseIdempotentAndClosesOpenRound(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	s := &Session{Step: types.StepExecution}
	rounds := []Round{{RoundNumber: 1, TechniqueID: "scamper"}}

	if err := Pause(s, rounds, now); err != nil {
		t.Fatal(err)
	}
	if rounds[0].CompletedAt == nil {
		t.Fatal("expected open round to be closed on pause")
	}
	if s.PausedAt == nil {
		t.Fatal("expected session to be marked paused")
	}

	closedAt := *rounds[0].CompletedAt
	if err := Pause(s, rounds, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if *rounds[0].CompletedAt != closedAt {
		t.Fatal("pause should be idempotent and not re-touch an already-closed round")
	}
}

func TestResumeDoesNotReopenRound(t *testing.T) {
	s := &Session{PausedAt: func() *time.Time { t := time.Now(); return &t }()}
	Resume(s)
	if s.PausedAt != nil {
		t.Fatal("expected resume to clear paused_at")
	}
}

type fakeCatalog struct{}

func (fakeCatalog) Lookup(id string) (string, string, bool) {
	return id + "-name", "ideation", true
}

func TestAddIdeasOpensNewRoundOnTechniqueChange(t *testing.T) {
	s := &Session{Step: types.StepExecution}
	var rounds []Round
	now := time.Now()
	id := int64(0)
	next := func() int64 { id++; return id }

	_, res1, err := AddIdeas(s, &rounds, []string{"idea one", "idea two"}, "scamper", fakeCatalog{}, now, next)
	if err != nil {
		t.Fatal(err)
	}
	if res1.RoundNumber != 1 {
		t.Fatalf("round = %d, want 1", res1.RoundNumber)
	}

	_, res2, err := AddIdeas(s, &rounds, []string{"idea three"}, "six-hats", fakeCatalog{}, now, next)
	if err != nil {
		t.Fatal(err)
	}
	if res2.RoundNumber != 2 {
		t.Fatalf("round = %d, want 2 (new technique should open a new round)", res2.RoundNumber)
	}
	if rounds[0].CompletedAt == nil {
		t.Fatal("expected first round to be closed once a new technique's round opens")
	}
}

func TestAddIdeasCapBoundary(t *testing.T) {
	s := &Session{Step: types.StepExecution, IdeaCount: 499}
	var rounds []Round
	now := time.Now()
	next := func() int64 { return 1 }

	_, res, err := AddIdeas(s, &rounds, []string{"final idea"}, "scamper", fakeCatalog{}, now, next)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Capped {
		t.Fatal("expected capped=true once idea_count reaches 500")
	}

	_, _, err2 := AddIdeas(s, &rounds, []string{"overflow"}, "scamper", fakeCatalog{}, now, next)
	if err2 == nil || err2.Code != types.CodeBrainstormCapReached {
		t.Fatalf("expected CAP_REACHED once idea_count is already 500, got %v", err2)
	}
}

func TestAddIdeasRejectsOnCompletedSession(t *testing.T) {
	s := &Session{Step: types.StepCompleted}
	var rounds []Round
	_, _, err := AddIdeas(s, &rounds, []string{"x"}, "scamper", fakeCatalog{}, time.Now(), func() int64 { return 1 })
	if err == nil {
		t.Fatal("expected rejection on completed session")
	}
}
