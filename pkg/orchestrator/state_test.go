package orchestrator

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/modelpilot-ai/platform/pkg/common/models"
)

func TestCheckTransitionGraph(t *testing.T) {
	valid := []struct{ from, to models.Stage }{
		{models.StageAnalyzing, models.StageProcessing},
		{models.StageProcessing, models.StageLabeling},
		{models.StageProcessing, models.StageModelSelection},
		{models.StageLabeling, models.StageModelSelection},
		{models.StageModelSelection, models.StageTraining},
		{models.StageTraining, models.StageEvaluation},
		{models.StageEvaluation, models.StageDeployment},
		{models.StageEvaluation, models.StageCompleted},
		{models.StageDeployment, models.StageCompleted},
	}
	for _, tc := range valid {
		if err := checkTransition(tc.from, tc.to); err != nil {
			t.Fatalf("%s -> %s must be allowed: %v", tc.from, tc.to, err)
		}
	}

	invalid := []struct{ from, to models.Stage }{
		{models.StageAnalyzing, models.StageTraining},
		{models.StageProcessing, models.StageEvaluation},
		{models.StageTraining, models.StageDeployment},
		{models.StageEvaluation, models.StageAnalyzing},
		{models.StageDeployment, models.StageTraining},
	}
	for _, tc := range invalid {
		if err := checkTransition(tc.from, tc.to); err == nil {
			t.Fatalf("%s -> %s must be rejected", tc.from, tc.to)
		}
	}
}

func TestCheckTransitionFailureAndCancel(t *testing.T) {
	nonTerminal := []models.Stage{
		models.StageAnalyzing, models.StageProcessing, models.StageLabeling,
		models.StageModelSelection, models.StageTraining, models.StageEvaluation,
		models.StageDeployment,
	}
	for _, from := range nonTerminal {
		if err := checkTransition(from, models.StageFailed); err != nil {
			t.Fatalf("%s -> failed must be allowed: %v", from, err)
		}
		if err := checkTransition(from, models.StageCancelled); err != nil {
			t.Fatalf("%s -> cancelled must be allowed: %v", from, err)
		}
	}
}

func TestCheckTransitionTerminalIsLoud(t *testing.T) {
	for _, from := range []models.Stage{models.StageCompleted, models.StageFailed, models.StageCancelled} {
		for _, to := range []models.Stage{models.StageAnalyzing, models.StageTraining, models.StageFailed, models.StageCancelled} {
			err := checkTransition(from, to)
			if err == nil {
				t.Fatalf("%s -> %s must fail", from, to)
			}
			if !errors.Is(err, ErrTerminalState) {
				t.Fatalf("%s -> %s must wrap ErrTerminalState, got %v", from, to, err)
			}
		}
	}
}

func TestStageProgressMonotonic(t *testing.T) {
	order := []models.Stage{
		models.StageAnalyzing, models.StageProcessing, models.StageLabeling,
		models.StageModelSelection, models.StageTraining, models.StageEvaluation,
		models.StageDeployment, models.StageCompleted,
	}
	prev := -1.0
	for _, stage := range order {
		p, ok := stageProgress[stage]
		if !ok {
			t.Fatalf("no progress for %s", stage)
		}
		if p <= prev {
			t.Fatalf("progress not monotonic at %s: %v <= %v", stage, p, prev)
		}
		prev = p
	}
	if stageProgress[models.StageCompleted] != 1.0 {
		t.Fatal("completed must report progress 1.0")
	}
}

func TestApplyStageAndLogs(t *testing.T) {
	id := uuid.New()
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	st := newState(id, start)

	if st.Stage != models.StageAnalyzing || st.Progress != stageProgress[models.StageAnalyzing] {
		t.Fatalf("fresh state wrong: %+v", st)
	}

	later := start.Add(time.Minute)
	applyStage(st, models.StageProcessing, later)
	if st.Stage != models.StageProcessing || st.Progress != stageProgress[models.StageProcessing] {
		t.Fatalf("applyStage wrong: %+v", st)
	}
	if !st.UpdatedAt.Equal(later) {
		t.Fatalf("UpdatedAt = %v, want %v", st.UpdatedAt, later)
	}

	appendLog(st, later, "info", "first")
	appendLog(st, later.Add(time.Second), "warn", "second")
	if len(st.Logs) != 2 || st.Logs[0].Message != "first" || st.Logs[1].Level != "warn" {
		t.Fatalf("log append wrong: %+v", st.Logs)
	}
}
