package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// ErrTerminalState is returned when a transition is attempted out of
// completed, failed or cancelled. Terminal means terminal.
var ErrTerminalState = fmt.Errorf("pipeline is in a terminal state")

// allowedTransitions encodes the stage graph. Failed and cancelled are
// reachable from every non-terminal stage and are handled separately.
var allowedTransitions = map[models.Stage][]models.Stage{
	models.StageAnalyzing:      {models.StageProcessing},
	models.StageProcessing:     {models.StageLabeling, models.StageModelSelection},
	models.StageLabeling:       {models.StageModelSelection},
	models.StageModelSelection: {models.StageTraining},
	models.StageTraining:       {models.StageEvaluation},
	models.StageEvaluation:     {models.StageDeployment, models.StageCompleted},
	models.StageDeployment:     {models.StageCompleted},
}

// stageProgress maps each stage to the overall progress fraction reported
// once the pipeline has entered it.
var stageProgress = map[models.Stage]float64{
	models.StageAnalyzing:      0.05,
	models.StageProcessing:     0.20,
	models.StageLabeling:       0.30,
	models.StageModelSelection: 0.40,
	models.StageTraining:       0.55,
	models.StageEvaluation:     0.80,
	models.StageDeployment:     0.90,
	models.StageCompleted:      1.0,
	models.StageFailed:         1.0,
	models.StageCancelled:      1.0,
}

// newState creates the pipeline state at the start of a run.
func newState(projectID uuid.UUID, now time.Time) *models.PipelineState {
	return &models.PipelineState{
		ProjectID: projectID,
		Stage:     models.StageAnalyzing,
		Progress:  stageProgress[models.StageAnalyzing],
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// checkTransition validates a stage change without applying it. Any
// non-terminal stage may move to failed or cancelled; everything else must
// follow the stage graph. Transitions out of a terminal state fail loudly.
func checkTransition(from, to models.Stage) error {
	if from.Terminal() {
		return fmt.Errorf("%w: cannot transition %s -> %s", ErrTerminalState, from, to)
	}
	if to == models.StageFailed || to == models.StageCancelled {
		return nil
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("invalid stage transition %s -> %s", from, to)
}

// applyStage mutates stage, progress and the update timestamp after
// checkTransition has passed.
func applyStage(st *models.PipelineState, to models.Stage, now time.Time) {
	st.Stage = to
	if p, ok := stageProgress[to]; ok {
		st.Progress = p
	}
	st.UpdatedAt = now
}

// appendLog adds one entry to the append-only log.
func appendLog(st *models.PipelineState, now time.Time, level, message string) {
	st.Logs = append(st.Logs, models.LogEntry{
		Timestamp: now,
		Level:     level,
		Message:   message,
	})
	st.UpdatedAt = now
}

// appendDecision adds one audit entry to the in-memory list. Durable audit
// persistence happens in the orchestrator, which also owns the event emit.
func appendDecision(st *models.PipelineState, d models.Decision) {
	st.Decisions = append(st.Decisions, d)
	st.UpdatedAt = d.Timestamp
}
