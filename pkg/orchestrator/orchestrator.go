package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelpilot-ai/platform/pkg/common/logger"
	"github.com/modelpilot-ai/platform/pkg/common/models"
	"github.com/modelpilot-ai/platform/pkg/evaluation"
	"github.com/modelpilot-ai/platform/pkg/events"
	"github.com/modelpilot-ai/platform/pkg/profile"
	"github.com/modelpilot-ai/platform/pkg/reasoning"
	"github.com/modelpilot-ai/platform/pkg/selection"
	"github.com/modelpilot-ai/platform/pkg/storage"
	"github.com/modelpilot-ai/platform/pkg/trainer"
)

const entityPipeline = "pipeline"

// ErrPipelineRunning is returned when a second run is started for a project
// whose pipeline is still executing.
var ErrPipelineRunning = fmt.Errorf("pipeline already running for project")

// ErrCancelled is surfaced by Run when a cancel request was observed.
var ErrCancelled = fmt.Errorf("pipeline cancelled")

// StartRequest carries everything one pipeline run needs.
type StartRequest struct {
	ProjectID    uuid.UUID
	ProblemText  string
	Rows         []map[string]interface{}
	DatasetURI   string
	TargetColumn string
	SizeBytes    int64
	ModalityHint string
	Preferences  selection.Preferences
	Thresholds   map[string]evaluation.Threshold
}

// Options tune orchestrator behavior; zero values get sane defaults.
type Options struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
	Clock        trainer.Clock
}

// Orchestrator drives the staged pipeline for each project. It is the only
// writer of a project's PipelineState; per-project guards serialize runs and
// no lock is held across external boundary calls.
type Orchestrator struct {
	store       storage.Store
	audit       *storage.AuditLog
	cache       *storage.StateCache
	broadcaster *events.Broadcaster
	reasoner    reasoning.Service
	engine      *selection.Engine
	backend     trainer.Backend

	pollInterval time.Duration
	pollTimeout  time.Duration
	clock        trainer.Clock

	mu       sync.Mutex
	projects map[uuid.UUID]*projectGuard
}

type projectGuard struct {
	running   bool
	cancelled bool
}

func New(store storage.Store, cache *storage.StateCache, broadcaster *events.Broadcaster, reasoner reasoning.Service, engine *selection.Engine, backend trainer.Backend, opts Options) *Orchestrator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = trainer.RealClock
	}
	return &Orchestrator{
		store:        store,
		audit:        storage.NewAuditLog(store),
		cache:        cache,
		broadcaster:  broadcaster,
		reasoner:     reasoner,
		engine:       engine,
		backend:      backend,
		pollInterval: opts.PollInterval,
		pollTimeout:  opts.PollTimeout,
		clock:        opts.Clock,
		projects:     map[uuid.UUID]*projectGuard{},
	}
}

// Run executes the full pipeline for one project synchronously. Callers that
// want asynchrony start it in a goroutine; Run re-raises fatal stage errors
// after recording them, and never retries anything itself.
func (o *Orchestrator) Run(ctx context.Context, req StartRequest) (err error) {
	if err := o.acquire(req.ProjectID); err != nil {
		return err
	}
	defer o.release(req.ProjectID)

	now := o.clock.Now().UTC()
	st := newState(req.ProjectID, now)
	appendLog(st, now, "info", "pipeline started")
	if err := o.persist(ctx, st); err != nil {
		return fmt.Errorf("persist initial state: %w", err)
	}
	o.emit(st, models.EventStageTransition, map[string]interface{}{
		"stage":    string(st.Stage),
		"progress": st.Progress,
	})

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panic: %v", r)
		}
		if err != nil && err != ErrCancelled {
			o.fail(ctx, st, err)
		}
	}()

	// Analysis.
	if err := o.checkCancel(ctx, st); err != nil {
		return err
	}
	analysis := o.runAnalysis(ctx, st, req)
	if err := o.transition(ctx, st, models.StageProcessing); err != nil {
		return err
	}

	// Processing.
	if err := o.checkCancel(ctx, st); err != nil {
		return err
	}
	prof := o.runProcessing(ctx, st, req)

	next := models.StageModelSelection
	if !analysis.HasLabels && req.TargetColumn == "" {
		next = models.StageLabeling
	}
	if err := o.transition(ctx, st, next); err != nil {
		return err
	}
	if next == models.StageLabeling {
		if err := o.checkCancel(ctx, st); err != nil {
			return err
		}
		o.runLabeling(ctx, st)
		if err := o.transition(ctx, st, models.StageModelSelection); err != nil {
			return err
		}
	}

	// Model selection.
	if err := o.checkCancel(ctx, st); err != nil {
		return err
	}
	rec, err := o.runModelSelection(ctx, st, analysis, prof, req.Preferences)
	if err != nil {
		return err
	}
	if err := o.transition(ctx, st, models.StageTraining); err != nil {
		return err
	}

	// Training.
	if err := o.checkCancel(ctx, st); err != nil {
		return err
	}
	outcome, status, err := o.runTraining(ctx, st, req, rec, analysis)
	if err != nil {
		return err
	}
	if err := o.transition(ctx, st, models.StageEvaluation); err != nil {
		return err
	}

	// Evaluation.
	if err := o.checkCancel(ctx, st); err != nil {
		return err
	}
	evalResult, err := o.runEvaluation(ctx, st, req, analysis, status)
	if err != nil {
		return err
	}

	// Deployment only on ACCEPT; otherwise the run completes with no
	// deployment result.
	if evalResult.Decision == models.DecisionAccept {
		if err := o.transition(ctx, st, models.StageDeployment); err != nil {
			return err
		}
		if err := o.checkCancel(ctx, st); err != nil {
			return err
		}
		if err := o.runDeployment(ctx, st, outcome); err != nil {
			return err
		}
	} else {
		now := o.clock.Now().UTC()
		appendLog(st, now, "info", "evaluation rejected the model; skipping deployment")
	}

	if err := o.transition(ctx, st, models.StageCompleted); err != nil {
		return err
	}
	o.emit(st, models.EventCompleted, map[string]interface{}{
		"decision": evalResult.Decision,
		"deployed": st.Deployment != nil,
	})
	return nil
}

func (o *Orchestrator) runAnalysis(ctx context.Context, st *models.PipelineState, req StartRequest) models.ProblemAnalysis {
	sample := req.Rows
	if len(sample) > 20 {
		sample = sample[:20]
	}

	analysis, err := o.reasoner.Analyze(ctx, req.ProblemText, sample, req.ModalityHint)
	if err != nil {
		// Advisory failures are recoverable: degrade to the keyword heuristic.
		logger.WithProject(st.ProjectID.String()).WithError(err).Warn("Reasoning service failed, using heuristic analysis")
		appendLog(st, o.clock.Now().UTC(), "warn", fmt.Sprintf("reasoning service unavailable (%v); fell back to heuristic analysis", err))
		analysis = reasoning.HeuristicAnalyze(req.ProblemText, sample, req.ModalityHint)
	}
	if req.TargetColumn != "" {
		analysis.HasLabels = true
		analysis.TargetVariable = req.TargetColumn
	}
	st.Analysis = &analysis

	o.recordDecision(ctx, st, models.Decision{
		Timestamp:    o.clock.Now().UTC(),
		Stage:        models.StageAnalyzing,
		DecisionType: "problem_analysis",
		Decision:     fmt.Sprintf("%s/%s", analysis.ProblemType, analysis.DataModality),
		Reasoning:    analysis.Reasoning,
		Confidence:   analysis.Confidence,
		Metadata: map[string]interface{}{
			"domain":            analysis.Domain,
			"complexity_score":  analysis.ComplexityScore,
			"suggested_metrics": analysis.SuggestedMetrics,
			"has_labels":        analysis.HasLabels,
		},
	})
	return analysis
}

func (o *Orchestrator) runProcessing(ctx context.Context, st *models.PipelineState, req StartRequest) models.DatasetProfile {
	prof := profile.Build(req.Rows, req.TargetColumn, req.SizeBytes)
	st.Profile = &prof

	reasoningText := fmt.Sprintf(
		"profiled %d samples with %d features (%d numeric, %d categorical, %d text, %d datetime), %.1f%% missing values",
		prof.NumSamples, prof.NumFeatures, prof.NumericFeatures, prof.CategoricalFeatures,
		prof.TextFeatures, prof.DatetimeFeatures, prof.MissingRatio*100)
	if prof.ClassImbalanceRatio != nil {
		reasoningText += fmt.Sprintf(", class imbalance ratio %.3f", *prof.ClassImbalanceRatio)
	}

	o.recordDecision(ctx, st, models.Decision{
		Timestamp:    o.clock.Now().UTC(),
		Stage:        models.StageProcessing,
		DecisionType: "dataset_profile",
		Decision:     fmt.Sprintf("%d samples x %d features", prof.NumSamples, prof.NumFeatures),
		Reasoning:    reasoningText,
		Confidence:   1.0,
		Metadata: map[string]interface{}{
			"missing_ratio":        prof.MissingRatio,
			"dimensionality_ratio": prof.DimensionalityRatio,
			"size_mb":              prof.SizeMB,
		},
	})
	return prof
}

func (o *Orchestrator) runLabeling(ctx context.Context, st *models.PipelineState) {
	o.recordDecision(ctx, st, models.Decision{
		Timestamp:    o.clock.Now().UTC(),
		Stage:        models.StageLabeling,
		DecisionType: "labeling",
		Decision:     "labels_required",
		Reasoning:    "analysis reported an unlabeled dataset with no target column; labeling must complete before model selection",
		Confidence:   1.0,
	})
}

func (o *Orchestrator) runModelSelection(ctx context.Context, st *models.PipelineState, analysis models.ProblemAnalysis, prof models.DatasetProfile, prefs selection.Preferences) (models.ModelRecommendation, error) {
	ruleBased, err := o.engine.SelectModel(analysis.ProblemType, analysis.DataModality, prof, analysis.Domain, analysis.ComplexityScore, prefs)
	if err != nil {
		return models.ModelRecommendation{}, fmt.Errorf("model selection: %w", err)
	}

	rec := ruleBased
	advisory, err := o.reasoner.AdviseModel(ctx, reasoning.AdviceContext{
		Analysis: analysis,
		Profile:  prof,
		Domain:   analysis.Domain,
	})
	if err != nil {
		logger.WithProject(st.ProjectID.String()).WithError(err).Warn("Advisory recommendation failed, using rule engine only")
		appendLog(st, o.clock.Now().UTC(), "warn", fmt.Sprintf("advisory service unavailable (%v); using rule-based selection only", err))
	} else {
		rec = selection.Merge(ruleBased, advisory)
	}
	st.Recommendation = &rec

	o.recordDecision(ctx, st, models.Decision{
		Timestamp:    o.clock.Now().UTC(),
		Stage:        models.StageModelSelection,
		DecisionType: "model_selection",
		Decision:     rec.Architecture,
		Reasoning:    rec.Reasoning,
		Confidence:   rec.Confidence,
		Metadata: map[string]interface{}{
			"strategy":           rec.Strategy,
			"backend_product":    rec.BackendProduct,
			"estimated_minutes":  rec.EstimatedMinutes,
			"estimated_cost_usd": rec.EstimatedCostUSD,
			"alternatives":       len(rec.Alternatives),
		},
	})
	return rec, nil
}

func (o *Orchestrator) runTraining(ctx context.Context, st *models.PipelineState, req StartRequest, rec models.ModelRecommendation, analysis models.ProblemAnalysis) (*models.TrainingOutcome, trainer.Status, error) {
	primaryMetric := primaryMetricFor(analysis)
	spec := trainer.BuildJobSpec(req.ProjectID.String(), rec, req.DatasetURI, req.TargetColumn, primaryMetric)

	submission, err := o.backend.Submit(ctx, spec)
	if err != nil {
		return nil, trainer.Status{}, fmt.Errorf("training submission: %w", err)
	}
	outcome := &models.TrainingOutcome{
		JobID:          submission.JobID,
		ResourceHandle: submission.ResourceHandle,
		State:          trainer.StateQueued,
		SubmittedAt:    o.clock.Now().UTC(),
	}
	st.Training = outcome
	appendLog(st, o.clock.Now().UTC(), "info", fmt.Sprintf("training job %s submitted to %s", submission.JobID, rec.BackendProduct))
	if err := o.persist(ctx, st); err != nil {
		return nil, trainer.Status{}, err
	}

	result, err := trainer.PollUntilDone(ctx, o.backend, submission.ResourceHandle, o.pollInterval, o.pollTimeout, o.clock)
	if err != nil {
		return nil, trainer.Status{}, fmt.Errorf("training poll: %w", err)
	}

	outcome.State = result.Status.State
	outcome.TimedOut = result.TimedOut
	outcome.ErrorDetail = result.Status.ErrorDetail
	outcome.ModelURI = result.Status.ModelURI
	outcome.Metrics = result.Status.Metrics
	outcome.FinishedAt = o.clock.Now().UTC()

	if result.TimedOut {
		cause, message := trainer.CauseTimeout, "the training job exceeded the polling wall-clock timeout"
		o.recordDecision(ctx, st, trainingDecision(o.clock.Now().UTC(), outcome, cause, message))
		return nil, trainer.Status{}, fmt.Errorf("training timed out after %s (last state %s)", o.pollTimeout, result.Status.State)
	}
	if result.Status.State != trainer.StateSucceeded {
		cause, message := trainer.ClassifyError(result.Status.ErrorDetail)
		o.recordDecision(ctx, st, trainingDecision(o.clock.Now().UTC(), outcome, cause, message))
		return nil, trainer.Status{}, fmt.Errorf("training %s: %s", result.Status.State, message)
	}

	o.recordDecision(ctx, st, models.Decision{
		Timestamp:    o.clock.Now().UTC(),
		Stage:        models.StageTraining,
		DecisionType: "training_outcome",
		Decision:     trainer.StateSucceeded,
		Reasoning:    fmt.Sprintf("job %s finished successfully; model at %s", outcome.JobID, outcome.ModelURI),
		Confidence:   1.0,
		Metadata:     map[string]interface{}{"metrics": result.Status.Metrics},
	})
	return outcome, result.Status, nil
}

func trainingDecision(now time.Time, outcome *models.TrainingOutcome, cause, message string) models.Decision {
	return models.Decision{
		Timestamp:    now,
		Stage:        models.StageTraining,
		DecisionType: "training_outcome",
		Decision:     cause,
		Reasoning:    message,
		Confidence:   1.0,
		Metadata: map[string]interface{}{
			"job_id":       outcome.JobID,
			"state":        outcome.State,
			"timed_out":    outcome.TimedOut,
			"error_detail": outcome.ErrorDetail,
		},
	}
}

func (o *Orchestrator) runEvaluation(ctx context.Context, st *models.PipelineState, req StartRequest, analysis models.ProblemAnalysis, status trainer.Status) (*models.EvaluationResult, error) {
	thresholds := req.Thresholds
	if len(thresholds) == 0 {
		thresholds = defaultThresholds(analysis.ProblemType)
	}
	primaryMetric := primaryMetricFor(analysis)

	result, err := evaluation.Evaluate(analysis.ProblemType, status.ValTrue, status.ValPred, status.ValProba, thresholds, primaryMetric)
	if err != nil {
		return nil, fmt.Errorf("evaluation: %w", err)
	}
	st.Evaluation = &result

	o.recordDecision(ctx, st, models.Decision{
		Timestamp:    o.clock.Now().UTC(),
		Stage:        models.StageEvaluation,
		DecisionType: "acceptance_gate",
		Decision:     result.Decision,
		Reasoning:    result.Reasoning,
		Confidence:   result.Confidence,
		Metadata: map[string]interface{}{
			"primary_metric":  result.PrimaryMetric,
			"primary_value":   result.PrimaryValue,
			"recommendations": result.Recommendations,
		},
	})
	return &result, nil
}

func (o *Orchestrator) runDeployment(ctx context.Context, st *models.PipelineState, outcome *models.TrainingOutcome) error {
	deployment, err := o.backend.Deploy(ctx, outcome.ModelURI)
	if err != nil {
		return fmt.Errorf("deployment: %w", err)
	}
	st.Deployment = &models.DeploymentResult{
		EndpointID: deployment.EndpointID,
		DeployedAt: o.clock.Now().UTC(),
	}

	o.recordDecision(ctx, st, models.Decision{
		Timestamp:    o.clock.Now().UTC(),
		Stage:        models.StageDeployment,
		DecisionType: "deployment",
		Decision:     "deployed",
		Reasoning:    fmt.Sprintf("model %s deployed to endpoint %s", outcome.ModelURI, deployment.EndpointID),
		Confidence:   1.0,
	})
	return nil
}

// transition is the atomic unit: stage + progress + one log entry + persist,
// then exactly one stage_transition event.
func (o *Orchestrator) transition(ctx context.Context, st *models.PipelineState, to models.Stage) error {
	if err := checkTransition(st.Stage, to); err != nil {
		return err
	}
	now := o.clock.Now().UTC()
	from := st.Stage
	applyStage(st, to, now)
	appendLog(st, now, "info", fmt.Sprintf("stage %s -> %s", from, to))
	if err := o.persist(ctx, st); err != nil {
		return fmt.Errorf("persist transition to %s: %w", to, err)
	}
	o.emit(st, models.EventStageTransition, map[string]interface{}{
		"from":     string(from),
		"stage":    string(to),
		"progress": st.Progress,
	})
	return nil
}

// recordDecision appends the audit entry, persists it independently of the
// state document, persists the state, and emits a decision event. Audit and
// state persistence failures are logged, not fatal; the decision stays in
// the in-memory log either way.
func (o *Orchestrator) recordDecision(ctx context.Context, st *models.PipelineState, d models.Decision) {
	appendDecision(st, d)
	if err := o.audit.Append(ctx, st.ProjectID.String(), len(st.Decisions), d); err != nil {
		logger.WithProject(st.ProjectID.String()).WithError(err).Error("Failed to persist decision audit entry")
	}
	if err := o.persist(ctx, st); err != nil {
		logger.WithProject(st.ProjectID.String()).WithError(err).Error("Failed to persist state after decision")
	}
	o.emit(st, models.EventDecision, map[string]interface{}{
		"stage":         string(d.Stage),
		"decision_type": d.DecisionType,
		"decision":      d.Decision,
		"confidence":    d.Confidence,
	})
}

// fail is the single fatal-error path: transition to failed, record the
// error text, persist, emit pipeline_failed. The original error is re-raised
// by Run's caller contract.
func (o *Orchestrator) fail(ctx context.Context, st *models.PipelineState, cause error) {
	if st.Stage.Terminal() {
		return
	}
	now := o.clock.Now().UTC()
	applyStage(st, models.StageFailed, now)
	st.Error = cause.Error()
	appendLog(st, now, "error", fmt.Sprintf("pipeline failed: %v", cause))
	if err := o.persist(ctx, st); err != nil {
		logger.WithProject(st.ProjectID.String()).WithError(err).Error("Failed to persist failed state")
	}
	o.emit(st, models.EventPipelineFailed, map[string]interface{}{
		"error": cause.Error(),
	})
}

// checkCancel observes a pending cancel request at a transition boundary.
func (o *Orchestrator) checkCancel(ctx context.Context, st *models.PipelineState) error {
	o.mu.Lock()
	guard := o.projects[st.ProjectID]
	cancelled := guard != nil && guard.cancelled
	o.mu.Unlock()
	if !cancelled {
		return nil
	}

	now := o.clock.Now().UTC()
	applyStage(st, models.StageCancelled, now)
	appendLog(st, now, "info", "pipeline cancelled by request")
	if err := o.persist(ctx, st); err != nil {
		logger.WithProject(st.ProjectID.String()).WithError(err).Error("Failed to persist cancelled state")
	}
	o.emit(st, models.EventCancelled, nil)
	return ErrCancelled
}

// Cancel requests cooperative cancellation. The pipeline observes it at the
// next transition boundary; in-flight boundary calls are left to finish or
// time out on their own.
func (o *Orchestrator) Cancel(projectID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	guard, ok := o.projects[projectID]
	if !ok || !guard.running {
		return false
	}
	guard.cancelled = true
	return true
}

// GetState reads the snapshot cache first and falls back to durable storage.
func (o *Orchestrator) GetState(ctx context.Context, projectID uuid.UUID) (*models.PipelineState, error) {
	if st, ok := o.cache.Get(ctx, projectID.String()); ok {
		return st, nil
	}
	rec, err := o.store.Get(ctx, entityPipeline, projectID.String(), "")
	if err != nil {
		return nil, err
	}
	return decodeState(rec)
}

// ListDecisions serves the independently persisted audit trail.
func (o *Orchestrator) ListDecisions(ctx context.Context, projectID uuid.UUID) ([]models.Decision, error) {
	return o.audit.ListByProject(ctx, projectID.String())
}

func (o *Orchestrator) acquire(projectID uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	guard, ok := o.projects[projectID]
	if !ok {
		guard = &projectGuard{}
		o.projects[projectID] = guard
	}
	if guard.running {
		return fmt.Errorf("%w %s", ErrPipelineRunning, projectID)
	}
	guard.running = true
	guard.cancelled = false
	return nil
}

func (o *Orchestrator) release(projectID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if guard, ok := o.projects[projectID]; ok {
		guard.running = false
	}
}

func (o *Orchestrator) persist(ctx context.Context, st *models.PipelineState) error {
	rec, err := encodeState(st)
	if err != nil {
		return err
	}
	if err := o.store.Update(ctx, rec); err != nil {
		return err
	}
	o.cache.Put(ctx, st)
	return nil
}

func (o *Orchestrator) emit(st *models.PipelineState, eventType string, payload map[string]interface{}) {
	o.broadcaster.Publish(eventType, st.ProjectID.String(), payload)
}

func primaryMetricFor(analysis models.ProblemAnalysis) string {
	if len(analysis.SuggestedMetrics) > 0 {
		return analysis.SuggestedMetrics[0]
	}
	if analysis.ProblemType == models.ProblemRegression || analysis.ProblemType == models.ProblemForecasting {
		return "rmse"
	}
	return "accuracy"
}

// defaultThresholds apply when the caller supplies none. Classification must
// beat the majority-class baseline with margin; regression must beat the
// mean-prediction RMSE.
func defaultThresholds(problemType string) map[string]evaluation.Threshold {
	if problemType == models.ProblemRegression || problemType == models.ProblemForecasting {
		return map[string]evaluation.Threshold{
			"rmse": evaluation.Expr("baseline"),
			"r2":   evaluation.Num(0.3),
		}
	}
	return map[string]evaluation.Threshold{
		"accuracy": evaluation.Expr("baseline + 0.05"),
		"f1":       evaluation.Num(0.6),
	}
}
