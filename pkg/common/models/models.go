package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Problem categories recognized by the analysis stage.
const (
	ProblemClassification     = "classification"
	ProblemRegression         = "regression"
	ProblemDetection          = "detection"
	ProblemSegmentation       = "segmentation"
	ProblemTextClassification = "text_classification"
	ProblemSentiment          = "sentiment_analysis"
	ProblemNER                = "ner"
	ProblemForecasting        = "forecasting"
	ProblemClustering         = "clustering"
	ProblemAnomalyDetection   = "anomaly_detection"
	ProblemRecommendation     = "recommendation"
	ProblemUnknown            = "unknown"
)

// Data modalities.
const (
	ModalityImage      = "image"
	ModalityText       = "text"
	ModalityTabular    = "tabular"
	ModalityTimeSeries = "time_series"
	ModalityMultimodal = "multimodal"
	ModalityUnknown    = "unknown"
)

// ProblemAnalysis is the immutable outcome of the analysis stage: what kind
// of ML problem this project is, derived from the problem description and a
// sample of the uploaded data.
type ProblemAnalysis struct {
	ProblemType      string   `json:"problem_type"`
	DataModality     string   `json:"data_modality"`
	Domain           string   `json:"domain"`
	SuggestedMetrics []string `json:"suggested_metrics,omitempty"`
	ComplexityScore  float64  `json:"complexity_score"`
	Confidence       float64  `json:"confidence"`
	HasLabels        bool     `json:"has_labels"`
	NumClasses       *int     `json:"num_classes,omitempty"`
	TargetVariable   string   `json:"target_variable,omitempty"`
	Reasoning        string   `json:"reasoning,omitempty"`
}

// Validate rejects out-of-range scores. Both scores live in [0,1].
func (a ProblemAnalysis) Validate() error {
	if a.ComplexityScore < 0 || a.ComplexityScore > 1 {
		return fmt.Errorf("complexity_score %.3f out of range [0,1]", a.ComplexityScore)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of range [0,1]", a.Confidence)
	}
	return nil
}

// DatasetProfile is the fixed-shape statistical summary derived once from a
// processed dataset.
type DatasetProfile struct {
	NumSamples          int      `json:"num_samples"`
	NumFeatures         int      `json:"num_features"`
	NumClasses          *int     `json:"num_classes,omitempty"`
	NumericFeatures     int      `json:"numeric_features"`
	CategoricalFeatures int      `json:"categorical_features"`
	TextFeatures        int      `json:"text_features"`
	DatetimeFeatures    int      `json:"datetime_features"`
	MissingRatio        float64  `json:"missing_ratio"`
	ClassImbalanceRatio *float64 `json:"class_imbalance_ratio,omitempty"`
	DimensionalityRatio float64  `json:"dimensionality_ratio"`
	SizeMB              float64  `json:"size_mb"`
}

// Model architecture tags.
const (
	ArchTabularAutoML     = "tabular_automl"
	ArchXGBoost           = "xgboost"
	ArchLinearModel       = "linear_model"
	ArchRandomForest      = "random_forest"
	ArchGradientBoosting  = "gradient_boosting"
	ArchFeedforwardNN     = "feedforward_nn"
	ArchWideAndDeep       = "wide_and_deep"
	ArchTabNet            = "tabnet"
	ArchTextAutoML        = "text_automl"
	ArchBERT              = "bert"
	ArchDistilBERT        = "distilbert"
	ArchImageAutoML       = "image_automl"
	ArchResNet            = "resnet"
	ArchEfficientNet      = "efficientnet"
	ArchForecastingAutoML = "forecasting_automl"
	ArchARIMA             = "arima"
	ArchLSTM              = "lstm"
	ArchCustom            = "custom"
)

// Training strategies.
const (
	StrategyAutoML = "automl"
	StrategyCustom = "custom"
	StrategyHybrid = "hybrid"
)

// Hyperparameters carries the knobs every architecture shares plus an open
// map for architecture-specific extras.
type Hyperparameters struct {
	LearningRate      float64                `json:"learning_rate,omitempty"`
	BatchSize         int                    `json:"batch_size,omitempty"`
	MaxIterations     int                    `json:"max_iterations,omitempty"`
	EarlyStopPatience int                    `json:"early_stop_patience,omitempty"`
	Extra             map[string]interface{} `json:"extra,omitempty"`
}

// ModelRecommendation is the rule engine's (or the advisory merge's) verdict.
// Alternatives carry the same shape but with their own alternatives emptied,
// so nesting never exceeds one level.
type ModelRecommendation struct {
	Architecture          string                `json:"architecture"`
	Strategy              string                `json:"strategy"`
	BackendProduct        string                `json:"backend_product"`
	Hyperparameters       Hyperparameters       `json:"hyperparameters"`
	Confidence            float64               `json:"confidence"`
	Reasoning             string                `json:"reasoning"`
	EstimatedMinutes      int                   `json:"estimated_minutes,omitempty"`
	EstimatedCostUSD      float64               `json:"estimated_cost_usd,omitempty"`
	RequiresGPU           bool                  `json:"requires_gpu"`
	SupportsIncremental   bool                  `json:"supports_incremental"`
	InterpretabilityScore float64               `json:"interpretability_score"`
	Alternatives          []ModelRecommendation `json:"alternatives,omitempty"`
}

// Evaluation decisions.
const (
	DecisionAccept = "ACCEPT"
	DecisionReject = "REJECT"
)

// BaselineMetric is a trivial-predictor reference value for one metric.
type BaselineMetric struct {
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// EvaluationResult is the acceptance gate's full verdict for one trained model.
type EvaluationResult struct {
	Decision        string                    `json:"decision"`
	PrimaryMetric   string                    `json:"primary_metric"`
	PrimaryValue    float64                   `json:"primary_value"`
	Metrics         map[string]float64        `json:"metrics"`
	Baselines       map[string]BaselineMetric `json:"baselines"`
	ThresholdChecks map[string]bool           `json:"threshold_checks"`
	SanityChecks    map[string]bool           `json:"sanity_checks"`
	Reasoning       string                    `json:"reasoning"`
	Recommendations []string                  `json:"recommendations,omitempty"`
	Confidence      float64                   `json:"confidence"`
}

// Stage is one named phase of the pipeline state machine. Analyzing is
// initial; completed, failed and cancelled are terminal.
type Stage string

const (
	StageAnalyzing      Stage = "analyzing"
	StageProcessing     Stage = "processing"
	StageLabeling       Stage = "labeling"
	StageModelSelection Stage = "model_selection"
	StageTraining       Stage = "training"
	StageEvaluation     Stage = "evaluation"
	StageDeployment     Stage = "deployment"
	StageCompleted      Stage = "completed"
	StageFailed         Stage = "failed"
	StageCancelled      Stage = "cancelled"
)

// Terminal reports whether the stage accepts no further transitions.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed || s == StageCancelled
}

// LogEntry is one line of a pipeline's append-only log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// Decision is one immutable audit record: what was decided during a stage,
// why, and with what confidence.
type Decision struct {
	Timestamp    time.Time              `json:"timestamp"`
	Stage        Stage                  `json:"stage"`
	DecisionType string                 `json:"decision_type"`
	Decision     string                 `json:"decision"`
	Reasoning    string                 `json:"reasoning"`
	Confidence   float64                `json:"confidence"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// TrainingOutcome captures what the training stage produced.
type TrainingOutcome struct {
	JobID          string             `json:"job_id"`
	ResourceHandle string             `json:"resource_handle"`
	State          string             `json:"state"`
	TimedOut       bool               `json:"timed_out,omitempty"`
	ErrorDetail    string             `json:"error_detail,omitempty"`
	SubmittedAt    time.Time          `json:"submitted_at"`
	FinishedAt     time.Time          `json:"finished_at,omitempty"`
	ModelURI       string             `json:"model_uri,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

// DeploymentResult captures the optional deployment stage outcome.
type DeploymentResult struct {
	EndpointID string    `json:"endpoint_id"`
	DeployedAt time.Time `json:"deployed_at"`
}

// PipelineState is the single mutable entity of a project run. Only the
// orchestrator mutates it, with exactly one writer per project id.
type PipelineState struct {
	ProjectID      uuid.UUID            `json:"project_id"`
	Stage          Stage                `json:"stage"`
	Progress       float64              `json:"progress"`
	Logs           []LogEntry           `json:"logs"`
	Decisions      []Decision           `json:"decisions"`
	Error          string               `json:"error,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Analysis       *ProblemAnalysis     `json:"analysis,omitempty"`
	Profile        *DatasetProfile      `json:"profile,omitempty"`
	Recommendation *ModelRecommendation `json:"recommendation,omitempty"`
	Training       *TrainingOutcome     `json:"training,omitempty"`
	Evaluation     *EvaluationResult    `json:"evaluation,omitempty"`
	Deployment     *DeploymentResult    `json:"deployment,omitempty"`
}

// PipelineEvent is the unit delivered to live subscribers and mirrored to the
// event bus.
type PipelineEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	ProjectID string                 `json:"project_id"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Event types emitted by the orchestrator.
const (
	EventStageTransition = "stage_transition"
	EventDecision        = "decision"
	EventLog             = "log"
	EventPipelineFailed  = "pipeline_failed"
	EventCancelled       = "pipeline_cancelled"
	EventCompleted       = "pipeline_completed"
)
