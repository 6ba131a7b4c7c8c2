package selection

import (
	"fmt"
	"strings"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// Preferences are the caller-supplied constraints the rule engine honors.
type Preferences struct {
	Interpretability bool    `json:"interpretability"`
	Speed            bool    `json:"speed"`
	MaxCostUSD       float64 `json:"max_cost_usd,omitempty"`
}

// Engine is the deterministic model-selection rule engine. It is a pure
// decision tree over problem type, modality and dataset shape; it performs
// no I/O and keeps no state beyond its tables.
type Engine struct {
	rules RulesConfig
}

func NewEngine(rules RulesConfig) *Engine {
	return &Engine{rules: rules}
}

// SelectModel dispatches first on modality, then within tabular on problem
// category. Every branch fills Reasoning with the conditions that fired; the
// orchestrator records that text verbatim in the decision audit.
func (e *Engine) SelectModel(problemType, modality string, prof models.DatasetProfile, domain string, complexity float64, prefs Preferences) (models.ModelRecommendation, error) {
	if problemType == "" {
		return models.ModelRecommendation{}, fmt.Errorf("problem type is required")
	}
	if modality == "" {
		return models.ModelRecommendation{}, fmt.Errorf("data modality is required")
	}

	switch modality {
	case models.ModalityTabular:
		return e.selectTabular(problemType, prof, complexity, prefs), nil
	case models.ModalityText, models.ModalityMultimodal:
		return e.selectText(problemType, prof, complexity, prefs), nil
	case models.ModalityImage:
		return e.selectImage(problemType, prof, complexity, prefs), nil
	case models.ModalityTimeSeries:
		return e.selectTimeSeries(prof), nil
	default:
		// Unknown modality falls back to the tabular tree, which degrades
		// most gracefully for arbitrary feature matrices.
		rec := e.selectTabular(problemType, prof, complexity, prefs)
		rec.Reasoning = fmt.Sprintf("modality %q is not directly supported; applied tabular rules. %s", modality, rec.Reasoning)
		return rec, nil
	}
}

func (e *Engine) selectTabular(problemType string, prof models.DatasetProfile, complexity float64, prefs Preferences) models.ModelRecommendation {
	classification := problemType != models.ProblemRegression

	// Tier 1: tiny, simple, and the user wants a model they can read.
	if prof.NumFeatures < 10 && complexity < 0.3 && (prefs.Interpretability || prefs.Speed) {
		want := "interpretability"
		if !prefs.Interpretability {
			want = "speed"
		}
		rec := models.ModelRecommendation{
			Architecture:   models.ArchLinearModel,
			Strategy:       models.StrategyCustom,
			BackendProduct: "custom-training",
			Hyperparameters: models.Hyperparameters{
				LearningRate:  0.01,
				MaxIterations: 1000,
				Extra:         map[string]interface{}{"regularization": "l2"},
			},
			Confidence: 0.85,
			Reasoning: fmt.Sprintf(
				"linear model selected: %d features (<10), complexity %.2f (<0.3), %s requested",
				prof.NumFeatures, complexity, want),
			EstimatedMinutes:      15,
			EstimatedCostUSD:      e.rules.tierCost("custom-training", 15),
			SupportsIncremental:   true,
			InterpretabilityScore: 0.95,
		}
		if classification {
			rec.Hyperparameters.Extra["solver"] = "lbfgs"
		}
		rec.Alternatives = []models.ModelRecommendation{e.boostedTree(classification, prof, "next tier if linear underfits")}
		return rec
	}

	// Tier 2: small datasets or a hard cost ceiling rule out managed AutoML.
	lowBudget := prefs.MaxCostUSD > 0 && prefs.MaxCostUSD < e.rules.CostFloorUSD
	if prof.NumSamples < 1000 || lowBudget {
		reason := fmt.Sprintf("gradient-boosted tree selected: %d samples (<1000)", prof.NumSamples)
		if lowBudget {
			reason = fmt.Sprintf("gradient-boosted tree selected: cost ceiling $%.2f below the $%.2f AutoML floor", prefs.MaxCostUSD, e.rules.CostFloorUSD)
		}
		rec := e.boostedTree(classification, prof, reason)
		rec.Alternatives = []models.ModelRecommendation{e.autoMLTabular(classification, prof, "alternative if budget allows")}
		return rec
	}

	// Tier 3: managed AutoML with a budget scaled to dataset size.
	rec := e.autoMLTabular(classification, prof, fmt.Sprintf(
		"AutoML tier selected: %d samples, complexity %.2f, no constraint forcing a lighter model",
		prof.NumSamples, complexity))
	rec.Alternatives = []models.ModelRecommendation{e.boostedTree(classification, prof, "lower-cost alternative")}
	return rec
}

func (e *Engine) boostedTree(classification bool, prof models.DatasetProfile, reason string) models.ModelRecommendation {
	objective := "reg:squarederror"
	if classification {
		objective = "binary:logistic"
		if prof.NumClasses != nil && *prof.NumClasses > 2 {
			objective = "multi:softprob"
		}
	}
	extra := map[string]interface{}{
		"n_estimators": 200,
		"max_depth":    6,
		"objective":    objective,
	}
	// Heavily imbalanced classes get the standard positive-class reweight.
	if classification && prof.ClassImbalanceRatio != nil && *prof.ClassImbalanceRatio < 0.2 && *prof.ClassImbalanceRatio > 0 {
		extra["scale_pos_weight"] = 1.0 / *prof.ClassImbalanceRatio
		reason += fmt.Sprintf("; class imbalance %.3f triggers scale_pos_weight", *prof.ClassImbalanceRatio)
	}
	return models.ModelRecommendation{
		Architecture:   models.ArchXGBoost,
		Strategy:       models.StrategyCustom,
		BackendProduct: "custom-training",
		Hyperparameters: models.Hyperparameters{
			LearningRate:      0.1,
			MaxIterations:     200,
			EarlyStopPatience: 10,
			Extra:             extra,
		},
		Confidence:            0.8,
		Reasoning:             reason,
		EstimatedMinutes:      30,
		EstimatedCostUSD:      e.rules.tierCost("custom-training", 30),
		SupportsIncremental:   true,
		InterpretabilityScore: 0.7,
	}
}

func (e *Engine) autoMLTabular(classification bool, prof models.DatasetProfile, reason string) models.ModelRecommendation {
	minutes := budgetMinutes(e.rules.TabularBands, prof.NumSamples)
	objective := "regression"
	if classification {
		objective = "classification"
	}
	return models.ModelRecommendation{
		Architecture:   models.ArchTabularAutoML,
		Strategy:       models.StrategyAutoML,
		BackendProduct: "automl-tabular",
		Hyperparameters: models.Hyperparameters{
			Extra: map[string]interface{}{
				"budget_minutes": minutes,
				"objective":      objective,
			},
		},
		Confidence:            0.9,
		Reasoning:             fmt.Sprintf("%s; budget %d minutes for %d samples", reason, minutes, prof.NumSamples),
		EstimatedMinutes:      minutes,
		EstimatedCostUSD:      e.rules.tierCost("automl-tabular", minutes),
		InterpretabilityScore: 0.4,
	}
}

func (e *Engine) selectText(problemType string, prof models.DatasetProfile, complexity float64, prefs Preferences) models.ModelRecommendation {
	// Small or complex corpora go to the managed tier; big simple ones run a
	// lightweight transformer under our own training loop.
	if prof.NumSamples < 10000 || complexity >= 0.6 {
		minutes := budgetMinutes(e.rules.TextBands, prof.NumSamples)
		rec := models.ModelRecommendation{
			Architecture:   models.ArchTextAutoML,
			Strategy:       models.StrategyAutoML,
			BackendProduct: "automl-text",
			Hyperparameters: models.Hyperparameters{
				Extra: map[string]interface{}{"budget_minutes": minutes, "task": textTask(problemType)},
			},
			Confidence: 0.85,
			Reasoning: fmt.Sprintf(
				"text AutoML selected: %d samples (<10000) or complexity %.2f (>=0.6); budget %d minutes",
				prof.NumSamples, complexity, minutes),
			EstimatedMinutes:      minutes,
			EstimatedCostUSD:      e.rules.tierCost("automl-text", minutes),
			InterpretabilityScore: 0.3,
		}
		rec.Alternatives = []models.ModelRecommendation{e.lightTransformer(problemType, prof, "custom alternative for larger corpora")}
		return rec
	}
	rec := e.lightTransformer(problemType, prof, fmt.Sprintf(
		"distilbert selected: %d samples (>=10000) and complexity %.2f (<0.6) favor a fixed lightweight architecture",
		prof.NumSamples, complexity))
	rec.Alternatives = []models.ModelRecommendation{{
		Architecture:          models.ArchBERT,
		Strategy:              models.StrategyCustom,
		BackendProduct:        "custom-training",
		Hyperparameters:       models.Hyperparameters{LearningRate: 2e-5, BatchSize: 16, MaxIterations: 3},
		Confidence:            0.7,
		Reasoning:             "full BERT if distilbert accuracy is insufficient",
		RequiresGPU:           true,
		InterpretabilityScore: 0.2,
	}}
	return rec
}

func (e *Engine) lightTransformer(problemType string, prof models.DatasetProfile, reason string) models.ModelRecommendation {
	return models.ModelRecommendation{
		Architecture:   models.ArchDistilBERT,
		Strategy:       models.StrategyCustom,
		BackendProduct: "custom-training",
		Hyperparameters: models.Hyperparameters{
			LearningRate:      5e-5,
			BatchSize:         32,
			MaxIterations:     4,
			EarlyStopPatience: 2,
			Extra:             map[string]interface{}{"max_seq_length": 256, "task": textTask(problemType)},
		},
		Confidence:            0.8,
		Reasoning:             reason,
		EstimatedMinutes:      120,
		EstimatedCostUSD:      e.rules.tierCost("custom-training", 120),
		RequiresGPU:           true,
		InterpretabilityScore: 0.25,
	}
}

func textTask(problemType string) string {
	switch problemType {
	case models.ProblemSentiment:
		return "sentiment"
	case models.ProblemNER:
		return "token_classification"
	default:
		return "classification"
	}
}

func (e *Engine) selectImage(problemType string, prof models.DatasetProfile, complexity float64, prefs Preferences) models.ModelRecommendation {
	detection := problemType == models.ProblemDetection || problemType == models.ProblemSegmentation
	if prof.NumSamples < 10000 || complexity >= 0.6 || detection {
		minutes := budgetMinutes(e.rules.ImageBands, prof.NumSamples)
		objective := "classification"
		if detection {
			objective = strings.ToLower(problemType)
		}
		rec := models.ModelRecommendation{
			Architecture:   models.ArchImageAutoML,
			Strategy:       models.StrategyAutoML,
			BackendProduct: "automl-image",
			Hyperparameters: models.Hyperparameters{
				Extra: map[string]interface{}{"budget_minutes": minutes, "objective": objective},
			},
			Confidence: 0.85,
			Reasoning: fmt.Sprintf(
				"image AutoML selected: %d samples, complexity %.2f, objective %s; budget %d minutes",
				prof.NumSamples, complexity, objective, minutes),
			EstimatedMinutes:      minutes,
			EstimatedCostUSD:      e.rules.tierCost("automl-image", minutes),
			RequiresGPU:           true,
			InterpretabilityScore: 0.2,
		}
		rec.Alternatives = []models.ModelRecommendation{e.efficientNet(prof, "custom alternative for large simple datasets")}
		return rec
	}
	rec := e.efficientNet(prof, fmt.Sprintf(
		"efficientnet selected: %d samples (>=10000) and complexity %.2f (<0.6) favor a fixed lightweight architecture",
		prof.NumSamples, complexity))
	rec.Alternatives = []models.ModelRecommendation{{
		Architecture:          models.ArchResNet,
		Strategy:              models.StrategyCustom,
		BackendProduct:        "custom-training",
		Hyperparameters:       models.Hyperparameters{LearningRate: 1e-3, BatchSize: 64, MaxIterations: 30},
		Confidence:            0.7,
		Reasoning:             "resnet50 fallback with stronger capacity",
		RequiresGPU:           true,
		InterpretabilityScore: 0.15,
	}}
	return rec
}

func (e *Engine) efficientNet(prof models.DatasetProfile, reason string) models.ModelRecommendation {
	return models.ModelRecommendation{
		Architecture:   models.ArchEfficientNet,
		Strategy:       models.StrategyCustom,
		BackendProduct: "custom-training",
		Hyperparameters: models.Hyperparameters{
			LearningRate:      1e-3,
			BatchSize:         64,
			MaxIterations:     20,
			EarlyStopPatience: 3,
			Extra:             map[string]interface{}{"variant": "b0", "image_size": 224},
		},
		Confidence:            0.8,
		Reasoning:             reason,
		EstimatedMinutes:      180,
		EstimatedCostUSD:      e.rules.tierCost("custom-training", 180),
		RequiresGPU:           true,
		InterpretabilityScore: 0.15,
	}
}

func (e *Engine) selectTimeSeries(prof models.DatasetProfile) models.ModelRecommendation {
	minutes := budgetMinutes(e.rules.TabularBands, prof.NumSamples)
	return models.ModelRecommendation{
		Architecture:   models.ArchForecastingAutoML,
		Strategy:       models.StrategyAutoML,
		BackendProduct: "automl-forecasting",
		Hyperparameters: models.Hyperparameters{
			Extra: map[string]interface{}{"budget_minutes": minutes},
		},
		Confidence: 0.85,
		Reasoning: fmt.Sprintf(
			"forecasting AutoML selected: time-series problems always use the managed forecasting tier; budget %d minutes for %d samples",
			minutes, prof.NumSamples),
		EstimatedMinutes:      minutes,
		EstimatedCostUSD:      e.rules.tierCost("automl-forecasting", minutes),
		InterpretabilityScore: 0.35,
		Alternatives: []models.ModelRecommendation{{
			Architecture:          models.ArchARIMA,
			Strategy:              models.StrategyCustom,
			BackendProduct:        "custom-training",
			Hyperparameters:       models.Hyperparameters{Extra: map[string]interface{}{"order": "auto"}},
			Confidence:            0.6,
			Reasoning:             "classical ARIMA baseline for univariate series",
			SupportsIncremental:   true,
			InterpretabilityScore: 0.8,
		}},
	}
}
