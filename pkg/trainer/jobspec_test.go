package trainer

import (
	"testing"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

func TestBuildJobSpec(t *testing.T) {
	rec := models.ModelRecommendation{
		Architecture:     models.ArchXGBoost,
		Strategy:         models.StrategyCustom,
		BackendProduct:   "custom-training",
		EstimatedMinutes: 45,
		RequiresGPU:      false,
		Hyperparameters: models.Hyperparameters{
			LearningRate:      0.1,
			MaxIterations:     500,
			EarlyStopPatience: 20,
			Extra: map[string]interface{}{
				"objective":        "binary:logistic",
				"scale_pos_weight": 5.0,
				"budget_minutes":   60,
			},
		},
	}

	spec := BuildJobSpec("proj-1", rec, "gs://bucket/data.csv", "churn", "roc_auc")

	if spec.ProjectID != "proj-1" || spec.DatasetURI != "gs://bucket/data.csv" {
		t.Fatalf("identity fields wrong: %+v", spec)
	}
	if spec.Architecture != models.ArchXGBoost || spec.BudgetMinutes != 45 {
		t.Fatalf("recommendation fields wrong: %+v", spec)
	}
	if spec.Objective != "binary:logistic" {
		t.Fatalf("objective must be lifted out of extras, got %q", spec.Objective)
	}
	if _, ok := spec.Hyperparams["objective"]; ok {
		t.Fatal("objective must not remain in the hyperparameter map")
	}
	if _, ok := spec.Hyperparams["budget_minutes"]; ok {
		t.Fatal("budget_minutes is carried by the spec field, not hyperparameters")
	}
	if spec.Hyperparams["scale_pos_weight"] != 5.0 {
		t.Fatalf("extras must pass through, got %v", spec.Hyperparams["scale_pos_weight"])
	}
	if spec.Hyperparams["learning_rate"] != 0.1 || spec.Hyperparams["max_iterations"] != 500 {
		t.Fatalf("tuned hyperparameters must be mapped, got %v", spec.Hyperparams)
	}
	if _, ok := spec.Hyperparams["batch_size"]; ok {
		t.Fatal("unset hyperparameters must be omitted")
	}
}
