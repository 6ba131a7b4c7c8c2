package trainer

import (
	"fmt"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// BuildJobSpec translates a merged recommendation into the backend's job
// request. This is a thin boundary adapter; decisions were already made by
// the rule engine.
func BuildJobSpec(projectID string, rec models.ModelRecommendation, datasetURI, targetColumn, primaryMetric string) JobSpec {
	spec := JobSpec{
		ProjectID:     projectID,
		DisplayName:   fmt.Sprintf("%s-%s", rec.Architecture, projectID),
		Product:       rec.BackendProduct,
		Architecture:  rec.Architecture,
		Strategy:      rec.Strategy,
		DatasetURI:    datasetURI,
		TargetColumn:  targetColumn,
		BudgetMinutes: rec.EstimatedMinutes,
		UseGPU:        rec.RequiresGPU,
		PrimaryMetric: primaryMetric,
		Hyperparams:   map[string]interface{}{},
	}

	hp := rec.Hyperparameters
	if hp.LearningRate > 0 {
		spec.Hyperparams["learning_rate"] = hp.LearningRate
	}
	if hp.BatchSize > 0 {
		spec.Hyperparams["batch_size"] = hp.BatchSize
	}
	if hp.MaxIterations > 0 {
		spec.Hyperparams["max_iterations"] = hp.MaxIterations
	}
	if hp.EarlyStopPatience > 0 {
		spec.Hyperparams["early_stop_patience"] = hp.EarlyStopPatience
	}
	for k, v := range hp.Extra {
		if k == "objective" {
			if s, ok := v.(string); ok {
				spec.Objective = s
				continue
			}
		}
		if k == "budget_minutes" {
			continue
		}
		spec.Hyperparams[k] = v
	}
	return spec
}
