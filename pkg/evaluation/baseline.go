package evaluation

import (
	"fmt"
	"math"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// ClassificationBaselines returns trivial-predictor reference values: the
// accuracy of always predicting the majority class, and the 0.5 random
// baseline for binary problems.
func ClassificationBaselines(yTrue []float64) map[string]models.BaselineMetric {
	baselines := map[string]models.BaselineMetric{}
	if len(yTrue) == 0 {
		return baselines
	}

	counts := map[float64]int{}
	for _, v := range yTrue {
		counts[v]++
	}
	majority := 0
	for _, c := range counts {
		if c > majority {
			majority = c
		}
	}
	share := float64(majority) / float64(len(yTrue))
	baselines["accuracy"] = models.BaselineMetric{
		Value:       share,
		Description: fmt.Sprintf("majority-class accuracy (%.1f%% of samples in the largest class)", share*100),
	}
	if len(counts) == 2 {
		baselines["roc_auc"] = models.BaselineMetric{
			Value:       0.5,
			Description: "random-classifier ROC-AUC",
		}
	}
	return baselines
}

// RegressionBaselines returns the RMSE and MAE of always predicting the
// training mean.
func RegressionBaselines(yTrue []float64) map[string]models.BaselineMetric {
	baselines := map[string]models.BaselineMetric{}
	n := len(yTrue)
	if n == 0 {
		return baselines
	}

	var sum float64
	for _, v := range yTrue {
		sum += v
	}
	mean := sum / float64(n)

	var sse, sae float64
	for _, v := range yTrue {
		sse += (v - mean) * (v - mean)
		sae += math.Abs(v - mean)
	}
	baselines["rmse"] = models.BaselineMetric{
		Value:       math.Sqrt(sse / float64(n)),
		Description: fmt.Sprintf("mean-prediction RMSE (predicting %.4f everywhere)", mean),
	}
	baselines["mae"] = models.BaselineMetric{
		Value:       sae / float64(n),
		Description: fmt.Sprintf("mean-prediction MAE (predicting %.4f everywhere)", mean),
	}
	return baselines
}
