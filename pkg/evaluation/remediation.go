package evaluation

import (
	"fmt"
	"sort"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// remediate turns failed checks into ranked, metric-specific advice from a
// fixed lookup. Worst offenders (largest relative gap to baseline) rank
// first; sanity-check advice follows threshold advice.
func remediate(failedMetrics []string, sanity map[string]bool, metrics map[string]float64, baselines map[string]models.BaselineMetric, regression bool) []string {
	type ranked struct {
		gap  float64
		text string
	}
	var out []ranked

	for _, name := range failedMetrics {
		value := metrics[name]
		base, hasBase := baselines[name]
		gap := 1.0
		if hasBase && base.Value != 0 {
			gap = (base.Value - value) / base.Value
		}
		out = append(out, ranked{gap: gap, text: adviceFor(name, value, base, hasBase)})
	}

	sanityNames := make([]string, 0, len(sanity))
	for name := range sanity {
		sanityNames = append(sanityNames, name)
	}
	sort.Strings(sanityNames)
	for _, name := range sanityNames {
		if sanity[name] {
			continue
		}
		if text, ok := sanityAdvice[name]; ok {
			out = append(out, ranked{gap: -1, text: text})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].gap > out[j].gap })
	texts := make([]string, 0, len(out))
	for _, r := range out {
		texts = append(texts, r.text)
	}
	if len(texts) == 0 && regression {
		texts = append(texts, "review feature engineering and target scaling before retraining")
	}
	return texts
}

func adviceFor(metric string, value float64, base models.BaselineMetric, hasBase bool) string {
	switch metric {
	case "roc_auc":
		if value < 0.6 {
			return fmt.Sprintf("ROC-AUC %.3f is far below threshold: switch to the AutoML tier or increase tree depth; verify the label is not leaking or inverted", value)
		}
		return fmt.Sprintf("ROC-AUC %.3f is under threshold: tune class weights and add discriminative features", value)
	case "f1":
		return fmt.Sprintf("F1 %.3f is under threshold: rebalance classes (oversampling or scale_pos_weight) and re-tune the decision threshold", value)
	case "precision":
		return fmt.Sprintf("precision %.3f is under threshold: raise the decision threshold or add features that separate false positives", value)
	case "recall":
		return fmt.Sprintf("recall %.3f is under threshold: lower the decision threshold or reweight the positive class", value)
	case "accuracy":
		if hasBase && value <= base.Value {
			return fmt.Sprintf("accuracy %.3f does not beat the majority-class baseline %.3f: the model is not learning; revisit features and labels", value, base.Value)
		}
		return fmt.Sprintf("accuracy %.3f is under threshold: collect more training data or move to a higher-capacity architecture", value)
	case "rmse":
		if hasBase && value >= base.Value {
			return fmt.Sprintf("RMSE %.4f is no better than the mean-prediction baseline %.4f: the model is not learning; revisit preprocessing and feature engineering", value, base.Value)
		}
		return fmt.Sprintf("RMSE %.4f is over threshold: inspect outliers and consider target transformation", value)
	case "mae":
		return fmt.Sprintf("MAE %.4f is over threshold: check for systematic bias in predictions and revisit feature scaling", value)
	case "mape":
		return fmt.Sprintf("MAPE %.2f%% is over threshold: near-zero targets inflate percentage error; consider a scale-free metric or log transform", value)
	case "r2":
		return fmt.Sprintf("R² %.3f is under threshold: the model explains too little variance; add features or increase capacity", value)
	default:
		return fmt.Sprintf("%s %.4f failed its threshold: re-tune hyperparameters or select a different architecture", metric, value)
	}
}

var sanityAdvice = map[string]string{
	"accuracy_beats_random": "accuracy is indistinguishable from random guessing: verify label alignment between features and targets",
	"f1_above_floor":        "F1 is below the sanity floor: the model may be collapsing to the majority class",
	"precision_above_floor": "precision is below the sanity floor: the model over-predicts the positive class",
	"recall_above_floor":    "recall is below the sanity floor: the model rarely finds true positives",
	"r2_non_negative":       "negative R² means the model underperforms predicting the mean: it is not learning",
	"residuals_centered":    "residuals are biased away from zero: the model systematically over- or under-predicts",
	"error_distribution":    "a few samples dominate the error: inspect outliers in the validation split",
}
