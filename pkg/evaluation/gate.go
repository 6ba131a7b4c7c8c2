package evaluation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// sanityPassRatio is the fraction of sanity checks that must pass for an
// ACCEPT; an empty sanity set counts as passing.
const sanityPassRatio = 0.7

// Evaluate is the acceptance gate. It computes the metric set for the
// problem family, derives trivial-predictor baselines, resolves and applies
// every threshold with direction-aware comparison, runs the sanity battery
// and renders an ACCEPT/REJECT decision with reasoning and remediation. The
// function is pure: identical inputs yield identical results.
func Evaluate(problemCategory string, yTrue, yPred, yProba []float64, thresholds map[string]Threshold, primaryMetric string) (models.EvaluationResult, error) {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return models.EvaluationResult{}, fmt.Errorf("need equal non-empty yTrue/yPred, got %d/%d", len(yTrue), len(yPred))
	}

	regression := problemCategory == models.ProblemRegression || problemCategory == models.ProblemForecasting

	var metrics map[string]float64
	var baselines map[string]models.BaselineMetric
	var sanity map[string]bool
	if regression {
		metrics = RegressionMetrics(yTrue, yPred)
		baselines = RegressionBaselines(yTrue)
		sanity = regressionSanity(metrics)
	} else {
		metrics = ClassificationMetrics(yTrue, yPred, yProba)
		baselines = ClassificationBaselines(yTrue)
		sanity = classificationSanity(metrics, yTrue)
	}

	checks, failed, err := ApplyThresholds(metrics, baselines, thresholds)
	if err != nil {
		return models.EvaluationResult{}, err
	}
	decision := Decide(checks, sanity)

	result := models.EvaluationResult{
		Decision:        decision,
		PrimaryMetric:   primaryMetric,
		Metrics:         metrics,
		Baselines:       baselines,
		ThresholdChecks: checks,
		SanityChecks:    sanity,
		Confidence:      gateConfidence(checks, sanity),
	}
	if v, ok := metrics[primaryMetric]; ok {
		result.PrimaryValue = v
	}
	result.Reasoning = renderReasoning(decision, metrics, baselines, thresholds, checks, sanity)
	if decision == models.DecisionReject {
		result.Recommendations = remediate(failed, sanity, metrics, baselines, regression)
	}
	return result, nil
}

// ApplyThresholds resolves every threshold against its baseline and runs the
// direction-aware comparison. A threshold naming a metric the gate did not
// compute fails that check. Returns the check map and the failed names in
// sorted order.
func ApplyThresholds(metrics map[string]float64, baselines map[string]models.BaselineMetric, thresholds map[string]Threshold) (map[string]bool, []string, error) {
	checks := map[string]bool{}
	var failed []string
	for _, name := range sortedKeys(thresholds) {
		value, ok := metrics[name]
		if !ok {
			checks[name] = false
			failed = append(failed, name)
			continue
		}
		base, hasBase := baselines[name]
		resolved, err := thresholds[name].Resolve(base.Value, hasBase)
		if err != nil {
			return nil, nil, err
		}
		ok = passes(name, value, resolved)
		checks[name] = ok
		if !ok {
			failed = append(failed, name)
		}
	}
	return checks, failed, nil
}

// Decide applies the acceptance rule: every threshold check must pass and at
// least 70% of sanity checks must pass. An empty sanity set passes vacuously.
func Decide(thresholdChecks, sanity map[string]bool) string {
	for _, ok := range thresholdChecks {
		if !ok {
			return models.DecisionReject
		}
	}
	if !sanityPasses(sanity) {
		return models.DecisionReject
	}
	return models.DecisionAccept
}

// sanityPasses applies the pass-ratio rule; a vacuous battery passes.
func sanityPasses(sanity map[string]bool) bool {
	if len(sanity) == 0 {
		return true
	}
	var passed int
	for _, ok := range sanity {
		if ok {
			passed++
		}
	}
	return float64(passed)/float64(len(sanity)) >= sanityPassRatio
}

func classificationSanity(metrics map[string]float64, yTrue []float64) map[string]bool {
	counts := map[float64]int{}
	for _, v := range yTrue {
		counts[v]++
	}
	numClasses := len(counts)
	majority := 0
	for _, c := range counts {
		if c > majority {
			majority = c
		}
	}
	majorityShare := float64(majority) / float64(len(yTrue))

	// The floor drops for imbalanced data where even a good model scores
	// lower on minority-sensitive metrics.
	floor := 0.5
	if majorityShare > 0.7 {
		floor = 0.3
	}

	checks := map[string]bool{}
	if v, ok := metrics["f1"]; ok {
		checks["f1_above_floor"] = v > floor
	}
	if v, ok := metrics["precision"]; ok {
		checks["precision_above_floor"] = v > floor
	}
	if v, ok := metrics["recall"]; ok {
		checks["recall_above_floor"] = v > floor
	}
	if v, ok := metrics["accuracy"]; ok && numClasses > 0 {
		checks["accuracy_beats_random"] = v > 1.1*(1.0/float64(numClasses))
	}
	return checks
}

func regressionSanity(metrics map[string]float64) map[string]bool {
	checks := map[string]bool{}
	if r2, ok := metrics["r2"]; ok {
		checks["r2_non_negative"] = r2 >= 0
	}
	mean, haveMean := metrics["residual_mean"]
	std, haveStd := metrics["residual_std"]
	if haveMean && haveStd {
		checks["residuals_centered"] = std == 0 || math.Abs(mean) <= 0.1*std
	}
	mae, haveMAE := metrics["mae"]
	rmse, haveRMSE := metrics["rmse"]
	if haveMAE && haveRMSE && rmse > 0 {
		// A very low MAE/RMSE ratio means a handful of samples dominate the
		// error, which usually indicates outliers the model never fit.
		checks["error_distribution"] = mae/rmse >= 0.5
	}
	return checks
}

func renderReasoning(decision string, metrics map[string]float64, baselines map[string]models.BaselineMetric, thresholds map[string]Threshold, checks, sanity map[string]bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decision: %s.", decision)

	for _, name := range sortedKeys(thresholds) {
		value, haveValue := metrics[name]
		base, hasBase := baselines[name]
		resolved, err := thresholds[name].Resolve(base.Value, hasBase)
		verdict := "FAIL"
		if checks[name] {
			verdict = "PASS"
		}
		switch {
		case !haveValue:
			fmt.Fprintf(&b, " %s: FAIL (metric not computed).", name)
		case err != nil:
			fmt.Fprintf(&b, " %s: FAIL (threshold unresolvable).", name)
		default:
			fmt.Fprintf(&b, " %s: %s (%.4f vs threshold %.4f", name, verdict, value, resolved)
			if hasBase {
				fmt.Fprintf(&b, ", baseline %.4f", base.Value)
			}
			b.WriteString(").")
		}
	}

	if len(sanity) > 0 {
		var passed int
		for _, ok := range sanity {
			if ok {
				passed++
			}
		}
		fmt.Fprintf(&b, " Sanity checks: %d/%d passed", passed, len(sanity))
		var failures []string
		for _, name := range sortedBoolKeys(sanity) {
			if !sanity[name] {
				failures = append(failures, name)
			}
		}
		if len(failures) > 0 {
			fmt.Fprintf(&b, " (failed: %s)", strings.Join(failures, ", "))
		}
		b.WriteString(".")
	}
	return b.String()
}

// gateConfidence scales with the overall pass rate across both check
// families, bounded away from 0 and 1.
func gateConfidence(checks, sanity map[string]bool) float64 {
	total := len(checks) + len(sanity)
	if total == 0 {
		return 0.5
	}
	var passed int
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	for _, ok := range sanity {
		if ok {
			passed++
		}
	}
	return 0.5 + 0.45*float64(passed)/float64(total)
}

func sortedKeys(m map[string]Threshold) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedBoolKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
