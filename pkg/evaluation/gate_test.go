package evaluation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

func TestDecideAcceptsWhenAllPass(t *testing.T) {
	metrics := map[string]float64{"roc_auc": 0.82, "f1": 0.65}
	thresholds := map[string]Threshold{"roc_auc": Num(0.70), "f1": Num(0.60)}

	checks, failed, err := ApplyThresholds(metrics, nil, thresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("expected no failures, got %v", failed)
	}
	sanity := map[string]bool{"a": true, "b": true, "c": true}
	if got := Decide(checks, sanity); got != models.DecisionAccept {
		t.Fatalf("expected ACCEPT, got %s", got)
	}
}

func TestDecideRejectsOnAnyThresholdFailure(t *testing.T) {
	metrics := map[string]float64{"roc_auc": 0.55, "f1": 0.65}
	thresholds := map[string]Threshold{"roc_auc": Num(0.70), "f1": Num(0.60)}

	checks, failed, err := ApplyThresholds(metrics, nil, thresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failed) != 1 || failed[0] != "roc_auc" {
		t.Fatalf("expected roc_auc to fail, got %v", failed)
	}
	// Sanity outcome must not rescue a threshold failure.
	sanity := map[string]bool{"a": true, "b": true}
	if got := Decide(checks, sanity); got != models.DecisionReject {
		t.Fatalf("expected REJECT, got %s", got)
	}
}

func TestDecideSeventyPercentSanityRule(t *testing.T) {
	checks := map[string]bool{"f1": true}

	cases := []struct {
		name   string
		sanity map[string]bool
		want   string
	}{
		{"vacuous", map[string]bool{}, models.DecisionAccept},
		{"all pass", map[string]bool{"a": true, "b": true}, models.DecisionAccept},
		{"3 of 4", map[string]bool{"a": true, "b": true, "c": true, "d": false}, models.DecisionAccept},
		{"2 of 4", map[string]bool{"a": true, "b": true, "c": false, "d": false}, models.DecisionReject},
		{"7 of 10", map[string]bool{"a": true, "b": true, "c": true, "d": true, "e": true, "f": true, "g": true, "h": false, "i": false, "j": false}, models.DecisionAccept},
	}
	for _, tc := range cases {
		if got := Decide(checks, tc.sanity); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestErrorMetricsUseInvertedComparison(t *testing.T) {
	metrics := map[string]float64{"rmse": 4.5, "r2": 0.8}
	thresholds := map[string]Threshold{"rmse": Num(5.0), "r2": Num(0.5)}

	checks, failed, err := ApplyThresholds(metrics, nil, thresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("rmse 4.5 <= 5.0 should pass, failures: %v", failed)
	}
	if !checks["rmse"] || !checks["r2"] {
		t.Fatalf("expected both checks to pass, got %v", checks)
	}

	thresholds["rmse"] = Num(4.0)
	_, failed, err = ApplyThresholds(metrics, nil, thresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failed) != 1 || failed[0] != "rmse" {
		t.Fatalf("rmse 4.5 > 4.0 should fail, failures: %v", failed)
	}
}

func TestSymbolicBaselineThreshold(t *testing.T) {
	metrics := map[string]float64{"accuracy": 0.8}
	baselines := map[string]models.BaselineMetric{
		"accuracy": {Value: 0.7, Description: "majority class"},
	}

	checks, _, err := ApplyThresholds(metrics, baselines, map[string]Threshold{
		"accuracy": Expr("baseline + 0.05"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !checks["accuracy"] {
		t.Fatal("0.8 >= 0.75 should pass")
	}

	checks, _, err = ApplyThresholds(metrics, baselines, map[string]Threshold{
		"accuracy": Expr("baseline * 1.2"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checks["accuracy"] {
		t.Fatal("0.8 < 0.84 should fail")
	}

	if _, _, err := ApplyThresholds(metrics, nil, map[string]Threshold{
		"accuracy": Expr("baseline + 0.05"),
	}); err == nil {
		t.Fatal("expected error when the referenced baseline is missing")
	}
}

func TestEvaluateClassificationEndToEnd(t *testing.T) {
	yTrue := []float64{1, 0, 1, 1, 0, 1, 0, 1, 0, 1}
	yPred := []float64{1, 0, 1, 1, 0, 1, 0, 1, 1, 1}
	yProba := []float64{0.9, 0.2, 0.8, 0.85, 0.1, 0.7, 0.3, 0.95, 0.6, 0.75}

	result, err := Evaluate(models.ProblemClassification, yTrue, yPred, yProba,
		map[string]Threshold{"accuracy": Num(0.8), "f1": Num(0.8)}, "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decision != models.DecisionAccept {
		t.Fatalf("expected ACCEPT, got %s: %s", result.Decision, result.Reasoning)
	}
	if result.PrimaryMetric != "f1" || result.PrimaryValue <= 0 {
		t.Fatalf("expected primary f1 value, got %s=%.4f", result.PrimaryMetric, result.PrimaryValue)
	}
	if _, ok := result.Baselines["accuracy"]; !ok {
		t.Fatal("expected majority-class baseline")
	}
	if _, ok := result.Baselines["roc_auc"]; !ok {
		t.Fatal("expected 0.5 random baseline for binary problem")
	}
	if !strings.Contains(result.Reasoning, "PASS") {
		t.Fatalf("expected reasoning to name passes, got %q", result.Reasoning)
	}
}

func TestEvaluateRejectProducesRemediation(t *testing.T) {
	// Model predicts the majority class for everything.
	yTrue := []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	yPred := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}

	result, err := Evaluate(models.ProblemClassification, yTrue, yPred, nil,
		map[string]Threshold{"f1": Num(0.6)}, "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decision != models.DecisionReject {
		t.Fatalf("expected REJECT, got %s", result.Decision)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("expected remediation recommendations on REJECT")
	}
}

func TestEvaluateRegressionAgainstBaseline(t *testing.T) {
	yTrue := []float64{10, 12, 14, 16, 18, 20}
	yPred := []float64{10.5, 11.5, 14.3, 15.7, 18.2, 19.8}

	result, err := Evaluate(models.ProblemRegression, yTrue, yPred, nil,
		map[string]Threshold{"rmse": Expr("baseline"), "r2": Num(0.5)}, "rmse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decision != models.DecisionAccept {
		t.Fatalf("expected ACCEPT for a close fit, got %s: %s", result.Decision, result.Reasoning)
	}
	if result.Metrics["rmse"] >= result.Baselines["rmse"].Value {
		t.Fatal("test fixture should beat the mean-prediction baseline")
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	yTrue := []float64{1, 0, 1, 0, 1, 1, 0, 0}
	yPred := []float64{1, 0, 0, 0, 1, 1, 1, 0}
	yProba := []float64{0.8, 0.3, 0.45, 0.2, 0.9, 0.7, 0.55, 0.1}
	thresholds := map[string]Threshold{"accuracy": Num(0.7), "roc_auc": Num(0.7)}

	first, err := Evaluate(models.ProblemClassification, yTrue, yPred, yProba, thresholds, "accuracy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Evaluate(models.ProblemClassification, yTrue, yPred, yProba, thresholds, "accuracy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatal("identical inputs must produce byte-identical results")
	}
}

func TestEvaluateRejectsMismatchedInput(t *testing.T) {
	if _, err := Evaluate(models.ProblemClassification, []float64{1}, []float64{1, 0}, nil, nil, "accuracy"); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
	if _, err := Evaluate(models.ProblemClassification, nil, nil, nil, nil, "accuracy"); err == nil {
		t.Fatal("expected error for empty input")
	}
}
