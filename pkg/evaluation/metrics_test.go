package evaluation

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestClassificationMetricsBinary(t *testing.T) {
	// TP=3 FP=1 FN=1 TN=3
	yTrue := []float64{1, 1, 1, 1, 0, 0, 0, 0}
	yPred := []float64{1, 1, 1, 0, 1, 0, 0, 0}

	m := ClassificationMetrics(yTrue, yPred, nil)
	if !almostEqual(m["accuracy"], 0.75) {
		t.Fatalf("accuracy = %v, want 0.75", m["accuracy"])
	}
	if !almostEqual(m["precision"], 0.75) {
		t.Fatalf("precision = %v, want 0.75", m["precision"])
	}
	if !almostEqual(m["recall"], 0.75) {
		t.Fatalf("recall = %v, want 0.75", m["recall"])
	}
	if !almostEqual(m["f1"], 0.75) {
		t.Fatalf("f1 = %v, want 0.75", m["f1"])
	}
	if !almostEqual(m["specificity"], 0.75) {
		t.Fatalf("specificity = %v, want 0.75", m["specificity"])
	}
	if _, ok := m["roc_auc"]; ok {
		t.Fatal("roc_auc must not be emitted without probabilities")
	}
}

func TestClassificationMetricsMulticlass(t *testing.T) {
	yTrue := []float64{0, 0, 1, 1, 2, 2}
	yPred := []float64{0, 1, 1, 1, 2, 0}

	m := ClassificationMetrics(yTrue, yPred, nil)
	if !almostEqual(m["accuracy"], 4.0/6.0) {
		t.Fatalf("accuracy = %v, want %v", m["accuracy"], 4.0/6.0)
	}
	// Macro precision: class0 1/2, class1 2/3, class2 1/1.
	want := (0.5 + 2.0/3.0 + 1.0) / 3.0
	if !almostEqual(m["precision"], want) {
		t.Fatalf("macro precision = %v, want %v", m["precision"], want)
	}
	if _, ok := m["specificity"]; ok {
		t.Fatal("specificity is binary-only")
	}
}

func TestRocAUC(t *testing.T) {
	yTrue := []float64{1, 1, 0, 0}

	// Perfect separation.
	if auc := rocAUC(yTrue, []float64{0.9, 0.8, 0.2, 0.1}); !almostEqual(auc, 1.0) {
		t.Fatalf("auc = %v, want 1.0", auc)
	}
	// Completely inverted.
	if auc := rocAUC(yTrue, []float64{0.1, 0.2, 0.8, 0.9}); !almostEqual(auc, 0.0) {
		t.Fatalf("auc = %v, want 0.0", auc)
	}
	// All tied scores half each pair.
	if auc := rocAUC(yTrue, []float64{0.5, 0.5, 0.5, 0.5}); !almostEqual(auc, 0.5) {
		t.Fatalf("auc = %v, want 0.5", auc)
	}
	// Single-class input has no pairs to rank.
	if auc := rocAUC([]float64{1, 1}, []float64{0.9, 0.8}); !almostEqual(auc, 0.5) {
		t.Fatalf("auc = %v, want 0.5", auc)
	}
}

func TestRegressionMetrics(t *testing.T) {
	yTrue := []float64{2, 4, 6, 8}
	yPred := []float64{3, 3, 7, 7}

	m := RegressionMetrics(yTrue, yPred)
	if !almostEqual(m["mse"], 1.0) {
		t.Fatalf("mse = %v, want 1.0", m["mse"])
	}
	if !almostEqual(m["rmse"], 1.0) {
		t.Fatalf("rmse = %v, want 1.0", m["rmse"])
	}
	if !almostEqual(m["mae"], 1.0) {
		t.Fatalf("mae = %v, want 1.0", m["mae"])
	}
	// SST = 20, SSE = 4.
	if !almostEqual(m["r2"], 0.8) {
		t.Fatalf("r2 = %v, want 0.8", m["r2"])
	}
	if !almostEqual(m["residual_mean"], 0.0) {
		t.Fatalf("residual_mean = %v, want 0", m["residual_mean"])
	}
	if !almostEqual(m["residual_max"], 1.0) {
		t.Fatalf("residual_max = %v, want 1.0", m["residual_max"])
	}
}

func TestRegressionMetricsSkipsZeroTrueInMAPE(t *testing.T) {
	m := RegressionMetrics([]float64{0, 10}, []float64{1, 11})
	// Only the non-zero sample contributes: |1/10| * 100.
	if !almostEqual(m["mape"], 10.0) {
		t.Fatalf("mape = %v, want 10.0", m["mape"])
	}

	m = RegressionMetrics([]float64{0, 0}, []float64{1, 1})
	if _, ok := m["mape"]; ok {
		t.Fatal("mape must be omitted when every true value is zero")
	}
}

func TestConstantTargetR2IsZero(t *testing.T) {
	m := RegressionMetrics([]float64{5, 5, 5}, []float64{4, 5, 6})
	if !almostEqual(m["r2"], 0.0) {
		t.Fatalf("r2 = %v, want 0 for constant target", m["r2"])
	}
}
