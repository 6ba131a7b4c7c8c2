package evaluation

import (
	"math"
	"sort"
)

// ClassificationMetrics computes the full classification metric set from
// true labels and predictions. Labels are class indices encoded as float64.
// ROC-AUC needs positive-class probabilities and is only emitted for binary
// problems when probas are supplied.
func ClassificationMetrics(yTrue, yPred []float64, yProba []float64) map[string]float64 {
	n := len(yTrue)
	metrics := map[string]float64{}
	if n == 0 || len(yPred) != n {
		return metrics
	}

	classes := distinctClasses(yTrue, yPred)
	var correct int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	metrics["accuracy"] = float64(correct) / float64(n)

	// Macro-averaged precision/recall/F1; for binary problems the macro
	// average over two one-vs-rest passes matches the usual convention
	// closely enough for gating, and positive-class metrics are emitted
	// separately below.
	var sumPrec, sumRec, sumF1 float64
	for _, class := range classes {
		prec, rec := precisionRecall(yTrue, yPred, class)
		sumPrec += prec
		sumRec += rec
		sumF1 += f1Score(prec, rec)
	}
	k := float64(len(classes))
	if k > 0 {
		metrics["precision"] = sumPrec / k
		metrics["recall"] = sumRec / k
		metrics["f1"] = sumF1 / k
	}

	if len(classes) == 2 {
		// Binary: report positive-class (label 1) metrics and specificity.
		prec, rec := precisionRecall(yTrue, yPred, 1)
		metrics["precision"] = prec
		metrics["recall"] = rec
		metrics["f1"] = f1Score(prec, rec)
		_, tnr := precisionRecall(yTrue, yPred, 0)
		metrics["specificity"] = tnr
		if len(yProba) == n {
			metrics["roc_auc"] = rocAUC(yTrue, yProba)
		}
	}
	return metrics
}

// RegressionMetrics computes the full regression metric set.
func RegressionMetrics(yTrue, yPred []float64) map[string]float64 {
	n := len(yTrue)
	metrics := map[string]float64{}
	if n == 0 || len(yPred) != n {
		return metrics
	}

	var sse, sae, sumTrue, mapeSum, residSum float64
	var mapeCount int
	maxResid := math.Inf(-1)
	for i := range yTrue {
		resid := yTrue[i] - yPred[i]
		sse += resid * resid
		sae += math.Abs(resid)
		sumTrue += yTrue[i]
		residSum += resid
		if math.Abs(resid) > maxResid {
			maxResid = math.Abs(resid)
		}
		if yTrue[i] != 0 {
			mapeSum += math.Abs(resid / yTrue[i])
			mapeCount++
		}
	}

	mse := sse / float64(n)
	metrics["mse"] = mse
	metrics["rmse"] = math.Sqrt(mse)
	metrics["mae"] = sae / float64(n)
	if mapeCount > 0 {
		metrics["mape"] = mapeSum / float64(mapeCount) * 100
	}

	mean := sumTrue / float64(n)
	var sst float64
	for _, v := range yTrue {
		sst += (v - mean) * (v - mean)
	}
	if sst > 0 {
		metrics["r2"] = 1 - sse/sst
	} else {
		metrics["r2"] = 0
	}

	residMean := residSum / float64(n)
	var residVar float64
	for i := range yTrue {
		d := (yTrue[i] - yPred[i]) - residMean
		residVar += d * d
	}
	metrics["residual_mean"] = residMean
	metrics["residual_std"] = math.Sqrt(residVar / float64(n))
	metrics["residual_max"] = maxResid
	return metrics
}

func distinctClasses(yTrue, yPred []float64) []float64 {
	seen := map[float64]struct{}{}
	for _, v := range yTrue {
		seen[v] = struct{}{}
	}
	for _, v := range yPred {
		seen[v] = struct{}{}
	}
	classes := make([]float64, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Float64s(classes)
	return classes
}

func precisionRecall(yTrue, yPred []float64, class float64) (float64, float64) {
	var tp, fp, fn int
	for i := range yTrue {
		predicted := yPred[i] == class
		actual := yTrue[i] == class
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		}
	}
	var precision, recall float64
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	return precision, recall
}

func f1Score(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// rocAUC ranks probabilities and counts concordant positive/negative pairs,
// with ties worth half. Deterministic for identical inputs.
func rocAUC(yTrue, yProba []float64) float64 {
	var pos, neg []float64
	for i := range yTrue {
		if yTrue[i] == 1 {
			pos = append(pos, yProba[i])
		} else {
			neg = append(neg, yProba[i])
		}
	}
	if len(pos) == 0 || len(neg) == 0 {
		return 0.5
	}
	var concordant float64
	for _, p := range pos {
		for _, q := range neg {
			switch {
			case p > q:
				concordant++
			case p == q:
				concordant += 0.5
			}
		}
	}
	return concordant / float64(len(pos)*len(neg))
}
