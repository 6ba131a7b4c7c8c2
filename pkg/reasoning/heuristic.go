package reasoning

import (
	"strings"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// HeuristicAnalyze is the deterministic fallback used whenever the reasoning
// service fails: keyword matching over the problem description plus simple
// inspection of the data sample. Confidence is deliberately modest.
func HeuristicAnalyze(problemText string, dataSample []map[string]interface{}, modalityHint string) models.ProblemAnalysis {
	text := strings.ToLower(problemText)

	problemType := models.ProblemUnknown
	var metrics []string
	switch {
	case containsAny(text, "forecast", "predict future", "next month", "next week", "demand planning"):
		problemType = models.ProblemForecasting
		metrics = []string{"rmse", "mape"}
	case containsAny(text, "sentiment", "opinion", "review tone"):
		problemType = models.ProblemSentiment
		metrics = []string{"accuracy", "f1"}
	case containsAny(text, "named entity", "entity extraction", "ner"):
		problemType = models.ProblemNER
		metrics = []string{"f1"}
	case containsAny(text, "detect object", "bounding box", "object detection"):
		problemType = models.ProblemDetection
		metrics = []string{"map"}
	case containsAny(text, "segment image", "segmentation", "pixel mask"):
		problemType = models.ProblemSegmentation
		metrics = []string{"iou"}
	case containsAny(text, "anomaly", "outlier", "fraud", "intrusion"):
		problemType = models.ProblemAnomalyDetection
		metrics = []string{"roc_auc", "precision", "recall"}
	case containsAny(text, "recommend", "suggestion engine", "personalize"):
		problemType = models.ProblemRecommendation
		metrics = []string{"precision", "recall"}
	case containsAny(text, "cluster", "group similar", "segment customers"):
		problemType = models.ProblemClustering
		metrics = []string{"silhouette"}
	case containsAny(text, "classify", "categorize", "which category", "spam", "churn", "label"):
		problemType = models.ProblemClassification
		metrics = []string{"accuracy", "f1", "roc_auc"}
	case containsAny(text, "predict", "estimate", "how much", "price", "value", "amount"):
		problemType = models.ProblemRegression
		metrics = []string{"rmse", "mae", "r2"}
	}

	modality := modalityHint
	if modality == "" {
		modality = guessModality(text, dataSample)
	}

	// Text problems imply the text modality even when the sample looks tabular.
	if problemType == models.ProblemSentiment || problemType == models.ProblemNER {
		modality = models.ModalityText
	}
	if problemType == models.ProblemDetection || problemType == models.ProblemSegmentation {
		modality = models.ModalityImage
	}
	if problemType == models.ProblemForecasting {
		modality = models.ModalityTimeSeries
	}
	if problemType == models.ProblemClassification && modality == models.ModalityText {
		problemType = models.ProblemTextClassification
	}

	confidence := 0.6
	if problemType == models.ProblemUnknown {
		confidence = 0.3
		metrics = []string{"accuracy"}
	}

	return models.ProblemAnalysis{
		ProblemType:      problemType,
		DataModality:     modality,
		Domain:           "general",
		SuggestedMetrics: metrics,
		ComplexityScore:  heuristicComplexity(dataSample),
		Confidence:       confidence,
		HasLabels:        true,
		Reasoning:        "keyword-based fallback analysis; the reasoning service was unavailable",
	}
}

func guessModality(text string, dataSample []map[string]interface{}) string {
	switch {
	case containsAny(text, "image", "photo", "picture", "x-ray", "scan"):
		return models.ModalityImage
	case containsAny(text, "text", "document", "review", "comment", "tweet", "email"):
		return models.ModalityText
	case containsAny(text, "time series", "sensor readings", "hourly", "daily", "weekly"):
		return models.ModalityTimeSeries
	}
	if len(dataSample) > 0 {
		long := 0
		for _, v := range dataSample[0] {
			if s, ok := v.(string); ok && len(s) > 100 {
				long++
			}
		}
		if long > 0 {
			return models.ModalityText
		}
		return models.ModalityTabular
	}
	return models.ModalityUnknown
}

// heuristicComplexity grows with column count, crudely bounded.
func heuristicComplexity(dataSample []map[string]interface{}) float64 {
	if len(dataSample) == 0 {
		return 0.5
	}
	cols := len(dataSample[0])
	score := float64(cols) / 50.0
	if score > 0.9 {
		score = 0.9
	}
	if score < 0.1 {
		score = 0.1
	}
	return score
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
