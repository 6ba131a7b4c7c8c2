package reasoning

import (
	"testing"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

func TestHeuristicAnalyzeKeywordDispatch(t *testing.T) {
	cases := []struct {
		text         string
		wantType     string
		wantModality string
	}{
		{"Forecast demand for the next month", models.ProblemForecasting, models.ModalityTimeSeries},
		{"Detect fraud in card transactions", models.ProblemAnomalyDetection, ""},
		{"Classify support tickets into categories", models.ProblemClassification, ""},
		{"Predict the sale price of a house", models.ProblemRegression, ""},
		{"Sentiment of customer reviews", models.ProblemSentiment, models.ModalityText},
		{"Object detection on shelf photos", models.ProblemDetection, models.ModalityImage},
	}
	for _, tc := range cases {
		analysis := HeuristicAnalyze(tc.text, nil, "")
		if analysis.ProblemType != tc.wantType {
			t.Fatalf("%q classified as %s, want %s", tc.text, analysis.ProblemType, tc.wantType)
		}
		if tc.wantModality != "" && analysis.DataModality != tc.wantModality {
			t.Fatalf("%q modality %s, want %s", tc.text, analysis.DataModality, tc.wantModality)
		}
		if analysis.Confidence != 0.6 {
			t.Fatalf("%q confidence %v, want the modest fallback 0.6", tc.text, analysis.Confidence)
		}
		if len(analysis.SuggestedMetrics) == 0 {
			t.Fatalf("%q has no suggested metrics", tc.text)
		}
	}
}

func TestHeuristicAnalyzeUnknown(t *testing.T) {
	analysis := HeuristicAnalyze("do something useful with this data", nil, "")
	if analysis.ProblemType != models.ProblemUnknown {
		t.Fatalf("expected unknown, got %s", analysis.ProblemType)
	}
	if analysis.Confidence != 0.3 {
		t.Fatalf("unknown problems carry low confidence, got %v", analysis.Confidence)
	}
}

func TestHeuristicTextClassificationUpgrade(t *testing.T) {
	analysis := HeuristicAnalyze("classify these customer emails", nil, "")
	if analysis.ProblemType != models.ProblemTextClassification {
		t.Fatalf("classification over text must become %s, got %s",
			models.ProblemTextClassification, analysis.ProblemType)
	}
	if analysis.DataModality != models.ModalityText {
		t.Fatalf("modality = %s, want text", analysis.DataModality)
	}
}

func TestHeuristicModalityFromSample(t *testing.T) {
	longText := make([]byte, 150)
	for i := range longText {
		longText[i] = 'a'
	}
	textSample := []map[string]interface{}{{"body": string(longText)}}
	if got := HeuristicAnalyze("categorize records", textSample, "").DataModality; got != models.ModalityText {
		t.Fatalf("long string columns imply text, got %s", got)
	}

	tabular := []map[string]interface{}{{"age": 42.0, "income": 1000.0}}
	if got := HeuristicAnalyze("categorize records", tabular, "").DataModality; got != models.ModalityTabular {
		t.Fatalf("numeric sample implies tabular, got %s", got)
	}

	// An explicit hint always wins over inspection.
	if got := HeuristicAnalyze("categorize records", tabular, models.ModalityImage).DataModality; got != models.ModalityImage {
		t.Fatalf("hint must win, got %s", got)
	}
}

func TestHeuristicComplexityBounds(t *testing.T) {
	if got := heuristicComplexity(nil); got != 0.5 {
		t.Fatalf("empty sample complexity = %v, want 0.5", got)
	}

	wide := map[string]interface{}{}
	for i := 0; i < 100; i++ {
		wide[string(rune('a'+i%26))+string(rune('0'+i/26))] = i
	}
	if got := heuristicComplexity([]map[string]interface{}{wide}); got != 0.9 {
		t.Fatalf("wide sample complexity = %v, want the 0.9 cap", got)
	}

	if got := heuristicComplexity([]map[string]interface{}{{"only": 1}}); got != 0.1 {
		t.Fatalf("single-column complexity = %v, want the 0.1 floor", got)
	}
}
