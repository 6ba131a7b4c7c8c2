package reasoning

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelpilot-ai/platform/pkg/common/config"
	"github.com/modelpilot-ai/platform/pkg/common/httpclient"
	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// AdviceContext is everything the advisory prompt gets to see.
type AdviceContext struct {
	Analysis models.ProblemAnalysis `json:"analysis"`
	Profile  models.DatasetProfile  `json:"profile"`
	Domain   string                 `json:"domain,omitempty"`
}

// Service is the reasoning-service boundary. Any failure here is recoverable:
// the orchestrator falls back to the deterministic heuristics in this package.
type Service interface {
	Analyze(ctx context.Context, problemText string, dataSample []map[string]interface{}, modalityHint string) (models.ProblemAnalysis, error)
	AdviseModel(ctx context.Context, advCtx AdviceContext) (models.ModelRecommendation, error)
}

// Client calls the external reasoning API over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	modelName  string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: httpclient.New(cfg.ReasoningTimeout),
		baseURL:    cfg.ReasoningBaseURL,
		apiKey:     cfg.ReasoningAPIKey,
		modelName:  cfg.ReasoningModel,
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

func (c *Client) Analyze(ctx context.Context, problemText string, dataSample []map[string]interface{}, modalityHint string) (models.ProblemAnalysis, error) {
	req := map[string]interface{}{
		"model":         c.modelName,
		"problem_text":  problemText,
		"data_sample":   dataSample,
		"modality_hint": modalityHint,
	}
	var analysis models.ProblemAnalysis
	url := fmt.Sprintf("%s/analyze", c.baseURL)
	if err := httpclient.DoJSON(ctx, c.httpClient, http.MethodPost, url, c.headers(), req, &analysis); err != nil {
		return models.ProblemAnalysis{}, err
	}
	if err := analysis.Validate(); err != nil {
		return models.ProblemAnalysis{}, fmt.Errorf("%w: %v", httpclient.ErrMalformed, err)
	}
	if analysis.ProblemType == "" {
		return models.ProblemAnalysis{}, fmt.Errorf("%w: missing problem_type", httpclient.ErrMalformed)
	}
	return analysis, nil
}

func (c *Client) AdviseModel(ctx context.Context, advCtx AdviceContext) (models.ModelRecommendation, error) {
	req := map[string]interface{}{
		"model":   c.modelName,
		"context": advCtx,
	}
	var rec models.ModelRecommendation
	url := fmt.Sprintf("%s/advise-model", c.baseURL)
	if err := httpclient.DoJSON(ctx, c.httpClient, http.MethodPost, url, c.headers(), req, &rec); err != nil {
		return models.ModelRecommendation{}, err
	}
	if rec.Architecture == "" {
		return models.ModelRecommendation{}, fmt.Errorf("%w: missing architecture", httpclient.ErrMalformed)
	}
	if rec.Confidence < 0 || rec.Confidence > 1 {
		return models.ModelRecommendation{}, fmt.Errorf("%w: confidence %.3f out of range", httpclient.ErrMalformed, rec.Confidence)
	}
	return rec, nil
}
