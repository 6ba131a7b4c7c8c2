package trainer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/modelpilot-ai/platform/pkg/common/config"
	"github.com/modelpilot-ai/platform/pkg/common/httpclient"
)

// Client talks to the managed training backend over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: httpclient.New(60 * time.Second),
		baseURL:    cfg.TrainerBaseURL,
		apiKey:     cfg.TrainerAPIKey,
	}
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

func (c *Client) Submit(ctx context.Context, spec JobSpec) (Submission, error) {
	var sub Submission
	endpoint := fmt.Sprintf("%s/v1/jobs", c.baseURL)
	if err := httpclient.DoJSON(ctx, c.httpClient, http.MethodPost, endpoint, c.headers(), spec, &sub); err != nil {
		return Submission{}, fmt.Errorf("submit training job: %w", err)
	}
	if sub.ResourceHandle == "" {
		return Submission{}, fmt.Errorf("%w: submission missing resource handle", httpclient.ErrMalformed)
	}
	return sub, nil
}

func (c *Client) PollStatus(ctx context.Context, resourceHandle string) (Status, error) {
	var status Status
	endpoint := fmt.Sprintf("%s/v1/jobs/%s", c.baseURL, url.PathEscape(resourceHandle))
	if err := httpclient.DoJSON(ctx, c.httpClient, http.MethodGet, endpoint, c.headers(), nil, &status); err != nil {
		return Status{}, fmt.Errorf("poll training job: %w", err)
	}
	return status, nil
}

func (c *Client) Cancel(ctx context.Context, resourceHandle string) (bool, error) {
	endpoint := fmt.Sprintf("%s/v1/jobs/%s:cancel", c.baseURL, url.PathEscape(resourceHandle))
	var resp struct {
		Cancelled bool `json:"cancelled"`
	}
	if err := httpclient.DoJSON(ctx, c.httpClient, http.MethodPost, endpoint, c.headers(), nil, &resp); err != nil {
		return false, fmt.Errorf("cancel training job: %w", err)
	}
	return resp.Cancelled, nil
}

func (c *Client) Deploy(ctx context.Context, modelURI string) (Deployment, error) {
	var dep Deployment
	endpoint := fmt.Sprintf("%s/v1/deployments", c.baseURL)
	req := map[string]string{"model_uri": modelURI}
	if err := httpclient.DoJSON(ctx, c.httpClient, http.MethodPost, endpoint, c.headers(), req, &dep); err != nil {
		return Deployment{}, fmt.Errorf("deploy model: %w", err)
	}
	return dep, nil
}
