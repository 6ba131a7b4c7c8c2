package trainer

import (
	"context"
)

// Job states reported by the managed training backend.
const (
	StateQueued    = "queued"
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
	StateExpired   = "expired"
)

// Done reports whether a backend state is final.
func Done(state string) bool {
	switch state {
	case StateSucceeded, StateFailed, StateCancelled, StateExpired:
		return true
	}
	return false
}

// JobSpec is the request the backend understands, built from a model
// recommendation by BuildJobSpec.
type JobSpec struct {
	ProjectID      string                 `json:"project_id"`
	DisplayName    string                 `json:"display_name"`
	Product        string                 `json:"product"`
	Architecture   string                 `json:"architecture"`
	Strategy       string                 `json:"strategy"`
	DatasetURI     string                 `json:"dataset_uri"`
	TargetColumn   string                 `json:"target_column,omitempty"`
	Objective      string                 `json:"objective,omitempty"`
	BudgetMinutes  int                    `json:"budget_minutes,omitempty"`
	UseGPU         bool                   `json:"use_gpu,omitempty"`
	Hyperparams    map[string]interface{} `json:"hyperparams,omitempty"`
	PrimaryMetric  string                 `json:"primary_metric,omitempty"`
}

// Submission identifies a running job on the backend.
type Submission struct {
	JobID          string `json:"job_id"`
	ResourceHandle string `json:"resource_handle"`
}

// Status is one polled snapshot of a job. Final succeeded snapshots carry
// the validation-split predictions the acceptance gate scores.
type Status struct {
	State       string             `json:"state"`
	ErrorDetail string             `json:"error_detail,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	ModelURI    string             `json:"model_uri,omitempty"`
	ValTrue     []float64          `json:"val_true,omitempty"`
	ValPred     []float64          `json:"val_pred,omitempty"`
	ValProba    []float64          `json:"val_proba,omitempty"`
}

// Deployment is the result of pushing a trained model to an endpoint.
type Deployment struct {
	EndpointID string `json:"endpoint_id"`
}

// Backend is the managed training/deployment boundary.
type Backend interface {
	Submit(ctx context.Context, spec JobSpec) (Submission, error)
	PollStatus(ctx context.Context, resourceHandle string) (Status, error)
	Cancel(ctx context.Context, resourceHandle string) (bool, error)
	Deploy(ctx context.Context, modelURI string) (Deployment, error)
}
