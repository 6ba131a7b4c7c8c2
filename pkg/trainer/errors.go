package trainer

import (
	"fmt"
	"strings"
)

// Failure causes classified from backend error text. Each maps to one fixed
// human-actionable message.
const (
	CauseSchema         = "schema_error"
	CauseOutOfMemory    = "out_of_memory"
	CauseNonConvergence = "non_convergence"
	CauseQuota          = "quota_exceeded"
	CauseNotFound       = "resource_not_found"
	CauseTimeout        = "timeout"
	CauseUnknown        = "unknown"
)

type classifierRule struct {
	cause    string
	keywords []string
	message  string
}

// Rules are checked in order; the first keyword hit wins.
var classifierRules = []classifierRule{
	{
		cause:    CauseSchema,
		keywords: []string{"schema", "parse error", "invalid column", "could not convert", "unexpected type"},
		message:  "the backend rejected the dataset schema: check column types and the target column name",
	},
	{
		cause:    CauseOutOfMemory,
		keywords: []string{"out of memory", "oom", "memory limit", "resource exhausted"},
		message:  "training ran out of memory: reduce batch size or choose a smaller architecture",
	},
	{
		cause:    CauseNonConvergence,
		keywords: []string{"did not converge", "nan loss", "loss is nan", "diverged", "convergence"},
		message:  "training did not converge: lower the learning rate or normalize the features",
	},
	{
		cause:    CauseQuota,
		keywords: []string{"quota", "permission denied", "forbidden", "rate limit", "billing"},
		message:  "the backend refused the job for quota or permission reasons: check project quotas and credentials",
	},
	{
		cause:    CauseNotFound,
		keywords: []string{"not found", "no such", "does not exist", "404"},
		message:  "a referenced resource was not found: the dataset or model artifact may have been deleted",
	},
	{
		cause:    CauseTimeout,
		keywords: []string{"timed out", "timeout", "deadline exceeded", "expired"},
		message:  "the training job exceeded its time budget: raise the budget or reduce dataset size",
	},
}

// ClassifyError maps backend error text onto an actionable cause and a fixed
// message. Unmatched text falls through to a generic cause carrying the raw
// message.
func ClassifyError(errorText string) (cause, message string) {
	lower := strings.ToLower(errorText)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.cause, rule.message
			}
		}
	}
	return CauseUnknown, fmt.Sprintf("training failed: %s", errorText)
}
