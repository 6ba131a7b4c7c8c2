package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

const entityDecision = "decision"

// AuditLog persists decision-audit entries independently of the pipeline
// state so they stay queryable after a run, one record per decision keyed
// under the project's subfolder.
type AuditLog struct {
	store Store
}

func NewAuditLog(store Store) *AuditLog {
	return &AuditLog{store: store}
}

func (a *AuditLog) Append(ctx context.Context, projectID string, seq int, decision models.Decision) error {
	data, err := toMap(decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	return a.store.Create(ctx, Record{
		EntityType: entityDecision,
		ID:         fmt.Sprintf("%s-%04d", projectID, seq),
		Subfolder:  projectID,
		Data:       data,
	})
}

// ListByProject returns a project's decisions in append order.
func (a *AuditLog) ListByProject(ctx context.Context, projectID string) ([]models.Decision, error) {
	records, err := a.store.List(ctx, entityDecision, projectID, nil)
	if err != nil {
		return nil, err
	}
	decisions := make([]models.Decision, 0, len(records))
	for _, rec := range records {
		var d models.Decision
		if err := fromMap(rec.Data, &d); err != nil {
			return nil, fmt.Errorf("decode decision %s: %w", rec.ID, err)
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

func toMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromMap(data map[string]interface{}, target interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
