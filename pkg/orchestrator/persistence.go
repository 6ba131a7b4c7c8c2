package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/modelpilot-ai/platform/pkg/common/models"
	"github.com/modelpilot-ai/platform/pkg/storage"
)

// encodeState wraps the full pipeline state as one storage record.
func encodeState(st *models.PipelineState) (storage.Record, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return storage.Record{}, fmt.Errorf("encode pipeline state: %w", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return storage.Record{}, fmt.Errorf("encode pipeline state: %w", err)
	}
	return storage.Record{
		EntityType: entityPipeline,
		ID:         st.ProjectID.String(),
		Data:       data,
	}, nil
}

func decodeState(rec storage.Record) (*models.PipelineState, error) {
	raw, err := json.Marshal(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("decode pipeline state %s: %w", rec.ID, err)
	}
	var st models.PipelineState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode pipeline state %s: %w", rec.ID, err)
	}
	return &st, nil
}
