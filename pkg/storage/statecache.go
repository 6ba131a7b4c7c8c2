package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelpilot-ai/platform/pkg/common/logger"
	"github.com/modelpilot-ai/platform/pkg/common/models"
	"github.com/redis/go-redis/v9"
)

// StateCache keeps the latest pipeline-state snapshot in redis so status
// reads skip postgres. Cache failures are logged and swallowed; the durable
// store remains the source of truth.
type StateCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateCache(client *redis.Client, ttl time.Duration) *StateCache {
	return &StateCache{client: client, ttl: ttl}
}

func stateKey(projectID string) string {
	return fmt.Sprintf("pipeline:state:%s", projectID)
}

func (c *StateCache) Put(ctx context.Context, state *models.PipelineState) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to encode state snapshot")
		return
	}
	if err := c.client.Set(ctx, stateKey(state.ProjectID.String()), data, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).Debug("State snapshot write skipped")
	}
}

func (c *StateCache) Get(ctx context.Context, projectID string) (*models.PipelineState, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, stateKey(projectID)).Bytes()
	if err != nil {
		return nil, false
	}
	var state models.PipelineState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Log.WithError(err).Error("Failed to decode state snapshot")
		return nil, false
	}
	return &state, true
}

func (c *StateCache) Invalidate(ctx context.Context, projectID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, stateKey(projectID)).Err(); err != nil {
		logger.Log.WithError(err).Debug("State snapshot delete skipped")
	}
}
