package storage

import (
	"context"
	"errors"
)

var ErrRecordNotFound = errors.New("record not found")

// Record is one JSON-serializable document keyed by entity type, id and an
// optional subfolder. The store is eventually-durable key-value storage, not
// a query engine; List's predicate filters caller-side.
type Record struct {
	EntityType string                 `json:"entity_type"`
	ID         string                 `json:"id"`
	Subfolder  string                 `json:"subfolder,omitempty"`
	Data       map[string]interface{} `json:"data"`
}

// Store is the durable storage boundary consumed by the orchestrator.
type Store interface {
	Create(ctx context.Context, rec Record) error
	Get(ctx context.Context, entityType, id, subfolder string) (Record, error)
	Update(ctx context.Context, rec Record) error
	Delete(ctx context.Context, entityType, id, subfolder string) error
	List(ctx context.Context, entityType, subfolder string, filter func(Record) bool) ([]Record, error)
}
