package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a map-backed Store for tests and single-node local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   map[string]int
	seq     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[string]Record{},
		order:   map[string]int{},
	}
}

func key(entityType, id, subfolder string) string {
	return entityType + "/" + subfolder + "/" + id
}

func (s *MemoryStore) Create(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(rec.EntityType, rec.ID, rec.Subfolder)
	if _, exists := s.records[k]; !exists {
		s.seq++
		s.order[k] = s.seq
	}
	s.records[k] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, entityType, id, subfolder string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key(entityType, id, subfolder)]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Update(ctx context.Context, rec Record) error {
	return s.Create(ctx, rec)
}

func (s *MemoryStore) Delete(ctx context.Context, entityType, id, subfolder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(entityType, id, subfolder)
	delete(s.records, k)
	delete(s.order, k)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, entityType, subfolder string, filter func(Record) bool) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		rec Record
		seq int
	}
	var entries []entry
	for k, rec := range s.records {
		if rec.EntityType != entityType {
			continue
		}
		if subfolder != "" && rec.Subfolder != subfolder {
			continue
		}
		if filter != nil && !filter(rec) {
			continue
		}
		entries = append(entries, entry{rec: cloneRecord(rec), seq: s.order[k]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.rec)
	}
	return records, nil
}

func cloneRecord(rec Record) Record {
	out := rec
	if rec.Data != nil {
		out.Data = make(map[string]interface{}, len(rec.Data))
		for k, v := range rec.Data {
			out.Data[k] = v
		}
	}
	return out
}
