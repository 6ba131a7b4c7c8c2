package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordModel is the gorm row backing one stored document.
type RecordModel struct {
	EntityType string            `gorm:"primaryKey;column:entity_type"`
	RecordID   string            `gorm:"primaryKey;column:record_id"`
	Subfolder  string            `gorm:"primaryKey;column:subfolder"`
	Data       datatypes.JSONMap `gorm:"column:data"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at"`
}

func (RecordModel) TableName() string {
	return "records"
}

// GormStore persists records in postgres as JSON documents.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&RecordModel{})
}

func (s *GormStore) Create(ctx context.Context, rec Record) error {
	now := time.Now().UTC()
	model := RecordModel{
		EntityType: rec.EntityType,
		RecordID:   rec.ID,
		Subfolder:  rec.Subfolder,
		Data:       datatypes.JSONMap(rec.Data),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *GormStore) Get(ctx context.Context, entityType, id, subfolder string) (Record, error) {
	var model RecordModel
	result := s.db.WithContext(ctx).First(&model,
		"entity_type = ? AND record_id = ? AND subfolder = ?", entityType, id, subfolder)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Record{}, ErrRecordNotFound
	}
	if result.Error != nil {
		return Record{}, result.Error
	}
	return toRecord(model), nil
}

func (s *GormStore) Update(ctx context.Context, rec Record) error {
	result := s.db.WithContext(ctx).Model(&RecordModel{}).
		Where("entity_type = ? AND record_id = ? AND subfolder = ?", rec.EntityType, rec.ID, rec.Subfolder).
		Updates(map[string]interface{}{
			"data":       datatypes.JSONMap(rec.Data),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return s.Create(ctx, rec)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, entityType, id, subfolder string) error {
	return s.db.WithContext(ctx).
		Where("entity_type = ? AND record_id = ? AND subfolder = ?", entityType, id, subfolder).
		Delete(&RecordModel{}).Error
}

func (s *GormStore) List(ctx context.Context, entityType, subfolder string, filter func(Record) bool) ([]Record, error) {
	var rows []RecordModel
	query := s.db.WithContext(ctx).Where("entity_type = ?", entityType)
	if subfolder != "" {
		query = query.Where("subfolder = ?", subfolder)
	}
	if err := query.Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := toRecord(row)
		if filter == nil || filter(rec) {
			records = append(records, rec)
		}
	}
	return records, nil
}

func toRecord(model RecordModel) Record {
	rec := Record{
		EntityType: model.EntityType,
		ID:         model.RecordID,
		Subfolder:  model.Subfolder,
	}
	if model.Data != nil {
		rec.Data = map[string]interface{}(model.Data)
	}
	return rec
}
