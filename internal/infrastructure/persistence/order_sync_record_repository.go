package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/bridge/internal/domain/integration"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderSyncRecordModel is the GORM model for the order sync journal
type OrderSyncRecordModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	StorefrontOrderID string    `gorm:"type:varchar(64);not null"`
	ExternalRef       string    `gorm:"type:varchar(80);index;not null"`
	SaleOrderID       int64     `gorm:"not null;default:0"`
	LineCount         int       `gorm:"not null;default:0"`
	Status            string    `gorm:"type:varchar(20);index;not null"`
	ErrorMessage      string    `gorm:"type:text"`
	DurationMs        int64     `gorm:"not null;default:0"`
	SyncedAt          time.Time `gorm:"index;not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (OrderSyncRecordModel) TableName() string {
	return "order_sync_records"
}

// ToEntity converts the model to a domain entity
func (m *OrderSyncRecordModel) ToEntity() *integration.OrderSyncRecord {
	return &integration.OrderSyncRecord{
		ID:                m.ID,
		StorefrontOrderID: m.StorefrontOrderID,
		ExternalRef:       m.ExternalRef,
		SaleOrderID:       m.SaleOrderID,
		LineCount:         m.LineCount,
		Status:            integration.SyncStatus(m.Status),
		ErrorMessage:      m.ErrorMessage,
		Duration:          time.Duration(m.DurationMs) * time.Millisecond,
		SyncedAt:          m.SyncedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// OrderSyncRecordModelFromEntity creates a model from a domain entity
func OrderSyncRecordModelFromEntity(e *integration.OrderSyncRecord) *OrderSyncRecordModel {
	return &OrderSyncRecordModel{
		ID:                e.ID,
		StorefrontOrderID: e.StorefrontOrderID,
		ExternalRef:       e.ExternalRef,
		SaleOrderID:       e.SaleOrderID,
		LineCount:         e.LineCount,
		Status:            string(e.Status),
		ErrorMessage:      e.ErrorMessage,
		DurationMs:        e.Duration.Milliseconds(),
		SyncedAt:          e.SyncedAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

// OrderSyncRecordRepository implements integration.OrderSyncRecordRepository
type OrderSyncRecordRepository struct {
	db *gorm.DB
}

// NewOrderSyncRecordRepository creates a new journal repository
func NewOrderSyncRecordRepository(db *gorm.DB) *OrderSyncRecordRepository {
	return &OrderSyncRecordRepository{db: db}
}

// Save inserts or updates a journal entry
func (r *OrderSyncRecordRepository) Save(ctx context.Context, record *integration.OrderSyncRecord) error {
	model := OrderSyncRecordModelFromEntity(record)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save order sync record: %w", err)
	}
	return nil
}

// FindLatestByExternalRef returns the most recent entry for externalRef
func (r *OrderSyncRecordRepository) FindLatestByExternalRef(ctx context.Context, externalRef string) (*integration.OrderSyncRecord, error) {
	var model OrderSyncRecordModel
	err := r.db.WithContext(ctx).
		Where("external_ref = ?", externalRef).
		Order("synced_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncRecordNotFound
		}
		return nil, fmt.Errorf("failed to find order sync record: %w", err)
	}
	return model.ToEntity(), nil
}

// List returns a page of entries, newest first, and the total count
func (r *OrderSyncRecordRepository) List(ctx context.Context, filter integration.OrderSyncRecordFilter) ([]integration.OrderSyncRecord, int64, error) {
	filter.Normalize()

	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&OrderSyncRecordModel{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count order sync records: %w", err)
	}

	var models []OrderSyncRecordModel
	err := r.applyFilter(r.db.WithContext(ctx), filter).
		Order("synced_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list order sync records: %w", err)
	}

	records := make([]integration.OrderSyncRecord, len(models))
	for i := range models {
		records[i] = *models[i].ToEntity()
	}
	return records, total, nil
}

// DeleteSyncedBefore prunes entries synced before cutoff and returns how many
// were removed.
func (r *OrderSyncRecordRepository) DeleteSyncedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("synced_at < ?", cutoff).
		Delete(&OrderSyncRecordModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune order sync records: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *OrderSyncRecordRepository) applyFilter(query *gorm.DB, filter integration.OrderSyncRecordFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.ExternalRef != "" {
		query = query.Where("external_ref = ?", filter.ExternalRef)
	}
	return query
}

var _ integration.OrderSyncRecordRepository = (*OrderSyncRecordRepository)(nil)
