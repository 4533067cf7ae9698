package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Bills queries the bills table.
type Bills struct {
	db *gorm.DB
}

// NewBills constructs the repository.
func NewBills(db *gorm.DB) *Bills {
	return &Bills{db: db}
}

// GetByNaturalKey returns the bill for (number, parliament, session).
func (r *Bills) GetByNaturalKey(ctx context.Context, billNumber string, parliament, session *int) (*models.Bill, error) {
	var bill models.Bill
	query := r.db.WithContext(ctx).Where("bill_number = ?", billNumber)
	query = whereNullable(query, "parliament", parliament)
	query = whereNullable(query, "session", session)
	err := query.First(&bill).Error
	return optional(&bill, err)
}

// Get returns a bill by id, or nil.
func (r *Bills) Get(ctx context.Context, id uint) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).First(&bill, id).Error
	return optional(&bill, err)
}

// Upsert writes a bill keyed by (number, parliament, session). The record
// carries the full replacement field set.
func (r *Bills) Upsert(ctx context.Context, record *models.Bill) (*models.Bill, error) {
	existing, err := r.GetByNaturalKey(ctx, record.BillNumber, record.Parliament, record.Session)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
			return nil, err
		}
		return record, nil
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// BillFilters narrow List and Count.
type BillFilters struct {
	Parliament *int
	Session    *int
	Status     *string
}

func (r *Bills) filtered(ctx context.Context, filters BillFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Bill{})
	query = whereOptional(query, "parliament", filters.Parliament)
	query = whereOptional(query, "session", filters.Session)
	query = whereOptional(query, "status", filters.Status)
	return query
}

// List returns bills ordered by latest activity, newest first.
func (r *Bills) List(ctx context.Context, filters BillFilters, limit, offset int) ([]models.Bill, error) {
	var bills []models.Bill
	err := r.filtered(ctx, filters).
		Order("latest_activity_date DESC NULLS LAST").
		Limit(limit).Offset(offset).
		Find(&bills).Error
	return bills, err
}

// Count counts bills under the same filters as List.
func (r *Bills) Count(ctx context.Context, filters BillFilters) (int64, error) {
	var total int64
	err := r.filtered(ctx, filters).Count(&total).Error
	return total, err
}
