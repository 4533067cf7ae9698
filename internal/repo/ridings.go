package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Ridings queries the electoral-district table.
type Ridings struct {
	db *gorm.DB
}

// NewRidings constructs the repository.
func NewRidings(db *gorm.DB) *Ridings {
	return &Ridings{db: db}
}

// Get returns a riding by id, or nil.
func (r *Ridings) Get(ctx context.Context, id uint) (*models.Riding, error) {
	var riding models.Riding
	err := r.db.WithContext(ctx).First(&riding, id).Error
	return optional(&riding, err)
}

// GetByNameAndProvince matches case-insensitively on the natural key.
func (r *Ridings) GetByNameAndProvince(ctx context.Context, name, province string) (*models.Riding, error) {
	var riding models.Riding
	err := r.db.WithContext(ctx).
		Where("lower(name) = lower(?)", name).
		Where("lower(province) = lower(?)", province).
		First(&riding).Error
	return optional(&riding, err)
}

// GetOrCreate fetches a riding, creating it when absent. Concurrent
// creators are resolved by the (name, province) unique index plus a retry
// of the fetch.
func (r *Ridings) GetOrCreate(ctx context.Context, name, province string) (*models.Riding, error) {
	riding, err := r.GetByNameAndProvince(ctx, name, province)
	if err != nil || riding != nil {
		return riding, err
	}
	created := models.Riding{Name: name, Province: province}
	if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
		if existing, getErr := r.GetByNameAndProvince(ctx, name, province); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return &created, nil
}

// List returns ridings with an optional province filter, ordered by name.
func (r *Ridings) List(ctx context.Context, province *string, limit, offset int) ([]models.Riding, error) {
	query := r.db.WithContext(ctx).Model(&models.Riding{})
	if province != nil {
		query = query.Where("province = ?", *province)
	}
	var ridings []models.Riding
	err := query.Order("name").Limit(limit).Offset(offset).Find(&ridings).Error
	return ridings, err
}

// Count returns the riding count under the same filter as List.
func (r *Ridings) Count(ctx context.Context, province *string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Riding{})
	if province != nil {
		query = query.Where("province = ?", *province)
	}
	var total int64
	err := query.Count(&total).Error
	return total, err
}

// GetByPoint returns the riding whose geometry strictly contains the point.
// ST_Contains excludes boundary points, which is the intended contract.
func (r *Ridings) GetByPoint(ctx context.Context, lat, lng float64) (*models.Riding, error) {
	var riding models.Riding
	err := r.db.WithContext(ctx).
		Where("geom IS NOT NULL").
		Where("ST_Contains(geom, ST_SetSRID(ST_MakePoint(?, ?), 4326))", lng, lat).
		First(&riding).Error
	return optional(&riding, err)
}
