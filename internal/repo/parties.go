package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Parties queries the parties table.
type Parties struct {
	db *gorm.DB
}

// NewParties constructs the repository.
func NewParties(db *gorm.DB) *Parties {
	return &Parties{db: db}
}

// Get returns a party by id, or nil.
func (r *Parties) Get(ctx context.Context, id uint) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).First(&party, id).Error
	return optional(&party, err)
}

// GetByName returns a party by exact name, or nil.
func (r *Parties) GetByName(ctx context.Context, name string) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&party).Error
	return optional(&party, err)
}

// GetOrCreate fetches a party by name, creating it when absent. A unique
// constraint on name breaks ties between concurrent pipelines; on conflict
// the insert loses and the fetch is retried.
func (r *Parties) GetOrCreate(ctx context.Context, name string, shortName, color *string) (*models.Party, error) {
	party, err := r.GetByName(ctx, name)
	if err != nil || party != nil {
		return party, err
	}
	created := models.Party{Name: name, ShortName: shortName, Color: color}
	if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
		if existing, getErr := r.GetByName(ctx, name); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return &created, nil
}

// List returns parties ordered by name.
func (r *Parties) List(ctx context.Context, limit, offset int) ([]models.Party, error) {
	var parties []models.Party
	err := r.db.WithContext(ctx).Order("name").Limit(limit).Offset(offset).Find(&parties).Error
	return parties, err
}

// Count returns the total number of parties.
func (r *Parties) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Party{}).Count(&total).Error
	return total, err
}
