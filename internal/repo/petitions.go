package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Petitions queries the petitions table.
type Petitions struct {
	db *gorm.DB
}

// NewPetitions constructs the repository.
func NewPetitions(db *gorm.DB) *Petitions {
	return &Petitions{db: db}
}

// GetByNumber returns the petition for a petition number, or nil.
func (r *Petitions) GetByNumber(ctx context.Context, petitionNumber string) (*models.Petition, error) {
	var petition models.Petition
	err := r.db.WithContext(ctx).Where("petition_number = ?", petitionNumber).First(&petition).Error
	return optional(&petition, err)
}

// Upsert writes a petition keyed by petition number.
func (r *Petitions) Upsert(ctx context.Context, record *models.Petition) (*models.Petition, error) {
	existing, err := r.GetByNumber(ctx, record.PetitionNumber)
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

// PetitionFilters narrow List and Count.
type PetitionFilters struct {
	Status       *string
	SponsorHocID *int
	Parliament   *int
	Session      *int
}

func (r *Petitions) filtered(ctx context.Context, filters PetitionFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Petition{})
	query = whereOptional(query, "status", filters.Status)
	query = whereOptional(query, "sponsor_hoc_id", filters.SponsorHocID)
	query = whereOptional(query, "parliament", filters.Parliament)
	query = whereOptional(query, "session", filters.Session)
	return query
}

// List returns petitions ordered by presentation date, newest first.
func (r *Petitions) List(ctx context.Context, filters PetitionFilters, limit, offset int) ([]models.Petition, error) {
	var petitions []models.Petition
	err := r.filtered(ctx, filters).
		Order("presentation_date DESC NULLS LAST").
		Limit(limit).Offset(offset).
		Find(&petitions).Error
	return petitions, err
}

// Count counts petitions under the same filters as List.
func (r *Petitions) Count(ctx context.Context, filters PetitionFilters) (int64, error) {
	var total int64
	err := r.filtered(ctx, filters).Count(&total).Error
	return total, err
}
