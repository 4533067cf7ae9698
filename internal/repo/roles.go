package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Roles queries representative role history.
type Roles struct {
	db *gorm.DB
}

// NewRoles constructs the repository.
func NewRoles(db *gorm.DB) *Roles {
	return &Roles{db: db}
}

// DeleteByRepresentativeID clears the role set ahead of a full replacement.
func (r *Roles) DeleteByRepresentativeID(ctx context.Context, representativeID uint) error {
	return r.db.WithContext(ctx).
		Where("representative_id = ?", representativeID).
		Delete(&models.RepresentativeRole{}).Error
}

// Create inserts one role record.
func (r *Roles) Create(ctx context.Context, role *models.RepresentativeRole) error {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		return err
	}
	// The column default of true replaces a false value on insert.
	if !role.IsCurrent {
		return r.db.WithContext(ctx).Model(role).Update("is_current", false).Error
	}
	return nil
}

// ListByRepresentativeID returns a representative's roles, current first,
// then by descending start date.
func (r *Roles) ListByRepresentativeID(ctx context.Context, representativeID uint, limit, offset int) ([]models.RepresentativeRole, error) {
	var roles []models.RepresentativeRole
	err := r.db.WithContext(ctx).
		Where("representative_id = ?", representativeID).
		Order("is_current DESC").
		Order("start_date DESC NULLS LAST").
		Limit(limit).Offset(offset).
		Find(&roles).Error
	return roles, err
}

// CountByRepresentativeID counts a representative's roles.
func (r *Roles) CountByRepresentativeID(ctx context.Context, representativeID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.RepresentativeRole{}).
		Where("representative_id = ?", representativeID).
		Count(&total).Error
	return total, err
}
