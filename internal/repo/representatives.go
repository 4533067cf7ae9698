package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Representatives queries the MP table.
type Representatives struct {
	db *gorm.DB
}

// NewRepresentatives constructs the repository.
func NewRepresentatives(db *gorm.DB) *Representatives {
	return &Representatives{db: db}
}

// RepresentativeFields is the mutable field set applied by upserts.
type RepresentativeFields struct {
	Name       string
	FirstName  *string
	LastName   *string
	Honorific  *string
	Email      *string
	Phone      *string
	PhotoURL   *string
	ProfileURL *string
	IsActive   bool
	PartyID    *uint
	RidingID   *uint
}

// GetByHocID returns a representative with party and riding preloaded.
func (r *Representatives) GetByHocID(ctx context.Context, hocID int) (*models.Representative, error) {
	var rep models.Representative
	err := r.db.WithContext(ctx).
		Preload("Party").Preload("Riding").
		Where("hoc_id = ?", hocID).
		First(&rep).Error
	return optional(&rep, err)
}

// GetActiveByRidingID returns the sitting member for a riding, or nil.
func (r *Representatives) GetActiveByRidingID(ctx context.Context, ridingID uint) (*models.Representative, error) {
	var rep models.Representative
	err := r.db.WithContext(ctx).
		Preload("Party").Preload("Riding").
		Where("riding_id = ?", ridingID).
		Where("is_active = ?", true).
		First(&rep).Error
	return optional(&rep, err)
}

func (r *Representatives) filtered(ctx context.Context, province, party *string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Representative{}).
		Where("representatives.is_active = ?", true)
	if province != nil {
		query = query.Joins("JOIN ridings ON ridings.id = representatives.riding_id").
			Where("ridings.province = ?", *province)
	}
	if party != nil {
		query = query.Joins("JOIN parties ON parties.id = representatives.party_id").
			Where("parties.name = ?", *party)
	}
	return query
}

// List returns active representatives, filtered and ordered by name.
func (r *Representatives) List(ctx context.Context, province, party *string, limit, offset int) ([]models.Representative, error) {
	var reps []models.Representative
	err := r.filtered(ctx, province, party).
		Preload("Party").Preload("Riding").
		Order("representatives.name").
		Limit(limit).Offset(offset).
		Find(&reps).Error
	return reps, err
}

// Count returns the active-representative count under the same filters.
func (r *Representatives) Count(ctx context.Context, province, party *string) (int64, error) {
	var total int64
	err := r.filtered(ctx, province, party).Count(&total).Error
	return total, err
}

// ListAll returns every representative regardless of active flag. Used to
// build hoc_id lookup maps at pipeline start.
func (r *Representatives) ListAll(ctx context.Context) ([]models.Representative, error) {
	var reps []models.Representative
	err := r.db.WithContext(ctx).Find(&reps).Error
	return reps, err
}

// ListActive returns active representatives without relations.
func (r *Representatives) ListActive(ctx context.Context) ([]models.Representative, error) {
	var reps []models.Representative
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&reps).Error
	return reps, err
}

// UpsertByHocID inserts or updates a representative keyed by hoc_id.
func (r *Representatives) UpsertByHocID(ctx context.Context, hocID int, fields RepresentativeFields) (*models.Representative, error) {
	var rep models.Representative
	err := r.db.WithContext(ctx).Where("hoc_id = ?", hocID).First(&rep).Error
	existing, err := optional(&rep, err)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		created := models.Representative{HocID: hocID}
		applyRepresentativeFields(&created, fields)
		if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
			return nil, err
		}
		// The column default of true replaces a false value on insert.
		if !fields.IsActive {
			if err := r.db.WithContext(ctx).Model(&created).Update("is_active", false).Error; err != nil {
				return nil, err
			}
		}
		return &created, nil
	}
	applyRepresentativeFields(existing, fields)
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

func applyRepresentativeFields(rep *models.Representative, fields RepresentativeFields) {
	rep.Name = fields.Name
	rep.FirstName = fields.FirstName
	rep.LastName = fields.LastName
	rep.Honorific = fields.Honorific
	rep.Email = fields.Email
	rep.Phone = fields.Phone
	rep.PhotoURL = fields.PhotoURL
	rep.ProfileURL = fields.ProfileURL
	rep.IsActive = fields.IsActive
	rep.PartyID = fields.PartyID
	rep.RidingID = fields.RidingID
}
