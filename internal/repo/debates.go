package repo

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Debates queries Hansard documents and their interventions.
type Debates struct {
	db *gorm.DB
}

// NewDebates constructs the repository.
func NewDebates(db *gorm.DB) *Debates {
	return &Debates{db: db}
}

// MaxSitting returns the highest ingested sitting for a session, or zero.
func (r *Debates) MaxSitting(ctx context.Context, parliament, session int) (int, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).Model(&models.Debate{}).
		Where("parliament = ?", parliament).
		Where("session = ?", session).
		Select("MAX(sitting)").
		Scan(&max).Error
	if err != nil || !max.Valid {
		return 0, err
	}
	return int(max.Int64), nil
}

// GetByNaturalKey returns the debate for (parl, session, sitting, lang).
func (r *Debates) GetByNaturalKey(ctx context.Context, parliament, session, sitting *int, language *string) (*models.Debate, error) {
	var debate models.Debate
	query := r.db.WithContext(ctx).Model(&models.Debate{})
	query = whereNullable(query, "parliament", parliament)
	query = whereNullable(query, "session", session)
	query = whereNullable(query, "sitting", sitting)
	query = whereNullable(query, "language", language)
	err := query.First(&debate).Error
	return optional(&debate, err)
}

// GetWithInterventions returns a debate with interventions preloaded in
// sequence order.
func (r *Debates) GetWithInterventions(ctx context.Context, id uint) (*models.Debate, error) {
	var debate models.Debate
	err := r.db.WithContext(ctx).
		Preload("Interventions", func(db *gorm.DB) *gorm.DB { return db.Order("sequence") }).
		First(&debate, id).Error
	return optional(&debate, err)
}

// Upsert writes a debate keyed by (parl, session, sitting, language).
func (r *Debates) Upsert(ctx context.Context, record *models.Debate) (*models.Debate, error) {
	existing, err := r.GetByNaturalKey(ctx, record.Parliament, record.Session, record.Sitting, record.Language)
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

// ReplaceInterventions deletes and re-inserts the intervention set,
// sequenced 1..N in the given order.
func (r *Debates) ReplaceInterventions(ctx context.Context, debateID uint, interventions []models.DebateIntervention) error {
	if err := r.db.WithContext(ctx).Where("debate_id = ?", debateID).Delete(&models.DebateIntervention{}).Error; err != nil {
		return err
	}
	for i := range interventions {
		interventions[i].DebateID = debateID
		interventions[i].Sequence = i + 1
		if err := r.db.WithContext(ctx).Create(&interventions[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// CountInterventions counts interventions for a debate.
func (r *Debates) CountInterventions(ctx context.Context, debateID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.DebateIntervention{}).
		Where("debate_id = ?", debateID).Count(&total).Error
	return total, err
}

// DebateFilters narrow List and Count.
type DebateFilters struct {
	Parliament *int
	Session    *int
	Sitting    *int
	Language   *string
}

func (r *Debates) filtered(ctx context.Context, filters DebateFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Debate{})
	query = whereOptional(query, "parliament", filters.Parliament)
	query = whereOptional(query, "session", filters.Session)
	query = whereOptional(query, "sitting", filters.Sitting)
	query = whereOptional(query, "language", filters.Language)
	return query
}

// List returns debates ordered by date then sitting, newest first.
func (r *Debates) List(ctx context.Context, filters DebateFilters, limit, offset int) ([]models.Debate, error) {
	var debates []models.Debate
	err := r.filtered(ctx, filters).
		Order("debate_date DESC NULLS LAST").
		Order("sitting DESC NULLS LAST").
		Limit(limit).Offset(offset).
		Find(&debates).Error
	return debates, err
}

// Count counts debates under the same filters as List.
func (r *Debates) Count(ctx context.Context, filters DebateFilters) (int64, error) {
	var total int64
	err := r.filtered(ctx, filters).Count(&total).Error
	return total, err
}
