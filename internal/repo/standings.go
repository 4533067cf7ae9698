package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Standings queries party seat-count snapshots.
type Standings struct {
	db *gorm.DB
}

// NewStandings constructs the repository.
func NewStandings(db *gorm.DB) *Standings {
	return &Standings{db: db}
}

// StandingKey is the natural key of a standing row.
type StandingKey struct {
	PartyName  string
	Parliament *int
	Session    *int
	AsOfDate   *time.Time
}

func (r *Standings) byKey(ctx context.Context, key StandingKey) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.PartyStanding{}).
		Where("party_name = ?", key.PartyName)
	query = whereNullable(query, "parliament", key.Parliament)
	query = whereNullable(query, "session", key.Session)
	query = whereNullable(query, "as_of_date", key.AsOfDate)
	return query
}

// Get returns the standing for a natural key, or nil.
func (r *Standings) Get(ctx context.Context, key StandingKey) (*models.PartyStanding, error) {
	var standing models.PartyStanding
	err := r.byKey(ctx, key).First(&standing).Error
	return optional(&standing, err)
}

// Upsert writes the seat count for a natural key.
func (r *Standings) Upsert(ctx context.Context, key StandingKey, partyID *uint, seatCount int, sourceURL string) (*models.PartyStanding, error) {
	existing, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		created := models.PartyStanding{
			PartyName:  key.PartyName,
			Parliament: key.Parliament,
			Session:    key.Session,
			AsOfDate:   key.AsOfDate,
			PartyID:    partyID,
			SeatCount:  seatCount,
			SourceURL:  &sourceURL,
		}
		if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
			return nil, err
		}
		return &created, nil
	}
	existing.PartyID = partyID
	existing.SeatCount = seatCount
	existing.SourceURL = &sourceURL
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// ListLatest returns the most recent standing per party for a session,
// ordered by seat count descending.
func (r *Standings) ListLatest(ctx context.Context, parliament, session *int, limit, offset int) ([]models.PartyStanding, error) {
	query := r.db.WithContext(ctx).Model(&models.PartyStanding{})
	query = whereOptional(query, "parliament", parliament)
	query = whereOptional(query, "session", session)
	var standings []models.PartyStanding
	err := query.
		Order("as_of_date DESC NULLS LAST").
		Order("seat_count DESC").
		Limit(limit).Offset(offset).
		Find(&standings).Error
	return standings, err
}

// Count counts standings under the same filters as ListLatest.
func (r *Standings) Count(ctx context.Context, parliament, session *int) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PartyStanding{})
	query = whereOptional(query, "parliament", parliament)
	query = whereOptional(query, "session", session)
	var total int64
	err := query.Count(&total).Error
	return total, err
}
