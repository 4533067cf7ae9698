package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Votes queries recorded divisions and their per-member ballots.
type Votes struct {
	db *gorm.DB
}

// NewVotes constructs the repository.
func NewVotes(db *gorm.DB) *Votes {
	return &Votes{db: db}
}

// GetByNaturalKey returns the vote for (number, parliament, session).
func (r *Votes) GetByNaturalKey(ctx context.Context, voteNumber int, parliament, session *int) (*models.Vote, error) {
	var vote models.Vote
	query := r.db.WithContext(ctx).Where("vote_number = ?", voteNumber)
	query = whereNullable(query, "parliament", parliament)
	query = whereNullable(query, "session", session)
	err := query.First(&vote).Error
	return optional(&vote, err)
}

// GetWithMembers returns a vote with its ballots preloaded.
func (r *Votes) GetWithMembers(ctx context.Context, id uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).Preload("Members").First(&vote, id).Error
	return optional(&vote, err)
}

// Upsert writes a vote keyed by (number, parliament, session).
func (r *Votes) Upsert(ctx context.Context, record *models.Vote) (*models.Vote, error) {
	existing, err := r.GetByNaturalKey(ctx, record.VoteNumber, record.Parliament, record.Session)
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

// ReplaceMembers deletes and re-inserts the ballot set for a vote.
func (r *Votes) ReplaceMembers(ctx context.Context, voteID uint, members []models.VoteMember) error {
	if err := r.db.WithContext(ctx).Where("vote_id = ?", voteID).Delete(&models.VoteMember{}).Error; err != nil {
		return err
	}
	for i := range members {
		members[i].VoteID = voteID
		if err := r.db.WithContext(ctx).Create(&members[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// VoteFilters narrow List and Count.
type VoteFilters struct {
	Parliament *int
	Session    *int
	BillNumber *string
	Decision   *string
}

func (r *Votes) filtered(ctx context.Context, filters VoteFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Vote{})
	query = whereOptional(query, "parliament", filters.Parliament)
	query = whereOptional(query, "session", filters.Session)
	query = whereOptional(query, "bill_number", filters.BillNumber)
	query = whereOptional(query, "decision", filters.Decision)
	return query
}

// List returns votes ordered by date then number, newest first.
func (r *Votes) List(ctx context.Context, filters VoteFilters, limit, offset int) ([]models.Vote, error) {
	var votes []models.Vote
	err := r.filtered(ctx, filters).
		Order("vote_date DESC NULLS LAST").
		Order("vote_number DESC").
		Limit(limit).Offset(offset).
		Find(&votes).Error
	return votes, err
}

// Count counts votes under the same filters as List.
func (r *Votes) Count(ctx context.Context, filters VoteFilters) (int64, error) {
	var total int64
	err := r.filtered(ctx, filters).Count(&total).Error
	return total, err
}

// CountMembers counts ballots for a vote.
func (r *Votes) CountMembers(ctx context.Context, voteID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.VoteMember{}).
		Where("vote_id = ?", voteID).Count(&total).Error
	return total, err
}
