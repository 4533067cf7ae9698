package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Expenditures queries member and house-officer spending disclosures.
type Expenditures struct {
	db *gorm.DB
}

// NewExpenditures constructs the repository.
func NewExpenditures(db *gorm.DB) *Expenditures {
	return &Expenditures{db: db}
}

// DeleteMemberPeriod clears member rows for a disclosure period ahead of a
// full rewrite.
func (r *Expenditures) DeleteMemberPeriod(ctx context.Context, periodStart, periodEnd time.Time) error {
	return r.db.WithContext(ctx).
		Where("period_start = ?", periodStart).
		Where("period_end = ?", periodEnd).
		Delete(&models.MemberExpenditure{}).Error
}

// CreateMember inserts one member expenditure row.
func (r *Expenditures) CreateMember(ctx context.Context, record *models.MemberExpenditure) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// DeleteOfficerPeriod clears officer rows for a disclosure period.
func (r *Expenditures) DeleteOfficerPeriod(ctx context.Context, periodStart, periodEnd time.Time) error {
	return r.db.WithContext(ctx).
		Where("period_start = ?", periodStart).
		Where("period_end = ?", periodEnd).
		Delete(&models.HouseOfficerExpenditure{}).Error
}

// CreateOfficer inserts one house-officer expenditure row.
func (r *Expenditures) CreateOfficer(ctx context.Context, record *models.HouseOfficerExpenditure) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// MemberFilters narrow the member listing.
type MemberFilters struct {
	FiscalYear *string
	Category   *string
	HocID      *int
}

func (r *Expenditures) memberFiltered(ctx context.Context, filters MemberFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.MemberExpenditure{})
	query = whereOptional(query, "fiscal_year", filters.FiscalYear)
	query = whereOptional(query, "category", filters.Category)
	query = whereOptional(query, "hoc_id", filters.HocID)
	return query
}

// ListMembers returns member rows, newest period first.
func (r *Expenditures) ListMembers(ctx context.Context, filters MemberFilters, limit, offset int) ([]models.MemberExpenditure, error) {
	var rows []models.MemberExpenditure
	err := r.memberFiltered(ctx, filters).
		Order("period_start DESC NULLS LAST").
		Order("member_name").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

// CountMembers counts member rows under the same filters.
func (r *Expenditures) CountMembers(ctx context.Context, filters MemberFilters) (int64, error) {
	var total int64
	err := r.memberFiltered(ctx, filters).Count(&total).Error
	return total, err
}

// OfficerFilters narrow the officer listing.
type OfficerFilters struct {
	FiscalYear *string
	Category   *string
}

func (r *Expenditures) officerFiltered(ctx context.Context, filters OfficerFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.HouseOfficerExpenditure{})
	query = whereOptional(query, "fiscal_year", filters.FiscalYear)
	query = whereOptional(query, "category", filters.Category)
	return query
}

// ListOfficers returns officer rows, newest period first.
func (r *Expenditures) ListOfficers(ctx context.Context, filters OfficerFilters, limit, offset int) ([]models.HouseOfficerExpenditure, error) {
	var rows []models.HouseOfficerExpenditure
	err := r.officerFiltered(ctx, filters).
		Order("period_start DESC NULLS LAST").
		Order("officer_name").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

// CountOfficers counts officer rows under the same filters.
func (r *Expenditures) CountOfficers(ctx context.Context, filters OfficerFilters) (int64, error) {
	var total int64
	err := r.officerFiltered(ctx, filters).Count(&total).Error
	return total, err
}
