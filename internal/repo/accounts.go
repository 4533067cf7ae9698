package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
)

// Users queries the users table.
type Users struct {
	db *gorm.DB
}

// NewUsers constructs the repository.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// GetByAuthUserID returns the user for an identity-provider subject.
func (r *Users) GetByAuthUserID(ctx context.Context, authUserID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("auth_user_id = ?", authUserID).First(&user).Error
	return optional(&user, err)
}

// Get returns a user by id, or nil.
func (r *Users) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return optional(&user, err)
}

// Create inserts a user row.
func (r *Users) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Save persists user field changes.
func (r *Users) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// ApiKeys queries the api_keys table.
type ApiKeys struct {
	db *gorm.DB
}

// NewApiKeys constructs the repository.
func NewApiKeys(db *gorm.DB) *ApiKeys {
	return &ApiKeys{db: db}
}

// GetByHash returns the key whose HMAC digest matches, or nil.
func (r *ApiKeys) GetByHash(ctx context.Context, keyHash string) (*models.ApiKey, error) {
	var key models.ApiKey
	err := r.db.WithContext(ctx).Where("key_hash = ?", keyHash).First(&key).Error
	return optional(&key, err)
}

// GetActiveForUser returns the user's active key, or nil.
func (r *ApiKeys) GetActiveForUser(ctx context.Context, userID string) (*models.ApiKey, error) {
	var key models.ApiKey
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Order("created_at DESC").
		First(&key).Error
	return optional(&key, err)
}

// DeactivateForUser flips every active key for the user to inactive,
// stamping revoked_at. Rotation calls this before inserting the new key.
func (r *ApiKeys) DeactivateForUser(ctx context.Context, userID string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ApiKey{}).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Updates(map[string]any{"active": false, "revoked_at": now}).Error
}

// Create inserts a key row.
func (r *ApiKeys) Create(ctx context.Context, key *models.ApiKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

// Save persists key field changes.
func (r *ApiKeys) Save(ctx context.Context, key *models.ApiKey) error {
	return r.db.WithContext(ctx).Save(key).Error
}

// TouchLastUsed stamps last_used_at without touching other fields.
func (r *ApiKeys) TouchLastUsed(ctx context.Context, id string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ApiKey{}).
		Where("id = ?", id).
		Update("last_used_at", now).Error
}

// CountActiveForUser counts active keys for a user.
func (r *ApiKeys) CountActiveForUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.ApiKey{}).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Count(&total).Error
	return total, err
}

// Billings queries the billing table.
type Billings struct {
	db *gorm.DB
}

// NewBillings constructs the repository.
func NewBillings(db *gorm.DB) *Billings {
	return &Billings{db: db}
}

// GetByUserID returns a user's billing row, or nil.
func (r *Billings) GetByUserID(ctx context.Context, userID string) (*models.Billing, error) {
	var billing models.Billing
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&billing).Error
	return optional(&billing, err)
}

// GetByCustomerID returns the billing row for a provider customer, or nil.
func (r *Billings) GetByCustomerID(ctx context.Context, customerID string) (*models.Billing, error) {
	var billing models.Billing
	err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&billing).Error
	return optional(&billing, err)
}

// Create inserts a billing row.
func (r *Billings) Create(ctx context.Context, billing *models.Billing) error {
	return r.db.WithContext(ctx).Create(billing).Error
}

// Save persists billing field changes.
func (r *Billings) Save(ctx context.Context, billing *models.Billing) error {
	return r.db.WithContext(ctx).Save(billing).Error
}
