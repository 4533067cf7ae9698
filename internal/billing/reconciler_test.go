package billing

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/counter"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

const testSecret = "test-hmac-secret"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// fakeProvider serves canned subscriptions.
type fakeProvider struct {
	subscriptions map[string]*Subscription
}

func (f *fakeProvider) ConstructEvent(payload []byte, signature string) (Event, error) {
	return Event{}, fmt.Errorf("not used in tests")
}

func (f *fakeProvider) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	sub, ok := f.subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("unknown subscription %s", id)
	}
	return sub, nil
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, email *string, userID string) (string, error) {
	return "cus_fake", nil
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, customerID, userID string) (string, error) {
	return "https://checkout.example/session", nil
}

func (f *fakeProvider) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	return "https://portal.example/session", nil
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := models.User{AuthProvider: "clerk", AuthUserID: "user_" + uuid.NewString()}
	require.NoError(t, repo.NewUsers(db).Create(context.Background(), &user))
	return &user
}

func checkoutEvent(userID string) Event {
	return Event{
		Type: "checkout.session.completed",
		Object: map[string]any{
			"client_reference_id": userID,
			"customer":            "cus_123",
			"subscription":        "sub_123",
		},
	}
}

func activeSubscription() *Subscription {
	price := "price_123"
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return &Subscription{
		ID:                 "sub_123",
		Status:             "active",
		PriceID:            &price,
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
	}
}

func TestCheckoutCompletedMintsKeyWithReveal(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := counter.NewMemory()
	user := seedUser(t, db)

	provider := &fakeProvider{subscriptions: map[string]*Subscription{"sub_123": activeSubscription()}}
	reconciler := NewReconciler(db, store, provider, testSecret, nil)

	require.NoError(t, reconciler.HandleEvent(ctx, checkoutEvent(user.ID)))

	billing, err := repo.NewBillings(db).GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, billing)
	require.Equal(t, "cus_123", *billing.StripeCustomerID)
	require.Equal(t, "active", *billing.Status)
	require.Equal(t, "price_123", *billing.PriceID)
	require.NotNil(t, billing.CurrentPeriodStart)

	key, err := repo.NewApiKeys(db).GetActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, key)
	require.True(t, key.Active)

	reveal, err := ConsumeReveal(ctx, store, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reveal)
	require.True(t, strings.HasPrefix(*reveal, "cpk_live_"))

	// One-shot: a second read yields nothing.
	again, err := ConsumeReveal(ctx, store, user.ID)
	require.NoError(t, err)
	require.Nil(t, again)
}

func TestCheckoutCompletedReplayConverges(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db)

	provider := &fakeProvider{subscriptions: map[string]*Subscription{"sub_123": activeSubscription()}}
	reconciler := NewReconciler(db, counter.NewMemory(), provider, testSecret, nil)

	require.NoError(t, reconciler.HandleEvent(ctx, checkoutEvent(user.ID)))
	require.NoError(t, reconciler.HandleEvent(ctx, checkoutEvent(user.ID)))

	active, err := repo.NewApiKeys(db).CountActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, active)

	var keyTotal int64
	require.NoError(t, db.Model(&models.ApiKey{}).Count(&keyTotal).Error)
	require.EqualValues(t, 1, keyTotal)
}

func TestSubscriptionCancellationDeactivatesKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db)

	provider := &fakeProvider{subscriptions: map[string]*Subscription{"sub_123": activeSubscription()}}
	reconciler := NewReconciler(db, counter.NewMemory(), provider, testSecret, nil)
	require.NoError(t, reconciler.HandleEvent(ctx, checkoutEvent(user.ID)))

	require.NoError(t, reconciler.HandleEvent(ctx, Event{
		Type: "customer.subscription.updated",
		Object: map[string]any{
			"id":       "sub_123",
			"customer": "cus_123",
			"status":   "canceled",
			"items": map[string]any{
				"data": []any{map[string]any{"price": map[string]any{"id": "price_123"}}},
			},
			"current_period_start": float64(1770000000),
			"current_period_end":   float64(1772600000),
		},
	}))

	billing, err := repo.NewBillings(db).GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "canceled", *billing.Status)

	key, err := repo.NewApiKeys(db).GetActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, key)
}

func TestSubscriptionTrialingKeepsKeyActive(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db)

	provider := &fakeProvider{subscriptions: map[string]*Subscription{"sub_123": activeSubscription()}}
	reconciler := NewReconciler(db, counter.NewMemory(), provider, testSecret, nil)
	require.NoError(t, reconciler.HandleEvent(ctx, checkoutEvent(user.ID)))

	require.NoError(t, reconciler.HandleEvent(ctx, Event{
		Type: "customer.subscription.updated",
		Object: map[string]any{
			"id":       "sub_123",
			"customer": "cus_123",
			"status":   "trialing",
		},
	}))

	key, err := repo.NewApiKeys(db).GetActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, key)
}

func TestSubscriptionChangedUnknownCustomerIgnored(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewReconciler(db, counter.NewMemory(), &fakeProvider{}, testSecret, nil)
	require.NoError(t, reconciler.HandleEvent(context.Background(), Event{
		Type:   "customer.subscription.deleted",
		Object: map[string]any{"customer": "cus_missing"},
	}))
}

func TestRotateKeyUniqueness(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := seedUser(t, db)

	first, plaintext1, err := RotateKey(ctx, db, testSecret, user.ID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(plaintext1, "cpk_live_"))

	second, plaintext2, err := RotateKey(ctx, db, testSecret, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, plaintext1, plaintext2)
	require.NotEqual(t, first.ID, second.ID)

	active, err := repo.NewApiKeys(db).CountActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, active)

	old, err := repo.NewApiKeys(db).GetByHash(ctx, first.KeyHash)
	require.NoError(t, err)
	require.False(t, old.Active)
	require.NotNil(t, old.RevokedAt)
}
