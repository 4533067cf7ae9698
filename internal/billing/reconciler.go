package billing

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/counter"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

// Reconciler transforms provider webhook events into subscription state
// and API-key lifecycle updates. Every write is an overwrite, so replayed
// events converge to the same state.
type Reconciler struct {
	db       *gorm.DB
	store    counter.Store
	provider Provider
	secret   string
	log      *slog.Logger
}

// NewReconciler constructs the webhook reconciler.
func NewReconciler(db *gorm.DB, store counter.Store, provider Provider, hmacSecret string, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{db: db, store: store, provider: provider, secret: hmacSecret, log: log}
}

// HandleEvent applies one webhook event. Unsupported types are ignored.
func (r *Reconciler) HandleEvent(ctx context.Context, event Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return r.handleCheckoutCompleted(ctx, event.Object)
	case "customer.subscription.updated", "customer.subscription.deleted":
		return r.handleSubscriptionChanged(ctx, event.Object)
	default:
		return nil
	}
}

func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, object map[string]any) error {
	userID := objectString(object, "client_reference_id")
	if userID == "" {
		if metadata, ok := object["metadata"].(map[string]any); ok {
			userID = objectString(metadata, "user_id")
		}
	}
	if userID == "" {
		r.log.Warn("checkout event without user reference")
		return nil
	}

	customerID := objectString(object, "customer")
	subscriptionID := objectString(object, "subscription")

	var sub *Subscription
	if subscriptionID != "" {
		loaded, err := r.provider.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return err
		}
		sub = loaded
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		billings := repo.NewBillings(tx)
		record, err := billings.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if record == nil {
			record = &models.Billing{UserID: userID}
			if err := billings.Create(ctx, record); err != nil {
				return err
			}
		}
		if customerID != "" {
			record.StripeCustomerID = &customerID
		}
		if subscriptionID != "" {
			record.StripeSubscriptionID = &subscriptionID
		}
		if sub != nil {
			status := sub.Status
			record.Status = &status
			record.PriceID = sub.PriceID
			record.CurrentPeriodStart = sub.CurrentPeriodStart
			record.CurrentPeriodEnd = sub.CurrentPeriodEnd
		}
		if err := billings.Save(ctx, record); err != nil {
			return err
		}
		return activateOrCreateKey(ctx, tx, r.store, r.secret, userID, record.Status)
	})
}

func (r *Reconciler) handleSubscriptionChanged(ctx context.Context, object map[string]any) error {
	customerID := objectString(object, "customer")
	if customerID == "" {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		billings := repo.NewBillings(tx)
		record, err := billings.GetByCustomerID(ctx, customerID)
		if err != nil || record == nil {
			return err
		}

		if id := objectString(object, "id"); id != "" {
			record.StripeSubscriptionID = &id
		}
		if status := objectString(object, "status"); status != "" {
			record.Status = &status
		} else {
			record.Status = nil
		}
		record.PriceID = objectPriceID(object)
		record.CurrentPeriodStart = objectUnixTime(object, "current_period_start")
		record.CurrentPeriodEnd = objectUnixTime(object, "current_period_end")
		if err := billings.Save(ctx, record); err != nil {
			return err
		}
		return syncKeyActive(ctx, tx, record.UserID, record.Status)
	})
}

func objectString(object map[string]any, key string) string {
	value, _ := object[key].(string)
	return value
}

func objectUnixTime(object map[string]any, key string) *time.Time {
	value, ok := object[key].(float64)
	if !ok {
		return nil
	}
	ts := time.Unix(int64(value), 0).UTC()
	return &ts
}

// objectPriceID digs items.data[0].price.id out of a subscription object.
func objectPriceID(object map[string]any) *string {
	items, ok := object["items"].(map[string]any)
	if !ok {
		return nil
	}
	data, ok := items["data"].([]any)
	if !ok || len(data) == 0 {
		return nil
	}
	first, ok := data[0].(map[string]any)
	if !ok {
		return nil
	}
	price, ok := first["price"].(map[string]any)
	if !ok {
		return nil
	}
	if id := objectString(price, "id"); id != "" {
		return &id
	}
	return nil
}
