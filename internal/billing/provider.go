// Package billing reconciles provider subscription state with platform
// users and their API keys.
package billing

import (
	"context"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/subscription"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Event is a provider webhook event after signature verification.
type Event struct {
	Type   string
	Object map[string]any
}

// Subscription is the provider subscription state the platform cares about.
type Subscription struct {
	ID                 string
	Status             string
	PriceID            *string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
}

// Provider is the billing provider surface used by the reconciler and the
// checkout endpoints. Tests substitute a fake.
type Provider interface {
	ConstructEvent(payload []byte, signature string) (Event, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	CreateCustomer(ctx context.Context, email *string, userID string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, userID string) (string, error)
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}

// StripeConfig carries the provider credentials and redirect URLs.
type StripeConfig struct {
	SecretKey          string
	WebhookSecret      string
	PriceID            string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
	PortalReturnURL    string
}

// Stripe implements Provider against the Stripe SDK.
type Stripe struct {
	cfg StripeConfig
}

// NewStripe configures the SDK and returns the provider.
func NewStripe(cfg StripeConfig) (*Stripe, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("billing: STRIPE_SECRET_KEY is not configured")
	}
	stripe.Key = cfg.SecretKey
	return &Stripe{cfg: cfg}, nil
}

// ConstructEvent verifies the webhook signature and unwraps the event.
func (s *Stripe) ConstructEvent(payload []byte, signature string) (Event, error) {
	if s.cfg.WebhookSecret == "" {
		return Event{}, fmt.Errorf("billing: STRIPE_WEBHOOK_SECRET is not configured")
	}
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.WebhookSecret)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: string(event.Type), Object: event.Data.Object}, nil
}

// GetSubscription loads a subscription from the provider.
func (s *Stripe) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	sub, err := subscription.Get(id, nil)
	if err != nil {
		return nil, err
	}
	result := &Subscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID := sub.Items.Data[0].Price.ID
		result.PriceID = &priceID
	}
	return result, nil
}

// CreateCustomer registers a provider customer tagged with the user id.
func (s *Stripe) CreateCustomer(ctx context.Context, email *string, userID string) (string, error) {
	params := &stripe.CustomerParams{}
	if email != nil {
		params.Email = stripe.String(*email)
	}
	params.AddMetadata("user_id", userID)
	created, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// CreateCheckoutSession opens a subscription checkout and returns its URL.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, customerID, userID string) (string, error) {
	if s.cfg.PriceID == "" {
		return "", fmt.Errorf("billing: STRIPE_PRICE_ID is not configured")
	}
	if s.cfg.CheckoutSuccessURL == "" || s.cfg.CheckoutCancelURL == "" {
		return "", fmt.Errorf("billing: checkout URLs are not configured")
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(s.cfg.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(s.cfg.CheckoutSuccessURL),
		CancelURL:         stripe.String(s.cfg.CheckoutCancelURL),
		Customer:          stripe.String(customerID),
		ClientReferenceID: stripe.String(userID),
	}
	params.AddMetadata("user_id", userID)
	created, err := checkoutsession.New(params)
	if err != nil {
		return "", err
	}
	return created.URL, nil
}

// CreatePortalSession opens the billing portal and returns its URL.
func (s *Stripe) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	if s.cfg.PortalReturnURL == "" {
		return "", fmt.Errorf("billing: STRIPE_PORTAL_RETURN_URL is not configured")
	}
	created, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(s.cfg.PortalReturnURL),
	})
	if err != nil {
		return "", err
	}
	return created.URL, nil
}

func unixTime(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	value := time.Unix(ts, 0).UTC()
	return &value
}
