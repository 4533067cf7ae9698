package server

import (
	"io"
	"net/http"

	"github.com/BradleyExton/canpoli-api/internal/billing"
	"github.com/BradleyExton/canpoli-api/internal/keys"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

// GetApiKey returns the caller's active key, masked, including the one-shot
// plaintext reveal when the rotation or checkout stash is still live.
func (s *Server) GetApiKey(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	key, err := repo.NewApiKeys(s.DB).GetActiveForUser(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if key == nil {
		respondDetail(w, http.StatusNotFound, "API key not found")
		return
	}

	reveal, err := billing.ConsumeReveal(r.Context(), s.Store, user.ID)
	if err != nil {
		s.Log.Warn("failed to consume key reveal", "error", err.Error())
		reveal = nil
	}

	respondJSON(w, http.StatusOK, ApiKeyResponse{
		ApiKey:     reveal,
		KeyPrefix:  key.KeyPrefix,
		MaskedKey:  keys.Mask(key.KeyPrefix),
		Active:     key.Active,
		CreatedAt:  key.CreatedAt,
		RevokedAt:  key.RevokedAt,
		LastUsedAt: key.LastUsedAt,
	})
}

// RotateApiKey mints a replacement key for an active subscriber.
func (s *Server) RotateApiKey(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if s.Cfg.APIKeyHMACSecret == "" {
		respondDetail(w, http.StatusInternalServerError, "API key hashing not configured")
		return
	}

	record, err := repo.NewBillings(s.DB).GetByUserID(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if record == nil || record.Status == nil || !models.SubscriptionActive(*record.Status) {
		respondDetail(w, http.StatusForbidden, "Subscription inactive")
		return
	}

	key, plaintext, err := billing.RotateKey(r.Context(), s.DB, s.Cfg.APIKeyHMACSecret, user.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ApiKeyRotateResponse{
		ApiKey:    plaintext,
		KeyPrefix: key.KeyPrefix,
		CreatedAt: key.CreatedAt,
	})
}

// GetUsage reports the metered call count for the current billing period.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	record, err := repo.NewBillings(s.DB).GetByUserID(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if record == nil || record.CurrentPeriodStart == nil {
		respondDetail(w, http.StatusNotFound, "No active billing period")
		return
	}

	key, err := repo.NewApiKeys(s.DB).GetActiveForUser(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if key == nil {
		respondDetail(w, http.StatusNotFound, "API key not found")
		return
	}

	count, err := UsageCount(r.Context(), s.Store, key.ID, *record.CurrentPeriodStart)
	if err != nil {
		s.internalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, UsageResponse{
		UsageCount:     count,
		PeriodStart:    record.CurrentPeriodStart,
		PeriodEnd:      record.CurrentPeriodEnd,
		LimitPerMinute: s.Cfg.PaidRateLimitPerMinute,
	})
}

// CreateCheckout opens a provider checkout session, registering the
// provider customer on first use.
func (s *Server) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if s.Provider == nil {
		respondDetail(w, http.StatusInternalServerError, "Billing is not configured")
		return
	}

	billings := repo.NewBillings(s.DB)
	record, err := billings.GetByUserID(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if record == nil || record.StripeCustomerID == nil {
		customerID, err := s.Provider.CreateCustomer(r.Context(), user.Email, user.ID)
		if err != nil {
			s.internalError(w, err)
			return
		}
		if record == nil {
			record = &models.Billing{UserID: user.ID, StripeCustomerID: &customerID}
			if err := billings.Create(r.Context(), record); err != nil {
				s.internalError(w, err)
				return
			}
		} else {
			record.StripeCustomerID = &customerID
			if err := billings.Save(r.Context(), record); err != nil {
				s.internalError(w, err)
				return
			}
		}
	}

	url, err := s.Provider.CreateCheckoutSession(r.Context(), *record.StripeCustomerID, user.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, SessionURLResponse{URL: url})
}

// CreatePortal opens the provider billing portal for an existing customer.
func (s *Server) CreatePortal(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if s.Provider == nil {
		respondDetail(w, http.StatusInternalServerError, "Billing is not configured")
		return
	}

	record, err := repo.NewBillings(s.DB).GetByUserID(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if record == nil || record.StripeCustomerID == nil {
		respondDetail(w, http.StatusNotFound, "Billing customer not found")
		return
	}

	url, err := s.Provider.CreatePortalSession(r.Context(), *record.StripeCustomerID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, SessionURLResponse{URL: url})
}

// BillingWebhook verifies and applies a provider event. The raw body is
// required for signature verification.
func (s *Server) BillingWebhook(w http.ResponseWriter, r *http.Request) {
	if s.Provider == nil || s.Reconciler == nil {
		respondDetail(w, http.StatusInternalServerError, "Billing is not configured")
		return
	}
	if s.Cfg.APIKeyHMACSecret == "" {
		respondDetail(w, http.StatusInternalServerError, "API key hashing not configured")
		return
	}

	signature := r.Header.Get("stripe-signature")
	if signature == "" {
		respondDetail(w, http.StatusBadRequest, "Missing Stripe signature")
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	event, err := s.Provider.ConstructEvent(payload, signature)
	if err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid Stripe signature")
		return
	}

	if err := s.Reconciler.HandleEvent(r.Context(), event); err != nil {
		s.internalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
