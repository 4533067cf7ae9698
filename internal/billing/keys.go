package billing

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/counter"
	"github.com/BradleyExton/canpoli-api/internal/keys"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

const revealTTL = time.Hour

func revealKey(userID string) string {
	return "api_key_reveal:" + userID
}

// RotateKey deactivates every key the user holds and mints a replacement,
// returning the one-time plaintext. Exactly one key is active afterwards.
func RotateKey(ctx context.Context, db *gorm.DB, secret, userID string) (*models.ApiKey, string, error) {
	var created models.ApiKey
	var plaintext string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		apiKeys := repo.NewApiKeys(tx)
		if err := apiKeys.DeactivateForUser(ctx, userID, time.Now().UTC()); err != nil {
			return err
		}
		generated, err := keys.Generate(secret)
		if err != nil {
			return err
		}
		created = models.ApiKey{
			UserID:    userID,
			KeyPrefix: generated.KeyPrefix,
			KeyHash:   generated.KeyHash,
			Active:    true,
		}
		if err := apiKeys.Create(ctx, &created); err != nil {
			return err
		}
		plaintext = generated.Plaintext
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return &created, plaintext, nil
}

// activateOrCreateKey mints a key for a fresh subscriber, stashing the
// plaintext for a one-shot reveal, or syncs an existing key's active flag
// to the subscription state.
func activateOrCreateKey(ctx context.Context, db *gorm.DB, store counter.Store, secret, userID string, status *string) error {
	apiKeys := repo.NewApiKeys(db)
	active := status != nil && models.SubscriptionActive(*status)

	current, err := apiKeys.GetActiveForUser(ctx, userID)
	if err != nil {
		return err
	}
	if current == nil {
		generated, err := keys.Generate(secret)
		if err != nil {
			return err
		}
		record := models.ApiKey{
			UserID:    userID,
			KeyPrefix: generated.KeyPrefix,
			KeyHash:   generated.KeyHash,
			Active:    active,
		}
		if err := apiKeys.Create(ctx, &record); err != nil {
			return err
		}
		if store != nil {
			if err := store.Set(ctx, revealKey(userID), generated.Plaintext, revealTTL); err != nil {
				return fmt.Errorf("billing: stash reveal: %w", err)
			}
		}
		return nil
	}
	current.Active = active
	return apiKeys.Save(ctx, current)
}

// syncKeyActive updates the active flag of an existing key without ever
// minting a new one.
func syncKeyActive(ctx context.Context, db *gorm.DB, userID string, status *string) error {
	apiKeys := repo.NewApiKeys(db)
	current, err := apiKeys.GetActiveForUser(ctx, userID)
	if err != nil || current == nil {
		return err
	}
	current.Active = status != nil && models.SubscriptionActive(*status)
	return apiKeys.Save(ctx, current)
}

// ConsumeReveal returns and deletes the one-shot plaintext stash, if any.
func ConsumeReveal(ctx context.Context, store counter.Store, userID string) (*string, error) {
	if store == nil {
		return nil, nil
	}
	value, err := store.Get(ctx, revealKey(userID))
	if err == counter.ErrNil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := store.Del(ctx, revealKey(userID)); err != nil {
		return nil, err
	}
	return &value, nil
}
