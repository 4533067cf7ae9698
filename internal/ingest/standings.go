package ingest

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/decode"
	"github.com/BradleyExton/canpoli-api/internal/observability/metrics"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

const standingsURL = "https://www.ourcommons.ca/Members/en/party-standings/XML"

// IngestPartyStandings snapshots seat counts per caucus, stamped with
// today's date. Replays on the same day update in place; consecutive days
// accumulate rows, which is the intended contract.
func (s *Service) IngestPartyStandings(ctx context.Context) (Stats, error) {
	result, err := s.pool.Get(ctx, standingsURL)
	if err != nil {
		return nil, err
	}
	totals, err := decode.PartyStandings(result.Text)
	if err != nil {
		return nil, err
	}

	now := s.today().UTC()
	asOf := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	parliament := s.cfg.HoCParliament
	session := s.cfg.HoCSession

	stats := Stats{"created": 0, "updated": 0}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parties := repo.NewParties(tx)
		standings := repo.NewStandings(tx)

		for partyName, seatCount := range totals {
			var partyID *uint
			if !strings.EqualFold(partyName, "Vacant") {
				party, err := parties.GetByName(ctx, partyName)
				if err != nil {
					return err
				}
				if party == nil {
					if party, err = parties.GetOrCreate(ctx, partyName, nil, nil); err != nil {
						return err
					}
				}
				partyID = &party.ID
			}

			key := repo.StandingKey{
				PartyName:  partyName,
				Parliament: &parliament,
				Session:    &session,
				AsOfDate:   &asOf,
			}
			existing, err := standings.Get(ctx, key)
			if err != nil {
				return err
			}
			if _, err := standings.Upsert(ctx, key, partyID, seatCount, result.URL); err != nil {
				return err
			}
			if existing != nil {
				stats["updated"] = intStat(stats, "updated") + 1
			} else {
				stats["created"] = intStat(stats, "created") + 1
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Ingest().Records("party_standings", "created", intStat(stats, "created"))
	metrics.Ingest().Records("party_standings", "updated", intStat(stats, "updated"))
	return stats, nil
}
