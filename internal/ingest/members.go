package ingest

import (
	"context"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/decode"
	"github.com/BradleyExton/canpoli-api/internal/observability/metrics"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

const membersURL = "https://www.ourcommons.ca/Members/en/search/XML"

// Built-in colours for the major caucuses; unknown parties are created
// with nulls.
var partyColors = map[string]string{
	"Liberal":        "#D71920",
	"Conservative":   "#1A4782",
	"NDP":            "#F37021",
	"Bloc Québécois": "#33B2CC",
	"Green Party":    "#3D9B35",
	"Independent":    "#808080",
}

var partyShortNames = map[string]string{
	"Liberal":        "LPC",
	"Conservative":   "CPC",
	"NDP":            "NDP",
	"Bloc Québécois": "BQ",
	"Green Party":    "GPC",
	"Independent":    "Ind.",
}

func lookupPtr(table map[string]string, key string) *string {
	if value, ok := table[key]; ok {
		return &value
	}
	return nil
}

// IngestMembers pulls the all-MPs registry and upserts representatives,
// creating parties and ridings as needed.
func (s *Service) IngestMembers(ctx context.Context) (Stats, error) {
	result, err := s.pool.Get(ctx, membersURL)
	if err != nil {
		return nil, err
	}
	members, err := decode.Members(result.Text)
	if err != nil {
		return nil, err
	}
	s.log.Info("fetched members registry", "count", len(members))

	stats := Stats{"created": 0, "updated": 0, "errors": 0}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parties := repo.NewParties(tx)
		ridings := repo.NewRidings(tx)
		representatives := repo.NewRepresentatives(tx)

		for _, member := range members {
			var partyID *uint
			if member.Party != "" {
				party, err := parties.GetOrCreate(ctx, member.Party,
					lookupPtr(partyShortNames, member.Party),
					lookupPtr(partyColors, member.Party))
				if err != nil {
					return err
				}
				partyID = &party.ID
			}

			var ridingID *uint
			if member.Riding != "" {
				province := member.Province
				if province == "" {
					province = "Unknown"
				}
				riding, err := ridings.GetOrCreate(ctx, member.Riding, province)
				if err != nil {
					return err
				}
				ridingID = &riding.ID
			}

			existing, err := representatives.GetByHocID(ctx, member.HocID)
			if err != nil {
				return err
			}

			photoURL := member.PhotoURL
			profileURL := member.ProfileURL
			_, err = representatives.UpsertByHocID(ctx, member.HocID, repo.RepresentativeFields{
				Name:       member.Name,
				FirstName:  optionalStr(member.FirstName),
				LastName:   optionalStr(member.LastName),
				Honorific:  member.Honorific,
				Email:      member.Email,
				Phone:      member.Phone,
				PhotoURL:   &photoURL,
				ProfileURL: &profileURL,
				IsActive:   true,
				PartyID:    partyID,
				RidingID:   ridingID,
			})
			if err != nil {
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

	metrics.Ingest().Records("members", "created", intStat(stats, "created"))
	metrics.Ingest().Records("members", "updated", intStat(stats, "updated"))
	return stats, nil
}

func optionalStr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
