package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/decode"
	"github.com/BradleyExton/canpoli-api/internal/httpclient"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/observability/metrics"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

func hansardURL(parliament, session, sitting int, language string) string {
	code := "F"
	if strings.HasPrefix(strings.ToLower(language), "en") {
		code = "E"
	}
	return fmt.Sprintf("https://www.ourcommons.ca/Content/House/%d%d/Debates/%d/HAN%d-%s.XML",
		parliament, session, sitting, sitting, code)
}

// IngestDebates scans sitting numbers past the highest one already stored,
// fetching every configured language variant. The scan stops after
// max_missing consecutive sittings with no document in any language.
func (s *Service) IngestDebates(ctx context.Context) (Stats, error) {
	parliament := s.cfg.HoCParliament
	session := s.cfg.HoCSession

	maxSitting, err := repo.NewDebates(s.db).MaxSitting(ctx, parliament, session)
	if err != nil {
		return nil, err
	}
	// Cold starts scan up to max_sitting; incremental runs look ahead a
	// bounded window past the last stored sitting.
	start, end := 1, s.cfg.HoCDebatesMaxSitting
	if maxSitting > 0 {
		start = maxSitting + 1
		end = maxSitting + s.cfg.HoCDebatesLookahead
	}

	stats := Stats{"debates": 0, "interventions": 0, "errors": 0}
	missing := 0

	for sitting := start; sitting <= end; sitting++ {
		foundAny := false
		for _, language := range s.cfg.HoCDebateLanguages {
			url := hansardURL(parliament, session, sitting, language)
			result, err := s.pool.Get(ctx, url)
			if err != nil {
				var fetchErr *httpclient.FetchError
				if errors.As(err, &fetchErr) {
					continue
				}
				return nil, err
			}
			foundAny = true

			if err := s.ingestDebate(ctx, result, parliament, session, sitting, language, stats); err != nil {
				s.log.Error("failed to ingest debate", "sitting", sitting, "language", language, "error", err.Error())
				stats["errors"] = intStat(stats, "errors") + 1
			}
		}

		if foundAny {
			missing = 0
		} else {
			missing++
			if missing >= s.cfg.HoCDebatesMaxMissing {
				break
			}
		}
	}

	metrics.Ingest().Records("debates", "debates", intStat(stats, "debates"))
	metrics.Ingest().Records("debates", "interventions", intStat(stats, "interventions"))
	return stats, nil
}

func (s *Service) ingestDebate(ctx context.Context, result httpclient.Result, parliament, session, sitting int, language string, stats Stats) error {
	meta, interventions, err := decode.Hansard(result.Text, language)
	if err != nil {
		return err
	}

	debates := repo.NewDebates(s.db)
	existing, err := debates.GetByNaturalKey(ctx, &parliament, &session, &sitting, &meta.Language)
	if err != nil {
		return err
	}
	if existing != nil && existing.SourceHash != nil && *existing.SourceHash == meta.SourceHash {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		debates := repo.NewDebates(tx)
		sourceHash := meta.SourceHash
		documentURL := result.URL
		stored, err := debates.Upsert(ctx, &models.Debate{
			Parliament:  &parliament,
			Session:     &session,
			Sitting:     &sitting,
			Language:    &meta.Language,
			DebateDate:  meta.DebateDate,
			Volume:      meta.Volume,
			Number:      meta.Number,
			SpeakerName: meta.SpeakerName,
			DocumentURL: &documentURL,
			SourceHash:  &sourceHash,
		})
		if err != nil {
			return err
		}
		stats["debates"] = intStat(stats, "debates") + 1

		records := make([]models.DebateIntervention, 0, len(interventions))
		for _, item := range interventions {
			records = append(records, models.DebateIntervention{
				SpeakerName:        item.SpeakerName,
				SpeakerAffiliation: item.SpeakerAffiliation,
				FloorLanguage:      item.FloorLanguage,
				Timestamp:          item.Timestamp,
				OrderOfBusiness:    item.OrderOfBusiness,
				SubjectTitle:       item.SubjectTitle,
				InterventionType:   item.InterventionType,
				Text:               item.Text,
			})
		}
		if err := debates.ReplaceInterventions(ctx, stored.ID, records); err != nil {
			return err
		}
		stats["interventions"] = intStat(stats, "interventions") + len(records)
		return nil
	})
}
