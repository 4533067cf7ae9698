package ingest

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/decode"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/observability/metrics"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

// IngestVotes scrapes the votes list, fetching each vote's detail page and
// replacing ballots unless the detail hash is unchanged.
func (s *Service) IngestVotes(ctx context.Context) (Stats, error) {
	listURL := fmt.Sprintf("https://www.ourcommons.ca/members/en/votes?parl=%d&session=%d",
		s.cfg.HoCParliament, s.cfg.HoCSession)
	result, err := s.pool.Get(ctx, listURL)
	if err != nil {
		return nil, err
	}
	rows, err := decode.VotesList(result.Text)
	if err != nil {
		return nil, err
	}

	repMap, err := s.hocIDMap(ctx)
	if err != nil {
		return nil, err
	}

	parliament := s.cfg.HoCParliament
	session := s.cfg.HoCSession
	stats := Stats{"votes": 0, "members": 0, "errors": 0}

	for _, row := range rows {
		if err := s.ingestVote(ctx, row, parliament, session, repMap, stats); err != nil {
			s.log.Error("failed to ingest vote", "vote_number", row.VoteNumber, "error", err.Error())
			stats["errors"] = intStat(stats, "errors") + 1
		}
	}

	metrics.Ingest().Records("votes", "votes", intStat(stats, "votes"))
	metrics.Ingest().Records("votes", "members", intStat(stats, "members"))
	return stats, nil
}

func (s *Service) ingestVote(ctx context.Context, row decode.VoteRow, parliament, session int, repMap map[int]uint, stats Stats) error {
	var detailText string
	var sourceHash *string
	if row.DetailURL != nil {
		detail, err := s.pool.Get(ctx, *row.DetailURL)
		if err != nil {
			return err
		}
		detailText = detail.Text
		hash := decode.SourceHash(detailText)
		sourceHash = &hash
	}

	votes := repo.NewVotes(s.db)
	existing, err := votes.GetByNaturalKey(ctx, row.VoteNumber, &parliament, &session)
	if err != nil {
		return err
	}
	if existing != nil && sourceHash != nil && existing.SourceHash != nil && *existing.SourceHash == *sourceHash {
		return nil
	}

	var detail decode.VoteDetail
	var ballots []decode.VoteBallot
	if detailText != "" {
		if detail, ballots, err = decode.ParseVoteDetail(detailText); err != nil {
			return err
		}
	}

	subject := row.SubjectEn
	if detail.SubjectEn != nil {
		subject = detail.SubjectEn
	}
	billNumber := row.BillNumber
	if detail.BillNumber != nil {
		billNumber = detail.BillNumber
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		votes := repo.NewVotes(tx)
		stored, err := votes.Upsert(ctx, &models.Vote{
			VoteNumber: row.VoteNumber,
			Parliament: &parliament,
			Session:    &session,
			VoteDate:   row.VoteDate,
			SubjectEn:  subject,
			Decision:   row.Decision,
			Yeas:       row.Yeas,
			Nays:       row.Nays,
			Paired:     row.Paired,
			BillNumber: billNumber,
			MotionText: detail.MotionText,
			Sitting:    detail.Sitting,
			SourceURL:  row.DetailURL,
			SourceHash: sourceHash,
		})
		if err != nil {
			return err
		}
		stats["votes"] = intStat(stats, "votes") + 1

		if len(ballots) == 0 {
			return nil
		}
		members := make([]models.VoteMember, 0, len(ballots))
		for _, ballot := range ballots {
			var representativeID *uint
			if ballot.HocID != nil {
				if id, ok := repMap[*ballot.HocID]; ok {
					representativeID = &id
				}
			}
			members = append(members, models.VoteMember{
				RepresentativeID: representativeID,
				HocID:            ballot.HocID,
				MemberName:       ballot.MemberName,
				Position:         ballot.Position,
				PartyName:        ballot.PartyName,
				RidingName:       ballot.RidingName,
			})
		}
		if err := votes.ReplaceMembers(ctx, stored.ID, members); err != nil {
			return err
		}
		stats["members"] = intStat(stats, "members") + len(members)
		return nil
	})
}

// hocIDMap loads every representative once so ballots and sponsors resolve
// without per-row queries.
func (s *Service) hocIDMap(ctx context.Context) (map[int]uint, error) {
	representatives, err := repo.NewRepresentatives(s.db).ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byHocID := make(map[int]uint, len(representatives))
	for _, rep := range representatives {
		byHocID[rep.HocID] = rep.ID
	}
	return byHocID, nil
}
