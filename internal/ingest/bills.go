package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/BradleyExton/canpoli-api/internal/decode"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/observability/metrics"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

var errNoOfficerLinks = errors.New("house officer csv links not found")

// IngestBills pulls the LEGISinfo feed for the configured session and
// upserts each bill keyed by (number, parliament, session).
func (s *Service) IngestBills(ctx context.Context) (Stats, error) {
	url := fmt.Sprintf("https://www.parl.ca/legisinfo/en/bills/json?parlsession=%d-%d",
		s.cfg.HoCParliament, s.cfg.HoCSession)
	result, err := s.pool.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	records, err := decode.Bills(result.Text)
	if err != nil {
		return nil, err
	}

	stats := Stats{"bills": 0, "errors": 0}
	bills := repo.NewBills(s.db)

	for _, record := range records {
		sourceHash := record.SourceHash
		sourceURL := url
		bill := models.Bill{
			BillNumber:         record.BillNumber,
			Parliament:         record.Parliament,
			Session:            record.Session,
			LegisinfoID:        record.LegisinfoID,
			TitleEn:            record.TitleEn,
			TitleFr:            record.TitleFr,
			Status:             record.Status,
			IntroducedDate:     record.IntroducedDate,
			LatestActivityDate: record.LatestActivityDate,
			SponsorName:        record.SponsorName,
			SourceURL:          &sourceURL,
			SourceHash:         &sourceHash,
		}
		if _, err := bills.Upsert(ctx, &bill); err != nil {
			s.log.Error("failed to ingest bill", "bill", record.BillNumber, "error", err.Error())
			stats["errors"] = intStat(stats, "errors") + 1
			continue
		}
		stats["bills"] = intStat(stats, "bills") + 1
	}

	metrics.Ingest().Records("bills", "bills", intStat(stats, "bills"))
	return stats, nil
}
