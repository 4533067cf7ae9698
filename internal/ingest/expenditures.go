package ingest

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/decode"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/observability/metrics"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

const (
	memberDisclosureURL  = "https://www.ourcommons.ca/ProactiveDisclosure/en/members"
	officerDisclosureURL = "https://www.ourcommons.ca/Boie/en/reports-and-disclosure"
)

// IngestExpenditures runs the member and house-officer disclosure imports.
// Each half fails independently.
func (s *Service) IngestExpenditures(ctx context.Context) (Stats, error) {
	stats := Stats{"members": 0, "house_officers": 0, "errors": 0}

	if count, err := s.ingestMemberExpenditures(ctx); err != nil {
		s.log.Error("failed to ingest member expenditures", "error", err.Error())
		stats["errors"] = intStat(stats, "errors") + 1
	} else {
		stats["members"] = count
	}

	if count, err := s.ingestOfficerExpenditures(ctx); err != nil {
		s.log.Error("failed to ingest house officer expenditures", "error", err.Error())
		stats["errors"] = intStat(stats, "errors") + 1
	} else {
		stats["house_officers"] = count
	}

	metrics.Ingest().Records("expenditures", "members", intStat(stats, "members"))
	metrics.Ingest().Records("expenditures", "house_officers", intStat(stats, "house_officers"))
	return stats, nil
}

// nameKey maps a "Last, First" CSV name onto lookup keys.
type nameKey struct {
	last  string
	first string
}

func (s *Service) ingestMemberExpenditures(ctx context.Context) (int, error) {
	page, err := s.pool.Get(ctx, memberDisclosureURL)
	if err != nil {
		return 0, err
	}
	csvHref, periodText, err := decode.MemberDisclosure(page.Text)
	if err != nil {
		return 0, err
	}
	periodStart, periodEnd := decode.ParseDateRange(periodText)
	fiscalYear := decode.FiscalYear(periodStart)

	csvURL := "https://www.ourcommons.ca" + csvHref
	csvResult, err := s.pool.Get(ctx, csvURL)
	if err != nil {
		return 0, err
	}
	rows, err := decode.MemberExpenditures(csvResult.Text)
	if err != nil {
		return 0, err
	}

	representatives, err := repo.NewRepresentatives(s.db).ListAll(ctx)
	if err != nil {
		return 0, err
	}
	byName := make(map[nameKey]models.Representative, len(representatives)*2)
	for _, rep := range representatives {
		last := strings.ToLower(strings.TrimSpace(deref(rep.LastName)))
		first := strings.ToLower(strings.TrimSpace(deref(rep.FirstName)))
		if last == "" {
			continue
		}
		byName[nameKey{last, first}] = rep
		byName[nameKey{last, ""}] = rep
	}

	count := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expenditures := repo.NewExpenditures(tx)
		if periodStart != nil && periodEnd != nil {
			if err := expenditures.DeleteMemberPeriod(ctx, *periodStart, *periodEnd); err != nil {
				return err
			}
		}
		for _, row := range rows {
			var hocID *int
			var representativeID *uint
			if rep, ok := matchMemberName(row.MemberName, byName); ok {
				id := rep.HocID
				hocID = &id
				repID := rep.ID
				representativeID = &repID
			}
			record := models.MemberExpenditure{
				RepresentativeID: representativeID,
				HocID:            hocID,
				MemberName:       row.MemberName,
				Category:         row.Category,
				Amount:           row.Amount,
				PeriodStart:      periodStart,
				PeriodEnd:        periodEnd,
				FiscalYear:       fiscalYear,
				SourceURL:        &csvURL,
			}
			if err := expenditures.CreateMember(ctx, &record); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

func matchMemberName(name string, byName map[nameKey]models.Representative) (models.Representative, bool) {
	if !strings.Contains(name, ",") {
		return models.Representative{}, false
	}
	parts := strings.SplitN(name, ",", 2)
	last := strings.ToLower(strings.TrimSpace(parts[0]))
	first := ""
	if len(parts) > 1 {
		first = strings.ToLower(strings.TrimSpace(parts[1]))
	}
	if rep, ok := byName[nameKey{last, first}]; ok {
		return rep, true
	}
	rep, ok := byName[nameKey{last, ""}]
	return rep, ok
}

func (s *Service) ingestOfficerExpenditures(ctx context.Context) (int, error) {
	page, err := s.pool.Get(ctx, officerDisclosureURL)
	if err != nil {
		return 0, err
	}
	links, err := decode.OfficerCSVLinks(page.Text)
	if err != nil {
		return 0, err
	}
	if len(links) == 0 {
		return 0, &decode.DecodeError{Source: "officer disclosure html", Cause: errNoOfficerLinks}
	}

	count := 0
	for _, href := range links {
		csvURL := "https://www.ourcommons.ca" + href
		csvResult, err := s.pool.Get(ctx, csvURL)
		if err != nil {
			return count, err
		}
		rows, periodStart, periodEnd, err := decode.OfficerExpenditures(csvResult.Text)
		if err != nil {
			return count, err
		}
		fiscalYear := decode.FiscalYear(periodStart)

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			expenditures := repo.NewExpenditures(tx)
			if periodStart != nil && periodEnd != nil {
				if err := expenditures.DeleteOfficerPeriod(ctx, *periodStart, *periodEnd); err != nil {
					return err
				}
			}
			for _, row := range rows {
				record := models.HouseOfficerExpenditure{
					OfficerName: row.OfficerName,
					RoleTitle:   row.RoleTitle,
					Category:    row.Category,
					Amount:      row.Amount,
					PeriodStart: periodStart,
					PeriodEnd:   periodEnd,
					FiscalYear:  fiscalYear,
					SourceURL:   &csvURL,
				}
				if err := expenditures.CreateOfficer(ctx, &record); err != nil {
					return err
				}
				count++
			}
			return nil
		})
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
