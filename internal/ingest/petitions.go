package ingest

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/BradleyExton/canpoli-api/internal/decode"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/observability/metrics"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

const petitionSearchURL = "https://www.ourcommons.ca/petitions/en/Petition/SearchAsync"

func petitionSearchForm(page int) url.Values {
	return url.Values{
		"parl":            {"Latest"},
		"type":            {""},
		"keyword":         {""},
		"sponsor":         {""},
		"status":          {""},
		"RPP":             {"20"},
		"order":           {"Recent"},
		"page":            {strconv.Itoa(page)},
		"category":        {"All"},
		"output":          {""},
		"reCaptchaAction": {""},
		"reCaptchaToken":  {""},
	}
}

// IngestPetitions walks the paginated petition search, fetching each
// petition's detail page to resolve sponsor and dates.
func (s *Service) IngestPetitions(ctx context.Context) (Stats, error) {
	first, err := s.pool.PostForm(ctx, petitionSearchURL, petitionSearchForm(1))
	if err != nil {
		return nil, err
	}
	firstHTML, err := decode.PetitionSearchHTML(first.Text)
	if err != nil {
		return nil, err
	}
	totalPages := decode.ExtractTotalPages(firstHTML)
	if totalPages < 1 {
		totalPages = 1
	}

	representatives, err := repo.NewRepresentatives(s.db).ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int, len(representatives))
	for _, rep := range representatives {
		byName[strings.ToLower(rep.Name)] = rep.HocID
	}

	parliament := s.cfg.HoCParliament
	session := s.cfg.HoCSession
	stats := Stats{"petitions": 0, "errors": 0}
	petitions := repo.NewPetitions(s.db)

	for page := 1; page <= totalPages; page++ {
		pageHTML := firstHTML
		if page > 1 {
			result, err := s.pool.PostForm(ctx, petitionSearchURL, petitionSearchForm(page))
			if err != nil {
				s.log.Error("failed to fetch petitions page", "page", page, "error", err.Error())
				stats["errors"] = intStat(stats, "errors") + 1
				continue
			}
			if pageHTML, err = decode.PetitionSearchHTML(result.Text); err != nil {
				stats["errors"] = intStat(stats, "errors") + 1
				continue
			}
		}

		rows, err := decode.PetitionRows(pageHTML)
		if err != nil {
			stats["errors"] = intStat(stats, "errors") + 1
			continue
		}

		for _, row := range rows {
			if err := s.ingestPetition(ctx, petitions, row, parliament, session, byName); err != nil {
				s.log.Error("failed to ingest petition", "petition", row.PetitionNumber, "error", err.Error())
				stats["errors"] = intStat(stats, "errors") + 1
				continue
			}
			stats["petitions"] = intStat(stats, "petitions") + 1
		}
	}

	metrics.Ingest().Records("petitions", "petitions", intStat(stats, "petitions"))
	return stats, nil
}

func (s *Service) ingestPetition(ctx context.Context, petitions *repo.Petitions, row decode.PetitionRow, parliament, session int, byName map[string]int) error {
	var detail decode.PetitionDetail
	if row.DetailURL != nil {
		result, err := s.pool.Get(ctx, *row.DetailURL)
		if err != nil {
			return err
		}
		if detail, err = decode.ParsePetitionDetail(result.Text); err != nil {
			return err
		}
	}

	sponsorHocID := detail.SponsorHocID
	if sponsorHocID == nil && row.SponsorName != nil {
		if hocID, ok := byName[strings.ToLower(*row.SponsorName)]; ok {
			sponsorHocID = &hocID
		}
	}
	sponsorName := row.SponsorName
	if detail.SponsorName != nil {
		sponsorName = detail.SponsorName
	}

	record := models.Petition{
		PetitionNumber:   row.PetitionNumber,
		TitleEn:          row.TitleEn,
		Status:           row.Status,
		PresentationDate: detail.PresentationDate,
		ClosingDate:      detail.ClosingDate,
		Signatures:       row.Signatures,
		SponsorHocID:     sponsorHocID,
		SponsorName:      sponsorName,
		Parliament:       &parliament,
		Session:          &session,
		SourceURL:        row.DetailURL,
	}
	if detail.SourceHash != "" {
		record.SourceHash = &detail.SourceHash
	}
	_, err := petitions.Upsert(ctx, &record)
	return err
}
