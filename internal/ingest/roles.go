package ingest

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/decode"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/observability/metrics"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

// IngestRoles refreshes role history for every active representative. The
// per-MP fetches fan out concurrently; the pool's semaphore and per-host
// throttle bound the pressure on the upstream. Each representative's role
// set is replaced in its own transaction.
func (s *Service) IngestRoles(ctx context.Context) (Stats, error) {
	representatives, err := repo.NewRepresentatives(s.db).ListActive(ctx)
	if err != nil {
		return nil, err
	}

	stats := Stats{"representatives": len(representatives), "roles": 0, "errors": 0}

	type fetched struct {
		rep   models.Representative
		roles []decode.Role
		err   error
	}

	results := make([]fetched, len(representatives))
	var wg sync.WaitGroup
	for i, rep := range representatives {
		wg.Add(1)
		go func(i int, rep models.Representative) {
			defer wg.Done()
			url := fmt.Sprintf("https://www.ourcommons.ca/members/en/%d/xml", rep.HocID)
			result, err := s.pool.Get(ctx, url)
			if err != nil {
				results[i] = fetched{rep: rep, err: err}
				return
			}
			roles, err := decode.Roles(result.Text, result.URL)
			results[i] = fetched{rep: rep, roles: roles, err: err}
		}(i, rep)
	}
	wg.Wait()

	for _, item := range results {
		if item.err != nil {
			s.log.Error("failed to ingest roles", "hoc_id", item.rep.HocID, "error", item.err.Error())
			stats["errors"] = intStat(stats, "errors") + 1
			continue
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			roles := repo.NewRoles(tx)
			if err := roles.DeleteByRepresentativeID(ctx, item.rep.ID); err != nil {
				return err
			}
			for _, role := range item.roles {
				sourceURL := role.SourceURL
				sourceHash := role.SourceHash
				record := models.RepresentativeRole{
					RepresentativeID: item.rep.ID,
					RoleName:         role.RoleName,
					RoleType:         role.RoleType,
					Organization:     role.Organization,
					Parliament:       role.Parliament,
					Session:          role.Session,
					StartDate:        role.StartDate,
					EndDate:          role.EndDate,
					IsCurrent:        role.IsCurrent,
					SourceURL:        &sourceURL,
					SourceHash:       &sourceHash,
				}
				if err := roles.Create(ctx, &record); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			s.log.Error("failed to store roles", "hoc_id", item.rep.HocID, "error", err.Error())
			stats["errors"] = intStat(stats, "errors") + 1
			continue
		}
		stats["roles"] = intStat(stats, "roles") + len(item.roles)
	}

	metrics.Ingest().Records("roles", "roles", intStat(stats, "roles"))
	return stats, nil
}
