// Package ingest pulls upstream parliamentary data into the relational
// store. Each pipeline is independent: it fetches through the shared
// client pool, decodes, and upserts inside its own transaction scope.
// Failures are contained per row where possible and per pipeline always.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/config"
	"github.com/BradleyExton/canpoli-api/internal/httpclient"
	"github.com/BradleyExton/canpoli-api/internal/observability/metrics"
)

// Stats is the per-pipeline result summary.
type Stats map[string]any

// Service coordinates the ingestion pipelines.
type Service struct {
	db   *gorm.DB
	pool *httpclient.Pool
	cfg  *config.Config
	log  *slog.Logger

	// today is injectable for tests; party standings stamp it as
	// as_of_date on every run.
	today func() time.Time
}

// New constructs the ingestion service.
func New(db *gorm.DB, pool *httpclient.Pool, cfg *config.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:    db,
		pool:  pool,
		cfg:   cfg,
		log:   log,
		today: time.Now,
	}
}

// Run executes the enabled pipelines in declared order. A pipeline failure
// is recorded in its stats entry and does not abort peers.
func (s *Service) Run(ctx context.Context) map[string]Stats {
	results := make(map[string]Stats)

	pipelines := []struct {
		name    string
		enabled bool
		run     func(context.Context) (Stats, error)
	}{
		{"members", s.cfg.HoCEnableMembers, s.IngestMembers},
		{"party_standings", s.cfg.HoCEnablePartyStandings, s.IngestPartyStandings},
		{"roles", s.cfg.HoCEnableRoles, s.IngestRoles},
		{"votes", s.cfg.HoCEnableVotes, s.IngestVotes},
		{"petitions", s.cfg.HoCEnablePetitions, s.IngestPetitions},
		{"debates", s.cfg.HoCEnableDebates, s.IngestDebates},
		{"expenditures", s.cfg.HoCEnableExpenditures, s.IngestExpenditures},
		{"bills", s.cfg.HoCEnableBills, s.IngestBills},
	}

	for _, pipeline := range pipelines {
		if !pipeline.enabled {
			continue
		}
		started := time.Now()
		stats := s.runIsolated(ctx, pipeline.name, pipeline.run)
		metrics.Ingest().Duration(pipeline.name, time.Since(started))
		results[pipeline.name] = stats
	}
	return results
}

// runIsolated is the pipeline exception boundary: errors and panics are
// converted into an error stat entry.
func (s *Service) runIsolated(ctx context.Context, name string, run func(context.Context) (Stats, error)) (stats Stats) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.log.Error("pipeline panicked", "pipeline", name, "panic", fmt.Sprint(recovered))
			metrics.Ingest().Errors(name, 1)
			stats = Stats{"error": fmt.Sprint(recovered)}
		}
	}()

	stats, err := run(ctx)
	if err != nil {
		s.log.Error("pipeline failed", "pipeline", name, "error", err.Error())
		metrics.Ingest().Errors(name, 1)
		return Stats{"error": err.Error()}
	}
	if errors, ok := stats["errors"].(int); ok {
		metrics.Ingest().Errors(name, errors)
	}
	s.log.Info("pipeline finished", "pipeline", name, "stats", fmt.Sprint(stats))
	return stats
}

func intStat(stats Stats, key string) int {
	value, _ := stats[key].(int)
	return value
}
