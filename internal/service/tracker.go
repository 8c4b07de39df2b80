package service

import (
	"context"
	"fmt"

	"duels-tracker/internal/constants"
	"duels-tracker/internal/domain"
	"duels-tracker/internal/repository"
	"duels-tracker/internal/syncer"

	"github.com/rs/zerolog"
)

// TrackerService fronts the syncer and the cache for the HTTP layer. All
// analytics reads go through a table snapshot; only Sync ever writes.
type TrackerService struct {
	syncer *syncer.Syncer
	repo   *repository.RoundRepository
	logger zerolog.Logger
}

func NewTrackerService(s *syncer.Syncer, repo *repository.RoundRepository, logger zerolog.Logger) *TrackerService {
	return &TrackerService{syncer: s, repo: repo, logger: logger}
}

// Sync runs one synchronization pass against the remote feed.
func (s *TrackerService) Sync(ctx context.Context, progress chan<- float64) (*syncer.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.SyncTimeout)
	defer cancel()

	s.logger.Info().Msg("starting sync")
	result, err := s.syncer.Sync(ctx, progress)
	if err != nil {
		s.logger.Error().Err(err).Msg("sync failed")
		return nil, fmt.Errorf("sync failed: %w", err)
	}

	if result.PersistWarning != nil {
		s.logger.Warn().Err(result.PersistWarning).Msg("sync succeeded but the cache write was lost")
	}
	s.logger.Info().
		Int("new_games", result.NewGames).
		Int("records", len(result.Table)).
		Str("nick", result.Player.Nick).
		Msg("sync finished")
	return result, nil
}

// Table loads the current cache snapshot for the analytics reads.
func (s *TrackerService) Table(ctx context.Context) ([]domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	table, err := s.repo.LoadAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load cache table")
		return nil, fmt.Errorf("failed to load cache table: %w", err)
	}
	return table, nil
}

// Count is the number of cached round records.
func (s *TrackerService) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.Count(ctx)
}
