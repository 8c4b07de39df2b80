// Package syncer drives one synchronization pass: feed pagination, token
// diffing against the cache, detail fetching and the single merged write.
package syncer

import (
	"context"
	"fmt"
	"sync"

	"duels-tracker/internal/api"
	"duels-tracker/internal/constants"
	"duels-tracker/internal/countries"
	"duels-tracker/internal/domain"
	"duels-tracker/internal/processor"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Gateway is the remote feed contract the syncer consumes.
type Gateway interface {
	GetPlayerInfo(ctx context.Context) (*domain.PlayerInfo, error)
	GetFeedPage(ctx context.Context, paginationToken string) (*api.FeedPage, error)
	GetGameDetail(ctx context.Context, gameID string) (*api.Game, error)
}

// Store is the cache table the syncer owns the write path to.
type Store interface {
	LoadAll(ctx context.Context) ([]domain.Record, error)
	GameIDs(ctx context.Context) (map[string]struct{}, error)
	UpsertBatch(ctx context.Context, records []domain.Record) error
}

// Result is what one sync pass produced. PersistWarning is non-nil when
// the merged table could not be written back: the in-memory result is
// still complete, but the cache on disk is stale.
type Result struct {
	Table          []domain.Record
	NewGames       int
	Player         domain.PlayerInfo
	PersistWarning error
}

type Syncer struct {
	gateway   Gateway
	store     Store
	countries *countries.Lookup
	workers   int
	logger    zerolog.Logger
}

func New(gateway Gateway, store Store, lookup *countries.Lookup, workers int, logger zerolog.Logger) *Syncer {
	if workers < 1 {
		workers = 1
	}
	return &Syncer{gateway: gateway, store: store, countries: lookup, workers: workers, logger: logger}
}

// Sync runs one full pass. If progress is non-nil the syncer sends a
// monotonic completed/total fraction after every detail fetch and closes
// the channel when done; sends block, so an unhurried consumer naturally
// paces the loop. The fraction reaches exactly 1.0 even when the final
// fetch failed.
//
// Player-info failure aborts the sync. A malformed feed page, a bad game
// payload or a failed detail fetch is logged and skipped. When no new
// tokens are found the cached table is returned untouched and nothing is
// written.
func (s *Syncer) Sync(ctx context.Context, progress chan<- float64) (*Result, error) {
	if progress != nil {
		defer close(progress)
	}

	runID, _ := gonanoid.New()
	logger := s.logger.With().Str("sync_run", runID).Logger()

	player, err := s.gateway.GetPlayerInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	logger.Info().Str("player_id", player.ID).Str("nick", player.Nick).Msg("authenticated")

	cachedIDs, err := s.store.GameIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached game ids: %w", err)
	}

	remoteTokens := s.collectTokens(ctx, logger)

	// Diff against the cache, preserving feed order. Tokens are also
	// deduplicated here so each (gameId, roundNumber) key is produced at
	// most once per sync.
	seen := make(map[string]struct{}, len(remoteTokens))
	var newTokens []string
	for _, token := range remoteTokens {
		if _, ok := cachedIDs[token]; ok {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		newTokens = append(newTokens, token)
	}

	logger.Info().
		Int("remote_tokens", len(remoteTokens)).
		Int("cached_games", len(cachedIDs)).
		Int("new_tokens", len(newTokens)).
		Msg("token diff complete")

	if len(newTokens) == 0 {
		table, err := s.store.LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load cache: %w", err)
		}
		return &Result{Table: table, NewGames: 0, Player: *player}, nil
	}

	newRecords := s.fetchDetails(ctx, logger, player.ID, newTokens, progress)

	result := &Result{NewGames: len(newTokens), Player: *player}

	if err := s.store.UpsertBatch(ctx, newRecords); err != nil {
		// The sync itself succeeded; losing the write is reported, not
		// swallowed and not fatal.
		logger.Error().Err(err).Msg("failed to persist merged table")
		result.PersistWarning = err
		existing, loadErr := s.store.LoadAll(ctx)
		if loadErr != nil {
			return nil, fmt.Errorf("failed to load cache after persist failure: %w", loadErr)
		}
		result.Table = mergeRecords(existing, newRecords)
		return result, nil
	}

	table, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load merged cache: %w", err)
	}
	result.Table = table

	logger.Info().Int("new_games", result.NewGames).Int("records", len(table)).Msg("sync complete")
	return result, nil
}

// collectTokens walks the paginated feed accumulating duel tokens. The
// walk stops at the history floor or on the first failed page; partial
// results are fine, the next sync picks up the rest.
func (s *Syncer) collectTokens(ctx context.Context, logger zerolog.Logger) []string {
	var tokens []string
	paginationToken := ""

	for {
		page, err := s.gateway.GetFeedPage(ctx, paginationToken)
		if err != nil {
			logger.Warn().Err(err).Msg("feed page fetch failed, stopping pagination")
			break
		}
		if len(page.Entries) == 0 {
			break
		}

		tokens = append(tokens, processor.ExtractDuelTokens(page.Entries, 0)...)

		// The feed is only approximately time-ordered, so checking just
		// the first entry per page can under-fetch near the boundary.
		// That is the known behavior, not something to compensate for.
		if !page.Entries[0].Time.IsZero() && page.Entries[0].Time.Before(constants.HistoryFloor) {
			logger.Debug().Time("entry_time", page.Entries[0].Time).Msg("reached history floor")
			break
		}

		if page.PaginationToken == "" {
			break
		}
		paginationToken = page.PaginationToken
	}

	return tokens
}

// fetchDetails fetches and transforms every new token. Failures and
// structurally invalid games are skipped; the batch never aborts. With
// workers == 1 this is the strict sequential reference behavior, higher
// worker counts fan out the independent fetches while the merge stays a
// single serialized write in the caller.
func (s *Syncer) fetchDetails(ctx context.Context, logger zerolog.Logger, playerID string, tokens []string, progress chan<- float64) []domain.Record {
	results := make([][]domain.Record, len(tokens))
	total := len(tokens)

	var mu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, token := range tokens {
		g.Go(func() error {
			game, err := s.gateway.GetGameDetail(gctx, token)
			if err != nil {
				logger.Warn().Err(err).Str("game_id", token).Msg("failed to fetch game detail")
			} else if processed := processor.ProcessGame(game, playerID, s.countries); processed == nil {
				logger.Warn().Str("game_id", token).Msg("skipping structurally invalid game")
			} else {
				results[i] = processed.Flatten()
			}

			// The send happens under the lock so the fraction sequence
			// stays monotonic even with fanned-out workers.
			mu.Lock()
			defer mu.Unlock()
			completed++
			if progress != nil {
				select {
				case progress <- float64(completed) / float64(total):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	// Workers only return context errors; a cancelled sync just keeps
	// whatever completed.
	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("detail fetch interrupted")
	}

	var records []domain.Record
	for _, rows := range results {
		records = append(records, rows...)
	}
	return records
}

// mergeRecords is the in-memory fallback merge for when persistence
// failed: existing rows first, new rows replace on key collision.
func mergeRecords(existing, incoming []domain.Record) []domain.Record {
	type key struct {
		gameID      string
		roundNumber int
	}

	index := make(map[key]int, len(existing))
	merged := make([]domain.Record, len(existing), len(existing)+len(incoming))
	copy(merged, existing)
	for i, rec := range merged {
		index[key{rec.GameID, rec.RoundNumber}] = i
	}

	for _, rec := range incoming {
		k := key{rec.GameID, rec.RoundNumber}
		if i, ok := index[k]; ok {
			merged[i] = rec
			continue
		}
		index[k] = len(merged)
		merged = append(merged, rec)
	}
	return merged
}
