package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"duels-tracker/internal/database"
	"duels-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *RoundRepository {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRoundRepository(db, zerolog.Nop())
}

func fullRecord(gameID string, round int) domain.Record {
	date := time.Date(2024, time.March, 10, 18, 5, 0, 123456000, time.UTC)
	rating := 1005.0
	oppRating := 1100.0
	won := true
	health := 1200.0
	oppHealth := 0.0
	mult := 1.5
	return domain.Record{
		GameID:           gameID,
		RoundNumber:      round,
		Date:             &date,
		Country:          "Germany",
		CountryCode:      "de",
		Latitude:         50.0,
		Longitude:        8.5,
		DamageMultiplier: &mult,
		MapName:          "A Community World",
		GameMode:         "StandardDuels",
		Moving:           false,
		Zooming:          true,
		Rotating:         true,
		OpponentID:       "opp",
		OpponentCountry:  "France",
		YourRating:       &rating,
		OpponentRating:   &oppRating,
		YourLat:          50.1,
		YourLng:          8.6,
		YourDistanceKm:   12.5,
		YourScore:        4800,
		OppLat:           40.0,
		OppLng:           -3.7,
		OppDistanceKm:    900.0,
		OppScore:         2100,
		GameWon:          &won,
		YourHealth:       &health,
		OppHealth:        &oppHealth,
	}
}

func TestUpsertAndLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved := fullRecord("g1", 1)
	require.NoError(t, repo.UpsertBatch(ctx, []domain.Record{saved}))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	// Date must compare equal after the TEXT round trip, sub-second
	// precision included.
	require.NotNil(t, got.Date)
	assert.True(t, got.Date.Equal(*saved.Date))
	got.Date = saved.Date
	assert.Equal(t, saved, got)
}

func TestUpsertNilOptionalsStayNil(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, []domain.Record{{
		GameID:      "g1",
		RoundNumber: 1,
		Country:     "Germany",
	}}))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Nil(t, got.Date)
	assert.Nil(t, got.DamageMultiplier)
	assert.Nil(t, got.YourRating)
	assert.Nil(t, got.OpponentRating)
	assert.Nil(t, got.GameWon)
	assert.Nil(t, got.YourHealth)
	assert.Nil(t, got.OppHealth)
}

func TestUpsertReplacesOnKeyCollision(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := fullRecord("g1", 1)
	require.NoError(t, repo.UpsertBatch(ctx, []domain.Record{first, fullRecord("g1", 2)}))

	replacement := fullRecord("g1", 1)
	replacement.YourScore = 5000
	replacement.GameWon = nil
	require.NoError(t, repo.UpsertBatch(ctx, []domain.Record{replacement}))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, 5000, loaded[0].YourScore)
	assert.Nil(t, loaded[0].GameWon)
	assert.Equal(t, 2, loaded[1].RoundNumber)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpsertEmptyBatchIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, nil))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestGameIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, []domain.Record{
		fullRecord("g1", 1), fullRecord("g1", 2), fullRecord("g2", 1),
	}))

	ids, err := repo.GameIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"g1": {}, "g2": {}}, ids)
}

func TestLoadAllOrdersByDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	late := fullRecord("late", 1)
	lateDate := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	late.Date = &lateDate
	early := fullRecord("early", 1)

	require.NoError(t, repo.UpsertBatch(ctx, []domain.Record{late, early}))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "early", loaded[0].GameID)
	assert.Equal(t, "late", loaded[1].GameID)
}

func TestLoadAllEmptyTable(t *testing.T) {
	repo := newTestRepo(t)

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.NotNil(t, loaded)
}
