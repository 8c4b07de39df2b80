package analytics

import (
	"testing"
	"time"

	"duels-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodTruncate(t *testing.T) {
	// 2024-01-17 is a Wednesday; its week starts Monday the 15th.
	ts := time.Date(2024, time.January, 17, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), PeriodWeek.Truncate(ts))
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), PeriodMonth.Truncate(ts))
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), PeriodYear.Truncate(ts))

	// Sunday belongs to the week of the previous Monday.
	sunday := time.Date(2024, time.January, 21, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), PeriodWeek.Truncate(sunday))
}

func TestRatingHistory(t *testing.T) {
	table := rows(
		gameSpec{id: "g2", date: day(8), opponent: "x", rating: nil, rounds: []roundSpec{{country: "A", score: 1, oppScore: 0}}},
		gameSpec{id: "g1", date: day(1), opponent: "x", rating: f64(1200), won: boolPtr(true), rounds: []roundSpec{
			{country: "A", score: 1, oppScore: 0},
			{country: "B", score: 1, oppScore: 0},
		}},
		gameSpec{id: "g3", date: day(15), opponent: "y", rating: f64(1300), won: boolPtr(false), rounds: []roundSpec{{country: "C", score: 1, oppScore: 0}}},
	)

	history := RatingHistory(table)
	require.Len(t, history, 2) // g2 has no rating and is dropped

	assert.Equal(t, "g1", history[0].GameID)
	assert.Equal(t, 1200.0, history[0].YourRating)
	assert.Equal(t, "g3", history[1].GameID)
	assert.Equal(t, 1300.0, history[1].YourRating)
}

func TestRatingChanges(t *testing.T) {
	table := rows(
		gameSpec{id: "g1", date: day(1), opponent: "x", rating: f64(1200), rounds: []roundSpec{{country: "A", score: 1, oppScore: 0}}},
		gameSpec{id: "g2", date: day(2), opponent: "x", rating: nil, rounds: []roundSpec{{country: "B", score: 1, oppScore: 0}}},
		gameSpec{id: "g3", date: day(3), opponent: "x", rating: f64(1250), rounds: []roundSpec{{country: "C", score: 1, oppScore: 0}}},
		gameSpec{id: "g4", date: day(4), opponent: "x", rating: f64(1230), rounds: []roundSpec{{country: "D", score: 1, oppScore: 0}}},
	)

	changes := RatingChanges(table)
	require.Len(t, changes, 2)

	// The unrated g2 is invisible: g3 diffs against g1.
	assert.Equal(t, "g3", changes[0].GameID)
	assert.Equal(t, 50.0, changes[0].Change)
	assert.Equal(t, "g4", changes[1].GameID)
	assert.Equal(t, -20.0, changes[1].Change)
}

func TestRatingChangesNeedsTwoRatedGames(t *testing.T) {
	assert.Nil(t, RatingChanges(nil))

	table := rows(gameSpec{id: "g1", date: day(1), opponent: "x", rating: f64(1200), rounds: []roundSpec{{country: "A", score: 1, oppScore: 0}}})
	assert.Nil(t, RatingChanges(table))
}

func TestGamesPerPeriod(t *testing.T) {
	table := rows(
		gameSpec{id: "g1", date: day(5), opponent: "x", rounds: []roundSpec{
			{country: "A", score: 1, oppScore: 0}, {country: "B", score: 1, oppScore: 0},
			{country: "C", score: 1, oppScore: 0}, {country: "D", score: 1, oppScore: 0},
			{country: "E", score: 1, oppScore: 0},
		}},
		gameSpec{id: "g2", date: day(20), opponent: "y", rounds: []roundSpec{
			{country: "A", score: 1, oppScore: 0}, {country: "B", score: 1, oppScore: 0},
			{country: "C", score: 1, oppScore: 0}, {country: "D", score: 1, oppScore: 0},
			{country: "E", score: 1, oppScore: 0},
		}},
		gameSpec{id: "g3", date: time.Date(2024, time.February, 2, 9, 0, 0, 0, time.UTC), opponent: "y", rounds: []roundSpec{
			{country: "A", score: 1, oppScore: 0},
		}},
	)

	counts := GamesPerPeriod(table, PeriodMonth)
	require.Len(t, counts, 2)

	// Ten January rows collapse to two distinct games.
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), counts[0].Period)
	assert.Equal(t, 2, counts[0].Games)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), counts[1].Period)
	assert.Equal(t, 1, counts[1].Games)
}

func TestBinnedMetric(t *testing.T) {
	table := rows(
		gameSpec{id: "g1", date: day(3), opponent: "x", rounds: []roundSpec{
			{country: "A", score: 4000, oppScore: 0},
			{country: "B", score: 2000, oppScore: 0},
		}},
		gameSpec{id: "g2", date: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), opponent: "x", rounds: []roundSpec{
			{country: "C", score: 1000, oppScore: 0},
		}},
	)

	values := BinnedMetric(table, PeriodMonth, func(r *domain.Record) (float64, bool) {
		return float64(r.YourScore), true
	})
	require.Len(t, values, 2)
	assert.Equal(t, 3000.0, values[0].Value)
	assert.Equal(t, 1000.0, values[1].Value)
}

func TestBinnedMetricSkipsExcludedRows(t *testing.T) {
	table := rows(
		gameSpec{id: "g1", date: day(1), opponent: "x", rating: f64(1200), rounds: []roundSpec{{country: "A", score: 1, oppScore: 0}}},
		gameSpec{id: "g2", date: day(2), opponent: "x", rating: nil, rounds: []roundSpec{{country: "B", score: 1, oppScore: 0}}},
		gameSpec{id: "g3", date: day(3), opponent: "x", rating: f64(1300), rounds: []roundSpec{{country: "C", score: 1, oppScore: 0}}},
	)

	values := BinnedMetric(table, PeriodMonth, func(r *domain.Record) (float64, bool) {
		if r.YourRating == nil {
			return 0, false
		}
		return *r.YourRating, true
	})
	require.Len(t, values, 1)
	// The nil-rating row must not drag the mean toward zero.
	assert.Equal(t, 1250.0, values[0].Value)
}

func TestBinnedMetricSkipsUndatedRows(t *testing.T) {
	table := []domain.Record{{GameID: "g1", RoundNumber: 1, YourScore: 5000}}
	assert.Empty(t, BinnedMetric(table, PeriodMonth, func(r *domain.Record) (float64, bool) {
		return float64(r.YourScore), true
	}))
}
