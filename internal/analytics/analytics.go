// Package analytics computes read-only aggregates over a snapshot of the
// flat round table. Every function treats an empty table as valid input
// and returns a defined zero result.
package analytics

import (
	"sort"

	"duels-tracker/internal/domain"
)

// GroupStats is one row of a per-key aggregate.
type GroupStats struct {
	Key           string  `json:"key"`
	Rounds        int     `json:"rounds"`
	AvgScore      float64 `json:"avgScore"`
	AvgOppScore   float64 `json:"avgOppScore"`
	AvgScoreDiff  float64 `json:"avgScoreDiff"`
	AvgDistanceKm float64 `json:"avgDistanceKm"`
	// WinRate is the round win percentage, 0-100.
	WinRate float64 `json:"winRate"`
}

// StatsByCountry aggregates rounds by panorama country, most played
// first. Key cardinality is unbounded; minimum-sample filtering is the
// caller's concern.
func StatsByCountry(table []domain.Record) []GroupStats {
	return groupBy(table, func(r *domain.Record) string { return r.Country })
}

// StatsByOpponentCountry aggregates rounds by the opponent's country.
func StatsByOpponentCountry(table []domain.Record) []GroupStats {
	return groupBy(table, func(r *domain.Record) string { return r.OpponentCountry })
}

// RoundStats is the per-round-number aggregate (rounds 1-5 in a normal
// duel, but nothing assumes that).
type RoundStats struct {
	RoundNumber   int     `json:"roundNumber"`
	Count         int     `json:"count"`
	AvgScore      float64 `json:"avgScore"`
	AvgOppScore   float64 `json:"avgOppScore"`
	AvgScoreDiff  float64 `json:"avgScoreDiff"`
	AvgDistanceKm float64 `json:"avgDistanceKm"`
	WinRate       float64 `json:"winRate"`
}

func StatsByRound(table []domain.Record) []RoundStats {
	type acc struct {
		count                       int
		score, oppScore, diff, dist float64
		wins                        int
	}
	groups := make(map[int]*acc)
	for i := range table {
		r := &table[i]
		a, ok := groups[r.RoundNumber]
		if !ok {
			a = &acc{}
			groups[r.RoundNumber] = a
		}
		a.count++
		a.score += float64(r.YourScore)
		a.oppScore += float64(r.OppScore)
		a.diff += float64(r.ScoreDifference())
		a.dist += r.YourDistanceKm
		if r.RoundWon() {
			a.wins++
		}
	}

	stats := make([]RoundStats, 0, len(groups))
	for num, a := range groups {
		n := float64(a.count)
		stats = append(stats, RoundStats{
			RoundNumber:   num,
			Count:         a.count,
			AvgScore:      a.score / n,
			AvgOppScore:   a.oppScore / n,
			AvgScoreDiff:  a.diff / n,
			AvgDistanceKm: a.dist / n,
			WinRate:       float64(a.wins) / n * 100,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].RoundNumber < stats[j].RoundNumber })
	return stats
}

func groupBy(table []domain.Record, key func(*domain.Record) string) []GroupStats {
	type acc struct {
		count                       int
		score, oppScore, diff, dist float64
		wins                        int
	}
	groups := make(map[string]*acc)
	for i := range table {
		r := &table[i]
		k := key(r)
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.count++
		a.score += float64(r.YourScore)
		a.oppScore += float64(r.OppScore)
		a.diff += float64(r.ScoreDifference())
		a.dist += r.YourDistanceKm
		if r.RoundWon() {
			a.wins++
		}
	}

	stats := make([]GroupStats, 0, len(groups))
	for k, a := range groups {
		n := float64(a.count)
		stats = append(stats, GroupStats{
			Key:           k,
			Rounds:        a.count,
			AvgScore:      a.score / n,
			AvgOppScore:   a.oppScore / n,
			AvgScoreDiff:  a.diff / n,
			AvgDistanceKm: a.dist / n,
			WinRate:       float64(a.wins) / n * 100,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Rounds != stats[j].Rounds {
			return stats[i].Rounds > stats[j].Rounds
		}
		return stats[i].Key < stats[j].Key
	})
	return stats
}

// Overview is the headline metric card set.
type Overview struct {
	TotalGames    int     `json:"totalGames"`
	CurrentRating float64 `json:"currentRating"`
	RoundWinRate  float64 `json:"roundWinRate"`
	GameWinRate   float64 `json:"gameWinRate"`
	AvgScore      float64 `json:"avgScore"`
	AvgDistanceKm float64 `json:"avgDistanceKm"`
}

func GetOverview(table []domain.Record) Overview {
	if len(table) == 0 {
		return Overview{}
	}

	games := reduceToGames(table)

	// Current rating is the latest non-nil one.
	currentRating := 0.0
	for i := len(games) - 1; i >= 0; i-- {
		if games[i].YourRating != nil {
			currentRating = *games[i].YourRating
			break
		}
	}

	var score, dist float64
	wins := 0
	for i := range table {
		score += float64(table[i].YourScore)
		dist += table[i].YourDistanceKm
		if table[i].RoundWon() {
			wins++
		}
	}
	n := float64(len(table))

	return Overview{
		TotalGames:    len(games),
		CurrentRating: currentRating,
		RoundWinRate:  float64(wins) / n * 100,
		GameWinRate:   GameWinRate(table),
		AvgScore:      score / n,
		AvgDistanceKm: dist / n,
	}
}
