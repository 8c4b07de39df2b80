package analytics

import (
	"sort"

	"duels-tracker/internal/domain"
)

// reduceToGames collapses the round table to one row per game, taking the
// first row of each game after a stable date sort. Match-level fields are
// constant across a game's rounds, so "first" is the honest reduction;
// averaging a repeated constant happens to give the same number but is
// wrong for anything that actually varies per round. Rows without a date
// sort before dated rows.
func reduceToGames(table []domain.Record) []domain.Record {
	sorted := make([]domain.Record, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i].Date, sorted[j].Date
		if di == nil {
			return dj != nil
		}
		if dj == nil {
			return false
		}
		return di.Before(*dj)
	})

	seen := make(map[string]struct{}, len(sorted))
	var games []domain.Record
	for i := range sorted {
		if _, ok := seen[sorted[i].GameID]; ok {
			continue
		}
		seen[sorted[i].GameID] = struct{}{}
		games = append(games, sorted[i])
	}
	return games
}

// GameWinRate is the percentage of decided games won. Games without an
// outcome are excluded from both sides of the ratio, never counted as
// losses.
func GameWinRate(table []domain.Record) float64 {
	wins, decided := 0, 0
	for _, g := range reduceToGames(table) {
		if g.GameWon == nil {
			continue
		}
		decided++
		if *g.GameWon {
			wins++
		}
	}
	if decided == 0 {
		return 0
	}
	return float64(wins) / float64(decided) * 100
}

// StreakSummary describes the current and longest runs over the
// date-ordered game outcome sequence.
type StreakSummary struct {
	Current     int    `json:"current"`
	CurrentType string `json:"currentType"`
	LongestWin  int    `json:"longestWin"`
	LongestLoss int    `json:"longestLoss"`
}

// Streaks drops undecided games and measures runs of identical outcomes.
// Zero decided games is a valid input with a defined "no streak" answer.
func Streaks(table []domain.Record) StreakSummary {
	var outcomes []bool
	for _, g := range reduceToGames(table) {
		if g.GameWon != nil {
			outcomes = append(outcomes, *g.GameWon)
		}
	}
	if len(outcomes) == 0 {
		return StreakSummary{CurrentType: "N/A"}
	}

	latest := outcomes[len(outcomes)-1]
	current := 0
	for i := len(outcomes) - 1; i >= 0 && outcomes[i] == latest; i-- {
		current++
	}

	summary := StreakSummary{Current: current, CurrentType: "Loss"}
	if latest {
		summary.CurrentType = "Win"
	}

	run := 0
	var prev *bool
	for i := range outcomes {
		if prev != nil && outcomes[i] == *prev {
			run++
		} else {
			run = 1
			prev = &outcomes[i]
		}
		if outcomes[i] {
			if run > summary.LongestWin {
				summary.LongestWin = run
			}
		} else if run > summary.LongestLoss {
			summary.LongestLoss = run
		}
	}
	return summary
}

// HeadToHead is the record against one repeat opponent. Games with no
// outcome still count as played but as neither win nor loss, so Wins +
// Losses can be less than Games.
type HeadToHead struct {
	OpponentID      string  `json:"opponentId"`
	OpponentCountry string  `json:"opponentCountry"`
	Games           int     `json:"games"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	AvgScore        float64 `json:"avgScore"`
	AvgOppScore     float64 `json:"avgOppScore"`
}

// HeadToHeads keeps only opponents faced more than once, most-played
// first. Scores are per-game totals averaged across the games.
func HeadToHeads(table []domain.Record) []HeadToHead {
	type gameAgg struct {
		opponentID      string
		opponentCountry string
		gameWon         *bool
		score, oppScore int
	}

	perGame := make(map[string]*gameAgg)
	var order []string
	for i := range table {
		r := &table[i]
		g, ok := perGame[r.GameID]
		if !ok {
			g = &gameAgg{
				opponentID:      r.OpponentID,
				opponentCountry: r.OpponentCountry,
				gameWon:         r.GameWon,
			}
			perGame[r.GameID] = g
			order = append(order, r.GameID)
		}
		g.score += r.YourScore
		g.oppScore += r.OppScore
	}

	type oppAgg struct {
		country         string
		games, wins     int
		losses          int
		score, oppScore float64
	}
	perOpp := make(map[string]*oppAgg)
	for _, id := range order {
		g := perGame[id]
		o, ok := perOpp[g.opponentID]
		if !ok {
			o = &oppAgg{country: g.opponentCountry}
			perOpp[g.opponentID] = o
		}
		o.games++
		if g.gameWon != nil && *g.gameWon {
			o.wins++
		}
		o.score += float64(g.score)
		o.oppScore += float64(g.oppScore)
	}

	var results []HeadToHead
	for id, o := range perOpp {
		if o.games <= 1 {
			continue
		}
		results = append(results, HeadToHead{
			OpponentID:      id,
			OpponentCountry: o.country,
			Games:           o.games,
			Wins:            o.wins,
			Losses:          o.games - o.wins,
			AvgScore:        o.score / float64(o.games),
			AvgOppScore:     o.oppScore / float64(o.games),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Games != results[j].Games {
			return results[i].Games > results[j].Games
		}
		return results[i].OpponentID < results[j].OpponentID
	})
	return results
}
