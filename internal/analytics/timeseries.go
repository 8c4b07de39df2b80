package analytics

import (
	"sort"
	"time"

	"duels-tracker/internal/domain"
)

// Period is a time-binning granularity.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Truncate maps a timestamp to the start of its period in UTC. Weeks
// start on Monday.
func (p Period) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch p {
	case PeriodWeek:
		weekday := (int(t.Weekday()) + 6) % 7
		day := t.AddDate(0, 0, -weekday)
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// RatingPoint is one game on the rating timeline.
type RatingPoint struct {
	Date           *time.Time `json:"date"`
	GameID         string     `json:"gameId"`
	YourRating     float64    `json:"yourRating"`
	OpponentRating *float64   `json:"opponentRating"`
	GameWon        *bool      `json:"gameWon"`
}

// RatingHistory is one point per game in date order, dropping games
// without a rating.
func RatingHistory(table []domain.Record) []RatingPoint {
	var points []RatingPoint
	for _, g := range reduceToGames(table) {
		if g.YourRating == nil {
			continue
		}
		points = append(points, RatingPoint{
			Date:           g.Date,
			GameID:         g.GameID,
			YourRating:     *g.YourRating,
			OpponentRating: g.OpponentRating,
			GameWon:        g.GameWon,
		})
	}
	return points
}

// RatingChange is the rating delta against the previous rated game.
type RatingChange struct {
	Date    *time.Time `json:"date"`
	GameID  string     `json:"gameId"`
	Rating  float64    `json:"rating"`
	Change  float64    `json:"change"`
	GameWon *bool      `json:"gameWon"`
}

// RatingChanges is the successive difference over the rating history. The
// first rated game has nothing to diff against and is excluded.
func RatingChanges(table []domain.Record) []RatingChange {
	history := RatingHistory(table)
	if len(history) < 2 {
		return nil
	}

	changes := make([]RatingChange, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		changes = append(changes, RatingChange{
			Date:    history[i].Date,
			GameID:  history[i].GameID,
			Rating:  history[i].YourRating,
			Change:  history[i].YourRating - history[i-1].YourRating,
			GameWon: history[i].GameWon,
		})
	}
	return changes
}

// PeriodValue is one time bucket of an averaged metric.
type PeriodValue struct {
	Period time.Time `json:"period"`
	Value  float64   `json:"value"`
}

// BinnedMetric averages a per-row metric per period. The selector returns
// ok=false to exclude a row (a nil rating, say) so missing values never
// bias the mean. Rows without a date are skipped.
func BinnedMetric(table []domain.Record, period Period, metric func(*domain.Record) (float64, bool)) []PeriodValue {
	type acc struct {
		sum   float64
		count int
	}
	bins := make(map[time.Time]*acc)
	for i := range table {
		r := &table[i]
		if r.Date == nil {
			continue
		}
		v, ok := metric(r)
		if !ok {
			continue
		}
		bucket := period.Truncate(*r.Date)
		a, found := bins[bucket]
		if !found {
			a = &acc{}
			bins[bucket] = a
		}
		a.sum += v
		a.count++
	}

	values := make([]PeriodValue, 0, len(bins))
	for bucket, a := range bins {
		values = append(values, PeriodValue{Period: bucket, Value: a.sum / float64(a.count)})
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Period.Before(values[j].Period) })
	return values
}

// PeriodCount is one time bucket of a distinct-game count.
type PeriodCount struct {
	Period time.Time `json:"period"`
	Games  int       `json:"games"`
}

// GamesPerPeriod counts distinct games per bucket. Each game contributes
// several round rows, so this counts unique game ids, not rows.
func GamesPerPeriod(table []domain.Record, period Period) []PeriodCount {
	bins := make(map[time.Time]map[string]struct{})
	for i := range table {
		r := &table[i]
		if r.Date == nil {
			continue
		}
		bucket := period.Truncate(*r.Date)
		if bins[bucket] == nil {
			bins[bucket] = make(map[string]struct{})
		}
		bins[bucket][r.GameID] = struct{}{}
	}

	counts := make([]PeriodCount, 0, len(bins))
	for bucket, ids := range bins {
		counts = append(counts, PeriodCount{Period: bucket, Games: len(ids)})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Period.Before(counts[j].Period) })
	return counts
}
