package domain

import (
	"time"
)

// PlayerInfo identifies the authenticated account for one sync session.
type PlayerInfo struct {
	ID   string `json:"id"`
	Nick string `json:"nick"`
}

// RoundResult is one scored round within a duel.
type RoundResult struct {
	RoundNumber      int
	Country          string
	CountryCode      string
	Latitude         float64
	Longitude        float64
	DamageMultiplier *float64

	// Own guess. Zero values when no guess was made.
	YourLat        float64
	YourLng        float64
	YourDistanceKm float64
	YourScore      int

	// Opponent guess.
	OppLat        float64
	OppLng        float64
	OppDistanceKm float64
	OppScore      int
}

func (r *RoundResult) ScoreDifference() int {
	return r.YourScore - r.OppScore
}

func (r *RoundResult) RoundWon() bool {
	return r.YourScore > r.OppScore
}

// GameResult is one processed duel. Optional fields are pointers so that
// "missing" stays distinguishable from a real zero (a 0 rating is a
// placement sentinel, not a rating).
type GameResult struct {
	GameID   string
	Date     *time.Time
	MapName  string
	GameMode string

	Moving   bool
	Zooming  bool
	Rotating bool

	OpponentID      string
	OpponentCountry string
	YourRating      *float64
	OpponentRating  *float64

	// GameWon is nil for ties, incomplete games, or missing health data.
	GameWon    *bool
	YourHealth *float64
	OppHealth  *float64

	Rounds []RoundResult
}

// Record is the denormalized join of a game's match-level fields with one
// of its rounds. (GameID, RoundNumber) is the cache primary key.
type Record struct {
	GameID           string     `json:"gameId"`
	Date             *time.Time `json:"date"`
	RoundNumber      int        `json:"roundNumber"`
	Country          string     `json:"country"`
	CountryCode      string     `json:"countryCode"`
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	DamageMultiplier *float64   `json:"damageMultiplier"`
	MapName          string     `json:"mapName"`
	GameMode         string     `json:"gameMode"`
	Moving           bool       `json:"moving"`
	Zooming          bool       `json:"zooming"`
	Rotating         bool       `json:"rotating"`
	OpponentID       string     `json:"opponentId"`
	OpponentCountry  string     `json:"opponentCountry"`
	YourRating       *float64   `json:"yourRating"`
	OpponentRating   *float64   `json:"opponentRating"`
	YourLat          float64    `json:"yourLat"`
	YourLng          float64    `json:"yourLng"`
	YourDistanceKm   float64    `json:"yourDistanceKm"`
	YourScore        int        `json:"yourScore"`
	OppLat           float64    `json:"oppLat"`
	OppLng           float64    `json:"oppLng"`
	OppDistanceKm    float64    `json:"oppDistanceKm"`
	OppScore         int        `json:"oppScore"`
	GameWon          *bool      `json:"gameWon"`
	YourHealth       *float64   `json:"yourHealth"`
	OppHealth        *float64   `json:"oppHealth"`
}

func (r *Record) ScoreDifference() int {
	return r.YourScore - r.OppScore
}

func (r *Record) RoundWon() bool {
	return r.YourScore > r.OppScore
}

// Flatten expands the game into one Record per round.
func (g *GameResult) Flatten() []Record {
	records := make([]Record, 0, len(g.Rounds))
	for _, rnd := range g.Rounds {
		records = append(records, Record{
			GameID:           g.GameID,
			Date:             g.Date,
			RoundNumber:      rnd.RoundNumber,
			Country:          rnd.Country,
			CountryCode:      rnd.CountryCode,
			Latitude:         rnd.Latitude,
			Longitude:        rnd.Longitude,
			DamageMultiplier: rnd.DamageMultiplier,
			MapName:          g.MapName,
			GameMode:         g.GameMode,
			Moving:           g.Moving,
			Zooming:          g.Zooming,
			Rotating:         g.Rotating,
			OpponentID:       g.OpponentID,
			OpponentCountry:  g.OpponentCountry,
			YourRating:       g.YourRating,
			OpponentRating:   g.OpponentRating,
			YourLat:          rnd.YourLat,
			YourLng:          rnd.YourLng,
			YourDistanceKm:   rnd.YourDistanceKm,
			YourScore:        rnd.YourScore,
			OppLat:           rnd.OppLat,
			OppLng:           rnd.OppLng,
			OppDistanceKm:    rnd.OppDistanceKm,
			OppScore:         rnd.OppScore,
			GameWon:          g.GameWon,
			YourHealth:       g.YourHealth,
			OppHealth:        g.OppHealth,
		})
	}
	return records
}
