// Package processor turns raw feed and game payloads into domain objects.
// Both entry points are pure functions so the sync loop can call them on
// anything the remote returns without extra coordination.
package processor

import (
	"encoding/json"
	"strings"

	"duels-tracker/internal/api"
	"duels-tracker/internal/countries"
	"duels-tracker/internal/domain"
)

// duelPayload is the slice of a feed payload that identifies a
// competitive duel. CompetitiveGameMode stays a RawMessage because the
// predicate is "field present", not "field truthy".
type duelPayload struct {
	GameMode            string          `json:"gameMode"`
	CompetitiveGameMode json.RawMessage `json:"competitiveGameMode"`
	GameID              string          `json:"gameId"`
}

type wrappedPayload struct {
	Payload *duelPayload `json:"payload"`
}

func (p *duelPayload) isCompetitiveDuel() bool {
	return p.GameMode == "Duels" && p.CompetitiveGameMode != nil
}

// ExtractDuelTokens filters feed entries down to competitive duel game
// ids, in feed order. Malformed payloads are skipped, never fatal. The
// feed batches some events as a list of wrapped payloads; both the
// single-object and batched shapes are accepted. A limit of 0 means
// unlimited; otherwise extraction stops once limit tokens are collected.
func ExtractDuelTokens(entries []api.FeedEntry, limit int) []string {
	var tokens []string
	for _, entry := range entries {
		if entry.Payload == "" {
			continue
		}

		raw := strings.TrimSpace(entry.Payload)
		switch {
		case strings.HasPrefix(raw, "{"):
			var payload duelPayload
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				continue
			}
			if payload.isCompetitiveDuel() {
				tokens = append(tokens, payload.GameID)
			}
		case strings.HasPrefix(raw, "["):
			var batch []wrappedPayload
			if err := json.Unmarshal([]byte(raw), &batch); err != nil {
				continue
			}
			for _, item := range batch {
				if item.Payload != nil && item.Payload.isCompetitiveDuel() {
					tokens = append(tokens, item.Payload.GameID)
					if limit > 0 && len(tokens) == limit {
						return tokens
					}
				}
			}
		}

		if limit > 0 && len(tokens) >= limit {
			return tokens[:limit]
		}
	}
	return tokens
}

// ProcessGame converts one raw duel into a GameResult. It returns nil for
// structurally invalid payloads (missing gameId, fewer than two teams, a
// team without players) so a batch sync can skip them without aborting.
func ProcessGame(game *api.Game, myPlayerID string, lookup *countries.Lookup) *domain.GameResult {
	if game == nil || game.GameID == "" || len(game.Teams) < 2 {
		return nil
	}
	if len(game.Teams[0].Players) == 0 || len(game.Teams[1].Players) == 0 {
		return nil
	}

	myIdx := 0
	if game.Teams[0].Players[0].PlayerID != myPlayerID {
		myIdx = 1
	}
	myTeam := &game.Teams[myIdx]
	oppTeam := &game.Teams[1-myIdx]

	result := &domain.GameResult{
		GameID:          game.GameID,
		MapName:         "Unknown",
		GameMode:        "Unknown",
		Moving:          !game.Options.MovementOptions.ForbidMoving,
		Zooming:         !game.Options.MovementOptions.ForbidZooming,
		Rotating:        !game.Options.MovementOptions.ForbidRotating,
		OpponentID:      oppTeam.Players[0].PlayerID,
		OpponentCountry: lookup.Name(oppTeam.Players[0].CountryCode),
		YourRating:      extractRating(myTeam),
		OpponentRating:  extractRating(oppTeam),
		GameWon:         deriveOutcome(myTeam.Health, oppTeam.Health),
		YourHealth:      myTeam.Health,
		OppHealth:       oppTeam.Health,
	}

	if game.Options.Map.Name != "" {
		result.MapName = game.Options.Map.Name
	}
	if game.Options.CompetitiveGameMode != "" {
		result.GameMode = game.Options.CompetitiveGameMode
	}

	// The match date is the start of round 0, not the feed event time.
	if len(game.Rounds) > 0 {
		result.Date = game.Rounds[0].StartTime
	}

	// currentRoundNumber can overshoot the rounds actually present.
	bound := game.CurrentRoundNumber
	if bound > len(game.Rounds) {
		bound = len(game.Rounds)
	}

	for i := 0; i < bound; i++ {
		rnd := &game.Rounds[i]

		round := domain.RoundResult{
			RoundNumber:      rnd.RoundNumber,
			Country:          lookup.Name(rnd.Panorama.CountryCode),
			CountryCode:      rnd.Panorama.CountryCode,
			Latitude:         rnd.Panorama.Lat,
			Longitude:        rnd.Panorama.Lng,
			DamageMultiplier: rnd.DamageMultiplier,
		}

		// Guesses are not index-aligned with rounds; a player who never
		// guessed scores 0 for the round.
		if g := findGuess(myTeam, rnd.RoundNumber); g != nil {
			round.YourLat = g.Lat
			round.YourLng = g.Lng
			round.YourDistanceKm = g.Distance / 1000.0
			round.YourScore = g.Score
		}
		if g := findGuess(oppTeam, rnd.RoundNumber); g != nil {
			round.OppLat = g.Lat
			round.OppLng = g.Lng
			round.OppDistanceKm = g.Distance / 1000.0
			round.OppScore = g.Score
		}

		result.Rounds = append(result.Rounds, round)
	}

	return result
}

// extractRating walks the progression fields most-specific first. The raw
// rating field is only trusted when nonzero: zero marks a placement-phase
// player, not a real rating. nil means missing and must stay missing so
// averages downstream are not dragged toward zero.
func extractRating(team *api.Team) *float64 {
	player := &team.Players[0]
	if pc := player.ProgressChange; pc != nil {
		if pc.CompetitiveProgress != nil && pc.CompetitiveProgress.RatingAfter != nil {
			return pc.CompetitiveProgress.RatingAfter
		}
		if pc.RankedSystemProgress != nil && pc.RankedSystemProgress.RatingAfter != nil {
			return pc.RankedSystemProgress.RatingAfter
		}
	}
	if player.Rating != nil && *player.Rating != 0 {
		return player.Rating
	}
	return nil
}

// deriveOutcome decides the duel from health alone: won iff my health is
// positive and the opponent's is not. Ties, incomplete games and missing
// health all stay nil, never false.
func deriveOutcome(myHealth, oppHealth *float64) *bool {
	if myHealth == nil || oppHealth == nil {
		return nil
	}
	if *myHealth > 0 && *oppHealth <= 0 {
		won := true
		return &won
	}
	if *oppHealth > 0 && *myHealth <= 0 {
		won := false
		return &won
	}
	return nil
}

func findGuess(team *api.Team, roundNumber int) *api.Guess {
	for i := range team.Players[0].Guesses {
		if team.Players[0].Guesses[i].RoundNumber == roundNumber {
			return &team.Players[0].Guesses[i]
		}
	}
	return nil
}
