package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"duels-tracker/internal/constants"
	"duels-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// Dates round-trip through TEXT columns in this exact form so a loaded
// record compares equal to the one that was saved.
const dateFormat = time.RFC3339Nano

// RoundRepository persists the flat round table. The primary key
// (game_id, round_number) makes every write an idempotent upsert, which
// is the whole merge-dedup discipline: replaying a game can only replace
// its own rows.
type RoundRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRoundRepository(db *sql.DB, logger zerolog.Logger) *RoundRepository {
	return &RoundRepository{db: db, logger: logger}
}

const upsertRoundSQL = `
	INSERT INTO rounds (
		game_id, round_number, date, country, country_code,
		latitude, longitude, damage_multiplier, map_name, game_mode,
		moving, zooming, rotating, opponent_id, opponent_country,
		your_rating, opponent_rating,
		your_lat, your_lng, your_distance_km, your_score,
		opp_lat, opp_lng, opp_distance_km, opp_score,
		game_won, your_health, opp_health
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (game_id, round_number) DO UPDATE SET
		date = excluded.date,
		country = excluded.country,
		country_code = excluded.country_code,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		damage_multiplier = excluded.damage_multiplier,
		map_name = excluded.map_name,
		game_mode = excluded.game_mode,
		moving = excluded.moving,
		zooming = excluded.zooming,
		rotating = excluded.rotating,
		opponent_id = excluded.opponent_id,
		opponent_country = excluded.opponent_country,
		your_rating = excluded.your_rating,
		opponent_rating = excluded.opponent_rating,
		your_lat = excluded.your_lat,
		your_lng = excluded.your_lng,
		your_distance_km = excluded.your_distance_km,
		your_score = excluded.your_score,
		opp_lat = excluded.opp_lat,
		opp_lng = excluded.opp_lng,
		opp_distance_km = excluded.opp_distance_km,
		opp_score = excluded.opp_score,
		game_won = excluded.game_won,
		your_health = excluded.your_health,
		opp_health = excluded.opp_health`

// UpsertBatch writes records in one transaction so a failed sync never
// leaves a partially merged table.
func (r *RoundRepository) UpsertBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertRoundSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < len(records); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(records) {
			end = len(records)
		}
		for _, rec := range records[i:end] {
			if _, err := stmt.ExecContext(ctx,
				rec.GameID, rec.RoundNumber, formatDate(rec.Date), rec.Country, rec.CountryCode,
				rec.Latitude, rec.Longitude, rec.DamageMultiplier, rec.MapName, rec.GameMode,
				rec.Moving, rec.Zooming, rec.Rotating, rec.OpponentID, rec.OpponentCountry,
				rec.YourRating, rec.OpponentRating,
				rec.YourLat, rec.YourLng, rec.YourDistanceKm, rec.YourScore,
				rec.OppLat, rec.OppLng, rec.OppDistanceKm, rec.OppScore,
				rec.GameWon, rec.YourHealth, rec.OppHealth,
			); err != nil {
				return fmt.Errorf("failed to upsert round %s/%d: %w", rec.GameID, rec.RoundNumber, err)
			}
		}
	}

	r.logger.Debug().Int("records", len(records)).Msg("round batch upserted")
	return tx.Commit()
}

// LoadAll returns the whole table. Insertion order carries no meaning, so
// rows come back in a stable date order for convenience.
func (r *RoundRepository) LoadAll(ctx context.Context) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT game_id, round_number, date, country, country_code,
			latitude, longitude, damage_multiplier, map_name, game_mode,
			moving, zooming, rotating, opponent_id, opponent_country,
			your_rating, opponent_rating,
			your_lat, your_lng, your_distance_km, your_score,
			opp_lat, opp_lng, opp_distance_km, opp_score,
			game_won, your_health, opp_health
		FROM rounds
		ORDER BY date, game_id, round_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GameIDs returns the distinct cached game ids, for diffing against the
// remote token list.
func (r *RoundRepository) GameIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT game_id FROM rounds")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (r *RoundRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rounds").Scan(&count)
	return count, err
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateFormat)
}

func scanRecord(rows *sql.Rows) (domain.Record, error) {
	var rec domain.Record
	var date sql.NullString
	var dmgMult, yourRating, oppRating, yourHealth, oppHealth sql.NullFloat64
	var gameWon sql.NullBool

	if err := rows.Scan(
		&rec.GameID, &rec.RoundNumber, &date, &rec.Country, &rec.CountryCode,
		&rec.Latitude, &rec.Longitude, &dmgMult, &rec.MapName, &rec.GameMode,
		&rec.Moving, &rec.Zooming, &rec.Rotating, &rec.OpponentID, &rec.OpponentCountry,
		&yourRating, &oppRating,
		&rec.YourLat, &rec.YourLng, &rec.YourDistanceKm, &rec.YourScore,
		&rec.OppLat, &rec.OppLng, &rec.OppDistanceKm, &rec.OppScore,
		&gameWon, &yourHealth, &oppHealth,
	); err != nil {
		return rec, err
	}

	if date.Valid {
		t, err := time.Parse(dateFormat, date.String)
		if err != nil {
			return rec, fmt.Errorf("failed to parse cached date %q: %w", date.String, err)
		}
		rec.Date = &t
	}
	if dmgMult.Valid {
		rec.DamageMultiplier = &dmgMult.Float64
	}
	if yourRating.Valid {
		rec.YourRating = &yourRating.Float64
	}
	if oppRating.Valid {
		rec.OpponentRating = &oppRating.Float64
	}
	if gameWon.Valid {
		rec.GameWon = &gameWon.Bool
	}
	if yourHealth.Valid {
		rec.YourHealth = &yourHealth.Float64
	}
	if oppHealth.Valid {
		rec.OppHealth = &oppHealth.Float64
	}
	return rec, nil
}
