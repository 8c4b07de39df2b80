package fx

import (
	"database/sql"

	"duels-tracker/internal/api"
	"duels-tracker/internal/config"
	"duels-tracker/internal/countries"
	"duels-tracker/internal/database"
	"duels-tracker/internal/logger"
	"duels-tracker/internal/repository"
	"duels-tracker/internal/server"
	"duels-tracker/internal/service"
	"duels-tracker/internal/syncer"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideSyncer(client *api.GeoClient, repo *repository.RoundRepository, lookup *countries.Lookup, cfg *config.Config, log zerolog.Logger) *syncer.Syncer {
	return syncer.New(client, repo, lookup, cfg.SyncWorkers, log)
}

func ProvideRoundRepository(db *sql.DB, log zerolog.Logger) *repository.RoundRepository {
	return repository.NewRoundRepository(db, log)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(countries.New),
	// api client
	fx.Provide(api.NewGeoClient),
	// repo
	fx.Provide(ProvideRoundRepository),
	// sync + svc
	fx.Provide(ProvideSyncer),
	fx.Provide(service.NewTrackerService),
	// server
	fx.Provide(server.NewTrackerServer),
)
