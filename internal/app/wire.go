//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/explorespeak/internal/adapter/httpapi"
	adapterrepo "github.com/eslsoft/explorespeak/internal/adapter/repository"
	"github.com/eslsoft/explorespeak/internal/infrastructure/config"
	"github.com/eslsoft/explorespeak/internal/infrastructure/database"
	"github.com/eslsoft/explorespeak/internal/infrastructure/server"
	"github.com/eslsoft/explorespeak/internal/usecase"
)

var configSet = wire.NewSet(
	config.Load,
)

var databaseSet = wire.NewSet(
	database.NewConnection,
	wire.Bind(new(adapterrepo.DB), new(*pgxpool.Pool)),
)

var repositorySet = wire.NewSet(
	adapterrepo.NewCardRepository,
	adapterrepo.NewSessionRepository,
	adapterrepo.NewProfileRepository,
	adapterrepo.NewPerformanceRepository,
	adapterrepo.NewQuestRepository,
	adapterrepo.NewProgressRepository,
)

var usecaseSet = wire.NewSet(
	usecase.NewVocabularyUsecase,
	usecase.NewAdaptiveUsecase,
)

var apiSet = wire.NewSet(
	httpapi.NewAPI,
)

var serverSet = wire.NewSet(
	server.NewLogger,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		usecaseSet,
		apiSet,
		serverSet,
		wire.Struct(new(Container), "Logger", "Server", "Pool"),
	)
	return nil, nil, nil
}
