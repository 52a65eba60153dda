//go:build wireinject
// +build wireinject

package di

import (
	"context"

	commandhandlers "foodiary/application/commands/handlers"
	"foodiary/application/ports"
	queryhandlers "foodiary/application/queries/handlers"
	"foodiary/application/sagas"
	"foodiary/domain/services"
	"foodiary/infrastructure/config"
	"foodiary/infrastructure/persistence/dynamodb"
	"foodiary/pkg/observability"

	"github.com/google/wire"
)

// InfrastructureSet provides clients, the store and the adapters
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideTracer,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideCognitoClient,
	ProvideS3PresignClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideMetrics,
	ProvideDomainConfig,
	ProvideStore,
	ProvideAuthGateway,
	ProvideMealsFileStorage,
	ProvideEventPublisher,
)

// RepositorySet provides repositories and read models
var RepositorySet = wire.NewSet(
	ProvideAccountRepository,
	dynamodb.NewProfileRepository,
	dynamodb.NewGoalRepository,
	dynamodb.NewMealRepository,
	dynamodb.NewSignUpUnitOfWork,
	dynamodb.NewGetProfileAndGoalQuery,
	ProvideListMealsByDateQuery,
	wire.Bind(new(ports.AccountRepository), new(*dynamodb.AccountRepository)),
	wire.Bind(new(ports.ProfileRepository), new(*dynamodb.ProfileRepository)),
	wire.Bind(new(ports.GoalRepository), new(*dynamodb.GoalRepository)),
	wire.Bind(new(ports.MealRepository), new(*dynamodb.MealRepository)),
	wire.Bind(new(ports.SignUpUnitOfWork), new(*dynamodb.SignUpUnitOfWork)),
	wire.Bind(new(ports.ProfileAndGoalReader), new(*dynamodb.GetProfileAndGoalQuery)),
	wire.Bind(new(ports.MealsByDateReader), new(*dynamodb.ListMealsByDateQuery)),
)

// ApplicationSet provides command and query handlers
var ApplicationSet = wire.NewSet(
	services.NewGoalCalculator,
	commandhandlers.NewSignUpHandler,
	commandhandlers.NewAuthHandler,
	commandhandlers.NewUpdateProfileHandler,
	commandhandlers.NewUpdateGoalHandler,
	commandhandlers.NewCreateMealHandler,
	commandhandlers.NewMarkMealQueuedHandler,
	queryhandlers.NewGetMeHandler,
	queryhandlers.NewGetMealHandler,
	queryhandlers.NewListMealsByDateHandler,
	wire.Bind(new(sagas.CompensationRecorder), new(*observability.Metrics)),
	wire.Bind(new(ports.MetricsRecorder), new(*observability.Metrics)),
)

// HTTPSet provides the buses and the router
var HTTPSet = wire.NewSet(
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideErrorHandler,
	ProvideAuthenticator,
	ProvideRateLimiter,
	ProvideRouter,
	ProvideHTTPHandler,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	RepositorySet,
	ApplicationSet,
	HTTPSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
