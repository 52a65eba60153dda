package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"foodiary/application/commands"
	"foodiary/application/commands/bus"
	commandhandlers "foodiary/application/commands/handlers"
	"foodiary/application/ports"
	"foodiary/application/queries"
	querybus "foodiary/application/queries/bus"
	queryhandlers "foodiary/application/queries/handlers"
	domainconfig "foodiary/domain/config"
	"foodiary/infrastructure/auth/cognito"
	localauth "foodiary/infrastructure/auth/local"
	"foodiary/infrastructure/config"
	"foodiary/infrastructure/messaging/eventbridge"
	localmessaging "foodiary/infrastructure/messaging/local"
	"foodiary/infrastructure/persistence/abstractions"
	"foodiary/infrastructure/persistence/dynamodb"
	"foodiary/infrastructure/persistence/memory"
	localstorage "foodiary/infrastructure/storage/local"
	s3storage "foodiary/infrastructure/storage/s3"
	"foodiary/interfaces/http/rest"
	httphandlers "foodiary/interfaces/http/rest/handlers"
	"foodiary/interfaces/http/rest/middleware"
	"foodiary/pkg/auth"
	pkgerrors "foodiary/pkg/errors"
	"foodiary/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awscognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const serviceName = "foodiary"

// Authenticator guards the private routes
type Authenticator func(http.Handler) http.Handler

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName), zap.String("environment", cfg.Environment)), nil
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config, tracer *observability.Tracer) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	tracer.InstrumentAWS(&awsCfg)
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client. A configured endpoint
// points it at DynamoDB Local, which accepts any static credentials.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
			o.Credentials = credentials.NewStaticCredentialsProvider("local", "local", "")
		}
	})
}

// ProvideCognitoClient creates a Cognito user-pool client
func ProvideCognitoClient(awsCfg aws.Config) *awscognito.Client {
	return awscognito.NewFromConfig(awsCfg)
}

// ProvideS3PresignClient creates a presigner for the meals bucket
func ProvideS3PresignClient(awsCfg aws.Config) *awss3.PresignClient {
	return awss3.NewPresignClient(awss3.NewFromConfig(awsCfg))
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetrics creates metrics instance. With metrics disabled they are
// only logged.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("Foodiary/%s", cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideDomainConfig creates the business rules, honouring the configured
// upload lifetime
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domainCfg := domainconfig.DefaultDomainConfig()
	if cfg.UploadURLExpiry > 0 {
		domainCfg.UploadURLLifetime = time.Duration(cfg.UploadURLExpiry) * time.Minute
	}
	if err := domainCfg.Validate(); err != nil {
		return nil, err
	}
	return domainCfg, nil
}

// ProvideStore creates the single-table store
func ProvideStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) abstractions.Store {
	if cfg.UseMemoryStore {
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore()
	}
	return dynamodb.NewStore(client, cfg.DynamoDBTable, logger)
}

// ProvideAccountRepository creates the account repository
func ProvideAccountRepository(store abstractions.Store, cfg *config.Config, logger *zap.Logger) *dynamodb.AccountRepository {
	return dynamodb.NewAccountRepository(store, cfg.IndexName, logger)
}

// ProvideListMealsByDateQuery creates the day listing read model
func ProvideListMealsByDateQuery(store abstractions.Store, cfg *config.Config) *dynamodb.ListMealsByDateQuery {
	return dynamodb.NewListMealsByDateQuery(store, cfg.IndexName)
}

// ProvideAuthGateway creates the identity provider. Without a Cognito app
// client the local provider signs its own tokens.
func ProvideAuthGateway(client *awscognito.Client, cfg *config.Config, logger *zap.Logger) (ports.AuthGateway, error) {
	if cfg.CognitoClientID == "" {
		logger.Warn("Cognito is not configured, using the local identity provider")
		return localauth.NewGatewayFromSecret(localSecret(cfg), cfg.JWTIssuer, logger)
	}
	return cognito.NewGateway(client, cognito.Config{
		UserPoolID:   cfg.CognitoUserPoolID,
		ClientID:     cfg.CognitoClientID,
		ClientSecret: cfg.CognitoClientSecret,
	}, cognito.DefaultBreakerConfig(), logger), nil
}

// ProvideMealsFileStorage creates the upload presigner
func ProvideMealsFileStorage(presigner *awss3.PresignClient, cfg *config.Config, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) ports.MealsFileStorage {
	if cfg.MealsBucket == "" {
		return localstorage.NewMealsFileStorage("http://localhost:4566/meals", domainCfg.UploadURLLifetime)
	}
	return s3storage.NewMealsFileStorage(presigner, cfg.MealsBucket, domainCfg.UploadURLLifetime, logger)
}

// ProvideEventPublisher creates the event publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.UseMemoryStore {
		return localmessaging.NewPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideErrorHandler creates the HTTP error renderer
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideAuthenticator picks how private routes learn the caller. In Lambda
// the API Gateway authorizer has already checked the Cognito token.
func ProvideAuthenticator(cfg *config.Config, errs *pkgerrors.ErrorHandler, logger *zap.Logger) (Authenticator, error) {
	if cfg.IsLambda {
		return middleware.AuthenticateAPIGateway(errs, logger), nil
	}
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: localSecret(cfg),
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		return nil, err
	}
	return middleware.Authenticate(validator, errs, logger), nil
}

// ProvideRateLimiter throttles the public auth routes
func ProvideRateLimiter() *auth.IPRateLimiter {
	return auth.NewIPRateLimiter(30)
}

// ProvideCommandBus registers every command handler on a new command bus
func ProvideCommandBus(
	signUp *commandhandlers.SignUpHandler,
	credentials *commandhandlers.AuthHandler,
	updateProfile *commandhandlers.UpdateProfileHandler,
	updateGoal *commandhandlers.UpdateGoalHandler,
	createMeal *commandhandlers.CreateMealHandler,
	markMealQueued *commandhandlers.MarkMealQueuedHandler,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))

	registrations := []struct {
		command bus.Command
		handler bus.CommandHandler
	}{
		{commands.SignUpCommand{}, bus.Typed(signUp.Handle)},
		{commands.SignInCommand{}, bus.Typed(credentials.SignIn)},
		{commands.RefreshTokenCommand{}, bus.Typed(credentials.RefreshToken)},
		{commands.ForgotPasswordCommand{}, bus.TypedNoResult(credentials.ForgotPassword)},
		{commands.ResetPasswordCommand{}, bus.TypedNoResult(credentials.ResetPassword)},
		{commands.UpdateProfileCommand{}, bus.TypedNoResult(updateProfile.Handle)},
		{commands.UpdateGoalCommand{}, bus.TypedNoResult(updateGoal.Handle)},
		{commands.CreateMealCommand{}, bus.Typed(createMeal.Handle)},
		{commands.MarkMealQueuedCommand{}, bus.TypedNoResult(markMealQueued.Handle)},
	}
	for _, r := range registrations {
		if err := commandBus.Register(r.command, r.handler); err != nil {
			return nil, err
		}
	}
	return commandBus, nil
}

// ProvideQueryBus registers every query handler on a new query bus
func ProvideQueryBus(
	getMe *queryhandlers.GetMeHandler,
	getMeal *queryhandlers.GetMealHandler,
	listMeals *queryhandlers.ListMealsByDateHandler,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	if err := queryBus.Register(queries.GetMeQuery{}, querybus.Typed(getMe.Handle)); err != nil {
		return nil, err
	}
	if err := queryBus.Register(queries.GetMealQuery{}, querybus.Typed(getMeal.Handle)); err != nil {
		return nil, err
	}
	if err := queryBus.Register(queries.ListMealsByDateQuery{}, querybus.Typed(listMeals.Handle)); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	authenticate Authenticator,
	limiter *auth.IPRateLimiter,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(
		httphandlers.NewAuthHandler(commandBus, errs, logger),
		httphandlers.NewAccountHandler(commandBus, queryBus, errs, logger),
		httphandlers.NewMealHandler(commandBus, queryBus, errs, logger),
		errs,
		authenticate,
		limiter,
		rest.RouterConfig{
			EnableCORS:  cfg.EnableCORS,
			CORSOrigins: cfg.CORSOrigins,
		},
		logger,
	)
}

// ProvideHTTPHandler builds the routed handler
func ProvideHTTPHandler(router *rest.Router) http.Handler {
	return router.Setup()
}

// localSecret returns the signing key for local tokens. Development runs
// fall back to a fixed key.
func localSecret(cfg *config.Config) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	return "development-secret-change-in-production"
}
