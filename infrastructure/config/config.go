package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion        string `yaml:"aws_region"`
	DynamoDBTable    string `yaml:"table_name"`
	IndexName        string `yaml:"index_name"` // GSI1 - email lookups and meals by day
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`
	MealsBucket      string `yaml:"meals_bucket"`
	UploadURLExpiry  int    `yaml:"upload_url_expiry_minutes"`
	EventBusName     string `yaml:"event_bus_name"`

	// Identity provider
	CognitoClientID     string `yaml:"cognito_client_id"`
	CognitoClientSecret string `yaml:"cognito_client_secret"`
	CognitoUserPoolID   string `yaml:"cognito_user_pool_id"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication for local runs
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Feature flags
	EnableMetrics  bool     `yaml:"enable_metrics"`
	EnableTracing  bool     `yaml:"enable_tracing"`
	EnableCORS     bool     `yaml:"enable_cors"`
	CORSOrigins    []string `yaml:"cors_origins"`
	UseMemoryStore bool     `yaml:"use_memory_store"`
}

// LoadConfig loads configuration from an optional YAML file and environment variables.
// Environment variables always win over the file.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:   ":8080",
		Environment:     "development",
		AWSRegion:       "us-east-1",
		DynamoDBTable:   "foodiary",
		IndexName:       "GSI1",
		EventBusName:    "foodiary-events",
		UploadURLExpiry: 5,
		JWTIssuer:       "foodiary-local",
		LogLevel:        "info",
		EnableCORS:      true,
		CORSOrigins:     []string{"http://localhost:3000"},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", cfg.DynamoDBTable))
	cfg.IndexName = getEnv("INDEX_NAME", cfg.IndexName)
	cfg.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", cfg.DynamoDBEndpoint)
	cfg.MealsBucket = getEnv("MEALS_BUCKET", cfg.MealsBucket)
	cfg.UploadURLExpiry = getEnvInt("UPLOAD_URL_EXPIRY_MINUTES", cfg.UploadURLExpiry)
	cfg.EventBusName = getEnv("EVENT_BUS_NAME", cfg.EventBusName)

	cfg.CognitoClientID = getEnv("COGNITO_CLIENT_ID", cfg.CognitoClientID)
	cfg.CognitoClientSecret = getEnv("COGNITO_CLIENT_SECRET", cfg.CognitoClientSecret)
	cfg.CognitoUserPoolID = getEnv("COGNITO_USER_POOL_ID", cfg.CognitoUserPoolID)

	cfg.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", "")
	cfg.IsLambda = getEnvBool("IS_LAMBDA", cfg.IsLambda || cfg.LambdaFunctionName != "")

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)
	cfg.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.EnableTracing)
	cfg.EnableCORS = getEnvBool("ENABLE_CORS", cfg.EnableCORS)
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.UseMemoryStore = getEnvBool("USE_MEMORY_STORE", cfg.UseMemoryStore)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required")
	}
	if c.IndexName == "" {
		return fmt.Errorf("INDEX_NAME is required")
	}

	if c.Environment == "production" {
		if c.UseMemoryStore {
			return fmt.Errorf("USE_MEMORY_STORE is not allowed in production")
		}
		if c.MealsBucket == "" {
			return fmt.Errorf("MEALS_BUCKET is required in production")
		}
		if c.CognitoClientID == "" || c.CognitoClientSecret == "" {
			return fmt.Errorf("COGNITO_CLIENT_ID and COGNITO_CLIENT_SECRET are required in production")
		}
	}

	if !c.IsLambda && !c.IsDevelopment() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required outside Lambda")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList gets a comma separated environment variable with a default value
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
