package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	domainconfig "flowcanvas/domain/config"
)

// Saver backends
const (
	SaverMemory   = "memory"
	SaverDynamoDB = "dynamodb"
)

// Config holds all application configuration. Values come from an optional
// YAML file named by CONFIG_FILE, overridden by environment variables.
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"table_name"`
	EventBusName  string `yaml:"event_bus_name"`

	// Lambda configuration
	IsLambda bool `yaml:"is_lambda"`

	// Save collaborator: memory or dynamodb
	Saver string `yaml:"saver"`

	// Palette
	PaletteFile  string `yaml:"palette_file"`
	WatchPalette bool   `yaml:"watch_palette"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Feature flags
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableTracing bool `yaml:"enable_tracing"`
	EnableCORS    bool `yaml:"enable_cors"`

	// Graph rules
	StrictPositionUpdates bool `yaml:"strict_position_updates"`
	AllowDuplicateEdges   bool `yaml:"allow_duplicate_edges"`
	AllowSelfLoops        bool `yaml:"allow_self_loops"`
	MaxCanvases           int  `yaml:"max_canvases"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ServerAddress:  ":8080",
		Environment:    "development",
		AWSRegion:      "us-west-2",
		DynamoDBTable:  "flowcanvas-workflows",
		EventBusName:   "flowcanvas-events",
		Saver:          SaverMemory,
		LogLevel:       "info",
		JWTIssuer:      "flowcanvas",
		EnableMetrics:  true,
		EnableCORS:     true,
		AllowSelfLoops: true,
		MaxCanvases:    1000,
	}
}

// LoadConfig loads configuration from CONFIG_FILE and the environment
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config file: %w", err)
		}
		err = cfg.decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	// Lambda sets AWS_LAMBDA_FUNCTION_NAME for every function
	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	c.Saver = strings.ToLower(getEnv("SAVER", c.Saver))
	c.PaletteFile = getEnv("PALETTE_FILE", c.PaletteFile)
	c.WatchPalette = getEnvBool("WATCH_PALETTE", c.WatchPalette)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)

	c.StrictPositionUpdates = getEnvBool("STRICT_POSITION_UPDATES", c.StrictPositionUpdates)
	c.AllowDuplicateEdges = getEnvBool("ALLOW_DUPLICATE_EDGES", c.AllowDuplicateEdges)
	c.AllowSelfLoops = getEnvBool("ALLOW_SELF_LOOPS", c.AllowSelfLoops)
	c.MaxCanvases = getEnvInt("MAX_CANVASES", c.MaxCanvases)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.Saver {
	case SaverMemory, SaverDynamoDB:
	default:
		return fmt.Errorf("SAVER must be %q or %q, got %q", SaverMemory, SaverDynamoDB, c.Saver)
	}
	if c.Saver == SaverDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required for the dynamodb saver")
	}
	if c.WatchPalette && c.PaletteFile == "" {
		return fmt.Errorf("WATCH_PALETTE requires PALETTE_FILE")
	}
	if c.MaxCanvases < 0 {
		return fmt.Errorf("MAX_CANVASES cannot be negative")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// DomainRules returns the graph rules for the environment with the
// configured overrides applied
func (c *Config) DomainRules() *domainconfig.DomainConfig {
	rules := domainconfig.LoadDomainConfig(c.Environment)
	rules.StrictPositionUpdates = rules.StrictPositionUpdates || c.StrictPositionUpdates
	rules.AllowDuplicateEdges = c.AllowDuplicateEdges
	rules.AllowSelfConnections = c.AllowSelfLoops
	return rules
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
	value := strings.ToLower(os.Getenv(key))
	switch value {
	case "":
		return defaultValue
	case "true", "1", "yes":
		return true
	default:
		return false
	}
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
