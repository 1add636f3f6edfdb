package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
)

const defaultBoundaryURL = "https://github.com/imazon-cgi/simex/raw/refs/heads/main/datasets/geojson/limite_municipios_amz_legal.geojson"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string `env:"HTTP_ADDR" validate:"required"`
	LogLevel        string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat       string `env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout time.Duration

	// Source dataset.
	DatasetPath            string        `env:"DATASET_PATH" validate:"required"`
	DatasetCacheEnabled    bool          `env:"DATASET_CACHE"`
	DatasetRefreshInterval time.Duration `env:"DATASET_REFRESH_INTERVAL" validate:"gte=0"`

	// Query defaults. They describe the dataset's known coverage.
	DefaultStartYear  int `env:"DEFAULT_START_YEAR" validate:"gte=0"`
	DefaultEndYear    int `env:"DEFAULT_END_YEAR" validate:"gtefield=DefaultStartYear"`
	TopMunicipalities int `env:"TOP_MUNICIPALITIES" validate:"gte=1"`

	StaticDir string `env:"STATIC_DIR"`

	// Map collaborators.
	TileURLTemplate  string        `env:"TILE_URL_TEMPLATE"`
	BoundaryURL      string        `env:"BOUNDARY_URL" validate:"required,url"`
	BoundaryTimeout  time.Duration `env:"BOUNDARY_TIMEOUT" validate:"gt=0"`
	BoundaryCacheTTL time.Duration `env:"BOUNDARY_CACHE_TTL" validate:"gte=0"`

	// HTTP middleware.
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS"`
	RateLimitRequests  int           `env:"RATE_LIMIT_REQUESTS" validate:"gte=0"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" validate:"gt=0"`

	// Dataset reload notifications. Disabled when no brokers are configured.
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC"`
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parseDuration("DATASET_REFRESH_INTERVAL", "0s")
	if err != nil {
		return nil, err
	}
	boundaryTimeout, err := parseDuration("BOUNDARY_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	boundaryCacheTTL, err := parseDuration("BOUNDARY_CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}
	rateLimitWindow, err := parseDuration("RATE_LIMIT_WINDOW", "1m")
	if err != nil {
		return nil, err
	}

	startYear, err := parseInt("DEFAULT_START_YEAR", 2008)
	if err != nil {
		return nil, err
	}
	endYear, err := parseInt("DEFAULT_END_YEAR", 2023)
	if err != nil {
		return nil, err
	}
	topN, err := parseInt("TOP_MUNICIPALITIES", 10)
	if err != nil {
		return nil, err
	}
	rateLimitRequests, err := parseInt("RATE_LIMIT_REQUESTS", 300)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":3000"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,

		DatasetPath:            sharedcfg.EnvOrDefault("DATASET_PATH", "dataset/floreser-9-22-1-ages-sf.csv"),
		DatasetCacheEnabled:    os.Getenv("DATASET_CACHE") != "false",
		DatasetRefreshInterval: refreshInterval,

		DefaultStartYear:  startYear,
		DefaultEndYear:    endYear,
		TopMunicipalities: topN,

		StaticDir: os.Getenv("STATIC_DIR"),

		TileURLTemplate:  os.Getenv("TILE_URL_TEMPLATE"),
		BoundaryURL:      sharedcfg.EnvOrDefault("BOUNDARY_URL", defaultBoundaryURL),
		BoundaryTimeout:  boundaryTimeout,
		BoundaryCacheTTL: boundaryCacheTTL,

		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RateLimitRequests:  rateLimitRequests,
		RateLimitWindow:    rateLimitWindow,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "floreser-dataset-events"),
		KafkaEnabled: len(brokers) > 0,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	if cfg.DatasetRefreshInterval > 0 && !cfg.DatasetCacheEnabled {
		return nil, errors.New("DATASET_REFRESH_INTERVAL requires DATASET_CACHE to be enabled")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// validate runs the struct tags and turns the first failure into an error
// that names the offending environment variable.
func validate(cfg *Config) error {
	err := structValidator.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "url":
		return fmt.Errorf("%s must be a valid URL", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gtefield":
		return fmt.Errorf("%s must be >= DEFAULT_START_YEAR", fe.Field())
	default:
		return fmt.Errorf("invalid %s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
