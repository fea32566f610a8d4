package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	StageIngest = "ingest"
	StageBuild  = "build"
	StageExport = "export"
)

// DefaultCities is the batch processed when CITIES is not set.
var DefaultCities = []string{"mumbai", "kolkata", "gurgaon_10k", "hyderabad"}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	StoreDriver string `validate:"required,oneof=sqlite postgres mongo"`
	SQLitePath  string `validate:"required_if=StoreDriver sqlite"`

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MongoURI string `validate:"required_if=StoreDriver mongo"`
	MongoDB  string `validate:"required_if=StoreDriver mongo"`

	Cities []string `validate:"required,min=1,dive,required"`
	Stages []string `validate:"required,min=1,dive,oneof=ingest build export"`

	RawDataDir         string `validate:"required"`
	FacetsDir          string `validate:"required"`
	ProcessedDir       string `validate:"required"`
	ExportPath         string `validate:"required"`
	ExportSourceSuffix string

	MaxConcurrency int `validate:"min=1,max=64"`
	MaxRetries     int `validate:"min=1"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
	LogFile   string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	rawDir := getEnv("RAW_DATA_DIR", "./data/raw")

	return &Config{
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		SQLitePath:  getEnv("SQLITE_PATH", "./real_estate.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "realestate"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "realestate"),
		PostgresDB:       getEnv("POSTGRES_DB", "real_estate"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "real_estate"),

		Cities: getEnvList("CITIES", DefaultCities),
		Stages: getEnvList("STAGES", []string{StageIngest, StageBuild, StageExport}),

		RawDataDir:         rawDir,
		FacetsDir:          getEnv("FACETS_DIR", filepath.Join(rawDir, "facets")),
		ProcessedDir:       getEnv("PROCESSED_DIR", "./data/processed"),
		ExportPath:         getEnv("EXPORT_PATH", "./exports/real_estate_cleaned_data.xlsx"),
		ExportSourceSuffix: getEnv("EXPORT_SOURCE_SUFFIX", "_summary"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 1),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogFile:   getEnv("LOG_FILE", ""),
	}
}

// Validate checks the struct tags above.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// HasStage reports whether the named stage is enabled.
func (c *Config) HasStage(stage string) bool {
	for _, s := range c.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, trimming and lowercasing items.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		out := make([]string, len(fallback))
		copy(out, fallback)
		return out
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
