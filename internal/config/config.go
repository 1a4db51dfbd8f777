package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	Env          string `mapstructure:"ENV"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	DataDir      string `mapstructure:"DATA_DIR"`
	PatientFile  string `mapstructure:"PATIENT_FILE"`
	RoomFile     string `mapstructure:"ROOM_FILE"`
	BedFile      string `mapstructure:"BED_FILE"`
	Delimiter    string `mapstructure:"DELIMITER"`
	Storage      string `mapstructure:"STORAGE"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DBSchema     string `mapstructure:"DB_SCHEMA"`
	DBMaxConns   int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns   int32  `mapstructure:"DB_MIN_CONNS"`
	Port         string `mapstructure:"PORT"`
	DeletePolicy string `mapstructure:"DELETE_POLICY"`
	LatestOrder  string `mapstructure:"LATEST_ORDER"`
}

var keys = []string{
	"ENV", "LOG_LEVEL", "DATA_DIR", "PATIENT_FILE", "ROOM_FILE", "BED_FILE",
	"DELIMITER", "STORAGE", "DATABASE_URL", "DB_SCHEMA", "DB_MAX_CONNS",
	"DB_MIN_CONNS", "PORT", "DELETE_POLICY", "LATEST_ORDER",
}

// Load reads configuration from the environment and an optional .env file
// in the working directory. Any envFiles are loaded into the process
// environment first; variables that are already set win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATA_DIR", ".")
	v.SetDefault("PATIENT_FILE", "patient_data.csv")
	v.SetDefault("ROOM_FILE", "room_data.csv")
	v.SetDefault("BED_FILE", "bed_data.csv")
	v.SetDefault("DELIMITER", ";")
	v.SetDefault("STORAGE", StorageFile)
	v.SetDefault("DB_SCHEMA", "bedtrack")
	v.SetDefault("DB_MAX_CONNS", 4)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("PORT", "8000")
	v.SetDefault("DELETE_POLICY", "void")
	v.SetDefault("LATEST_ORDER", "insertion")

	for _, k := range keys {
		v.BindEnv(k)
	}

	// The .env file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Path resolves one of the table file names against DataDir.
func (c *Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// Comma returns the field delimiter as a rune.
func (c *Config) Comma() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// Validate rejects settings the program cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage {
	case StorageFile:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be %q or %q, got %q", StorageFile, StoragePostgres, c.Storage))
	}

	if utf8.RuneCountInString(c.Delimiter) != 1 || c.Delimiter == "\n" || c.Delimiter == "\r" || c.Delimiter == "\"" {
		errs = append(errs, fmt.Errorf("DELIMITER must be a single character, got %q", c.Delimiter))
	}

	switch c.DeletePolicy {
	case "void", "release", "reject":
	default:
		errs = append(errs, fmt.Errorf("DELETE_POLICY must be void, release or reject, got %q", c.DeletePolicy))
	}

	switch c.LatestOrder {
	case "insertion", "timestamp":
	default:
		errs = append(errs, fmt.Errorf("LATEST_ORDER must be insertion or timestamp, got %q", c.LatestOrder))
	}

	if c.DBMinConns > c.DBMaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns))
	}

	return errors.Join(errs...)
}
