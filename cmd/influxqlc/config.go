package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// config holds the CLI settings after flags, environment and config file have
// been merged.
type config struct {
	Strategy    string
	Catalog     string
	SyntaxCheck bool
	LogLevel    string
}

// newViper returns a viper instance with the CLI defaults and environment
// binding (INFLUXQLC_STRATEGY, INFLUXQLC_CATALOG, ...). Config files are
// read through fs.
func newViper(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix("INFLUXQLC")
	v.AutomaticEnv()

	v.SetDefault("strategy", "grouped")
	v.SetDefault("catalog", "influxqlc.db")
	v.SetDefault("syntax_check", false)
	v.SetDefault("log_level", "warn")
	return v
}

// loadConfig reads the config file, if any, and returns the merged settings.
// An explicit file must exist; otherwise .influxqlc.yaml is looked up in the
// working directory and the home directory. A .env file in the working
// directory is loaded first so that INFLUXQLC_* variables can live there.
func loadConfig(fs afero.Fs, v *viper.Viper, file string) (*config, error) {
	if err := loadDotEnv(fs, ".env"); err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".influxqlc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &config{
		Strategy:    v.GetString("strategy"),
		Catalog:     v.GetString("catalog"),
		SyntaxCheck: v.GetBool("syntax_check"),
		LogLevel:    v.GetString("log_level"),
	}, nil
}

// loadDotEnv reads path from fs, if it exists, and exports its variables.
// Variables already present in the environment are left alone.
func loadDotEnv(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	vars, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for key, value := range vars {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// newLogger builds a production zap logger writing to stderr at the given
// level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	return cfg.Build()
}
