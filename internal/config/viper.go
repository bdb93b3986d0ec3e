// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"fjacquet/txn-recon/internal/dedupe"
	"fjacquet/txn-recon/internal/normalizer"
	"fjacquet/txn-recon/internal/reconcile"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "RECON"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	Dedupe struct {
		DateWindowExpense            int     `mapstructure:"date_window_expense" yaml:"date_window_expense"`
		DateWindowIncome             int     `mapstructure:"date_window_income" yaml:"date_window_income"`
		SimilarityThreshold          float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
		TreatSameAmountDifferentDate bool    `mapstructure:"treat_same_amount_different_date" yaml:"treat_same_amount_different_date"`
		AutoSelectKeep               bool    `mapstructure:"auto_select_keep" yaml:"auto_select_keep"`
		AliasesFile                  string  `mapstructure:"aliases_file" yaml:"aliases_file"`
		ParallelThreshold            int     `mapstructure:"parallel_threshold" yaml:"parallel_threshold"`
	} `mapstructure:"dedupe" yaml:"dedupe"`

	Reconcile struct {
		DateWindowDays  int     `mapstructure:"date_window_days" yaml:"date_window_days"`
		FuzzyThreshold  float64 `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold"`
		ReviewThreshold float64 `mapstructure:"review_threshold" yaml:"review_threshold"`
		BulkWorkers     int     `mapstructure:"bulk_workers" yaml:"bulk_workers"`
	} `mapstructure:"reconcile" yaml:"reconcile"`

	Audit struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"audit" yaml:"audit"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFromFile("")
}

// InitializeConfigFromFile loads configuration like InitializeConfig but
// reads the given file instead of searching the standard locations when
// configFile is not empty.
func InitializeConfigFromFile(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.txn-recon")
		v.AddConfigPath(".txn-recon")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file; a missing file is fine unless one was named
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("csv.delimiter", ",")

	d := dedupe.DefaultSettings()
	v.SetDefault("dedupe.date_window_expense", d.DateWindowExpense)
	v.SetDefault("dedupe.date_window_income", d.DateWindowIncome)
	v.SetDefault("dedupe.similarity_threshold", d.SimilarityThreshold)
	v.SetDefault("dedupe.treat_same_amount_different_date", d.TreatSameAmountDifferentDate)
	v.SetDefault("dedupe.auto_select_keep", d.AutoSelectKeep)
	v.SetDefault("dedupe.aliases_file", "")
	v.SetDefault("dedupe.parallel_threshold", d.ParallelThreshold)

	r := reconcile.DefaultSettings()
	v.SetDefault("reconcile.date_window_days", r.DateWindowDays)
	v.SetDefault("reconcile.fuzzy_threshold", r.FuzzyThreshold)
	v.SetDefault("reconcile.review_threshold", r.ReviewThreshold)
	v.SetDefault("reconcile.bulk_workers", reconcile.DefaultBulkWorkers)

	v.SetDefault("audit.directory", "audit")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if err := config.DedupeSettings(normalizer.AliasTable{}).Validate(); err != nil {
		return fmt.Errorf("dedupe: %w", err)
	}

	if err := config.ReconcileSettings().Validate(); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if config.Reconcile.BulkWorkers < 1 || config.Reconcile.BulkWorkers > 256 {
		return fmt.Errorf("reconcile.bulk_workers must be between 1 and 256, got: %d", config.Reconcile.BulkWorkers)
	}

	if strings.TrimSpace(config.Audit.Directory) == "" {
		return fmt.Errorf("audit.directory must not be empty")
	}

	return nil
}

// Delimiter returns the configured CSV delimiter.
func (c *Config) Delimiter() rune {
	r := []rune(c.CSV.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

// DedupeSettings converts the dedupe section into grouper settings using the
// given alias table.
func (c *Config) DedupeSettings(aliases normalizer.AliasTable) dedupe.Settings {
	return dedupe.Settings{
		DateWindowExpense:            c.Dedupe.DateWindowExpense,
		DateWindowIncome:             c.Dedupe.DateWindowIncome,
		SimilarityThreshold:          c.Dedupe.SimilarityThreshold,
		TreatSameAmountDifferentDate: c.Dedupe.TreatSameAmountDifferentDate,
		AutoSelectKeep:               c.Dedupe.AutoSelectKeep,
		ParallelThreshold:            c.Dedupe.ParallelThreshold,
		VendorAliases:                aliases,
	}
}

// ReconcileSettings converts the reconcile section into matcher settings.
func (c *Config) ReconcileSettings() reconcile.Settings {
	return reconcile.Settings{
		DateWindowDays:  c.Reconcile.DateWindowDays,
		FuzzyThreshold:  c.Reconcile.FuzzyThreshold,
		ReviewThreshold: c.Reconcile.ReviewThreshold,
	}
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
