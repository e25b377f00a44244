package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "wazecli/internal/errors"
)

// ConfigFileEnv names the environment variable that points at an explicit YAML config file.
const ConfigFileEnv = "WAZECLI_CONFIG"

// Config represents the complete application configuration
type Config struct {
	Mongo     MongoConfig     `yaml:"mongo" envconfig:"MONGO"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// MongoConfig holds the document source connection parameters.
// DB_NAME and COLLECTION_NAME are also honoured without the MONGO_ prefix;
// every other leaf is read only under its prefixed name.
type MongoConfig struct {
	URI            string        `yaml:"uri" split_words:"true" validate:"required"`
	Database       string        `yaml:"database" envconfig:"DB_NAME" validate:"required"`
	Collection     string        `yaml:"collection" envconfig:"COLLECTION_NAME" validate:"required"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" split_words:"true" validate:"gt=0"`
}

// ExportConfig contains exporter output settings
type ExportConfig struct {
	OutputPath    string `yaml:"output_path" split_words:"true" validate:"required"`
	ProgressEvery int    `yaml:"progress_every" split_words:"true" validate:"min=1"`
	BOM           bool   `yaml:"bom" split_words:"true"`
}

// ReportConfig contains reporter input and output settings
type ReportConfig struct {
	InputDir    string `yaml:"input_dir" split_words:"true" validate:"required"`
	OutputDir   string `yaml:"output_dir" split_words:"true" validate:"required"`
	SummaryFile string `yaml:"summary_file" split_words:"true"`
	Delimiter   string `yaml:"delimiter" split_words:"true" validate:"len=1"`
	Charts      bool   `yaml:"charts" split_words:"true"`
	Workbook    bool   `yaml:"workbook" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// TelemetryConfig controls tracing and the Prometheus textfile written at exit
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" split_words:"true" validate:"oneof=none stdout"`
	MetricsFile   string `yaml:"metrics_file" split_words:"true"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017/",
			Database:       "waze_data",
			Collection:     "waze_events",
			ConnectTimeout: 10 * time.Second,
		},
		Export: ExportConfig{
			OutputPath:    "/export/waze_incidents.csv",
			ProgressEvery: 1000,
		},
		Report: ReportConfig{
			InputDir:  "/data/processed",
			OutputDir: "./analysis_results",
			Delimiter: ",",
			Charts:    true,
			Workbook:  true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/wazecli.log",
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config file", err).WithContext("path", configFile)
		}
	}

	// No default tags: unset variables leave file/default values alone.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyDerived fills values computed from other settings
func (c *Config) applyDerived() {
	if c.Report.SummaryFile == "" {
		c.Report.SummaryFile = filepath.Join(c.Report.OutputDir, SummaryFileName)
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/wazecli.log"
	}
}

// OverrideOutputDir changes the artifact directory. A summary file that was
// derived from the old directory moves with it.
func (r *ReportConfig) OverrideOutputDir(dir string) {
	if r.SummaryFile == filepath.Join(r.OutputDir, SummaryFileName) {
		r.SummaryFile = filepath.Join(dir, SummaryFileName)
	}
	r.OutputDir = dir
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}
