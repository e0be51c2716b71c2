package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. MW_SERVER_PORT.
const EnvPrefix = "MW"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server" envconfig:"SERVER"`
	Provider ProviderConfig `yaml:"provider" toml:"provider" envconfig:"PROVIDER"`
	Schedule ScheduleConfig `yaml:"schedule" toml:"schedule" envconfig:"SCHEDULE"`
	Export   ExportConfig   `yaml:"export" toml:"export" envconfig:"EXPORT"`
	Telegram TelegramConfig `yaml:"telegram" toml:"telegram" envconfig:"TELEGRAM"`
	Database DatabaseConfig `yaml:"database" toml:"database" envconfig:"DATABASE"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging" envconfig:"LOGGING"`
	Proxy    string         `yaml:"proxy" toml:"proxy" envconfig:"PROXY"`
}

type ServerConfig struct {
	Host                string `yaml:"host" toml:"host" envconfig:"HOST"`
	Port                int    `yaml:"port" toml:"port" envconfig:"PORT"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds" toml:"read_timeout_seconds" envconfig:"READ_TIMEOUT_SECONDS"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds" toml:"write_timeout_seconds" envconfig:"WRITE_TIMEOUT_SECONDS"`
	MaxUploadMB         int    `yaml:"max_upload_mb" toml:"max_upload_mb" envconfig:"MAX_UPLOAD_MB"`
}

// ProviderConfig selects the quote provider. Name is "yahoo" or "mock".
type ProviderConfig struct {
	Name              string  `yaml:"name" toml:"name" envconfig:"NAME"`
	BaseURL           string  `yaml:"base_url" toml:"base_url" envconfig:"BASE_URL"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" toml:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
	ComponentsBaseURL string  `yaml:"components_base_url" toml:"components_base_url" envconfig:"COMPONENTS_BASE_URL"`
}

type ScheduleConfig struct {
	Disabled   bool   `yaml:"disabled" toml:"disabled" envconfig:"DISABLED"`
	DailyCron  string `yaml:"daily_cron" toml:"daily_cron" envconfig:"DAILY_CRON"`
	HourlyCron string `yaml:"hourly_cron" toml:"hourly_cron" envconfig:"HOURLY_CRON"`
}

// ExportConfig selects where scheduled workbooks are written. Backend is
// "local", "s3" or "drive".
type ExportConfig struct {
	Backend string      `yaml:"backend" toml:"backend" envconfig:"BACKEND"`
	Local   LocalConfig `yaml:"local" toml:"local" envconfig:"LOCAL"`
	S3      S3Config    `yaml:"s3" toml:"s3" envconfig:"S3"`
	Drive   DriveConfig `yaml:"drive" toml:"drive" envconfig:"DRIVE"`
}

type LocalConfig struct {
	Dir string `yaml:"dir" toml:"dir" envconfig:"DIR"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket" toml:"bucket" envconfig:"BUCKET"`
	Prefix    string `yaml:"prefix" toml:"prefix" envconfig:"PREFIX"`
	Region    string `yaml:"region" toml:"region" envconfig:"REGION"`
	Endpoint  string `yaml:"endpoint" toml:"endpoint" envconfig:"ENDPOINT"`
	AccessKey string `yaml:"access_key" toml:"access_key" envconfig:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" toml:"secret_key" envconfig:"SECRET_KEY"`
}

type DriveConfig struct {
	FolderID        string `yaml:"folder_id" toml:"folder_id" envconfig:"FOLDER_ID"`
	CredentialsFile string `yaml:"credentials_file" toml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" toml:"bot_token" envconfig:"BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" toml:"chat_id" envconfig:"CHAT_ID"`
}

// Enabled reports whether Telegram notifications are configured.
func (t TelegramConfig) Enabled() bool { return t.BotToken != "" && t.ChatID != "" }

type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path" envconfig:"SQLITE_PATH"`
}

type LoggingConfig struct {
	Level    string   `yaml:"level" toml:"level" envconfig:"LEVEL"`
	Output   []string `yaml:"output" toml:"output" envconfig:"OUTPUT"`
	FilePath string   `yaml:"file_path" toml:"file_path" envconfig:"FILE_PATH"`
}

// Load reads config from a YAML or TOML file (by extension), then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Proxy == "" {
		cfg.Proxy = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 30
	}
	// Large universes take minutes to fetch sequentially.
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 900
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 10
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "yahoo"
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Provider.RequestsPerSecond == 0 {
		c.Provider.RequestsPerSecond = 4
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 30
	}
	if c.Provider.ComponentsBaseURL == "" {
		c.Provider.ComponentsBaseURL = "https://www.slickcharts.com"
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 16 * * 1-5"
	}
	if c.Schedule.HourlyCron == "" {
		c.Schedule.HourlyCron = "0 0 10-16 * * 1-5"
	}
	if c.Export.Backend == "" {
		c.Export.Backend = "local"
	}
	if c.Export.Local.Dir == "" {
		c.Export.Local.Dir = "data/exports"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/market_workbook.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if len(c.Logging.Output) == 0 {
		c.Logging.Output = []string{"console"}
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/market_workbook.log"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch c.Provider.Name {
	case "yahoo", "mock":
	default:
		return fmt.Errorf("provider.name must be yahoo or mock, got %q", c.Provider.Name)
	}
	if c.Provider.RequestsPerSecond < 0 {
		return fmt.Errorf("provider.requests_per_second must not be negative")
	}
	switch c.Export.Backend {
	case "local":
		if c.Export.Local.Dir == "" {
			return fmt.Errorf("export.local.dir is required")
		}
	case "s3":
		if c.Export.S3.Bucket == "" {
			return fmt.Errorf("export.s3.bucket is required")
		}
	case "drive":
		if c.Export.Drive.FolderID == "" {
			return fmt.Errorf("export.drive.folder_id is required")
		}
	default:
		return fmt.Errorf("export.backend must be local, s3 or drive, got %q", c.Export.Backend)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
