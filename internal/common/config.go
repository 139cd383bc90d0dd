package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig  `toml:"logging"`
	Tenants     TenantsConfig  `toml:"tenants"`
	Market      MarketConfig   `toml:"market"`
	Pacing      PacingConfig   `toml:"pacing"`
	Storage     StorageConfig  `toml:"storage"`
	Schedule    ScheduleConfig `toml:"schedule"`
	Demo        DemoConfig     `toml:"demo"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Output     []string `toml:"output" validate:"dive,oneof=stdout file"`
	TimeFormat string   `toml:"time_format"`
	Dir        string   `toml:"dir"` // Directory for foliogen.log when "file" output is enabled
}

// TenantsConfig selects the tenant repository
type TenantsConfig struct {
	Source     string `toml:"source" validate:"oneof=sqlite yaml"`
	SQLitePath string `toml:"sqlite_path" validate:"required_if=Source sqlite"`
	YAMLPath   string `toml:"yaml_path" validate:"required_if=Source yaml"`
}

// MarketConfig configures providers and report depth
type MarketConfig struct {
	ProbeSymbol            string              `toml:"probe_symbol" validate:"required"`
	HistoryDays            int                 `toml:"history_days" validate:"min=1,max=730"`
	RequestTimeout         string              `toml:"request_timeout" validate:"duration"` // e.g. "20s"
	MaxConsecutiveTimeouts int                 `toml:"max_consecutive_timeouts" validate:"min=1"`
	Routes                 map[string][]string `toml:"routes"` // category -> ordered provider names
	Yahoo                  YahooConfig         `toml:"yahoo"`
	EODHD                  EODHDConfig         `toml:"eodhd"`
}

type YahooConfig struct {
	Enabled    bool   `toml:"enabled"`
	BaseURL    string `toml:"base_url" validate:"omitempty,url"`
	SessionURL string `toml:"session_url" validate:"omitempty,url"`
	Intraday   bool   `toml:"intraday"`
	NewsCount  int    `toml:"news_count" validate:"min=0,max=50"`
}

type EODHDConfig struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key" validate:"required_if=Enabled true"`
	BaseURL string `toml:"base_url" validate:"omitempty,url"`
}

// PacingConfig holds the fixed pauses between provider calls and between tenants
type PacingConfig struct {
	Default        string            `toml:"default" validate:"duration"`
	Providers      map[string]string `toml:"providers" validate:"dive,duration"`
	BetweenTenants string            `toml:"between_tenants" validate:"duration"`
}

type StorageConfig struct {
	Badger                BadgerConfig     `toml:"badger"`
	Filesystem            FilesystemConfig `toml:"filesystem"`
	S3                    S3Config         `toml:"s3"`
	MaxDocumentsPerTenant int              `toml:"max_documents_per_tenant" validate:"min=0"` // 0 disables pruning
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Enabled        bool   `toml:"enabled"`
	Path           string `toml:"path" validate:"required_if=Enabled true"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`                         // Delete database on startup for clean test runs
}

type FilesystemConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path" validate:"required_if=Enabled true"`
}

// S3Config targets any S3-compatible object store
type S3Config struct {
	Enabled         bool   `toml:"enabled"`
	Bucket          string `toml:"bucket" validate:"required_if=Enabled true"`
	Prefix          string `toml:"prefix"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

type ScheduleConfig struct {
	Enabled    bool   `toml:"enabled"`
	Cron       string `toml:"cron" validate:"omitempty,cron"`
	RunOnStart bool   `toml:"run_on_start"`
}

// DemoConfig describes the built-in demo tenant
type DemoConfig struct {
	TenantID string   `toml:"tenant_id" validate:"required"`
	Symbols  []string `toml:"symbols" validate:"min=1"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
			Dir:        "./logs",
		},
		Tenants: TenantsConfig{
			Source:     "sqlite",
			SQLitePath: "./data/tenants.db",
			YAMLPath:   "./tenants.yaml",
		},
		Market: MarketConfig{
			ProbeSymbol:            "AAPL",
			HistoryDays:            30,
			RequestTimeout:         "20s",
			MaxConsecutiveTimeouts: 3,
			Routes: map[string][]string{
				"profile":    {"yahoo", "eodhd"},
				"statements": {"yahoo", "eodhd"},
				"prices":     {"yahoo", "eodhd"},
				"news":       {"yahoo", "eodhd"},
			},
			Yahoo: YahooConfig{
				Enabled:   true,
				Intraday:  true,
				NewsCount: 10,
			},
			EODHD: EODHDConfig{
				Enabled: false, // Enabled automatically when an API key is supplied
			},
		},
		Pacing: PacingConfig{
			Default: "1s",
			Providers: map[string]string{
				"yahoo": "15s", // Yahoo throttles aggressively
				"eodhd": "1s",
			},
			BetweenTenants: "30s",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Enabled: true,
				Path:    "./data/reports",
			},
			Filesystem: FilesystemConfig{
				Enabled: false,
				Path:    "./reports",
			},
			S3: S3Config{
				Enabled: false,
				Bucket:  "portfolio-files",
				Prefix:  "Informes",
				Region:  "us-east-1",
			},
			MaxDocumentsPerTenant: 0,
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 6 * * 1-5", // Weekdays 06:00
		},
		Demo: DemoConfig{
			TenantID: "demo_user_001",
			Symbols:  []string{"NVDA", "GOOGL", "AAPL"},
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> .env/env
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIOGEN_ENV"); env != "" {
		config.Environment = env
	}

	// Logging
	if level := os.Getenv("FOLIOGEN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("FOLIOGEN_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitList(output)
	}

	// Tenants
	if source := os.Getenv("FOLIOGEN_TENANT_SOURCE"); source != "" {
		config.Tenants.Source = source
	}
	if path := os.Getenv("FOLIOGEN_SQLITE_PATH"); path != "" {
		config.Tenants.SQLitePath = path
	}
	if path := os.Getenv("FOLIOGEN_TENANTS_YAML"); path != "" {
		config.Tenants.YAMLPath = path
	}

	// Market
	if ticker := firstEnv("FOLIOGEN_PROBE_SYMBOL", "DEFAULT_TICKER"); ticker != "" {
		config.Market.ProbeSymbol = ticker
	}
	if days := firstEnv("FOLIOGEN_HISTORY_DAYS", "HISTORY_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Market.HistoryDays = d
		}
	}
	if timeout := os.Getenv("FOLIOGEN_REQUEST_TIMEOUT"); timeout != "" {
		config.Market.RequestTimeout = timeout
	}
	if key := firstEnv("FOLIOGEN_EODHD_API_KEY", "EODHD_API_KEY"); key != "" {
		config.Market.EODHD.APIKey = key
		config.Market.EODHD.Enabled = true
	}

	// Storage
	if path := os.Getenv("FOLIOGEN_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if dir := os.Getenv("FOLIOGEN_OUTPUT_DIR"); dir != "" {
		config.Storage.Filesystem.Path = dir
		config.Storage.Filesystem.Enabled = true
	}
	if bucket := firstEnv("FOLIOGEN_S3_BUCKET", "STORAGE_BUCKET"); bucket != "" {
		config.Storage.S3.Bucket = bucket
	}
	if prefix := firstEnv("FOLIOGEN_S3_PREFIX", "STORAGE_BASE_PREFIX"); prefix != "" {
		config.Storage.S3.Prefix = prefix
	}
	if enabled := firstEnv("FOLIOGEN_S3_ENABLED", "ENABLE_OBJECT_UPLOAD"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Storage.S3.Enabled = b
		}
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		config.Storage.S3.Endpoint = endpoint
		config.Storage.S3.UsePathStyle = true
	}
	if region := firstEnv("S3_REGION", "AWS_REGION"); region != "" {
		config.Storage.S3.Region = region
	}
	if id := os.Getenv("S3_ACCESS_KEY_ID"); id != "" {
		config.Storage.S3.AccessKeyID = id
	}
	if secret := os.Getenv("S3_SECRET_ACCESS_KEY"); secret != "" {
		config.Storage.S3.SecretAccessKey = secret
	}
	if keep := os.Getenv("FOLIOGEN_MAX_DOCUMENTS"); keep != "" {
		if k, err := strconv.Atoi(keep); err == nil {
			config.Storage.MaxDocumentsPerTenant = k
		}
	}

	// Schedule
	if schedule := os.Getenv("FOLIOGEN_SCHEDULE"); schedule != "" {
		config.Schedule.Cron = schedule
		config.Schedule.Enabled = true
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, logLevel, schedule string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if schedule != "" {
		config.Schedule.Cron = schedule
		config.Schedule.Enabled = true
	}
}

// Validate checks struct tags plus the custom "duration" and "cron" rules
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("duration", validateDuration); err != nil {
		return err
	}
	if err := validate.RegisterValidation("cron", validateCron); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for category, providers := range c.Market.Routes {
		switch category {
		case "profile", "statements", "prices", "news":
		default:
			return fmt.Errorf("invalid configuration: unknown route category %q", category)
		}
		if len(providers) == 0 {
			return fmt.Errorf("invalid configuration: route %q has no providers", category)
		}
	}

	if c.Schedule.Enabled && c.Schedule.Cron == "" {
		return fmt.Errorf("invalid configuration: schedule enabled without a cron expression")
	}

	if !c.Storage.Badger.Enabled && !c.Storage.Filesystem.Enabled && !c.Storage.S3.Enabled {
		return fmt.Errorf("invalid configuration: at least one storage backend must be enabled")
	}
	return nil
}

func validateDuration(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.ParseDuration(value)
	return err == nil
}

func validateCron(fl validator.FieldLevel) bool {
	return ValidateSchedule(fl.Field().String()) == nil
}

// ValidateSchedule validates a standard 5-field cron expression (descriptors such as @daily are accepted)
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// RequestTimeoutDuration returns the per-call provider timeout
func (c MarketConfig) RequestTimeoutDuration() time.Duration {
	return parseDuration(c.RequestTimeout)
}

// DefaultInterval returns the pacing interval for providers without an explicit entry
func (c PacingConfig) DefaultInterval() time.Duration {
	return parseDuration(c.Default)
}

// ProviderIntervals returns the per-provider pacing intervals
func (c PacingConfig) ProviderIntervals() map[string]time.Duration {
	intervals := make(map[string]time.Duration, len(c.Providers))
	for name, value := range c.Providers {
		intervals[name] = parseDuration(value)
	}
	return intervals
}

// TenantInterval returns the pause between two tenants
func (c PacingConfig) TenantInterval() time.Duration {
	return parseDuration(c.BetweenTenants)
}

// EnabledBackends lists the enabled storage backends in write order
func (c StorageConfig) EnabledBackends() []string {
	var backends []string
	if c.Badger.Enabled {
		backends = append(backends, "badger")
	}
	if c.Filesystem.Enabled {
		backends = append(backends, "filesystem")
	}
	if c.S3.Enabled {
		backends = append(backends, "s3")
	}
	return backends
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func parseDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

func splitList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
