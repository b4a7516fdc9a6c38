package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/HaroonAImode/booking-management-cricket-sub001/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Booking    BookingConfig    `yaml:"booking"`
	API        APIConfig        `yaml:"api"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Backup     BackupConfig     `yaml:"backup"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// BookingConfig carries the reservation engine knobs: the pending-hold
// window, the background sweep cadence and the seed rate schedule.
type BookingConfig struct {
	HoldMinutes      int   `yaml:"hold_minutes"`
	SweepIntervalSec int   `yaml:"sweep_interval_seconds"`
	DayRate          int64 `yaml:"day_rate"`
	NightRate        int64 `yaml:"night_rate"`
	NightStartHour   int   `yaml:"night_start_hour"`
	NightEndHour     int   `yaml:"night_end_hour"`
	RateCacheTTLSec  int   `yaml:"rate_cache_ttl_seconds"`
}

func (b BookingConfig) HoldDuration() time.Duration {
	return time.Duration(b.HoldMinutes) * time.Minute
}

func (b BookingConfig) SweepInterval() time.Duration {
	return time.Duration(b.SweepIntervalSec) * time.Second
}

func (b BookingConfig) RateCacheTTL() time.Duration {
	return time.Duration(b.RateCacheTTLSec) * time.Second
}

func (b BookingConfig) SeedSchedule() models.RateSchedule {
	return models.RateSchedule{
		DayRate:        b.DayRate,
		NightRate:      b.NightRate,
		NightStartHour: b.NightStartHour,
		NightEndHour:   b.NightEndHour,
	}
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	Enabled               bool   `yaml:"enabled"`
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingsSpreadsheetID string `yaml:"bookings_spreadsheet_id"`
}

type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotToken    string `yaml:"bot_token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
	Debug       bool   `yaml:"debug"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment may already be populated.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if err := c.Booking.SeedSchedule().Validate(); err != nil {
		return fmt.Errorf("booking rates: %w", err)
	}
	if c.Booking.HoldMinutes <= 0 {
		return errors.New("booking hold_minutes must be positive")
	}
	if c.Google.Enabled {
		if c.Google.GoogleCredentialsFile == "" || c.Google.BookingsSpreadsheetID == "" {
			return errors.New("google sync requires credentials_file and bookings_spreadsheet_id")
		}
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" || c.Telegram.AdminChatID == 0 {
			return errors.New("telegram notifications require bot_token and admin_chat_id")
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "cricket-booking"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Booking.HoldMinutes == 0 {
		c.Booking.HoldMinutes = models.DefaultHoldMinutes
	}
	if c.Booking.SweepIntervalSec == 0 {
		c.Booking.SweepIntervalSec = models.DefaultSweepIntervalSeconds
	}
	if c.Booking.DayRate == 0 {
		c.Booking.DayRate = models.DefaultDayRate
	}
	if c.Booking.NightRate == 0 {
		c.Booking.NightRate = models.DefaultNightRate
	}
	if c.Booking.NightStartHour == 0 && c.Booking.NightEndHour == 0 {
		c.Booking.NightStartHour = models.DefaultNightStartHour
		c.Booking.NightEndHour = models.DefaultNightEndHour
	}
	if c.Booking.RateCacheTTLSec == 0 {
		c.Booking.RateCacheTTLSec = models.RateCacheTTLSeconds
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
