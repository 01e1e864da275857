package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"shoecare/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvironmentProduction = "production"

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Backup     BackupConfig     `yaml:"backup"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Mail       MailConfig       `yaml:"mail"`
	Dev        DevConfig        `yaml:"dev"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"` // Go duration, e.g. "24h"
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	TokenTTL int    `yaml:"token_ttl"` // seconds
}

type APIRateLimitConfig struct {
	RPS             float64 `yaml:"rps"`
	Burst           int     `yaml:"burst"`
	BookingsPerHour int     `yaml:"bookings_per_hour"`
}

type ScheduleConfig struct {
	Timezone     string `yaml:"timezone"`
	PollInterval int    `yaml:"poll_interval"` // seconds
}

type MailConfig struct {
	Mode       string     `yaml:"mode"` // log | smtp
	From       string     `yaml:"from"`
	SMTP       SMTPConfig `yaml:"smtp"`
	QueueSize  int        `yaml:"queue_size"`
	MaxRetries int        `yaml:"max_retries"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type DevConfig struct {
	AdminSimulationTTL int `yaml:"admin_simulation_ttl"` // seconds
}

func Load(configPath string) (*Config, error) {
	// .env is optional; values already in the environment win.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

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

	if c.IsProduction() && (c.API.Auth.Secret == "" || c.API.Auth.Secret == "change-me") {
		return errors.New("api auth secret is required in production")
	}

	if _, err := c.Schedule.Location(); err != nil {
		return fmt.Errorf("schedule timezone: %w", err)
	}

	switch c.Mail.Mode {
	case "log":
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			return errors.New("mail.smtp.host is required when mail.mode=smtp")
		}
	default:
		return fmt.Errorf("unknown mail mode %q", c.Mail.Mode)
	}

	return nil
}

// IsProduction reports whether development-only features must stay disabled.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.App.Environment), EnvironmentProduction)
}

// Location resolves the timezone used to bucket bookings into calendar days.
func (s ScheduleConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "shoecare"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.Issuer == "" {
		c.API.Auth.Issuer = c.App.Name
	}
	if c.API.Auth.TokenTTL == 0 {
		c.API.Auth.TokenTTL = models.DefaultTokenTTL
	}
	if c.API.RateLimit.BookingsPerHour == 0 {
		c.API.RateLimit.BookingsPerHour = models.DefaultBookingsPerHour
	}
	if c.Schedule.PollInterval == 0 {
		c.Schedule.PollInterval = models.DefaultSchedulePollInterval
	}
	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
	if c.Mail.Mode == "" {
		c.Mail.Mode = "log"
	}
	if c.Mail.From == "" {
		c.Mail.From = "FK Trainers <noreply@fktrainers.com>"
	}
	if c.Mail.SMTP.Port == 0 {
		c.Mail.SMTP.Port = 587
	}
	if c.Mail.QueueSize == 0 {
		c.Mail.QueueSize = 100
	}
	if c.Mail.MaxRetries == 0 {
		c.Mail.MaxRetries = 3
	}
	if c.Dev.AdminSimulationTTL == 0 {
		c.Dev.AdminSimulationTTL = models.DefaultAdminSimulationTTL
	}
}
