package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "America/New_York"
	configPathEnv   = "POLICY_DIGEST_CONFIG"

	databaseDSNEnv = "DATABASE_DSN"
	openAIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv = "OPENAI_MODEL"
	addEventKeyEnv = "ADDEVENT_API_KEY"
	calendarIDEnv  = "ADDEVENT_CALENDAR_ID"
	calendarKeyEnv = "ADDEVENT_CALENDAR_KEY"
	localTZEnv     = "LOCAL_TZ"
	logLevelEnv    = "LOG_LEVEL"
	httpAddrEnv    = "HTTP_ADDR"
	gmailTokenEnv  = "GMAIL_TOKEN_FILE"
	gmailCredsEnv  = "GMAIL_CREDENTIALS_FILE"
	scraperRPSEnv  = "SCRAPER_RPS"
	sessionTTLEnv  = "SESSION_TTL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	ChatGPT  ChatGPTConfig  `yaml:"chatgpt"`
	Calendar CalendarConfig `yaml:"calendar"`
	Gmail    GmailConfig    `yaml:"gmail"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Logging  LoggingConfig  `yaml:"logging"`
	Sources  SourcesConfig  `yaml:"sources"`
}

// ServerConfig describes the wizard HTTP surface and session lifetime.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	CookieName    string `yaml:"cookieName"`
	SessionTTL    string `yaml:"sessionTTL"`
	SweepInterval string `yaml:"sweepInterval"`
}

// TTL parses SessionTTL, falling back to twelve hours.
func (s ServerConfig) TTL() time.Duration {
	return parseDuration(s.SessionTTL, 12*time.Hour)
}

// Interval parses SweepInterval, falling back to ten minutes.
func (s ServerConfig) Interval() time.Duration {
	return parseDuration(s.SweepInterval, 10*time.Minute)
}

// DatabaseConfig describes Postgres connection details. An empty DSN keeps
// sessions in memory.
type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// ChatGPTConfig defines how to contact the chat-completions API.
type ChatGPTConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	Timeout  string `yaml:"timeout"`
}

// RequestTimeout parses Timeout, falling back to thirty seconds.
func (c ChatGPTConfig) RequestTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// CalendarConfig wires the AddEvent integration.
type CalendarConfig struct {
	APIBase           string         `yaml:"apiBase"`
	APIKey            string         `yaml:"apiKey"`
	CalendarID        string         `yaml:"calendarId"`
	CalendarKey       string         `yaml:"calendarKey"`
	Timezone          string         `yaml:"timezone"`
	DurationMinutes   int            `yaml:"durationMinutes"`
	DedupeWindowHours int            `yaml:"dedupeWindowHours"`
	PageSize          int            `yaml:"pageSize"`
	location          *time.Location `yaml:"-"`
}

// Location resolves the calendar timezone string to a time.Location.
func (c CalendarConfig) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GmailConfig points at the OAuth client and cached token files.
type GmailConfig struct {
	CredentialsFile string `yaml:"credentialsFile"`
	TokenFile       string `yaml:"tokenFile"`
	Query           string `yaml:"query"`
	User            string `yaml:"user"`
}

// ScraperConfig controls outbound requests to source websites.
type ScraperConfig struct {
	UserAgent         string  `yaml:"userAgent"`
	Timeout           string  `yaml:"timeout"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// RequestTimeout parses Timeout, falling back to twenty seconds.
func (s ScraperConfig) RequestTimeout() time.Duration {
	return parseDuration(s.Timeout, 20*time.Second)
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SourcesConfig lists adapters the bundles should skip.
type SourcesConfig struct {
	Disabled []string `yaml:"disabled"`
}

// IsDisabled reports whether the named adapter is switched off.
func (s SourcesConfig) IsDisabled(name string) bool {
	for _, d := range s.Disabled {
		if d == name {
			return true
		}
	}
	return false
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.ChatGPT.Model = v
	}
	if v := os.Getenv(addEventKeyEnv); v != "" {
		c.Calendar.APIKey = v
	}
	if v := os.Getenv(calendarIDEnv); v != "" {
		c.Calendar.CalendarID = v
	}
	if v := os.Getenv(calendarKeyEnv); v != "" {
		c.Calendar.CalendarKey = v
	}
	if v := os.Getenv(localTZEnv); v != "" {
		c.Calendar.Timezone = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(gmailTokenEnv); v != "" {
		c.Gmail.TokenFile = v
	}
	if v := os.Getenv(gmailCredsEnv); v != "" {
		c.Gmail.CredentialsFile = v
	}
	if v := os.Getenv(scraperRPSEnv); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil && rps > 0 {
			c.Scraper.RequestsPerSecond = rps
		} else {
			log.Printf("config: ignoring %s=%q", scraperRPSEnv, v)
		}
	}
	if v := os.Getenv(sessionTTLEnv); v != "" {
		c.Server.SessionTTL = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Calendar.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Calendar.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.CookieName != "" {
		base.Server.CookieName = override.Server.CookieName
	}
	if override.Server.SessionTTL != "" {
		base.Server.SessionTTL = override.Server.SessionTTL
	}
	if override.Server.SweepInterval != "" {
		base.Server.SweepInterval = override.Server.SweepInterval
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Table != "" {
		base.Database.Table = override.Database.Table
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.Timeout != "" {
		base.ChatGPT.Timeout = override.ChatGPT.Timeout
	}

	if override.Calendar.APIBase != "" {
		base.Calendar.APIBase = override.Calendar.APIBase
	}
	if override.Calendar.APIKey != "" {
		base.Calendar.APIKey = override.Calendar.APIKey
	}
	if override.Calendar.CalendarID != "" {
		base.Calendar.CalendarID = override.Calendar.CalendarID
	}
	if override.Calendar.CalendarKey != "" {
		base.Calendar.CalendarKey = override.Calendar.CalendarKey
	}
	if override.Calendar.Timezone != "" {
		base.Calendar.Timezone = override.Calendar.Timezone
	}
	if override.Calendar.DurationMinutes > 0 {
		base.Calendar.DurationMinutes = override.Calendar.DurationMinutes
	}
	if override.Calendar.DedupeWindowHours > 0 {
		base.Calendar.DedupeWindowHours = override.Calendar.DedupeWindowHours
	}
	if override.Calendar.PageSize > 0 {
		base.Calendar.PageSize = override.Calendar.PageSize
	}

	if override.Gmail.CredentialsFile != "" {
		base.Gmail.CredentialsFile = override.Gmail.CredentialsFile
	}
	if override.Gmail.TokenFile != "" {
		base.Gmail.TokenFile = override.Gmail.TokenFile
	}
	if override.Gmail.Query != "" {
		base.Gmail.Query = override.Gmail.Query
	}
	if override.Gmail.User != "" {
		base.Gmail.User = override.Gmail.User
	}

	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.Timeout != "" {
		base.Scraper.Timeout = override.Scraper.Timeout
	}
	if override.Scraper.RequestsPerSecond > 0 {
		base.Scraper.RequestsPerSecond = override.Scraper.RequestsPerSecond
	}
	if override.Scraper.Burst > 0 {
		base.Scraper.Burst = override.Scraper.Burst
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if len(override.Sources.Disabled) > 0 {
		base.Sources.Disabled = override.Sources.Disabled
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			CookieName:    "pd_session",
			SessionTTL:    "12h",
			SweepInterval: "10m",
		},
		Database: DatabaseConfig{Table: "curation_sessions"},
		ChatGPT: ChatGPTConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-3.5-turbo",
			Timeout:  "30s",
		},
		Calendar: CalendarConfig{
			APIBase:           "https://api.addevent.com/calevent/v2",
			Timezone:          defaultTimezone,
			DurationMinutes:   60,
			DedupeWindowHours: 3,
			PageSize:          20,
		},
		Gmail: GmailConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			Query:           "is:unread",
			User:            "me",
		},
		Scraper: ScraperConfig{
			UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36",
			Timeout:           "20s",
			RequestsPerSecond: 2,
			Burst:             2,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
