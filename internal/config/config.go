package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	S3       S3Config
	Calendar CalendarConfig
	Log      LogConfig
}

type ServerConfig struct {
	AppName          string
	Port             string
	Environment      string
	BodyLimit        int
	AllowedOrigins   []string
	PublicAPIBaseURL string
	AuthRateLimit    int
	AuthRateWindow   time.Duration
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	PasswordMinLength int
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	// Path is used by the sqlite driver.
	Path string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether enough settings are present to talk to object storage.
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type CalendarMode string

const (
	CalendarModeGroups CalendarMode = "groups"
	CalendarModeRSVP   CalendarMode = "rsvp"
)

type CalendarConfig struct {
	Mode         CalendarMode
	UpcomingOnly bool
	Location     *time.Location
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			AppName:          getEnv("APP_NAME", "GroupMeet Backend"),
			Port:             getEnv("PORT", "8080"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			BodyLimit:        getEnvInt("BODY_LIMIT_BYTES", 8*1024*1024),
			AllowedOrigins:   splitCSV(getEnv("ALLOWED_ORIGINS", "")),
			PublicAPIBaseURL: strings.TrimRight(getEnv("PUBLIC_API_BASE_URL", ""), "/"),
			AuthRateLimit:    getEnvInt("AUTH_RATE_LIMIT", 20),
			AuthRateWindow:   getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			TokenTTL:          getEnvDuration("TOKEN_TTL", 60*time.Minute),
			PasswordMinLength: getEnvInt("PASSWORD_MIN_LENGTH", 8),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "groupmeet"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "groupmeet.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Endpoint:  strings.TrimSpace(getEnv("S3_ENDPOINT", "")),
			Region:    strings.TrimSpace(getEnv("S3_REGION", "")),
			Bucket:    strings.TrimSpace(getEnv("S3_BUCKET", "")),
			AccessKey: strings.TrimSpace(getEnv("S3_ACCESS_KEY", "")),
			SecretKey: strings.TrimSpace(getEnv("S3_SECRET_KEY", "")),
			UseSSL:    getEnvBool("S3_USE_SSL", false),
		},
		Calendar: CalendarConfig{
			Mode:         CalendarMode(strings.ToLower(getEnv("CALENDAR_MODE", string(CalendarModeGroups)))),
			UpcomingOnly: getEnvBool("CALENDAR_UPCOMING_ONLY", false),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "")),
		},
	}

	loc, err := time.LoadLocation(getEnv("EVENT_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_TIMEZONE: %w", err)
	}
	cfg.Calendar.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.Calendar.Mode {
	case CalendarModeGroups, CalendarModeRSVP:
	default:
		return fmt.Errorf("invalid CALENDAR_MODE %q (want groups or rsvp)", c.Calendar.Mode)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q (want postgres or sqlite)", c.Database.Driver)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

func splitCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
