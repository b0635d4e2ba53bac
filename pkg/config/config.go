package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Record store drivers for the communications board.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRemote   = "remote"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	CORS      CORSConfig
	Log       LogConfig
	Circulars CircularsConfig
	Board     BoardConfig
	Activity  ActivityConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig signs the simulated-identity tokens.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CircularsConfig selects the record store and tunes list endpoints.
type CircularsConfig struct {
	Store           string
	RemoteURL       string
	RemoteTimeout   time.Duration
	ArchivePageSize int
	StatsCacheTTL   time.Duration
	SeedFixtures    bool
}

// BoardConfig tunes the per-viewer board sessions.
type BoardConfig struct {
	UnreadPageSize   int
	RotationInterval time.Duration
	ScrollTolerance  float64
	AckFlashDuration time.Duration
	IdleTTL          time.Duration
}

// ActivityConfig sizes the recent-activity feed and its worker pool.
type ActivityConfig struct {
	MaxEntries int
	Workers    int
	Retries    int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		Secret: v.GetString("SESSION_SECRET"),
		TTL:    parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		Issuer: v.GetString("SESSION_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	store := strings.ToLower(strings.TrimSpace(v.GetString("CIRCULARS_STORE")))
	switch store {
	case StoreMemory, StorePostgres, StoreRemote:
	default:
		store = StoreMemory
	}
	cfg.Circulars = CircularsConfig{
		Store:           store,
		RemoteURL:       strings.TrimRight(v.GetString("CIRCULARS_REMOTE_URL"), "/"),
		RemoteTimeout:   parseDuration(v.GetString("CIRCULARS_REMOTE_TIMEOUT"), 5*time.Second),
		ArchivePageSize: positiveOr(v.GetInt("ARCHIVE_PAGE_SIZE"), 10),
		StatsCacheTTL:   parseDuration(v.GetString("STATS_CACHE_TTL"), time.Minute),
		SeedFixtures:    v.GetBool("SEED_FIXTURES"),
	}

	tolerance := v.GetFloat64("SCROLL_TOLERANCE_PX")
	if tolerance < 0 {
		tolerance = 5
	}
	cfg.Board = BoardConfig{
		UnreadPageSize:   positiveOr(v.GetInt("UNREAD_PAGE_SIZE"), 2),
		RotationInterval: parseDuration(v.GetString("ROTATION_INTERVAL"), 5*time.Second),
		ScrollTolerance:  tolerance,
		AckFlashDuration: parseDuration(v.GetString("ACK_FLASH_DURATION"), 850*time.Millisecond),
		IdleTTL:          parseDuration(v.GetString("BOARD_IDLE_TTL"), 30*time.Minute),
	}

	cfg.Activity = ActivityConfig{
		MaxEntries: positiveOr(v.GetInt("ACTIVITY_MAX_ENTRIES"), 50),
		Workers:    positiveOr(v.GetInt("ACTIVITY_WORKERS"), 1),
		Retries:    positiveOr(v.GetInt("ACTIVITY_RETRIES"), 3),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3001)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dims")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_ISSUER", "dims-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CIRCULARS_STORE", StoreMemory)
	v.SetDefault("CIRCULARS_REMOTE_URL", "http://localhost:3001/api")
	v.SetDefault("CIRCULARS_REMOTE_TIMEOUT", "5s")
	v.SetDefault("ARCHIVE_PAGE_SIZE", 10)
	v.SetDefault("STATS_CACHE_TTL", "1m")
	v.SetDefault("SEED_FIXTURES", true)

	v.SetDefault("UNREAD_PAGE_SIZE", 2)
	v.SetDefault("ROTATION_INTERVAL", "5s")
	v.SetDefault("SCROLL_TOLERANCE_PX", 5)
	v.SetDefault("ACK_FLASH_DURATION", "850ms")
	v.SetDefault("BOARD_IDLE_TTL", "30m")

	v.SetDefault("ACTIVITY_MAX_ENTRIES", 50)
	v.SetDefault("ACTIVITY_WORKERS", 1)
	v.SetDefault("ACTIVITY_RETRIES", 3)
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
