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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Catalog   CatalogConfig
	Routines  RoutineConfig
	RateLimit RateLimitConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig controls where the section catalog comes from and how often it is reloaded.
type CatalogConfig struct {
	FeedURL         string
	FetchTimeout    time.Duration
	RefreshInterval time.Duration
	WorkerRetries   int
}

// RoutineConfig tunes routine generation, caching and persistence.
type RoutineConfig struct {
	MaxVisits          int
	SuggestionLimit    int
	ProposalTTL        time.Duration
	ProposalLimit      int
	CacheEnabled       bool
	CacheTTL           time.Duration
	PersistenceEnabled bool
	TermStart          time.Time
	TermWeeks          int
	Timezone           string
}

// RateLimitConfig bounds generation requests per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		FeedURL:         v.GetString("CATALOG_FEED_URL"),
		FetchTimeout:    parseDuration(v.GetString("CATALOG_FETCH_TIMEOUT"), 15*time.Second),
		RefreshInterval: parseDuration(v.GetString("CATALOG_REFRESH_INTERVAL"), 30*time.Minute),
		WorkerRetries:   v.GetInt("CATALOG_WORKER_RETRIES"),
	}

	cfg.Routines = RoutineConfig{
		MaxVisits:          v.GetInt("ROUTINE_MAX_VISITS"),
		SuggestionLimit:    v.GetInt("ROUTINE_SUGGESTION_LIMIT"),
		ProposalTTL:        parseDuration(v.GetString("ROUTINE_PROPOSAL_TTL"), 30*time.Minute),
		ProposalLimit:      v.GetInt("ROUTINE_PROPOSAL_LIMIT"),
		CacheEnabled:       v.GetBool("ENABLE_ROUTINE_CACHE"),
		CacheTTL:           parseDuration(v.GetString("ROUTINE_CACHE_TTL"), 10*time.Minute),
		PersistenceEnabled: v.GetBool("ENABLE_ROUTINE_PERSISTENCE"),
		TermStart:          parseDate(v.GetString("ROUTINE_TERM_START")),
		TermWeeks:          v.GetInt("ROUTINE_TERM_WEEKS"),
		Timezone:           v.GetString("ROUTINE_TIMEZONE"),
	}

	cfg.RateLimit = RateLimitConfig{
		RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		Burst: v.GetInt("RATE_LIMIT_BURST"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "routine_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOG_FEED_URL", "https://usis-cdn.eniamza.com/connect.json")
	v.SetDefault("CATALOG_FETCH_TIMEOUT", "15s")
	v.SetDefault("CATALOG_REFRESH_INTERVAL", "30m")
	v.SetDefault("CATALOG_WORKER_RETRIES", 3)

	v.SetDefault("ROUTINE_MAX_VISITS", 2000000)
	v.SetDefault("ROUTINE_SUGGESTION_LIMIT", 50)
	v.SetDefault("ROUTINE_PROPOSAL_TTL", "30m")
	v.SetDefault("ROUTINE_PROPOSAL_LIMIT", 256)
	v.SetDefault("ENABLE_ROUTINE_CACHE", false)
	v.SetDefault("ROUTINE_CACHE_TTL", "10m")
	v.SetDefault("ENABLE_ROUTINE_PERSISTENCE", false)
	v.SetDefault("ROUTINE_TERM_START", "")
	v.SetDefault("ROUTINE_TERM_WEEKS", 14)
	v.SetDefault("ROUTINE_TIMEZONE", "Asia/Dhaka")

	v.SetDefault("RATE_LIMIT_RPS", 2)
	v.SetDefault("RATE_LIMIT_BURST", 5)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return t
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
