package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Inference    InferenceConfig
	Predictor    PredictorConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Encoding    string
	Development bool
	Service     string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig holds notification sinks.
type NotificationConfig struct {
	WebhookURL string
	FeedLimit  int
}

// InferenceConfig configures the optional hosted inference endpoint.
// An empty Token disables every remote prediction path.
type InferenceConfig struct {
	Token                string
	BaseURL              string
	TextGenerationModels []string
	SentimentModels      []string
	TimeoutSeconds       int
}

// PredictorConfig tunes the task duration estimator.
type PredictorConfig struct {
	RemoteTaskLimit   int
	CallDelayMillis   int
	ModelCacheTTLMins int
	ModelCacheBackend string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cacheBackend := strings.ToLower(getEnv("PREDICTOR_MODEL_CACHE", "memory"))
	if cacheBackend != "memory" && cacheBackend != "redis" {
		return nil, fmt.Errorf("invalid PREDICTOR_MODEL_CACHE %q: want memory or redis", cacheBackend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "teamboard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Encoding:    getEnv("LOG_ENCODING", "json"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
			Service:     getEnv("APP_NAME", "teamboard"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			FeedLimit:  getEnvAsInt("NOTIFY_FEED_LIMIT", 50),
		},
		Inference: InferenceConfig{
			Token:   os.Getenv("HF_API_TOKEN"),
			BaseURL: getEnv("HF_BASE_URL", "https://api-inference.huggingface.co"),
			TextGenerationModels: getEnvAsList("HF_TEXT_MODELS", []string{
				"gpt2",
				"distilgpt2",
			}),
			SentimentModels: getEnvAsList("HF_SENTIMENT_MODELS", []string{
				"distilbert-base-uncased-finetuned-sst-2-english",
				"cardiffnlp/twitter-roberta-base-sentiment",
			}),
			TimeoutSeconds: getEnvAsInt("HF_TIMEOUT_SECONDS", 10),
		},
		Predictor: PredictorConfig{
			RemoteTaskLimit:   getEnvAsInt("PREDICTOR_REMOTE_TASK_LIMIT", 5),
			CallDelayMillis:   getEnvAsInt("PREDICTOR_CALL_DELAY_MS", 200),
			ModelCacheTTLMins: getEnvAsInt("PREDICTOR_MODEL_CACHE_TTL_MINUTES", 60),
			ModelCacheBackend: cacheBackend,
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Enabled reports whether remote inference can be attempted at all.
func (i InferenceConfig) Enabled() bool {
	return strings.TrimSpace(i.Token) != ""
}

// Timeout returns the per-call inference timeout.
func (i InferenceConfig) Timeout() time.Duration {
	if i.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// CallDelay returns the pause inserted between remote per-task calls.
func (p PredictorConfig) CallDelay() time.Duration {
	if p.CallDelayMillis < 0 {
		return 0
	}
	return time.Duration(p.CallDelayMillis) * time.Millisecond
}

// ModelCacheTTL returns how long discovered models stay cached. Zero means forever.
func (p PredictorConfig) ModelCacheTTL() time.Duration {
	if p.ModelCacheTTLMins <= 0 {
		return 0
	}
	return time.Duration(p.ModelCacheTTLMins) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
