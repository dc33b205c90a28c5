package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Vision    VisionConfig
	R2        R2Config
	Jobs      JobsConfig
	Poller    PollerConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type VisionConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int // seconds
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type JobsConfig struct {
	TTL               int // seconds; job and result keys share this
	PopTimeout        int // seconds; bounded wait on the blocking pop
	Backoff           int // seconds; worker pause after a queue-level error
	VisibilityTimeout int // seconds; in-flight lease before the reaper requeues
	ReaperInterval    int // seconds
}

type PollerConfig struct {
	Interval    int // seconds between status reads
	MaxAttempts int
}

type RateLimitConfig struct {
	SubmitPerHour int
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("VISION_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("vision.api_key", "VISION_API_KEY")
	_ = viper.BindEnv("vision.base_url", "VISION_BASE_URL")
	_ = viper.BindEnv("vision.model", "VISION_MODEL")
	_ = viper.BindEnv("vision.timeout", "VISION_TIMEOUT")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("jobs.ttl", "JOBS_TTL")
	_ = viper.BindEnv("jobs.pop_timeout", "JOBS_POP_TIMEOUT")
	_ = viper.BindEnv("jobs.backoff", "JOBS_BACKOFF")
	_ = viper.BindEnv("jobs.visibility_timeout", "JOBS_VISIBILITY_TIMEOUT")
	_ = viper.BindEnv("jobs.reaper_interval", "JOBS_REAPER_INTERVAL")
	_ = viper.BindEnv("poller.interval", "POLLER_INTERVAL")
	_ = viper.BindEnv("poller.max_attempts", "POLLER_MAX_ATTEMPTS")
	_ = viper.BindEnv("ratelimit.submit_per_hour", "RATELIMIT_SUBMIT_PER_HOUR")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Vision defaults (OpenAI-compatible chat completions endpoint)
	viper.SetDefault("vision.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("vision.model", "meta-llama/llama-4-scout-17b-16e-instruct")
	viper.SetDefault("vision.timeout", 60)

	// Job pipeline defaults
	viper.SetDefault("jobs.ttl", 3600)
	viper.SetDefault("jobs.pop_timeout", 5)
	viper.SetDefault("jobs.backoff", 5)
	viper.SetDefault("jobs.visibility_timeout", 300)
	viper.SetDefault("jobs.reaper_interval", 60)

	// Poller defaults: 2s * 60 attempts = 2 minute ceiling
	viper.SetDefault("poller.interval", 2)
	viper.SetDefault("poller.max_attempts", 60)

	viper.SetDefault("ratelimit.submit_per_hour", 30)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Vision: VisionConfig{
			APIKey:  viper.GetString("vision.api_key"),
			BaseURL: viper.GetString("vision.base_url"),
			Model:   viper.GetString("vision.model"),
			Timeout: viper.GetInt("vision.timeout"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Jobs: JobsConfig{
			TTL:               viper.GetInt("jobs.ttl"),
			PopTimeout:        viper.GetInt("jobs.pop_timeout"),
			Backoff:           viper.GetInt("jobs.backoff"),
			VisibilityTimeout: viper.GetInt("jobs.visibility_timeout"),
			ReaperInterval:    viper.GetInt("jobs.reaper_interval"),
		},
		Poller: PollerConfig{
			Interval:    viper.GetInt("poller.interval"),
			MaxAttempts: viper.GetInt("poller.max_attempts"),
		},
		RateLimit: RateLimitConfig{
			SubmitPerHour: viper.GetInt("ratelimit.submit_per_hour"),
		},
	}

	return cfg, nil
}
