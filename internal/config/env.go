package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	MetricsPort string
	LogLevel    string
	LogFormat   string

	AIAPIKey   string
	GenModel   string
	EmbedModel string
	LLMRPM     int

	WikiBaseURL string
	UserAgent   string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	WorkerConcurrency  int
	BatchSize          int
	VectorBatchSize    int
	WorkerPollInterval time.Duration
	WaveDelay          time.Duration
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		AIAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GenModel:   getEnv("GEN_MODEL", "gemini-1.5-flash"),
		EmbedModel: getEnv("EMBED_MODEL", "text-embedding-004"),
		LLMRPM:     getEnvInt("LLM_RPM", 0),

		WikiBaseURL: getEnv("WIKI_BASE_URL", "https://en.wikipedia.org"),
		UserAgent:   getEnv("WIKI_USER_AGENT", "Wikifaq/1.0 (faq crawler)"),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "wikifaq-pages"),

		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 3),
		BatchSize:          getEnvInt("BATCH_SIZE", 10),
		VectorBatchSize:    getEnvInt("VECTOR_BATCH_SIZE", 50),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 30*time.Second),
		WaveDelay:          getEnvDuration("WAVE_DELAY", 2*time.Second),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// ArchiveEnabled reports whether the raw-page S3 archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.AwsAccessKey != "" && c.AwsSecretKey != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}
