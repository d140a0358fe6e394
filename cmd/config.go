package main

import (
	"os"
	"strconv"
	"time"

	"github.com/hirelens/hirelens/pkg/logx"
)

// Config collects every runtime setting, read once from the environment.
// A missing .env file is fine; the environment may come from the runtime.
type Config struct {
	Port        string
	MetricsAddr string
	LogLevel    string

	RedisAddr     string
	RedisPassword string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	PostgresDSN string
	VectorSize  int

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	LLMModel       string
	EmbeddingModel string

	JobRetentionDays  int
	MaxAttempts       int
	VisibilityTimeout time.Duration
	WorkerCount       int

	MaxResumeChars    int
	EmbeddingBatchMax int

	VectorWeight float64
	GraphWeight  float64

	// Uploads land on S3 when a bucket is set, local disk otherwise.
	UploadDir string
	AWSBucket string
	AWSRegion string
	AWSPrefix string

	MaxPDFSizeMB   int
	MaxImageSizeMB int
}

func loadConfig() Config {
	return Config{
		Port:        envStr("PORT", "8080"),
		MetricsAddr: envStr("METRICS_ADDR", ":9090"),
		LogLevel:    envStr("LOG_LEVEL", "info"),

		RedisAddr:     envStr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		Neo4jURI:      envStr("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     envStr("NEO4J_USER", "neo4j"),
		Neo4jPassword: os.Getenv("NEO4J_PASSWORD"),
		Neo4jDatabase: envStr("NEO4J_DATABASE", "neo4j"),

		PostgresDSN: envStr("POSTGRES_DSN",
			"host=localhost port=5432 user=postgres password=postgres dbname=hirelens sslmode=disable"),
		VectorSize: envInt("VECTOR_SIZE", 384),

		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		LLMModel:       envStr("LLM_MODEL", "gpt-4o"),
		EmbeddingModel: envStr("EMBEDDING_MODEL", "text-embedding-3-small"),

		JobRetentionDays:  envInt("JOB_RETENTION_DAYS", 30),
		MaxAttempts:       envInt("MAX_ATTEMPTS", 3),
		VisibilityTimeout: time.Duration(envInt("VISIBILITY_TIMEOUT_SECONDS", 600)) * time.Second,
		WorkerCount:       envInt("WORKER_COUNT", 2),

		MaxResumeChars:    envInt("MAX_TOKENS_IN_RESUME_TO_PROCESS", 30000),
		EmbeddingBatchMax: envInt("EMBEDDING_BATCH_MAX", 64),

		VectorWeight: envFloat("DEFAULT_VECTOR_WEIGHT", 0.7),
		GraphWeight:  envFloat("DEFAULT_GRAPH_WEIGHT", 0.3),

		UploadDir: envStr("UPLOAD_DIR", "./uploads"),
		AWSBucket: os.Getenv("AWS_BUCKET"),
		AWSRegion: os.Getenv("AWS_REGION"),
		AWSPrefix: envStr("AWS_PREFIX", "uploads"),

		MaxPDFSizeMB:   envInt("MAX_PDF_SIZE_MB", 10),
		MaxImageSizeMB: envInt("MAX_IMAGE_SIZE_MB", 5),
	}
}

// logLevel maps the LOG_LEVEL value onto logx levels, defaulting to info.
func (c Config) logLevel() logx.Level {
	switch c.LogLevel {
	case "debug":
		return logx.LevelDebug
	case "warn":
		return logx.LevelWarn
	case "error":
		return logx.LevelError
	default:
		return logx.LevelInfo
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logx.Warnf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logx.Warnf("invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}
