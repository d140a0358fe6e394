package main

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/hirelens/hirelens/internal/ai/embeddings"
	"github.com/hirelens/hirelens/internal/ai/llmclient"
	"github.com/hirelens/hirelens/internal/ai/reviewer"
	"github.com/hirelens/hirelens/internal/ai/structurer"
	"github.com/hirelens/hirelens/internal/ai/visionocr"
	"github.com/hirelens/hirelens/internal/docparse"
	"github.com/hirelens/hirelens/pkg/fsx"
	"github.com/hirelens/hirelens/pkg/fsx/fsxlocal"
	"github.com/hirelens/hirelens/pkg/fsx/fsxs3"
	"github.com/hirelens/hirelens/pkg/logx"
	"github.com/hirelens/hirelens/pkg/metrics"
	"github.com/hirelens/hirelens/recruitment/rag/ragapi"
	"github.com/hirelens/hirelens/recruitment/rag/ragsrv"
	"github.com/hirelens/hirelens/recruitment/resume/resumeapi"
	"github.com/hirelens/hirelens/recruitment/resume/resumeinfra"
	"github.com/hirelens/hirelens/recruitment/resume/resumesrv"
	"github.com/hirelens/hirelens/recruitment/resume/worker"
	"github.com/hirelens/hirelens/recruitment/search"
	"github.com/hirelens/hirelens/recruitment/search/searchapi"
	"github.com/hirelens/hirelens/recruitment/search/searchinfra"
	"github.com/hirelens/hirelens/recruitment/search/searchsrv"
)

// Container holds all application dependencies.
type Container struct {
	Config Config

	// Infrastructure
	Redis   *redis.Client
	Neo4j   neo4j.DriverWithContext
	DB      *sqlx.DB
	Files   fsx.FileSystem
	Metrics *metrics.Metrics

	// Stores
	Jobs    *resumeinfra.RedisJobStore
	Queue   *resumeinfra.RedisQueue
	Graph   *resumeinfra.Neo4jStore
	Vectors *resumeinfra.PgVectorStore

	// Services
	ResumeService *resumesrv.Service
	SearchService *searchsrv.Service
	RAGService    *ragsrv.Service
	Workers       *worker.Pool

	// API Handlers
	ResumeHandlers *resumeapi.ResumeHandlers
	SearchHandlers *searchapi.SearchHandlers
	RAGHandlers    *ragapi.RAGHandlers
}

// newContainer wires every dependency. It fails hard on unreachable
// infrastructure so a misconfigured deploy dies at startup, not on the
// first request.
func newContainer(ctx context.Context, cfg Config) (*Container, error) {
	c := &Container{Config: cfg, Metrics: metrics.New()}
	if err := c.initInfrastructure(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.initServices()
	return c, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.Config

	// 1. Redis: jobs, queue and retry state all live here.
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	// 2. Neo4j: the structured resume graph.
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return fmt.Errorf("create neo4j driver: %w", err)
	}
	c.Neo4j = driver
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("connect to neo4j at %s: %w", cfg.Neo4jURI, err)
	}

	// 3. Postgres with pgvector: embedding storage and search.
	db, err := sqlx.Connect("postgres", cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	c.DB = db

	// 4. Upload storage: S3 when a bucket is configured, local disk otherwise.
	if cfg.AWSBucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		c.Files = fsxs3.NewS3FileSystem(s3.NewFromConfig(awsCfg), cfg.AWSBucket, cfg.AWSPrefix)
		logx.Infow("using S3 upload storage", "bucket", cfg.AWSBucket, "prefix", cfg.AWSPrefix)
	} else {
		local, err := fsxlocal.NewLocalFileSystem(cfg.UploadDir)
		if err != nil {
			return fmt.Errorf("prepare upload dir %s: %w", cfg.UploadDir, err)
		}
		c.Files = local
		logx.Infow("using local upload storage", "dir", cfg.UploadDir)
	}

	// 5. Stores.
	c.Jobs = resumeinfra.NewRedisJobStore(c.Redis, resumeinfra.RedisJobStoreConfig{
		Retention: time.Duration(cfg.JobRetentionDays) * 24 * time.Hour,
	})
	c.Queue = resumeinfra.NewRedisQueue(c.Redis, resumeinfra.RedisQueueConfig{
		VisibilityTimeout: cfg.VisibilityTimeout,
		MaxAttempts:       cfg.MaxAttempts,
	})
	c.Graph = resumeinfra.NewNeo4jStore(c.Neo4j, cfg.Neo4jDatabase)
	c.Vectors = resumeinfra.NewPgVectorStore(c.DB, cfg.VectorSize, c.Metrics)

	if err := c.Graph.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure neo4j schema: %w", err)
	}
	if err := c.Vectors.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure pgvector schema: %w", err)
	}
	return nil
}

func (c *Container) initServices() {
	cfg := c.Config

	llm := llmclient.New(llmclient.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.LLMModel,
	})
	encoder := embeddings.NewGenerator(embeddings.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.VectorSize,
		BatchMax:   cfg.EmbeddingBatchMax,
		OnStateChange: func(name string, state gobreaker.State) {
			c.Metrics.SetBreakerState(name, float64(state))
		},
	})

	c.ResumeService = resumesrv.NewService(resumesrv.Dependencies{
		Jobs:       c.Jobs,
		Queue:      c.Queue,
		Graph:      c.Graph,
		Vectors:    c.Vectors,
		Files:      c.Files,
		OCR:        visionocr.New(llm),
		Structurer: structurer.NewWithLimit(llm, cfg.MaxResumeChars),
		Reviewer:   reviewer.New(llm),
		Encoder:    encoder,
		Metrics:    c.Metrics,
		Limits: docparse.Limits{
			MaxPDFBytes:   int64(cfg.MaxPDFSizeMB) << 20,
			MaxImageBytes: int64(cfg.MaxImageSizeMB) << 20,
		},
	})
	c.SearchService = searchsrv.NewService(searchsrv.Dependencies{
		Graph:   searchinfra.NewNeo4jSearch(c.Neo4j, cfg.Neo4jDatabase),
		Vectors: c.Vectors,
		Resumes: c.Graph,
		Encoder: encoder,
		Metrics: c.Metrics,
		Weights: search.Weights{Vector: cfg.VectorWeight, Graph: cfg.GraphWeight},
	})
	c.RAGService = ragsrv.NewService(ragsrv.Dependencies{
		LLM:     llm,
		Resumes: c.Graph,
		Vectors: c.Vectors,
		Encoder: encoder,
		Metrics: c.Metrics,
	})
	c.Workers = worker.NewPool(c.ResumeService, c.Queue, c.Metrics, cfg.WorkerCount)

	c.ResumeHandlers = resumeapi.NewResumeHandlers(c.ResumeService)
	c.SearchHandlers = searchapi.NewSearchHandlers(c.SearchService)
	c.RAGHandlers = ragapi.NewRAGHandlers(c.RAGService)
}

// Close releases infrastructure connections in reverse dependency order.
func (c *Container) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Warnf("closing postgres: %v", err)
		}
	}
	if c.Neo4j != nil {
		if err := c.Neo4j.Close(context.Background()); err != nil {
			logx.Warnf("closing neo4j: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Warnf("closing redis: %v", err)
		}
	}
}
