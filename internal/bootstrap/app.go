package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docqa/internal/ai"
	"docqa/internal/app"
	"docqa/internal/cache"
	"docqa/internal/config"
	"docqa/internal/extract"
	"docqa/internal/index"
	"docqa/internal/model"
	"docqa/internal/notify"
	mysqlClient "docqa/internal/platform/mysql"
	postgresClient "docqa/internal/platform/postgres"
	rabbitmqClient "docqa/internal/platform/rabbitmq"
	redisClient "docqa/internal/platform/redis"
	"docqa/internal/repository"
	"docqa/internal/worker"
)

type App struct {
	Config   *config.Config
	MySQL    *gorm.DB
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	MQConn   *amqp.Connection

	IngestService *app.IngestService
	Retriever     *app.Retriever
	AnswerService *app.AnswerService
	IngestWorker  *worker.IngestWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.Document{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	pgPool, err := postgresClient.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}

	vectorIndex := index.NewPgvectorIndex(pgPool, cfg.LLM.EmbeddingDim, cfg.Retrieval.Probes)
	if err := vectorIndex.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure vector schema failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	docRepo := repository.NewDocumentRepository(mysqlDB)
	notifier := notify.NewRabbitMQNotifier(mqConn, cfg.RabbitMQ.DocumentStatusQueue)
	embedder := ai.NewEmbeddingClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.EmbeddingModel)
	completer := ai.NewChatClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	ocrEngine := extract.NewTesseractEngine(cfg.OCR.TesseractPath, cfg.OCR.Language, cfg.OCR.MinImageSide)
	extractor := extract.NewExtractor(ocrEngine)
	embeddingCache := cache.NewEmbeddingCache(redisCli, time.Duration(cfg.Redis.EmbeddingTTLSeconds)*time.Second)

	var reranker app.Reranker
	if cfg.LLM.RerankURL != "" {
		reranker = ai.NewRerankClient(cfg.LLM.RerankURL, cfg.LLM.RerankModel)
	}

	ingestService := app.NewIngestService(docRepo, extractor, embedder, vectorIndex, notifier, cfg.Ingest)
	retriever := app.NewRetriever(embedder, vectorIndex, reranker, embeddingCache, cfg.Retrieval)
	answerService := app.NewAnswerService(retriever, completer, embedder, vectorIndex)

	ingestWorker := worker.NewIngestWorker(ingestService, cfg.Ingest.QueueSize)
	if err := ingestWorker.Start(ctx, cfg.Ingest.Workers); err != nil {
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}

	return &App{
		Config:        cfg,
		MySQL:         mysqlDB,
		Postgres:      pgPool,
		Redis:         redisCli,
		MQConn:        mqConn,
		IngestService: ingestService,
		Retriever:     retriever,
		AnswerService: answerService,
		IngestWorker:  ingestWorker,
		StartedAt:     time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.AnswerService != nil {
		a.AnswerService.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Postgres != nil {
		a.Postgres.Close()
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
