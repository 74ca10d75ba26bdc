// Package bootstrap wires the adapters to the pipeline for each binary.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/config"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/ports"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/risk"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/usecase"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/docdecode"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/engines"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/fraudgraph"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/imaging"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/queue/nats"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/repository/postgres"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/resilience"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/riskmodel"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/sessionstore"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/storage/localfs"
)

// App holds the api binary's wiring.
type App struct {
	Config config.Config

	Pipeline  ports.VerificationPipeline
	Decisions ports.DecisionStore

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	decisions := postgres.NewDecisionRepository(db)
	if err := decisions.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	sessions := sessionstore.NewRedis(redisClient, cfg.SessionTTL)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	engineTimeout := time.Duration(cfg.EngineTimeoutSecond) * time.Second
	ocr := engines.NewOCRClient(cfg.OCRURL, engineTimeout, executor)
	faces := engines.NewFaceClient(cfg.FaceURL, engineTimeout, executor)

	var rasterizer docdecode.PageRasterizer
	if cfg.RasterizerURL != "" {
		rasterizer = engines.NewRasterizer(cfg.RasterizerURL, engineTimeout, executor)
	}
	decoder := docdecode.New(rasterizer)

	model, err := riskmodel.Load(cfg.FraudModelPath)
	if err != nil {
		return nil, fmt.Errorf("load fraud model: %w", err)
	}
	var fraudModel ports.FraudModel
	if model != nil {
		fraudModel = model
	}
	scorer := risk.New(fraudModel)

	var graph ports.IdentifierGraph
	graphClose := func() {}
	if cfg.Neo4jURI != "" {
		g, err := fraudgraph.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, fmt.Errorf("init fraud graph: %w", err)
		}
		graph = g
		graphClose = func() { _ = g.Close(context.Background()) }
	}

	pipeline := usecase.NewVerificationUseCase(
		sessions,
		storage,
		decoder,
		imaging.NewNormalizer(),
		ocr,
		faces,
		scorer,
		queue,
		graph,
	)

	return &App{
		Config:    cfg,
		Pipeline:  pipeline,
		Decisions: decisions,

		closeFn: func() {
			queue.Close()
			graphClose()
			_ = redisClient.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// WorkerApp holds the audit worker's wiring: the decision queue in, the
// decision store out.
type WorkerApp struct {
	Config config.Config

	Queue     *nats.Queue
	Decisions *postgres.DecisionRepository

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*WorkerApp, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	decisions := postgres.NewDecisionRepository(db)
	if err := decisions.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	return &WorkerApp{
		Config:    cfg,
		Queue:     queue,
		Decisions: decisions,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *WorkerApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
