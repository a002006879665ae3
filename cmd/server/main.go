package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"paycustom/internal/customization/cache"
	customizationmetrics "paycustom/internal/customization/metrics"
	customizationservice "paycustom/internal/customization/service"
	customizationstore "paycustom/internal/customization/store"
	"paycustom/internal/decision"
	decisionmetrics "paycustom/internal/decision/metrics"
	"paycustom/internal/decision/ports"
	"paycustom/internal/platform/config"
	"paycustom/internal/platform/httpserver"
	"paycustom/internal/platform/kafka"
	"paycustom/internal/platform/logger"
	"paycustom/internal/platform/postgres"
	platformredis "paycustom/internal/platform/redis"
	"paycustom/pkg/platform/audit"
	auditkafka "paycustom/pkg/platform/audit/publishers/kafka"
	auditmemory "paycustom/pkg/platform/audit/store/memory"
	auditworker "paycustom/pkg/platform/audit/worker"
	"paycustom/pkg/platform/circuit"
)

// infra holds the optional backing services. Nil fields are not configured.
type infra struct {
	db    *sql.DB
	redis *platformredis.Client
	kafka *kgo.Client
}

func (i *infra) close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

// main wires dependencies, serves HTTP and runs the audit worker until
// SIGINT or SIGTERM. Business logic lives in internal packages.
func main() {
	if err := run(); err != nil {
		slog.Error("paycustom exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if deps.redis != nil {
		if err := deps.redis.RegisterPoolMetrics(reg); err != nil {
			return err
		}
	}

	auditing, err := buildAudit(ctx, cfg, deps, log)
	if err != nil {
		return err
	}

	customizations, configs, err := buildCustomizations(ctx, cfg, deps, reg, auditing.publisher, log)
	if err != nil {
		return err
	}

	matcher, err := decision.ParseMatchStrategy(cfg.Decision.MatchStrategy)
	if err != nil {
		return err
	}
	decisions, err := decision.NewService(
		decision.NewEngine(decision.WithMatcher(matcher), decision.WithLogger(log)),
		decision.WithConfigSource(configs),
		decision.WithAuditPublisher(auditing.publisher),
		decision.WithMetrics(decisionmetrics.New(reg)),
		decision.WithServiceLogger(log),
	)
	if err != nil {
		return err
	}

	router := newRouter(routerDeps{
		decisions:      decisions,
		customizations: customizations,
		auditEvents:    auditing.recent,
		registry:       reg,
		health:         deps.health,
		logger:         log,
	})
	srv := httpserver.New(cfg.Addr, router, httpserver.WithTimeouts(cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return auditing.worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting paycustom", "addr", cfg.Addr, "match_strategy", cfg.Decision.MatchStrategy)
		return httpserver.Run(gctx, srv, cfg.ShutdownTimeout, log)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if dropped := auditing.publisher.Dropped(); dropped > 0 {
		log.Warn("audit events dropped", "count", dropped)
	}
	return nil
}

func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	deps := &infra{}
	var err error

	if deps.db, err = postgres.Open(ctx, cfg.Postgres); err != nil {
		return nil, err
	}
	if deps.redis, err = platformredis.New(ctx, cfg.Redis); err != nil {
		deps.close()
		return nil, err
	}
	if deps.kafka, err = kafka.NewClient(ctx, cfg.Kafka); err != nil {
		deps.close()
		return nil, err
	}

	log.Info("backing services",
		"postgres", deps.db != nil,
		"redis", deps.redis != nil,
		"kafka", deps.kafka != nil,
	)
	return deps, nil
}

// health reports the first failing backing service.
func (i *infra) health(ctx context.Context) error {
	if i.db != nil {
		if err := i.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if i.redis != nil {
		if err := i.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// auditPipeline is the publisher handed to services, the worker draining it,
// and the retained events when audit stays in memory.
type auditPipeline struct {
	publisher *auditworker.Publisher
	worker    *auditworker.Worker
	recent    *auditmemory.InMemoryStore
}

// buildAudit picks the Kafka sink when brokers are configured, otherwise a
// bounded in-memory store.
func buildAudit(ctx context.Context, cfg config.Server, deps *infra, log *slog.Logger) (*auditPipeline, error) {
	pipeline := &auditPipeline{publisher: auditworker.NewPublisher(cfg.Kafka.AuditBuffer)}

	var sink audit.Sink
	if deps.kafka != nil {
		if err := kafka.EnsureTopic(ctx, deps.kafka, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			return nil, err
		}
		sink = auditkafka.NewSink(deps.kafka, cfg.Kafka.AuditTopic)
	} else {
		pipeline.recent = auditmemory.NewInMemoryStore(cfg.Kafka.AuditRetain)
		sink = pipeline.recent
	}
	pipeline.worker = auditworker.NewWorker(sink, pipeline.publisher.Inbox(), log)
	return pipeline, nil
}

// buildCustomizations wires the store, the optional cache and the seed file.
// The returned ConfigSource is what the decision service reads.
func buildCustomizations(
	ctx context.Context,
	cfg config.Server,
	deps *infra,
	reg prometheus.Registerer,
	publisher *auditworker.Publisher,
	log *slog.Logger,
) (*customizationservice.Service, ports.ConfigSource, error) {
	var store interface {
		customizationservice.Store
		customizationstore.SeedTarget
	}
	if deps.db != nil {
		pg := customizationstore.NewPostgres(deps.db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		store = pg
	} else {
		store = customizationstore.NewInMemory()
	}

	if cfg.SeedFile != "" {
		seed, err := customizationstore.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		created, err := seed.Apply(ctx, store, time.Now())
		if err != nil {
			return nil, nil, err
		}
		log.Info("seeded payment customizations", "file", cfg.SeedFile, "created", created)
	}

	m := customizationmetrics.New(reg)
	opts := []customizationservice.Option{
		customizationservice.WithLogger(log),
		customizationservice.WithAuditPublisher(publisher),
		customizationservice.WithMetrics(m),
	}

	var configCache *cache.ConfigCache
	if deps.redis != nil {
		configCache = cache.New(deps.redis.Client, cfg.Redis.CacheTTL,
			cache.WithMetrics(m),
			cache.WithLogger(log),
			cache.WithBreaker(circuit.New("config-cache", circuit.WithCooldown(cfg.Redis.BreakerCooldown))),
		)
		opts = append(opts, customizationservice.WithCacheInvalidator(configCache))
	}

	svc := customizationservice.New(store, opts...)
	if configCache == nil {
		return svc, svc, nil
	}
	return svc, cache.NewReadThrough(configCache, svc), nil
}
