package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/amirhosseinghanipour/porti/internal/application/organization"
	"github.com/amirhosseinghanipour/porti/internal/application/ports"
	"github.com/amirhosseinghanipour/porti/internal/config"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/eventstore"
	esdbstore "github.com/amirhosseinghanipour/porti/internal/infrastructure/eventstore/esdb"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/eventstore/memory"
	httprouter "github.com/amirhosseinghanipour/porti/internal/infrastructure/http"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/http/middleware"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/persistence/db"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/persistence/postgres"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/projection"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/queue"
	"github.com/amirhosseinghanipour/porti/internal/infrastructure/webhook"
)

// memoryEventStoreURL selects the in-process event store (local runs only; nothing is persisted).
const memoryEventStoreURL = "memory://"

type eventStore interface {
	ports.EventStore
	ports.PersistentSubscriptions
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	log := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("parse DATABASE_URL")
	}
	poolCfg.MaxConns = cfg.Database.MaxConns
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("ensure read-model schema")
	}

	store, closeStore, err := openEventStore(cfg.EventStore.URL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open event store")
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	var (
		notifier    ports.ParkedEventNotifier = queue.NewLogNotifier(log)
		asynqWorker *queue.Worker
	)
	if redisClient != nil {
		asynqOpt, err := asynq.ParseRedisURI(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL for asynq")
		}
		enqueuer := queue.NewAsynqEnqueuer(asynqOpt, log)
		defer enqueuer.Close()
		notifier = enqueuer

		var emitter ports.WebhookEmitter = webhook.NewNoopEmitter()
		if cfg.Webhook.URL != "" {
			var opts []webhook.HTTPEmitterOption
			if cfg.Webhook.Secret != "" {
				opts = append(opts, webhook.WithHeader("Authorization", "Bearer "+cfg.Webhook.Secret))
			}
			emitter = webhook.NewHTTPEmitter(cfg.Webhook.URL, opts...)
		}
		asynqWorker = queue.NewWorker(asynqOpt, queue.NewParkedEventHandler(emitter, log))
	}

	codec := eventstore.NewCodec(cfg.EventStore.Namespace)
	repo := eventstore.NewOrganizationRepository(store, codec, log)
	queries := db.New(pool)
	readModel := postgres.NewOrganizationReadModel(queries, cfg.Server.PageSize, log)
	projector := postgres.NewOrganizationProjector(queries, log)
	subscriber := eventstore.NewOrganizationSubscriber(
		store, codec, projector, notifier,
		projection.NewMetrics(prometheus.DefaultRegisterer),
		eventstore.SubscriberConfig{
			Group:      cfg.Projection.SubscriptionName,
			BufferSize: cfg.Projection.BufferSize,
		},
		log,
	)
	if err := subscriber.PrepareSubscription(ctx); err != nil {
		log.Fatal().Err(err).Msg("prepare projection subscription")
	}

	ipLimit, err := middleware.NewIPRateLimiter(cfg.Server.RateLimitPerIP)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	router := httprouter.NewRouter(httprouter.RouterConfig{
		OrganizationsHandler: handlers.NewOrganizationsHandler(handlers.OrganizationUseCases{
			Create:        organization.NewCreateOrganization(repo),
			AddAccount:    organization.NewAddPlatformAccount(repo),
			RemoveAccount: organization.NewRemovePlatformAccount(repo),
			Get:           organization.NewGetOrganization(readModel),
			List:          organization.NewListOrganizations(readModel, readModel.PageSize()),
			Log:           organization.NewGetOrganizationLog(repo),
		}, log),
		HealthHandler: handlers.NewHealthHandler(pool, redisClient),
		AdminHandler:  handlers.NewAdminHandler(subscriber, log),
		RequireAdmin:  middleware.RequireAdminSecret(cfg.Server.AdminSecret),
		Log:           log,
		Secure:        middleware.NewSecure(middleware.SecureOptions(cfg.Server.SecureDevelopment)),
		CORS:          middleware.CORS(cfg.Server.CORSOrigins),
		IPRateLimit:   ipLimit,
		Metrics:       true,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	supervisor := eventstore.NewSupervisor(time.Second, cfg.Projection.RespawnMaxDelay, log)
	for i := 1; i <= cfg.Projection.Workers; i++ {
		workerID := i
		g.Go(func() error {
			return supervisor.Run(gctx, fmt.Sprintf("projection-%d", workerID), func(ctx context.Context) error {
				return subscriber.Run(ctx, workerID)
			})
		})
	}

	if asynqWorker != nil {
		if err := asynqWorker.Start(); err != nil {
			log.Fatal().Err(err).Msg("start asynq worker")
		}
		g.Go(func() error {
			<-gctx.Done()
			asynqWorker.Shutdown()
			return nil
		})
	}

	g.Go(func() error {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out io.Writer = os.Stderr
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func openEventStore(url string, log zerolog.Logger) (eventStore, func(), error) {
	if url == memoryEventStoreURL {
		log.Warn().Msg("using in-memory event store; events are lost on exit")
		return memory.NewStore(), func() {}, nil
	}
	store, err := esdbstore.Open(url, log)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("close event store")
		}
	}, nil
}
