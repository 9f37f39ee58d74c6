package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/translation-sim/internal/audit"
	auditstore "github.com/serroba/translation-sim/internal/audit/store"
	"github.com/serroba/translation-sim/internal/handlers"
	"github.com/serroba/translation-sim/internal/health"
	"github.com/serroba/translation-sim/internal/jobs"
	"github.com/serroba/translation-sim/internal/messaging"
	"github.com/serroba/translation-sim/internal/middleware"
	"github.com/serroba/translation-sim/internal/ratelimit"
	"github.com/serroba/translation-sim/internal/store"
	"go.uber.org/zap"
)

const (
	apiTitle      = "Video Translation Simulator"
	apiVersion    = "1.0.0"
	consumerGroup = "job-audit"
	jobIDLength   = 21
)

// RedisClient owns the shared Redis connection pool.
type RedisClient struct {
	*redis.Client
}

// Shutdown closes the connection pool.
func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// PostgresPool owns the PostgreSQL pool used by the audit sink.
type PostgresPool struct {
	*pgxpool.Pool
}

// Shutdown closes the pool.
func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}

// LoggerPackage provides the application logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// StorePackage provides the rate limit store, the job repository and the
// readiness checker for the configured backend.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.Store == StoreMemory {
			s := store.NewRateLimitMemoryStore()
			s.StartJanitor(opts.RateLimitWindow())

			return s, nil
		}

		return store.NewRateLimitRedisStore(do.MustInvoke[*RedisClient](i).Client), nil
	})

	do.Provide(injector, func(i *do.Injector) (jobs.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.Store == StoreMemory {
			return store.NewJobMemoryStore(opts.JobRetention()), nil
		}

		return store.NewJobRedisStore(do.MustInvoke[*RedisClient](i).Client, opts.JobRetention()), nil
	})

	do.Provide(injector, func(i *do.Injector) (health.Checker, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.Store == StoreMemory {
			if checker, ok := do.MustInvoke[jobs.Repository](i).(health.Checker); ok {
				return checker, nil
			}
		}

		return health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client), nil
	})
}

// RateLimitPackage provides the request limiter.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)

		return ratelimit.NewFixedWindowLimiter(
			do.MustInvoke[ratelimit.Store](i),
			int64(opts.MaxRequestsPerMinute),
			opts.RateLimitWindow(),
		), nil
	})
}

// PublisherGroupPackage provides the job event publisher. When events are
// disabled no broker connection is made and events are discarded.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		rc := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: rc.Client},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create redis stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[jobs.Event], error) {
		opts := do.MustInvoke[*Options](i)
		if !opts.EventsEnabled {
			return messaging.Discard[jobs.Event](), nil
		}

		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[jobs.Event](group.Publisher(), jobs.TopicEvents), nil
	})
}

// JobsPackage provides the job status tracker.
func JobsPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*jobs.Tracker, error) {
		opts := do.MustInvoke[*Options](i)

		cfg, err := opts.Simulation()
		if err != nil {
			return nil, err
		}

		random := jobs.NewGlobalRandom()
		if opts.Seed != 0 {
			random = jobs.NewSeededRandom(uint64(opts.Seed))
		}

		return jobs.NewTracker(
			do.MustInvoke[jobs.Repository](i),
			cfg,
			do.MustInvoke[*zap.Logger](i),
			jobs.WithRandom(random),
			jobs.WithPublisher(do.MustInvoke[messaging.Publish[jobs.Event]](i)),
		), nil
	})
}

// HTTPPackage provides the router and the Huma API with all routes registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		opts := do.MustInvoke[*Options](i)

		router := chi.NewMux()
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{opts.CORSOrigin},
			AllowedMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
				http.MethodDelete, http.MethodHead, http.MethodOptions,
			},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: true,
		}))

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		config := huma.DefaultConfig(apiTitle, apiVersion)
		config.Info.Description = "Simulates an asynchronous video translation job with random durations and failures."

		api := humachi.New(router, config)
		api.UseMiddleware(
			middleware.RequestLogger(logger),
			middleware.RateLimiter(api, do.MustInvoke[ratelimit.Limiter](i), logger),
		)

		newID, err := nanoid.Standard(jobIDLength)
		if err != nil {
			return nil, fmt.Errorf("create job id generator: %w", err)
		}

		jobHandler := handlers.NewJobHandler(do.MustInvoke[*jobs.Tracker](i), newID, logger)

		handlers.RegisterRoutes(api, jobHandler)
		health.RegisterRoutes(api, health.NewHandler(do.MustInvoke[health.Checker](i)))

		return api, nil
	})
}

// PostgresPackage provides the PostgreSQL pool for the audit sink.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		return &PostgresPool{Pool: pool}, nil
	})
}

// AuditStorePackage provides the sink job events are written to.
func AuditStorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (audit.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.EventsSink != SinkPostgres {
			return auditstore.NewNoop(logger), nil
		}

		pg := auditstore.NewPostgres(do.MustInvoke[*PostgresPool](i).Pool)
		if err := pg.Migrate(context.Background()); err != nil {
			return nil, fmt.Errorf("migrate job_events: %w", err)
		}

		return pg, nil
	})
}

// ConsumerGroupPackage provides the consumer group that audits job events.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		rc := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        rc.Client,
				ConsumerGroup: consumerGroup,
			},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create redis stream subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			jobs.TopicEvents,
			audit.NewHandler(do.MustInvoke[audit.Store](i), logger),
			logger,
		))

		return group, nil
	})
}
