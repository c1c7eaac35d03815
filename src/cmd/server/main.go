package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"time"

	"stockgraph/src/adapters/http"
	"stockgraph/src/helper/env"
	"stockgraph/src/infra/kafka"
	"stockgraph/src/infra/postgres"
	"stockgraph/src/infra/redis"
	"stockgraph/src/repositories"
	"stockgraph/src/services/composite"
	"stockgraph/src/services/events"
	"stockgraph/src/services/migration"
	"stockgraph/src/services/relationships"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

func main() {
	// Configurar logger
	log.SetOutput(os.Stdout)
	log.Println("Starting API server with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newSQLClient,
			newRedisClient,
			newEventPublisher,
			newRepositoryFactory,
			newRelationshipService,
			newCompositeService,
			newMigrationService,
			newServer,
		),

		// Invocations
		fx.Invoke(registerServerHooks),
	)

	// Start the application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for app to exit gracefully
	<-app.Done()
}

func newLogger() *slog.Logger {
	logLevel := env.GetString("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// newSQLClient configures and returns a pgxpool connection pool
func newSQLClient() (*pgxpool.Pool, error) {
	dbHost := env.MustGetString("DB_HOST")
	dbPort := env.GetString("DB_PORT", "5432")
	dbname := env.MustGetString("DB_NAME")
	dbUser := env.MustGetString("DB_USER")
	dbPassword := env.MustGetString("DB_PASSWORD")
	maxConnections := env.GetInt("DB_MAX_POOL_CONNECTIONS", 25)

	return postgres.NewPostgresClient(dbHost, dbPort, dbname, dbUser, dbPassword, maxConnections)
}

func newRedisClient() *redis.RedisClient {
	addrs := env.MustGetString("REDIS_ADDRS")
	poolSize := env.GetInt("REDIS_POOL_SIZE", 100)
	ttl := env.GetDuration("REDIS_DEFAULT_TTL", 24*time.Hour)

	return redis.NewRedisClient(addrs, poolSize, ttl)
}

// newEventPublisher liga o publisher no broker quando KAFKA_BROKERS estiver
// configurado; sem broker o publisher é nil e vira no-op.
func newEventPublisher(logger *slog.Logger) (*events.Publisher, error) {
	brokers := env.GetString("KAFKA_BROKERS")
	if brokers == "" {
		logger.Warn("KAFKA_BROKERS not set, domain events disabled")
		return nil, nil
	}

	client, err := kafka.NewKafkaClient(brokers)
	if err != nil {
		return nil, err
	}

	topic := env.GetString("KAFKA_EVENTS_TOPIC", "stockgraph.events")
	return events.NewPublisher(logger, client, topic), nil
}

func newRepositoryFactory(pool *pgxpool.Pool) *repositories.Factory {
	return repositories.NewFactory(repositories.NewPostgresBackend(pool))
}

func newRelationshipService(
	logger *slog.Logger,
	factory *repositories.Factory,
	publisher *events.Publisher,
) *relationships.RelationshipService {
	return relationships.NewRelationshipService(logger, factory.RelationshipRepository(), factory.Runner(), publisher)
}

func newCompositeService(
	logger *slog.Logger,
	factory *repositories.Factory,
	relationshipService *relationships.RelationshipService,
	publisher *events.Publisher,
) *composite.CompositeService {
	return composite.NewCompositeService(logger, factory, relationshipService, publisher)
}

func newMigrationService(
	logger *slog.Logger,
	factory *repositories.Factory,
	relationshipService *relationships.RelationshipService,
	redisClient *redis.RedisClient,
	publisher *events.Publisher,
) *migration.MigrationService {
	return migration.NewMigrationService(logger, factory, relationshipService, redisClient, publisher)
}

func newServer(
	logger *slog.Logger,
	relationshipService *relationships.RelationshipService,
	compositeService *composite.CompositeService,
	migrationService *migration.MigrationService,
	pool *pgxpool.Pool,
	redisClient *redis.RedisClient,
) *http.Server {
	port := env.GetInt("SERVER_PORT", 8888)

	healthChecks := map[string]func(ctx context.Context) error{
		"postgres": pool.Ping,
		"redis":    redisClient.HealthCheck,
	}

	return http.NewServer(logger, port, relationshipService, compositeService, migrationService, healthChecks)
}

// registerServerHooks registers lifecycle hooks for the HTTP server
func registerServerHooks(lc fx.Lifecycle, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Start server in a separate goroutine
			go func() {
				if err := srv.Start(); err != nil && err != nethttp.ErrServerClosed {
					log.Fatalf("Server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Create timeout context for graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			log.Println("Shutting down server...")
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Server forced to shutdown: %v", err)
				return err
			}
			log.Println("Server exited gracefully")
			return nil
		},
	})
}
