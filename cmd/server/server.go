package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/planhub/server/internal/access"
	"codeberg.org/planhub/server/internal/concurrency"
	"codeberg.org/planhub/server/internal/config"
	"codeberg.org/planhub/server/internal/gate"
	"codeberg.org/planhub/server/internal/ratelimit"
	"codeberg.org/planhub/server/planhub/accounts"
	"codeberg.org/planhub/server/planhub/projects"
	"codeberg.org/planhub/server/planhub/usage"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// in-flight slot keys outlive the guard's auto-release timer so a crashed
// instance cannot pin slots forever
const slotKeyTTL = 2 * concurrency.DefaultSlotTimeout

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// sized for a hosted pooler; PgBouncer in transaction mode cannot run
	// prepared statements, so force the simple protocol
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	accountRepo := accounts.NewRepository(db)
	projectRepo := projects.NewRepository(db)
	usageRepo := usage.NewRepository(db)

	resolver := access.NewResolver(projectRepo)
	limiter := ratelimit.New(accountRepo, usageRepo)

	// redis-backed slots so the concurrency ceiling holds across instances
	guard := concurrency.NewGuard(concurrency.NewRedisStore(redisClient, slotKeyTTL))

	services, err := InitializeServices()
	if err != nil {
		redisClient.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	router := gin.Default()

	server := &Server{
		db:          db,
		redis:       redisClient,
		config:      cfg,
		accountRepo: accountRepo,
		projectRepo: projectRepo,
		usageRepo:   usageRepo,
		resolver:    resolver,
		limiter:     limiter,
		guard:       guard,
		gate:        gate.New(accountRepo, limiter, guard, resolver),
		services:    services,
		router:      router,
	}

	RegisterRoutes(router, server)

	return server, nil
}
