package main

import (
	"codeberg.org/planhub/server/internal/access"
	"codeberg.org/planhub/server/internal/concurrency"
	"codeberg.org/planhub/server/internal/config"
	"codeberg.org/planhub/server/internal/gate"
	"codeberg.org/planhub/server/internal/llm"
	"codeberg.org/planhub/server/internal/ratelimit"
	"codeberg.org/planhub/server/planhub/accounts"
	"codeberg.org/planhub/server/planhub/projects"
	"codeberg.org/planhub/server/planhub/usage"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// holds all dependencies and state for the API server
type Server struct {
	db          *pgxpool.Pool
	redis       *redis.Client
	config      *config.Config
	accountRepo *accounts.Repository
	projectRepo *projects.Repository
	usageRepo   *usage.Repository
	resolver    *access.Resolver
	limiter     *ratelimit.Limiter
	guard       *concurrency.Guard
	gate        *gate.Gate
	services    *Services
	router      *gin.Engine
}

// holds all external service clients
type Services struct {
	Generator llm.TextGenerator
}
