package main

import (
	"os"
	"strings"
	"time"

	"codeberg.org/planhub/server/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// pre-authentication throttle per client IP, protecting the OAuth and
// ping endpoints that sit in front of the account-level quotas
const ipRateLimit = "300-M"

// configures cross-origin access for the frontend
func CORSMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}

	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Admin-Key")
	corsConfig.ExposeHeaders = []string{"X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour

	return cors.New(corsConfig)
}

// rate limits by client IP with a shared redis store; a store failure here
// must not take the API down, so the middleware degrades to a no-op
func IPRateLimitMiddleware(client *redis.Client) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(ipRateLimit)
	if err != nil {
		logger.ErrorErr(err, "invalid ip rate limit format, disabling ip throttle")
		return func(c *gin.Context) { c.Next() }
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "ratelimit:ip",
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create ip rate limit store, disabling ip throttle")
		return func(c *gin.Context) { c.Next() }
	}

	return mgin.NewMiddleware(limiter.New(store, rate))
}
