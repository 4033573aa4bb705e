package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/infra"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports the catalog breaker state and
// the email dead letter backlog; never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, catalog *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		var dlq int64
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else if n, err := worker.DLQLength(ctx, rdb, worker.QueueEmail); err == nil {
			dlq = n
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":        status == http.StatusOK,
			"db":        dbStatus,
			"redis":     redisStatus,
			"email_dlq": dlq,
		}
		if catalog != nil {
			body["catalog"] = catalog.State().String()
		}
		c.JSON(status, body)
	}
}
