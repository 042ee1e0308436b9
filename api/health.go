package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RedisState 报告Redis缓存层的状态: disabled / healthy / degraded / rebuilding
type RedisState func() string

// Healthz 数据库不可用时返回503，Redis只影响返回内容
func Healthz(db *gorm.DB, redisState RedisState) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		status := http.StatusOK
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			dbStatus = "unavailable"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"database": dbStatus,
			"redis":    redisState(),
		})
	}
}
