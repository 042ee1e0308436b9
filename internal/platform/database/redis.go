package database

import (
	"context"

	"github.com/SlpAus/falsifi-backend/internal/platform/config"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RDB 是全局Redis客户端。Redis被禁用时为nil，调用方需检查 RedisAvailable()。
var RDB *redis.Client

// Ctx 是Redis操作使用的默认上下文
var Ctx = context.Background()

// InitRedis 初始化与Redis的连接。Redis只承担缓存职责，连接失败时降级而不是退出。
func InitRedis(cfg config.RedisConfig) {
	if !cfg.Enabled {
		logger.Info("Redis未启用，排行榜缓存将直接读取数据库。")
		return
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := RDB.Ping(Ctx).Result(); err != nil {
		logger.WithError(err).Warn("无法连接到Redis，标记为不可用")
		UpdateStatus(false, "")
		return
	}

	logger.Info("Redis 连接成功！")
}

// RedisAvailable 判断Redis是否已配置且当前健康
func RedisAvailable() bool {
	return RDB != nil && IsRedisHealthy()
}
