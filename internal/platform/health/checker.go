// Package health 定期检查Redis缓存层，在Redis重启后重新预热缓存。
package health

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/SlpAus/falsifi-backend/internal/platform/database"
	"github.com/SlpAus/falsifi-backend/pkg/lifecycle"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// RebuildFunc 把数据库中的数据重新写入Redis
type RebuildFunc func(ctx context.Context) error

// Checker 通过Redis的run_id判断Redis是否重启过
type Checker struct {
	runID   func(ctx context.Context) (string, error)
	rebuild RebuildFunc
	status  *tracker
}

func NewChecker(rdb *redis.Client, rebuild RebuildFunc) *Checker {
	return &Checker{
		runID:   func(ctx context.Context) (string, error) { return redisRunID(ctx, rdb) },
		rebuild: rebuild,
		status:  newTracker(),
	}
}

// redisRunID 从Redis服务器信息中提取run_id
func redisRunID(ctx context.Context, rdb *redis.Client) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	info, err := rdb.Info(ctx, "server").Result()
	if err != nil {
		return "", err
	}
	matches := runIDPattern.FindStringSubmatch(info)
	if len(matches) < 2 {
		return "", fmt.Errorf("无法在Redis INFO中找到run_id")
	}
	return matches[1], nil
}

// Init 在启动时记录初始的run_id，Redis不可用时直接进入降级状态
func (c *Checker) Init(ctx context.Context) {
	runID, err := c.runID(ctx)
	if err != nil {
		logger.WithError(err).Warn("无法获取初始Redis Run ID，Redis标记为不可用")
		c.status.Assess(false, "")
		database.UpdateStatus(false, "")
		return
	}
	c.status.setInitialRunID(runID)
	database.SetInitialRunID(runID)
	logger.Infof("获取初始Redis Run ID成功: %s", runID)
}

// State 当前的健康状态
func (c *Checker) State() State {
	return c.status.State()
}

// CheckOnce 执行一次完整的健康检查和可能的缓存重建
func (c *Checker) CheckOnce(ctx context.Context) {
	runID, err := c.runID(ctx)
	connected := err == nil

	if c.status.Assess(connected, runID) {
		logger.Info("健康检查: 正在触发缓存热重建...")
		rebuildErr := c.rebuild(ctx)
		if rebuildErr != nil {
			logger.WithError(rebuildErr).Error("健康检查错误: 缓存热重建失败")
		}
		// 重建后再次读取run_id，确认重建期间Redis没有再次重启
		after, afterErr := c.runID(ctx)
		c.status.MarkRebuildComplete(rebuildErr == nil && afterErr == nil, after)
	}

	database.UpdateStatus(c.status.State() == StateHealthy, runID)
}

// Run 阻塞式地定期执行健康检查，直到收到停机信号
func (c *Checker) Run(h *lifecycle.Handle) {
	logger.Info("Redis健康检查器已启动。")
	for {
		if err := h.Sleep(checkInterval); err != nil {
			logger.Info("Redis健康检查器: 收到停机信号，正在关闭...")
			return
		}
		c.CheckOnce(h.Ctx())
	}
}
