package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/falsifi-backend/internal/platform/metadata"
	"github.com/SlpAus/falsifi-backend/internal/platform/metrics"
	"github.com/SlpAus/falsifi-backend/internal/refutation"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const DefaultLimit = 20

// Service 排行榜的重建与查询。Redis只做排名镜像，不可用时回退到数据库。
type Service struct {
	db      *gorm.DB
	rdb     *redis.Client
	healthy func() bool

	// mu 保证同一时间只有一次全量重建
	mu  sync.Mutex
	now func() time.Time
}

// NewService rdb可以为nil，healthy用于判断Redis当前是否可用
func NewService(db *gorm.DB, rdb *redis.Client, healthy func() bool) *Service {
	if healthy == nil {
		healthy = func() bool { return true }
	}
	return &Service{db: db, rdb: rdb, healthy: healthy, now: time.Now}
}

func (s *Service) redisReady() bool {
	return s.rdb != nil && s.healthy()
}

// Rebuild 清空排行榜并按每个作者的反驳重新汇总
func (s *Service) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.LeaderboardRebuildDuration.Observe(time.Since(start).Seconds())
	}()

	var entries []Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{}).Error; err != nil {
			return fmt.Errorf("清空排行榜失败: %w", err)
		}

		err := tx.Model(&refutation.Refutation{}).
			Select("author_id AS user_id, " +
				"COUNT(*) AS total_refutations, " +
				"COALESCE(AVG(creator_rating), 0) AS avg_rating, " +
				"COALESCE(SUM(reward_earned), 0) AS total_earned").
			Group("author_id").
			Scan(&entries).Error
		if err != nil {
			return fmt.Errorf("汇总反驳数据失败: %w", err)
		}

		if len(entries) > 0 {
			if err := tx.CreateInBatches(&entries, 100).Error; err != nil {
				return fmt.Errorf("写入排行榜失败: %w", err)
			}
		}
		return metadata.SetTime(tx, metadata.LeaderboardRebuiltAtKey, s.now())
	})
	if err != nil {
		return err
	}

	if s.redisReady() {
		if err := writeRanking(ctx, s.rdb, entries); err != nil {
			logger.WithError(err).Warn("排行榜Redis镜像更新失败，排名查询将回退到数据库")
		}
	}
	return nil
}

// WarmCache 把数据库中的排行榜写入Redis，启动和Redis重启后调用
func (s *Service) WarmCache(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	var entries []Entry
	if err := s.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return fmt.Errorf("读取排行榜失败: %w", err)
	}
	if err := writeRanking(ctx, s.rdb, entries); err != nil {
		return err
	}
	logger.Infof("成功预热 %d 条排行榜记录到Redis。", len(entries))
	return nil
}

// Top 按累计奖励从高到低取前limit名
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var entries []Entry
	err := s.db.WithContext(ctx).
		Order("total_earned DESC").Order("user_id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("查询排行榜失败: %w", err)
	}
	return entries, nil
}

// Rank 用户在排行榜上的名次，从1开始，并列时名次相同。不在榜上时返回false。
func (s *Service) Rank(ctx context.Context, userID uint) (int64, bool, error) {
	if s.redisReady() {
		rank, ok, err := readRank(ctx, s.rdb, userID)
		if err == nil {
			return rank, ok, nil
		}
		logger.WithError(err).Warn("从Redis读取排名失败，回退到数据库")
	}
	return s.rankFromDB(ctx, userID)
}

func (s *Service) rankFromDB(ctx context.Context, userID uint) (int64, bool, error) {
	var e Entry
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("查询排名失败: %w", err)
	}

	var higher int64
	if err := s.db.WithContext(ctx).Model(&Entry{}).Where("total_earned > ?", e.TotalEarned).Count(&higher).Error; err != nil {
		return 0, false, fmt.Errorf("查询排名失败: %w", err)
	}
	return higher + 1, true, nil
}

// LastRebuiltAt 最近一次重建的时间，从未重建时为零值
func (s *Service) LastRebuiltAt(ctx context.Context) (time.Time, error) {
	return metadata.GetTime(s.db.WithContext(ctx), metadata.LeaderboardRebuiltAtKey)
}
