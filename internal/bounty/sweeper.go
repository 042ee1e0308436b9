package bounty

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/falsifi-backend/internal/platform/metadata"
	"github.com/SlpAus/falsifi-backend/pkg/lifecycle"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const sweepTimeout = 30 * time.Second

// ExpirySweeper 按cron表达式定期把过期悬赏标记为expired
type ExpirySweeper struct {
	bounties *Service
	db       *gorm.DB
	cron     *cron.Cron
	now      func() time.Time
}

// NewExpirySweeper 解析cron表达式并登记任务，表达式无效时返回错误
func NewExpirySweeper(db *gorm.DB, bounties *Service, spec string) (*ExpirySweeper, error) {
	s := &ExpirySweeper{
		bounties: bounties,
		db:       db,
		cron:     cron.New(),
		now:      time.Now,
	}

	if _, err := s.cron.AddFunc(spec, s.runScheduled); err != nil {
		return nil, fmt.Errorf("无效的过期扫描cron表达式 '%s': %w", spec, err)
	}
	return s, nil
}

func (s *ExpirySweeper) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.SweepOnce(ctx); err != nil {
		logger.WithError(err).Error("过期扫描失败")
	}
}

// SweepOnce 执行一次扫描并记录扫描时间
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.bounties.MarkExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if err := metadata.SetTime(s.db.WithContext(ctx), metadata.LastExpirySweepAtKey, now); err != nil {
		logger.WithError(err).Warn("无法记录过期扫描时间")
	}
	if n > 0 {
		logger.Infof("过期扫描: %d 个悬赏已标记为过期", n)
	}
	return n, nil
}

// Run 启动调度器并阻塞到停机信号，等待正在执行的任务结束后返回
func (s *ExpirySweeper) Run(h *lifecycle.Handle) {
	logger.Info("悬赏过期扫描已启动。")
	s.cron.Start()

	<-h.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	logger.Info("悬赏过期扫描已停止。")
}
