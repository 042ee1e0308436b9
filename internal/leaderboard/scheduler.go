package leaderboard

import (
	"context"
	"errors"
	"time"

	"github.com/SlpAus/falsifi-backend/pkg/lifecycle"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
)

// RunRefresher 定期重建排行榜，使用户资料页的名次不依赖于有人查看排行榜
func (s *Service) RunRefresher(h *lifecycle.Handle, interval time.Duration) {
	logger.Infof("排行榜定时重建已启动，间隔 %v。", interval)

	for {
		// 可中断的休眠，收到停机信号时立刻退出
		if err := h.Sleep(interval); err != nil {
			logger.Info("排行榜定时重建: 收到停机信号，正在关闭...")
			return
		}

		if err := s.Rebuild(h.Ctx()); err != nil {
			// 停机导致的取消静默退出
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			logger.WithError(err).Error("排行榜定时重建失败")
			continue
		}
		logger.Debug("排行榜定时重建完成。")
	}
}
