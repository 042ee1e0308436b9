// Package startup 负责应用启动时的数据表迁移、演示数据和缓存预热。
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/internal/leaderboard"
	"github.com/SlpAus/falsifi-backend/internal/ledger"
	"github.com/SlpAus/falsifi-backend/internal/platform/metadata"
	"github.com/SlpAus/falsifi-backend/internal/refutation"
	"github.com/SlpAus/falsifi-backend/internal/user"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"gorm.io/gorm"
)

type Options struct {
	SeedDemoData bool
	BountyTTL    time.Duration
}

// Migrate 迁移全部数据表
func Migrate(db *gorm.DB) error {
	steps := []func(*gorm.DB) error{
		metadata.PrimeDB,
		user.MigrateDB,
		ledger.MigrateDB,
		bounty.MigrateDB,
		refutation.MigrateDB,
		leaderboard.MigrateDB,
	}
	for _, step := range steps {
		if err := step(db); err != nil {
			return err
		}
	}
	return nil
}

// InitializeApplication 是应用启动时执行的总入口
func InitializeApplication(ctx context.Context, db *gorm.DB, board *leaderboard.Service, opts Options) error {
	logger.Info("开始应用初始化...")

	// 1. 迁移数据表
	if err := Migrate(db); err != nil {
		return err
	}

	// 2. 按需写入演示数据
	if opts.SeedDemoData {
		if _, err := SeedDemoData(ctx, db, opts.BountyTTL); err != nil {
			return fmt.Errorf("写入演示数据失败: %w", err)
		}
	}

	// 3. 重建排行榜，同时预热Redis镜像
	if err := board.Rebuild(ctx); err != nil {
		return fmt.Errorf("初始化排行榜失败: %w", err)
	}

	logger.Info("应用初始化完成！")
	return nil
}
