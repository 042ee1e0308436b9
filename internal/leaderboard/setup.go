package leaderboard

import (
	"fmt"

	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"gorm.io/gorm"
)

// MigrateDB 迁移leaderboard表
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("无法迁移leaderboard表: %w", err)
	}
	logger.Info("Leaderboard数据库表迁移成功。")
	return nil
}
