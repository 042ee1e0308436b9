package bounty

import (
	"fmt"

	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"gorm.io/gorm"
)

// MigrateDB 迁移bounties表
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Bounty{}); err != nil {
		return fmt.Errorf("无法迁移bounty表: %w", err)
	}
	logger.Info("Bounty数据库表迁移成功。")
	return nil
}
