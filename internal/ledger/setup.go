package ledger

import (
	"fmt"

	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"gorm.io/gorm"
)

// MigrateDB 迁移积分流水表
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("无法迁移ledger表: %w", err)
	}
	logger.Info("Ledger数据库表迁移成功。")
	return nil
}
