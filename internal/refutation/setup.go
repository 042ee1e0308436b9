package refutation

import (
	"fmt"

	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"gorm.io/gorm"
)

// MigrateDB 迁移refutations表
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Refutation{}); err != nil {
		return fmt.Errorf("无法迁移refutation表: %w", err)
	}
	logger.Info("Refutation数据库表迁移成功。")
	return nil
}
