package user

import (
	"time"
)

// User 平台用户。积分余额只能通过ledger包修改，用户永不删除。
type User struct {
	ID       uint   `gorm:"primarykey"`
	Username string `gorm:"type:varchar(80);uniqueIndex;not null"`
	Email    string `gorm:"type:varchar(120);uniqueIndex;not null"`

	// Points 当前可用积分，托管中的积分不计入
	Points int `gorm:"not null;default:0"`

	// ReputationScore 0-100，等于所有已评分反驳平均评分的十倍
	ReputationScore float64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
