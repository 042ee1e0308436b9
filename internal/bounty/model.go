package bounty

import "time"

// Status 悬赏的状态
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusExpired Status = "expired"
)

const DefaultCategory = "general"

// Bounty 一条带有托管积分的主张，等待他人反驳
type Bounty struct {
	ID          uint   `gorm:"primarykey"`
	Title       string `gorm:"type:varchar(200);not null"`
	Description string `gorm:"type:text;not null"`
	Category    string `gorm:"type:varchar(50);not null;index"`

	// Amount 创建时从创建者余额中扣除并托管的积分
	Amount    int    `gorm:"not null"`
	CreatorID uint   `gorm:"not null;index"`
	Status    Status `gorm:"type:varchar(20);not null;index"`

	// AutoAdjudicate 提交反驳后是否立即自动评分
	AutoAdjudicate bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"index"`
	ExpiresAt time.Time `gorm:"index"`
}

// IsOpen 是否还接受新的反驳
func (b *Bounty) IsOpen() bool {
	return b.Status == StatusOpen
}
