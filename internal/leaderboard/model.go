package leaderboard

import "time"

// Entry 排行榜缓存表，每次查看排行榜时全量重建
type Entry struct {
	ID               uint    `gorm:"primarykey"`
	UserID           uint    `gorm:"not null;uniqueIndex"`
	TotalRefutations int     `gorm:"not null"`
	AvgRating        float64 `gorm:"not null"`
	TotalEarned      int     `gorm:"not null;index"`
	UpdatedAt        time.Time
}

func (Entry) TableName() string {
	return "leaderboard"
}
