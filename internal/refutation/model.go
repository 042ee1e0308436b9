package refutation

import (
	"encoding/json"
	"time"

	"github.com/SlpAus/falsifi-backend/internal/adjudication"
	"gorm.io/datatypes"
)

// Refutation 针对某个悬赏提交的反驳，提交时托管作者的保证金
type Refutation struct {
	ID         uint   `gorm:"primarykey"`
	BountyID   uint   `gorm:"not null;index"`
	AuthorID   uint   `gorm:"not null;index"`
	Content    string `gorm:"type:text;not null"`
	Sources    string `gorm:"type:text"`
	BondAmount int    `gorm:"not null"`

	// 自动评分结果，只写入一次；未评分时为nil
	AIScore            *float64
	AIFeedback         *string `gorm:"type:text"`
	AIFlags            datatypes.JSON
	AdjudicationStatus adjudication.Disposition `gorm:"type:varchar(20);not null;index"`

	// 悬赏创建者的人工评分，1-10，只能评一次
	CreatorRating   *int
	CreatorFeedback *string `gorm:"type:text"`
	RewardEarned    int     `gorm:"not null"`
	BondReturned    bool    `gorm:"not null"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// Flags 解析自动评分的标记列表
func (r *Refutation) Flags() []string {
	flags := []string{}
	if len(r.AIFlags) == 0 {
		return flags
	}
	if err := json.Unmarshal(r.AIFlags, &flags); err != nil || flags == nil {
		return []string{}
	}
	return flags
}

// IsRated 是否已经人工评分
func (r *Refutation) IsRated() bool {
	return r.CreatorRating != nil
}
