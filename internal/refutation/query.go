package refutation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"gorm.io/gorm"
)

// Get 按ID查询
func (s *Service) Get(ctx context.Context, id uint) (*Refutation, error) {
	var r Refutation
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "反驳不存在", nil)
		}
		return nil, fmt.Errorf("查询反驳失败: %w", err)
	}
	return &r, nil
}

// ListByBounty 某个悬赏下的反驳，最新的在前
func (s *Service) ListByBounty(ctx context.Context, bountyID uint) ([]Refutation, error) {
	var list []Refutation
	err := s.db.WithContext(ctx).
		Where("bounty_id = ?", bountyID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("查询悬赏的反驳失败: %w", err)
	}
	return list, nil
}

// ListByAuthor 某个用户提交的反驳，最新的在前
func (s *Service) ListByAuthor(ctx context.Context, authorID uint) ([]Refutation, error) {
	var list []Refutation
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户的反驳失败: %w", err)
	}
	return list, nil
}

// CountByBounty 批量统计每个悬赏的反驳数，没有反驳的悬赏不出现在结果中
func (s *Service) CountByBounty(ctx context.Context, bountyIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(bountyIDs))
	if len(bountyIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		BountyID uint
		Count    int64
	}
	err := s.db.WithContext(ctx).Model(&Refutation{}).
		Select("bounty_id, COUNT(*) AS count").
		Where("bounty_id IN ?", bountyIDs).
		Group("bounty_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("统计反驳数失败: %w", err)
	}
	for _, row := range rows {
		counts[row.BountyID] = row.Count
	}
	return counts, nil
}

// Count 反驳总数
func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Refutation{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计反驳总数失败: %w", err)
	}
	return n, nil
}

// CountByAuthor 某个用户提交的反驳数
func (s *Service) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Refutation{}).Where("author_id = ?", authorID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计用户反驳数失败: %w", err)
	}
	return n, nil
}

// AverageRating 某个悬赏下所有人工评分的平均值，没有评分时返回nil
func (s *Service) AverageRating(ctx context.Context, bountyID uint) (*float64, error) {
	avg, err := scanAverage(s.db.WithContext(ctx).Model(&Refutation{}).
		Where("bounty_id = ? AND creator_rating IS NOT NULL", bountyID))
	if err != nil {
		return nil, fmt.Errorf("计算平均评分失败: %w", err)
	}
	return avg, nil
}

// scanAverage 读取AVG(creator_rating)，结果为NULL时返回nil
func scanAverage(q *gorm.DB) (*float64, error) {
	var avg sql.NullFloat64
	if err := q.Select("AVG(creator_rating)").Row().Scan(&avg); err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	v := avg.Float64
	return &v, nil
}

// AuthorStats 作者累计获得的奖励和收到的平均评分
type AuthorStats struct {
	TotalEarned int
	AvgRating   *float64
	Count       int64
}

func (s *Service) StatsForAuthor(ctx context.Context, authorID uint) (AuthorStats, error) {
	var row struct {
		TotalEarned int
		Count       int64
	}
	err := s.db.WithContext(ctx).Model(&Refutation{}).
		Select("COALESCE(SUM(reward_earned), 0) AS total_earned, COUNT(*) AS count").
		Where("author_id = ?", authorID).
		Scan(&row).Error
	if err != nil {
		return AuthorStats{}, fmt.Errorf("统计作者数据失败: %w", err)
	}

	avg, err := scanAverage(s.db.WithContext(ctx).Model(&Refutation{}).
		Where("author_id = ? AND creator_rating IS NOT NULL", authorID))
	if err != nil {
		return AuthorStats{}, fmt.Errorf("计算作者平均评分失败: %w", err)
	}

	return AuthorStats{TotalEarned: row.TotalEarned, AvgRating: avg, Count: row.Count}, nil
}
