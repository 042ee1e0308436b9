package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/falsifi-backend/internal/platform/metrics"
	"github.com/SlpAus/falsifi-backend/internal/user"
	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultHistoryLimit = 50

// Service 唯一允许修改用户积分的地方。
// Debit/Credit 接收调用方的事务，保证余额变动与业务记录一起提交或回滚。
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Debit 从用户余额中扣除amount。
// 余额不足时返回INSUFFICIENT_POINTS，用户不存在时返回NOT_FOUND，余额保持不变。
func (s *Service) Debit(tx *gorm.DB, userID uint, amount int, reason Reason, ref Ref) (*Entry, error) {
	if amount < 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "扣除数额不能为负", nil)
	}
	if amount == 0 {
		return nil, nil
	}

	// 比较并交换: 只有余额足够时才会更新
	res := tx.Model(&user.User{}).
		Where("id = ? AND points >= ?", userID, amount).
		Update("points", gorm.Expr("points - ?", amount))
	if res.Error != nil {
		return nil, fmt.Errorf("扣除积分失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&user.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("查询用户失败: %w", err)
		}
		if count == 0 {
			return nil, apperrors.New(apperrors.ErrNotFound, "用户不存在", nil)
		}
		return nil, apperrors.New(apperrors.ErrInsufficientPoints, fmt.Sprintf("积分不足，需要 %d 积分", amount), nil)
	}

	return s.record(tx, userID, -amount, reason, ref)
}

// Credit 给用户增加amount积分
func (s *Service) Credit(tx *gorm.DB, userID uint, amount int, reason Reason, ref Ref) (*Entry, error) {
	if amount < 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "增加数额不能为负", nil)
	}
	if amount == 0 {
		return nil, nil
	}

	res := tx.Model(&user.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", amount))
	if res.Error != nil {
		return nil, fmt.Errorf("增加积分失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.ErrNotFound, "用户不存在", nil)
	}

	return s.record(tx, userID, amount, reason, ref)
}

// record 读取变动后的余额并写入流水
func (s *Service) record(tx *gorm.DB, userID uint, delta int, reason Reason, ref Ref) (*Entry, error) {
	var u user.User
	if err := tx.Select("id", "points").First(&u, userID).Error; err != nil {
		return nil, fmt.Errorf("读取变动后余额失败: %w", err)
	}

	entry := &Entry{
		UserID:        userID,
		Delta:         delta,
		BalanceBefore: u.Points - delta,
		BalanceAfter:  u.Points,
		Reason:        reason,
		RefType:       ref.Type,
		RefID:         ref.ID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("写入积分流水失败: %w", err)
	}

	moved := delta
	if moved < 0 {
		moved = -moved
	}
	metrics.LedgerOperationsTotal.WithLabelValues(string(reason)).Inc()
	metrics.LedgerPointsTotal.WithLabelValues(string(reason)).Add(float64(moved))

	logger.WithFields(logrus.Fields{
		"user_id":       userID,
		"delta":         delta,
		"balance_after": u.Points,
		"reason":        reason,
		"ref_type":      ref.Type,
		"ref_id":        ref.ID,
	}).Debug("积分变动")
	return entry, nil
}

// Balance 查询当前余额
func (s *Service) Balance(ctx context.Context, userID uint) (int, error) {
	var u user.User
	if err := s.db.WithContext(ctx).Select("id", "points").First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.New(apperrors.ErrNotFound, "用户不存在", nil)
		}
		return 0, fmt.Errorf("查询余额失败: %w", err)
	}
	return u.Points, nil
}

// History 按时间倒序返回用户的流水，limit<=0时使用默认值
func (s *Service) History(ctx context.Context, userID uint, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("查询积分流水失败: %w", err)
	}
	return entries, nil
}
