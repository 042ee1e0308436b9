package bounty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SlpAus/falsifi-backend/internal/ledger"
	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const RefType = "bounty"

// Service 悬赏的创建、关闭和查询
type Service struct {
	db     *gorm.DB
	ledger *ledger.Service
	ttl    time.Duration
	now    func() time.Time
}

func NewService(db *gorm.DB, ledgerSvc *ledger.Service, ttl time.Duration) *Service {
	return &Service{db: db, ledger: ledgerSvc, ttl: ttl, now: time.Now}
}

// CreateInput 创建悬赏的参数
type CreateInput struct {
	Title          string
	Description    string
	Category       string
	Amount         int
	AutoAdjudicate bool
}

func (in *CreateInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))

	if in.Title == "" || len(in.Title) > 200 {
		return apperrors.New(apperrors.ErrInvalidInput, "标题不能为空且不超过200个字符", nil)
	}
	if in.Description == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "描述不能为空", nil)
	}
	if in.Category == "" {
		in.Category = DefaultCategory
	}
	if len(in.Category) > 50 {
		return apperrors.New(apperrors.ErrInvalidInput, "分类不能超过50个字符", nil)
	}
	if in.Amount <= 0 {
		return apperrors.New(apperrors.ErrInvalidInput, "悬赏积分必须大于0", nil)
	}
	return nil
}

// Create 在一个事务中创建悬赏并托管创建者的积分，余额不足时什么都不会写入
func (s *Service) Create(ctx context.Context, creatorID uint, in CreateInput) (*Bounty, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := Bounty{
		Title:          in.Title,
		Description:    in.Description,
		Category:       in.Category,
		Amount:         in.Amount,
		CreatorID:      creatorID,
		Status:         StatusOpen,
		AutoAdjudicate: in.AutoAdjudicate,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&b).Error; err != nil {
			return fmt.Errorf("创建悬赏失败: %w", err)
		}
		_, err := s.ledger.Debit(tx, creatorID, b.Amount, ledger.ReasonBountyEscrow, ledger.Ref{Type: RefType, ID: b.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"bounty_id":  b.ID,
		"creator_id": creatorID,
		"amount":     b.Amount,
	}).Info("悬赏已创建")
	return &b, nil
}

// Close 由创建者关闭悬赏并退还全部原始金额。
// 退款不扣除已经发放的奖励，这是平台一直以来的行为。
func (s *Service) Close(ctx context.Context, actorID, bountyID uint) (*Bounty, error) {
	var b Bounty
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, bountyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.ErrNotFound, "悬赏不存在", nil)
			}
			return fmt.Errorf("查询悬赏失败: %w", err)
		}
		if b.CreatorID != actorID {
			return apperrors.New(apperrors.ErrForbidden, "只有创建者可以关闭悬赏", nil)
		}

		// 条件更新保证并发关闭时只会退款一次
		res := tx.Model(&Bounty{}).
			Where("id = ? AND status IN ?", bountyID, []string{string(StatusOpen), string(StatusExpired)}).
			Update("status", StatusClosed)
		if res.Error != nil {
			return fmt.Errorf("关闭悬赏失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.ErrBountyClosed, "悬赏已经关闭", nil)
		}
		b.Status = StatusClosed

		_, err := s.ledger.Credit(tx, b.CreatorID, b.Amount, ledger.ReasonBountyRefund, ledger.Ref{Type: RefType, ID: b.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{"bounty_id": b.ID, "refund": b.Amount}).Info("悬赏已关闭")
	return &b, nil
}

// Get 按ID查询
func (s *Service) Get(ctx context.Context, id uint) (*Bounty, error) {
	var b Bounty
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "悬赏不存在", nil)
		}
		return nil, fmt.Errorf("查询悬赏失败: %w", err)
	}
	return &b, nil
}

// Filter 列表筛选条件，零值表示不筛选
type Filter struct {
	Status    Status
	Category  string
	CreatorID uint
	Limit     int
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.CreatorID != 0 {
		q = q.Where("creator_id = ?", f.CreatorID)
	}
	return q
}

// List 按创建时间倒序列出悬赏
func (s *Service) List(ctx context.Context, f Filter) ([]Bounty, error) {
	q := f.apply(s.db.WithContext(ctx).Model(&Bounty{})).Order("created_at DESC").Order("id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var bounties []Bounty
	if err := q.Find(&bounties).Error; err != nil {
		return nil, fmt.Errorf("查询悬赏列表失败: %w", err)
	}
	return bounties, nil
}

// Count 统计符合条件的悬赏数
func (s *Service) Count(ctx context.Context, f Filter) (int64, error) {
	var n int64
	if err := f.apply(s.db.WithContext(ctx).Model(&Bounty{})).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计悬赏失败: %w", err)
	}
	return n, nil
}

// Categories 已使用过的分类，按字母排序
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Model(&Bounty{}).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("查询分类失败: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// MarkExpired 把已过期但仍开放的悬赏标记为expired，不退款
func (s *Service) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&Bounty{}).
		Where("status = ? AND expires_at < ?", StatusOpen, now.UTC()).
		Update("status", StatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("标记过期悬赏失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}
