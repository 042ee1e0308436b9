package refutation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/SlpAus/falsifi-backend/internal/adjudication"
	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/internal/ledger"
	"github.com/SlpAus/falsifi-backend/internal/platform/metrics"
	"github.com/SlpAus/falsifi-backend/internal/settlement"
	"github.com/SlpAus/falsifi-backend/internal/user"
	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	RefType = "refutation"

	// MissingAIScore 没有自动评分时结算使用的分数
	MissingAIScore = 50.0

	MinRating = 1
	MaxRating = 10
)

// Service 反驳的提交、评分结算和查询
type Service struct {
	db          *gorm.DB
	ledger      *ledger.Service
	scorer      adjudication.Scorer
	defaultBond int
}

func NewService(db *gorm.DB, ledgerSvc *ledger.Service, scorer adjudication.Scorer, defaultBond int) *Service {
	return &Service{db: db, ledger: ledgerSvc, scorer: scorer, defaultBond: defaultBond}
}

// SubmitInput 提交参数，Bond为nil时使用默认保证金
type SubmitInput struct {
	Content string
	Sources string
	Bond    *int
}

// Submit 提交反驳并托管保证金。
// 悬赏开启了自动评分时，在提交事务提交之后同步调用评分器并写回结果。
func (s *Service) Submit(ctx context.Context, authorID, bountyID uint, in SubmitInput) (*Refutation, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "反驳内容不能为空", nil)
	}
	bond := s.defaultBond
	if in.Bond != nil {
		bond = *in.Bond
	}
	if bond < 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "保证金不能为负", nil)
	}

	var b bounty.Bounty
	r := Refutation{
		BountyID:           bountyID,
		AuthorID:           authorID,
		Content:            in.Content,
		Sources:            strings.TrimSpace(in.Sources),
		BondAmount:         bond,
		AdjudicationStatus: adjudication.DispositionPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&b, bountyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.ErrNotFound, "悬赏不存在", nil)
			}
			return fmt.Errorf("查询悬赏失败: %w", err)
		}
		if !b.IsOpen() {
			return apperrors.New(apperrors.ErrBountyNotOpen, "该悬赏已不再接受反驳", nil)
		}
		if b.CreatorID == authorID {
			return apperrors.New(apperrors.ErrSelfRefutation, "不能反驳自己的悬赏", nil)
		}

		if err := tx.Create(&r).Error; err != nil {
			return fmt.Errorf("创建反驳失败: %w", err)
		}
		_, err := s.ledger.Debit(tx, authorID, bond, ledger.ReasonBondEscrow, ledger.Ref{Type: RefType, ID: r.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"refutation_id": r.ID,
		"bounty_id":     bountyID,
		"author_id":     authorID,
		"bond":          bond,
	}).Info("反驳已提交")

	if !b.AutoAdjudicate {
		return &r, nil
	}

	eval := s.scorer.Evaluate(ctx, adjudication.Request{
		ClaimTitle:       b.Title,
		ClaimDescription: b.Description,
		RefutationText:   r.Content,
		Sources:          r.Sources,
	})
	// 提交已经生效，客户端断开也要把评分写回
	if err := s.applyEvaluation(context.WithoutCancel(ctx), &r, eval); err != nil {
		logger.WithError(err).WithField("refutation_id", r.ID).Error("写入自动评分失败，反驳保持待定状态")
	}
	return &r, nil
}

// forUpdate 在Postgres上给查询加行锁，与关闭悬赏互斥。SQLite驱动忽略该子句
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// applyEvaluation 只在反驳仍为待定时写入自动评分字段
func (s *Service) applyEvaluation(ctx context.Context, r *Refutation, eval adjudication.Evaluation) error {
	flags, err := json.Marshal(eval.Flags)
	if err != nil {
		return fmt.Errorf("序列化评分标记失败: %w", err)
	}
	score := float64(eval.Score)
	feedback := eval.Feedback

	res := s.db.WithContext(ctx).Model(&Refutation{}).
		Where("id = ? AND adjudication_status = ? AND ai_score IS NULL", r.ID, adjudication.DispositionPending).
		Updates(map[string]interface{}{
			"ai_score":            score,
			"ai_feedback":         feedback,
			"ai_flags":            datatypes.JSON(flags),
			"adjudication_status": eval.Disposition,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	r.AIScore = &score
	r.AIFeedback = &feedback
	r.AIFlags = datatypes.JSON(flags)
	r.AdjudicationStatus = eval.Disposition

	logger.WithFields(logrus.Fields{
		"refutation_id": r.ID,
		"score":         eval.Score,
		"disposition":   eval.Disposition,
		"source":        eval.Source,
	}).Info("自动评分完成")
	return nil
}

// RateInput 人工评分参数
type RateInput struct {
	Rating   int
	Feedback string
}

// RateResult 评分结算的结果
type RateResult struct {
	Refutation   *Refutation
	Reward       int
	BondReturned bool
}

// Rate 悬赏创建者为反驳评分并结算。
// 评分、奖励、保证金退还和作者信誉分在同一个事务中完成，每个反驳只能评一次。
// 不检查悬赏状态，关闭后的悬赏仍然可以评分。
func (s *Service) Rate(ctx context.Context, actorID, refutationID uint, in RateInput) (*RateResult, error) {
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, apperrors.New(apperrors.ErrInvalidInput, fmt.Sprintf("评分必须在%d到%d之间", MinRating, MaxRating), nil)
	}

	var result RateResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r Refutation
		if err := tx.First(&r, refutationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.ErrNotFound, "反驳不存在", nil)
			}
			return fmt.Errorf("查询反驳失败: %w", err)
		}
		var b bounty.Bounty
		if err := tx.First(&b, r.BountyID).Error; err != nil {
			return fmt.Errorf("查询反驳所属悬赏失败: %w", err)
		}
		if b.CreatorID != actorID {
			return apperrors.New(apperrors.ErrForbidden, "只有悬赏创建者可以评分", nil)
		}
		if r.IsRated() {
			return apperrors.New(apperrors.ErrAlreadyRated, "该反驳已经评过分", nil)
		}

		aiScore := MissingAIScore
		if r.AIScore != nil {
			aiScore = *r.AIScore
		}
		rating := in.Rating
		reward := settlement.Reward(aiScore, &rating, b.Amount)
		bondBack := settlement.BondReturned(aiScore, &rating)

		var feedback *string
		if fb := strings.TrimSpace(in.Feedback); fb != "" {
			feedback = &fb
		}

		res := tx.Model(&Refutation{}).
			Where("id = ? AND creator_rating IS NULL", r.ID).
			Updates(map[string]interface{}{
				"creator_rating":   rating,
				"creator_feedback": feedback,
				"reward_earned":    reward,
				"bond_returned":    bondBack,
			})
		if res.Error != nil {
			return fmt.Errorf("保存评分失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.ErrAlreadyRated, "该反驳已经评过分", nil)
		}

		ref := ledger.Ref{Type: RefType, ID: r.ID}
		if _, err := s.ledger.Credit(tx, r.AuthorID, reward, ledger.ReasonReward, ref); err != nil {
			return err
		}
		if bondBack {
			if _, err := s.ledger.Credit(tx, r.AuthorID, r.BondAmount, ledger.ReasonBondReturn, ref); err != nil {
				return err
			}
		}
		if err := recomputeReputation(tx, r.AuthorID); err != nil {
			return err
		}

		r.CreatorRating = &rating
		r.CreatorFeedback = feedback
		r.RewardEarned = reward
		r.BondReturned = bondBack
		result = RateResult{Refutation: &r, Reward: reward, BondReturned: bondBack}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bondLabel := "forfeited"
	if result.BondReturned {
		bondLabel = "returned"
	}
	metrics.SettlementsTotal.WithLabelValues(bondLabel).Inc()

	logger.WithFields(logrus.Fields{
		"refutation_id": refutationID,
		"rating":        in.Rating,
		"reward":        result.Reward,
		"bond_returned": result.BondReturned,
	}).Info("反驳评分已结算")
	return &result, nil
}

// recomputeReputation 只用已评分的反驳重新计算作者信誉分
func recomputeReputation(tx *gorm.DB, authorID uint) error {
	var ratings []int
	err := tx.Model(&Refutation{}).
		Where("author_id = ? AND creator_rating IS NOT NULL", authorID).
		Pluck("creator_rating", &ratings).Error
	if err != nil {
		return fmt.Errorf("查询作者评分失败: %w", err)
	}

	score, ok := settlement.Reputation(ratings)
	if !ok {
		return nil
	}
	return user.SetReputation(tx, authorID, score)
}
