package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service 负责用户注册、查询和信誉分写入
type Service struct {
	db              *gorm.DB
	startingBalance int
}

func NewService(db *gorm.DB, startingBalance int) *Service {
	return &Service{db: db, startingBalance: startingBalance}
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username string
	Email    string
}

// Register 创建新用户并发放初始积分，用户名或邮箱重复时返回CONFLICT
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if username == "" || len(username) > 80 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "用户名不能为空且不超过80个字符", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil || len(email) > 120 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "邮箱格式不正确", err)
	}

	u := User{
		Username: username,
		Email:    email,
		Points:   s.startingBalance,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.New(apperrors.ErrConflict, "用户名已被占用", nil)
		}
		if err := tx.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.New(apperrors.ErrConflict, "邮箱已被注册", nil)
		}
		return tx.Create(&u).Error
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		// 并发注册时唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New(apperrors.ErrConflict, "用户名或邮箱已存在", err)
		}
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("新用户注册")
	return &u, nil
}

// Get 按ID查询用户
func (s *Service) Get(ctx context.Context, id uint) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "用户不存在", nil)
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &u, nil
}

// FindByUsername 按用户名查询，登录时使用
func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "用户不存在", nil)
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &u, nil
}

// Usernames 批量查询用户名，缺失的ID不会出现在结果中
func (s *Service) Usernames(ctx context.Context, ids []uint) (map[uint]string, error) {
	result := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []User
	if err := s.db.WithContext(ctx).Select("id", "username").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("批量查询用户名失败: %w", err)
	}
	for _, r := range rows {
		result[r.ID] = r.Username
	}
	return result, nil
}

// Count 用户总数
func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计用户数失败: %w", err)
	}
	return n, nil
}

// SetReputation 在调用方的事务中写入信誉分
func SetReputation(tx *gorm.DB, userID uint, score float64) error {
	res := tx.Model(&User{}).Where("id = ?", userID).Update("reputation_score", score)
	if res.Error != nil {
		return fmt.Errorf("更新信誉分失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "用户不存在", nil)
	}
	return nil
}
