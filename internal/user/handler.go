package user

import (
	"net/http"

	"github.com/SlpAus/falsifi-backend/pkg/format"
	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/gin-gonic/gin"
)

// UserResponse 用户的公开投影
type UserResponse struct {
	ID                   uint    `json:"id"`
	Username             string  `json:"username"`
	Points               int     `json:"points"`
	ReputationScore      float64 `json:"reputation_score"`
	CreatedAt            string  `json:"created_at"`
	BountiesCreated      int64   `json:"bounties_created"`
	RefutationsSubmitted int64   `json:"refutations_submitted"`
}

// ToResponse 生成用户投影，计数由调用方提供
func ToResponse(u *User, bountiesCreated, refutationsSubmitted int64) UserResponse {
	return UserResponse{
		ID:                   u.ID,
		Username:             u.Username,
		Points:               u.Points,
		ReputationScore:      format.Round2(u.ReputationScore),
		CreatedAt:            format.Time(u.CreatedAt),
		BountiesCreated:      bountiesCreated,
		RefutationsSubmitted: refutationsSubmitted,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,max=80"`
	Email    string `json:"email" binding:"required,email,max=120"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
}

type Handler struct {
	users    *Service
	sessions *Sessions
}

func NewHandler(users *Service, sessions *Sessions) *Handler {
	return &Handler{users: users, sessions: sessions}
}

// Register 注册并直接登录
func (h *Handler) Register(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.Respond(c, apperrors.New(apperrors.ErrInvalidInput, "请求格式错误: "+err.Error(), err))
		return
	}

	u, err := h.users.Register(c.Request.Context(), RegisterInput{Username: body.Username, Email: body.Email})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	tok, err := h.sessions.Issue(u.ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	h.sessions.SetCookie(c, tok)
	c.JSON(http.StatusCreated, gin.H{"token": tok, "user": ToResponse(u, 0, 0)})
}

// Login 按用户名登录
func (h *Handler) Login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.Respond(c, apperrors.New(apperrors.ErrInvalidInput, "请求格式错误: "+err.Error(), err))
		return
	}

	u, err := h.users.FindByUsername(c.Request.Context(), body.Username)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrNotFound) {
			err = apperrors.New(apperrors.ErrUnauthorized, "用户名不存在", nil)
		}
		apperrors.Respond(c, err)
		return
	}

	tok, err := h.sessions.Issue(u.ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	h.sessions.SetCookie(c, tok)
	c.JSON(http.StatusOK, gin.H{"token": tok, "user_id": u.ID, "username": u.Username})
}

// Logout 清除会话cookie。令牌本身是无状态的，客户端丢弃即可。
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.ClearCookie(c)
	c.Status(http.StatusNoContent)
}
