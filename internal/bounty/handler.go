package bounty

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/falsifi-backend/internal/user"
	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/gin-gonic/gin"
)

type createRequest struct {
	Title          string `json:"title" binding:"required,max=200"`
	Description    string `json:"description" binding:"required"`
	Category       string `json:"category" binding:"max=50"`
	BountyAmount   *int   `json:"bounty_amount"`
	AutoAdjudicate *bool  `json:"auto_adjudicate"`
}

type Handler struct {
	bounties      *Service
	projector     *Projector
	defaultAmount int
}

func NewHandler(bounties *Service, projector *Projector, defaultAmount int) *Handler {
	return &Handler{bounties: bounties, projector: projector, defaultAmount: defaultAmount}
}

// ParseID 读取路径参数中的数字ID
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apperrors.Respond(c, apperrors.New(apperrors.ErrInvalidInput, "无效的ID: "+c.Param(name), err))
		return 0, false
	}
	return uint(id), true
}

// List 获取悬赏列表，支持按状态和分类筛选
func (h *Handler) List(c *gin.Context) {
	var f Filter

	switch status := c.DefaultQuery("status", "all"); status {
	case "all", "":
	case string(StatusOpen), string(StatusClosed), string(StatusExpired):
		f.Status = Status(status)
	default:
		apperrors.Respond(c, apperrors.New(apperrors.ErrInvalidInput, "status必须是open、closed、expired或all", nil))
		return
	}
	if category := c.Query("category"); category != "" && category != "all" {
		f.Category = category
	}

	bounties, err := h.bounties.List(c.Request.Context(), f)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	responses, err := h.projector.Project(c.Request.Context(), bounties)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, responses)
}

// Categories 获取所有已使用的分类
func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.bounties.Categories(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// Create 创建悬赏，需要登录
func (h *Handler) Create(c *gin.Context) {
	userID, _ := user.CurrentUserID(c)

	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.Respond(c, apperrors.New(apperrors.ErrInvalidInput, "请求格式错误: "+err.Error(), err))
		return
	}

	in := CreateInput{
		Title:          body.Title,
		Description:    body.Description,
		Category:       body.Category,
		Amount:         h.defaultAmount,
		AutoAdjudicate: true,
	}
	if body.BountyAmount != nil {
		in.Amount = *body.BountyAmount
	}
	if body.AutoAdjudicate != nil {
		in.AutoAdjudicate = *body.AutoAdjudicate
	}

	b, err := h.bounties.Create(c.Request.Context(), userID, in)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	resp, err := h.projector.ProjectOne(c.Request.Context(), b)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close 关闭悬赏并退款，只有创建者可以操作
func (h *Handler) Close(c *gin.Context) {
	userID, _ := user.CurrentUserID(c)
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}

	b, err := h.bounties.Close(c.Request.Context(), userID, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	resp, err := h.projector.ProjectOne(c.Request.Context(), b)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bounty": resp, "refunded": b.Amount})
}
