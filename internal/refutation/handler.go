package refutation

import (
	"net/http"

	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/internal/user"
	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/SlpAus/falsifi-backend/pkg/format"
	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	Content    string `json:"content" binding:"required"`
	Sources    string `json:"sources"`
	BondAmount *int   `json:"bond_amount"`
}

type rateRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=10"`
	Feedback string `json:"feedback"`
}

// BountyDetailResponse 悬赏详情页: 悬赏本身、全部反驳以及当前用户能做的操作
type BountyDetailResponse struct {
	Bounty      bounty.Response `json:"bounty"`
	Refutations []Response      `json:"refutations"`
	AvgRating   *float64        `json:"avg_rating"`
	CanRefute   bool            `json:"can_refute"`
	IsOwner     bool            `json:"is_owner"`
}

type Handler struct {
	refutations     *Service
	bounties        *bounty.Service
	bountyProjector *bounty.Projector
	projector       *Projector
}

func NewHandler(refutations *Service, bounties *bounty.Service, bountyProjector *bounty.Projector, projector *Projector) *Handler {
	return &Handler{
		refutations:     refutations,
		bounties:        bounties,
		bountyProjector: bountyProjector,
		projector:       projector,
	}
}

// BountyDetail 获取单个悬赏及其反驳
func (h *Handler) BountyDetail(c *gin.Context) {
	id, ok := bounty.ParseID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	b, err := h.bounties.Get(ctx, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	bountyResp, err := h.bountyProjector.ProjectOne(ctx, b)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	list, err := h.refutations.ListByBounty(ctx, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	responses, err := h.projector.Project(ctx, list)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	avg, err := h.refutations.AverageRating(ctx, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	userID, loggedIn := user.CurrentUserID(c)
	c.JSON(http.StatusOK, BountyDetailResponse{
		Bounty:      bountyResp,
		Refutations: responses,
		AvgRating:   format.Round2Ptr(avg),
		CanRefute:   b.IsOpen() && loggedIn && userID != b.CreatorID,
		IsOwner:     loggedIn && userID == b.CreatorID,
	})
}

// Submit 提交反驳，需要登录
func (h *Handler) Submit(c *gin.Context) {
	userID, _ := user.CurrentUserID(c)
	bountyID, ok := bounty.ParseID(c, "id")
	if !ok {
		return
	}

	var body submitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.Respond(c, apperrors.New(apperrors.ErrInvalidInput, "请求格式错误: "+err.Error(), err))
		return
	}

	r, err := h.refutations.Submit(c.Request.Context(), userID, bountyID, SubmitInput{
		Content: body.Content,
		Sources: body.Sources,
		Bond:    body.BondAmount,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	resp, err := h.projector.ProjectOne(c.Request.Context(), r)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get 获取单个反驳
func (h *Handler) Get(c *gin.Context) {
	id, ok := bounty.ParseID(c, "id")
	if !ok {
		return
	}
	r, err := h.refutations.Get(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	resp, err := h.projector.ProjectOne(c.Request.Context(), r)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Rate 悬赏创建者评分并结算
func (h *Handler) Rate(c *gin.Context) {
	userID, _ := user.CurrentUserID(c)
	id, ok := bounty.ParseID(c, "id")
	if !ok {
		return
	}

	var body rateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.Respond(c, apperrors.New(apperrors.ErrInvalidInput, "评分必须是1到10之间的整数", err))
		return
	}

	result, err := h.refutations.Rate(c.Request.Context(), userID, id, RateInput{Rating: body.Rating, Feedback: body.Feedback})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	resp, err := h.projector.ProjectOne(c.Request.Context(), result.Refutation)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"refutation":    resp,
		"reward":        result.Reward,
		"bond_returned": result.BondReturned,
	})
}
