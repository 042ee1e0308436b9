package dashboard

import (
	"net/http"

	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/internal/refutation"
	"github.com/SlpAus/falsifi-backend/internal/user"
	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/SlpAus/falsifi-backend/pkg/format"
	"github.com/gin-gonic/gin"
)

type StatsResponse struct {
	TotalBounties    int64             `json:"total_bounties"`
	OpenBounties     int64             `json:"open_bounties"`
	TotalRefutations int64             `json:"total_refutations"`
	TotalUsers       int64             `json:"total_users"`
	Featured         []bounty.Response `json:"featured_bounties"`
}

type ProfileResponse struct {
	user.UserResponse
	Rank *int64 `json:"rank"`
}

type DashboardStats struct {
	TotalEarned          int      `json:"total_earned"`
	AvgRating            *float64 `json:"avg_rating"`
	RefutationsSubmitted int      `json:"refutations_submitted"`
	BountiesCreated      int      `json:"bounties_created"`
	CurrentPoints        int      `json:"current_points"`
}

type DashboardResponse struct {
	User          user.UserResponse     `json:"user"`
	MyBounties    []bounty.Response     `json:"my_bounties"`
	MyRefutations []refutation.Response `json:"my_refutations"`
	Stats         DashboardStats        `json:"stats"`
}

type Handler struct {
	svc                 *Service
	bountyProjector     *bounty.Projector
	refutationProjector *refutation.Projector
}

func NewHandler(svc *Service, bountyProjector *bounty.Projector, refutationProjector *refutation.Projector) *Handler {
	return &Handler{svc: svc, bountyProjector: bountyProjector, refutationProjector: refutationProjector}
}

// Stats 首页统计和精选悬赏
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.svc.SiteStats(ctx)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	featured, err := h.bountyProjector.Project(ctx, stats.Featured)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{
		TotalBounties:    stats.TotalBounties,
		OpenBounties:     stats.OpenBounties,
		TotalRefutations: stats.TotalRefutations,
		TotalUsers:       stats.TotalUsers,
		Featured:         featured,
	})
}

// Me 当前登录用户的资料
func (h *Handler) Me(c *gin.Context) {
	userID, ok := user.CurrentUserID(c)
	if !ok {
		apperrors.Respond(c, apperrors.New(apperrors.ErrUnauthorized, "请先登录", nil))
		return
	}
	h.respondProfile(c, userID)
}

// User 任意用户的公开资料
func (h *Handler) User(c *gin.Context) {
	id, ok := bounty.ParseID(c, "id")
	if !ok {
		return
	}
	h.respondProfile(c, id)
}

func (h *Handler) respondProfile(c *gin.Context, userID uint) {
	p, err := h.svc.Profile(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{
		UserResponse: user.ToResponse(p.User, p.BountiesCreated, p.RefutationsSubmitted),
		Rank:         p.Rank,
	})
}

// MyDashboard 个人面板: 我的悬赏、我的反驳和收益统计
func (h *Handler) MyDashboard(c *gin.Context) {
	userID, ok := user.CurrentUserID(c)
	if !ok {
		apperrors.Respond(c, apperrors.New(apperrors.ErrUnauthorized, "请先登录", nil))
		return
	}
	ctx := c.Request.Context()

	o, err := h.svc.Overview(ctx, userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	bounties, err := h.bountyProjector.Project(ctx, o.Bounties)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	refutations, err := h.refutationProjector.Project(ctx, o.Refutations)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, DashboardResponse{
		User:          user.ToResponse(o.User, int64(len(o.Bounties)), int64(len(o.Refutations))),
		MyBounties:    bounties,
		MyRefutations: refutations,
		Stats: DashboardStats{
			TotalEarned:          o.Stats.TotalEarned,
			AvgRating:            format.Round2Ptr(o.Stats.AvgRating),
			RefutationsSubmitted: len(o.Refutations),
			BountiesCreated:      len(o.Bounties),
			CurrentPoints:        o.User.Points,
		},
	})
}
