package leaderboard

import (
	"context"
	"net/http"
	"strconv"

	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/SlpAus/falsifi-backend/pkg/format"
	"github.com/gin-gonic/gin"
)

const maxLimit = 100

// EntryResponse 排行榜条目的API投影
type EntryResponse struct {
	Rank             int     `json:"rank"`
	UserID           uint    `json:"user_id"`
	Username         string  `json:"username"`
	TotalRefutations int     `json:"total_refutations"`
	AvgRating        float64 `json:"avg_rating"`
	TotalEarned      int     `json:"total_earned"`
}

// UsernameLookup 按ID批量查询用户名
type UsernameLookup interface {
	Usernames(ctx context.Context, ids []uint) (map[uint]string, error)
}

type Handler struct {
	board *Service
	users UsernameLookup
}

func NewHandler(board *Service, users UsernameLookup) *Handler {
	return &Handler{board: board, users: users}
}

// Get 每次查看都先全量重建，再返回前N名
func (h *Handler) Get(c *gin.Context) {
	limit := DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxLimit {
			apperrors.Respond(c, apperrors.New(apperrors.ErrInvalidInput, "limit必须是1到100之间的整数", err))
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	if err := h.board.Rebuild(ctx); err != nil {
		apperrors.Respond(c, err)
		return
	}
	entries, err := h.board.Top(ctx, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	names, err := h.users.Usernames(ctx, ids)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	responses := make([]EntryResponse, 0, len(entries))
	rank := 0
	for i, e := range entries {
		// 并列的条目共享名次
		if i == 0 || e.TotalEarned != entries[i-1].TotalEarned {
			rank = i + 1
		}
		responses = append(responses, EntryResponse{
			Rank:             rank,
			UserID:           e.UserID,
			Username:         names[e.UserID],
			TotalRefutations: e.TotalRefutations,
			AvgRating:        format.Round2(e.AvgRating),
			TotalEarned:      e.TotalEarned,
		})
	}
	c.JSON(http.StatusOK, responses)
}
