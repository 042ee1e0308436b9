package ledger

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/falsifi-backend/internal/user"
	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/SlpAus/falsifi-backend/pkg/format"
	"github.com/gin-gonic/gin"
)

// EntryResponse 流水的API投影
type EntryResponse struct {
	ID           uint   `json:"id"`
	Delta        int    `json:"delta"`
	BalanceAfter int    `json:"balance_after"`
	Reason       string `json:"reason"`
	RefType      string `json:"ref_type,omitempty"`
	RefID        uint   `json:"ref_id,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func ToResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:           e.ID,
		Delta:        e.Delta,
		BalanceAfter: e.BalanceAfter,
		Reason:       string(e.Reason),
		RefType:      e.RefType,
		RefID:        e.RefID,
		CreatedAt:    format.Time(e.CreatedAt),
	}
}

type Handler struct {
	ledger *Service
}

func NewHandler(ledger *Service) *Handler {
	return &Handler{ledger: ledger}
}

// MyLedger 当前用户的余额和最近流水
func (h *Handler) MyLedger(c *gin.Context) {
	userID, _ := user.CurrentUserID(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 500 {
			apperrors.Respond(c, apperrors.New(apperrors.ErrInvalidInput, "limit必须是0到500之间的整数", err))
			return
		}
		limit = n
	}

	balance, err := h.ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	entries, err := h.ledger.History(c.Request.Context(), userID, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	responses := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, ToResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"points": balance, "entries": responses})
}
