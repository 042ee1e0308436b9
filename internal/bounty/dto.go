package bounty

import (
	"context"

	"github.com/SlpAus/falsifi-backend/pkg/format"
)

// Response 悬赏的API投影
type Response struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	BountyAmount    int    `json:"bounty_amount"`
	CreatorID       uint   `json:"creator_id"`
	Creator         string `json:"creator"`
	Status          string `json:"status"`
	AutoAdjudicate  bool   `json:"auto_adjudicate"`
	CreatedAt       string `json:"created_at"`
	ExpiresAt       string `json:"expires_at"`
	RefutationCount int64  `json:"refutation_count"`
	IsOpen          bool   `json:"is_open"`
}

// UsernameLookup 按ID批量查询用户名
type UsernameLookup interface {
	Usernames(ctx context.Context, ids []uint) (map[uint]string, error)
}

// RefutationCounter 按悬赏批量统计反驳数
type RefutationCounter interface {
	CountByBounty(ctx context.Context, bountyIDs []uint) (map[uint]int64, error)
}

// Projector 批量生成悬赏投影，补齐创建者用户名和反驳数
type Projector struct {
	users       UsernameLookup
	refutations RefutationCounter
}

func NewProjector(users UsernameLookup, refutations RefutationCounter) *Projector {
	return &Projector{users: users, refutations: refutations}
}

func (p *Projector) Project(ctx context.Context, bounties []Bounty) ([]Response, error) {
	responses := make([]Response, 0, len(bounties))
	if len(bounties) == 0 {
		return responses, nil
	}

	bountyIDs := make([]uint, 0, len(bounties))
	creatorIDs := make([]uint, 0, len(bounties))
	for _, b := range bounties {
		bountyIDs = append(bountyIDs, b.ID)
		creatorIDs = append(creatorIDs, b.CreatorID)
	}

	names, err := p.users.Usernames(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}
	counts, err := p.refutations.CountByBounty(ctx, bountyIDs)
	if err != nil {
		return nil, err
	}

	for i := range bounties {
		b := &bounties[i]
		responses = append(responses, toResponse(b, names[b.CreatorID], counts[b.ID]))
	}
	return responses, nil
}

// ProjectOne 单个悬赏的投影
func (p *Projector) ProjectOne(ctx context.Context, b *Bounty) (Response, error) {
	responses, err := p.Project(ctx, []Bounty{*b})
	if err != nil {
		return Response{}, err
	}
	return responses[0], nil
}

func toResponse(b *Bounty, creator string, refutationCount int64) Response {
	return Response{
		ID:              b.ID,
		Title:           b.Title,
		Description:     b.Description,
		Category:        b.Category,
		BountyAmount:    b.Amount,
		CreatorID:       b.CreatorID,
		Creator:         creator,
		Status:          string(b.Status),
		AutoAdjudicate:  b.AutoAdjudicate,
		CreatedAt:       format.Time(b.CreatedAt),
		ExpiresAt:       format.Time(b.ExpiresAt),
		RefutationCount: refutationCount,
		IsOpen:          b.IsOpen(),
	}
}
