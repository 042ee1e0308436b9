package refutation

import (
	"context"

	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/pkg/format"
)

// Response 反驳的API投影
type Response struct {
	ID                 uint     `json:"id"`
	BountyID           uint     `json:"bounty_id"`
	AuthorID           uint     `json:"author_id"`
	Author             string   `json:"author"`
	Content            string   `json:"content"`
	Sources            string   `json:"sources"`
	BondAmount         int      `json:"bond_amount"`
	AIScore            *float64 `json:"ai_score"`
	AIFeedback         *string  `json:"ai_feedback"`
	AIFlags            []string `json:"ai_flags"`
	AdjudicationStatus string   `json:"adjudication_status"`
	CreatorRating      *int     `json:"creator_rating"`
	CreatorFeedback    *string  `json:"creator_feedback"`
	RewardEarned       int      `json:"reward_earned"`
	BondReturned       bool     `json:"bond_returned"`
	CreatedAt          string   `json:"created_at"`
}

func toResponse(r *Refutation, author string) Response {
	return Response{
		ID:                 r.ID,
		BountyID:           r.BountyID,
		AuthorID:           r.AuthorID,
		Author:             author,
		Content:            r.Content,
		Sources:            r.Sources,
		BondAmount:         r.BondAmount,
		AIScore:            format.Round2Ptr(r.AIScore),
		AIFeedback:         r.AIFeedback,
		AIFlags:            r.Flags(),
		AdjudicationStatus: string(r.AdjudicationStatus),
		CreatorRating:      r.CreatorRating,
		CreatorFeedback:    r.CreatorFeedback,
		RewardEarned:       r.RewardEarned,
		BondReturned:       r.BondReturned,
		CreatedAt:          format.Time(r.CreatedAt),
	}
}

// Projector 批量生成反驳投影并补齐作者用户名
type Projector struct {
	users bounty.UsernameLookup
}

func NewProjector(users bounty.UsernameLookup) *Projector {
	return &Projector{users: users}
}

func (p *Projector) Project(ctx context.Context, list []Refutation) ([]Response, error) {
	responses := make([]Response, 0, len(list))
	if len(list) == 0 {
		return responses, nil
	}

	authorIDs := make([]uint, 0, len(list))
	for _, r := range list {
		authorIDs = append(authorIDs, r.AuthorID)
	}
	names, err := p.users.Usernames(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	for i := range list {
		responses = append(responses, toResponse(&list[i], names[list[i].AuthorID]))
	}
	return responses, nil
}

func (p *Projector) ProjectOne(ctx context.Context, r *Refutation) (Response, error) {
	responses, err := p.Project(ctx, []Refutation{*r})
	if err != nil {
		return Response{}, err
	}
	return responses[0], nil
}
