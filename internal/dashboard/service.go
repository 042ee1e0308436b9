// Package dashboard 汇总首页统计、用户资料和个人面板，只读，不修改任何数据。
package dashboard

import (
	"context"

	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/internal/leaderboard"
	"github.com/SlpAus/falsifi-backend/internal/refutation"
	"github.com/SlpAus/falsifi-backend/internal/user"
)

const FeaturedLimit = 5

// SiteStats 首页统计
type SiteStats struct {
	TotalBounties    int64
	OpenBounties     int64
	TotalRefutations int64
	TotalUsers       int64
	// Featured 最新的几个开放悬赏
	Featured []bounty.Bounty
}

// Profile 用户资料以及排行榜名次，不在榜上时Rank为nil
type Profile struct {
	User                 *user.User
	BountiesCreated      int64
	RefutationsSubmitted int64
	Rank                 *int64
}

// Overview 当前用户的个人面板
type Overview struct {
	User        *user.User
	Bounties    []bounty.Bounty
	Refutations []refutation.Refutation
	Stats       refutation.AuthorStats
}

type Service struct {
	users       *user.Service
	bounties    *bounty.Service
	refutations *refutation.Service
	board       *leaderboard.Service
}

func NewService(users *user.Service, bounties *bounty.Service, refutations *refutation.Service, board *leaderboard.Service) *Service {
	return &Service{users: users, bounties: bounties, refutations: refutations, board: board}
}

func (s *Service) SiteStats(ctx context.Context) (*SiteStats, error) {
	var stats SiteStats
	var err error

	if stats.TotalBounties, err = s.bounties.Count(ctx, bounty.Filter{}); err != nil {
		return nil, err
	}
	if stats.OpenBounties, err = s.bounties.Count(ctx, bounty.Filter{Status: bounty.StatusOpen}); err != nil {
		return nil, err
	}
	if stats.TotalRefutations, err = s.refutations.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Featured, err = s.bounties.List(ctx, bounty.Filter{Status: bounty.StatusOpen, Limit: FeaturedLimit}); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Profile 名次取自最近一次重建的排行榜
func (s *Service) Profile(ctx context.Context, userID uint) (*Profile, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	created, err := s.bounties.Count(ctx, bounty.Filter{CreatorID: userID})
	if err != nil {
		return nil, err
	}
	submitted, err := s.refutations.CountByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Profile{User: u, BountiesCreated: created, RefutationsSubmitted: submitted}
	rank, ok, err := s.board.Rank(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ok {
		p.Rank = &rank
	}
	return p, nil
}

func (s *Service) Overview(ctx context.Context, userID uint) (*Overview, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	bounties, err := s.bounties.List(ctx, bounty.Filter{CreatorID: userID})
	if err != nil {
		return nil, err
	}
	refutations, err := s.refutations.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.refutations.StatsForAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Overview{User: u, Bounties: bounties, Refutations: refutations, Stats: stats}, nil
}
