package api

import (
	"github.com/SlpAus/falsifi-backend/internal/adjudication"
	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/internal/dashboard"
	"github.com/SlpAus/falsifi-backend/internal/leaderboard"
	"github.com/SlpAus/falsifi-backend/internal/ledger"
	"github.com/SlpAus/falsifi-backend/internal/platform/config"
	"github.com/SlpAus/falsifi-backend/internal/refutation"
	"github.com/SlpAus/falsifi-backend/internal/user"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services 应用的全部领域服务，后台任务也从这里取用
type Services struct {
	Users       *user.Service
	Ledger      *ledger.Service
	Bounties    *bounty.Service
	Refutations *refutation.Service
	Leaderboard *leaderboard.Service
	Dashboard   *dashboard.Service
}

// NewServices 组装领域服务。rdb可以为nil，healthy报告Redis当前是否可用。
func NewServices(db *gorm.DB, rdb *redis.Client, healthy func() bool, scorer adjudication.Scorer, points config.PointsConfig) *Services {
	users := user.NewService(db, points.StartingBalance)
	ledgerSvc := ledger.NewService(db)
	bounties := bounty.NewService(db, ledgerSvc, points.BountyTTL)
	refutations := refutation.NewService(db, ledgerSvc, scorer, points.DefaultBond)
	board := leaderboard.NewService(db, rdb, healthy)

	return &Services{
		Users:       users,
		Ledger:      ledgerSvc,
		Bounties:    bounties,
		Refutations: refutations,
		Leaderboard: board,
		Dashboard:   dashboard.NewService(users, bounties, refutations, board),
	}
}

// Handlers 路由用到的全部HTTP处理器
type Handlers struct {
	Sessions    *user.Sessions
	Users       *user.Handler
	Ledger      *ledger.Handler
	Bounties    *bounty.Handler
	Refutations *refutation.Handler
	Leaderboard *leaderboard.Handler
	Dashboard   *dashboard.Handler
}

func NewHandlers(s *Services, sessions *user.Sessions, points config.PointsConfig) Handlers {
	bountyProjector := bounty.NewProjector(s.Users, s.Refutations)
	refutationProjector := refutation.NewProjector(s.Users)

	return Handlers{
		Sessions:    sessions,
		Users:       user.NewHandler(s.Users, sessions),
		Ledger:      ledger.NewHandler(s.Ledger),
		Bounties:    bounty.NewHandler(s.Bounties, bountyProjector, points.DefaultBounty),
		Refutations: refutation.NewHandler(s.Refutations, s.Bounties, bountyProjector, refutationProjector),
		Leaderboard: leaderboard.NewHandler(s.Leaderboard, s.Users),
		Dashboard:   dashboard.NewHandler(s.Dashboard, bountyProjector, refutationProjector),
	}
}
