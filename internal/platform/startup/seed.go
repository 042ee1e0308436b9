package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/falsifi-backend/internal/adjudication"
	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/internal/ledger"
	"github.com/SlpAus/falsifi-backend/internal/platform/metadata"
	"github.com/SlpAus/falsifi-backend/internal/refutation"
	"github.com/SlpAus/falsifi-backend/internal/user"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"gorm.io/gorm"
)

type demoUser struct {
	username string
	email    string
	points   int
}

var demoUsers = []demoUser{
	{"alice", "alice@example.com", 5000},
	{"bob", "bob@example.com", 3000},
	{"charlie", "charlie@example.com", 2000},
	{"demo_user", "demo@example.com", 1000},
}

type demoBounty struct {
	creator string
	input   bounty.CreateInput
}

var demoBounties = []demoBounty{
	{"alice", bounty.CreateInput{
		Title: "Proof of stake is more secure than proof of work",
		Description: "Many cryptocurrency advocates claim that Proof of Stake consensus is inherently more secure " +
			"than Proof of Work: validators stake their own tokens, finality is faster and attackers would lose " +
			"their stake. Critics point to long-range attacks, nothing-at-stake problems and concentration of power " +
			"among wealthy validators. I'm looking for the strongest critique of the security claims of PoS.",
		Category:       "crypto",
		Amount:         500,
		AutoAdjudicate: true,
	}},
	{"bob", bounty.CreateInput{
		Title: "Low-fat diets reduce heart disease risk",
		Description: "For decades the conventional wisdom has been that low-fat diets reduce the risk of heart disease. " +
			"I'm looking for critiques of the quality of evidence, confounding factors, potential harms of low-fat " +
			"recommendations and the role of sugar and refined carbohydrates.",
		Category:       "science",
		Amount:         750,
		AutoAdjudicate: true,
	}},
	{"charlie", bounty.CreateInput{
		Title: "This startup has a viable business model",
		Description: "EcoTrack is a mobile app that tracks your carbon footprint. Users pay $9.99/month for premium, " +
			"offset providers pay 15% commission and enterprises pay $50/employee/year. Target: 100k users in year 1 " +
			"and $1M ARR by year 2. I'm an investor considering a seed round. Tear this apart.",
		Category:       "business",
		Amount:         1000,
		AutoAdjudicate: true,
	}},
	{"alice", bounty.CreateInput{
		Title: "AI will replace most software engineers by 2030",
		Description: "Claim: by 2030 AI systems will be capable of replacing 80%+ of current software engineering jobs, " +
			"given today's coding assistants, exponential capability gains and massive economic incentives. " +
			"I'm looking for strong counter-arguments.",
		Category:       "technology",
		Amount:         600,
		AutoAdjudicate: true,
	}},
}

type demoRefutation struct {
	bounty     int // demoBounties 下标
	author     string
	input      refutation.SubmitInput
	evaluation adjudication.Evaluation
	rating     *refutation.RateInput
}

func bond(v int) *int { return &v }

var demoRefutations = []demoRefutation{
	{
		bounty: 0,
		author: "bob",
		input: refutation.SubmitInput{
			Content: "The economic security argument for PoS is flawed. Validators can vote on conflicting chains " +
				"at zero marginal cost, which makes long-range attacks much easier than in PoW. Stake compounds, so " +
				"PoS drifts toward centralization: a handful of staking pools already control most of the stake. " +
				"Validators are identifiable entities that governments can compel to censor, while miners can relocate. " +
				"Finally, the cost of attempting an attack is capital rather than ongoing energy expenditure.",
			Sources: "https://medium.com/@hugonguyen/proof-of-stake-is-less-secure-than-proof-of-work",
			Bond:    bond(50),
		},
		evaluation: adjudication.Evaluation{
			Score:       85,
			Feedback:    "Strong logical arguments addressing core PoS vulnerabilities. Good use of technical concepts.",
			Disposition: adjudication.DispositionApproved,
			Flags:       []string{},
			Source:      adjudication.SourceLLM,
		},
	},
	{
		bounty: 1,
		author: "charlie",
		input: refutation.SubmitInput{
			Content: "The original Seven Countries Study cherry-picked data. The Women's Health Initiative, 48,000 women " +
				"and $700M, found no reduction in heart disease on low-fat diets, and the PURE study across 18 countries " +
				"associated higher saturated fat intake with lower mortality. Most cholesterol is produced by the body, " +
				"and dietary cholesterol barely moves blood levels. Replacing fat with carbohydrates raises triglycerides, " +
				"lowers HDL and promotes insulin resistance.",
			Sources: "https://www.bmj.com/content/347/bmj.f6690; https://www.thelancet.com/journals/lancet/article/PIIS0140-6736(17)32252-3/fulltext",
			Bond:    bond(75),
		},
		evaluation: adjudication.Evaluation{
			Score:       92,
			Feedback:    "Excellent use of large-scale studies. Cites specific evidence. Addresses causal mechanisms well.",
			Disposition: adjudication.DispositionApproved,
			Flags:       []string{},
			Source:      adjudication.SourceLLM,
		},
		rating: &refutation.RateInput{Rating: 9, Feedback: "Very thorough, brought studies I hadn't seen."},
	},
}

// scriptedScorer 按顺序返回预设的评分结果，演示数据不调用外部模型
type scriptedScorer struct {
	evaluations []adjudication.Evaluation
}

func (s *scriptedScorer) Evaluate(_ context.Context, _ adjudication.Request) adjudication.Evaluation {
	if len(s.evaluations) == 0 {
		return adjudication.Heuristic("")
	}
	next := s.evaluations[0]
	s.evaluations = s.evaluations[1:]
	return next
}

// SeedDemoData 在空数据库中写入演示用户、悬赏和反驳，所有积分变动都经过账本。
// 已写入过或库中已有用户时跳过，返回是否实际写入。
func SeedDemoData(ctx context.Context, db *gorm.DB, bountyTTL time.Duration) (bool, error) {
	seeded, err := metadata.IsFlagSet(db.WithContext(ctx), metadata.DemoSeededKey)
	if err != nil {
		return false, err
	}
	if seeded {
		return false, nil
	}

	var userCount int64
	if err := db.WithContext(ctx).Model(&user.User{}).Count(&userCount).Error; err != nil {
		return false, err
	}
	if userCount > 0 {
		logger.Info("数据库中已有用户，跳过演示数据。")
		return false, metadata.SetFlag(db.WithContext(ctx), metadata.DemoSeededKey)
	}

	logger.Info("正在写入演示数据...")

	// 1. 用户
	ids := make(map[string]uint, len(demoUsers))
	for _, du := range demoUsers {
		u := user.User{Username: du.username, Email: du.email, Points: du.points}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			return false, fmt.Errorf("创建演示用户 %s 失败: %w", du.username, err)
		}
		ids[du.username] = u.ID
	}

	// 2. 悬赏，托管走账本
	ledgerSvc := ledger.NewService(db)
	bountySvc := bounty.NewService(db, ledgerSvc, bountyTTL)
	bounties := make([]*bounty.Bounty, 0, len(demoBounties))
	for _, d := range demoBounties {
		b, err := bountySvc.Create(ctx, ids[d.creator], d.input)
		if err != nil {
			return false, fmt.Errorf("创建演示悬赏失败: %w", err)
		}
		bounties = append(bounties, b)
	}

	// 3. 反驳，评分使用预设结果
	scorer := &scriptedScorer{}
	for _, dr := range demoRefutations {
		scorer.evaluations = append(scorer.evaluations, dr.evaluation)
	}
	refutationSvc := refutation.NewService(db, ledgerSvc, scorer, 0)
	for _, dr := range demoRefutations {
		b := bounties[dr.bounty]
		r, err := refutationSvc.Submit(ctx, ids[dr.author], b.ID, dr.input)
		if err != nil {
			return false, fmt.Errorf("创建演示反驳失败: %w", err)
		}
		if dr.rating == nil {
			continue
		}
		if _, err := refutationSvc.Rate(ctx, b.CreatorID, r.ID, *dr.rating); err != nil {
			return false, fmt.Errorf("演示反驳评分失败: %w", err)
		}
	}

	if err := metadata.SetFlag(db.WithContext(ctx), metadata.DemoSeededKey); err != nil {
		return false, err
	}
	logger.Info("演示数据写入成功！")
	return true, nil
}
