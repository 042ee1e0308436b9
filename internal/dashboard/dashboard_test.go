package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/SlpAus/falsifi-backend/internal/adjudication"
	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/internal/leaderboard"
	"github.com/SlpAus/falsifi-backend/internal/ledger"
	"github.com/SlpAus/falsifi-backend/internal/platform/database/testdb"
	"github.com/SlpAus/falsifi-backend/internal/platform/metadata"
	"github.com/SlpAus/falsifi-backend/internal/refutation"
	"github.com/SlpAus/falsifi-backend/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	users       *user.Service
	bounties    *bounty.Service
	refutations *refutation.Service
	board       *leaderboard.Service
	svc         *Service

	alice, bob, carol uint
	open, closed      *bounty.Bounty
	bobReward         int
	carolReward       int
}

func bond(v int) *int { return &v }

// newFixture alice发布两个悬赏并关闭其中一个，bob和carol各提交一条反驳，分别得到6分和9分
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t, &user.User{}, &ledger.Entry{}, &bounty.Bounty{}, &refutation.Refutation{},
		&leaderboard.Entry{}, &metadata.Metadata{})
	l := ledger.NewService(db)

	f := &fixture{db: db}
	f.users = user.NewService(db, 1000)
	f.bounties = bounty.NewService(db, l, 30*24*time.Hour)
	f.refutations = refutation.NewService(db, l, adjudication.New(nil), 50)
	f.board = leaderboard.NewService(db, nil, nil)
	f.svc = NewService(f.users, f.bounties, f.refutations, f.board)

	ctx := context.Background()
	for _, u := range []struct {
		name string
		id   *uint
	}{{"alice", &f.alice}, {"bob", &f.bob}, {"carol", &f.carol}} {
		created, err := f.users.Register(ctx, user.RegisterInput{Username: u.name, Email: u.name + "@example.com"})
		require.NoError(t, err)
		*u.id = created.ID
	}

	var err error
	f.open, err = f.bounties.Create(ctx, f.alice, bounty.CreateInput{
		Title: "Remote work lowers productivity", Description: "Convince me otherwise.", Amount: 300,
	})
	require.NoError(t, err)
	f.closed, err = f.bounties.Create(ctx, f.alice, bounty.CreateInput{
		Title: "Tabs beat spaces", Description: "Prove it wrong.", Amount: 200,
	})
	require.NoError(t, err)
	_, err = f.bounties.Close(ctx, f.alice, f.closed.ID)
	require.NoError(t, err)

	bobRef, err := f.refutations.Submit(ctx, f.bob, f.open.ID, refutation.SubmitInput{Content: "Studies show otherwise.", Bond: bond(50)})
	require.NoError(t, err)
	carolRef, err := f.refutations.Submit(ctx, f.carol, f.open.ID, refutation.SubmitInput{Content: "Output per hour went up.", Bond: bond(0)})
	require.NoError(t, err)

	res, err := f.refutations.Rate(ctx, f.alice, bobRef.ID, refutation.RateInput{Rating: 6})
	require.NoError(t, err)
	f.bobReward = res.Reward
	res, err = f.refutations.Rate(ctx, f.alice, carolRef.ID, refutation.RateInput{Rating: 9})
	require.NoError(t, err)
	f.carolReward = res.Reward
	require.Greater(t, f.carolReward, f.bobReward)

	require.NoError(t, f.board.Rebuild(ctx))
	return f
}

func TestSiteStats(t *testing.T) {
	f := newFixture(t)

	stats, err := f.svc.SiteStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalBounties)
	assert.EqualValues(t, 1, stats.OpenBounties)
	assert.EqualValues(t, 2, stats.TotalRefutations)
	assert.EqualValues(t, 3, stats.TotalUsers)
	require.Len(t, stats.Featured, 1)
	assert.Equal(t, f.open.ID, stats.Featured[0].ID)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Profile(ctx, f.carol)
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.RefutationsSubmitted)
	require.NotNil(t, p.Rank)
	assert.EqualValues(t, 1, *p.Rank)

	p, err = f.svc.Profile(ctx, f.bob)
	require.NoError(t, err)
	require.NotNil(t, p.Rank)
	assert.EqualValues(t, 2, *p.Rank)

	p, err = f.svc.Profile(ctx, f.alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.BountiesCreated)
	assert.Nil(t, p.Rank)

	_, err = f.svc.Profile(ctx, 9999)
	assert.Error(t, err)
}

func TestOverview(t *testing.T) {
	f := newFixture(t)

	o, err := f.svc.Overview(context.Background(), f.bob)
	require.NoError(t, err)
	assert.Empty(t, o.Bounties)
	require.Len(t, o.Refutations, 1)
	assert.Equal(t, f.bobReward, o.Stats.TotalEarned)
	require.NotNil(t, o.Stats.AvgRating)
	assert.Equal(t, 6.0, *o.Stats.AvgRating)

	o, err = f.svc.Overview(context.Background(), f.alice)
	require.NoError(t, err)
	assert.Len(t, o.Bounties, 2)
	assert.Nil(t, o.Stats.AvgRating)
	// 关闭的悬赏已退款，只剩开放悬赏的托管
	assert.Equal(t, 700, o.User.Points)
}

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.svc, bounty.NewProjector(f.users, f.refutations), refutation.NewProjector(f.users))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id, err := strconv.ParseUint(c.GetHeader("X-Test-User"), 10, 64); err == nil {
			c.Set(user.UserIDKey, uint(id))
		}
	})
	r.GET("/stats", h.Stats)
	r.GET("/users/me", h.Me)
	r.GET("/users/me/dashboard", h.MyDashboard)
	r.GET("/users/:id", h.User)
	return r
}

func get(r http.Handler, path string, asUser uint) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if asUser != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(asUser), 10))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlers(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	w := get(r, "/stats", 0)
	require.Equal(t, http.StatusOK, w.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.OpenBounties)
	require.Len(t, stats.Featured, 1)
	assert.Equal(t, "alice", stats.Featured[0].Creator)
	assert.EqualValues(t, 2, stats.Featured[0].RefutationCount)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/users/me", 0).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/users/me/dashboard", 0).Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/users/9999", 0).Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/users/abc", 0).Code)

	w = get(r, "/users/me", f.bob)
	require.Equal(t, http.StatusOK, w.Code)
	var me ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "bob", me.Username)
	require.NotNil(t, me.Rank)
	assert.EqualValues(t, 2, *me.Rank)

	w = get(r, fmt.Sprintf("/users/%d", f.alice), 0)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rank":null`)

	w = get(r, "/users/me/dashboard", f.carol)
	require.Equal(t, http.StatusOK, w.Code)
	var dash DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.Empty(t, dash.MyBounties)
	require.Len(t, dash.MyRefutations, 1)
	assert.Equal(t, f.carolReward, dash.Stats.TotalEarned)
	require.NotNil(t, dash.Stats.AvgRating)
	assert.Equal(t, 9.0, *dash.Stats.AvgRating)
	assert.Equal(t, 1, dash.Stats.RefutationsSubmitted)
	assert.Equal(t, 1000+f.carolReward, dash.Stats.CurrentPoints)

	w = get(r, "/users/me/dashboard", f.alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"avg_rating":null`)
}
