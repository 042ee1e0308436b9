package refutation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/SlpAus/falsifi-backend/internal/bounty"
	"github.com/SlpAus/falsifi-backend/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.svc, f.bounties, bounty.NewProjector(f.users, f.svc), NewProjector(f.users))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id, err := strconv.ParseUint(c.GetHeader("X-Test-User"), 10, 64); err == nil {
			c.Set(user.UserIDKey, uint(id))
		}
	})
	r.GET("/bounties/:id", h.BountyDetail)
	r.POST("/bounties/:id/refutations", user.RequireUser(), h.Submit)
	r.GET("/refutations/:id", h.Get)
	r.POST("/refutations/:id/rate", user.RequireUser(), h.Rate)
	return r
}

func call(r http.Handler, method, path string, asUser uint, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if asUser != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(asUser), 10))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRefutationHTTPFlow(t *testing.T) {
	f := newFixture(t, nil)
	alice := f.newUser(t, "alice", 1000)
	bob := f.newUser(t, "bob", 500)
	b := f.newBounty(t, alice, 300, true)
	r := newTestRouter(f)

	submitPath := fmt.Sprintf("/bounties/%d/refutations", b.ID)

	w := call(r, http.MethodPost, submitPath, 0, gin.H{"content": mediumText})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(r, http.MethodPost, submitPath, alice, gin.H{"content": mediumText})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "SELF_REFUTATION")

	w = call(r, http.MethodPost, submitPath, bob, gin.H{"content": mediumText, "sources": "https://example.org", "bond_amount": 50})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "bob", created.Author)
	assert.Equal(t, "approved", created.AdjudicationStatus)
	require.NotNil(t, created.AIScore)
	assert.Equal(t, 50.0, *created.AIScore)
	assert.Equal(t, []string{}, created.AIFlags)
	assert.Nil(t, created.CreatorRating)

	w = call(r, http.MethodGet, fmt.Sprintf("/bounties/%d", b.ID), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail BountyDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "alice", detail.Bounty.Creator)
	assert.EqualValues(t, 1, detail.Bounty.RefutationCount)
	assert.Len(t, detail.Refutations, 1)
	assert.Nil(t, detail.AvgRating)
	assert.True(t, detail.CanRefute)
	assert.False(t, detail.IsOwner)

	ratePath := fmt.Sprintf("/refutations/%d/rate", created.ID)
	w = call(r, http.MethodPost, ratePath, bob, gin.H{"rating": 7})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(r, http.MethodPost, ratePath, alice, gin.H{"rating": 11})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, http.MethodPost, ratePath, alice, gin.H{"rating": 7, "feedback": "good"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rated struct {
		Refutation   Response `json:"refutation"`
		Reward       int      `json:"reward"`
		BondReturned bool     `json:"bond_returned"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rated))
	assert.Equal(t, 191, rated.Reward)
	assert.True(t, rated.BondReturned)
	assert.Equal(t, 7, *rated.Refutation.CreatorRating)

	w = call(r, http.MethodPost, ratePath, alice, gin.H{"rating": 7})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_RATED")

	w = call(r, http.MethodGet, fmt.Sprintf("/bounties/%d", b.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.NotNil(t, detail.AvgRating)
	assert.Equal(t, 7.0, *detail.AvgRating)
	assert.False(t, detail.CanRefute)
	assert.True(t, detail.IsOwner)

	w = call(r, http.MethodGet, fmt.Sprintf("/refutations/%d", created.ID), 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reward_earned":191`)
}

func TestDetailNotFound(t *testing.T) {
	f := newFixture(t, nil)
	r := newTestRouter(f)

	w := call(r, http.MethodGet, "/bounties/42", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = call(r, http.MethodGet, "/refutations/42", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = call(r, http.MethodGet, "/refutations/zero", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectionRoundsScore(t *testing.T) {
	score := 66.666
	resp := toResponse(&Refutation{ID: 1, AIScore: &score}, "bob")
	assert.Equal(t, 66.67, *resp.AIScore)
	assert.Equal(t, []string{}, resp.AIFlags)
	assert.Empty(t, resp.CreatedAt)

	p := NewProjector(user.NewService(nil, 0))
	out, err := p.Project(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
