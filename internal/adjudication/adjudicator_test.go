package adjudication

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SlpAus/falsifi-backend/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	return f.reply, f.err
}

var sampleRequest = Request{
	ClaimTitle:       "The moon is made of cheese",
	ClaimDescription: "Dairy all the way down.",
	RefutationText:   "Apollo samples were basalt and anorthosite.",
}

func TestEvaluateWithoutCompleterUsesHeuristic(t *testing.T) {
	a := New(nil)
	assert.False(t, a.Enabled())

	got := a.Evaluate(context.Background(), sampleRequest)
	assert.Equal(t, SourceHeuristic, got.Source)
	assert.Equal(t, Heuristic(sampleRequest.RefutationText), got)
}

func TestEvaluateCompleterErrorFallsBack(t *testing.T) {
	a := New(&fakeCompleter{err: errors.New("rate limited")})
	got := a.Evaluate(context.Background(), sampleRequest)
	assert.Equal(t, SourceHeuristic, got.Source)
	assert.Equal(t, []string{FlagTooShort}, got.Flags)
}

func TestEvaluateSendsPrompts(t *testing.T) {
	fc := &fakeCompleter{reply: `{"score": 80, "feedback": "ok", "status": "approved", "flags": []}`}
	req := sampleRequest
	req.Sources = "NASA lunar sample compendium"

	New(fc).Evaluate(context.Background(), req)

	assert.Equal(t, SystemPrompt(), fc.lastSystem)
	assert.Equal(t, "BOUNTY CLAIM:\n"+
		"Title: The moon is made of cheese\n"+
		"Description: Dairy all the way down.\n"+
		"\nREFUTATION SUBMITTED:\n"+
		"Apollo samples were basalt and anorthosite.\n"+
		"\nSOURCES PROVIDED:\nNASA lunar sample compendium\n"+
		"\nEvaluate this refutation and provide your assessment in the requested JSON format.", fc.lastUser)
}

func TestBuildUserPromptWithoutSources(t *testing.T) {
	got := BuildUserPrompt(sampleRequest)
	assert.NotContains(t, got, "SOURCES PROVIDED")
	assert.True(t, strings.HasSuffix(got, "\n\nEvaluate this refutation and provide your assessment in the requested JSON format."))
}

func TestEvaluateParsesReplies(t *testing.T) {
	longReply := strings.Repeat("é", 600)

	tests := []struct {
		name  string
		reply string
		want  Evaluation
	}{
		{
			name:  "bare json",
			reply: `{"score": 82, "feedback": "Solid", "status": "approved", "flags": []}`,
			want:  Evaluation{Score: 82, Feedback: "Solid", Disposition: DispositionApproved, Flags: []string{}, Source: SourceLLM},
		},
		{
			name:  "json fence wins over later fence",
			reply: "Here you go:\n```json\n{\"score\": 20, \"feedback\": \"Weak\", \"status\": \"rejected\", \"flags\": [\"nonsense\"]}\n```\n```\n{\"score\": 99}\n```",
			want:  Evaluation{Score: 20, Feedback: "Weak", Disposition: DispositionRejected, Flags: []string{"nonsense"}, Source: SourceLLM},
		},
		{
			name:  "plain fence",
			reply: "```\n{\"score\": 64, \"status\": \"flagged\", \"flags\": [\"tone\"]}\n```",
			want:  Evaluation{Score: 64, Feedback: defaultFeedback, Disposition: DispositionFlagged, Flags: []string{"tone"}, Source: SourceLLM},
		},
		{
			name:  "missing keys use defaults",
			reply: `{}`,
			want:  Evaluation{Score: 50, Feedback: defaultFeedback, Disposition: DispositionApproved, Flags: []string{}, Source: SourceLLM},
		},
		{
			name:  "fractional and out of range score",
			reply: `{"score": 150.4}`,
			want:  Evaluation{Score: 100, Feedback: defaultFeedback, Disposition: DispositionApproved, Flags: []string{}, Source: SourceLLM},
		},
		{
			name:  "unknown status becomes pending",
			reply: `{"score": 70, "status": "maybe"}`,
			want:  Evaluation{Score: 70, Feedback: defaultFeedback, Disposition: DispositionPending, Flags: []string{}, Source: SourceLLM},
		},
		{
			name:  "not json",
			reply: "I think it is a good refutation.",
			want:  Evaluation{Score: 50, Feedback: "I think it is a good refutation.", Disposition: DispositionApproved, Flags: []string{flagParsingError}, Source: SourceParseError},
		},
		{
			name:  "wrong field type",
			reply: `{"score": "high"}`,
			want:  Evaluation{Score: 50, Feedback: `{"score": "high"}`, Disposition: DispositionApproved, Flags: []string{flagParsingError}, Source: SourceParseError},
		},
		{
			name:  "long garbage is truncated to 500 characters",
			reply: longReply,
			want:  Evaluation{Score: 50, Feedback: strings.Repeat("é", 500), Disposition: DispositionApproved, Flags: []string{flagParsingError}, Source: SourceParseError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(&fakeCompleter{reply: tt.reply}).Evaluate(context.Background(), sampleRequest)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewOpenAICompleterRequiresKey(t *testing.T) {
	assert.Nil(t, NewOpenAICompleter(config.AdjudicationConfig{}))
	assert.False(t, NewFromConfig(config.AdjudicationConfig{}).Enabled())
}

// 用httptest模拟chat completions接口，走真实的go-openai客户端
func TestOpenAICompleterAgainstFakeServer(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "` + "```json\\n{\\\"score\\\": 77, \\\"feedback\\\": \\\"Good\\\", \\\"status\\\": \\\"approved\\\", \\\"flags\\\": []}\\n```" + `"}
			}]
		}`))
	}))
	defer srv.Close()

	a := NewFromConfig(config.AdjudicationConfig{
		APIKey:      "sk-test",
		BaseURL:     srv.URL + "/v1",
		Temperature: 0.3,
		MaxTokens:   1000,
		Timeout:     5 * time.Second,
	})
	require.True(t, a.Enabled())

	got := a.Evaluate(context.Background(), sampleRequest)
	assert.Equal(t, Evaluation{Score: 77, Feedback: "Good", Disposition: DispositionApproved, Flags: []string{}, Source: SourceLLM}, got)

	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.InDelta(t, 0.3, gotBody["temperature"], 1e-6)
	assert.EqualValues(t, 1000, gotBody["max_tokens"])
	messages, ok := gotBody["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
}

func TestOpenAICompleterServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	a := NewFromConfig(config.AdjudicationConfig{APIKey: "sk-bad", BaseURL: srv.URL + "/v1"})
	got := a.Evaluate(context.Background(), sampleRequest)
	assert.Equal(t, SourceHeuristic, got.Source)
}
