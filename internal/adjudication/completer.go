package adjudication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/falsifi-backend/internal/platform/config"
	"github.com/sashabaranov/go-openai"
)

// Completer 外部文本补全服务的最小接口
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAICompleter 通过OpenAI兼容的chat completions接口评分
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewOpenAICompleter 根据配置创建客户端，APIKey为空时返回nil
func NewOpenAICompleter(cfg config.AdjudicationConfig) *OpenAICompleter {
	if cfg.APIKey == "" {
		return nil
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
}

func (o *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API调用失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("OpenAI没有返回任何结果")
	}
	return resp.Choices[0].Message.Content, nil
}

// NewFromConfig 创建评分器，未配置APIKey时只使用启发式评分
func NewFromConfig(cfg config.AdjudicationConfig) *Adjudicator {
	// 避免把nil指针包装成非nil接口
	if c := NewOpenAICompleter(cfg); c != nil {
		return New(c)
	}
	return New(nil)
}
