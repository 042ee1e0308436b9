// Package adjudication 为反驳打出0-100的质量分。
// 配置了外部模型时调用模型评分，否则或调用失败时使用启发式规则。
package adjudication

import (
	"context"
	"unicode/utf8"

	"github.com/SlpAus/falsifi-backend/internal/platform/metrics"
	"github.com/SlpAus/falsifi-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Scorer 是业务层依赖的评分接口
type Scorer interface {
	Evaluate(ctx context.Context, req Request) Evaluation
}

// Adjudicator 两段式评分器。completer为nil时只走启发式。
type Adjudicator struct {
	completer Completer
}

func New(completer Completer) *Adjudicator {
	return &Adjudicator{completer: completer}
}

// Evaluate 永远返回一个结果，外部调用和解析的错误只记录日志
func (a *Adjudicator) Evaluate(ctx context.Context, req Request) Evaluation {
	if a.completer == nil {
		return a.fallback(req)
	}

	reply, err := a.completer.Complete(ctx, SystemPrompt(), BuildUserPrompt(req))
	if err != nil {
		metrics.ScorerFailuresTotal.Inc()
		logger.WithError(err).Warn("外部评分失败，改用启发式评分")
		return a.fallback(req)
	}

	eval, err := decodeReply(reply)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"reply_length": utf8.RuneCountInString(reply),
		}).Warn("无法解析评分回复")
		eval = parseFailure(reply)
	}

	metrics.EvaluationsTotal.WithLabelValues(string(eval.Source)).Inc()
	return eval
}

func (a *Adjudicator) fallback(req Request) Evaluation {
	eval := Heuristic(req.RefutationText)
	metrics.EvaluationsTotal.WithLabelValues(string(eval.Source)).Inc()
	return eval
}

// Enabled 是否配置了外部模型
func (a *Adjudicator) Enabled() bool {
	return a.completer != nil
}
