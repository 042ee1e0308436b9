package adjudication

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

const (
	defaultScore     = 50
	defaultFeedback  = "No feedback provided"
	rawFeedbackLimit = 500
	flagParsingError = "parsing_error"
	jsonFence        = "```json"
	fence            = "```"
)

var errNotObject = errors.New("回复不是JSON对象")

// extractPayload 按优先级取出JSON文本: ```json代码块，其次任意代码块，最后整段回复
func extractPayload(reply string) string {
	if _, after, ok := strings.Cut(reply, jsonFence); ok {
		body, _, _ := strings.Cut(after, fence)
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(reply, fence); ok {
		body, _, _ := strings.Cut(after, fence)
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(reply)
}

// decodeReply 解析模型回复，缺失的字段使用默认值
func decodeReply(reply string) (Evaluation, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractPayload(reply)), &fields); err != nil {
		return Evaluation{}, err
	}
	if fields == nil {
		return Evaluation{}, errNotObject
	}

	score := float64(defaultScore)
	feedback := defaultFeedback
	status := string(DispositionApproved)
	flags := []string{}

	// null与缺失等价，Unmarshal遇到null时保留默认值
	if raw, ok := fields["score"]; ok {
		if err := json.Unmarshal(raw, &score); err != nil {
			return Evaluation{}, err
		}
	}
	if raw, ok := fields["feedback"]; ok {
		if err := json.Unmarshal(raw, &feedback); err != nil {
			return Evaluation{}, err
		}
	}
	if raw, ok := fields["status"]; ok {
		if err := json.Unmarshal(raw, &status); err != nil {
			return Evaluation{}, err
		}
	}
	if raw, ok := fields["flags"]; ok {
		if err := json.Unmarshal(raw, &flags); err != nil {
			return Evaluation{}, err
		}
		if flags == nil {
			flags = []string{}
		}
	}

	return Evaluation{
		Score:       clampScore(int(math.Round(score))),
		Feedback:    feedback,
		Disposition: ParseDisposition(status),
		Flags:       flags,
		Source:      SourceLLM,
	}, nil
}

// parseFailure 回复无法解析时的降级结果
func parseFailure(reply string) Evaluation {
	return Evaluation{
		Score:       defaultScore,
		Feedback:    truncateRunes(reply, rawFeedbackLimit),
		Disposition: DispositionApproved,
		Flags:       []string{flagParsingError},
		Source:      SourceParseError,
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func clampScore(score int) int {
	return max(0, min(100, score))
}
