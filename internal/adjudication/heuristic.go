package adjudication

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	heuristicBase        = 50
	shortWordThreshold   = 20
	shortPenalty         = 20
	longWordThreshold    = 100
	longBonus            = 10
	spamScore            = 10
	capsRatioThreshold   = 0.5
	capsPenalty          = 10
	rejectScoreThreshold = 30

	FlagTooShort      = "too_short"
	FlagSpamDetected  = "spam_detected"
	FlagExcessiveCaps = "excessive_caps"
)

var spamPhrases = []string{"click here", "buy now", "limited time", "make money fast"}

// Heuristic 不依赖外部模型的兜底评分
func Heuristic(text string) Evaluation {
	wordCount := len(strings.Fields(text))
	score := heuristicBase
	flags := []string{}

	if wordCount < shortWordThreshold {
		score -= shortPenalty
		flags = append(flags, FlagTooShort)
	}
	if wordCount > longWordThreshold {
		score += longBonus
	}

	// 垃圾内容直接覆盖前面的长度调整
	lower := strings.ToLower(text)
	for _, phrase := range spamPhrases {
		if strings.Contains(lower, phrase) {
			score = spamScore
			flags = append(flags, FlagSpamDetected)
			break
		}
	}

	if capsRatio(text) > capsRatioThreshold {
		score -= capsPenalty
		flags = append(flags, FlagExcessiveCaps)
	}

	score = clampScore(score)

	issues := "None"
	if len(flags) > 0 {
		issues = strings.Join(flags, ", ")
	}

	return Evaluation{
		Score:       score,
		Feedback:    fmt.Sprintf("Automated evaluation (AI unavailable). Length: %d words. Issues: %s", wordCount, issues),
		Disposition: dispositionFor(score, flags),
		Flags:       flags,
		Source:      SourceHeuristic,
	}
}

// dispositionFor 有标记则flagged，否则approved；低于30分最后强制为rejected
func dispositionFor(score int, flags []string) Disposition {
	d := DispositionApproved
	if len(flags) > 0 {
		d = DispositionFlagged
	}
	if score < rejectScoreThreshold {
		d = DispositionRejected
	}
	return d
}

// capsRatio 大写字母占全部字符的比例，空文本为0
func capsRatio(text string) float64 {
	total, upper := 0, 0
	for _, r := range text {
		total++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(upper) / float64(total)
}
