// Package settlement 包含奖励、保证金退还和信誉分的计算规则，不涉及持久化。
package settlement

import "math"

const (
	creatorWeight = 0.7
	aiWeight      = 0.3

	// BondReturnRating 人工评分达到该值时退还保证金
	BondReturnRating = 5
	// BondReturnAIScore 没有人工评分时，自动评分达到该值退还保证金
	BondReturnAIScore = 40.0
)

// normalizedScore 没有人工评分时只看自动评分，有人工评分时按7:3加权
func normalizedScore(aiScore float64, rating *int) float64 {
	ai := aiScore / 100
	if rating == nil {
		return ai
	}
	human := float64(*rating) / 10
	// 先分别算好两项再相加，避免被合并成FMA导致舍入与预期不一致
	weightedHuman := float64(creatorWeight * human)
	weightedAI := float64(aiWeight * ai)
	return weightedHuman + weightedAI
}

// Reward 计算应得奖励，向下取整且不小于0。
// 输入在合法范围内时奖励不会超过悬赏金额。
func Reward(aiScore float64, rating *int, amount int) int {
	reward := int(math.Floor(normalizedScore(aiScore, rating) * float64(amount)))
	return max(0, reward)
}

// BondReturned 人工评分优先，否则看自动评分
func BondReturned(aiScore float64, rating *int) bool {
	if rating != nil {
		return *rating >= BondReturnRating
	}
	return aiScore >= BondReturnAIScore
}

// Reputation 已评分反驳的平均评分乘以10。没有任何评分时返回false。
func Reputation(ratings []int) (float64, bool) {
	if len(ratings) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return avg / 10 * 100, true
}
