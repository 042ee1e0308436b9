package adjudication

import "strings"

// systemPrompt 评分标准和输出格式，必须逐字保持，换用任何模型都使用同一份
const systemPrompt = `You are an expert in critical thinking, logic, and debate.
Your task is to evaluate refutations of claims and ideas.

Evaluate the refutation on these criteria:
1. Logical validity - Does the argument follow logically?
2. Evidence quality - Are claims supported by evidence?
3. Relevance - Does it address the core claim?
4. Rhetorical quality - Is it clear, concise, and well-structured?
5. Tone - Is it constructive and not needlessly hostile?

Provide a score (0-100) and detailed feedback.
Flag egregiously bad-faith arguments (spam, nonsense, personal attacks without substance).

Respond in JSON format:
{
  "score": 75,
  "feedback": "Detailed feedback here...",
  "status": "approved|flagged|rejected",
  "flags": ["list", "of", "issues"]
}`

// SystemPrompt 返回固定的系统提示词
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt 组装用户消息: 主张、反驳，以及可选的来源
func BuildUserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("BOUNTY CLAIM:\n")
	b.WriteString("Title: " + req.ClaimTitle + "\n")
	b.WriteString("Description: " + req.ClaimDescription + "\n")
	b.WriteString("\nREFUTATION SUBMITTED:\n")
	b.WriteString(req.RefutationText + "\n")
	if req.Sources != "" {
		b.WriteString("\nSOURCES PROVIDED:\n" + req.Sources + "\n")
	}
	b.WriteString("\nEvaluate this refutation and provide your assessment in the requested JSON format.")
	return b.String()
}
