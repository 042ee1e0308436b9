package adjudication

// Disposition 反驳的处理结果
type Disposition string

const (
	DispositionPending  Disposition = "pending"
	DispositionApproved Disposition = "approved"
	DispositionRejected Disposition = "rejected"
	DispositionFlagged  Disposition = "flagged"
)

// ParseDisposition 把模型返回的状态字符串映射为已知的处理结果，未知值视为待定
func ParseDisposition(s string) Disposition {
	switch Disposition(s) {
	case DispositionApproved, DispositionRejected, DispositionFlagged:
		return Disposition(s)
	default:
		return DispositionPending
	}
}

// Source 标记一次评分走的是哪条路径
type Source string

const (
	SourceLLM        Source = "llm"
	SourceHeuristic  Source = "heuristic"
	SourceParseError Source = "parse_error"
)

// Request 一次评分所需的全部输入
type Request struct {
	ClaimTitle       string
	ClaimDescription string
	RefutationText   string
	Sources          string
}

// Evaluation 评分结果，Score在[0,100]之间，Flags永不为nil
type Evaluation struct {
	Score       int
	Feedback    string
	Disposition Disposition
	Flags       []string
	Source      Source
}
