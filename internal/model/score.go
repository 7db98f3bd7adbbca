package model

type ScoreDetail struct {
	Key         string `json:"key"`
	Score       int    `json:"score"`
	Total       int    `json:"total"`
	Label       string `json:"label"`
	Description string `json:"description"`
	// Percent is the share of the category total reached; the summary bars use it as their width.
	Percent float64 `json:"percent"`
}

type ScoreSummary struct {
	HealthScore int           `json:"health_score"`
	Narrative   string        `json:"narrative"`
	Details     []ScoreDetail `json:"details"`
}

// TodayNarrative is the fixed natural-language summary of the scan results.
const TodayNarrative = "面色红润，舌苔正常，20步测试平稳"

var scoreDetails = []ScoreDetail{
	{Key: "breath", Score: 18, Total: 20, Label: "心肺气息", Description: "15秒呼吸采样完成"},
	{Key: "face", Score: 19, Total: 20, Label: "面部气色", Description: "红润有光泽"},
	{Key: "tongue", Score: 17, Total: 20, Label: "舌象形态", Description: "舌苔薄白正常"},
	{Key: "gait", Score: 20, Total: 20, Label: "步态分析", Description: "20步轨迹平稳"},
	{Key: "data", Score: 20, Total: 20, Label: "基础病史", Description: "控制状态良好"},
}

// ScoreDetails returns a copy of the per-category table in display order.
func ScoreDetails() []ScoreDetail {
	out := make([]ScoreDetail, len(scoreDetails))
	copy(out, scoreDetails)
	for i := range out {
		out[i].Percent = percent(out[i].Score, out[i].Total)
	}
	return out
}

// Summary builds today's score summary. The health score is the sum of the category scores.
func Summary() ScoreSummary {
	details := ScoreDetails()
	total := 0
	for _, d := range details {
		total += d.Score
	}
	return ScoreSummary{
		HealthScore: total,
		Narrative:   TodayNarrative,
		Details:     details,
	}
}

func percent(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}
