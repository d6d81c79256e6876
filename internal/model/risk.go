package model

// RiskLevel buckets a fraud score for display coloring.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (l RiskLevel) String() string {
	switch l {
	case RiskHigh:
		return "high"
	case RiskMedium:
		return "medium"
	default:
		return "low"
	}
}

// ClassifyRisk maps a fraud score onto a risk tier. Boundaries are inclusive
// at the lower bound: >=75 high, >=30 medium, else low.
func ClassifyRisk(score int) RiskLevel {
	switch {
	case score >= 75:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// BatchStats aggregates summary analytics for an entire run.
type BatchStats struct {
	TotalChecked          int     `json:"total_checked"`
	Completed             int     `json:"completed"`
	Failed                int     `json:"failed"`
	HighRisk              int     `json:"high_risk"`
	AvgFraudScore         float64 `json:"avg_fraud_score"`
	AvgLatencyMs          float64 `json:"avg_latency_ms"`
	SuccessRatePct        float64 `json:"success_rate_pct"`
	TotalProcessingTimeMs int64   `json:"total_processing_time_ms"`
}
