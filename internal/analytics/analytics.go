package analytics

import (
	"time"

	"github.com/zpix/proxyscore/internal/model"
)

// Compute aggregates summary stats for one verification run.
func Compute(results []model.CheckResult, failures []model.CheckFailure, totalDuration time.Duration) model.BatchStats {
	stats := model.BatchStats{
		TotalChecked:          len(results) + len(failures),
		Completed:             len(results),
		Failed:                len(failures),
		TotalProcessingTimeMs: totalDuration.Milliseconds(),
	}

	var fraudSum int64
	var latencySum int64
	var latencyCount int64

	for _, r := range results {
		fraudSum += int64(r.FraudScore)
		if r.Risk() == model.RiskHigh {
			stats.HighRisk++
		}
		if r.LatencyMs > 0 {
			latencySum += r.LatencyMs
			latencyCount++
		}
	}

	if len(results) > 0 {
		stats.AvgFraudScore = float64(fraudSum) / float64(len(results))
	}
	if latencyCount > 0 {
		stats.AvgLatencyMs = float64(latencySum) / float64(latencyCount)
	}
	if stats.TotalChecked > 0 {
		stats.SuccessRatePct = float64(stats.Completed) / float64(stats.TotalChecked) * 100.0
	}

	return stats
}
