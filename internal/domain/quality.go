package domain

import (
	"fmt"
	"math"
)

// Penalty weights for the quality score. The model is additive: the score
// starts at 1.0 and each finding subtracts its weight, clamped to [0,1].
const (
	penaltyMissingField   = 0.2
	penaltyPerParseError  = 0.05
	maxAgePenalty         = 0.3
	ageHorizonHours       = 72.0
	stalenessThresholdHrs = 24.0
)

// QualityResult is the output of ScoreReport: the clamped score plus a
// human-readable list of everything that cost points.
type QualityResult struct {
	Score  float64
	Issues []string
}

// ScoreReport computes a 0–1 confidence score for a normalized report.
// It is pure given a fixed clock: scoring the same immutable report twice
// yields the same result, and it never mutates its input.
func ScoreReport(report NormalizedReport) QualityResult {
	var penalties float64
	var issues []string

	if report.Headline == "" {
		penalties += penaltyMissingField
		issues = append(issues, "missing headline")
	}
	if report.Summary == "" {
		penalties += penaltyMissingField
		issues = append(issues, "missing summary")
	}
	if report.Details == "" {
		penalties += penaltyMissingField
		issues = append(issues, "missing details")
	}

	if !report.IssuedAt.IsZero() {
		hoursOld := clock.Now().Sub(report.IssuedAt).Hours()
		if hoursOld > stalenessThresholdHrs {
			penalties += math.Min(maxAgePenalty, hoursOld/ageHorizonHours)
			issues = append(issues, fmt.Sprintf("report is %d hours old", int(math.Round(hoursOld))))
		}
	}

	if n := len(report.ProcessingErrors); n > 0 {
		penalties += penaltyPerParseError * float64(n)
		issues = append(issues, fmt.Sprintf("%d processing errors during normalization", n))
	}

	score := 1.0 - penalties
	score = math.Max(0, math.Min(1, score))

	return QualityResult{Score: score, Issues: issues}
}
