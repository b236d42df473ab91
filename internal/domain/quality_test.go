package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scoringNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(scoringNow))
	t.Cleanup(func() { SetClock(nil) })
}

func completeReport() NormalizedReport {
	return NormalizedReport{
		Source:    SourceNOAASWPC,
		Headline:  "Solar activity was moderate.",
		Summary:   "Solar activity was moderate with one M-class event.",
		Details:   "Full discussion text.",
		IssuedAt:  scoringNow.Add(-2 * time.Hour),
		FetchedAt: scoringNow,
	}
}

func TestScoreReport_CompleteFreshReport(t *testing.T) {
	freezeClock(t)

	result := ScoreReport(completeReport())

	assert.Equal(t, 1.0, result.Score)
	assert.Empty(t, result.Issues)
}

func TestScoreReport_MissingFields(t *testing.T) {
	freezeClock(t)

	t.Run("missing headline", func(t *testing.T) {
		r := completeReport()
		r.Headline = ""
		result := ScoreReport(r)
		assert.InDelta(t, 0.8, result.Score, 1e-9)
		assert.Contains(t, result.Issues, "missing headline")
	})

	t.Run("missing all narrative fields", func(t *testing.T) {
		r := completeReport()
		r.Headline, r.Summary, r.Details = "", "", ""
		result := ScoreReport(r)
		assert.InDelta(t, 0.4, result.Score, 1e-9)
		assert.Len(t, result.Issues, 3)
	})
}

func TestScoreReport_AgePenalty(t *testing.T) {
	freezeClock(t)

	t.Run("fresh report unpenalized", func(t *testing.T) {
		r := completeReport()
		r.IssuedAt = scoringNow.Add(-23 * time.Hour)
		assert.Equal(t, 1.0, ScoreReport(r).Score)
	})

	t.Run("stale report penalized proportionally", func(t *testing.T) {
		r := completeReport()
		r.IssuedAt = scoringNow.Add(-36 * time.Hour)
		result := ScoreReport(r)
		// 36h / 72h horizon = 0.5, capped at 0.3.
		assert.InDelta(t, 0.7, result.Score, 1e-9)
		assert.Contains(t, result.Issues, "report is 36 hours old")
	})

	t.Run("cap applies to very old reports", func(t *testing.T) {
		r := completeReport()
		r.IssuedAt = scoringNow.Add(-30 * 24 * time.Hour)
		assert.InDelta(t, 0.7, ScoreReport(r).Score, 1e-9)
	})

	t.Run("unknown issue time skips age penalty", func(t *testing.T) {
		r := completeReport()
		r.IssuedAt = time.Time{}
		assert.Equal(t, 1.0, ScoreReport(r).Score)
	})
}

func TestScoreReport_ProcessingErrorPenalty(t *testing.T) {
	freezeClock(t)

	r := completeReport()
	r.ProcessingErrors = []string{"no issue time found", "probabilities feed unavailable"}

	result := ScoreReport(r)
	assert.InDelta(t, 0.9, result.Score, 1e-9)
	assert.Contains(t, result.Issues, "2 processing errors during normalization")
}

// An empty report older than a day must bottom out at or below 0.2: three
// missing-field penalties plus the age cap, clamped at zero.
func TestScoreReport_WorstCaseFloor(t *testing.T) {
	freezeClock(t)

	r := NormalizedReport{
		Source:    SourceSIDC,
		IssuedAt:  scoringNow.Add(-48 * time.Hour),
		FetchedAt: scoringNow,
	}

	result := ScoreReport(r)
	assert.LessOrEqual(t, result.Score, 0.2)
	assert.GreaterOrEqual(t, result.Score, 0.0)
}

// A clean parse (no processing errors, headline and summary present) must
// score at least 0.6 no matter how stale the bulletin is.
func TestScoreReport_CleanParseInvariant(t *testing.T) {
	freezeClock(t)

	r := completeReport()
	r.IssuedAt = scoringNow.Add(-14 * 24 * time.Hour)

	result := ScoreReport(r)
	assert.GreaterOrEqual(t, result.Score, 0.6)
}

func TestScoreReport_Idempotent(t *testing.T) {
	freezeClock(t)

	r := completeReport()
	r.ProcessingErrors = []string{"one degradation"}
	r.IssuedAt = scoringNow.Add(-30 * time.Hour)

	first := ScoreReport(r)
	second := ScoreReport(r)

	require.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Issues, second.Issues)
}
