package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var flareBase = time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

func donkiFlareAt(class string, begin time.Time) FlareEvent {
	return FlareEvent{
		ID:        "flr-" + class + "-" + begin.Format("150405"),
		ClassType: class,
		BeginTime: begin,
		PeakTime:  begin.Add(8 * time.Minute),
		Source:    SourceNASADONKI,
	}
}

func goesFlareAt(class string, begin time.Time) FlareEvent {
	ev := donkiFlareAt(class, begin)
	ev.ID = "goes-" + class + "-" + begin.Format("150405")
	ev.Source = SourceNOAAGOES
	return ev
}

func TestMergeFlareEvents_SecondaryWithinWindowDiscarded(t *testing.T) {
	primary := []FlareEvent{donkiFlareAt("X1.0", flareBase)}
	secondary := []FlareEvent{goesFlareAt("X1.0", flareBase.Add(3*time.Minute))}

	merged := MergeFlareEvents(primary, secondary)

	require.Len(t, merged, 1)
	assert.Equal(t, SourceNASADONKI, merged[0].Source, "primary source must win the tie")
}

func TestMergeFlareEvents_DifferentClassKept(t *testing.T) {
	primary := []FlareEvent{donkiFlareAt("M2.1", flareBase)}
	secondary := []FlareEvent{goesFlareAt("M2.2", flareBase.Add(2*time.Minute))}

	merged := MergeFlareEvents(primary, secondary)

	assert.Len(t, merged, 2, "different class strings are never merged")
}

// Same-class events six minutes apart fall outside the ±5 minute window and
// are kept as two events even if they were one physical flare. Pinned on
// purpose: the merge is a bucketing heuristic, not interval overlap.
func TestMergeFlareEvents_OutsideWindowKept(t *testing.T) {
	primary := []FlareEvent{donkiFlareAt("C3.0", flareBase)}
	secondary := []FlareEvent{goesFlareAt("C3.0", flareBase.Add(6*time.Minute))}

	merged := MergeFlareEvents(primary, secondary)

	assert.Len(t, merged, 2)
}

func TestMergeFlareEvents_EmptyPrimaryPreservesSecondary(t *testing.T) {
	secondary := []FlareEvent{
		goesFlareAt("M1.0", flareBase),
		goesFlareAt("C5.2", flareBase.Add(-2*time.Hour)),
	}

	merged := MergeFlareEvents(nil, secondary)

	require.Len(t, merged, 2)
	for _, ev := range merged {
		assert.Equal(t, SourceNOAAGOES, ev.Source)
	}
}

func TestMergeFlareEvents_DuplicateWithinPrimarySkipped(t *testing.T) {
	primary := []FlareEvent{
		donkiFlareAt("X2.0", flareBase),
		donkiFlareAt("X2.0", flareBase.Add(20*time.Second)), // same minute bucket
	}

	merged := MergeFlareEvents(primary, nil)

	assert.Len(t, merged, 1)
}

func TestMergeFlareEvents_SortedNewestFirst(t *testing.T) {
	primary := []FlareEvent{
		donkiFlareAt("C1.0", flareBase.Add(-3*time.Hour)),
		donkiFlareAt("M4.0", flareBase),
	}
	secondary := []FlareEvent{
		goesFlareAt("B7.0", flareBase.Add(-1*time.Hour)),
	}

	merged := MergeFlareEvents(primary, secondary)

	require.Len(t, merged, 3)
	for i := 1; i < len(merged); i++ {
		assert.False(t, merged[i-1].BeginTime.Before(merged[i].BeginTime),
			"events out of order at index %d", i)
	}
	assert.Equal(t, "M4.0", merged[0].ClassType)
}

func TestMergeFlareEvents_Empty(t *testing.T) {
	assert.Empty(t, MergeFlareEvents(nil, nil))
}

func TestSummarizeFlareActivity(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(flareBase))
	t.Cleanup(func() { SetClock(nil) })

	tests := []struct {
		name     string
		events   []FlareEvent
		expected string
	}{
		{"no events", nil, "Quiet"},
		{"single B", []FlareEvent{donkiFlareAt("B4.2", flareBase.Add(-time.Hour))}, "Very Low"},
		{"couple of C", []FlareEvent{
			donkiFlareAt("C1.1", flareBase.Add(-time.Hour)),
			donkiFlareAt("C8.0", flareBase.Add(-2*time.Hour)),
		}, "Low"},
		{"single M", []FlareEvent{donkiFlareAt("M1.5", flareBase.Add(-time.Hour))}, "Moderate"},
		{"three M", []FlareEvent{
			donkiFlareAt("M1.0", flareBase.Add(-1*time.Hour)),
			donkiFlareAt("M2.0", flareBase.Add(-2*time.Hour)),
			donkiFlareAt("M3.0", flareBase.Add(-3*time.Hour)),
		}, "High"},
		{"any X dominates", []FlareEvent{
			donkiFlareAt("X1.0", flareBase.Add(-time.Hour)),
			donkiFlareAt("B2.0", flareBase.Add(-2*time.Hour)),
		}, "Very High"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activity := SummarizeFlareActivity(tt.events, 24*time.Hour)
			assert.Equal(t, tt.expected, activity.ActivityLevel)
		})
	}

	t.Run("events outside window excluded", func(t *testing.T) {
		events := []FlareEvent{
			donkiFlareAt("X9.0", flareBase.Add(-48*time.Hour)),
			donkiFlareAt("C2.0", flareBase.Add(-time.Hour)),
		}
		activity := SummarizeFlareActivity(events, 24*time.Hour)
		assert.Equal(t, "Low", activity.ActivityLevel)
		assert.Equal(t, 0, activity.CountsByClass["X"])
		assert.Equal(t, 1, activity.CountsByClass["C"])
	})

	t.Run("falls back to begin time when peak missing", func(t *testing.T) {
		ev := FlareEvent{ClassType: "M5.0", BeginTime: flareBase.Add(-time.Hour), Source: SourceNOAAGOES}
		activity := SummarizeFlareActivity([]FlareEvent{ev}, 24*time.Hour)
		assert.Equal(t, 1, activity.CountsByClass["M"])
	})
}
