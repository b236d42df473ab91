package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FlareEvent is one solar flare as reported by a catalog source. Events are
// created by parsers, consumed by MergeFlareEvents, and never mutated after
// creation; the merge produces a new composite list.
type FlareEvent struct {
	ID              string    `json:"id"`
	ClassType       string    `json:"class_type"` // GOES class, e.g. "M5.4"
	BeginTime       time.Time `json:"begin_time"`
	PeakTime        time.Time `json:"peak_time,omitzero"`
	EndTime         time.Time `json:"end_time,omitzero"`
	SourceLocation  string    `json:"source_location,omitempty"` // heliographic, e.g. "N15W30"
	ActiveRegionNum int       `json:"active_region_num,omitempty"`
	Source          Source    `json:"source"`
}

// mergeWindowMinutes is how far apart (in whole minutes) two same-class
// events may start and still be treated as one physical flare.
const mergeWindowMinutes = 5

// flareKey buckets an event by begin time rounded down to the minute plus
// its class string.
func flareKey(t time.Time, classType string) string {
	ms := t.Truncate(time.Minute).UnixMilli()
	return fmt.Sprintf("%d_%s", ms, classType)
}

// MergeFlareEvents reconciles two flare catalogs believed to describe
// overlapping physical events. Primary events are inserted first; a
// secondary event is discarded when a same-class primary event starts within
// ±5 minutes of it, so the primary source always wins ties and the secondary
// only fills genuine gaps. The result is sorted by begin time, newest first.
//
// This is a greedy, one-pass, order-dependent heuristic, not interval
// overlap: same-class events six or more minutes apart are never merged, and
// genuinely distinct same-class events within the window are collapsed. That
// matches the catalogs' observed reporting jitter and is kept deliberately;
// tests pin the approximation.
func MergeFlareEvents(primary, secondary []FlareEvent) []FlareEvent {
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	merged := make([]FlareEvent, 0, len(primary)+len(secondary))

	for _, ev := range primary {
		key := flareKey(ev.BeginTime, ev.ClassType)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, ev)
	}

	for _, ev := range secondary {
		base := ev.BeginTime.Truncate(time.Minute)
		dup := false
		for offset := -mergeWindowMinutes; offset <= mergeWindowMinutes; offset++ {
			key := flareKey(base.Add(time.Duration(offset)*time.Minute), ev.ClassType)
			if _, ok := seen[key]; ok {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[flareKey(ev.BeginTime, ev.ClassType)] = struct{}{}
		merged = append(merged, ev)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].BeginTime.After(merged[j].BeginTime)
	})
	return merged
}

// FlareActivity summarizes a merged flare list over a recent window.
type FlareActivity struct {
	CountsByClass map[string]int `json:"counts_by_class"` // keys "B","C","M","X"
	ActivityLevel string         `json:"activity_level"`
}

// SummarizeFlareActivity counts flares by class letter within the window
// ending now and classifies overall activity. Events without a recognizable
// class letter are ignored.
func SummarizeFlareActivity(events []FlareEvent, window time.Duration) FlareActivity {
	cutoff := clock.Now().Add(-window)
	counts := map[string]int{"B": 0, "C": 0, "M": 0, "X": 0}

	for _, ev := range events {
		t := ev.PeakTime
		if t.IsZero() {
			t = ev.BeginTime
		}
		if t.Before(cutoff) {
			continue
		}
		class := strings.ToUpper(ev.ClassType)
		if class == "" {
			continue
		}
		letter := class[:1]
		if _, ok := counts[letter]; ok {
			counts[letter]++
		}
	}

	return FlareActivity{
		CountsByClass: counts,
		ActivityLevel: classifyActivityLevel(counts),
	}
}

// classifyActivityLevel ranks flare counts into a qualitative label, X-class
// activity dominating.
func classifyActivityLevel(counts map[string]int) string {
	switch {
	case counts["X"] > 0:
		return "Very High"
	case counts["M"] >= 3:
		return "High"
	case counts["M"] >= 1:
		return "Moderate"
	case counts["C"] >= 5:
		return "Low-Moderate"
	case counts["C"] >= 1:
		return "Low"
	case counts["B"] >= 1:
		return "Very Low"
	default:
		return "Quiet"
	}
}
