package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
	"github.com/couchcryptid/space-weather-ingest/internal/fetch"
)

const donkiFlarePath = "/DONKI/FLR"

// donkiWindowDays is how far back the flare catalog query reaches.
const donkiWindowDays = 3

// DONKI normalizes NASA's DONKI solar-flare catalog. It is the primary
// flare-event producer for the deduplicator and also emits a summary report
// describing recent flare activity.
type DONKI struct {
	client  *fetch.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

func NewDONKI(client *fetch.Client, baseURL string, logger *slog.Logger) *DONKI {
	return &DONKI{client: client, baseURL: baseURL, apiKey: "DEMO_KEY", logger: logger}
}

// WithAPIKey sets a non-default NASA API key.
func (s *DONKI) WithAPIKey(key string) *DONKI {
	if key != "" {
		s.apiKey = key
	}
	return s
}

func (s *DONKI) Source() domain.Source { return domain.SourceNASADONKI }

// donkiFlare is one catalog entry as served by the DONKI FLR endpoint.
type donkiFlare struct {
	FlrID           string `json:"flrID"`
	ClassType       string `json:"classType"`
	BeginTime       string `json:"beginTime"`
	PeakTime        string `json:"peakTime"`
	EndTime         string `json:"endTime"`
	SourceLocation  string `json:"sourceLocation"`
	ActiveRegionNum int    `json:"activeRegionNum"`
}

// donkiTimeLayouts: DONKI serves minute-resolution timestamps with a
// trailing Z and no seconds.
var donkiTimeLayouts = []string{"2006-01-02T15:04Z", time.RFC3339}

func (s *DONKI) catalogURL() string {
	now := domain.Clock().Now().UTC()
	params := url.Values{
		"startDate": {now.AddDate(0, 0, -donkiWindowDays).Format("2006-01-02")},
		"endDate":   {now.Format("2006-01-02")},
		"api_key":   {s.apiKey},
	}
	return s.baseURL + donkiFlarePath + "?" + params.Encode()
}

// Flares fetches and decodes the catalog. Entries with an unparseable begin
// time are dropped; everything else is kept even when partially populated.
func (s *DONKI) Flares(ctx context.Context) ([]domain.FlareEvent, error) {
	resp, err := s.client.Get(ctx, s.catalogURL(), http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, fmt.Errorf("donki flare catalog: %w", err)
	}
	events, _ := parseDONKIFlares(resp.Body)
	return events, nil
}

// Normalize fetches the catalog and reduces it to an activity summary
// report. Individual malformed entries degrade into ProcessingErrors.
func (s *DONKI) Normalize(ctx context.Context) (domain.NormalizedReport, error) {
	catalogURL := s.catalogURL()
	resp, err := s.client.Get(ctx, catalogURL, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return domain.NormalizedReport{}, fmt.Errorf("donki flare catalog: %w", err)
	}

	report := domain.NormalizedReport{
		Source:     domain.SourceNASADONKI,
		SourceURL:  catalogURL,
		FetchedAt:  domain.Clock().Now().UTC(),
		RawPayload: resp.Body,
	}

	events, dropped := parseDONKIFlares(resp.Body)
	if events == nil && dropped == 0 {
		report.AddProcessingError("flare catalog unreadable")
	}
	if dropped > 0 {
		report.AddProcessingError("%d catalog entries dropped (missing begin time)", dropped)
	}

	fillFlareNarrative(&report, events, 24*time.Hour)

	finishReport(&report, s.logger)
	return report, nil
}

// parseDONKIFlares decodes catalog JSON into flare events, returning the
// count of entries dropped for lacking a usable begin time.
func parseDONKIFlares(raw []byte) ([]domain.FlareEvent, int) {
	var entries []donkiFlare
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, 0
	}

	events := make([]domain.FlareEvent, 0, len(entries))
	dropped := 0
	for _, e := range entries {
		begin, ok := parseCatalogTime(e.BeginTime)
		if !ok {
			dropped++
			continue
		}
		ev := domain.FlareEvent{
			ID:              e.FlrID,
			ClassType:       e.ClassType,
			BeginTime:       begin,
			SourceLocation:  e.SourceLocation,
			ActiveRegionNum: e.ActiveRegionNum,
			Source:          domain.SourceNASADONKI,
		}
		if peak, ok := parseCatalogTime(e.PeakTime); ok {
			ev.PeakTime = peak
		}
		if end, ok := parseCatalogTime(e.EndTime); ok {
			ev.EndTime = end
		}
		events = append(events, ev)
	}
	return events, dropped
}

func parseCatalogTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range donkiTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// fillFlareNarrative populates headline/summary/details from a flare list.
// Shared by the DONKI and GOES normalizers.
func fillFlareNarrative(report *domain.NormalizedReport, events []domain.FlareEvent, window time.Duration) {
	activity := domain.SummarizeFlareActivity(events, window)
	counts := activity.CountsByClass

	report.Headline = fmt.Sprintf("Solar flare activity: %s", activity.ActivityLevel)
	report.Summary = fmt.Sprintf(
		"%d flares in the last %d hours (%d X-class, %d M-class, %d C-class, %d B-class).",
		counts["B"]+counts["C"]+counts["M"]+counts["X"],
		int(window.Hours()),
		counts["X"], counts["M"], counts["C"], counts["B"],
	)

	var details string
	for _, ev := range events {
		line := fmt.Sprintf("%s at %s", ev.ClassType, ev.BeginTime.Format(time.RFC3339))
		if ev.SourceLocation != "" {
			line += " from " + ev.SourceLocation
		}
		if ev.ActiveRegionNum != 0 {
			line += fmt.Sprintf(" (AR %d)", ev.ActiveRegionNum)
		}
		details += line + "\n"
	}
	if details == "" {
		details = "No flares recorded in the catalog window."
	}
	report.Details = details
}
