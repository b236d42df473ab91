package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
	"github.com/couchcryptid/space-weather-ingest/internal/fetch"
)

const goesFlarePath = "/json/goes/primary/xray-flares-1-day.json"

// GOES normalizes the NOAA GOES X-ray flare list, the secondary flare
// catalog used to fill gaps in DONKI coverage.
type GOES struct {
	client  *fetch.Client
	baseURL string
	logger  *slog.Logger
}

func NewGOES(client *fetch.Client, baseURL string, logger *slog.Logger) *GOES {
	return &GOES{client: client, baseURL: baseURL, logger: logger}
}

func (s *GOES) Source() domain.Source { return domain.SourceNOAAGOES }

// goesFlare is one entry of the GOES X-ray flare product.
type goesFlare struct {
	ClassType string `json:"class_type"`
	BeginTime string `json:"begin_time"`
	PeakTime  string `json:"peak_time"`
	EndTime   string `json:"end_time"`
	Location  string `json:"location"`
	Region    string `json:"region"` // active region number as a string, may be "Unknown"
}

// Flares fetches and decodes the X-ray flare list.
func (s *GOES) Flares(ctx context.Context) ([]domain.FlareEvent, error) {
	resp, err := s.client.Get(ctx, s.baseURL+goesFlarePath, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, fmt.Errorf("goes flare list: %w", err)
	}
	events, _ := parseGOESFlares(resp.Body)
	return events, nil
}

// Normalize reduces the flare list to an activity summary report.
func (s *GOES) Normalize(ctx context.Context) (domain.NormalizedReport, error) {
	listURL := s.baseURL + goesFlarePath
	resp, err := s.client.Get(ctx, listURL, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return domain.NormalizedReport{}, fmt.Errorf("goes flare list: %w", err)
	}

	report := domain.NormalizedReport{
		Source:     domain.SourceNOAAGOES,
		SourceURL:  listURL,
		FetchedAt:  domain.Clock().Now().UTC(),
		RawPayload: resp.Body,
	}

	events, dropped := parseGOESFlares(resp.Body)
	if events == nil && dropped == 0 {
		report.AddProcessingError("flare list unreadable")
	}
	if dropped > 0 {
		report.AddProcessingError("%d flare entries dropped (missing begin time)", dropped)
	}

	fillFlareNarrative(&report, events, 24*time.Hour)

	finishReport(&report, s.logger)
	return report, nil
}

// parseGOESFlares decodes the flare list, returning the count of entries
// dropped for lacking a usable begin time. IDs are synthesized from class
// and begin time since the product carries none.
func parseGOESFlares(raw []byte) ([]domain.FlareEvent, int) {
	var entries []goesFlare
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
			ID:             fmt.Sprintf("goes-%s-%d", e.ClassType, begin.Unix()),
			ClassType:      e.ClassType,
			BeginTime:      begin,
			SourceLocation: e.Location,
			Source:         domain.SourceNOAAGOES,
		}
		if peak, ok := parseCatalogTime(e.PeakTime); ok {
			ev.PeakTime = peak
		}
		if end, ok := parseCatalogTime(e.EndTime); ok {
			ev.EndTime = end
		}
		if n, err := strconv.Atoi(e.Region); err == nil {
			ev.ActiveRegionNum = n
		}
		events = append(events, ev)
	}
	return events, dropped
}
