package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
	"github.com/couchcryptid/space-weather-ingest/internal/fetch"
)

const (
	bomOutlookAPIPath  = "/api/v1/get-aurora-outlook"
	bomOutlookPagePath = "/aurora/outlook"
)

// BOMSWS normalizes the Australian Bureau of Meteorology Space Weather
// Services aurora outlook. The typed API is preferred; when it fails for
// any reason the HTML rendering of the same bulletin is scraped instead.
// The fallback is mandatory, and using it is recorded as a downgrade in
// the report's ProcessingErrors.
type BOMSWS struct {
	client  *fetch.Client
	baseURL string
	logger  *slog.Logger
}

func NewBOMSWS(client *fetch.Client, baseURL string, logger *slog.Logger) *BOMSWS {
	return &BOMSWS{client: client, baseURL: baseURL, logger: logger}
}

func (s *BOMSWS) Source() domain.Source { return domain.SourceBOMSWS }

func (s *BOMSWS) Normalize(ctx context.Context) (domain.NormalizedReport, error) {
	apiURL := s.baseURL + bomOutlookAPIPath
	resp, err := s.client.Get(ctx, apiURL, http.Header{"Accept": {"application/json"}})
	if err == nil {
		report, perr := parseBOMOutlook(resp.Body, domain.Clock().Now().UTC())
		if perr == nil {
			report.SourceURL = apiURL
			finishReport(&report, s.logger)
			return report, nil
		}
		err = perr
	}

	s.logger.Warn("bom api failed, falling back to html scrape", "error", err)

	pageURL := s.baseURL + bomOutlookPagePath
	pageResp, pageErr := s.client.Get(ctx, pageURL, nil)
	if pageErr != nil {
		return domain.NormalizedReport{}, fmt.Errorf("bom outlook: api (%v) and html fallback both failed: %w", err, pageErr)
	}

	report := ParseBOMPage(pageResp.Body, domain.Clock().Now().UTC())
	report.SourceURL = pageURL
	report.AddProcessingError("api unavailable, downgraded to html scrape: %v", err)

	finishReport(&report, s.logger)
	return report, nil
}

// bomOutlook is the typed API response envelope.
type bomOutlook struct {
	Data []bomOutlookEntry `json:"data"`
}

type bomOutlookEntry struct {
	IssueTime   string `json:"issue_time"`
	ValidStart  string `json:"start_date"`
	ValidEnd    string `json:"end_date"`
	KAus        int    `json:"k_aus"`
	LatBand     string `json:"lat_band"`
	Description string `json:"description"`
	Comments    string `json:"comments"`
}

// parseBOMOutlook builds a report from the typed API payload. Unlike the
// scrape path, a malformed envelope here is an error so the caller can fall
// back to HTML.
func parseBOMOutlook(raw []byte, fetchedAt time.Time) (domain.NormalizedReport, error) {
	var outlook bomOutlook
	if err := json.Unmarshal(raw, &outlook); err != nil {
		return domain.NormalizedReport{}, fmt.Errorf("decode outlook: %w", err)
	}
	if len(outlook.Data) == 0 {
		return domain.NormalizedReport{}, fmt.Errorf("outlook payload has no entries")
	}
	entry := outlook.Data[0]

	report := domain.NormalizedReport{
		Source:     domain.SourceBOMSWS,
		FetchedAt:  fetchedAt,
		Summary:    collapseWhitespace(entry.Description),
		Details:    collapseWhitespace(entry.Comments),
		RawPayload: raw,
	}
	if report.Details == "" {
		report.Details = report.Summary
	}
	if report.Summary != "" {
		report.Headline = firstSentence(report.Summary, 140)
	} else {
		report.AddProcessingError("outlook entry has no description")
	}

	if issued, ok := parseTimestamp(entry.IssueTime); ok {
		report.IssuedAt = issued
	} else {
		report.AddProcessingError("unparseable issue time %q, using fetch time", entry.IssueTime)
	}
	if start, ok := parseTimestamp(entry.ValidStart); ok {
		report.ValidStart = start
	}
	if end, ok := parseTimestamp(entry.ValidEnd); ok {
		report.ValidEnd = end
	}

	// K_aus tracks the planetary Kp closely enough for scale mapping.
	report.GeomagneticLevel = domain.KpToGLevel(float64(entry.KAus))

	return report, nil
}

// ParseBOMPage extracts the outlook from the HTML rendering, the degraded
// path when the API is down.
func ParseBOMPage(raw []byte, fetchedAt time.Time) domain.NormalizedReport {
	report := domain.NormalizedReport{
		Source:     domain.SourceBOMSWS,
		FetchedAt:  fetchedAt,
		RawPayload: raw,
	}

	text := stripHTML(string(raw))
	if text == "" {
		report.AddProcessingError("empty page body")
		return report
	}
	report.Details = text

	if m := ukmoH1Re.FindStringSubmatch(string(raw)); m != nil {
		report.Headline = collapseWhitespace(stripHTML(m[1]))
	}
	for _, m := range ukmoParagraphRe.FindAllStringSubmatch(string(raw), -1) {
		p := collapseWhitespace(stripHTML(m[1]))
		if len(p) >= minSummaryLen {
			report.Summary = p
			break
		}
	}
	if report.Summary == "" {
		report.AddProcessingError("no summary paragraph found")
	}

	if issued, ok := extractIssuedAt(text); ok {
		report.IssuedAt = issued
	} else {
		report.AddProcessingError("no issue time found, using fetch time")
	}
	if kp, ok := extractKp(text); ok {
		report.GeomagneticLevel = domain.KpToGLevel(kp)
	}

	return report
}
