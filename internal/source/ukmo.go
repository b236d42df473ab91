package source

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
	"github.com/couchcryptid/space-weather-ingest/internal/fetch"
)

const ukmoForecastPath = "/specialist-forecasts/space-weather"

// UKMO normalizes the UK Met Office space-weather forecast page. The agency
// publishes no machine-readable feed, so this source is a pure HTML scrape.
type UKMO struct {
	client  *fetch.Client
	baseURL string
	logger  *slog.Logger
}

func NewUKMO(client *fetch.Client, baseURL string, logger *slog.Logger) *UKMO {
	return &UKMO{client: client, baseURL: baseURL, logger: logger}
}

func (s *UKMO) Source() domain.Source { return domain.SourceUKMO }

func (s *UKMO) Normalize(ctx context.Context) (domain.NormalizedReport, error) {
	pageURL := s.baseURL + ukmoForecastPath
	resp, err := s.client.Get(ctx, pageURL, nil)
	if err != nil {
		return domain.NormalizedReport{}, fmt.Errorf("ukmo forecast page: %w", err)
	}

	report := ParseUKMOPage(resp.Body, domain.Clock().Now().UTC())
	report.SourceURL = pageURL

	finishReport(&report, s.logger)
	return report, nil
}

var (
	ukmoH1Re        = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	ukmoParagraphRe = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
)

// minSummaryLen filters boilerplate paragraphs (cookie banners, nav labels)
// when picking the summary.
const minSummaryLen = 60

// ParseUKMOPage extracts the forecast from the HTML document. Structure is
// taken from headings and paragraphs only; no DOM parsing, the page is flat
// enough for regex extraction and layout churn lands in ProcessingErrors
// rather than breaking the fetch.
func ParseUKMOPage(raw []byte, fetchedAt time.Time) domain.NormalizedReport {
	page := string(raw)
	report := domain.NormalizedReport{
		Source:     domain.SourceUKMO,
		FetchedAt:  fetchedAt,
		RawPayload: raw,
	}

	text := stripHTML(page)
	if text == "" {
		report.AddProcessingError("empty page body")
		return report
	}
	report.Details = text

	if m := ukmoH1Re.FindStringSubmatch(page); m != nil {
		report.Headline = collapseWhitespace(stripHTML(m[1]))
	} else {
		report.AddProcessingError("no headline element found")
	}

	for _, m := range ukmoParagraphRe.FindAllStringSubmatch(page, -1) {
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
		report.ValidStart = issued
		report.ValidEnd = issued.Add(domain.DefaultValidityHours * time.Hour)
	} else {
		report.AddProcessingError("no issue time found, using fetch time")
	}

	if kp, ok := extractKp(text); ok {
		report.GeomagneticLevel = domain.KpToGLevel(kp)
	}
	if m, x, ok := extractFlareProbabilities(text); ok {
		report.RadioBlackoutLevel = domain.FlareProbabilitiesToRLevel(m, x)
	}
	if flux, ok := extractProtonFlux(text); ok {
		report.RadiationStormLevel = domain.ProtonFluxToSLevel(flux)
	}

	return report
}
