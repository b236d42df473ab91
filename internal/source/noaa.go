package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
	"github.com/couchcryptid/space-weather-ingest/internal/fetch"
)

const (
	swpcDiscussionPath    = "/text/discussion.txt"
	swpcProbabilitiesPath = "/json/solar_probabilities.json"
)

// NOAASWPC normalizes the NOAA Space Weather Prediction Center forecast
// discussion, a free-text product, supplemented by the typed solar
// probabilities feed for radio-blackout derivation.
type NOAASWPC struct {
	client  *fetch.Client
	baseURL string
	logger  *slog.Logger
}

func NewNOAASWPC(client *fetch.Client, baseURL string, logger *slog.Logger) *NOAASWPC {
	return &NOAASWPC{client: client, baseURL: baseURL, logger: logger}
}

func (s *NOAASWPC) Source() domain.Source { return domain.SourceNOAASWPC }

// Normalize fetches the discussion text and reduces it to a report. Only a
// failed discussion fetch is fatal; a missing or unreadable probabilities
// feed degrades into ProcessingErrors.
func (s *NOAASWPC) Normalize(ctx context.Context) (domain.NormalizedReport, error) {
	url := s.baseURL + swpcDiscussionPath
	resp, err := s.client.Get(ctx, url, nil)
	if err != nil {
		return domain.NormalizedReport{}, fmt.Errorf("swpc discussion: %w", err)
	}

	report := ParseSWPCDiscussion(resp.Body, domain.Clock().Now().UTC())
	report.SourceURL = url

	s.applyProbabilities(ctx, &report)

	finishReport(&report, s.logger)
	return report, nil
}

// applyProbabilities overrides the text-derived radio blackout level with
// the typed probabilities feed when that feed is healthy. The regex-derived
// value stays in place otherwise.
func (s *NOAASWPC) applyProbabilities(ctx context.Context, report *domain.NormalizedReport) {
	resp, err := s.client.Get(ctx, s.baseURL+swpcProbabilitiesPath, http.Header{"Accept": {"application/json"}})
	if err != nil {
		report.AddProcessingError("solar probabilities feed unavailable: %v", err)
		return
	}
	level, err := parseSolarProbabilities(resp.Body)
	if err != nil {
		report.AddProcessingError("solar probabilities feed unreadable: %v", err)
		return
	}
	if level != "" {
		report.RadioBlackoutLevel = level
	}
}

var (
	swpcSummaryHeaderRe  = regexp.MustCompile(`(?im)^\.?24 hr Summary[.…:]*\s*$`)
	swpcForecastHeaderRe = regexp.MustCompile(`(?im)^\.?Forecast[.…:]*\s*$`)
	confidenceRe         = regexp.MustCompile(`(?i)forecast confidence\W+(high|moderate|medium|low)`)
)

// ParseSWPCDiscussion converts the raw discussion product into a report.
// Exported so fixture tooling and tests can parse canned bulletins without
// a live fetch. Every sub-extraction is best-effort.
func ParseSWPCDiscussion(raw []byte, fetchedAt time.Time) domain.NormalizedReport {
	text := string(raw)
	report := domain.NormalizedReport{
		Source:     domain.SourceNOAASWPC,
		FetchedAt:  fetchedAt,
		Details:    strings.TrimSpace(text),
		RawPayload: raw,
	}
	if report.Details == "" {
		report.AddProcessingError("empty discussion body")
		return report
	}

	if issued, ok := extractIssuedAt(text); ok {
		report.IssuedAt = issued
		report.ValidStart = issued
		report.ValidEnd = issued.Add(domain.DefaultValidityHours * time.Hour)
	} else {
		report.AddProcessingError("no issue time found, using fetch time")
	}

	if summary, ok := sectionAfter(text, swpcSummaryHeaderRe); ok {
		report.Summary = collapseWhitespace(summary)
	} else if forecast, ok := sectionAfter(text, swpcForecastHeaderRe); ok {
		report.Summary = collapseWhitespace(forecast)
		report.AddProcessingError("no 24 hr summary section, using forecast section")
	} else {
		report.AddProcessingError("no summary section found")
	}

	if report.Summary != "" {
		report.Headline = firstSentence(report.Summary, 140)
	} else if class, ok := extractLargestFlareClass(text); ok {
		report.Headline = "Largest recent event: " + class
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

	if m := confidenceRe.FindStringSubmatch(text); m != nil {
		report.Confidence = normalizeConfidence(m[1])
	}

	return report
}

// normalizeConfidence folds agency vocabulary onto High/Medium/Low.
func normalizeConfidence(raw string) string {
	switch strings.ToLower(raw) {
	case "high":
		return "High"
	case "medium", "moderate":
		return "Medium"
	case "low":
		return "Low"
	}
	return ""
}

// solarProbability is one day of the SWPC probabilities feed.
type solarProbability struct {
	Date       string `json:"date"`
	MClass1Day int    `json:"m_class_1_day"`
	XClass1Day int    `json:"x_class_1_day"`
	Proton1Day int    `json:"proton_1_day"`
}

// parseSolarProbabilities derives the radio blackout level from the first
// (current-day) entry of the probabilities feed.
func parseSolarProbabilities(raw []byte) (domain.HazardLevel, error) {
	var probs []solarProbability
	if err := json.Unmarshal(raw, &probs); err != nil {
		return "", fmt.Errorf("decode solar probabilities: %w", err)
	}
	if len(probs) == 0 {
		return "", fmt.Errorf("solar probabilities feed is empty")
	}
	today := probs[0]
	return domain.FlareProbabilitiesToRLevel(float64(today.MClass1Day), float64(today.XClass1Day)), nil
}
