package source

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
	"github.com/couchcryptid/space-weather-ingest/internal/fetch"
)

const sidcBulletinPath = "/products/meu"

// SIDC normalizes the daily ursigram of the Solar Influences Data analysis
// Center (Royal Observatory of Belgium), a plain-text bulletin with
// all-caps section headers.
type SIDC struct {
	client  *fetch.Client
	baseURL string
	logger  *slog.Logger
}

func NewSIDC(client *fetch.Client, baseURL string, logger *slog.Logger) *SIDC {
	return &SIDC{client: client, baseURL: baseURL, logger: logger}
}

func (s *SIDC) Source() domain.Source { return domain.SourceSIDC }

func (s *SIDC) Normalize(ctx context.Context) (domain.NormalizedReport, error) {
	bulletinURL := s.baseURL + sidcBulletinPath
	resp, err := s.client.Get(ctx, bulletinURL, nil)
	if err != nil {
		return domain.NormalizedReport{}, fmt.Errorf("sidc ursigram: %w", err)
	}

	report := ParseSIDCUrsigram(resp.Body, domain.Clock().Now().UTC())
	report.SourceURL = bulletinURL

	finishReport(&report, s.logger)
	return report, nil
}

// sidcSection extracts the body of an all-caps ursigram section, e.g.
// "SOLAR FLARES : quiet levels expected." The body runs to the next
// all-caps header or the end of the bulletin.
func sidcSection(text, name string) (string, bool) {
	re := regexp.MustCompile(`(?is)` + regexp.QuoteMeta(name) + `\s*:\s*(.*?)(?:\n[A-Z][A-Z ]{3,}\s*:|\z)`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return "", false
	}
	return body, true
}

// ParseSIDCUrsigram converts the plain-text bulletin into a report. The
// SOLAR FLARES section drives the narrative; GEOMAGNETISM and PROTON FLUX
// feed the hazard mapper.
func ParseSIDCUrsigram(raw []byte, fetchedAt time.Time) domain.NormalizedReport {
	text := string(raw)
	report := domain.NormalizedReport{
		Source:     domain.SourceSIDC,
		FetchedAt:  fetchedAt,
		Details:    strings.TrimSpace(text),
		RawPayload: raw,
	}
	if report.Details == "" {
		report.AddProcessingError("empty bulletin body")
		return report
	}

	if issued, ok := extractIssuedAt(text); ok {
		report.IssuedAt = issued
		report.ValidStart = issued
		report.ValidEnd = issued.Add(domain.DefaultValidityHours * time.Hour)
	} else {
		report.AddProcessingError("no issue time found, using fetch time")
	}

	if flares, ok := sidcSection(text, "SOLAR FLARES"); ok {
		report.Summary = collapseWhitespace(flares)
		report.Headline = firstSentence(report.Summary, 140)
	} else {
		report.AddProcessingError("no solar flares section found")
	}

	if geomag, ok := sidcSection(text, "GEOMAGNETISM"); ok {
		if kp, found := extractKp(geomag); found {
			report.GeomagneticLevel = domain.KpToGLevel(kp)
		}
	} else {
		report.AddProcessingError("no geomagnetism section found")
	}

	if protons, ok := sidcSection(text, "PROTON FLUX"); ok {
		if flux, found := extractProtonFlux(protons); found {
			report.RadiationStormLevel = domain.ProtonFluxToSLevel(flux)
		}
	}

	if m, x, ok := extractFlareProbabilities(text); ok {
		report.RadioBlackoutLevel = domain.FlareProbabilitiesToRLevel(m, x)
	}

	return report
}
